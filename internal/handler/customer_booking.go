package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bus-seat-booking/internal/booking"
	"github.com/iliyamo/bus-seat-booking/internal/config"
	"github.com/iliyamo/bus-seat-booking/internal/model"
	"github.com/iliyamo/bus-seat-booking/internal/queue"
	"github.com/iliyamo/bus-seat-booking/internal/repository"
	queue_publisher "github.com/iliyamo/bus-seat-booking/internal/service"
)

// CustomerHandler serves seat holds, bookings and the demo payment
// flow.  Holds go through the coordinator, which owns the Redis
// lock-store-first, database-fallback decision; this handler only
// translates its outcomes to HTTP.  All methods assume JWT
// authentication already ran.
type CustomerHandler struct {
	Cfg          config.Config
	Coordinator  *booking.Coordinator
	Lifecycle    *booking.Lifecycle
	Routes       *repository.RouteRepo
	Schedules    *repository.ScheduleRepo
	Reservations *repository.ReservationRepo
	Bookings     *repository.BookingRepo
	Payments     *repository.PaymentRepo
}

func NewCustomerHandler(cfg config.Config, co *booking.Coordinator, lc *booking.Lifecycle, routes *repository.RouteRepo, schedules *repository.ScheduleRepo, reservations *repository.ReservationRepo, bookings *repository.BookingRepo, payments *repository.PaymentRepo) *CustomerHandler {
	if co == nil || lc == nil || schedules == nil || reservations == nil || bookings == nil || payments == nil {
		panic("nil dependency passed to NewCustomerHandler")
	}
	return &CustomerHandler{
		Cfg:          cfg,
		Coordinator:  co,
		Lifecycle:    lc,
		Routes:       routes,
		Schedules:    schedules,
		Reservations: reservations,
		Bookings:     bookings,
		Payments:     payments,
	}
}

// HoldSeats handles POST /v1/schedules/:id/hold.  The body carries a
// "seats" array of labels.  On success all requested seats are held
// for the configured TTL; on a conflict nothing is held and the
// response names the first unavailable seat.
func (h *CustomerHandler) HoldSeats(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	scheduleID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid schedule id"})
	}
	var body struct {
		Seats []string `json:"seats"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	seats := dedupeSeats(body.Seats)
	if len(seats) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seats is required"})
	}

	res, err := h.Coordinator.Hold(c.Request().Context(), scheduleID, seats, userID, h.Cfg.SeatHoldTTL)
	if err != nil {
		var unavailable *booking.SeatUnavailableError
		switch {
		case errors.As(err, &unavailable):
			return c.JSON(http.StatusConflict, echo.Map{
				"error": "seat not available",
				"seat":  unavailable.Seat,
			})
		case errors.Is(err, repository.ErrScheduleNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "schedule not found"})
		case errors.Is(err, booking.ErrScheduleNotBookable):
			return c.JSON(http.StatusConflict, echo.Map{"error": "schedule is not open for booking"})
		case errors.Is(err, booking.ErrNoSeats):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "seats is required"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hold failed"})
		}
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"reservation_ids": res.ReservationIDs,
		"seats":           seats,
		"expires_at":      res.ExpiresAt,
		"ttl_seconds":     int(res.TTL.Seconds()),
	})
}

// ReleaseHolds handles DELETE /v1/schedules/:id/hold.  It frees the
// caller's seat locks immediately instead of waiting for the TTL, and
// cancels the matching pending reservation rows so the seats read as
// free right away.  Only seats backed by the caller's own pending
// reservations are released; naming someone else's held seat must not
// strip that holder's lock.
func (h *CustomerHandler) ReleaseHolds(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	scheduleID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid schedule id"})
	}
	var body struct {
		Seats []string `json:"seats"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	seats := dedupeSeats(body.Seats)
	if len(seats) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seats is required"})
	}

	ctx := c.Request().Context()
	reservations, err := h.Reservations.ListByUser(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	owned := ownedPendingSeats(reservations, scheduleID, seats)
	if len(owned) > 0 {
		h.Coordinator.Release(ctx, scheduleID, ownedSeatNos(owned))
		for _, r := range owned {
			_ = h.Reservations.Cancel(ctx, r.ID, userID)
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"released": ownedSeatNos(owned)})
}

// ListReservations handles GET /v1/me/reservations.
func (h *CustomerHandler) ListReservations(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	reservations, err := h.Reservations.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]echo.Map, 0, len(reservations))
	for _, r := range reservations {
		out = append(out, echo.Map{
			"id":          r.ID,
			"schedule_id": r.ScheduleID,
			"seat_no":     r.SeatNo,
			"status":      r.Status,
			"expires_at":  r.ExpiresAt,
			"created_at":  r.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"reservations": out})
}

// CancelReservation handles DELETE /v1/reservations/:id.  Only the
// owner may cancel, and only while the reservation is PENDING.  The
// matching seat lock is released so the seat frees up immediately.
func (h *CustomerHandler) CancelReservation(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	reservationID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	ctx := c.Request().Context()

	// Look the row up first so the lock can be released too.
	reservations, err := h.Reservations.ListByUser(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	var target *model.Reservation
	for i := range reservations {
		if reservations[i].ID == reservationID {
			target = &reservations[i]
			break
		}
	}
	if target == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
	}

	if err := h.Reservations.Cancel(ctx, reservationID, userID); err != nil {
		// The row exists and is the caller's, so zero matched rows
		// means it is no longer PENDING.
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "reservation is not pending"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cancel failed"})
	}
	h.Coordinator.Release(ctx, target.ScheduleID, []string{target.SeatNo})
	return c.JSON(http.StatusOK, echo.Map{"message": "cancelled"})
}

// CreateBooking handles POST /v1/bookings.  The caller must already
// hold every requested seat; the booking groups them, prices them
// from the schedule fare and opens a demo payment order to be settled
// via the webhook.
func (h *CustomerHandler) CreateBooking(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		ScheduleID      uint64   `json:"schedule_id"`
		Seats           []string `json:"seats"`
		ContactPhone    string   `json:"contact_phone"`
		BoardingPointID *uint64  `json:"boarding_point_id"`
		DroppingPointID *uint64  `json:"dropping_point_id"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	seats := dedupeSeats(body.Seats)
	if body.ScheduleID == 0 || len(seats) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "schedule_id and seats are required"})
	}
	ctx := c.Request().Context()

	sched, err := h.Schedules.GetByID(ctx, body.ScheduleID)
	if err != nil {
		if errors.Is(err, repository.ErrScheduleNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "schedule not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if sched.Status != model.ScheduleStatusActive {
		return c.JSON(http.StatusConflict, echo.Map{"error": "schedule is not open for booking"})
	}

	// Every seat must be backed by the caller's own live hold.
	reservations, err := h.Reservations.ListByUser(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	now := time.Now().UTC()
	held := make(map[string]bool)
	for _, r := range reservations {
		if r.ScheduleID == body.ScheduleID && r.Status == model.ReservationStatusPending && r.ExpiresAt.After(now) {
			held[r.SeatNo] = true
		}
	}
	for _, s := range seats {
		if !held[s] {
			return c.JSON(http.StatusConflict, echo.Map{"error": "seat is not held", "seat": s})
		}
	}

	seatsJSON, err := json.Marshal(seats)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "encode seats failed"})
	}
	b := &model.Booking{
		UserID:          userID,
		ScheduleID:      body.ScheduleID,
		SeatsJSON:       string(seatsJSON),
		AmountCents:     sched.FareCents * uint32(len(seats)),
		Status:          model.BookingStatusPending,
		ContactPhone:    strings.TrimSpace(body.ContactPhone),
		BoardingPointID: body.BoardingPointID,
		DroppingPointID: body.DroppingPointID,
	}
	if err := h.Bookings.Create(ctx, b); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create booking failed"})
	}

	// Demo payment gateway: the order id doubles as the reference the
	// webhook later settles.
	p := &model.Payment{
		BookingID:      b.ID,
		GatewayOrderID: "order_" + uuid.NewString(),
		Status:         "CREATED",
	}
	if err := h.Payments.Create(ctx, p); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create payment failed"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"booking_id":   b.ID,
		"order_id":     p.GatewayOrderID,
		"amount_cents": b.AmountCents,
		"status":       b.Status,
	})
}

// ConfirmPayment handles POST /v1/payments/webhook, the callback of
// the demo payment gateway.  A SUCCESS settlement confirms the
// booking and promotes the matching holds to CONFIRMED, preferably by
// publishing a payment.confirmed event for the background consumer;
// if the broker is unreachable promotion happens inline so payment
// settlement never gets lost.
func (h *CustomerHandler) ConfirmPayment(c echo.Context) error {
	var body struct {
		OrderID          string `json:"order_id"`
		Status           string `json:"status"` // SUCCESS | FAILED
		GatewayPaymentID string `json:"gateway_payment_id"`
	}
	if err := c.Bind(&body); err != nil || strings.TrimSpace(body.OrderID) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "order_id is required"})
	}
	status := strings.ToUpper(strings.TrimSpace(body.Status))
	if status != "SUCCESS" && status != "FAILED" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status must be SUCCESS or FAILED"})
	}
	ctx := c.Request().Context()

	p, err := h.Payments.GetByOrderID(ctx, body.OrderID)
	if err != nil {
		if errors.Is(err, repository.ErrPaymentNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "payment not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	raw, _ := json.Marshal(body)
	if err := h.Payments.MarkStatus(ctx, p.ID, status, body.GatewayPaymentID, string(raw)); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update payment failed"})
	}
	if status != "SUCCESS" {
		return c.JSON(http.StatusOK, echo.Map{"message": "payment marked failed"})
	}

	b, err := h.Bookings.GetByID(ctx, p.BookingID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load booking failed"})
	}
	if err := h.Bookings.Confirm(ctx, b.ID, body.GatewayPaymentID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "confirm booking failed"})
	}

	var seats []string
	if err := json.Unmarshal([]byte(b.SeatsJSON), &seats); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "decode seats failed"})
	}

	confirmedAt := time.Now().UTC().Format(time.RFC3339)
	event := queue.PaymentConfirmedEvent{
		BookingID:   b.ID,
		ScheduleID:  b.ScheduleID,
		UserID:      b.UserID,
		SeatNos:     seats,
		PaymentRef:  body.OrderID,
		AmountCents: b.AmountCents,
		ConfirmedAt: confirmedAt,
	}
	if err := queue_publisher.PublishPaymentConfirmed(ctx, event); err != nil {
		// Broker down: promote inline rather than dropping the settlement.
		if err := h.Lifecycle.PromoteConfirmed(ctx, b.ScheduleID, seats, b.UserID); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "promote reservations failed"})
		}
	}

	go h.publishBookingConfirmed(b, seats, confirmedAt)

	return c.JSON(http.StatusOK, echo.Map{"message": "payment confirmed", "booking_id": b.ID})
}

// publishBookingConfirmed emits the downstream notification event on
// a best-effort basis; a broker outage is logged by the publisher and
// otherwise ignored.
func (h *CustomerHandler) publishBookingConfirmed(b model.Booking, seats []string, confirmedAt string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	event := queue.BookingConfirmedEvent{
		BookingID:   b.ID,
		UserID:      b.UserID,
		ScheduleID:  b.ScheduleID,
		SeatNos:     seats,
		AmountCents: b.AmountCents,
		ConfirmedAt: confirmedAt,
	}
	if sched, err := h.Schedules.GetByID(ctx, b.ScheduleID); err == nil {
		event.DepartAt = sched.DepartureAt.Format(time.RFC3339)
		if h.Routes != nil {
			if route, err := h.Routes.GetByID(ctx, sched.RouteID); err == nil {
				event.Origin = route.Origin
				event.Destination = route.Destination
				event.RouteName = route.Origin + " - " + route.Destination
			}
		}
	}
	_ = queue_publisher.PublishBookingConfirmed(ctx, event)
}

// ListBookings handles GET /v1/me/bookings.
func (h *CustomerHandler) ListBookings(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookings, err := h.Bookings.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]echo.Map, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, bookingJSON(b))
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": out})
}

// GetBooking handles GET /v1/bookings/:id.  Only the owner may read.
func (h *CustomerHandler) GetBooking(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookingID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	b, err := h.Bookings.GetByID(c.Request().Context(), bookingID)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if b.UserID != userID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	return c.JSON(http.StatusOK, bookingJSON(b))
}

func bookingJSON(b model.Booking) echo.Map {
	var seats []string
	_ = json.Unmarshal([]byte(b.SeatsJSON), &seats)
	return echo.Map{
		"id":            b.ID,
		"schedule_id":   b.ScheduleID,
		"seats":         seats,
		"amount_cents":  b.AmountCents,
		"status":        b.Status,
		"payment_id":    b.PaymentID,
		"contact_phone": b.ContactPhone,
		"created_at":    b.CreatedAt,
	}
}
