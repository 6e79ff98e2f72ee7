package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bus-seat-booking/internal/model"
	"github.com/iliyamo/bus-seat-booking/internal/repository"
)

// PublicHandler serves the unauthenticated browse endpoints: route
// listing, schedule search, seat maps and boarding/dropping points.
// Seat availability shown here is advisory — the authoritative check
// happens at hold time — so these endpoints sit behind the response
// cache middleware.
type PublicHandler struct {
	Routes       *repository.RouteRepo
	Schedules    *repository.ScheduleRepo
	Reservations *repository.ReservationRepo
	Bookings     *repository.BookingRepo
}

func NewPublicHandler(routes *repository.RouteRepo, schedules *repository.ScheduleRepo, reservations *repository.ReservationRepo, bookings *repository.BookingRepo) *PublicHandler {
	if routes == nil || schedules == nil || reservations == nil || bookings == nil {
		panic("nil repository passed to NewPublicHandler")
	}
	return &PublicHandler{Routes: routes, Schedules: schedules, Reservations: reservations, Bookings: bookings}
}

// ListRoutes handles GET /v1/routes.
func (h *PublicHandler) ListRoutes(c echo.Context) error {
	routes, err := h.Routes.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]echo.Map, 0, len(routes))
	for _, r := range routes {
		out = append(out, echo.Map{
			"id":          r.ID,
			"origin":      r.Origin,
			"destination": r.Destination,
			"distance_km": r.DistanceKM,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"routes": out})
}

// SearchSchedules handles GET /v1/schedules.  Search either by
// route_id or by origin/destination city names; an optional date
// (YYYY-MM-DD) narrows results to departures on that day.  Only
// ACTIVE schedules are returned.
func (h *PublicHandler) SearchSchedules(c echo.Context) error {
	ctx := c.Request().Context()
	date := strings.TrimSpace(c.QueryParam("date"))

	var routeIDs []uint64
	if raw := c.QueryParam("route_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid route_id"})
		}
		routeIDs = append(routeIDs, id)
	} else {
		origin := strings.TrimSpace(c.QueryParam("origin"))
		dest := strings.TrimSpace(c.QueryParam("destination"))
		if origin == "" && dest == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "route_id or origin/destination required"})
		}
		routes, err := h.Routes.List(ctx)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		for _, r := range routes {
			if origin != "" && !strings.EqualFold(r.Origin, origin) {
				continue
			}
			if dest != "" && !strings.EqualFold(r.Destination, dest) {
				continue
			}
			routeIDs = append(routeIDs, r.ID)
		}
	}

	out := make([]echo.Map, 0)
	for _, routeID := range routeIDs {
		schedules, err := h.Schedules.ListActive(ctx, routeID, date)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		for _, s := range schedules {
			out = append(out, echo.Map{
				"id":           s.ID,
				"route_id":     s.RouteID,
				"bus_id":       s.BusID,
				"departure_at": s.DepartureAt,
				"arrival_at":   s.ArrivalAt,
				"fare_cents":   s.FareCents,
			})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"schedules": out})
}

// GetSeatMap handles GET /v1/schedules/:id/seats.  It returns the
// bus layout with each seat marked available or occupied.  A seat is
// occupied when a CONFIRMED or unexpired PENDING reservation exists,
// or a live booking lists it; expired holds count as free even before
// the sweep touches them.
func (h *PublicHandler) GetSeatMap(c echo.Context) error {
	scheduleID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid schedule id"})
	}
	ctx := c.Request().Context()

	info, err := h.Schedules.GetSeatMapInfo(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, repository.ErrScheduleNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "schedule not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	reserved, err := h.Reservations.ActiveSeatNos(ctx, scheduleID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	booked, err := h.Bookings.OccupiedSeats(ctx, scheduleID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	occupied := make(map[string]bool, len(reserved)+len(booked))
	for _, s := range reserved {
		occupied[s] = true
	}
	for _, s := range booked {
		occupied[s] = true
	}

	layout := model.DecodeSeatMap(info.SeatMapJSON)
	seats := make([]echo.Map, 0, len(layout.Labels))
	for i, label := range layout.Labels {
		typ := "seater"
		if i < len(layout.Types) {
			typ = layout.Types[i]
		}
		seats = append(seats, echo.Map{
			"no":        label,
			"type":      typ,
			"available": !occupied[label],
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"schedule_id": scheduleID,
		"status":      info.Status,
		"fare_cents":  info.FareCents,
		"rows":        layout.Rows,
		"cols":        layout.Cols,
		"seats":       seats,
	})
}

// GetPoints handles GET /v1/schedules/:id/points, returning the
// boarding and dropping points of a schedule.
func (h *PublicHandler) GetPoints(c echo.Context) error {
	scheduleID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid schedule id"})
	}
	ctx := c.Request().Context()

	if _, err := h.Schedules.GetByID(ctx, scheduleID); err != nil {
		if errors.Is(err, repository.ErrScheduleNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "schedule not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	boarding, err := h.Schedules.BoardingPoints(ctx, scheduleID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	dropping, err := h.Schedules.DroppingPoints(ctx, scheduleID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"boarding_points": boarding,
		"dropping_points": dropping,
	})
}
