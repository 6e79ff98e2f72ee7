package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bus-seat-booking/internal/model"
	"github.com/iliyamo/bus-seat-booking/internal/repository"
)

// OperatorHandler bundles the repositories operators use to manage
// their fleet: routes, buses, schedules and their stop lists.  Role
// middleware restricts these endpoints to OPERATOR and ADMIN.
type OperatorHandler struct {
	Routes    *repository.RouteRepo
	Buses     *repository.BusRepo
	Schedules *repository.ScheduleRepo
}

func NewOperatorHandler(routes *repository.RouteRepo, buses *repository.BusRepo, schedules *repository.ScheduleRepo) *OperatorHandler {
	if routes == nil || buses == nil || schedules == nil {
		panic("nil repository passed to NewOperatorHandler")
	}
	return &OperatorHandler{Routes: routes, Buses: buses, Schedules: schedules}
}

// CreateRoute handles POST /v1/operator/routes.
func (h *OperatorHandler) CreateRoute(c echo.Context) error {
	var body struct {
		Origin      string `json:"origin"`
		Destination string `json:"destination"`
		DistanceKM  uint32 `json:"distance_km"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	body.Origin = strings.TrimSpace(body.Origin)
	body.Destination = strings.TrimSpace(body.Destination)
	if body.Origin == "" || body.Destination == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "origin and destination are required"})
	}
	route := &model.Route{Origin: body.Origin, Destination: body.Destination, DistanceKM: body.DistanceKM}
	if err := h.Routes.Create(c.Request().Context(), route); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create route failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": route.ID})
}

// CreateBus handles POST /v1/operator/buses.  The seat map document
// is validated by decoding it; a missing map gets the default layout.
func (h *OperatorHandler) CreateBus(c echo.Context) error {
	operatorID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		Name    string          `json:"name"`
		RegNo   string          `json:"reg_no"`
		SeatMap json.RawMessage `json:"seat_map"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	body.Name = strings.TrimSpace(body.Name)
	body.RegNo = strings.ToUpper(strings.TrimSpace(body.RegNo))
	if body.Name == "" || body.RegNo == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and reg_no are required"})
	}

	seatMapJSON := string(body.SeatMap)
	layout := model.DecodeSeatMap(seatMapJSON)
	if encoded, err := json.Marshal(layout); err == nil {
		seatMapJSON = string(encoded) // store the normalized document
	}

	bus := &model.Bus{
		OperatorID:  operatorID,
		Name:        body.Name,
		RegNo:       body.RegNo,
		SeatMapJSON: seatMapJSON,
		IsActive:    true,
	}
	if err := h.Buses.Create(c.Request().Context(), bus); err != nil {
		if errors.Is(err, repository.ErrRegNoExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "registration number already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create bus failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": bus.ID, "seats": len(layout.Labels)})
}

// ListBuses handles GET /v1/operator/buses.
func (h *OperatorHandler) ListBuses(c echo.Context) error {
	operatorID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	buses, err := h.Buses.ListByOperator(c.Request().Context(), operatorID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]echo.Map, 0, len(buses))
	for _, b := range buses {
		out = append(out, echo.Map{
			"id":        b.ID,
			"name":      b.Name,
			"reg_no":    b.RegNo,
			"is_active": b.IsActive,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"buses": out})
}

// CreateSchedule handles POST /v1/operator/schedules.  The bus must
// belong to the calling operator.  New schedules start PENDING and
// only accept bookings once activated.
func (h *OperatorHandler) CreateSchedule(c echo.Context) error {
	operatorID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		RouteID     uint64    `json:"route_id"`
		BusID       uint64    `json:"bus_id"`
		DepartureAt time.Time `json:"departure_at"`
		ArrivalAt   time.Time `json:"arrival_at"`
		FareCents   uint32    `json:"fare_cents"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.RouteID == 0 || body.BusID == 0 || body.FareCents == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "route_id, bus_id and fare_cents are required"})
	}
	if !body.ArrivalAt.After(body.DepartureAt) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "arrival must be after departure"})
	}
	ctx := c.Request().Context()

	if _, err := h.Routes.GetByID(ctx, body.RouteID); err != nil {
		if errors.Is(err, repository.ErrRouteNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "route not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	bus, err := h.Buses.GetByID(ctx, body.BusID)
	if err != nil {
		if errors.Is(err, repository.ErrBusNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "bus not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if bus.OperatorID != operatorID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	s := &model.Schedule{
		RouteID:     body.RouteID,
		BusID:       body.BusID,
		DepartureAt: body.DepartureAt.UTC(),
		ArrivalAt:   body.ArrivalAt.UTC(),
		FareCents:   body.FareCents,
		Status:      model.ScheduleStatusPending,
	}
	if err := h.Schedules.Create(ctx, s); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create schedule failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": s.ID, "status": s.Status})
}

// ListSchedules handles GET /v1/operator/schedules.
func (h *OperatorHandler) ListSchedules(c echo.Context) error {
	operatorID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	schedules, err := h.Schedules.ListByOperator(c.Request().Context(), operatorID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]echo.Map, 0, len(schedules))
	for _, s := range schedules {
		out = append(out, echo.Map{
			"id":           s.ID,
			"route_id":     s.RouteID,
			"bus_id":       s.BusID,
			"departure_at": s.DepartureAt,
			"arrival_at":   s.ArrivalAt,
			"fare_cents":   s.FareCents,
			"status":       s.Status,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"schedules": out})
}

// UpdateScheduleStatus handles PATCH /v1/operator/schedules/:id.  It
// moves a schedule between PENDING, ACTIVE and CANCELLED; ownership
// is checked against the schedule's bus.
func (h *OperatorHandler) UpdateScheduleStatus(c echo.Context) error {
	operatorID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	scheduleID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid schedule id"})
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	status := strings.ToUpper(strings.TrimSpace(body.Status))
	switch status {
	case model.ScheduleStatusPending, model.ScheduleStatusActive, model.ScheduleStatusCancelled:
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status must be PENDING, ACTIVE or CANCELLED"})
	}

	if err := h.Schedules.UpdateStatus(c.Request().Context(), scheduleID, operatorID, status); err != nil {
		switch {
		case errors.Is(err, repository.ErrScheduleNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "schedule not found"})
		case errors.Is(err, repository.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"id": scheduleID, "status": status})
}

// AddBoardingPoint handles POST /v1/operator/schedules/:id/boarding-points.
func (h *OperatorHandler) AddBoardingPoint(c echo.Context) error {
	operatorID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	scheduleID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid schedule id"})
	}
	var body struct {
		Time         string `json:"time"`
		LocationName string `json:"location_name"`
		Landmark     string `json:"landmark"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if strings.TrimSpace(body.LocationName) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "location_name is required"})
	}
	ownerID, err := h.scheduleOwner(c, scheduleID)
	if err != nil {
		if errors.Is(err, repository.ErrScheduleNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "schedule not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if ownerID != operatorID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	p := &model.BoardingPoint{
		ScheduleID:   scheduleID,
		Time:         strings.TrimSpace(body.Time),
		LocationName: strings.TrimSpace(body.LocationName),
		Landmark:     strings.TrimSpace(body.Landmark),
	}
	if err := h.Schedules.AddBoardingPoint(c.Request().Context(), p); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create boarding point failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": p.ID})
}

// AddDroppingPoint handles POST /v1/operator/schedules/:id/dropping-points.
func (h *OperatorHandler) AddDroppingPoint(c echo.Context) error {
	operatorID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	scheduleID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid schedule id"})
	}
	var body struct {
		Time         string `json:"time"`
		LocationName string `json:"location_name"`
		Description  string `json:"description"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if strings.TrimSpace(body.LocationName) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "location_name is required"})
	}
	ownerID, err := h.scheduleOwner(c, scheduleID)
	if err != nil {
		if errors.Is(err, repository.ErrScheduleNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "schedule not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if ownerID != operatorID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	p := &model.DroppingPoint{
		ScheduleID:   scheduleID,
		Time:         strings.TrimSpace(body.Time),
		LocationName: strings.TrimSpace(body.LocationName),
		Description:  strings.TrimSpace(body.Description),
	}
	if err := h.Schedules.AddDroppingPoint(c.Request().Context(), p); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create dropping point failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": p.ID})
}

// scheduleOwner resolves the operator that owns a schedule's bus.
func (h *OperatorHandler) scheduleOwner(c echo.Context, scheduleID uint64) (uint64, error) {
	ctx := c.Request().Context()
	sched, err := h.Schedules.GetByID(ctx, scheduleID)
	if err != nil {
		return 0, err
	}
	bus, err := h.Buses.GetByID(ctx, sched.BusID)
	if err != nil {
		return 0, err
	}
	return bus.OperatorID, nil
}
