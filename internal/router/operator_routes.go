package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bus-seat-booking/internal/handler"
	"github.com/iliyamo/bus-seat-booking/internal/middleware"
)

// RegisterOperator registers fleet management endpoints under
// /v1/operator.  All routes require a valid JWT and the OPERATOR or
// ADMIN role; per-resource ownership is enforced in the handlers.
func RegisterOperator(e *echo.Echo, h *handler.OperatorHandler, jwtSecret string) {
	g := e.Group(
		"/v1/operator",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("OPERATOR", "ADMIN"),
	)
	g.POST("/routes", h.CreateRoute)
	g.POST("/buses", h.CreateBus)
	g.GET("/buses", h.ListBuses)
	g.POST("/schedules", h.CreateSchedule)
	g.GET("/schedules", h.ListSchedules)
	g.PATCH("/schedules/:id", h.UpdateScheduleStatus)
	g.POST("/schedules/:id/boarding-points", h.AddBoardingPoint)
	g.POST("/schedules/:id/dropping-points", h.AddDroppingPoint)
}
