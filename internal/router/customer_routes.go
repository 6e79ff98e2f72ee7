package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bus-seat-booking/internal/handler"
	"github.com/iliyamo/bus-seat-booking/internal/middleware"
)

// RegisterCustomer registers customer-scoped endpoints under /v1.
// All routes require a valid JWT and the CUSTOMER role.  Customers
// hold and release seats, create bookings against their holds, and
// view their reservations and bookings.  The payment webhook is the
// exception: it is called by the gateway, not the customer, so it is
// registered without JWT middleware.
func RegisterCustomer(e *echo.Echo, h *handler.CustomerHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("CUSTOMER"),
	)
	g.POST("/schedules/:id/hold", h.HoldSeats)
	g.DELETE("/schedules/:id/hold", h.ReleaseHolds)
	g.GET("/me/reservations", h.ListReservations)
	g.DELETE("/reservations/:id", h.CancelReservation)
	g.POST("/bookings", h.CreateBooking)
	g.GET("/me/bookings", h.ListBookings)
	g.GET("/bookings/:id", h.GetBooking)

	// Gateway callback; authenticated by order knowledge in the demo
	// setup rather than a user token.
	e.POST("/v1/payments/webhook", h.ConfirmPayment)
}
