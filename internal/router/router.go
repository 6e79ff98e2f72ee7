package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/bus-seat-booking/internal/handler"    // import the handlers that implement business logic
	"github.com/iliyamo/bus-seat-booking/internal/middleware" // import middleware for JWT authentication and role enforcement
)

// RegisterRoutes registers routes that do not require authentication
// on the provided Echo instance.  Currently it exposes only a health
// check, used by load balancers and monitoring to verify the service
// is up.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes.
// Unauthenticated operations live under /v1/auth; the protected /v1/me
// endpoint carries the JWT middleware.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh) // rotates the refresh token

	auth := e.Group("/v1", middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
	auth.POST("/auth/logout", a.Logout) // revokes all refresh tokens of the caller
}

// RegisterPublic registers the unauthenticated browse endpoints:
// route listing, schedule search, seat maps and stop lists.  These
// routes sit behind the response cache middleware when one is given;
// seat availability shown here is advisory and re-checked at hold
// time.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, cache echo.MiddlewareFunc) {
	g := e.Group("/v1")
	if cache != nil {
		g.Use(cache)
	}
	g.GET("/routes", p.ListRoutes)
	g.GET("/schedules", p.SearchSchedules)
	g.GET("/schedules/:id/seats", p.GetSeatMap)
	g.GET("/schedules/:id/points", p.GetPoints)
}
