package middleware

// identity.go holds helpers shared across middleware files.  clientID
// labels a request for rate limiting: the authenticated user when
// JWTAuth ran earlier in the chain, otherwise the remote IP.

import (
	"fmt"

	"github.com/labstack/echo/v4"
)

// clientID returns a stable identifier for the requester.  JWTAuth
// stores the sub claim under "user_id"; jwt decodes numeric claims as
// float64, so both forms are handled.  Unauthenticated requests fall
// back to the client IP.
func clientID(c echo.Context) string {
	switch v := c.Get("user_id").(type) {
	case float64:
		return fmt.Sprintf("u%d", uint64(v))
	case string:
		if v != "" {
			return "u" + v
		}
	}
	return "ip:" + c.RealIP()
}
