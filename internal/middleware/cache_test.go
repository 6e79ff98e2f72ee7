package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func cacheCtx(target, routePath string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath(routePath)
	return c
}

// Two schedules served by the same parameterised route must never
// share a cache entry.
func TestCacheKeyDistinguishesRouteParams(t *testing.T) {
	a := cacheKey("cache", cacheCtx("/v1/schedules/1/seats", "/v1/schedules/:id/seats"))
	b := cacheKey("cache", cacheCtx("/v1/schedules/2/seats", "/v1/schedules/:id/seats"))
	if a == b {
		t.Fatalf("cache keys collide for different schedules: %s == %s", a, b)
	}
}

func TestCacheKeyStableForSameRequest(t *testing.T) {
	a := cacheKey("cache", cacheCtx("/v1/schedules/7/seats", "/v1/schedules/:id/seats"))
	b := cacheKey("cache", cacheCtx("/v1/schedules/7/seats", "/v1/schedules/:id/seats"))
	if a != b {
		t.Fatalf("cache keys differ for identical requests: %s != %s", a, b)
	}
}

func TestCacheKeyIncludesQuery(t *testing.T) {
	a := cacheKey("cache", cacheCtx("/v1/schedules?route_id=1", "/v1/schedules"))
	b := cacheKey("cache", cacheCtx("/v1/schedules?route_id=2", "/v1/schedules"))
	if a == b {
		t.Fatalf("cache keys collide for different queries: %s == %s", a, b)
	}
}
