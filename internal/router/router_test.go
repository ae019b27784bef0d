package router

import (
	"net/http"
	"testing"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"GeoAttend/config"
	"GeoAttend/internal/middleware"
	"GeoAttend/pkg/token"
)

func setup(t *testing.T) *server.Hertz {
	t.Helper()
	prev := config.Cfg
	config.Cfg.JWTSecret = "test-secret"
	config.Cfg.JWTExpireMinutes = 60
	config.Cfg.JWTRefreshDays = 7
	config.Cfg.RateLimitEnabled = false
	t.Cleanup(func() { config.Cfg = prev })

	require.NoError(t, token.Init())
	require.NoError(t, middleware.Init())

	h := server.New()
	Register(h)
	return h
}

func TestRoutesRegistered(t *testing.T) {
	h := setup(t)

	want := map[string]bool{
		"GET /healthz":                       true,
		"POST /v1/login":                     true,
		"GET /v1/profile":                    true,
		"POST /v1/attendance":                true,
		"GET /v1/attendance/history":         true,
		"GET /v1/schedules/today":            true,
		"PUT /v1/admin/locations/:id":        true,
		"POST /v1/admin/classes/:id/members": true,
		"GET /v1/admin/reports/attendance":   true,
		"GET /v1/admin/reports/summary":      true,
	}
	for _, r := range h.Routes() {
		delete(want, r.Method+" "+r.Path)
	}
	assert.Empty(t, want)
}

func TestProtectedRoutes(t *testing.T) {
	h := setup(t)

	w := ut.PerformRequest(h.Engine, http.MethodGet, "/v1/profile", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Result().StatusCode())

	student, _, _, err := token.GenerateTokenPair(10, "student")
	require.NoError(t, err)
	w = ut.PerformRequest(h.Engine, http.MethodGet, "/v1/admin/locations", nil,
		ut.Header{Key: "Authorization", Value: "Bearer " + student})
	assert.Equal(t, http.StatusForbidden, w.Result().StatusCode())
	assert.NotEmpty(t, w.Result().Header.Get(middleware.RequestIDHeader))
}
