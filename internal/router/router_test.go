package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tankas-app/tankas-api/internal/handler"
	"github.com/tankas-app/tankas-api/internal/service"
)

func newTestEngine(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	SetupRoutes(r, Handlers{
		Issues:     handler.NewIssueHandler(nil, nil, 0),
		Pledges:    handler.NewPledgeHandler(nil),
		Volunteers: handler.NewVolunteerHandler(nil),
		Points:     handler.NewPointsHandler(nil),
		Metrics:    handler.NewMetricsHandler(service.NewMetricsService(), nil, nil),
	}, RouterConfig{
		APIPrefix: "/api",
		Auth:      service.NewAuthService(nil, service.AuthConfig{AccessTokenSecret: "secret"}),
	})
	return r
}

func TestSetupRoutesRegistersSurface(t *testing.T) {
	r := newTestEngine(t)

	registered := map[string]bool{}
	for _, route := range r.Routes() {
		registered[route.Method+" "+route.Path] = true
	}

	for _, want := range []string{
		"GET /health",
		"GET /ready",
		"GET /metrics",
		"GET /api/issues",
		"POST /api/issues",
		"GET /api/issues/:issue_id",
		"PUT /api/issues/:issue_id",
		"POST /api/issues/:issue_id/comments",
		"POST /api/issues/:issue_id/resolve",
		"POST /api/issues/:issue_id/pledge",
		"GET /api/issues/:issue_id/pledges",
		"GET /api/issues/:issue_id/pledges/export",
		"POST /api/issues/:issue_id/volunteer",
		"DELETE /api/issues/:issue_id/volunteer",
		"GET /api/issues/:issue_id/volunteers",
		"POST /api/issues/:issue_id/discussion",
		"GET /api/issues/:issue_id/discussion",
		"GET /api/users/me/points/history",
	} {
		assert.True(t, registered[want], "missing route %s", want)
	}
	assert.False(t, registered["GET /docs/*any"])
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	r := newTestEngine(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/api/issues"},
		{http.MethodPost, "/api/issues/abc/resolve"},
		{http.MethodPost, "/api/issues/abc/pledge"},
		{http.MethodGet, "/api/issues/abc/pledges/export"},
		{http.MethodDelete, "/api/issues/abc/volunteer"},
		{http.MethodGet, "/api/issues/abc/discussion"},
		{http.MethodGet, "/api/users/me/points/history"},
	} {
		w := httptest.NewRecorder()
		req, err := http.NewRequest(tc.method, tc.path, nil)
		require.NoError(t, err)
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", tc.method, tc.path)
	}
}

func TestHealthIsPublic(t *testing.T) {
	r := newTestEngine(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/health", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
