// internal/server/router_test.go
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"smartbharat-functions/internal/common/logger"
)

type fakePinger struct {
	err error
}

func (f *fakePinger) Ping(ctx context.Context) error { return f.err }

func newRouter(handlers Handlers, pg, rdb Pinger) *gin.Engine {
	return New(handlers, Dependencies{
		Logger:   logger.NewNoOpLogger(),
		Postgres: pg,
		Redis:    rdb,
	})
}

func TestCORSPreflight(t *testing.T) {
	ok := func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{}) }
	router := newRouter(Handlers{MarketAdvisory: ok}, nil, nil)

	req := httptest.NewRequest(http.MethodOptions, "/functions/ai-market-advisory", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "authorization")

	// The middleware alone answers preflights; no per-route OPTIONS handler
	// exists, so even an unrouted path gets 204.
	req = httptest.NewRequest(http.MethodOptions, "/functions/ai-generate", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestCORSHeadersOnResponses(t *testing.T) {
	ok := func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{}) }
	router := newRouter(Handlers{Weather: ok}, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/functions/weather-api", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestDisabledFunctionNotRouted(t *testing.T) {
	router := newRouter(Handlers{}, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/functions/ai-generate", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthzReportsDependencies(t *testing.T) {
	router := newRouter(Handlers{}, &fakePinger{}, &fakePinger{err: errors.New("down")})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp["status"])

	checks := resp["checks"].(map[string]interface{})
	assert.Equal(t, "ok", checks["postgres"])
	assert.Equal(t, "unreachable", checks["redis"])
}

func TestMetricsEndpointExposed(t *testing.T) {
	router := newRouter(Handlers{}, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}
