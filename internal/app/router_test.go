package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holocron/holocron/internal/observability"
	"github.com/holocron/holocron/internal/platform/httpx"
	"github.com/holocron/holocron/internal/rbac"
	_ "github.com/holocron/holocron/testing"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

func testConfig() *Config {
	return &Config{AppName: "Holocron", AppVersion: "0.1", AppEnv: "test", RateLimitPerMinute: 1000, LogFormat: "pretty"}
}

func TestHealthz(t *testing.T) {
	router := NewRouter(RouterParams{Config: testConfig(), DB: stubPinger{}})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok","name":"Holocron","version":"0.1"}`, rr.Body.String())
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, rr.Header().Get("X-Request-Id"))
}

func TestHealthzReportsDatabaseFailure(t *testing.T) {
	router := NewRouter(RouterParams{Config: testConfig(), DB: stubPinger{err: errors.New("down")}})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Contains(t, rr.Body.String(), `"status":"unavailable"`)
}

func TestPermissionsRouteAndMetrics(t *testing.T) {
	metrics := observability.NewMetrics()
	svc := rbac.NewService(nil, nil, nil)
	router := NewRouter(RouterParams{
		Config:             testConfig(),
		PermissionsHandler: rbac.NewPermissionsHandler(nil, svc),
		Metrics:            metrics,
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/permissions", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var entries []map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &entries))
	assert.Len(t, entries, 25)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `holocron_http_requests_total{code="200",route="/permissions`)
}

func TestUnknownRouteIsProblemJSON(t *testing.T) {
	router := NewRouter(RouterParams{Config: testConfig()})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
	var problem httpx.ProblemDetail
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &problem))
	assert.Equal(t, http.StatusNotFound, problem.Status)
}

func TestRateLimitRejectsBurst(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitPerMinute = 2
	router := NewRouter(RouterParams{Config: cfg})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.RemoteAddr = "203.0.113.7:5555"
		router.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRequestLoggerCarriesRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	router := NewRouter(RouterParams{Config: testConfig(), Logger: logger})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-Id", "req-123")
	router.ServeHTTP(httptest.NewRecorder(), req)

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "req-123", line["request_id"])
	assert.Equal(t, "/healthz", line["path"])
	assert.EqualValues(t, http.StatusOK, line["status"])
}

func TestInTestMode(t *testing.T) {
	t.Setenv(testModeEnv, "1")
	RefreshTestMode()
	assert.True(t, InTestMode())
	t.Setenv(testModeEnv, "0")
	RefreshTestMode()
	assert.False(t, InTestMode())
}
