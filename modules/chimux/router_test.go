package chimux

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoCodeAlone/modkit"
	"github.com/GoCodeAlone/modkit/config"
)

type eventRecorder struct {
	mu    sync.Mutex
	types []string
}

func (e *eventRecorder) OnEvent(_ context.Context, event cloudevents.Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.types = append(e.types, event.Type())
	return nil
}

func (e *eventRecorder) ObserverID() string { return "recorder" }

func (e *eventRecorder) seen() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.types...)
}

func testConfig() Config {
	return ConfigFromApp(config.Default())
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		testFunc func(t *testing.T)
	}{
		{
			name: "routes_are_scoped_to_base_path",
			testFunc: func(t *testing.T) {
				r, err := New(testConfig(), nil)
				require.NoError(t, err)
				r.API().Get("/ping", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("pong")) })

				rec := serve(r, httptest.NewRequest(http.MethodGet, "/api/ping", nil))
				assert.Equal(t, http.StatusOK, rec.Code)
				assert.Equal(t, "pong", rec.Body.String())

				rec = serve(r, httptest.NewRequest(http.MethodGet, "/ping", nil))
				assert.Equal(t, http.StatusNotFound, rec.Code)
				assert.Contains(t, r.Routes(), "GET /api/ping")
			},
		},
		{
			name: "empty_base_path_uses_root",
			testFunc: func(t *testing.T) {
				cfg := testConfig()
				cfg.BasePath = "/"
				r, err := New(cfg, nil)
				require.NoError(t, err)
				assert.Same(t, r.Mux(), r.API())
			},
		},
		{
			name: "not_found_renders_envelope",
			testFunc: func(t *testing.T) {
				r, err := New(testConfig(), nil)
				require.NoError(t, err)

				rec := serve(r, httptest.NewRequest(http.MethodGet, "/api/nothing", nil))
				assert.Equal(t, http.StatusNotFound, rec.Code)
				var body map[string]any
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.Equal(t, "NOT_FOUND", body["error"])
			},
		},
		{
			name: "panics_become_internal_errors",
			testFunc: func(t *testing.T) {
				cfg := testConfig()
				cfg.Production = true
				r, err := New(cfg, nil)
				require.NoError(t, err)
				r.API().Get("/boom", func(http.ResponseWriter, *http.Request) { panic("kaboom") })

				rec := serve(r, httptest.NewRequest(http.MethodGet, "/api/boom", nil))
				assert.Equal(t, http.StatusInternalServerError, rec.Code)
				var body map[string]any
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.Equal(t, "INTERNAL_ERROR", body["error"])
				assert.Equal(t, "Internal server error", body["message"])
			},
		},
		{
			name: "request_ids_are_assigned",
			testFunc: func(t *testing.T) {
				var id string
				r, err := New(testConfig(), nil, WithMiddleware(func(next http.Handler) http.Handler {
					return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
						id = middleware.GetReqID(req.Context())
						next.ServeHTTP(w, req)
					})
				}))
				require.NoError(t, err)
				r.API().Get("/", func(http.ResponseWriter, *http.Request) {})

				req := httptest.NewRequest(http.MethodGet, "/api", nil)
				req.Header.Set("X-Request-Id", "abc")
				serve(r, req)
				assert.Equal(t, "abc", id)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.testFunc(t)
		})
	}
}

func TestCORS(t *testing.T) {
	cfg := testConfig()
	cfg.AllowedOrigins = []string{"https://app.test"}
	cfg.AllowCredentials = true
	r, err := New(cfg, nil)
	require.NoError(t, err)
	r.API().Get("/users", func(http.ResponseWriter, *http.Request) {})

	req := httptest.NewRequest(http.MethodOptions, "/api/users", nil)
	req.Header.Set("Origin", "https://app.test")
	req.Header.Set("Access-Control-Request-Method", "GET")
	rec := serve(r, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.test", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, POST, PUT, DELETE, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	assert.Equal(t, "300", rec.Header().Get("Access-Control-Max-Age"))

	req = httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req.Header.Set("Origin", "https://evil.test")
	rec = serve(r, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestTimeout(t *testing.T) {
	cfg := testConfig()
	cfg.Timeout = 10 * time.Millisecond
	r, err := New(cfg, nil)
	require.NoError(t, err)

	var deadline bool
	r.API().Get("/slow", func(_ http.ResponseWriter, req *http.Request) {
		_, deadline = req.Context().Deadline()
	})
	serve(r, httptest.NewRequest(http.MethodGet, "/api/slow", nil))
	assert.True(t, deadline)
}

func TestRequestEventsAndMetrics(t *testing.T) {
	recorder := &eventRecorder{}
	reg := prometheus.NewRegistry()
	r, err := New(testConfig(), modkit.NopLogger{}, WithObservers(recorder), WithMetrics(reg))
	require.NoError(t, err)
	r.API().Route("/users", func(sub chi.Router) {
		sub.Get("/{id}", func(http.ResponseWriter, *http.Request) {})
	})

	serve(r, httptest.NewRequest(http.MethodGet, "/api/users/1", nil))
	serve(r, httptest.NewRequest(http.MethodGet, "/api/users/2", nil))
	serve(r, httptest.NewRequest(http.MethodGet, "/api/missing", nil))

	seen := recorder.seen()
	assert.Contains(t, seen, EventTypeRouterCreated)
	assert.Contains(t, seen, EventTypeRequestProcessed)
	assert.Contains(t, seen, EventTypeRequestFailed)

	assert.InDelta(t, 2, testutil.ToFloat64(r.metrics.requests.WithLabelValues("GET", "/api/users/{id}", "200")), 0)

	again, err := NewHTTPMetrics(reg)
	require.NoError(t, err)
	assert.Same(t, r.metrics.requests, again.requests)
}
