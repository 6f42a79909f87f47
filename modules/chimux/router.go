// Package chimux builds the chi router the container binds controllers to.
//
// The router carries the standard middleware stack (request IDs, real IP,
// request logging, panic recovery, timeout, CORS) and renders unmatched
// paths with the NOT_FOUND error envelope.
package chimux

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/GoCodeAlone/modkit"
	"github.com/GoCodeAlone/modkit/internal/apperr"
)

// Middleware is an alias for the chi middleware handler function.
type Middleware func(http.Handler) http.Handler

// Option configures a Router.
type Option func(*Router) error

// WithObservers emits request events to observers.
func WithObservers(observers ...modkit.Observer) Option {
	return func(r *Router) error {
		r.observers = append(r.observers, observers...)
		return nil
	}
}

// WithMiddleware appends middleware after the built-in stack.
func WithMiddleware(mw ...Middleware) Option {
	return func(r *Router) error {
		r.extra = append(r.extra, mw...)
		return nil
	}
}

// WithMetrics records request counts and latencies in reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(r *Router) error {
		m, err := NewHTTPMetrics(reg)
		if err != nil {
			return err
		}
		r.metrics = m
		return nil
	}
}

// Router is the root chi mux plus the sub-router controllers are bound to.
type Router struct {
	mux       *chi.Mux
	api       chi.Router
	config    Config
	logger    modkit.Logger
	observers []modkit.Observer
	metrics   *HTTPMetrics
	extra     []Middleware
}

// New creates a Router. Middleware is installed here, before any route,
// as chi requires.
func New(cfg Config, logger modkit.Logger, opts ...Option) (*Router, error) {
	if logger == nil {
		logger = modkit.NopLogger{}
	}
	r := &Router{mux: chi.NewRouter(), config: cfg, logger: logger}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	r.mux.Use(middleware.RequestID)
	r.mux.Use(middleware.RealIP)
	r.mux.Use(r.requestLogger)
	r.mux.Use(r.recoverer)
	if r.metrics != nil {
		r.mux.Use(r.metrics.middleware)
	}
	if len(r.observers) > 0 {
		r.mux.Use(r.requestMonitoring)
	}
	if cfg.Timeout > 0 {
		r.mux.Use(middleware.Timeout(cfg.Timeout))
	}
	r.mux.Use(r.cors)
	for _, mw := range r.extra {
		r.mux.Use(mw)
	}

	r.mux.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		apperr.Write(w, apperr.NotFound(""), cfg.Production)
	})

	base := strings.TrimRight(cfg.BasePath, "/")
	if base == "" {
		r.api = r.mux
	} else {
		if !strings.HasPrefix(base, "/") {
			base = "/" + base
		}
		r.mux.Route(base, func(sub chi.Router) { r.api = sub })
	}

	r.emit(context.Background(), EventTypeCorsConfigured, map[string]any{
		"allowed_origins":     cfg.AllowedOrigins,
		"allowed_methods":     cfg.AllowedMethods,
		"allowed_headers":     cfg.AllowedHeaders,
		"credentials_enabled": cfg.AllowCredentials,
	})
	r.emit(context.Background(), EventTypeRouterCreated, map[string]any{
		"base_path":    base,
		"cors_enabled": len(cfg.AllowedOrigins) > 0,
	})
	logger.Debug("Created chi router", "basePath", base, "allowedOrigins", cfg.AllowedOrigins, "timeout", cfg.Timeout)
	return r, nil
}

// Mux returns the root router, including routes outside the base path.
func (r *Router) Mux() *chi.Mux { return r.mux }

// API returns the router scoped to the base path.
func (r *Router) API() chi.Router { return r.api }

// ServeHTTP implements http.Handler.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Routes lists "METHOD pattern" for every registered endpoint.
func (r *Router) Routes() []string {
	var out []string
	_ = chi.Walk(r.mux, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		out = append(out, method+" "+strings.ReplaceAll(route, "/*/", "/"))
		return nil
	})
	return out
}

func (r *Router) emit(ctx context.Context, eventType string, data map[string]any) {
	if len(r.observers) == 0 {
		return
	}
	event := modkit.NewCloudEvent(eventType, EventSource, data)
	for _, o := range r.observers {
		if err := o.OnEvent(ctx, event); err != nil {
			r.logger.Debug("Observer failed to handle event", "observer", o.ObserverID(), "event", eventType, "error", err)
		}
	}
}
