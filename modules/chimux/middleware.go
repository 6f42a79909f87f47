package chimux

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/GoCodeAlone/modkit/internal/apperr"
)

func (r *Router) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)
		start := time.Now()
		defer func() {
			r.logger.Info("Request",
				"method", req.Method,
				"path", req.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"requestId", middleware.GetReqID(req.Context()),
			)
		}()
		next.ServeHTTP(ww, req)
	})
}

// recoverer turns a panic into an INTERNAL_ERROR envelope.
func (r *Router) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			err := fmt.Errorf("panic: %v", rec)
			r.logger.Error("Recovered from panic", "method", req.Method, "path", req.URL.Path, "error", err)
			apperr.Write(w, apperr.Internal(err), r.config.Production)
		}()
		next.ServeHTTP(w, req)
	})
}

func (r *Router) cors(next http.Handler) http.Handler {
	methods := strings.Join(r.config.AllowedMethods, ", ")
	headers := strings.Join(r.config.AllowedHeaders, ", ")

	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		origin := req.Header.Get("Origin")
		if origin != "" && r.originAllowed(origin) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Add("Vary", "Origin")
			if methods != "" {
				h.Set("Access-Control-Allow-Methods", methods)
			}
			if headers != "" {
				h.Set("Access-Control-Allow-Headers", headers)
			}
			if r.config.AllowCredentials {
				h.Set("Access-Control-Allow-Credentials", "true")
			}
			if r.config.MaxAge > 0 {
				h.Set("Access-Control-Max-Age", strconv.Itoa(r.config.MaxAge))
			}
		}

		if req.Method == http.MethodOptions && req.Header.Get("Access-Control-Request-Method") != "" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, req)
	})
}

func (r *Router) originAllowed(origin string) bool {
	for _, allowed := range r.config.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}

func (r *Router) requestMonitoring(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ctx := req.Context()
		r.emit(ctx, EventTypeRequestReceived, map[string]any{
			"method":      req.Method,
			"path":        req.URL.Path,
			"remote_addr": req.RemoteAddr,
			"user_agent":  req.UserAgent(),
		})

		ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)
		next.ServeHTTP(ww, req)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		eventType := EventTypeRequestProcessed
		if status >= http.StatusBadRequest {
			eventType = EventTypeRequestFailed
		}
		r.emit(ctx, eventType, map[string]any{
			"method":      req.Method,
			"path":        req.URL.Path,
			"status_code": status,
		})
	})
}
