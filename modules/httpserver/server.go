package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/GoCodeAlone/modkit"
)

// Option configures a Server.
type Option func(*Server)

// WithObservers emits server lifecycle events to observers.
func WithObservers(observers ...modkit.Observer) Option {
	return func(s *Server) { s.observers = append(s.observers, observers...) }
}

// Server serves a handler until Stop is called.
type Server struct {
	config    Config
	handler   http.Handler
	logger    modkit.Logger
	observers []modkit.Observer

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
	done     chan error
}

// New creates a Server for handler. Nothing listens until Start.
func New(cfg Config, handler http.Handler, logger modkit.Logger, opts ...Option) (*Server, error) {
	if handler == nil {
		return nil, ErrNoHandler
	}
	if logger == nil {
		logger = modkit.NopLogger{}
	}
	s := &Server{config: cfg, handler: handler, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Start binds the listener and serves in the background. It returns once
// the address is bound, so connections are accepted as soon as it returns.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.server != nil {
		return ErrServerStarted
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.config.Addr)
	if err != nil {
		s.emit(ctx, EventTypeServerFailed, map[string]any{"address": s.config.Addr, "error": err.Error()})
		return fmt.Errorf("listening on %s: %w", s.config.Addr, err)
	}

	s.listener = ln
	s.done = make(chan error, 1)
	s.server = &http.Server{
		Handler:           s.handler,
		ReadTimeout:       s.config.ReadTimeout,
		ReadHeaderTimeout: s.config.ReadTimeout,
		WriteTimeout:      s.config.WriteTimeout,
		IdleTimeout:       s.config.IdleTimeout,
	}

	go func(srv *http.Server, done chan<- error) {
		err := srv.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		if err != nil {
			s.logger.Error("HTTP server error", "error", err)
		}
		done <- err
	}(s.server, s.done)

	s.logger.Info("HTTP server started", "address", ln.Addr().String())
	s.emit(ctx, EventTypeServerStarted, map[string]any{"address": ln.Addr().String()})
	return nil
}

// Addr returns the bound address, or the configured one before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.config.Addr
}

// Done receives once when the serve loop exits: the serve error, or nil
// after Stop. It is nil before Start.
func (s *Server) Done() <-chan error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// Stop stops accepting connections and waits up to ShutdownTimeout for
// in-flight requests to finish.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()
	if srv == nil {
		return ErrServerNotStarted
	}

	s.logger.Info("Stopping HTTP server", "timeout", s.config.ShutdownTimeout)
	if s.config.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.ShutdownTimeout)
		defer cancel()
	}

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down HTTP server: %w", err)
	}

	s.mu.Lock()
	s.server = nil
	s.listener = nil
	s.mu.Unlock()

	s.logger.Info("HTTP server stopped")
	s.emit(ctx, EventTypeServerStopped, nil)
	return nil
}

func (s *Server) emit(ctx context.Context, eventType string, data map[string]any) {
	if len(s.observers) == 0 {
		return
	}
	event := modkit.NewCloudEvent(eventType, EventSource, data)
	for _, o := range s.observers {
		if err := o.OnEvent(ctx, event); err != nil {
			s.logger.Debug("Observer failed to handle event", "observer", o.ObserverID(), "event", eventType, "error", err)
		}
	}
}
