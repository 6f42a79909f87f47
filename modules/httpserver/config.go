// Package httpserver runs the HTTP listener in front of the router and
// shuts it down gracefully.
package httpserver

import (
	"time"

	"github.com/GoCodeAlone/modkit/config"
)

// Config holds the listener address and the net/http server timeouts.
type Config struct {
	// Addr is the TCP address to listen on, e.g. ":3000". Port 0 picks a
	// free port; Server.Addr reports the one chosen.
	Addr string

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// ShutdownTimeout bounds how long Stop waits for in-flight requests.
	ShutdownTimeout time.Duration
}

// ConfigFromApp maps the application configuration onto a server Config.
func ConfigFromApp(cfg *config.AppConfig) Config {
	return Config{
		Addr:            cfg.HTTP.Addr,
		ReadTimeout:     cfg.HTTP.ReadTimeout,
		WriteTimeout:    cfg.HTTP.WriteTimeout,
		IdleTimeout:     cfg.HTTP.IdleTimeout,
		ShutdownTimeout: cfg.HTTP.ShutdownTimeout,
	}
}
