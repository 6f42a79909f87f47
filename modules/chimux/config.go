package chimux

import (
	"time"

	"github.com/GoCodeAlone/modkit/config"
)

// Config holds the router settings: CORS, request timeout and the base
// path controllers are mounted under.
type Config struct {
	// AllowedOrigins lists origins allowed in CORS requests. "*" allows any.
	AllowedOrigins []string

	AllowedMethods []string
	AllowedHeaders []string

	// AllowCredentials adds Access-Control-Allow-Credentials: true.
	AllowCredentials bool

	// MaxAge is the preflight cache lifetime in seconds. Zero omits the header.
	MaxAge int

	// Timeout cancels the request context after this duration. Zero disables it.
	Timeout time.Duration

	// BasePath prefixes every controller route, e.g. "/api". Empty or "/"
	// mounts controllers at the root.
	BasePath string

	// Production hides internal error details from responses.
	Production bool
}

// ConfigFromApp maps the application configuration onto a router Config.
func ConfigFromApp(cfg *config.AppConfig) Config {
	return Config{
		AllowedOrigins:   cfg.HTTP.AllowedOrigins,
		AllowedMethods:   cfg.HTTP.AllowedMethods,
		AllowedHeaders:   cfg.HTTP.AllowedHeaders,
		AllowCredentials: cfg.HTTP.AllowCredentials,
		MaxAge:           cfg.HTTP.MaxAge,
		Timeout:          cfg.HTTP.Timeout,
		BasePath:         cfg.HTTP.BasePath,
		Production:       cfg.Production,
	}
}
