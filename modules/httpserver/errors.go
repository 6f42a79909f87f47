package httpserver

import (
	"errors"
)

var (
	ErrNoHandler        = errors.New("no HTTP handler provided")
	ErrServerStarted    = errors.New("server already started")
	ErrServerNotStarted = errors.New("server not started")
)
