// Package eventlogger writes container and HTTP lifecycle events to a
// Logger.
package eventlogger

import (
	"context"
	"slices"
	"strings"

	cloudevents "github.com/cloudevents/sdk-go/v2"

	"github.com/GoCodeAlone/modkit"
)

// ObserverID identifies the event logger among observers.
const ObserverID = "modkit.eventlogger"

// Option configures a Logger.
type Option func(*Logger)

// WithEventTypes logs only the listed event types.
func WithEventTypes(types ...string) Option {
	return func(l *Logger) { l.types = append(l.types, types...) }
}

// Logger is a modkit.Observer that logs every event it receives. Failure
// events are logged at error level and import cycles at warn level.
// Per-request events go to debug, the rest to info.
type Logger struct {
	logger modkit.Logger
	types  []string
}

var _ modkit.Observer = (*Logger)(nil)

func New(logger modkit.Logger, opts ...Option) *Logger {
	if logger == nil {
		logger = modkit.NopLogger{}
	}
	l := &Logger{logger: logger}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Logger) ObserverID() string { return ObserverID }

func (l *Logger) OnEvent(_ context.Context, event cloudevents.Event) error {
	if len(l.types) > 0 && !slices.Contains(l.types, event.Type()) {
		return nil
	}

	args := []any{"type", event.Type(), "source", event.Source(), "id", event.ID()}
	if data := event.Data(); len(data) > 0 {
		args = append(args, "data", string(data))
	}

	switch level(event.Type()) {
	case "error":
		l.logger.Error("Event", args...)
	case "warn":
		l.logger.Warn("Event", args...)
	case "debug":
		l.logger.Debug("Event", args...)
	default:
		l.logger.Info("Event", args...)
	}
	return nil
}

func level(eventType string) string {
	switch {
	case strings.HasSuffix(eventType, ".failed"):
		return "error"
	case eventType == modkit.EventTypeImportCycle:
		return "warn"
	case strings.Contains(eventType, ".request."):
		return "debug"
	default:
		return "info"
	}
}
