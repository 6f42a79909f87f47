package modkit

// Logger defines the interface for container logging.
// Messages carry structured key-value pairs:
//
//	logger.Info("message", "key1", "value1", "key2", "value2")
//
// The shape is compatible with slog, zap's SugaredLogger and logrus, so
// applications adapt whichever logger they already use. See the logging
// package for a zap adapter.
type Logger interface {
	// Info logs normal bootstrap events such as module processing.
	Info(msg string, args ...any)

	// Error logs failures that abort bootstrap or a resolution.
	Error(msg string, args ...any)

	// Warn logs suspicious configuration that does not stop startup, like
	// a controller without its marker or a cyclic import.
	Warn(msg string, args ...any)

	// Debug logs per-registration and per-resolution detail.
	Debug(msg string, args ...any)
}

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) Info(string, ...any)  {}
func (NopLogger) Error(string, ...any) {}
func (NopLogger) Warn(string, ...any)  {}
func (NopLogger) Debug(string, ...any) {}
