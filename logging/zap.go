// Package logging adapts zap to modkit.Logger.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/GoCodeAlone/modkit"
)

var _ modkit.Logger = (*ZapLogger)(nil)

// ZapLogger is a modkit.Logger backed by a zap SugaredLogger. Its level can
// be changed while the logger is in use.
type ZapLogger struct {
	sugar *zap.SugaredLogger
	level zap.AtomicLevel
}

// NewZap builds a JSON production logger when production is true and a
// console development logger otherwise.
func NewZap(level string, production bool) (*ZapLogger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parsing log level %q: %w", level, err)
	}

	cfg := zap.NewDevelopmentConfig()
	if production {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = lvl

	logger, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return &ZapLogger{sugar: logger.Sugar(), level: lvl}, nil
}

// NewZapFromCore wraps an existing core, mostly for tests.
func NewZapFromCore(core zapcore.Core, level zap.AtomicLevel) *ZapLogger {
	return &ZapLogger{sugar: zap.New(core, zap.AddCallerSkip(1)).Sugar(), level: level}
}

func (l *ZapLogger) Info(msg string, args ...any)  { l.sugar.Infow(msg, args...) }
func (l *ZapLogger) Error(msg string, args ...any) { l.sugar.Errorw(msg, args...) }
func (l *ZapLogger) Warn(msg string, args ...any)  { l.sugar.Warnw(msg, args...) }
func (l *ZapLogger) Debug(msg string, args ...any) { l.sugar.Debugw(msg, args...) }

// SetLevel changes the minimum level.
func (l *ZapLogger) SetLevel(level string) error {
	return l.level.UnmarshalText([]byte(level))
}

// Level returns the current minimum level.
func (l *ZapLogger) Level() string {
	return l.level.String()
}

// Sync flushes buffered entries.
func (l *ZapLogger) Sync() error {
	return l.sugar.Sync()
}
