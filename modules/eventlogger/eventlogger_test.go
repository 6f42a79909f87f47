package eventlogger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/GoCodeAlone/modkit"
	"github.com/GoCodeAlone/modkit/logging"
	"github.com/GoCodeAlone/modkit/modules/chimux"
)

func newObserved(t *testing.T) (*logging.ZapLogger, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	return logging.NewZapFromCore(core, zap.NewAtomicLevelAt(zapcore.DebugLevel)), logs
}

func TestLoggerLevels(t *testing.T) {
	zl, logs := newObserved(t)
	l := New(zl)
	ctx := context.Background()

	events := []struct {
		eventType string
		want      zapcore.Level
	}{
		{modkit.EventTypeBootstrapCompleted, zapcore.InfoLevel},
		{modkit.EventTypeBootstrapFailed, zapcore.ErrorLevel},
		{modkit.EventTypeImportCycle, zapcore.WarnLevel},
		{chimux.EventTypeRequestReceived, zapcore.DebugLevel},
	}
	for _, e := range events {
		require.NoError(t, l.OnEvent(ctx, modkit.NewCloudEvent(e.eventType, "test", map[string]any{"k": "v"})))
	}

	entries := logs.All()
	require.Len(t, entries, len(events))
	for i, e := range events {
		assert.Equal(t, e.want, entries[i].Level, e.eventType)
		assert.Equal(t, e.eventType, entries[i].ContextMap()["type"])
	}
	assert.Equal(t, `{"k":"v"}`, entries[0].ContextMap()["data"])
}

func TestLoggerFiltersTypes(t *testing.T) {
	zl, logs := newObserved(t)
	l := New(zl, WithEventTypes(modkit.EventTypeBootstrapCompleted))
	ctx := context.Background()

	require.NoError(t, l.OnEvent(ctx, modkit.NewCloudEvent(modkit.EventTypeRouteBound, "test", nil)))
	require.NoError(t, l.OnEvent(ctx, modkit.NewCloudEvent(modkit.EventTypeBootstrapCompleted, "test", nil)))

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, ObserverID, l.ObserverID())
}
