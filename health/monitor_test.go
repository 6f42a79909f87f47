package health

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLogger struct {
	infos, warns atomic.Int32
}

func (l *recordingLogger) Info(string, ...any)  { l.infos.Add(1) }
func (l *recordingLogger) Error(string, ...any) {}
func (l *recordingLogger) Warn(string, ...any)  { l.warns.Add(1) }
func (l *recordingLogger) Debug(string, ...any) {}

func TestMonitorRunLogsTransitions(t *testing.T) {
	var failing atomic.Bool
	agg := NewAggregator(time.Second)
	require.NoError(t, agg.Register(CheckFunc("db", func(context.Context) error {
		if failing.Load() {
			return errDown
		}
		return nil
	})))

	logger := &recordingLogger{}
	m := NewMonitor(agg, logger)
	_, ok := m.Last()
	assert.False(t, ok)

	m.Run()
	m.Run()
	assert.Equal(t, int32(1), logger.infos.Load(), "unchanged status is logged once")

	failing.Store(true)
	m.Run()
	assert.Equal(t, int32(1), logger.warns.Load())

	last, ok := m.Last()
	require.True(t, ok)
	assert.Equal(t, StatusUnhealthy, last.Status)
}

func TestMonitorSchedule(t *testing.T) {
	m := NewMonitor(NewAggregator(time.Second), nil)
	assert.Error(t, m.Start("not a schedule"))

	ran := make(chan Report, 1)
	m.onRun = func(r Report) {
		select {
		case ran <- r:
		default:
		}
	}
	require.NoError(t, m.Start("@every 1s"))
	defer m.Stop()

	select {
	case r := <-ran:
		assert.Equal(t, StatusHealthy, r.Status)
	case <-time.After(5 * time.Second):
		t.Fatal("scheduled check did not run")
	}
}
