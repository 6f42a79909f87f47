package modkit

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContainerMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewContainer(WithMetrics(reg))
	require.NoError(t, err)

	require.NoError(t, c.RegisterValue("a", 1))
	require.NoError(t, c.Register("bad", func(Resolver) (any, error) { return nil, errors.New("nope") }, Transient))

	for range 3 {
		_, err := c.Resolve("a")
		require.NoError(t, err)
	}
	_, err = c.Resolve("bad")
	require.Error(t, err)

	m := c.metrics
	assert.InDelta(t, 1, testutil.ToFloat64(m.resolutions.WithLabelValues("a", "singleton", OutcomeCreated)), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.resolutions.WithLabelValues("a", "singleton", OutcomeCached)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.resolutions.WithLabelValues("bad", "transient", OutcomeFailed)), 0)
	assert.Equal(t, 2, testutil.CollectAndCount(m.factoryDuration), "one series per token that ran a factory")
}

func TestNewMetricsSharesRegisterer(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewMetrics(reg)
	require.NoError(t, err)
	second, err := NewMetrics(reg)
	require.NoError(t, err)
	assert.Same(t, first.resolutions, second.resolutions)

	detached, err := NewMetrics(nil)
	require.NoError(t, err)
	detached.observe("x", Singleton, OutcomeCreated, 0)
}
