package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorSnapshot(t *testing.T) {
	c := NewCollector()
	c.RecordTiming(OpGetTask, 10*time.Millisecond, false)
	c.RecordTiming(OpGetTask, 30*time.Millisecond, true)

	snap := c.Snapshot()
	require.Contains(t, snap.Operations, OpGetTask)
	op := snap.Operations[OpGetTask]
	assert.Equal(t, int64(2), op.Count)
	assert.Equal(t, int64(1), op.Errors)
	assert.Equal(t, int64(10), op.MinTimeMs)
	assert.Equal(t, int64(30), op.MaxTimeMs)
	assert.InDelta(t, 20, op.AvgTimeMs, 0.001)
	assert.NotContains(t, snap.Operations, OpSubmitMatch)
}

func TestCollectorTime(t *testing.T) {
	c := NewCollector()
	done := c.Time(OpSubmitMatch)
	done(errors.New("boom"))

	op := c.Snapshot().Operations[OpSubmitMatch]
	assert.Equal(t, int64(1), op.Count)
	assert.Equal(t, int64(1), op.Errors)
}

func TestMetricsRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.TasksDispatched.WithLabelValues("match").Inc()
	m.ObserveRecompute(nil)
	m.ObserveRecompute(errors.New("bad gzip"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.TasksDispatched.WithLabelValues("match")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ChampionRecomputes.WithLabelValues("error")))

	n, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	assert.Positive(t, n)
}
