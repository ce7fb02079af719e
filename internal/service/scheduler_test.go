package service

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphaelgruber/zerosrv/internal/metrics"
)

func newTestScheduler(store *memStore, q *MatchQueue) *Scheduler {
	return NewScheduler(q, store,
		NewFastClientTracker(store, FastClientConfig{MinSamples: 1}, nil),
		&fakeChampion{best: "best"},
		newTestMetrics(), metrics.NewCollector(), SchedulerConfig{}, nil)
}

func TestSchedulerStart(t *testing.T) {
	store := newMemStore()
	store.put(testMatch("m", "cand", nil, 0, 0, 400))
	end := time.Now().Truncate(time.Second)
	store.samples = append(store.samples, sample("w", end, 10*time.Minute, 300))

	q := newTestQueue()
	s := newTestScheduler(store, q)
	s.Start(context.Background())

	assert.Equal(t, 1, q.Len())
	assert.True(t, s.fast.IsFast("w"))
	assert.InDelta(t, 1, testutil.ToFloat64(s.metrics.PendingMatches), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(s.metrics.FastClients), 0)
}

func TestCheckQueue(t *testing.T) {
	store := newMemStore()
	q := newTestQueue()
	s := newTestScheduler(store, q)
	ctx := context.Background()
	start := time.Now()

	require.True(t, s.CheckQueue(ctx, start), "first check on an empty queue repopulates")

	store.put(testMatch("m", "cand", nil, 0, 0, 400))
	assert.False(t, s.CheckQueue(ctx, start.Add(10*time.Minute)), "cooldown not elapsed")
	assert.Zero(t, q.Len())

	assert.True(t, s.CheckQueue(ctx, start.Add(31*time.Minute)))
	assert.Equal(t, 1, q.Len())

	assert.False(t, s.CheckQueue(ctx, start.Add(2*time.Hour)), "non-empty queue is left alone")
}

func TestSchedulerRunStops(t *testing.T) {
	store := newMemStore()
	s := newTestScheduler(store, newTestQueue())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}
