package worker

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinicare-api/pkg/logger"
	"github.com/jwalitptl/clinicare-api/pkg/metrics"
)

type fakeEvents struct {
	batches  []int
	err      error
	calls    int
	cleanups int
}

func (f *fakeEvents) ProcessPendingEvents(context.Context) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	if f.calls >= len(f.batches) {
		f.calls++
		return 0, nil
	}
	n := f.batches[f.calls]
	f.calls++
	return n, nil
}

func (f *fakeEvents) CleanupProcessedEvents(context.Context) error {
	f.cleanups++
	return nil
}

func newProcessor(t *testing.T, events EventProcessor) (*OutboxProcessor, *metrics.Metrics) {
	t.Helper()
	m := metrics.NewMetrics(prometheus.NewRegistry(), "test", "worker")
	l := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Format: "json", Output: &bytes.Buffer{}})
	p, err := NewOutboxProcessor(events, OutboxProcessorConfig{PollInterval: 10 * time.Millisecond, CleanupInterval: 15 * time.Millisecond}, l, m)
	require.NoError(t, err)
	return p, m
}

func TestRunOnceDrainsUntilEmpty(t *testing.T) {
	events := &fakeEvents{batches: []int{100, 100, 3}}
	p, m := newProcessor(t, events)

	require.NoError(t, p.RunOnce(context.Background()))
	assert.Equal(t, 4, events.calls)
	assert.Equal(t, float64(4), testutil.ToFloat64(m.DatabaseOperations.WithLabelValues("process_pending_events", "success")))
}

func TestRunOnceStopsAtBatchCap(t *testing.T) {
	batches := make([]int, 50)
	for i := range batches {
		batches[i] = 100
	}
	events := &fakeEvents{batches: batches}
	p, _ := newProcessor(t, events)

	require.NoError(t, p.RunOnce(context.Background()))
	assert.Equal(t, maxBatchesPerPoll, events.calls)
}

func TestRunOnceReportsErrors(t *testing.T) {
	events := &fakeEvents{err: errors.New("db down")}
	p, m := newProcessor(t, events)

	assert.EqualError(t, p.RunOnce(context.Background()), "db down")
	assert.Equal(t, float64(1), testutil.ToFloat64(m.DatabaseOperations.WithLabelValues("process_pending_events", "error")))
}

func TestNewOutboxProcessorRejectsZeroInterval(t *testing.T) {
	_, err := NewOutboxProcessor(&fakeEvents{}, OutboxProcessorConfig{}, logger.NewLogger(nil), nil)
	assert.Error(t, err)
}

func TestStartStopsOnCancel(t *testing.T) {
	events := &fakeEvents{}
	p, _ := newProcessor(t, events)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		p.Start(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("processor did not stop")
	}
	assert.Greater(t, events.calls, 0)
	assert.Greater(t, events.cleanups, 0)
}
