package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinicare-api/internal/model"
	"github.com/jwalitptl/clinicare-api/internal/repository"
	"github.com/jwalitptl/clinicare-api/pkg/messaging"
	"github.com/jwalitptl/clinicare-api/pkg/metrics"
)

type fakeOutbox struct {
	created []*model.OutboxEvent
	pending []*model.OutboxEvent
	results []repository.OutboxResult
	err     error
}

func (f *fakeOutbox) Create(_ context.Context, evt *model.OutboxEvent) error {
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, evt)
	return nil
}

func (f *fakeOutbox) ProcessPending(_ context.Context, limit int, fn func(*model.OutboxEvent) repository.OutboxResult) (int, error) {
	n := 0
	for _, evt := range f.pending {
		if n == limit {
			break
		}
		f.results = append(f.results, fn(evt))
		n++
	}
	return n, nil
}

func (f *fakeOutbox) DeleteProcessedBefore(context.Context, time.Time) (int64, error) { return 0, nil }

type fakeBroker struct {
	published []string
	err       error
}

func (b *fakeBroker) Publish(_ context.Context, channel string, _ []byte) error {
	if b.err != nil {
		return b.err
	}
	b.published = append(b.published, channel)
	return nil
}

func (b *fakeBroker) Subscribe(context.Context, ...string) (<-chan messaging.Message, error) {
	return nil, nil
}

func (b *fakeBroker) Close() error { return nil }

func TestEmit_WritesPendingEvent(t *testing.T) {
	repo := &fakeOutbox{}
	svc := NewEventService(repo, nil, nil, Config{})

	svc.Emit(context.Background(), model.EventClinicCreated, map[string]int64{"clinic_id": 4})

	require.Len(t, repo.created, 1)
	assert.Equal(t, model.EventClinicCreated, repo.created[0].EventType)
	assert.JSONEq(t, `{"clinic_id":4}`, string(repo.created[0].Payload))
}

func TestEmit_SwallowsRepositoryFailure(t *testing.T) {
	svc := NewEventService(&fakeOutbox{err: errors.New("db down")}, nil, nil, Config{})

	assert.NotPanics(t, func() {
		svc.Emit(context.Background(), model.EventClinicCreated, struct{}{})
	})
}

func TestProcessPendingEvents_PublishesAndRetries(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg, "test", "worker")

	repo := &fakeOutbox{pending: []*model.OutboxEvent{
		{EventType: model.EventAppointmentBooked, Payload: []byte(`{}`)},
	}}
	broker := &fakeBroker{}
	svc := NewEventService(repo, broker, m, Config{RetryAttempts: 3, RetryDelay: time.Second})

	n, err := svc.ProcessPendingEvents(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{model.EventAppointmentBooked}, broker.published)
	assert.Equal(t, model.OutboxStatusProcessed, repo.results[0].Status)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.OutboxEventsProcessed))

	broker.err = errors.New("redis unavailable")
	repo.results = nil
	_, err = svc.ProcessPendingEvents(context.Background())
	require.NoError(t, err)
	require.Len(t, repo.results, 1)
	assert.Equal(t, model.OutboxStatusRetry, repo.results[0].Status)
	require.NotNil(t, repo.results[0].RetryAt)
	assert.True(t, repo.results[0].RetryAt.After(time.Now()))
}

func TestProcessPendingEvents_FailsAfterLastAttempt(t *testing.T) {
	repo := &fakeOutbox{pending: []*model.OutboxEvent{
		{EventType: model.EventLeaveCreated, RetryCount: 2, Payload: []byte(`{}`)},
	}}
	svc := NewEventService(repo, &fakeBroker{err: errors.New("nope")}, nil, Config{RetryAttempts: 3})

	_, err := svc.ProcessPendingEvents(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.OutboxStatusFailed, repo.results[0].Status)
	assert.Nil(t, repo.results[0].RetryAt)
}

func TestProcessPendingEvents_RequiresBroker(t *testing.T) {
	svc := NewEventService(&fakeOutbox{}, nil, nil, Config{})
	_, err := svc.ProcessPendingEvents(context.Background())
	assert.Error(t, err)
}
