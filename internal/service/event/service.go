package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/clinicare-api/internal/model"
	"github.com/jwalitptl/clinicare-api/internal/repository"
	"github.com/jwalitptl/clinicare-api/pkg/messaging"
	"github.com/jwalitptl/clinicare-api/pkg/metrics"
)

const eventExpiry = 24 * time.Hour

// Emitter records domain events for asynchronous delivery.
type Emitter interface {
	Emit(ctx context.Context, eventType string, payload interface{})
}

type Config struct {
	BatchSize     int
	RetryAttempts int
	RetryDelay    time.Duration
}

type EventService struct {
	outboxRepo repository.OutboxRepository
	broker     messaging.Broker
	metrics    *metrics.Metrics
	config     Config
}

// NewEventService builds the outbox writer. broker and m may be nil on the
// API side, which only emits.
func NewEventService(outboxRepo repository.OutboxRepository, broker messaging.Broker, m *metrics.Metrics, config Config) *EventService {
	if config.BatchSize <= 0 {
		config.BatchSize = 100
	}
	if config.RetryAttempts <= 0 {
		config.RetryAttempts = 3
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = 5 * time.Second
	}
	return &EventService{
		outboxRepo: outboxRepo,
		broker:     broker,
		metrics:    m,
		config:     config,
	}
}

// Emit writes the event to the outbox. Failures are logged and never reach
// the caller: the primary write already succeeded.
func (s *EventService) Emit(ctx context.Context, eventType string, payload interface{}) {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("event_type", eventType).Msg("Failed to marshal event payload")
		return
	}

	event := &model.OutboxEvent{
		EventType: eventType,
		Payload:   payloadJSON,
	}
	if err := s.outboxRepo.Create(ctx, event); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("event_type", eventType).Msg("Failed to record outbox event")
		return
	}

	log.Debug().Str("event_id", event.ID.String()).Str("event_type", eventType).Msg("Event recorded")
}

// ProcessPendingEvents publishes one batch of due events and returns how many
// were handled.
func (s *EventService) ProcessPendingEvents(ctx context.Context) (int, error) {
	if s.broker == nil {
		return 0, fmt.Errorf("event service has no broker")
	}

	n, err := s.outboxRepo.ProcessPending(ctx, s.config.BatchSize, func(evt *model.OutboxEvent) repository.OutboxResult {
		return s.processEvent(ctx, evt)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to process pending events: %w", err)
	}
	if s.metrics != nil {
		s.metrics.OutboxQueueSize.Set(float64(n))
	}
	return n, nil
}

func (s *EventService) processEvent(ctx context.Context, evt *model.OutboxEvent) repository.OutboxResult {
	start := time.Now()
	err := s.broker.Publish(ctx, evt.EventType, evt.Payload)
	if s.metrics != nil {
		s.metrics.OutboxProcessingLatency.Observe(time.Since(start).Seconds())
	}

	if err == nil {
		if s.metrics != nil {
			s.metrics.OutboxEventsProcessed.Inc()
		}
		return repository.OutboxResult{Status: model.OutboxStatusProcessed}
	}

	return s.handleProcessingError(evt, err)
}

func (s *EventService) handleProcessingError(evt *model.OutboxEvent, err error) repository.OutboxResult {
	attempt := evt.RetryCount + 1
	logger := log.With().
		Str("event_id", evt.ID.String()).
		Str("event_type", evt.EventType).
		Int("attempt", attempt).
		Logger()

	if attempt >= s.config.RetryAttempts {
		logger.Error().Err(err).Msg("Event delivery failed permanently")
		if s.metrics != nil {
			s.metrics.OutboxEventsFailed.Inc()
		}
		return repository.OutboxResult{Status: model.OutboxStatusFailed, Err: err}
	}

	retryAt := time.Now().Add(s.config.RetryDelay * time.Duration(attempt))
	logger.Warn().Err(err).Time("retry_at", retryAt).Msg("Event delivery failed, will retry")
	if s.metrics != nil {
		s.metrics.OutboxRetries.WithLabelValues(evt.EventType).Inc()
	}
	return repository.OutboxResult{Status: model.OutboxStatusRetry, Err: err, RetryAt: &retryAt}
}

// CleanupProcessedEvents drops delivered events older than a day.
func (s *EventService) CleanupProcessedEvents(ctx context.Context) error {
	cutoff := time.Now().Add(-eventExpiry)
	count, err := s.outboxRepo.DeleteProcessedBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to cleanup events: %w", err)
	}

	log.Info().Int64("deleted_count", count).Time("cutoff", cutoff).Msg("Processed events cleaned up")
	return nil
}
