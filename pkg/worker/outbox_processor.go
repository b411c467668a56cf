package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/jwalitptl/clinicare-api/pkg/logger"
	"github.com/jwalitptl/clinicare-api/pkg/metrics"
)

// EventProcessor publishes due outbox events and prunes delivered ones.
type EventProcessor interface {
	ProcessPendingEvents(ctx context.Context) (int, error)
	CleanupProcessedEvents(ctx context.Context) error
}

type OutboxProcessorConfig struct {
	PollInterval    time.Duration
	CleanupInterval time.Duration
}

type OutboxProcessor struct {
	events  EventProcessor
	config  OutboxProcessorConfig
	logger  *logger.Logger
	metrics *metrics.Metrics
}

func NewOutboxProcessor(
	events EventProcessor,
	config OutboxProcessorConfig,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) (*OutboxProcessor, error) {
	if config.PollInterval <= 0 {
		return nil, fmt.Errorf("poll interval must be greater than 0")
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = time.Hour
	}

	return &OutboxProcessor{
		events:  events,
		config:  config,
		logger:  logger,
		metrics: metrics,
	}, nil
}

// Start polls until ctx is cancelled.
func (p *OutboxProcessor) Start(ctx context.Context) {
	poll := time.NewTicker(p.config.PollInterval)
	defer poll.Stop()
	cleanup := time.NewTicker(p.config.CleanupInterval)
	defer cleanup.Stop()

	p.logger.Info("Starting outbox processor")

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Shutting down outbox processor")
			return
		case <-poll.C:
			if err := p.RunOnce(ctx); err != nil {
				p.logger.Error(err, "Failed to process events")
			}
		case <-cleanup.C:
			if err := p.events.CleanupProcessedEvents(ctx); err != nil {
				p.metrics.DatabaseOperations.WithLabelValues("cleanup_events", "error").Inc()
				p.logger.Error(err, "Failed to clean up events")
				continue
			}
			p.metrics.DatabaseOperations.WithLabelValues("cleanup_events", "success").Inc()
		}
	}
}

// maxBatchesPerPoll caps one poll so a flood of events cannot starve cleanup.
const maxBatchesPerPoll = 10

// RunOnce drains the outbox batch by batch until a poll comes back empty.
func (p *OutboxProcessor) RunOnce(ctx context.Context) error {
	for i := 0; i < maxBatchesPerPoll; i++ {
		n, err := p.events.ProcessPendingEvents(ctx)
		if err != nil {
			p.metrics.DatabaseOperations.WithLabelValues("process_pending_events", "error").Inc()
			return err
		}
		p.metrics.DatabaseOperations.WithLabelValues("process_pending_events", "success").Inc()
		if n == 0 || ctx.Err() != nil {
			return nil
		}
	}
	return nil
}
