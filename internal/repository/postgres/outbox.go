package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/clinicare-api/internal/model"
	"github.com/jwalitptl/clinicare-api/internal/repository"
)

type outboxRepository struct {
	BaseRepository
}

func NewOutboxRepository(base BaseRepository) repository.OutboxRepository {
	return &outboxRepository{base}
}

func (r *outboxRepository) Create(ctx context.Context, event *model.OutboxEvent) error {
	if event == nil {
		return fmt.Errorf("event cannot be nil")
	}
	if event.Payload == nil {
		return fmt.Errorf("event payload cannot be nil")
	}

	query := `
		INSERT INTO outbox_events (
			id, event_type, payload, status, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6
		)
	`
	event.ID = uuid.New()
	event.CreatedAt = time.Now()
	event.UpdatedAt = event.CreatedAt
	event.Status = model.OutboxStatusPending

	_, err := r.db.ExecContext(ctx, query,
		event.ID,
		event.EventType,
		[]byte(event.Payload),
		event.Status,
		event.CreatedAt,
		event.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create outbox event: %w", err)
	}
	return nil
}

func (r *outboxRepository) ProcessPending(ctx context.Context, limit int, fn func(*model.OutboxEvent) repository.OutboxResult) (int, error) {
	processed := 0
	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			SELECT id, event_type, payload, status, error_message, retry_count, retry_at,
				created_at, updated_at, processed_at
			FROM outbox_events
			WHERE status IN ('pending', 'retry')
			AND (retry_at IS NULL OR retry_at <= NOW())
			ORDER BY created_at
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		`
		var events []*model.OutboxEvent
		if err := tx.SelectContext(ctx, &events, query, limit); err != nil {
			return fmt.Errorf("failed to get pending events: %w", err)
		}

		update := `
			UPDATE outbox_events
			SET status = $1,
				error_message = $2,
				retry_count = retry_count + $3,
				retry_at = $4,
				processed_at = COALESCE($5, processed_at),
				updated_at = NOW()
			WHERE id = $6
		`
		for _, evt := range events {
			res := fn(evt)

			var errMsg *string
			retried := 0
			if res.Err != nil {
				msg := res.Err.Error()
				errMsg = &msg
				retried = 1
			}
			var processedAt *time.Time
			if res.Status == model.OutboxStatusProcessed {
				now := time.Now()
				processedAt = &now
			}
			if _, err := tx.ExecContext(ctx, update, res.Status, errMsg, retried, res.RetryAt, processedAt, evt.ID); err != nil {
				return fmt.Errorf("failed to update event %s: %w", evt.ID, err)
			}
			processed++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return processed, nil
}

func (r *outboxRepository) DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error) {
	query := `
		DELETE FROM outbox_events
		WHERE status = 'processed'
		AND processed_at < $1
	`
	result, err := r.db.ExecContext(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("failed to delete processed events: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows, nil
}
