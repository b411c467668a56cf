package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jwalitptl/clinicare-api/internal/model"
	"github.com/jwalitptl/clinicare-api/internal/repository"
)

type optionRepository struct {
	BaseRepository
}

func NewOptionRepository(base BaseRepository) repository.OptionRepository {
	return &optionRepository{base}
}

func (r *optionRepository) Get(ctx context.Context, key string) (*model.Option, error) {
	var opt model.Option
	if err := r.db.GetContext(ctx, &opt, `SELECT key, value, updated_at FROM options WHERE key = $1`, key); err != nil {
		return nil, fmt.Errorf("failed to get option %q: %w", key, notFound(err))
	}
	return &opt, nil
}

func (r *optionRepository) List(ctx context.Context) ([]*model.Option, error) {
	opts := []*model.Option{}
	if err := r.db.SelectContext(ctx, &opts, `SELECT key, value, updated_at FROM options ORDER BY key`); err != nil {
		return nil, fmt.Errorf("failed to list options: %w", err)
	}
	return opts, nil
}

func (r *optionRepository) Upsert(ctx context.Context, opt *model.Option) error {
	opt.UpdatedAt = time.Now()
	query := `
		INSERT INTO options (key, value, updated_at) VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`
	if _, err := r.db.ExecContext(ctx, query, opt.Key, []byte(opt.Value), opt.UpdatedAt); err != nil {
		return fmt.Errorf("failed to save option %q: %w", opt.Key, err)
	}
	return nil
}

func (r *optionRepository) Delete(ctx context.Context, key string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM options WHERE key = $1`, key)
	if err != nil {
		return fmt.Errorf("failed to delete option %q: %w", key, err)
	}
	return expectRows(result)
}
