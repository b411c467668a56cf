package option

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/clinicare-api/internal/model"
	"github.com/jwalitptl/clinicare-api/internal/repository"
	apperrors "github.com/jwalitptl/clinicare-api/pkg/errors"
)

const allKey = "\x00all"

// DefaultRestriction applies when appointment_restrict is missing.
var DefaultRestriction = model.AppointmentRestriction{BookBeforeDays: 0, BookAfterDays: 365}

type OptionServicer interface {
	List(ctx context.Context) ([]*model.Option, error)
	Get(ctx context.Context, key string) (*model.Option, error)
	Set(ctx context.Context, actor *model.Actor, key string, value json.RawMessage) (*model.Option, error)
	Delete(ctx context.Context, actor *model.Actor, key string) error
	Restriction(ctx context.Context) model.AppointmentRestriction
}

type Service struct {
	repo  repository.OptionRepository
	cache *cache.Cache
}

func NewService(repo repository.OptionRepository, ttl, cleanup time.Duration) *Service {
	return &Service{
		repo:  repo,
		cache: cache.New(ttl, cleanup),
	}
}

func (s *Service) List(ctx context.Context) ([]*model.Option, error) {
	if cached, ok := s.cache.Get(allKey); ok {
		return cached.([]*model.Option), nil
	}
	opts, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.SetDefault(allKey, opts)
	return opts, nil
}

func (s *Service) Get(ctx context.Context, key string) (*model.Option, error) {
	if cached, ok := s.cache.Get(key); ok {
		return cached.(*model.Option), nil
	}
	opt, err := s.repo.Get(ctx, key)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound(fmt.Sprintf("config %q", key), err)
		}
		return nil, err
	}
	s.cache.SetDefault(key, opt)
	return opt, nil
}

func (s *Service) Set(ctx context.Context, actor *model.Actor, key string, value json.RawMessage) (*model.Option, error) {
	if actor.Role != model.RoleAdministrator {
		return nil, apperrors.Forbidden("only administrators can change configuration")
	}
	if err := validate(key, value); err != nil {
		return nil, err
	}

	opt := &model.Option{Key: key, Value: value}
	if err := s.repo.Upsert(ctx, opt); err != nil {
		return nil, err
	}
	s.invalidate(key)
	return opt, nil
}

func (s *Service) Delete(ctx context.Context, actor *model.Actor, key string) error {
	if actor.Role != model.RoleAdministrator {
		return apperrors.Forbidden("only administrators can change configuration")
	}
	if err := s.repo.Delete(ctx, key); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound(fmt.Sprintf("config %q", key), err)
		}
		return err
	}
	s.invalidate(key)
	return nil
}

// Restriction returns the booking window, falling back to the default when
// the option is missing or unreadable.
func (s *Service) Restriction(ctx context.Context) model.AppointmentRestriction {
	opt, err := s.Get(ctx, model.OptionAppointmentRestrict)
	if err != nil {
		if !apperrors.IsNotFound(err) {
			log.Warn().Err(err).Msg("failed to load appointment restriction")
		}
		return DefaultRestriction
	}
	var r model.AppointmentRestriction
	if err := json.Unmarshal(opt.Value, &r); err != nil {
		log.Warn().Err(err).Msg("malformed appointment restriction")
		return DefaultRestriction
	}
	return r
}

func (s *Service) invalidate(key string) {
	s.cache.Delete(key)
	s.cache.Delete(allKey)
}

func validate(key string, value json.RawMessage) error {
	if key == "" || len(key) > 191 {
		return apperrors.BadRequest("invalid config key", nil)
	}
	if !json.Valid(value) {
		return apperrors.BadRequest("value must be valid JSON", nil)
	}

	switch key {
	case model.OptionTimeFormat, model.OptionDateFormat:
		var s string
		if err := json.Unmarshal(value, &s); err != nil || s == "" {
			return apperrors.BadRequest(key+" must be a non-empty string", err)
		}
	case model.OptionAppointmentRestrict:
		var r model.AppointmentRestriction
		if err := json.Unmarshal(value, &r); err != nil {
			return apperrors.BadRequest("appointment_restrict must be an object", err)
		}
		if r.BookBeforeDays < 0 || r.BookAfterDays < r.BookBeforeDays {
			return apperrors.BadRequest("appointment_restrict requires 0 <= book_before_days <= book_after_days", nil)
		}
	}
	return nil
}
