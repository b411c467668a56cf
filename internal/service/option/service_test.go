package option

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinicare-api/internal/model"
	"github.com/jwalitptl/clinicare-api/internal/repository"
	apperrors "github.com/jwalitptl/clinicare-api/pkg/errors"
)

type countingRepo struct {
	rows  map[string]json.RawMessage
	reads int
}

func (r *countingRepo) Get(_ context.Context, key string) (*model.Option, error) {
	r.reads++
	v, ok := r.rows[key]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &model.Option{Key: key, Value: v}, nil
}

func (r *countingRepo) List(context.Context) ([]*model.Option, error) {
	r.reads++
	out := []*model.Option{}
	for k, v := range r.rows {
		out = append(out, &model.Option{Key: k, Value: v})
	}
	return out, nil
}

func (r *countingRepo) Upsert(_ context.Context, opt *model.Option) error {
	r.rows[opt.Key] = opt.Value
	return nil
}

func (r *countingRepo) Delete(_ context.Context, key string) error {
	if _, ok := r.rows[key]; !ok {
		return repository.ErrNotFound
	}
	delete(r.rows, key)
	return nil
}

var admin = &model.Actor{UserID: 1, Role: model.RoleAdministrator}

func newFixture() (*Service, *countingRepo) {
	repo := &countingRepo{rows: map[string]json.RawMessage{
		model.OptionTimeFormat: json.RawMessage(`"H:i"`),
	}}
	return NewService(repo, time.Minute, time.Minute), repo
}

func TestGet_CachesUntilWrite(t *testing.T) {
	svc, repo := newFixture()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		opt, err := svc.Get(ctx, model.OptionTimeFormat)
		require.NoError(t, err)
		assert.JSONEq(t, `"H:i"`, string(opt.Value))
	}
	assert.Equal(t, 1, repo.reads)

	_, err := svc.Set(ctx, admin, model.OptionTimeFormat, json.RawMessage(`"h:i A"`))
	require.NoError(t, err)

	opt, err := svc.Get(ctx, model.OptionTimeFormat)
	require.NoError(t, err)
	assert.JSONEq(t, `"h:i A"`, string(opt.Value))
	assert.Equal(t, 2, repo.reads)
}

func TestList_InvalidatedBySet(t *testing.T) {
	svc, _ := newFixture()
	ctx := context.Background()

	opts, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, opts, 1)

	_, err = svc.Set(ctx, admin, "clinic_currency", json.RawMessage(`"USD"`))
	require.NoError(t, err)

	opts, err = svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, opts, 2)
}

func TestSet_Validation(t *testing.T) {
	svc, _ := newFixture()
	ctx := context.Background()

	cases := []struct {
		key   string
		value string
	}{
		{model.OptionDateFormat, `42`},
		{model.OptionAppointmentRestrict, `{"book_before_days":5,"book_after_days":2}`},
		{model.OptionAppointmentRestrict, `"soon"`},
		{"any", `{not json`},
	}
	for _, tc := range cases {
		_, err := svc.Set(ctx, admin, tc.key, json.RawMessage(tc.value))
		appErr, ok := apperrors.As(err)
		require.True(t, ok, tc.value)
		assert.Equal(t, apperrors.ErrBadRequest, appErr.Code, tc.value)
	}

	_, err := svc.Set(ctx, &model.Actor{Role: model.RoleClinicAdmin}, "k", json.RawMessage(`1`))
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrForbidden, appErr.Code)
}

func TestRestriction_FallsBackToDefault(t *testing.T) {
	svc, _ := newFixture()
	ctx := context.Background()
	assert.Equal(t, DefaultRestriction, svc.Restriction(ctx))

	_, err := svc.Set(ctx, admin, model.OptionAppointmentRestrict, json.RawMessage(`{"book_before_days":1,"book_after_days":30}`))
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentRestriction{BookBeforeDays: 1, BookAfterDays: 30}, svc.Restriction(ctx))
}

func TestDelete_Missing(t *testing.T) {
	svc, _ := newFixture()
	err := svc.Delete(context.Background(), admin, "nope")
	assert.True(t, apperrors.IsNotFound(err))
}
