package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinicare-api/internal/model"
	"github.com/jwalitptl/clinicare-api/internal/repository"
)

func newMockBase(t *testing.T) (BaseRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewBaseRepository(sqlx.NewDb(db, "postgres")), mock
}

func TestWhere_BuildsPositionalConditions(t *testing.T) {
	w := &where{}
	assert.Equal(t, "", w.String())

	w.add("clinic_id = $%d", int64(3))
	w.add("(name ILIKE $%[1]d OR email ILIKE $%[1]d)", "%x%")

	assert.Equal(t, " WHERE clinic_id = $1 AND (name ILIKE $2 OR email ILIKE $2)", w.String())

	limit, args := w.page(20, 40)
	assert.Equal(t, " LIMIT $3 OFFSET $4", limit)
	assert.Equal(t, []interface{}{int64(3), "%x%", 20, 40}, args)
	assert.Len(t, w.args, 2, "paging must not mutate the filter args")
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	base, mock := newMockBase(t)

	mock.ExpectBegin()
	mock.ExpectRollback()

	boom := errors.New("boom")
	err := base.WithTx(context.Background(), func(tx *sqlx.Tx) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClinicRepository_DeleteCascades(t *testing.T) {
	base, mock := newMockBase(t)
	repo := NewClinicRepository(base)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM doctor_clinics").WithArgs(int64(9)).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("DELETE FROM receptionist_clinics").WithArgs(int64(9)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM patient_clinics").WithArgs(int64(9)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM doctor_services").WithArgs(int64(9)).WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("DELETE FROM doctor_sessions").WithArgs(int64(9)).WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec("DELETE FROM leaves").WithArgs("clinic", int64(9)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM clinics").WithArgs(int64(9)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(context.Background(), 9))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClinicRepository_DeleteMissingRollsBack(t *testing.T) {
	base, mock := newMockBase(t)
	repo := NewClinicRepository(base)

	mock.ExpectBegin()
	for i := 0; i < 6; i++ {
		mock.ExpectExec("DELETE FROM").WillReturnResult(sqlmock.NewResult(0, 0))
	}
	mock.ExpectExec("DELETE FROM clinics").WithArgs(int64(404)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Delete(context.Background(), 404)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClinicRepository_UpdateStatusReturnsTouchedIDs(t *testing.T) {
	base, mock := newMockBase(t)
	repo := NewClinicRepository(base)

	mock.ExpectQuery("UPDATE clinics SET status").
		WithArgs(0, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)).AddRow(int64(3)))

	ids, err := repo.UpdateStatus(context.Background(), []int64{1, 2, 3}, 0)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_CreateGroupsLinksChildrenToParent(t *testing.T) {
	base, mock := newMockBase(t)
	repo := NewSessionRepository(base)

	rows := []*model.Session{
		{DoctorID: 1, ClinicID: 2, Day: model.Monday, StartTime: model.MustClock("09:00"), EndTime: model.MustClock("12:00"), TimeSlot: 15},
		{DoctorID: 1, ClinicID: 2, Day: model.Monday, StartTime: model.MustClock("13:00"), EndTime: model.MustClock("17:00"), TimeSlot: 15},
	}

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO doctor_sessions").
		WithArgs(nil, int64(1), int64(2), "mon", "09:00:00", "12:00:00", 15, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(100)))
	mock.ExpectQuery("INSERT INTO doctor_sessions").
		WithArgs(int64(100), int64(1), int64(2), "mon", "13:00:00", "17:00:00", 15, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(101)))
	mock.ExpectCommit()

	require.NoError(t, repo.CreateGroups(context.Background(), [][]*model.Session{rows}))
	assert.Equal(t, int64(100), rows[0].ID)
	assert.Nil(t, rows[0].ParentID)
	require.NotNil(t, rows[1].ParentID)
	assert.Equal(t, int64(100), *rows[1].ParentID)
	assert.Equal(t, int64(100), rows[1].GroupID())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_CreateGroupsRollsBackEveryDay(t *testing.T) {
	base, mock := newMockBase(t)
	repo := NewSessionRepository(base)

	groups := [][]*model.Session{
		{{DoctorID: 1, ClinicID: 2, Day: model.Monday, StartTime: model.MustClock("09:00"), EndTime: model.MustClock("12:00"), TimeSlot: 15}},
		{{DoctorID: 1, ClinicID: 2, Day: model.Tuesday, StartTime: model.MustClock("09:00"), EndTime: model.MustClock("12:00"), TimeSlot: 15}},
	}

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO doctor_sessions").
		WithArgs(nil, int64(1), int64(2), "mon", "09:00:00", "12:00:00", 15, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(100)))
	mock.ExpectQuery("INSERT INTO doctor_sessions").
		WithArgs(nil, int64(1), int64(2), "tue", "09:00:00", "12:00:00", 15, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := repo.CreateGroups(context.Background(), groups)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tue")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_GetGroupNotFound(t *testing.T) {
	base, mock := newMockBase(t)
	repo := NewSessionRepository(base)

	mock.ExpectQuery("SELECT (.+) FROM doctor_sessions").
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetGroup(context.Background(), 5)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestAppointmentRepository_CountByDateExcludesCancelled(t *testing.T) {
	base, mock := newMockBase(t)
	repo := NewAppointmentRepository(base)

	from, err := model.ParseDate("2024-03-01")
	require.NoError(t, err)

	mock.ExpectQuery("SELECT appointment_date, COUNT").
		WithArgs(int64(1), int64(2), "2024-03-01", "cancelled").
		WillReturnRows(sqlmock.NewRows([]string{"appointment_date", "count"}).
			AddRow(from.Time, 4).
			AddRow(from.AddDate(0, 0, 1), 1))

	counts, err := repo.CountByDate(context.Background(), 1, 2, from.Time)
	require.NoError(t, err)
	require.Len(t, counts, 2)
	assert.Equal(t, "2024-03-01", counts[0].Date.String())
	assert.Equal(t, 4, counts[0].Count)
	assert.Equal(t, "2024-03-02", counts[1].Date.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOptionRepository_GetMissing(t *testing.T) {
	base, mock := newMockBase(t)
	repo := NewOptionRepository(base)

	mock.ExpectQuery("SELECT key, value, updated_at FROM options").
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows([]string{"key", "value", "updated_at"}))

	_, err := repo.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
