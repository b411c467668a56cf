package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinicare-api/internal/model"
	"github.com/jwalitptl/clinicare-api/internal/repository"
)

type stubSessions struct {
	repository.SessionRepository
	rows    []*model.Session
	filters *model.SessionFilters
}

func (s *stubSessions) List(_ context.Context, f *model.SessionFilters) ([]*model.Session, error) {
	s.filters = f
	return s.rows, nil
}

type stubLeaves struct {
	repository.LeaveRepository
	rows []*model.Leave
}

func (s *stubLeaves) FindActive(context.Context, int64, int64) ([]*model.Leave, error) {
	return s.rows, nil
}

type stubAppointments struct {
	repository.AppointmentRepository
	counts []model.DateCount
	from   time.Time
}

func (s *stubAppointments) CountByDate(_ context.Context, _, _ int64, from time.Time) ([]model.DateCount, error) {
	s.from = from
	return s.counts, nil
}

func newTestService(t *testing.T, sessions []*model.Session, leaves []*model.Leave, counts []model.DateCount) (*Service, *stubSessions, *stubAppointments) {
	t.Helper()
	ss := &stubSessions{rows: sessions}
	as := &stubAppointments{counts: counts}
	svc := NewService(ss, &stubLeaves{rows: leaves}, as)
	svc.now = func() time.Time { return time.Date(2024, 1, 1, 15, 30, 0, 0, time.UTC) }
	return svc, ss, as
}

func TestUnavailability_MergesLeavesAndBookings(t *testing.T) {
	sessions := []*model.Session{
		session(model.Monday, "09:00", "10:00", 30), // 2 slots
		session(model.Tuesday, "09:00", "09:30", 30),
	}
	leaves := []*model.Leave{
		{Base: model.Base{ID: 1}, ModuleType: model.LeaveModuleDoctor, SelectionMode: model.SelectionRange,
			StartDate: date(t, "2024-01-03"), EndDate: date(t, "2024-01-04"), Status: model.StatusActive},
		{Base: model.Base{ID: 2}, ModuleType: model.LeaveModuleClinic, SelectionMode: model.SelectionMultiple,
			SelectedDates: pq.StringArray{"2024-01-04", "2024-01-20"}, Status: model.StatusActive},
		{Base: model.Base{ID: 3}, ModuleType: model.LeaveModuleDoctor, SelectionMode: model.SelectionSingle,
			StartDate: date(t, "2024-01-10"), TimeSpecific: true, Status: model.StatusActive},
		{Base: model.Base{ID: 4}, ModuleType: model.LeaveModuleClinic, SelectionMode: model.SelectionMultiple,
			SelectedDates: pq.StringArray{"garbage"}, Status: model.StatusActive},
	}
	counts := []model.DateCount{
		{Date: date(t, "2024-01-08"), Count: 2}, // monday full
		{Date: date(t, "2024-01-15"), Count: 1}, // monday not full
		{Date: date(t, "2024-01-09"), Count: 1}, // tuesday full
	}

	svc, ss, as := newTestService(t, sessions, leaves, counts)
	actor := &model.Actor{UserID: 1, Role: model.RoleAdministrator}

	got, err := svc.Unavailability(context.Background(), actor, 5, 2)
	require.NoError(t, err)

	assert.Equal(t, &model.SessionFilters{DoctorID: 5, ClinicID: 2}, ss.filters)
	assert.Equal(t, "2024-01-01", model.DateOf(as.from).String())

	assert.Equal(t, []model.Weekday{model.Wednesday, model.Thursday, model.Friday, model.Saturday, model.Sunday}, got.OffDays)
	assert.Equal(t, []string{"2024-01-03", "2024-01-04"}, got.DoctorHolidays)
	assert.Equal(t, []string{"2024-01-04", "2024-01-20"}, got.ClinicHolidays)
	assert.Equal(t, []string{"2024-01-03", "2024-01-04", "2024-01-08", "2024-01-09", "2024-01-20"}, got.Holidays)
	assert.NotContains(t, got.Holidays, "2024-01-10", "time-specific leave must not block the day")
}

func TestUnavailability_ReceptionistIsPinnedToOwnClinic(t *testing.T) {
	svc, ss, _ := newTestService(t, nil, nil, nil)
	actor := &model.Actor{UserID: 9, Role: model.RoleReceptionist, ClinicID: 3}

	got, err := svc.Unavailability(context.Background(), actor, 5, 77)
	require.NoError(t, err)

	assert.Equal(t, int64(3), ss.filters.ClinicID)
	assert.Equal(t, model.Week, got.OffDays)
	assert.Equal(t, []string{}, got.Holidays)
}

func TestUnavailability_DoctorCannotQueryColleague(t *testing.T) {
	svc, _, _ := newTestService(t, nil, nil, nil)
	actor := &model.Actor{UserID: 5, Role: model.RoleDoctor}

	_, err := svc.Unavailability(context.Background(), actor, 6, 2)
	assert.Error(t, err)

	_, err = svc.Unavailability(context.Background(), actor, 0, 2)
	assert.NoError(t, err)
}

func TestUnavailability_RequiresDoctorAndClinic(t *testing.T) {
	svc, _, _ := newTestService(t, nil, nil, nil)
	actor := &model.Actor{UserID: 1, Role: model.RoleAdministrator}

	_, err := svc.Unavailability(context.Background(), actor, 0, 2)
	assert.Error(t, err)
}
