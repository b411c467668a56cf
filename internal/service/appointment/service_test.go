package appointment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinicare-api/internal/model"
	"github.com/jwalitptl/clinicare-api/internal/repository"
	apperrors "github.com/jwalitptl/clinicare-api/pkg/errors"
)

type memAppointments struct {
	repository.AppointmentRepository
	rows map[int64]*model.Appointment
}

func (m *memAppointments) Create(_ context.Context, apt *model.Appointment) error {
	apt.ID = int64(len(m.rows) + 1)
	m.rows[apt.ID] = apt
	return nil
}

func (m *memAppointments) Get(_ context.Context, id int64) (*model.Appointment, error) {
	apt, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *apt
	return &cp, nil
}

func (m *memAppointments) UpdateStatus(_ context.Context, id int64, status model.AppointmentStatus) error {
	m.rows[id].Status = status
	return nil
}

func (m *memAppointments) FindForDate(_ context.Context, doctorID int64, date model.Date) ([]*model.Appointment, error) {
	var out []*model.Appointment
	for _, a := range m.rows {
		if a.DoctorID == doctorID && a.AppointmentDate.Equal(date.Time) && a.Status != model.AppointmentStatusCancelled {
			out = append(out, a)
		}
	}
	return out, nil
}

type fixedSessions struct {
	repository.SessionRepository
	rows []*model.Session
}

func (f *fixedSessions) FindForDay(_ context.Context, _, _ int64, day model.Weekday, _ int64) ([]*model.Session, error) {
	var out []*model.Session
	for _, r := range f.rows {
		if r.Day == day {
			out = append(out, r)
		}
	}
	return out, nil
}

type mappedStaff struct{ repository.StaffRepository }

func (mappedStaff) IsDoctorInClinic(_ context.Context, doctorID, clinicID int64) (bool, error) {
	return doctorID == 5 && clinicID == 1, nil
}

type usersStub struct{ repository.UserRepository }

func (usersStub) Get(_ context.Context, id int64) (*model.User, error) {
	switch id {
	case 20:
		return &model.User{Base: model.Base{ID: 20}, Role: model.RolePatient}, nil
	case 5:
		return &model.User{Base: model.Base{ID: 5}, Role: model.RoleDoctor}, nil
	}
	return nil, repository.ErrNotFound
}

type scheduleStub struct {
	holidays []string
	blocked  []model.Interval
}

func (s *scheduleStub) Unavailability(context.Context, *model.Actor, int64, int64) (*model.Unavailability, error) {
	return nil, errors.New("not used")
}

func (s *scheduleStub) Compute(context.Context, int64, int64) (*model.Unavailability, error) {
	return &model.Unavailability{Holidays: s.holidays}, nil
}

func (s *scheduleStub) BlockedWindows(context.Context, int64, int64, model.Date) ([]model.Interval, error) {
	return s.blocked, nil
}

type restriction model.AppointmentRestriction

func (r restriction) Restriction(context.Context) model.AppointmentRestriction {
	return model.AppointmentRestriction(r)
}

type recorder struct{ events []string }

func (r *recorder) Emit(_ context.Context, eventType string, _ interface{}) {
	r.events = append(r.events, eventType)
}

var (
	patient      = &model.Actor{UserID: 20, Role: model.RolePatient}
	receptionist = &model.Actor{UserID: 30, Role: model.RoleReceptionist, ClinicID: 1}
)

type fixture struct {
	svc      *Service
	repo     *memAppointments
	schedule *scheduleStub
	events   *recorder
}

// 2024-01-01 is a Monday; Mondays run 09:00-12:00 and 13:00-17:00 in 30 minute slots.
func newFixture() *fixture {
	repo := &memAppointments{rows: map[int64]*model.Appointment{}}
	sessions := &fixedSessions{rows: []*model.Session{
		{DoctorID: 5, ClinicID: 1, Day: model.Monday, StartTime: model.MustClock("09:00"), EndTime: model.MustClock("12:00"), TimeSlot: 30},
		{DoctorID: 5, ClinicID: 1, Day: model.Monday, StartTime: model.MustClock("13:00"), EndTime: model.MustClock("17:00"), TimeSlot: 30},
	}}
	sched := &scheduleStub{}
	events := &recorder{}
	svc := NewService(repo, sessions, mappedStaff{}, usersStub{}, sched, restriction{BookBeforeDays: 0, BookAfterDays: 30}, events)
	svc.now = func() time.Time { return time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC) }
	return &fixture{svc: svc, repo: repo, schedule: sched, events: events}
}

func request(date, start string) *model.CreateAppointmentRequest {
	return &model.CreateAppointmentRequest{
		ClinicID:        1,
		DoctorID:        5,
		AppointmentDate: date,
		StartTime:       model.MustClock(start),
	}
}

func code(t *testing.T, err error) apperrors.ErrorCode {
	t.Helper()
	appErr, ok := apperrors.As(err)
	require.True(t, ok, "expected AppError, got %v", err)
	return appErr.Code
}

func TestBook_Success(t *testing.T) {
	f := newFixture()

	apt, err := f.svc.Book(context.Background(), patient, request("2024-01-08", "09:30"))
	require.NoError(t, err)

	assert.Equal(t, int64(20), apt.PatientID)
	assert.Equal(t, "10:00", apt.EndTime.String())
	assert.Equal(t, model.AppointmentStatusBooked, apt.Status)
	assert.Equal(t, []string{model.EventAppointmentBooked}, f.events.events)
}

func TestBook_Rejections(t *testing.T) {
	tests := []struct {
		name  string
		date  string
		start string
		setup func(*fixture)
		want  apperrors.ErrorCode
	}{
		{"past date", "2023-12-31", "09:00", nil, apperrors.ErrBadRequest},
		{"beyond window", "2024-03-04", "09:00", nil, apperrors.ErrBadRequest},
		{"holiday", "2024-01-08", "09:00", func(f *fixture) { f.schedule.holidays = []string{"2024-01-08"} }, apperrors.ErrBadRequest},
		{"no session on tuesday", "2024-01-09", "09:00", nil, apperrors.ErrBadRequest},
		{"inside break", "2024-01-08", "12:00", nil, apperrors.ErrBadRequest},
		{"misaligned", "2024-01-08", "09:10", nil, apperrors.ErrBadRequest},
		{"slot past session end", "2024-01-08", "16:45", nil, apperrors.ErrBadRequest},
		{"time specific leave", "2024-01-08", "10:00", func(f *fixture) {
			f.schedule.blocked = []model.Interval{{Start: model.MustClock("10:00"), End: model.MustClock("11:00")}}
		}, apperrors.ErrBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			if tt.setup != nil {
				tt.setup(f)
			}
			_, err := f.svc.Book(context.Background(), patient, request(tt.date, tt.start))
			assert.Equal(t, tt.want, code(t, err))
			assert.Empty(t, f.repo.rows)
		})
	}
}

func TestBook_SlotTakenUntilCancelled(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	first, err := f.svc.Book(ctx, patient, request("2024-01-08", "13:00"))
	require.NoError(t, err)

	_, err = f.svc.Book(ctx, patient, request("2024-01-08", "13:00"))
	assert.Equal(t, apperrors.ErrConflict, code(t, err))
	assert.ErrorIs(t, err, ErrSlotTaken)

	_, err = f.svc.UpdateStatus(ctx, patient, first.ID, model.AppointmentStatusCancelled)
	require.NoError(t, err)

	_, err = f.svc.Book(ctx, patient, request("2024-01-08", "13:00"))
	assert.NoError(t, err)
}

func TestBook_ReceptionistNeedsPatient(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	req := request("2024-01-08", "09:00")
	_, err := f.svc.Book(ctx, receptionist, req)
	assert.Equal(t, apperrors.ErrBadRequest, code(t, err))

	req.PatientID = 5
	_, err = f.svc.Book(ctx, receptionist, req)
	assert.Equal(t, "patient_id does not reference a patient", apperrors.PublicMessage(err))

	req.PatientID = 20
	req.ClinicID = 99
	apt, err := f.svc.Book(ctx, receptionist, req)
	require.NoError(t, err)
	assert.Equal(t, int64(1), apt.ClinicID)
}

func TestUpdateStatus_Transitions(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	apt, err := f.svc.Book(ctx, patient, request("2024-01-08", "09:00"))
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(ctx, patient, apt.ID, model.AppointmentStatusCheckedIn)
	assert.Equal(t, apperrors.ErrForbidden, code(t, err))

	_, err = f.svc.UpdateStatus(ctx, receptionist, apt.ID, model.AppointmentStatusCheckedOut)
	assert.Equal(t, apperrors.ErrBadRequest, code(t, err))

	for _, next := range []model.AppointmentStatus{model.AppointmentStatusCheckedIn, model.AppointmentStatusCheckedOut} {
		updated, err := f.svc.UpdateStatus(ctx, receptionist, apt.ID, next)
		require.NoError(t, err)
		assert.Equal(t, next, updated.Status)
	}

	_, err = f.svc.UpdateStatus(ctx, receptionist, apt.ID, model.AppointmentStatusCancelled)
	assert.Equal(t, apperrors.ErrBadRequest, code(t, err))
}

func TestGet_PatientSeesOnlyOwn(t *testing.T) {
	f := newFixture()
	f.repo.rows[1] = &model.Appointment{Base: model.Base{ID: 1}, PatientID: 21, ClinicID: 1, DoctorID: 5}

	_, err := f.svc.Get(context.Background(), patient, 1)
	assert.Equal(t, apperrors.ErrForbidden, code(t, err))

	_, err = f.svc.Get(context.Background(), receptionist, 1)
	assert.NoError(t, err)
}
