package encounter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinicare-api/internal/model"
	"github.com/jwalitptl/clinicare-api/internal/repository"
	apperrors "github.com/jwalitptl/clinicare-api/pkg/errors"
)

type memEncounters struct {
	repository.EncounterRepository
	rows    map[int64]*model.Encounter
	filters *model.EncounterFilters
}

func (m *memEncounters) Create(_ context.Context, enc *model.Encounter) error {
	enc.ID = int64(len(m.rows) + 1)
	m.rows[enc.ID] = enc
	return nil
}

func (m *memEncounters) Get(_ context.Context, id int64) (*model.Encounter, error) {
	enc, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *enc
	return &cp, nil
}

func (m *memEncounters) Update(_ context.Context, enc *model.Encounter) error {
	m.rows[enc.ID] = enc
	return nil
}

func (m *memEncounters) Export(_ context.Context, f *model.EncounterFilters) ([]*model.Encounter, error) {
	m.filters = f
	return nil, nil
}

type aptStub struct{ repository.AppointmentRepository }

func (aptStub) Get(_ context.Context, id int64) (*model.Appointment, error) {
	date, _ := model.ParseDate("2024-02-05")
	switch id {
	case 7:
		return &model.Appointment{Base: model.Base{ID: 7}, ClinicID: 1, DoctorID: 5, PatientID: 20,
			AppointmentDate: date, Status: model.AppointmentStatusCheckedIn}, nil
	case 8:
		return &model.Appointment{Base: model.Base{ID: 8}, ClinicID: 1, DoctorID: 5, PatientID: 20,
			AppointmentDate: date, Status: model.AppointmentStatusCancelled}, nil
	}
	return nil, repository.ErrNotFound
}

type staffStub struct{ repository.StaffRepository }

func (staffStub) IsDoctorInClinic(_ context.Context, doctorID, clinicID int64) (bool, error) {
	return doctorID == 5 && clinicID == 1, nil
}

type usersStub struct{ repository.UserRepository }

func (usersStub) Get(_ context.Context, id int64) (*model.User, error) {
	if id == 20 {
		return &model.User{Base: model.Base{ID: 20}, Role: model.RolePatient}, nil
	}
	return nil, repository.ErrNotFound
}

var (
	doctor       = &model.Actor{UserID: 5, Role: model.RoleDoctor}
	otherDoctor  = &model.Actor{UserID: 6, Role: model.RoleDoctor}
	receptionist = &model.Actor{UserID: 30, Role: model.RoleReceptionist, ClinicID: 1}
)

func newFixture() (*Service, *memEncounters) {
	repo := &memEncounters{rows: map[int64]*model.Encounter{}}
	svc := NewService(repo, aptStub{}, staffStub{}, usersStub{})
	svc.now = func() time.Time { return time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC) }
	return svc, repo
}

func TestCreate_InheritsFromAppointment(t *testing.T) {
	svc, _ := newFixture()
	aptID := int64(7)

	enc, err := svc.Create(context.Background(), doctor, &model.EncounterRequest{
		AppointmentID: &aptID, ClinicID: 99, PatientID: 1, Description: "follow up",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), enc.ClinicID)
	assert.Equal(t, int64(20), enc.PatientID)
	assert.Equal(t, "2024-02-05", enc.EncounterDate.String())
	assert.Equal(t, model.EncounterStatusOpen, enc.Status)
}

func TestCreate_Rejections(t *testing.T) {
	svc, _ := newFixture()
	ctx := context.Background()
	cancelled, missing, ok := int64(8), int64(9), int64(7)

	_, err := svc.Create(ctx, doctor, &model.EncounterRequest{AppointmentID: &cancelled})
	assert.Equal(t, "appointment is cancelled", apperrors.PublicMessage(err))

	_, err = svc.Create(ctx, doctor, &model.EncounterRequest{AppointmentID: &missing})
	assert.True(t, apperrors.IsNotFound(err))

	_, err = svc.Create(ctx, otherDoctor, &model.EncounterRequest{AppointmentID: &ok})
	appErr, isApp := apperrors.As(err)
	require.True(t, isApp)
	assert.Equal(t, apperrors.ErrForbidden, appErr.Code)
}

func TestCreate_DirectDefaultsToToday(t *testing.T) {
	svc, _ := newFixture()

	enc, err := svc.Create(context.Background(), receptionist, &model.EncounterRequest{DoctorID: 5, PatientID: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(1), enc.ClinicID)
	assert.Equal(t, "2024-02-01", enc.EncounterDate.String())
	assert.Nil(t, enc.AppointmentID)
}

func TestUpdate_ClosedIsReadOnlyUntilReopened(t *testing.T) {
	svc, _ := newFixture()
	ctx := context.Background()
	enc, err := svc.Create(ctx, receptionist, &model.EncounterRequest{DoctorID: 5, PatientID: 20})
	require.NoError(t, err)

	closed := model.EncounterStatusClosed
	_, err = svc.Update(ctx, doctor, enc.ID, &model.UpdateEncounterRequest{Status: &closed})
	require.NoError(t, err)

	desc := "late note"
	_, err = svc.Update(ctx, doctor, enc.ID, &model.UpdateEncounterRequest{Description: &desc})
	assert.Equal(t, "encounter is closed", apperrors.PublicMessage(err))

	open := model.EncounterStatusOpen
	updated, err := svc.Update(ctx, doctor, enc.ID, &model.UpdateEncounterRequest{Status: &open, Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, desc, updated.Description)
}

func TestExport_ScopedAndNeverNil(t *testing.T) {
	svc, repo := newFixture()
	patient := &model.Actor{UserID: 20, Role: model.RolePatient}

	out, err := svc.Export(context.Background(), patient, &model.EncounterFilters{PatientID: 21})
	require.NoError(t, err)
	assert.NotNil(t, out.Encounters)
	assert.Equal(t, int64(20), repo.filters.PatientID)
}
