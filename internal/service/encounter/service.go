package encounter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jwalitptl/clinicare-api/internal/model"
	"github.com/jwalitptl/clinicare-api/internal/repository"
	"github.com/jwalitptl/clinicare-api/internal/service/rbac"
	apperrors "github.com/jwalitptl/clinicare-api/pkg/errors"
)

type EncounterServicer interface {
	Create(ctx context.Context, actor *model.Actor, req *model.EncounterRequest) (*model.Encounter, error)
	Get(ctx context.Context, actor *model.Actor, id int64) (*model.Encounter, error)
	Update(ctx context.Context, actor *model.Actor, id int64, req *model.UpdateEncounterRequest) (*model.Encounter, error)
	Delete(ctx context.Context, actor *model.Actor, id int64) error
	List(ctx context.Context, actor *model.Actor, filters *model.EncounterFilters) (*model.Page[*model.Encounter], error)
	Export(ctx context.Context, actor *model.Actor, filters *model.EncounterFilters) (*model.EncounterExport, error)
}

type Service struct {
	repo         repository.EncounterRepository
	appointments repository.AppointmentRepository
	staff        repository.StaffRepository
	users        repository.UserRepository
	now          func() time.Time
}

func NewService(
	repo repository.EncounterRepository,
	appointments repository.AppointmentRepository,
	staff repository.StaffRepository,
	users repository.UserRepository,
) *Service {
	return &Service{
		repo:         repo,
		appointments: appointments,
		staff:        staff,
		users:        users,
		now:          time.Now,
	}
}

// Create opens an encounter. One created from an appointment takes clinic,
// doctor, patient and date from it.
func (s *Service) Create(ctx context.Context, actor *model.Actor, req *model.EncounterRequest) (*model.Encounter, error) {
	var enc *model.Encounter
	var err error
	if req.AppointmentID != nil {
		enc, err = s.fromAppointment(ctx, *req.AppointmentID)
	} else {
		enc, err = s.fromRequest(ctx, actor, req)
	}
	if err != nil {
		return nil, err
	}

	if !canSee(actor, enc) {
		return nil, apperrors.Forbidden("encounter is outside your scope")
	}
	if req.EncounterDate != "" {
		date, err := model.ParseDate(req.EncounterDate)
		if err != nil {
			return nil, apperrors.BadRequest(err.Error(), err)
		}
		enc.EncounterDate = date
	}
	if enc.EncounterDate.IsZero() {
		enc.EncounterDate = model.DateOf(s.now())
	}
	enc.Description = req.Description
	enc.Status = model.EncounterStatusOpen

	if err := s.repo.Create(ctx, enc); err != nil {
		return nil, fmt.Errorf("failed to create encounter: %w", err)
	}
	return enc, nil
}

func (s *Service) fromAppointment(ctx context.Context, appointmentID int64) (*model.Encounter, error) {
	apt, err := s.appointments.Get(ctx, appointmentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("appointment", err)
		}
		return nil, err
	}
	if apt.Status == model.AppointmentStatusCancelled {
		return nil, apperrors.BadRequest("appointment is cancelled", nil)
	}
	return &model.Encounter{
		ClinicID:      apt.ClinicID,
		DoctorID:      apt.DoctorID,
		PatientID:     apt.PatientID,
		AppointmentID: &apt.ID,
		EncounterDate: apt.AppointmentDate,
	}, nil
}

func (s *Service) fromRequest(ctx context.Context, actor *model.Actor, req *model.EncounterRequest) (*model.Encounter, error) {
	clinicID := rbac.ResolveClinic(actor, req.ClinicID)
	doctorID, err := rbac.ResolveDoctor(actor, req.DoctorID)
	if err != nil {
		return nil, err
	}
	if clinicID <= 0 || doctorID <= 0 || req.PatientID <= 0 {
		return nil, apperrors.BadRequest("clinic_id, doctor_id and patient_id are required", nil)
	}

	ok, err := s.staff.IsDoctorInClinic(ctx, doctorID, clinicID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.BadRequest(fmt.Sprintf("doctor %d is not assigned to clinic %d", doctorID, clinicID), nil)
	}

	patient, err := s.users.Get(ctx, req.PatientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("patient", err)
		}
		return nil, err
	}
	if patient.Role != model.RolePatient {
		return nil, apperrors.BadRequest("patient_id does not reference a patient", nil)
	}

	return &model.Encounter{ClinicID: clinicID, DoctorID: doctorID, PatientID: req.PatientID}, nil
}

func (s *Service) Get(ctx context.Context, actor *model.Actor, id int64) (*model.Encounter, error) {
	enc, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, mapErr(err, "failed to get encounter")
	}
	if !canSee(actor, enc) {
		return nil, apperrors.Forbidden("encounter is outside your scope")
	}
	return enc, nil
}

// Update edits an open encounter. A closed one only accepts reopening.
func (s *Service) Update(ctx context.Context, actor *model.Actor, id int64, req *model.UpdateEncounterRequest) (*model.Encounter, error) {
	enc, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	reopening := req.Status != nil && *req.Status == model.EncounterStatusOpen
	if enc.Status == model.EncounterStatusClosed && !reopening {
		return nil, apperrors.BadRequest("encounter is closed", nil)
	}

	if req.EncounterDate != nil {
		date, err := model.ParseDate(*req.EncounterDate)
		if err != nil {
			return nil, apperrors.BadRequest(err.Error(), err)
		}
		enc.EncounterDate = date
	}
	if req.Description != nil {
		enc.Description = *req.Description
	}
	if req.Status != nil {
		enc.Status = *req.Status
	}

	if err := s.repo.Update(ctx, enc); err != nil {
		return nil, mapErr(err, "failed to update encounter")
	}
	return enc, nil
}

func (s *Service) Delete(ctx context.Context, actor *model.Actor, id int64) error {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapErr(err, "failed to delete encounter")
	}
	return nil
}

func (s *Service) List(ctx context.Context, actor *model.Actor, filters *model.EncounterFilters) (*model.Page[*model.Encounter], error) {
	if err := scope(actor, filters); err != nil {
		return nil, err
	}
	items, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list encounters: %w", err)
	}
	p := filters.Pagination.Normalize()
	return &model.Page[*model.Encounter]{Items: items, Total: total, Page: p.Page, PageSize: p.PageSize}, nil
}

func (s *Service) Export(ctx context.Context, actor *model.Actor, filters *model.EncounterFilters) (*model.EncounterExport, error) {
	if err := scope(actor, filters); err != nil {
		return nil, err
	}
	items, err := s.repo.Export(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to export encounters: %w", err)
	}
	if items == nil {
		items = []*model.Encounter{}
	}
	return &model.EncounterExport{Encounters: items}, nil
}

func scope(actor *model.Actor, filters *model.EncounterFilters) error {
	filters.ClinicID = rbac.ResolveClinic(actor, filters.ClinicID)
	doctorID, err := rbac.ResolveDoctor(actor, filters.DoctorID)
	if err != nil {
		return err
	}
	filters.DoctorID = doctorID
	if actor.Role == model.RolePatient {
		filters.PatientID = actor.UserID
	}
	return nil
}

func canSee(actor *model.Actor, enc *model.Encounter) bool {
	switch actor.Role {
	case model.RolePatient:
		return enc.PatientID == actor.UserID
	case model.RoleDoctor:
		return enc.DoctorID == actor.UserID
	}
	return rbac.CanAccessClinic(actor, enc.ClinicID)
}

func mapErr(err error, msg string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound("encounter", err)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
