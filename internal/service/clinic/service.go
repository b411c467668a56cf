package clinic

import (
	"context"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/jwalitptl/clinicare-api/internal/model"
	"github.com/jwalitptl/clinicare-api/internal/repository"
	"github.com/jwalitptl/clinicare-api/internal/service/event"
	"github.com/jwalitptl/clinicare-api/internal/service/rbac"
	apperrors "github.com/jwalitptl/clinicare-api/pkg/errors"
)

type ClinicServicer interface {
	CreateClinic(ctx context.Context, actor *model.Actor, req *model.ClinicRequest) (*model.Clinic, error)
	GetClinic(ctx context.Context, actor *model.Actor, id int64) (*model.Clinic, error)
	UpdateClinic(ctx context.Context, actor *model.Actor, id int64, req *model.ClinicRequest) (*model.Clinic, error)
	DeleteClinic(ctx context.Context, actor *model.Actor, id int64) error
	ListClinics(ctx context.Context, actor *model.Actor, filters *model.ClinicFilters) (*model.Page[*model.Clinic], error)
	ExportClinics(ctx context.Context, actor *model.Actor, filters *model.ClinicFilters) (*model.ClinicExport, error)
	BulkDelete(ctx context.Context, actor *model.Actor, ids []int64) *model.BulkResult
	BulkUpdateStatus(ctx context.Context, actor *model.Actor, ids []int64, status int) (*model.BulkResult, error)
}

type Service struct {
	repo   repository.ClinicRepository
	users  repository.UserRepository
	events event.Emitter
}

func NewService(repo repository.ClinicRepository, users repository.UserRepository, events event.Emitter) *Service {
	return &Service{
		repo:   repo,
		users:  users,
		events: events,
	}
}

type clinicEvent struct {
	ClinicID int64  `json:"clinic_id"`
	Name     string `json:"name,omitempty"`
}

func (s *Service) CreateClinic(ctx context.Context, actor *model.Actor, req *model.ClinicRequest) (*model.Clinic, error) {
	if actor.Role != model.RoleAdministrator {
		return nil, apperrors.Forbidden("only administrators can create clinics")
	}

	clinic := &model.Clinic{Status: model.StatusActive}
	applyRequest(clinic, req)
	if err := s.validateAdmin(ctx, clinic.AdminID); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, clinic); err != nil {
		return nil, fmt.Errorf("failed to create clinic: %w", err)
	}

	s.events.Emit(ctx, model.EventClinicCreated, clinicEvent{ClinicID: clinic.ID, Name: clinic.Name})
	return clinic, nil
}

func (s *Service) GetClinic(ctx context.Context, actor *model.Actor, id int64) (*model.Clinic, error) {
	if !rbac.CanAccessClinic(actor, id) {
		return nil, apperrors.Forbidden("clinic is outside your scope")
	}
	clinic, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, mapErr(err, "failed to get clinic")
	}
	return clinic, nil
}

func (s *Service) UpdateClinic(ctx context.Context, actor *model.Actor, id int64, req *model.ClinicRequest) (*model.Clinic, error) {
	if !actor.Is(model.RoleAdministrator, model.RoleClinicAdmin) {
		return nil, apperrors.Forbidden("")
	}
	clinic, err := s.GetClinic(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	adminID := clinic.AdminID
	applyRequest(clinic, req)
	if actor.Role != model.RoleAdministrator {
		clinic.AdminID = adminID
	} else if err := s.validateAdmin(ctx, clinic.AdminID); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, clinic); err != nil {
		return nil, mapErr(err, "failed to update clinic")
	}
	return clinic, nil
}

func (s *Service) DeleteClinic(ctx context.Context, actor *model.Actor, id int64) error {
	if actor.Role != model.RoleAdministrator {
		return apperrors.Forbidden("only administrators can delete clinics")
	}
	if id <= 0 {
		return apperrors.BadRequest("invalid clinic id", nil)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapErr(err, "failed to delete clinic")
	}

	s.events.Emit(ctx, model.EventClinicDeleted, clinicEvent{ClinicID: id})
	return nil
}

func (s *Service) ListClinics(ctx context.Context, actor *model.Actor, filters *model.ClinicFilters) (*model.Page[*model.Clinic], error) {
	scope(actor, filters)
	clinics, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list clinics: %w", err)
	}
	p := filters.Pagination.Normalize()
	return &model.Page[*model.Clinic]{Items: clinics, Total: total, Page: p.Page, PageSize: p.PageSize}, nil
}

func (s *Service) ExportClinics(ctx context.Context, actor *model.Actor, filters *model.ClinicFilters) (*model.ClinicExport, error) {
	scope(actor, filters)
	clinics, err := s.repo.Export(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to export clinics: %w", err)
	}
	return &model.ClinicExport{Clinics: clinics}, nil
}

// BulkDelete deletes each id in its own transaction. A bad id lands in
// FailedIDs and the rest still go through.
func (s *Service) BulkDelete(ctx context.Context, actor *model.Actor, ids []int64) *model.BulkResult {
	result := model.NewBulkResult()
	for _, id := range ids {
		if err := s.DeleteClinic(ctx, actor, id); err != nil {
			result.Fail(id, apperrors.PublicMessage(err))
			continue
		}
		result.SuccessCount++
	}
	return result
}

func (s *Service) BulkUpdateStatus(ctx context.Context, actor *model.Actor, ids []int64, status int) (*model.BulkResult, error) {
	if actor.Role != model.RoleAdministrator {
		return nil, apperrors.Forbidden("only administrators can change clinic status")
	}
	if status != model.StatusActive && status != model.StatusInactive {
		return nil, apperrors.BadRequest("status must be 0 or 1", nil)
	}

	updated, err := s.repo.UpdateStatus(ctx, ids, status)
	if err != nil {
		return nil, fmt.Errorf("failed to update clinic status: %w", err)
	}

	touched := make(map[int64]bool, len(updated))
	for _, id := range updated {
		touched[id] = true
	}
	result := model.NewBulkResult()
	for _, id := range ids {
		if touched[id] {
			result.SuccessCount++
			continue
		}
		result.Fail(id, "clinic not found")
	}
	return result, nil
}

func (s *Service) validateAdmin(ctx context.Context, adminID *int64) error {
	if adminID == nil {
		return nil
	}
	user, err := s.users.Get(ctx, *adminID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.BadRequest("admin_id does not reference a user", err)
		}
		return err
	}
	if user.Role != model.RoleClinicAdmin {
		return apperrors.BadRequest("admin_id must reference a clinic admin", nil)
	}
	return nil
}

// scope restricts clinic-bound actors to their own clinic.
func scope(actor *model.Actor, filters *model.ClinicFilters) {
	if actor.Is(model.RoleClinicAdmin, model.RoleReceptionist) {
		filters.IDs = []int64{actor.ClinicID}
	}
}

func applyRequest(clinic *model.Clinic, req *model.ClinicRequest) {
	clinic.Name = req.Name
	clinic.Email = req.Email
	clinic.Phone = req.Phone
	clinic.Address = req.Address
	clinic.City = req.City
	clinic.Country = req.Country
	clinic.Specialties = pq.StringArray(req.Specialties)
	if clinic.Specialties == nil {
		clinic.Specialties = pq.StringArray{}
	}
	if req.Status != nil {
		clinic.Status = *req.Status
	}
	clinic.AdminID = req.AdminID
}

func mapErr(err error, msg string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound("clinic", err)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
