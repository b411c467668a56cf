package doctorservice

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jwalitptl/clinicare-api/internal/model"
	"github.com/jwalitptl/clinicare-api/internal/repository"
	"github.com/jwalitptl/clinicare-api/internal/service/rbac"
	apperrors "github.com/jwalitptl/clinicare-api/pkg/errors"
)

const defaultDuration = 30

type DoctorServiceServicer interface {
	Create(ctx context.Context, actor *model.Actor, req *model.DoctorServiceRequest) (*model.DoctorService, error)
	Get(ctx context.Context, actor *model.Actor, id int64) (*model.DoctorService, error)
	Update(ctx context.Context, actor *model.Actor, id int64, req *model.UpdateDoctorServiceRequest) (*model.DoctorService, error)
	Delete(ctx context.Context, actor *model.Actor, id int64) error
	List(ctx context.Context, actor *model.Actor, filters *model.DoctorServiceFilters) (*model.Page[*model.DoctorService], error)
	Export(ctx context.Context, actor *model.Actor, filters *model.DoctorServiceFilters) (*model.ServiceExport, error)
	BulkDelete(ctx context.Context, actor *model.Actor, ids []int64) *model.BulkResult
}

type Service struct {
	repo  repository.DoctorServiceRepository
	staff repository.StaffRepository
}

func NewService(repo repository.DoctorServiceRepository, staff repository.StaffRepository) *Service {
	return &Service{repo: repo, staff: staff}
}

// Create maps a catalogue service onto a doctor at a clinic. The catalogue
// entry is referenced by id or created on the fly from its name.
func (s *Service) Create(ctx context.Context, actor *model.Actor, req *model.DoctorServiceRequest) (*model.DoctorService, error) {
	clinicID := rbac.ResolveClinic(actor, req.ClinicID)
	doctorID, err := rbac.ResolveDoctor(actor, req.DoctorID)
	if err != nil {
		return nil, err
	}
	if doctorID <= 0 || clinicID <= 0 {
		return nil, apperrors.BadRequest("doctor_id and clinic_id are required", nil)
	}

	ok, err := s.staff.IsDoctorInClinic(ctx, doctorID, clinicID)
	if err != nil {
		return nil, fmt.Errorf("failed to check doctor clinic: %w", err)
	}
	if !ok {
		return nil, apperrors.BadRequest(fmt.Sprintf("doctor %d is not assigned to clinic %d", doctorID, clinicID), nil)
	}

	svc, err := s.resolveCatalogue(ctx, req)
	if err != nil {
		return nil, err
	}

	ds := &model.DoctorService{
		ServiceID:   svc.ID,
		DoctorID:    doctorID,
		ClinicID:    clinicID,
		Charges:     req.Charges,
		Duration:    req.Duration,
		Status:      model.StatusActive,
		ServiceName: svc.Name,
		Category:    svc.Category,
	}
	if ds.Duration == 0 {
		ds.Duration = defaultDuration
	}
	if req.Status != nil {
		ds.Status = *req.Status
	}

	if err := s.repo.Create(ctx, ds); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.Conflict("service is already assigned to this doctor at this clinic", err)
		}
		return nil, fmt.Errorf("failed to create doctor service: %w", err)
	}
	return ds, nil
}

func (s *Service) resolveCatalogue(ctx context.Context, req *model.DoctorServiceRequest) (*model.Service, error) {
	if req.ServiceID > 0 {
		svc, err := s.repo.GetService(ctx, req.ServiceID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, apperrors.BadRequest("service_id does not exist", err)
			}
			return nil, err
		}
		return svc, nil
	}

	name := strings.TrimSpace(req.ServiceName)
	if name == "" {
		return nil, apperrors.BadRequest("service_id or service_name is required", nil)
	}
	category := strings.TrimSpace(req.Category)
	if category == "" {
		category = "general"
	}
	return s.repo.GetOrCreateService(ctx, name, category)
}

func (s *Service) Get(ctx context.Context, actor *model.Actor, id int64) (*model.DoctorService, error) {
	ds, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, mapErr(err, "failed to get doctor service")
	}
	if !rbac.CanAccessClinic(actor, ds.ClinicID) {
		return nil, apperrors.Forbidden("doctor service belongs to another clinic")
	}
	if actor.Role == model.RoleDoctor && ds.DoctorID != actor.UserID {
		return nil, apperrors.Forbidden("doctor service belongs to another doctor")
	}
	return ds, nil
}

func (s *Service) Update(ctx context.Context, actor *model.Actor, id int64, req *model.UpdateDoctorServiceRequest) (*model.DoctorService, error) {
	ds, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if req.Charges != nil {
		ds.Charges = *req.Charges
	}
	if req.Duration != nil {
		ds.Duration = *req.Duration
	}
	if req.Status != nil {
		ds.Status = *req.Status
	}

	if err := s.repo.Update(ctx, ds); err != nil {
		return nil, mapErr(err, "failed to update doctor service")
	}
	return ds, nil
}

func (s *Service) Delete(ctx context.Context, actor *model.Actor, id int64) error {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapErr(err, "failed to delete doctor service")
	}
	return nil
}

func (s *Service) BulkDelete(ctx context.Context, actor *model.Actor, ids []int64) *model.BulkResult {
	result := model.NewBulkResult()
	for _, id := range ids {
		if err := s.Delete(ctx, actor, id); err != nil {
			result.Fail(id, apperrors.PublicMessage(err))
			continue
		}
		result.SuccessCount++
	}
	return result
}

func (s *Service) List(ctx context.Context, actor *model.Actor, filters *model.DoctorServiceFilters) (*model.Page[*model.DoctorService], error) {
	if err := scope(actor, filters); err != nil {
		return nil, err
	}
	items, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list doctor services: %w", err)
	}
	p := filters.Pagination.Normalize()
	return &model.Page[*model.DoctorService]{Items: items, Total: total, Page: p.Page, PageSize: p.PageSize}, nil
}

// Export returns every matching row; no match yields an empty list, not nil.
func (s *Service) Export(ctx context.Context, actor *model.Actor, filters *model.DoctorServiceFilters) (*model.ServiceExport, error) {
	if err := scope(actor, filters); err != nil {
		return nil, err
	}
	items, err := s.repo.Export(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to export doctor services: %w", err)
	}
	if items == nil {
		items = []*model.DoctorService{}
	}
	return &model.ServiceExport{Services: items}, nil
}

func scope(actor *model.Actor, filters *model.DoctorServiceFilters) error {
	filters.ClinicID = rbac.ResolveClinic(actor, filters.ClinicID)
	if actor.Role == model.RoleDoctor {
		doctorID, err := rbac.ResolveDoctor(actor, filters.DoctorID)
		if err != nil {
			return err
		}
		filters.DoctorID = doctorID
	}
	return nil
}

func mapErr(err error, msg string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound("doctor service", err)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
