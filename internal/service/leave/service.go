package leave

import (
	"context"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/jwalitptl/clinicare-api/internal/model"
	"github.com/jwalitptl/clinicare-api/internal/repository"
	"github.com/jwalitptl/clinicare-api/internal/service/event"
	"github.com/jwalitptl/clinicare-api/internal/service/rbac"
	"github.com/jwalitptl/clinicare-api/internal/service/schedule"
	apperrors "github.com/jwalitptl/clinicare-api/pkg/errors"
)

type LeaveServicer interface {
	Create(ctx context.Context, actor *model.Actor, req *model.LeaveRequest) (*model.Leave, error)
	Get(ctx context.Context, actor *model.Actor, id int64) (*model.Leave, error)
	List(ctx context.Context, actor *model.Actor, filters *model.LeaveFilters) (*model.Page[*model.Leave], error)
	Update(ctx context.Context, actor *model.Actor, id int64, req *model.LeaveRequest) (*model.Leave, error)
	Delete(ctx context.Context, actor *model.Actor, id int64) error
	BulkDelete(ctx context.Context, actor *model.Actor, ids []int64) *model.BulkResult
}

type Service struct {
	repo   repository.LeaveRepository
	staff  repository.StaffRepository
	events event.Emitter
}

func NewService(repo repository.LeaveRepository, staff repository.StaffRepository, events event.Emitter) *Service {
	return &Service{
		repo:   repo,
		staff:  staff,
		events: events,
	}
}

func (s *Service) Create(ctx context.Context, actor *model.Actor, req *model.LeaveRequest) (*model.Leave, error) {
	leave, err := buildLeave(req)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, actor, leave); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, leave); err != nil {
		return nil, fmt.Errorf("failed to create leave: %w", err)
	}

	s.events.Emit(ctx, model.EventLeaveCreated, leave)
	return leave, nil
}

func (s *Service) Get(ctx context.Context, actor *model.Actor, id int64) (*model.Leave, error) {
	leave, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, mapErr(err, "failed to get leave")
	}
	if err := s.authorize(ctx, actor, leave); err != nil {
		return nil, err
	}
	return leave, nil
}

func (s *Service) List(ctx context.Context, actor *model.Actor, filters *model.LeaveFilters) (*model.Page[*model.Leave], error) {
	if actor.Is(model.RoleClinicAdmin, model.RoleReceptionist) {
		filters.ClinicID = actor.ClinicID
	}
	if actor.Role == model.RoleDoctor {
		filters.ModuleType = model.LeaveModuleDoctor
		filters.ModuleID = actor.UserID
	}

	leaves, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list leaves: %w", err)
	}
	p := filters.Pagination.Normalize()
	return &model.Page[*model.Leave]{Items: leaves, Total: total, Page: p.Page, PageSize: p.PageSize}, nil
}

func (s *Service) Update(ctx context.Context, actor *model.Actor, id int64, req *model.LeaveRequest) (*model.Leave, error) {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return nil, err
	}

	leave, err := buildLeave(req)
	if err != nil {
		return nil, err
	}
	leave.ID = id
	if err := s.authorize(ctx, actor, leave); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, leave); err != nil {
		return nil, mapErr(err, "failed to update leave")
	}
	return leave, nil
}

func (s *Service) Delete(ctx context.Context, actor *model.Actor, id int64) error {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapErr(err, "failed to delete leave")
	}
	return nil
}

// BulkDelete deletes each id on its own; failures are reported, never returned.
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

// authorize checks the actor may manage leaves of the leave's owner.
func (s *Service) authorize(ctx context.Context, actor *model.Actor, leave *model.Leave) error {
	switch leave.ModuleType {
	case model.LeaveModuleClinic:
		if actor.Role == model.RoleDoctor {
			return apperrors.Forbidden("doctors cannot manage clinic holidays")
		}
		if !rbac.CanAccessClinic(actor, leave.ModuleID) {
			return apperrors.Forbidden("leave belongs to another clinic")
		}
	case model.LeaveModuleDoctor:
		if _, err := rbac.ResolveDoctor(actor, leave.ModuleID); err != nil {
			return err
		}
		if actor.Is(model.RoleClinicAdmin, model.RoleReceptionist) {
			ok, err := s.staff.IsDoctorInClinic(ctx, leave.ModuleID, actor.ClinicID)
			if err != nil {
				return err
			}
			if !ok {
				return apperrors.Forbidden("doctor does not work at your clinic")
			}
		}
	}
	return nil
}

// buildLeave validates the mode specific fields of a request.
func buildLeave(req *model.LeaveRequest) (*model.Leave, error) {
	leave := &model.Leave{
		ModuleType:    req.ModuleType,
		ModuleID:      req.ModuleID,
		SelectionMode: req.SelectionMode,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		SelectedDates: pq.StringArray{},
		TimeSpecific:  req.TimeSpecific,
		Description:   req.Description,
		Status:        model.StatusActive,
	}
	if req.Status != nil {
		leave.Status = *req.Status
	}

	switch req.SelectionMode {
	case model.SelectionSingle:
		if req.StartDate.IsZero() {
			return nil, apperrors.BadRequest("start_date is required", nil)
		}
	case model.SelectionRange:
		if req.StartDate.IsZero() || req.EndDate.IsZero() {
			return nil, apperrors.BadRequest("start_date and end_date are required for a range", nil)
		}
	case model.SelectionMultiple:
		if len(req.SelectedDates) == 0 {
			return nil, apperrors.BadRequest("selected_dates must not be empty", nil)
		}
		for _, raw := range req.SelectedDates {
			d, err := model.ParseDate(raw)
			if err != nil {
				return nil, apperrors.BadRequest(err.Error(), err)
			}
			leave.SelectedDates = append(leave.SelectedDates, d.String())
		}
		leave.StartDate = model.Date{}
		leave.EndDate = model.Date{}
	default:
		return nil, apperrors.BadRequest(fmt.Sprintf("unknown selection_mode %q", req.SelectionMode), nil)
	}

	if !leave.EndDate.IsZero() {
		if leave.EndDate.Before(leave.StartDate.Time) {
			return nil, apperrors.BadRequest("end_date must not be before start_date", nil)
		}
		if days := schedule.SpanDays(leave.StartDate, leave.EndDate); days > schedule.MaxRangeDays {
			return nil, apperrors.BadRequest(
				fmt.Sprintf("leave spans %d days, limit is %d", days, schedule.MaxRangeDays), nil)
		}
	}

	if req.TimeSpecific {
		if req.StartTime == nil || req.EndTime == nil {
			return nil, apperrors.BadRequest("start_time and end_time are required for a time specific leave", nil)
		}
		if *req.StartTime >= *req.EndTime {
			return nil, apperrors.BadRequest("start_time must be before end_time", nil)
		}
		leave.StartTime = req.StartTime
		leave.EndTime = req.EndTime
	}
	return leave, nil
}

func mapErr(err error, msg string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound("leave", err)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
