package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/jwalitptl/clinicare-api/internal/model"
	"github.com/jwalitptl/clinicare-api/internal/repository"
	"github.com/jwalitptl/clinicare-api/internal/service/event"
	"github.com/jwalitptl/clinicare-api/internal/service/rbac"
	apperrors "github.com/jwalitptl/clinicare-api/pkg/errors"
)

type SessionServicer interface {
	Create(ctx context.Context, actor *model.Actor, req *model.SessionScheduleRequest) ([]*model.SessionGroup, error)
	List(ctx context.Context, actor *model.Actor, filters *model.SessionFilters) ([]*model.SessionGroup, error)
	Get(ctx context.Context, actor *model.Actor, id int64) (*model.SessionGroup, error)
	Update(ctx context.Context, actor *model.Actor, id int64, req *model.UpdateSessionRequest) (*model.SessionGroup, error)
	ReplaceAll(ctx context.Context, actor *model.Actor, doctorID, clinicID int64, req *model.SessionScheduleRequest) ([]*model.SessionGroup, error)
	Delete(ctx context.Context, actor *model.Actor, id int64) error
	DeleteAll(ctx context.Context, actor *model.Actor, doctorID, clinicID int64) (int64, error)
}

type Service struct {
	repo   repository.SessionRepository
	staff  repository.StaffRepository
	events event.Emitter
}

func NewService(repo repository.SessionRepository, staff repository.StaffRepository, events event.Emitter) *Service {
	return &Service{
		repo:   repo,
		staff:  staff,
		events: events,
	}
}

type sessionsChanged struct {
	DoctorID int64 `json:"doctor_id"`
	ClinicID int64 `json:"clinic_id"`
	Action   string `json:"action"`
}

// Create adds the enabled days of a weekly schedule. Every day is checked
// for overlap before anything is written, then all days are inserted in one
// transaction. The check and the inserts are separate statements.
func (s *Service) Create(ctx context.Context, actor *model.Actor, req *model.SessionScheduleRequest) ([]*model.SessionGroup, error) {
	doctorID, clinicID, err := s.resolveOwner(ctx, actor, req.DoctorID, req.ClinicID)
	if err != nil {
		return nil, err
	}

	days, err := buildWeek(doctorID, clinicID, req)
	if err != nil {
		return nil, err
	}

	for _, d := range days {
		existing, err := s.repo.FindForDay(ctx, doctorID, clinicID, d.day, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to load existing sessions: %w", err)
		}
		if err := CheckOverlap(d.day, d.main, existing); err != nil {
			return nil, err
		}
	}

	groups := make([][]*model.Session, 0, len(days))
	var rows []*model.Session
	for _, d := range days {
		groups = append(groups, d.rows)
		rows = append(rows, d.rows...)
	}
	if err := s.repo.CreateGroups(ctx, groups); err != nil {
		return nil, fmt.Errorf("failed to create sessions: %w", err)
	}

	s.events.Emit(ctx, model.EventSessionsChanged, sessionsChanged{DoctorID: doctorID, ClinicID: clinicID, Action: "created"})
	return Group(rows), nil
}

func (s *Service) List(ctx context.Context, actor *model.Actor, filters *model.SessionFilters) ([]*model.SessionGroup, error) {
	filters.ClinicID = rbac.ResolveClinic(actor, filters.ClinicID)
	doctorID, err := rbac.ResolveDoctor(actor, filters.DoctorID)
	if err != nil {
		return nil, err
	}
	filters.DoctorID = doctorID

	rows, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return Group(rows), nil
}

func (s *Service) Get(ctx context.Context, actor *model.Actor, id int64) (*model.SessionGroup, error) {
	rows, err := s.loadGroup(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return Group(rows)[0], nil
}

// Update rewrites one day schedule, checking overlap against every other group.
func (s *Service) Update(ctx context.Context, actor *model.Actor, id int64, req *model.UpdateSessionRequest) (*model.SessionGroup, error) {
	current, err := s.loadGroup(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	doctorID, clinicID := current[0].DoctorID, current[0].ClinicID
	if err := s.checkMapping(ctx, doctorID, clinicID); err != nil {
		return nil, err
	}

	if err := validateSlot(req.TimeSlot); err != nil {
		return nil, err
	}
	if err := validateDay(req.Day, req.MainSession, req.Breaks); err != nil {
		return nil, err
	}
	rows := SplitSession(doctorID, clinicID, req.Day, req.TimeSlot, req.MainSession, req.Breaks)
	if len(rows) == 0 {
		return nil, apperrors.BadRequest(fmt.Sprintf("%s: breaks cover the whole session", req.Day), nil)
	}

	existing, err := s.repo.FindForDay(ctx, doctorID, clinicID, req.Day, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load existing sessions: %w", err)
	}
	if err := CheckOverlap(req.Day, req.MainSession, existing); err != nil {
		return nil, err
	}

	if err := s.repo.ReplaceGroup(ctx, id, rows); err != nil {
		return nil, s.mapNotFound(err, "failed to update session")
	}

	s.events.Emit(ctx, model.EventSessionsChanged, sessionsChanged{DoctorID: doctorID, ClinicID: clinicID, Action: "updated"})
	return Group(rows)[0], nil
}

// ReplaceAll swaps the whole weekly schedule of a doctor at a clinic in one
// transaction. Rows being replaced are not checked for overlap.
func (s *Service) ReplaceAll(ctx context.Context, actor *model.Actor, doctorID, clinicID int64, req *model.SessionScheduleRequest) ([]*model.SessionGroup, error) {
	doctorID, clinicID, err := s.resolveOwner(ctx, actor, doctorID, clinicID)
	if err != nil {
		return nil, err
	}

	days, err := buildWeek(doctorID, clinicID, req)
	if err != nil {
		return nil, err
	}

	groups := make([][]*model.Session, 0, len(days))
	var rows []*model.Session
	for _, d := range days {
		groups = append(groups, d.rows)
		rows = append(rows, d.rows...)
	}
	if err := s.repo.ReplaceAll(ctx, doctorID, clinicID, groups); err != nil {
		return nil, fmt.Errorf("failed to replace sessions: %w", err)
	}

	s.events.Emit(ctx, model.EventSessionsChanged, sessionsChanged{DoctorID: doctorID, ClinicID: clinicID, Action: "replaced"})
	return Group(rows), nil
}

func (s *Service) Delete(ctx context.Context, actor *model.Actor, id int64) error {
	current, err := s.loadGroup(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteGroup(ctx, id); err != nil {
		return s.mapNotFound(err, "failed to delete session")
	}

	s.events.Emit(ctx, model.EventSessionsChanged, sessionsChanged{
		DoctorID: current[0].DoctorID, ClinicID: current[0].ClinicID, Action: "deleted",
	})
	return nil
}

func (s *Service) DeleteAll(ctx context.Context, actor *model.Actor, doctorID, clinicID int64) (int64, error) {
	doctorID, clinicID, err := s.resolveOwner(ctx, actor, doctorID, clinicID)
	if err != nil {
		return 0, err
	}
	n, err := s.repo.DeleteAll(ctx, doctorID, clinicID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete sessions: %w", err)
	}

	s.events.Emit(ctx, model.EventSessionsChanged, sessionsChanged{DoctorID: doctorID, ClinicID: clinicID, Action: "cleared"})
	return n, nil
}

func (s *Service) loadGroup(ctx context.Context, actor *model.Actor, id int64) ([]*model.Session, error) {
	rows, err := s.repo.GetGroup(ctx, id)
	if err != nil {
		return nil, s.mapNotFound(err, "failed to get session")
	}
	owner := rows[0]
	if !rbac.CanAccessClinic(actor, owner.ClinicID) {
		return nil, apperrors.Forbidden("session belongs to another clinic")
	}
	if _, err := rbac.ResolveDoctor(actor, owner.DoctorID); err != nil {
		return nil, err
	}
	return rows, nil
}

// resolveOwner scopes doctor and clinic to the actor and checks the mapping.
func (s *Service) resolveOwner(ctx context.Context, actor *model.Actor, doctorID, clinicID int64) (int64, int64, error) {
	clinicID = rbac.ResolveClinic(actor, clinicID)
	doctorID, err := rbac.ResolveDoctor(actor, doctorID)
	if err != nil {
		return 0, 0, err
	}
	if doctorID <= 0 || clinicID <= 0 {
		return 0, 0, apperrors.BadRequest("doctor_id and clinic_id are required", nil)
	}

	if err := s.checkMapping(ctx, doctorID, clinicID); err != nil {
		return 0, 0, err
	}
	return doctorID, clinicID, nil
}

func (s *Service) checkMapping(ctx context.Context, doctorID, clinicID int64) error {
	ok, err := s.staff.IsDoctorInClinic(ctx, doctorID, clinicID)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.BadRequest(fmt.Sprintf("doctor %d is not assigned to clinic %d", doctorID, clinicID), nil)
	}
	return nil
}

func (s *Service) mapNotFound(err error, msg string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound("session", err)
	}
	return fmt.Errorf("%s: %w", msg, err)
}

type plannedDay struct {
	day  model.Weekday
	main model.Interval
	rows []*model.Session
}

// buildWeek validates the seven day entries and splits the enabled ones.
func buildWeek(doctorID, clinicID int64, req *model.SessionScheduleRequest) ([]plannedDay, error) {
	if err := validateSlot(req.TimeSlot); err != nil {
		return nil, err
	}

	seen := map[model.Weekday]bool{}
	var days []plannedDay
	for _, d := range req.Days {
		if !d.Day.Valid() {
			return nil, apperrors.BadRequest(fmt.Sprintf("invalid day %q", d.Day), nil)
		}
		if seen[d.Day] {
			return nil, apperrors.BadRequest(fmt.Sprintf("day %s listed twice", d.Day), nil)
		}
		seen[d.Day] = true

		if !d.Enabled {
			continue
		}
		if err := validateDay(d.Day, d.MainSession, d.Breaks); err != nil {
			return nil, err
		}
		rows := SplitSession(doctorID, clinicID, d.Day, req.TimeSlot, d.MainSession, d.Breaks)
		if len(rows) == 0 {
			return nil, apperrors.BadRequest(fmt.Sprintf("%s: breaks cover the whole session", d.Day), nil)
		}
		days = append(days, plannedDay{day: d.Day, main: d.MainSession, rows: rows})
	}
	return days, nil
}

func validateSlot(slot int) error {
	if slot < 5 || slot > 120 || slot%5 != 0 {
		return apperrors.BadRequest("time_slot must be a multiple of 5 between 5 and 120", nil)
	}
	return nil
}
