package staff

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/clinicare-api/internal/email"
	"github.com/jwalitptl/clinicare-api/internal/model"
	"github.com/jwalitptl/clinicare-api/internal/repository"
	"github.com/jwalitptl/clinicare-api/internal/service/event"
	"github.com/jwalitptl/clinicare-api/internal/service/rbac"
	apperrors "github.com/jwalitptl/clinicare-api/pkg/errors"
	"github.com/jwalitptl/clinicare-api/pkg/security"
)

const generatedPasswordLen = 12

type StaffServicer interface {
	Create(ctx context.Context, actor *model.Actor, role model.Role, req *model.StaffRequest) (*model.Staff, error)
	Get(ctx context.Context, actor *model.Actor, role model.Role, id int64) (*model.Staff, error)
	List(ctx context.Context, actor *model.Actor, filters *model.StaffFilters) (*model.Page[*model.Staff], error)
	Export(ctx context.Context, actor *model.Actor, filters *model.StaffFilters) (*model.StaffExport, error)
	Update(ctx context.Context, actor *model.Actor, role model.Role, id int64, req *model.UpdateStaffRequest) (*model.Staff, error)
	UpdateStatus(ctx context.Context, actor *model.Actor, role model.Role, id int64, status string) (*model.Staff, error)
	Delete(ctx context.Context, actor *model.Actor, role model.Role, id int64) error
	BulkDelete(ctx context.Context, actor *model.Actor, role model.Role, ids []int64) *model.BulkResult
	ResendCredentials(ctx context.Context, actor *model.Actor, role model.Role, id int64) error
}

type Service struct {
	repo   repository.StaffRepository
	users  repository.UserRepository
	hasher security.PasswordHasher
	mailer email.Service
	events event.Emitter
}

func NewService(
	repo repository.StaffRepository,
	users repository.UserRepository,
	hasher security.PasswordHasher,
	mailer email.Service,
	events event.Emitter,
) *Service {
	return &Service{
		repo:   repo,
		users:  users,
		hasher: hasher,
		mailer: mailer,
		events: events,
	}
}

type staffCreated struct {
	UserID   int64      `json:"user_id"`
	Role     model.Role `json:"role"`
	ClinicID int64      `json:"clinic_id"`
}

// Create registers a doctor or receptionist with a generated password and
// mails the credentials. A mail failure does not undo the account.
func (s *Service) Create(ctx context.Context, actor *model.Actor, role model.Role, req *model.StaffRequest) (*model.Staff, error) {
	if err := canManage(actor); err != nil {
		return nil, err
	}
	clinicID := rbac.ResolveClinic(actor, req.ClinicID)
	if clinicID <= 0 {
		return nil, apperrors.BadRequest("clinic_id is required", nil)
	}

	password, err := security.GeneratePassword(generatedPasswordLen)
	if err != nil {
		return nil, fmt.Errorf("failed to generate password: %w", err)
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Phone:        req.Phone,
		Role:         role,
		Status:       req.Status,
	}
	if user.Status == "" {
		user.Status = model.UserStatusActive
	}

	if err := s.repo.Create(ctx, user, clinicID); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.Conflict("email is already registered", err)
		}
		return nil, fmt.Errorf("failed to create %s: %w", role, err)
	}

	if err := s.mailer.SendCredentials(ctx, user.Email, user.FullName(), password); err != nil {
		log.Ctx(ctx).Warn().Err(err).Int64("user_id", user.ID).Msg("credentials email not delivered")
	}
	s.events.Emit(ctx, model.EventStaffCreated, staffCreated{UserID: user.ID, Role: role, ClinicID: clinicID})

	return &model.Staff{User: *user, ClinicID: clinicID}, nil
}

func (s *Service) Get(ctx context.Context, actor *model.Actor, role model.Role, id int64) (*model.Staff, error) {
	staff, err := s.repo.Get(ctx, role, id)
	if err != nil {
		return nil, mapErr(err, role)
	}
	if err := s.authorize(ctx, actor, staff); err != nil {
		return nil, err
	}
	return staff, nil
}

func (s *Service) List(ctx context.Context, actor *model.Actor, filters *model.StaffFilters) (*model.Page[*model.Staff], error) {
	filters.ClinicID = rbac.ResolveClinic(actor, filters.ClinicID)
	items, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", filters.Role, err)
	}
	p := filters.Pagination.Normalize()
	return &model.Page[*model.Staff]{Items: items, Total: total, Page: p.Page, PageSize: p.PageSize}, nil
}

// Export pages through every match at the largest page size.
func (s *Service) Export(ctx context.Context, actor *model.Actor, filters *model.StaffFilters) (*model.StaffExport, error) {
	filters.ClinicID = rbac.ResolveClinic(actor, filters.ClinicID)
	filters.PageSize = model.MaxPageSize

	out := &model.StaffExport{Staff: []*model.Staff{}}
	for page := 1; ; page++ {
		filters.Page = page
		items, total, err := s.repo.List(ctx, filters)
		if err != nil {
			return nil, fmt.Errorf("failed to export %s: %w", filters.Role, err)
		}
		out.Staff = append(out.Staff, items...)
		if len(items) == 0 || len(out.Staff) >= total {
			return out, nil
		}
	}
}

func (s *Service) Update(ctx context.Context, actor *model.Actor, role model.Role, id int64, req *model.UpdateStaffRequest) (*model.Staff, error) {
	if err := canManage(actor); err != nil {
		return nil, err
	}
	staff, err := s.Get(ctx, actor, role, id)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		staff.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		staff.LastName = *req.LastName
	}
	if req.Phone != nil {
		staff.Phone = *req.Phone
	}
	if req.Status != nil {
		staff.Status = *req.Status
	}
	staff.ClinicID = 0
	if req.ClinicID != nil {
		if actor.Role != model.RoleAdministrator && *req.ClinicID != actor.ClinicID {
			return nil, apperrors.Forbidden("cannot move staff to another clinic")
		}
		staff.ClinicID = *req.ClinicID
	}

	if err := s.repo.Update(ctx, staff); err != nil {
		return nil, mapErr(err, role)
	}
	return s.repo.Get(ctx, role, id)
}

// UpdateStatus sets the account status; an empty status flips it.
func (s *Service) UpdateStatus(ctx context.Context, actor *model.Actor, role model.Role, id int64, status string) (*model.Staff, error) {
	if err := canManage(actor); err != nil {
		return nil, err
	}
	staff, err := s.Get(ctx, actor, role, id)
	if err != nil {
		return nil, err
	}

	if status == "" {
		status = model.UserStatusInactive
		if staff.Status != model.UserStatusActive {
			status = model.UserStatusActive
		}
	}
	if err := s.repo.UpdateStatus(ctx, role, id, status); err != nil {
		return nil, mapErr(err, role)
	}
	staff.Status = status
	return staff, nil
}

func (s *Service) Delete(ctx context.Context, actor *model.Actor, role model.Role, id int64) error {
	if err := canManage(actor); err != nil {
		return err
	}
	if _, err := s.Get(ctx, actor, role, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, role, id); err != nil {
		return mapErr(err, role)
	}
	return nil
}

func (s *Service) BulkDelete(ctx context.Context, actor *model.Actor, role model.Role, ids []int64) *model.BulkResult {
	result := model.NewBulkResult()
	for _, id := range ids {
		if err := s.Delete(ctx, actor, role, id); err != nil {
			result.Fail(id, apperrors.PublicMessage(err))
			continue
		}
		result.SuccessCount++
	}
	return result
}

// ResendCredentials issues a fresh password and mails it.
func (s *Service) ResendCredentials(ctx context.Context, actor *model.Actor, role model.Role, id int64) error {
	if err := canManage(actor); err != nil {
		return err
	}
	staff, err := s.Get(ctx, actor, role, id)
	if err != nil {
		return err
	}

	password, err := security.GeneratePassword(generatedPasswordLen)
	if err != nil {
		return fmt.Errorf("failed to generate password: %w", err)
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, id, hash); err != nil {
		return mapErr(err, role)
	}
	return s.mailer.SendCredentials(ctx, staff.Email, staff.FullName(), password)
}

func canManage(actor *model.Actor) error {
	if !actor.Is(model.RoleAdministrator, model.RoleClinicAdmin) {
		return apperrors.Forbidden("")
	}
	return nil
}

// authorize keeps clinic-bound actors inside their clinic. Doctors may work
// at several clinics, so their mapping is checked directly.
func (s *Service) authorize(ctx context.Context, actor *model.Actor, staff *model.Staff) error {
	if !actor.Is(model.RoleClinicAdmin, model.RoleReceptionist) {
		return nil
	}
	if staff.Role == model.RoleDoctor {
		ok, err := s.repo.IsDoctorInClinic(ctx, staff.ID, actor.ClinicID)
		if err != nil {
			return err
		}
		if ok {
			staff.ClinicID = actor.ClinicID
			return nil
		}
	} else if staff.ClinicID == actor.ClinicID {
		return nil
	}
	return apperrors.Forbidden(fmt.Sprintf("%s belongs to another clinic", staff.Role))
}

func mapErr(err error, role model.Role) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound(string(role), err)
	}
	return fmt.Errorf("%s operation failed: %w", role, err)
}
