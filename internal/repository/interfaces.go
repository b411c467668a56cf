package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinicare-api/internal/model"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// All repository interfaces in one file
type (
	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		Get(ctx context.Context, id int64) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
		Update(ctx context.Context, user *model.User) error
		UpdatePassword(ctx context.Context, id int64, hash string) error
		// ClinicOf resolves the clinic a clinic admin or receptionist is bound to.
		ClinicOf(ctx context.Context, user *model.User) (int64, error)
		AssignPatientClinic(ctx context.Context, patientID, clinicID int64) error
	}

	StaffRepository interface {
		// Create inserts the user and its clinic mapping atomically.
		Create(ctx context.Context, user *model.User, clinicID int64) error
		Get(ctx context.Context, role model.Role, id int64) (*model.Staff, error)
		List(ctx context.Context, filters *model.StaffFilters) ([]*model.Staff, int, error)
		Update(ctx context.Context, staff *model.Staff) error
		UpdateStatus(ctx context.Context, role model.Role, id int64, status string) error
		// Delete removes the user with its mappings (and sessions/leaves for doctors).
		Delete(ctx context.Context, role model.Role, id int64) error
		IsDoctorInClinic(ctx context.Context, doctorID, clinicID int64) (bool, error)
	}

	ClinicRepository interface {
		Create(ctx context.Context, clinic *model.Clinic) error
		Get(ctx context.Context, id int64) (*model.Clinic, error)
		Update(ctx context.Context, clinic *model.Clinic) error
		// Delete cascades to mappings, services, sessions and leaves in one transaction.
		Delete(ctx context.Context, id int64) error
		List(ctx context.Context, filters *model.ClinicFilters) ([]*model.Clinic, int, error)
		Export(ctx context.Context, filters *model.ClinicFilters) ([]*model.Clinic, error)
		UpdateStatus(ctx context.Context, ids []int64, status int) ([]int64, error)
	}

	DoctorServiceRepository interface {
		GetOrCreateService(ctx context.Context, name, category string) (*model.Service, error)
		GetService(ctx context.Context, id int64) (*model.Service, error)
		Create(ctx context.Context, ds *model.DoctorService) error
		Get(ctx context.Context, id int64) (*model.DoctorService, error)
		Update(ctx context.Context, ds *model.DoctorService) error
		Delete(ctx context.Context, id int64) error
		List(ctx context.Context, filters *model.DoctorServiceFilters) ([]*model.DoctorService, int, error)
		Export(ctx context.Context, filters *model.DoctorServiceFilters) ([]*model.DoctorService, error)
	}

	SessionRepository interface {
		// CreateGroups inserts one group per day schedule in a single
		// transaction; the first row of each group becomes its parent.
		CreateGroups(ctx context.Context, groups [][]*model.Session) error
		// ReplaceGroup swaps the rows of an existing group atomically.
		ReplaceGroup(ctx context.Context, groupID int64, rows []*model.Session) error
		// ReplaceAll swaps every session of a doctor at a clinic atomically.
		ReplaceAll(ctx context.Context, doctorID, clinicID int64, groups [][]*model.Session) error
		GetGroup(ctx context.Context, groupID int64) ([]*model.Session, error)
		DeleteGroup(ctx context.Context, groupID int64) error
		DeleteAll(ctx context.Context, doctorID, clinicID int64) (int64, error)
		List(ctx context.Context, filters *model.SessionFilters) ([]*model.Session, error)
		// FindForDay returns rows of positive duration, skipping the excluded group.
		FindForDay(ctx context.Context, doctorID, clinicID int64, day model.Weekday, excludeGroup int64) ([]*model.Session, error)
	}

	LeaveRepository interface {
		Create(ctx context.Context, leave *model.Leave) error
		Get(ctx context.Context, id int64) (*model.Leave, error)
		Update(ctx context.Context, leave *model.Leave) error
		Delete(ctx context.Context, id int64) error
		List(ctx context.Context, filters *model.LeaveFilters) ([]*model.Leave, int, error)
		// FindActive returns status=1 leaves of the doctor or of the clinic.
		FindActive(ctx context.Context, doctorID, clinicID int64) ([]*model.Leave, error)
	}

	AppointmentRepository interface {
		Create(ctx context.Context, apt *model.Appointment) error
		Get(ctx context.Context, id int64) (*model.Appointment, error)
		UpdateStatus(ctx context.Context, id int64, status model.AppointmentStatus) error
		Delete(ctx context.Context, id int64) error
		List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, int, error)
		// CountByDate counts non-cancelled appointments on or after from.
		CountByDate(ctx context.Context, doctorID, clinicID int64, from time.Time) ([]model.DateCount, error)
		FindForDate(ctx context.Context, doctorID int64, date model.Date) ([]*model.Appointment, error)
	}

	EncounterRepository interface {
		Create(ctx context.Context, enc *model.Encounter) error
		Get(ctx context.Context, id int64) (*model.Encounter, error)
		Update(ctx context.Context, enc *model.Encounter) error
		Delete(ctx context.Context, id int64) error
		List(ctx context.Context, filters *model.EncounterFilters) ([]*model.Encounter, int, error)
		Export(ctx context.Context, filters *model.EncounterFilters) ([]*model.Encounter, error)
	}

	OptionRepository interface {
		Get(ctx context.Context, key string) (*model.Option, error)
		List(ctx context.Context) ([]*model.Option, error)
		Upsert(ctx context.Context, opt *model.Option) error
		Delete(ctx context.Context, key string) error
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		// ProcessPending locks up to limit due events and hands them to fn inside
		// one transaction; fn returns the new status of each event.
		ProcessPending(ctx context.Context, limit int, fn func(*model.OutboxEvent) OutboxResult) (int, error)
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}

	TokenRepository interface {
		RevokeToken(ctx context.Context, jti string, ttl time.Duration) error
		IsRevoked(ctx context.Context, jti string) (bool, error)
		StoreResetToken(ctx context.Context, token uuid.UUID, userID int64, ttl time.Duration) error
		// ConsumeResetToken returns the user id and deletes the token.
		ConsumeResetToken(ctx context.Context, token string) (int64, error)
	}
)

// OutboxResult is the outcome of publishing one event.
type OutboxResult struct {
	Status  model.OutboxStatus
	Err     error
	RetryAt *time.Time
}
