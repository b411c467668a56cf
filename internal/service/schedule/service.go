package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/clinicare-api/internal/model"
	"github.com/jwalitptl/clinicare-api/internal/repository"
	"github.com/jwalitptl/clinicare-api/internal/service/rbac"
	apperrors "github.com/jwalitptl/clinicare-api/pkg/errors"
)

type ScheduleServicer interface {
	Unavailability(ctx context.Context, actor *model.Actor, doctorID, clinicID int64) (*model.Unavailability, error)
	Compute(ctx context.Context, doctorID, clinicID int64) (*model.Unavailability, error)
	BlockedWindows(ctx context.Context, doctorID, clinicID int64, date model.Date) ([]model.Interval, error)
}

type Service struct {
	sessions     repository.SessionRepository
	leaves       repository.LeaveRepository
	appointments repository.AppointmentRepository
	now          func() time.Time
}

func NewService(
	sessions repository.SessionRepository,
	leaves repository.LeaveRepository,
	appointments repository.AppointmentRepository,
) *Service {
	return &Service{
		sessions:     sessions,
		leaves:       leaves,
		appointments: appointments,
		now:          time.Now,
	}
}

// Unavailability answers the availability query for the calling actor.
// Clinic admins and receptionists always get their own clinic.
func (s *Service) Unavailability(ctx context.Context, actor *model.Actor, doctorID, clinicID int64) (*model.Unavailability, error) {
	clinicID = rbac.ResolveClinic(actor, clinicID)
	doctorID, err := rbac.ResolveDoctor(actor, doctorID)
	if err != nil {
		return nil, err
	}
	if doctorID <= 0 || clinicID <= 0 {
		return nil, apperrors.BadRequest("doctor_id and clinic_id are required", nil)
	}
	return s.Compute(ctx, doctorID, clinicID)
}

// Compute merges off days, leaves and fully booked days of a doctor at a clinic.
func (s *Service) Compute(ctx context.Context, doctorID, clinicID int64) (*model.Unavailability, error) {
	sessions, err := s.sessions.List(ctx, &model.SessionFilters{DoctorID: doctorID, ClinicID: clinicID})
	if err != nil {
		return nil, fmt.Errorf("failed to load sessions: %w", err)
	}

	leaves, err := s.leaves.FindActive(ctx, doctorID, clinicID)
	if err != nil {
		return nil, fmt.Errorf("failed to load leaves: %w", err)
	}
	doctorDates, clinicDates := s.partitionLeaves(leaves)

	today := model.DateOf(s.now())
	counts, err := s.appointments.CountByDate(ctx, doctorID, clinicID, today.Time)
	if err != nil {
		return nil, fmt.Errorf("failed to count appointments: %w", err)
	}
	perDate := make(map[string]int, len(counts))
	for _, c := range counts {
		perDate[c.Date.String()] += c.Count
	}
	booked := FullyBookedDates(DailyCapacity(sessions), perDate)

	return &model.Unavailability{
		OffDays:        OffDays(sessions),
		Holidays:       MergeDates(doctorDates, clinicDates, booked),
		ClinicHolidays: MergeDates(clinicDates),
		DoctorHolidays: MergeDates(doctorDates),
	}, nil
}

// partitionLeaves expands whole-day leaves. Malformed rows are logged and skipped.
func (s *Service) partitionLeaves(leaves []*model.Leave) (doctor, clinic []string) {
	for _, leave := range leaves {
		if leave.TimeSpecific {
			continue
		}
		dates, err := ExpandLeave(leave)
		if err != nil {
			log.Warn().Err(err).Int64("leave_id", leave.ID).Msg("Skipping malformed leave")
			continue
		}
		switch leave.ModuleType {
		case model.LeaveModuleDoctor:
			doctor = append(doctor, dates...)
		case model.LeaveModuleClinic:
			clinic = append(clinic, dates...)
		}
	}
	return doctor, clinic
}

// BlockedWindows loads the time-specific leaves touching date.
func (s *Service) BlockedWindows(ctx context.Context, doctorID, clinicID int64, date model.Date) ([]model.Interval, error) {
	leaves, err := s.leaves.FindActive(ctx, doctorID, clinicID)
	if err != nil {
		return nil, fmt.Errorf("failed to load leaves: %w", err)
	}
	return BlockedWindows(leaves, date), nil
}
