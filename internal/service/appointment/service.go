package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jwalitptl/clinicare-api/internal/model"
	"github.com/jwalitptl/clinicare-api/internal/repository"
	"github.com/jwalitptl/clinicare-api/internal/service/event"
	"github.com/jwalitptl/clinicare-api/internal/service/rbac"
	"github.com/jwalitptl/clinicare-api/internal/service/schedule"
	apperrors "github.com/jwalitptl/clinicare-api/pkg/errors"
)

var (
	ErrDateUnavailable = errors.New("doctor is unavailable on this date")
	ErrSlotTaken       = errors.New("slot is already booked")
)

// RestrictionSource supplies the booking window.
type RestrictionSource interface {
	Restriction(ctx context.Context) model.AppointmentRestriction
}

type AppointmentServicer interface {
	Book(ctx context.Context, actor *model.Actor, req *model.CreateAppointmentRequest) (*model.Appointment, error)
	Get(ctx context.Context, actor *model.Actor, id int64) (*model.Appointment, error)
	List(ctx context.Context, actor *model.Actor, filters *model.AppointmentFilters) (*model.Page[*model.Appointment], error)
	UpdateStatus(ctx context.Context, actor *model.Actor, id int64, status model.AppointmentStatus) (*model.Appointment, error)
	Delete(ctx context.Context, actor *model.Actor, id int64) error
}

type Service struct {
	repo     repository.AppointmentRepository
	sessions repository.SessionRepository
	staff    repository.StaffRepository
	users    repository.UserRepository
	schedule schedule.ScheduleServicer
	options  RestrictionSource
	events   event.Emitter
	now      func() time.Time
}

func NewService(
	repo repository.AppointmentRepository,
	sessions repository.SessionRepository,
	staff repository.StaffRepository,
	users repository.UserRepository,
	scheduleSvc schedule.ScheduleServicer,
	options RestrictionSource,
	events event.Emitter,
) *Service {
	return &Service{
		repo:     repo,
		sessions: sessions,
		staff:    staff,
		users:    users,
		schedule: scheduleSvc,
		options:  options,
		events:   events,
		now:      time.Now,
	}
}

// Book validates the requested slot against the doctor's calendar and
// stores the appointment. The end time is derived from the session slot.
func (s *Service) Book(ctx context.Context, actor *model.Actor, req *model.CreateAppointmentRequest) (*model.Appointment, error) {
	apt, err := s.resolveParties(ctx, actor, req)
	if err != nil {
		return nil, err
	}

	date, err := model.ParseDate(req.AppointmentDate)
	if err != nil {
		return nil, apperrors.BadRequest(err.Error(), err)
	}
	if err := s.checkWindow(ctx, date); err != nil {
		return nil, err
	}
	apt.AppointmentDate = date

	unavailable, err := s.schedule.Compute(ctx, apt.DoctorID, apt.ClinicID)
	if err != nil {
		return nil, err
	}
	for _, d := range unavailable.Holidays {
		if d == date.String() {
			return nil, apperrors.BadRequest(fmt.Sprintf("doctor is unavailable on %s", d), ErrDateUnavailable)
		}
	}

	slot, err := s.findSlot(ctx, apt.DoctorID, apt.ClinicID, date, req.StartTime)
	if err != nil {
		return nil, err
	}
	apt.StartTime, apt.EndTime = slot.Start, slot.End

	blocked, err := s.schedule.BlockedWindows(ctx, apt.DoctorID, apt.ClinicID, date)
	if err != nil {
		return nil, err
	}
	for _, w := range blocked {
		if w.Overlaps(slot) {
			return nil, apperrors.BadRequest(fmt.Sprintf("doctor is on leave %s-%s", w.Start, w.End), ErrDateUnavailable)
		}
	}

	booked, err := s.repo.FindForDate(ctx, apt.DoctorID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to load booked appointments: %w", err)
	}
	for _, b := range booked {
		if b.Window().Overlaps(slot) {
			return nil, apperrors.Conflict(fmt.Sprintf("%s %s is already booked", date, slot.Start), ErrSlotTaken)
		}
	}

	apt.VisitType = req.VisitType
	apt.Description = req.Description
	apt.Status = model.AppointmentStatusBooked
	if err := s.repo.Create(ctx, apt); err != nil {
		return nil, fmt.Errorf("failed to book appointment: %w", err)
	}

	s.events.Emit(ctx, model.EventAppointmentBooked, eventOf(apt))
	return apt, nil
}

// resolveParties fills clinic, doctor and patient according to the actor.
func (s *Service) resolveParties(ctx context.Context, actor *model.Actor, req *model.CreateAppointmentRequest) (*model.Appointment, error) {
	clinicID := rbac.ResolveClinic(actor, req.ClinicID)
	doctorID, err := rbac.ResolveDoctor(actor, req.DoctorID)
	if err != nil {
		return nil, err
	}
	patientID := req.PatientID
	if actor.Role == model.RolePatient {
		patientID = actor.UserID
	}
	if clinicID <= 0 || doctorID <= 0 || patientID <= 0 {
		return nil, apperrors.BadRequest("clinic_id, doctor_id and patient_id are required", nil)
	}

	ok, err := s.staff.IsDoctorInClinic(ctx, doctorID, clinicID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.BadRequest(fmt.Sprintf("doctor %d is not assigned to clinic %d", doctorID, clinicID), nil)
	}

	patient, err := s.users.Get(ctx, patientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("patient", err)
		}
		return nil, err
	}
	if patient.Role != model.RolePatient {
		return nil, apperrors.BadRequest("patient_id does not reference a patient", nil)
	}

	return &model.Appointment{ClinicID: clinicID, DoctorID: doctorID, PatientID: patientID}, nil
}

// checkWindow enforces the appointment_restrict booking window.
func (s *Service) checkWindow(ctx context.Context, date model.Date) error {
	today := model.DateOf(s.now())
	r := s.options.Restriction(ctx)

	earliest := today.AddDate(0, 0, r.BookBeforeDays)
	latest := today.AddDate(0, 0, r.BookAfterDays)
	if date.Before(earliest) {
		return apperrors.BadRequest(fmt.Sprintf("appointments can be booked from %s", earliest.Format(model.DateLayout)), nil)
	}
	if date.After(latest) {
		return apperrors.BadRequest(fmt.Sprintf("appointments can be booked until %s", latest.Format(model.DateLayout)), nil)
	}
	return nil
}

// findSlot returns the slot starting at start inside one session row of
// the date's weekday, aligned to the row's time slot.
func (s *Service) findSlot(ctx context.Context, doctorID, clinicID int64, date model.Date, start model.ClockTime) (model.Interval, error) {
	rows, err := s.sessions.FindForDay(ctx, doctorID, clinicID, date.Weekday(), 0)
	if err != nil {
		return model.Interval{}, fmt.Errorf("failed to load sessions: %w", err)
	}
	for _, row := range rows {
		if row.TimeSlot <= 0 {
			continue
		}
		slot := model.Interval{Start: start, End: start + model.ClockTime(row.TimeSlot)}
		window := model.Interval{Start: row.StartTime, End: row.EndTime}
		if !window.Contains(slot) {
			continue
		}
		if (start-row.StartTime).Minutes()%row.TimeSlot != 0 {
			return model.Interval{}, apperrors.BadRequest(
				fmt.Sprintf("start_time must align to %d minute slots from %s", row.TimeSlot, row.StartTime), nil)
		}
		return slot, nil
	}
	return model.Interval{}, apperrors.BadRequest(
		fmt.Sprintf("no session of the doctor covers %s on %s", start, date.Weekday()), nil)
}

func (s *Service) Get(ctx context.Context, actor *model.Actor, id int64) (*model.Appointment, error) {
	apt, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, mapErr(err, "failed to get appointment")
	}
	if !canSee(actor, apt) {
		return nil, apperrors.Forbidden("appointment is outside your scope")
	}
	return apt, nil
}

func (s *Service) List(ctx context.Context, actor *model.Actor, filters *model.AppointmentFilters) (*model.Page[*model.Appointment], error) {
	filters.ClinicID = rbac.ResolveClinic(actor, filters.ClinicID)
	doctorID, err := rbac.ResolveDoctor(actor, filters.DoctorID)
	if err != nil {
		return nil, err
	}
	filters.DoctorID = doctorID
	if actor.Role == model.RolePatient {
		filters.PatientID = actor.UserID
	}

	items, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	p := filters.Pagination.Normalize()
	return &model.Page[*model.Appointment]{Items: items, Total: total, Page: p.Page, PageSize: p.PageSize}, nil
}

// UpdateStatus moves an appointment along booked, checked_in, checked_out.
// Patients may only cancel their own bookings.
func (s *Service) UpdateStatus(ctx context.Context, actor *model.Actor, id int64, status model.AppointmentStatus) (*model.Appointment, error) {
	apt, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if actor.Role == model.RolePatient && status != model.AppointmentStatusCancelled {
		return nil, apperrors.Forbidden("patients can only cancel appointments")
	}
	if !apt.Status.CanTransition(status) {
		return nil, apperrors.BadRequest(fmt.Sprintf("cannot change status from %s to %s", apt.Status, status), nil)
	}

	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, mapErr(err, "failed to update appointment")
	}
	apt.Status = status

	s.events.Emit(ctx, model.EventAppointmentUpdated, eventOf(apt))
	return apt, nil
}

func (s *Service) Delete(ctx context.Context, actor *model.Actor, id int64) error {
	if !actor.Is(model.RoleAdministrator, model.RoleClinicAdmin, model.RoleReceptionist) {
		return apperrors.Forbidden("")
	}
	if _, err := s.Get(ctx, actor, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapErr(err, "failed to delete appointment")
	}
	return nil
}

func canSee(actor *model.Actor, apt *model.Appointment) bool {
	switch actor.Role {
	case model.RolePatient:
		return apt.PatientID == actor.UserID
	case model.RoleDoctor:
		return apt.DoctorID == actor.UserID
	}
	return rbac.CanAccessClinic(actor, apt.ClinicID)
}

func eventOf(apt *model.Appointment) model.AppointmentEvent {
	return model.AppointmentEvent{
		AppointmentID:   apt.ID,
		ClinicID:        apt.ClinicID,
		DoctorID:        apt.DoctorID,
		PatientID:       apt.PatientID,
		AppointmentDate: apt.AppointmentDate.String(),
		StartTime:       apt.StartTime.String(),
		Status:          apt.Status,
	}
}

func mapErr(err error, msg string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound("appointment", err)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
