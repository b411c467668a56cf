package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jwalitptl/clinicare-api/internal/model"
	"github.com/jwalitptl/clinicare-api/internal/repository"
)

const appointmentColumns = `id, clinic_id, doctor_id, patient_id, appointment_date, start_time, end_time,
	visit_type, description, status, created_at, updated_at`

type appointmentRepository struct {
	BaseRepository
}

func NewAppointmentRepository(base BaseRepository) repository.AppointmentRepository {
	return &appointmentRepository{base}
}

func (r *appointmentRepository) Create(ctx context.Context, apt *model.Appointment) error {
	query := `
		INSERT INTO appointments (
			clinic_id, doctor_id, patient_id, appointment_date, start_time, end_time,
			visit_type, description, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`
	apt.CreatedAt = time.Now()
	apt.UpdatedAt = apt.CreatedAt

	err := r.db.QueryRowxContext(ctx, query,
		apt.ClinicID,
		apt.DoctorID,
		apt.PatientID,
		apt.AppointmentDate,
		apt.StartTime,
		apt.EndTime,
		apt.VisitType,
		apt.Description,
		apt.Status,
		apt.CreatedAt,
		apt.UpdatedAt,
	).Scan(&apt.ID)
	if err != nil {
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

func (r *appointmentRepository) Get(ctx context.Context, id int64) (*model.Appointment, error) {
	var apt model.Appointment
	if err := r.db.GetContext(ctx, &apt, `SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, id); err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", notFound(err))
	}
	return &apt, nil
}

func (r *appointmentRepository) UpdateStatus(ctx context.Context, id int64, status model.AppointmentStatus) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE appointments SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update appointment status: %w", err)
	}
	return expectRows(result)
}

func (r *appointmentRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete appointment: %w", err)
	}
	return expectRows(result)
}

func (r *appointmentRepository) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, int, error) {
	w := &where{}
	if filters.ClinicID > 0 {
		w.add("clinic_id = $%d", filters.ClinicID)
	}
	if filters.DoctorID > 0 {
		w.add("doctor_id = $%d", filters.DoctorID)
	}
	if filters.PatientID > 0 {
		w.add("patient_id = $%d", filters.PatientID)
	}
	if filters.Status != "" {
		w.add("status = $%d", filters.Status)
	}
	if filters.From != "" {
		w.add("appointment_date >= $%d", filters.From)
	}
	if filters.To != "" {
		w.add("appointment_date <= $%d", filters.To)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM appointments`+w.String(), w.args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count appointments: %w", err)
	}

	limit, args := w.page(filters.Limit(), filters.Offset())
	query := `SELECT ` + appointmentColumns + ` FROM appointments` + w.String() +
		` ORDER BY appointment_date DESC, start_time DESC` + limit

	items := []*model.Appointment{}
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list appointments: %w", err)
	}
	return items, total, nil
}

func (r *appointmentRepository) CountByDate(ctx context.Context, doctorID, clinicID int64, from time.Time) ([]model.DateCount, error) {
	query := `
		SELECT appointment_date, COUNT(*) AS count
		FROM appointments
		WHERE doctor_id = $1 AND clinic_id = $2
		AND appointment_date >= $3
		AND status <> $4
		GROUP BY appointment_date
		ORDER BY appointment_date
	`
	counts := []model.DateCount{}
	err := r.db.SelectContext(ctx, &counts, query,
		doctorID, clinicID, model.DateOf(from), model.AppointmentStatusCancelled)
	if err != nil {
		return nil, fmt.Errorf("failed to count appointments by date: %w", err)
	}
	return counts, nil
}

func (r *appointmentRepository) FindForDate(ctx context.Context, doctorID int64, date model.Date) ([]*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments
		WHERE doctor_id = $1 AND appointment_date = $2 AND status <> $3
		ORDER BY start_time`

	items := []*model.Appointment{}
	if err := r.db.SelectContext(ctx, &items, query, doctorID, date, model.AppointmentStatusCancelled); err != nil {
		return nil, fmt.Errorf("failed to find appointments for date: %w", err)
	}
	return items, nil
}
