package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jwalitptl/clinicare-api/internal/model"
	"github.com/jwalitptl/clinicare-api/internal/repository"
)

const encounterSelect = `
	SELECT e.id, e.clinic_id, e.doctor_id, e.patient_id, e.appointment_id, e.encounter_date,
		e.description, e.status, e.created_at, e.updated_at,
		TRIM(d.first_name || ' ' || d.last_name) AS doctor_name,
		TRIM(p.first_name || ' ' || p.last_name) AS patient_name,
		c.name AS clinic_name
	FROM encounters e
	JOIN users d ON d.id = e.doctor_id
	JOIN users p ON p.id = e.patient_id
	JOIN clinics c ON c.id = e.clinic_id
`

type encounterRepository struct {
	BaseRepository
}

func NewEncounterRepository(base BaseRepository) repository.EncounterRepository {
	return &encounterRepository{base}
}

func (r *encounterRepository) Create(ctx context.Context, enc *model.Encounter) error {
	query := `
		INSERT INTO encounters (
			clinic_id, doctor_id, patient_id, appointment_id, encounter_date,
			description, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	enc.CreatedAt = time.Now()
	enc.UpdatedAt = enc.CreatedAt

	err := r.db.QueryRowxContext(ctx, query,
		enc.ClinicID,
		enc.DoctorID,
		enc.PatientID,
		enc.AppointmentID,
		enc.EncounterDate,
		enc.Description,
		enc.Status,
		enc.CreatedAt,
		enc.UpdatedAt,
	).Scan(&enc.ID)
	if err != nil {
		return fmt.Errorf("failed to create encounter: %w", err)
	}
	return nil
}

func (r *encounterRepository) Get(ctx context.Context, id int64) (*model.Encounter, error) {
	var enc model.Encounter
	if err := r.db.GetContext(ctx, &enc, encounterSelect+` WHERE e.id = $1`, id); err != nil {
		return nil, fmt.Errorf("failed to get encounter: %w", notFound(err))
	}
	return &enc, nil
}

func (r *encounterRepository) Update(ctx context.Context, enc *model.Encounter) error {
	enc.UpdatedAt = time.Now()
	result, err := r.db.ExecContext(ctx, `
		UPDATE encounters
		SET encounter_date = $1, description = $2, status = $3, updated_at = $4
		WHERE id = $5
	`, enc.EncounterDate, enc.Description, enc.Status, enc.UpdatedAt, enc.ID)
	if err != nil {
		return fmt.Errorf("failed to update encounter: %w", err)
	}
	return expectRows(result)
}

func (r *encounterRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM encounters WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete encounter: %w", err)
	}
	return expectRows(result)
}

func encounterWhere(filters *model.EncounterFilters) *where {
	w := &where{}
	if filters.ClinicID > 0 {
		w.add("e.clinic_id = $%d", filters.ClinicID)
	}
	if filters.DoctorID > 0 {
		w.add("e.doctor_id = $%d", filters.DoctorID)
	}
	if filters.PatientID > 0 {
		w.add("e.patient_id = $%d", filters.PatientID)
	}
	if filters.Status != "" {
		w.add("e.status = $%d", filters.Status)
	}
	if filters.From != "" {
		w.add("e.encounter_date >= $%d", filters.From)
	}
	if filters.To != "" {
		w.add("e.encounter_date <= $%d", filters.To)
	}
	return w
}

func (r *encounterRepository) List(ctx context.Context, filters *model.EncounterFilters) ([]*model.Encounter, int, error) {
	w := encounterWhere(filters)

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM encounters e`+w.String(), w.args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count encounters: %w", err)
	}

	limit, args := w.page(filters.Limit(), filters.Offset())
	items := []*model.Encounter{}
	query := encounterSelect + w.String() + ` ORDER BY e.encounter_date DESC, e.id DESC` + limit
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list encounters: %w", err)
	}
	return items, total, nil
}

func (r *encounterRepository) Export(ctx context.Context, filters *model.EncounterFilters) ([]*model.Encounter, error) {
	w := encounterWhere(filters)
	items := []*model.Encounter{}
	if err := r.db.SelectContext(ctx, &items, encounterSelect+w.String()+` ORDER BY e.id`, w.args...); err != nil {
		return nil, fmt.Errorf("failed to export encounters: %w", err)
	}
	return items, nil
}
