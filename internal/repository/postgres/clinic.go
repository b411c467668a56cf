package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jwalitptl/clinicare-api/internal/model"
	"github.com/jwalitptl/clinicare-api/internal/repository"
)

const clinicColumns = `id, name, email, phone, address, city, country, specialties, status, admin_id, created_at, updated_at`

type clinicRepository struct {
	BaseRepository
}

func NewClinicRepository(base BaseRepository) repository.ClinicRepository {
	return &clinicRepository{base}
}

func (r *clinicRepository) Create(ctx context.Context, clinic *model.Clinic) error {
	query := `
		INSERT INTO clinics (
			name, email, phone, address, city, country, specialties, status, admin_id, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		)
		RETURNING id
	`
	clinic.CreatedAt = time.Now()
	clinic.UpdatedAt = clinic.CreatedAt
	if clinic.Specialties == nil {
		clinic.Specialties = pq.StringArray{}
	}

	err := r.db.QueryRowxContext(ctx, query,
		clinic.Name,
		clinic.Email,
		clinic.Phone,
		clinic.Address,
		clinic.City,
		clinic.Country,
		clinic.Specialties,
		clinic.Status,
		clinic.AdminID,
		clinic.CreatedAt,
		clinic.UpdatedAt,
	).Scan(&clinic.ID)
	if err != nil {
		return fmt.Errorf("failed to create clinic: %w", err)
	}
	return nil
}

func (r *clinicRepository) Get(ctx context.Context, id int64) (*model.Clinic, error) {
	query := `SELECT ` + clinicColumns + ` FROM clinics WHERE id = $1`

	var clinic model.Clinic
	if err := r.db.GetContext(ctx, &clinic, query, id); err != nil {
		return nil, fmt.Errorf("failed to get clinic: %w", notFound(err))
	}
	return &clinic, nil
}

func (r *clinicRepository) Update(ctx context.Context, clinic *model.Clinic) error {
	query := `
		UPDATE clinics
		SET name = $1, email = $2, phone = $3, address = $4, city = $5, country = $6,
			specialties = $7, status = $8, admin_id = $9, updated_at = $10
		WHERE id = $11
	`
	clinic.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		clinic.Name,
		clinic.Email,
		clinic.Phone,
		clinic.Address,
		clinic.City,
		clinic.Country,
		clinic.Specialties,
		clinic.Status,
		clinic.AdminID,
		clinic.UpdatedAt,
		clinic.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update clinic: %w", err)
	}
	return expectRows(result)
}

func (r *clinicRepository) Delete(ctx context.Context, id int64) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		cascade := []struct {
			what  string
			query string
			args  []interface{}
		}{
			{"doctor mappings", `DELETE FROM doctor_clinics WHERE clinic_id = $1`, []interface{}{id}},
			{"receptionist mappings", `DELETE FROM receptionist_clinics WHERE clinic_id = $1`, []interface{}{id}},
			{"patient mappings", `DELETE FROM patient_clinics WHERE clinic_id = $1`, []interface{}{id}},
			{"doctor services", `DELETE FROM doctor_services WHERE clinic_id = $1`, []interface{}{id}},
			{"doctor sessions", `DELETE FROM doctor_sessions WHERE clinic_id = $1`, []interface{}{id}},
			{"clinic leaves", `DELETE FROM leaves WHERE module_type = $1 AND module_id = $2`, []interface{}{model.LeaveModuleClinic, id}},
		}
		for _, step := range cascade {
			if _, err := tx.ExecContext(ctx, step.query, step.args...); err != nil {
				return fmt.Errorf("failed to delete %s: %w", step.what, err)
			}
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM clinics WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete clinic: %w", err)
		}
		return expectRows(result)
	})
}

func clinicWhere(filters *model.ClinicFilters) *where {
	w := &where{}
	if filters.Search != "" {
		w.add("(name ILIKE $%[1]d OR email ILIKE $%[1]d OR city ILIKE $%[1]d)", "%"+filters.Search+"%")
	}
	if filters.Status != nil {
		w.add("status = $%d", *filters.Status)
	}
	if len(filters.IDs) > 0 {
		w.add("id = ANY($%d)", pq.Array(filters.IDs))
	}
	return w
}

func (r *clinicRepository) List(ctx context.Context, filters *model.ClinicFilters) ([]*model.Clinic, int, error) {
	w := clinicWhere(filters)

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM clinics`+w.String(), w.args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count clinics: %w", err)
	}

	limit, args := w.page(filters.Limit(), filters.Offset())
	query := `SELECT ` + clinicColumns + ` FROM clinics` + w.String() + ` ORDER BY id DESC` + limit

	clinics := []*model.Clinic{}
	if err := r.db.SelectContext(ctx, &clinics, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list clinics: %w", err)
	}
	return clinics, total, nil
}

func (r *clinicRepository) Export(ctx context.Context, filters *model.ClinicFilters) ([]*model.Clinic, error) {
	w := clinicWhere(filters)
	clinics := []*model.Clinic{}
	if err := r.db.SelectContext(ctx, &clinics, `SELECT `+clinicColumns+` FROM clinics`+w.String()+` ORDER BY id`, w.args...); err != nil {
		return nil, fmt.Errorf("failed to export clinics: %w", err)
	}
	return clinics, nil
}

// UpdateStatus returns the ids that were actually updated.
func (r *clinicRepository) UpdateStatus(ctx context.Context, ids []int64, status int) ([]int64, error) {
	updated := []int64{}
	err := r.db.SelectContext(ctx, &updated,
		`UPDATE clinics SET status = $1, updated_at = NOW() WHERE id = ANY($2) RETURNING id`, status, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to update clinic status: %w", err)
	}
	return updated, nil
}
