package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/clinicare-api/internal/model"
	"github.com/jwalitptl/clinicare-api/internal/repository"
)

// staffMapping names the clinic mapping table of a staff role.
type staffMapping struct {
	table  string
	column string
}

func mappingFor(role model.Role) (staffMapping, error) {
	switch role {
	case model.RoleDoctor:
		return staffMapping{table: "doctor_clinics", column: "doctor_id"}, nil
	case model.RoleReceptionist:
		return staffMapping{table: "receptionist_clinics", column: "receptionist_id"}, nil
	}
	return staffMapping{}, fmt.Errorf("role %q has no clinic mapping", role)
}

type staffRepository struct {
	BaseRepository
}

func NewStaffRepository(base BaseRepository) repository.StaffRepository {
	return &staffRepository{base}
}

func (r *staffRepository) Create(ctx context.Context, user *model.User, clinicID int64) error {
	m, err := mappingFor(user.Role)
	if err != nil {
		return err
	}

	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO users (
				email, password_hash, first_name, last_name, phone, role, status, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id
		`
		err := tx.QueryRowxContext(ctx, query,
			user.Email,
			user.PasswordHash,
			user.FirstName,
			user.LastName,
			user.Phone,
			user.Role,
			user.Status,
			user.CreatedAt,
			user.UpdatedAt,
		).Scan(&user.ID)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", user.Role, uniqueViolation(err))
		}

		mapQuery := fmt.Sprintf(`INSERT INTO %s (%s, clinic_id) VALUES ($1, $2)`, m.table, m.column)
		if _, err := tx.ExecContext(ctx, mapQuery, user.ID, clinicID); err != nil {
			return fmt.Errorf("failed to map %s to clinic: %w", user.Role, err)
		}
		return nil
	})
}

func (r *staffRepository) selectQuery(m staffMapping) string {
	return fmt.Sprintf(`
		SELECT u.id, u.email, u.password_hash, u.first_name, u.last_name, u.phone,
			u.role, u.status, u.created_at, u.updated_at,
			COALESCE(m.clinic_id, 0) AS clinic_id, COALESCE(c.name, '') AS clinic_name
		FROM users u
		LEFT JOIN %s m ON m.%s = u.id
		LEFT JOIN clinics c ON c.id = m.clinic_id
	`, m.table, m.column)
}

func (r *staffRepository) Get(ctx context.Context, role model.Role, id int64) (*model.Staff, error) {
	m, err := mappingFor(role)
	if err != nil {
		return nil, err
	}

	query := r.selectQuery(m) + ` WHERE u.id = $1 AND u.role = $2 ORDER BY m.clinic_id LIMIT 1`

	var staff model.Staff
	if err := r.db.GetContext(ctx, &staff, query, id, role); err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", role, notFound(err))
	}
	return &staff, nil
}

func (r *staffRepository) List(ctx context.Context, filters *model.StaffFilters) ([]*model.Staff, int, error) {
	m, err := mappingFor(filters.Role)
	if err != nil {
		return nil, 0, err
	}

	w := &where{}
	w.add("u.role = $%d", filters.Role)
	if filters.ClinicID > 0 {
		w.add("m.clinic_id = $%d", filters.ClinicID)
	}
	if filters.Status != "" {
		w.add("u.status = $%d", filters.Status)
	}
	if filters.Search != "" {
		w.add("(u.first_name ILIKE $%[1]d OR u.last_name ILIKE $%[1]d OR u.email ILIKE $%[1]d)", "%"+filters.Search+"%")
	}

	countQuery := fmt.Sprintf(`
		SELECT COUNT(*) FROM users u LEFT JOIN %s m ON m.%s = u.id
	`, m.table, m.column) + w.String()

	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, w.args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count %s: %w", filters.Role, err)
	}

	limit, args := w.page(filters.Limit(), filters.Offset())
	query := r.selectQuery(m) + w.String() + ` ORDER BY u.id DESC` + limit

	staff := []*model.Staff{}
	if err := r.db.SelectContext(ctx, &staff, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list %s: %w", filters.Role, err)
	}
	return staff, total, nil
}

func (r *staffRepository) Update(ctx context.Context, staff *model.Staff) error {
	m, err := mappingFor(staff.Role)
	if err != nil {
		return err
	}
	staff.UpdatedAt = time.Now()

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE users
			SET first_name = $1, last_name = $2, phone = $3, status = $4, updated_at = $5
			WHERE id = $6 AND role = $7
		`, staff.FirstName, staff.LastName, staff.Phone, staff.Status, staff.UpdatedAt, staff.ID, staff.Role)
		if err != nil {
			return fmt.Errorf("failed to update %s: %w", staff.Role, err)
		}
		if err := expectRows(result); err != nil {
			return err
		}

		if staff.ClinicID == 0 {
			return nil
		}
		var mapQuery string
		if staff.Role == model.RoleReceptionist {
			mapQuery = `
				INSERT INTO receptionist_clinics (receptionist_id, clinic_id) VALUES ($1, $2)
				ON CONFLICT (receptionist_id) DO UPDATE SET clinic_id = EXCLUDED.clinic_id
			`
		} else {
			mapQuery = fmt.Sprintf(`INSERT INTO %s (%s, clinic_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, m.table, m.column)
		}
		if _, err := tx.ExecContext(ctx, mapQuery, staff.ID, staff.ClinicID); err != nil {
			return fmt.Errorf("failed to update clinic mapping: %w", err)
		}
		return nil
	})
}

func (r *staffRepository) UpdateStatus(ctx context.Context, role model.Role, id int64, status string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET status = $1, updated_at = NOW() WHERE id = $2 AND role = $3`, status, id, role)
	if err != nil {
		return fmt.Errorf("failed to update %s status: %w", role, err)
	}
	return expectRows(result)
}

func (r *staffRepository) Delete(ctx context.Context, role model.Role, id int64) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if role == model.RoleDoctor {
			if _, err := tx.ExecContext(ctx, `DELETE FROM doctor_sessions WHERE doctor_id = $1`, id); err != nil {
				return fmt.Errorf("failed to delete doctor sessions: %w", err)
			}
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM leaves WHERE module_type = $1 AND module_id = $2`, model.LeaveModuleDoctor, id); err != nil {
				return fmt.Errorf("failed to delete doctor leaves: %w", err)
			}
		}

		// mappings, services, appointments and encounters cascade
		result, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1 AND role = $2`, id, role)
		if err != nil {
			return fmt.Errorf("failed to delete %s: %w", role, err)
		}
		return expectRows(result)
	})
}

func (r *staffRepository) IsDoctorInClinic(ctx context.Context, doctorID, clinicID int64) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM doctor_clinics WHERE doctor_id = $1 AND clinic_id = $2)`, doctorID, clinicID)
	if err != nil {
		return false, fmt.Errorf("failed to check doctor clinic mapping: %w", err)
	}
	return exists, nil
}
