package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jwalitptl/clinicare-api/internal/model"
	"github.com/jwalitptl/clinicare-api/internal/repository"
)

const doctorServiceSelect = `
	SELECT ds.id, ds.service_id, ds.doctor_id, ds.clinic_id, ds.charges, ds.duration, ds.status,
		ds.created_at, ds.updated_at,
		s.name AS service_name, s.category,
		TRIM(u.first_name || ' ' || u.last_name) AS doctor_name,
		c.name AS clinic_name
	FROM doctor_services ds
	JOIN services s ON s.id = ds.service_id
	JOIN users u ON u.id = ds.doctor_id
	JOIN clinics c ON c.id = ds.clinic_id
`

type doctorServiceRepository struct {
	BaseRepository
}

func NewDoctorServiceRepository(base BaseRepository) repository.DoctorServiceRepository {
	return &doctorServiceRepository{base}
}

func (r *doctorServiceRepository) GetOrCreateService(ctx context.Context, name, category string) (*model.Service, error) {
	query := `
		INSERT INTO services (name, category, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		ON CONFLICT (name, category) DO UPDATE SET updated_at = services.updated_at
		RETURNING id, name, category, created_at, updated_at
	`
	var svc model.Service
	if err := r.db.GetContext(ctx, &svc, query, name, category); err != nil {
		return nil, fmt.Errorf("failed to upsert service: %w", err)
	}
	return &svc, nil
}

func (r *doctorServiceRepository) GetService(ctx context.Context, id int64) (*model.Service, error) {
	var svc model.Service
	err := r.db.GetContext(ctx, &svc,
		`SELECT id, name, category, created_at, updated_at FROM services WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get service: %w", notFound(err))
	}
	return &svc, nil
}

func (r *doctorServiceRepository) Create(ctx context.Context, ds *model.DoctorService) error {
	query := `
		INSERT INTO doctor_services (
			service_id, doctor_id, clinic_id, charges, duration, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	ds.CreatedAt = time.Now()
	ds.UpdatedAt = ds.CreatedAt

	err := r.db.QueryRowxContext(ctx, query,
		ds.ServiceID,
		ds.DoctorID,
		ds.ClinicID,
		ds.Charges,
		ds.Duration,
		ds.Status,
		ds.CreatedAt,
		ds.UpdatedAt,
	).Scan(&ds.ID)
	if err != nil {
		return fmt.Errorf("failed to create doctor service: %w", uniqueViolation(err))
	}
	return nil
}

func (r *doctorServiceRepository) Get(ctx context.Context, id int64) (*model.DoctorService, error) {
	var ds model.DoctorService
	if err := r.db.GetContext(ctx, &ds, doctorServiceSelect+` WHERE ds.id = $1`, id); err != nil {
		return nil, fmt.Errorf("failed to get doctor service: %w", notFound(err))
	}
	return &ds, nil
}

func (r *doctorServiceRepository) Update(ctx context.Context, ds *model.DoctorService) error {
	ds.UpdatedAt = time.Now()
	result, err := r.db.ExecContext(ctx, `
		UPDATE doctor_services
		SET charges = $1, duration = $2, status = $3, updated_at = $4
		WHERE id = $5
	`, ds.Charges, ds.Duration, ds.Status, ds.UpdatedAt, ds.ID)
	if err != nil {
		return fmt.Errorf("failed to update doctor service: %w", err)
	}
	return expectRows(result)
}

func (r *doctorServiceRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM doctor_services WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete doctor service: %w", err)
	}
	return expectRows(result)
}

func doctorServiceWhere(filters *model.DoctorServiceFilters) *where {
	w := &where{}
	if filters.ClinicID > 0 {
		w.add("ds.clinic_id = $%d", filters.ClinicID)
	}
	if filters.DoctorID > 0 {
		w.add("ds.doctor_id = $%d", filters.DoctorID)
	}
	if filters.Status != nil {
		w.add("ds.status = $%d", *filters.Status)
	}
	if filters.Search != "" {
		w.add("(s.name ILIKE $%[1]d OR s.category ILIKE $%[1]d)", "%"+filters.Search+"%")
	}
	return w
}

func (r *doctorServiceRepository) List(ctx context.Context, filters *model.DoctorServiceFilters) ([]*model.DoctorService, int, error) {
	w := doctorServiceWhere(filters)

	countQuery := `
		SELECT COUNT(*) FROM doctor_services ds JOIN services s ON s.id = ds.service_id
	` + w.String()
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, w.args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count doctor services: %w", err)
	}

	limit, args := w.page(filters.Limit(), filters.Offset())
	items := []*model.DoctorService{}
	if err := r.db.SelectContext(ctx, &items, doctorServiceSelect+w.String()+` ORDER BY ds.id DESC`+limit, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list doctor services: %w", err)
	}
	return items, total, nil
}

// Export returns every matching row, unpaginated.
func (r *doctorServiceRepository) Export(ctx context.Context, filters *model.DoctorServiceFilters) ([]*model.DoctorService, error) {
	w := doctorServiceWhere(filters)
	items := []*model.DoctorService{}
	if err := r.db.SelectContext(ctx, &items, doctorServiceSelect+w.String()+` ORDER BY ds.id`, w.args...); err != nil {
		return nil, fmt.Errorf("failed to export doctor services: %w", err)
	}
	return items, nil
}
