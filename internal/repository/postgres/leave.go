package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/jwalitptl/clinicare-api/internal/model"
	"github.com/jwalitptl/clinicare-api/internal/repository"
)

const leaveColumns = `id, module_type, module_id, selection_mode, start_date, end_date, selected_dates,
	time_specific, start_time, end_time, description, status, created_at, updated_at`

type leaveRepository struct {
	BaseRepository
}

func NewLeaveRepository(base BaseRepository) repository.LeaveRepository {
	return &leaveRepository{base}
}

func (r *leaveRepository) Create(ctx context.Context, leave *model.Leave) error {
	query := `
		INSERT INTO leaves (
			module_type, module_id, selection_mode, start_date, end_date, selected_dates,
			time_specific, start_time, end_time, description, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id
	`
	leave.CreatedAt = time.Now()
	leave.UpdatedAt = leave.CreatedAt
	if leave.SelectedDates == nil {
		leave.SelectedDates = pq.StringArray{}
	}

	err := r.db.QueryRowxContext(ctx, query,
		leave.ModuleType,
		leave.ModuleID,
		leave.SelectionMode,
		leave.StartDate,
		leave.EndDate,
		leave.SelectedDates,
		leave.TimeSpecific,
		leave.StartTime,
		leave.EndTime,
		leave.Description,
		leave.Status,
		leave.CreatedAt,
		leave.UpdatedAt,
	).Scan(&leave.ID)
	if err != nil {
		return fmt.Errorf("failed to create leave: %w", err)
	}
	return nil
}

func (r *leaveRepository) Get(ctx context.Context, id int64) (*model.Leave, error) {
	var leave model.Leave
	if err := r.db.GetContext(ctx, &leave, `SELECT `+leaveColumns+` FROM leaves WHERE id = $1`, id); err != nil {
		return nil, fmt.Errorf("failed to get leave: %w", notFound(err))
	}
	return &leave, nil
}

func (r *leaveRepository) Update(ctx context.Context, leave *model.Leave) error {
	query := `
		UPDATE leaves
		SET module_type = $1, module_id = $2, selection_mode = $3, start_date = $4, end_date = $5,
			selected_dates = $6, time_specific = $7, start_time = $8, end_time = $9,
			description = $10, status = $11, updated_at = $12
		WHERE id = $13
	`
	leave.UpdatedAt = time.Now()
	if leave.SelectedDates == nil {
		leave.SelectedDates = pq.StringArray{}
	}

	result, err := r.db.ExecContext(ctx, query,
		leave.ModuleType,
		leave.ModuleID,
		leave.SelectionMode,
		leave.StartDate,
		leave.EndDate,
		leave.SelectedDates,
		leave.TimeSpecific,
		leave.StartTime,
		leave.EndTime,
		leave.Description,
		leave.Status,
		leave.UpdatedAt,
		leave.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update leave: %w", err)
	}
	return expectRows(result)
}

func (r *leaveRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM leaves WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete leave: %w", err)
	}
	return expectRows(result)
}

func (r *leaveRepository) List(ctx context.Context, filters *model.LeaveFilters) ([]*model.Leave, int, error) {
	w := &where{}
	if filters.ModuleType != "" {
		w.add("module_type = $%d", filters.ModuleType)
	}
	if filters.ModuleID > 0 {
		w.add("module_id = $%d", filters.ModuleID)
	}
	if filters.Status != nil {
		w.add("status = $%d", *filters.Status)
	}
	if filters.ClinicID > 0 {
		w.add(`((module_type = 'clinic' AND module_id = $%[1]d) OR
			(module_type = 'doctor' AND module_id IN (SELECT doctor_id FROM doctor_clinics WHERE clinic_id = $%[1]d)))`,
			filters.ClinicID)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM leaves`+w.String(), w.args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count leaves: %w", err)
	}

	limit, args := w.page(filters.Limit(), filters.Offset())
	leaves := []*model.Leave{}
	query := `SELECT ` + leaveColumns + ` FROM leaves` + w.String() + ` ORDER BY id DESC` + limit
	if err := r.db.SelectContext(ctx, &leaves, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list leaves: %w", err)
	}
	return leaves, total, nil
}

func (r *leaveRepository) FindActive(ctx context.Context, doctorID, clinicID int64) ([]*model.Leave, error) {
	query := `SELECT ` + leaveColumns + ` FROM leaves
		WHERE status = $1
		AND ((module_type = $2 AND module_id = $3) OR (module_type = $4 AND module_id = $5))
		ORDER BY id`

	leaves := []*model.Leave{}
	err := r.db.SelectContext(ctx, &leaves, query,
		model.StatusActive,
		model.LeaveModuleDoctor, doctorID,
		model.LeaveModuleClinic, clinicID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to find active leaves: %w", err)
	}
	return leaves, nil
}
