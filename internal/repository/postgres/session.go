package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/clinicare-api/internal/model"
	"github.com/jwalitptl/clinicare-api/internal/repository"
)

const sessionColumns = `id, parent_id, doctor_id, clinic_id, day, start_time, end_time, time_slot, created_at, updated_at`

type sessionRepository struct {
	BaseRepository
}

func NewSessionRepository(base BaseRepository) repository.SessionRepository {
	return &sessionRepository{base}
}

const insertSession = `
	INSERT INTO doctor_sessions (
		parent_id, doctor_id, clinic_id, day, start_time, end_time, time_slot, created_at, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	RETURNING id
`

func insertRow(ctx context.Context, tx *sqlx.Tx, row *model.Session) error {
	row.CreatedAt = time.Now()
	row.UpdatedAt = row.CreatedAt
	err := tx.QueryRowxContext(ctx, insertSession,
		row.ParentID,
		row.DoctorID,
		row.ClinicID,
		row.Day,
		row.StartTime,
		row.EndTime,
		row.TimeSlot,
		row.CreatedAt,
		row.UpdatedAt,
	).Scan(&row.ID)
	if err != nil {
		return fmt.Errorf("failed to insert %s session: %w", row.Day, err)
	}
	return nil
}

// insertGroup writes rows[0] as the parent and the rest as its children.
func insertGroup(ctx context.Context, tx *sqlx.Tx, rows []*model.Session) error {
	if len(rows) == 0 {
		return nil
	}
	rows[0].ParentID = nil
	if err := insertRow(ctx, tx, rows[0]); err != nil {
		return err
	}
	parentID := rows[0].ID
	for _, row := range rows[1:] {
		row.ParentID = &parentID
		if err := insertRow(ctx, tx, row); err != nil {
			return err
		}
	}
	return nil
}

func (r *sessionRepository) CreateGroups(ctx context.Context, groups [][]*model.Session) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		for _, rows := range groups {
			if err := insertGroup(ctx, tx, rows); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *sessionRepository) ReplaceGroup(ctx context.Context, groupID int64, rows []*model.Session) error {
	if len(rows) == 0 {
		return fmt.Errorf("session group %d needs at least one row", groupID)
	}

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		parent := rows[0]
		parent.ID = groupID
		parent.ParentID = nil
		parent.UpdatedAt = time.Now()

		result, err := tx.ExecContext(ctx, `
			UPDATE doctor_sessions
			SET day = $1, start_time = $2, end_time = $3, time_slot = $4, updated_at = $5
			WHERE id = $6 AND parent_id IS NULL
		`, parent.Day, parent.StartTime, parent.EndTime, parent.TimeSlot, parent.UpdatedAt, groupID)
		if err != nil {
			return fmt.Errorf("failed to update session group: %w", err)
		}
		if err := expectRows(result); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM doctor_sessions WHERE parent_id = $1`, groupID); err != nil {
			return fmt.Errorf("failed to delete session group rows: %w", err)
		}
		for _, row := range rows[1:] {
			row.ParentID = &groupID
			if err := insertRow(ctx, tx, row); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *sessionRepository) ReplaceAll(ctx context.Context, doctorID, clinicID int64, groups [][]*model.Session) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM doctor_sessions WHERE doctor_id = $1 AND clinic_id = $2`, doctorID, clinicID); err != nil {
			return fmt.Errorf("failed to clear sessions: %w", err)
		}
		for _, rows := range groups {
			if err := insertGroup(ctx, tx, rows); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *sessionRepository) GetGroup(ctx context.Context, groupID int64) ([]*model.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM doctor_sessions
		WHERE (id = $1 AND parent_id IS NULL) OR parent_id = $1
		ORDER BY start_time`

	rows := []*model.Session{}
	if err := r.db.SelectContext(ctx, &rows, query, groupID); err != nil {
		return nil, fmt.Errorf("failed to get session group: %w", err)
	}
	if len(rows) == 0 {
		return nil, repository.ErrNotFound
	}
	return rows, nil
}

func (r *sessionRepository) DeleteGroup(ctx context.Context, groupID int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM doctor_sessions WHERE (id = $1 AND parent_id IS NULL) OR parent_id = $1`, groupID)
	if err != nil {
		return fmt.Errorf("failed to delete session group: %w", err)
	}
	return expectRows(result)
}

func (r *sessionRepository) DeleteAll(ctx context.Context, doctorID, clinicID int64) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM doctor_sessions WHERE doctor_id = $1 AND clinic_id = $2`, doctorID, clinicID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete sessions: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows, nil
}

func (r *sessionRepository) List(ctx context.Context, filters *model.SessionFilters) ([]*model.Session, error) {
	w := &where{}
	if filters.DoctorID > 0 {
		w.add("doctor_id = $%d", filters.DoctorID)
	}
	if filters.ClinicID > 0 {
		w.add("clinic_id = $%d", filters.ClinicID)
	}

	query := `SELECT ` + sessionColumns + ` FROM doctor_sessions` + w.String() +
		` ORDER BY COALESCE(parent_id, id), start_time`

	rows := []*model.Session{}
	if err := r.db.SelectContext(ctx, &rows, query, w.args...); err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return rows, nil
}

func (r *sessionRepository) FindForDay(ctx context.Context, doctorID, clinicID int64, day model.Weekday, excludeGroup int64) ([]*model.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM doctor_sessions
		WHERE doctor_id = $1 AND clinic_id = $2 AND day = $3
		AND end_time > start_time
		AND COALESCE(parent_id, id) <> $4
		ORDER BY start_time`

	rows := []*model.Session{}
	if err := r.db.SelectContext(ctx, &rows, query, doctorID, clinicID, day, excludeGroup); err != nil {
		return nil, fmt.Errorf("failed to find %s sessions: %w", day, err)
	}
	return rows, nil
}
