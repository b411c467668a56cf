package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jwalitptl/clinicare-api/internal/model"
	"github.com/jwalitptl/clinicare-api/internal/repository"
)

const userColumns = `id, email, password_hash, first_name, last_name, phone, role, status, created_at, updated_at`

type userRepository struct {
	BaseRepository
}

func NewUserRepository(base BaseRepository) repository.UserRepository {
	return &userRepository{base}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (
			email, password_hash, first_name, last_name, phone, role, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt

	err := r.db.QueryRowxContext(ctx, query,
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
		return fmt.Errorf("failed to create user: %w", uniqueViolation(err))
	}
	return nil
}

func (r *userRepository) Get(ctx context.Context, id int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var user model.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, fmt.Errorf("failed to get user: %w", notFound(err))
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`

	var user model.User
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", notFound(err))
	}
	return &user, nil
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	query := `
		UPDATE users
		SET first_name = $1, last_name = $2, phone = $3, status = $4, updated_at = $5
		WHERE id = $6
	`
	user.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		user.FirstName,
		user.LastName,
		user.Phone,
		user.Status,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return expectRows(result)
}

func (r *userRepository) UpdatePassword(ctx context.Context, id int64, hash string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`, hash, id)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return expectRows(result)
}

func (r *userRepository) ClinicOf(ctx context.Context, user *model.User) (int64, error) {
	var query string
	switch user.Role {
	case model.RoleClinicAdmin:
		query = `SELECT id FROM clinics WHERE admin_id = $1 ORDER BY id LIMIT 1`
	case model.RoleReceptionist:
		query = `SELECT clinic_id FROM receptionist_clinics WHERE receptionist_id = $1`
	default:
		return 0, nil
	}

	var clinicID int64
	if err := r.db.GetContext(ctx, &clinicID, query, user.ID); err != nil {
		return 0, fmt.Errorf("failed to resolve clinic of user %d: %w", user.ID, notFound(err))
	}
	return clinicID, nil
}

func (r *userRepository) AssignPatientClinic(ctx context.Context, patientID, clinicID int64) error {
	query := `
		INSERT INTO patient_clinics (patient_id, clinic_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, query, patientID, clinicID); err != nil {
		return fmt.Errorf("failed to map patient to clinic: %w", err)
	}
	return nil
}
