package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/clinicare-api/internal/email"
	"github.com/jwalitptl/clinicare-api/internal/model"
	"github.com/jwalitptl/clinicare-api/internal/repository"
	"github.com/jwalitptl/clinicare-api/pkg/auth"
	apperrors "github.com/jwalitptl/clinicare-api/pkg/errors"
	"github.com/jwalitptl/clinicare-api/pkg/security"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenRevoked       = errors.New("token revoked")
	ErrAccountInactive    = errors.New("account inactive")
)

const resetTokenExpiry = 1 * time.Hour

type AuthServicer interface {
	Login(ctx context.Context, req *model.LoginRequest) (*model.TokenResponse, error)
	Register(ctx context.Context, req *model.RegisterRequest) (*model.TokenResponse, error)
	Logout(ctx context.Context, claims *auth.Claims) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, req *model.ResetPasswordRequest) error
	Me(ctx context.Context, actor *model.Actor) (*model.User, error)
	Authenticate(ctx context.Context, token string) (*model.Actor, *auth.Claims, error)
}

type Service struct {
	userRepo   repository.UserRepository
	clinicRepo repository.ClinicRepository
	tokenRepo  repository.TokenRepository
	jwtSvc     auth.JWTService
	hasher     security.PasswordHasher
	emailSvc   email.Service
	now        func() time.Time
}

func NewService(
	userRepo repository.UserRepository,
	clinicRepo repository.ClinicRepository,
	tokenRepo repository.TokenRepository,
	jwtSvc auth.JWTService,
	hasher security.PasswordHasher,
	emailSvc email.Service,
) *Service {
	return &Service{
		userRepo:   userRepo,
		clinicRepo: clinicRepo,
		tokenRepo:  tokenRepo,
		jwtSvc:     jwtSvc,
		hasher:     hasher,
		emailSvc:   emailSvc,
		now:        time.Now,
	}
}

func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*model.TokenResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.Unauthorized(ErrInvalidCredentials)
		}
		return nil, err
	}
	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		return nil, apperrors.Unauthorized(ErrInvalidCredentials)
	}
	if user.Status != model.UserStatusActive {
		return nil, apperrors.Forbidden("account is inactive")
	}

	log.Info().Int64("user_id", user.ID).Str("role", string(user.Role)).Msg("user logged in")
	return s.issue(user)
}

// Register creates a patient account, optionally linked to a clinic.
func (s *Service) Register(ctx context.Context, req *model.RegisterRequest) (*model.TokenResponse, error) {
	if req.ClinicID > 0 {
		if _, err := s.clinicRepo.Get(ctx, req.ClinicID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, apperrors.BadRequest("clinic_id does not exist", err)
			}
			return nil, err
		}
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		if errors.Is(err, security.ErrPasswordShort) {
			return nil, apperrors.BadRequest(err.Error(), err)
		}
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Email:        normalizeEmail(req.Email),
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Phone:        req.Phone,
		Role:         model.RolePatient,
		Status:       model.UserStatusActive,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.Conflict("email is already registered", err)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if req.ClinicID > 0 {
		if err := s.userRepo.AssignPatientClinic(ctx, user.ID, req.ClinicID); err != nil {
			return nil, err
		}
	}
	return s.issue(user)
}

// Logout revokes the token id until the token would have expired anyway.
func (s *Service) Logout(ctx context.Context, claims *auth.Claims) error {
	if claims.ExpiresAt == nil {
		return nil
	}
	ttl := claims.ExpiresAt.Sub(s.now())
	if err := s.tokenRepo.RevokeToken(ctx, claims.ID, ttl); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// ForgotPassword mails a one-hour reset token. Unknown addresses are not
// reported to the caller.
func (s *Service) ForgotPassword(ctx context.Context, address string) error {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(address))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return err
	}

	token := uuid.New()
	if err := s.tokenRepo.StoreResetToken(ctx, token, user.ID, resetTokenExpiry); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}
	if err := s.emailSvc.SendPasswordReset(ctx, user.Email, token.String()); err != nil {
		log.Ctx(ctx).Error().Err(err).Int64("user_id", user.ID).Msg("password reset email not delivered")
	}
	return nil
}

func (s *Service) ResetPassword(ctx context.Context, req *model.ResetPasswordRequest) error {
	userID, err := s.tokenRepo.ConsumeResetToken(ctx, req.Token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.BadRequest("reset token is invalid or expired", err)
		}
		return err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		if errors.Is(err, security.ErrPasswordShort) {
			return apperrors.BadRequest(err.Error(), err)
		}
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.userRepo.UpdatePassword(ctx, userID, hash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.BadRequest("reset token is invalid or expired", err)
		}
		return err
	}
	return nil
}

func (s *Service) Me(ctx context.Context, actor *model.Actor) (*model.User, error) {
	user, err := s.userRepo.Get(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("user", err)
		}
		return nil, err
	}
	return user, nil
}

// Authenticate turns a bearer token into the calling actor. Revoked tokens,
// removed users and inactive accounts are rejected.
func (s *Service) Authenticate(ctx context.Context, token string) (*model.Actor, *auth.Claims, error) {
	claims, err := s.jwtSvc.ValidateToken(token)
	if err != nil {
		return nil, nil, apperrors.Unauthorized(err)
	}

	revoked, err := s.tokenRepo.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to check token revocation: %w", err)
	}
	if revoked {
		return nil, nil, apperrors.Unauthorized(ErrTokenRevoked)
	}

	user, err := s.userRepo.Get(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, apperrors.Unauthorized(err)
		}
		return nil, nil, err
	}
	if user.Status != model.UserStatusActive {
		return nil, nil, apperrors.Unauthorized(ErrAccountInactive)
	}

	actor := &model.Actor{UserID: user.ID, Email: user.Email, Role: user.Role}
	if user.Role == model.RoleClinicAdmin || user.Role == model.RoleReceptionist {
		clinicID, err := s.userRepo.ClinicOf(ctx, user)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, nil, apperrors.Forbidden("account is not assigned to a clinic")
			}
			return nil, nil, err
		}
		actor.ClinicID = clinicID
	}
	return actor, claims, nil
}

func (s *Service) issue(user *model.User) (*model.TokenResponse, error) {
	token, claims, err := s.jwtSvc.GenerateAccessToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, err
	}
	return &model.TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   claims.ExpiresAt.Time,
		User:        user,
	}, nil
}

func normalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}
