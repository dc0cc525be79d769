package user

import (
	"context"
	"errors"
	"strings"

	"stackstore-be/internal/logger"

	"go.uber.org/zap"
)

type Service interface {
	Register(ctx context.Context, input RegisterInput) (string, *User, error)
	Login(ctx context.Context, email, password string) (string, *User, error)
	GetUserByID(ctx context.Context, id uint) (*User, error)
	ListRecentUsers(ctx context.Context, limit int) ([]User, error)
	DeleteUser(ctx context.Context, actorID, targetID uint) error
	UpdateAccount(ctx context.Context, id uint, input AccountInput) (*User, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Register(ctx context.Context, input RegisterInput) (string, *User, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Register"),
	)

	if input.Password != input.ConfirmPassword {
		return "", nil, ErrPasswordMismatch
	}
	if !StrongPassword(input.Password) {
		return "", nil, ErrWeakPassword
	}

	name := strings.TrimSpace(input.Name)
	email := strings.ToLower(strings.TrimSpace(input.Email))

	hashed, err := HashPassword(input.Password)
	if err != nil {
		log.Error("failed to hash password", zap.Error(err))
		return "", nil, err
	}

	u, err := s.repo.Create(ctx, name, email, hashed, RoleCustomer)
	if err != nil {
		return "", nil, err
	}

	token, err := GenerateJWT(u.ID, string(u.Role), u.Email)
	if err != nil {
		log.Error("failed to generate jwt", zap.Uint("user_id", u.ID), zap.Error(err))
		return "", nil, err
	}

	log.Info("user registered", zap.Uint("user_id", u.ID))
	return token, u, nil
}

func (s *service) Login(ctx context.Context, email, password string) (string, *User, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Login"),
	)

	u, err := s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			log.Info("login with unknown email")
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}

	if !CheckPasswordHash(password, u.PasswordHash) {
		log.Info("password mismatch", zap.Uint("user_id", u.ID))
		return "", nil, ErrInvalidCredentials
	}

	token, err := GenerateJWT(u.ID, string(u.Role), u.Email)
	if err != nil {
		return "", nil, err
	}
	return token, u, nil
}

func (s *service) GetUserByID(ctx context.Context, id uint) (*User, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *service) ListRecentUsers(ctx context.Context, limit int) ([]User, error) {
	return s.repo.ListRecent(ctx, limit)
}

// DeleteUser removes a customer account. Admins cannot remove themselves or another admin.
func (s *service) DeleteUser(ctx context.Context, actorID, targetID uint) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "DeleteUser"),
		zap.Uint("actor_id", actorID),
		zap.Uint("target_id", targetID),
	)

	if actorID == targetID {
		return ErrCannotDeleteSelf
	}

	target, err := s.repo.FindByID(ctx, targetID)
	if err != nil {
		return err
	}
	if target.Role == RoleAdmin {
		return ErrCannotDeleteAdmin
	}

	if err := s.repo.Delete(ctx, target.ID); err != nil {
		return err
	}

	log.Info("user deleted")
	return nil
}

func (s *service) UpdateAccount(ctx context.Context, id uint, input AccountInput) (*User, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "UpdateAccount"),
		zap.Uint("user_id", id),
	)

	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Role != RoleAdmin {
		return nil, ErrNotAdmin
	}

	var email, hash *string
	if requested := strings.ToLower(strings.TrimSpace(input.Email)); requested != "" && requested != current.Email {
		email = &requested
	}

	if input.wantsPasswordChange() {
		if input.CurrentPassword == "" || input.NewPassword == "" || input.ConfirmPassword == "" {
			return nil, ErrIncompletePassword
		}
		if !CheckPasswordHash(input.CurrentPassword, current.PasswordHash) {
			return nil, ErrIncorrectPassword
		}
		if input.NewPassword != input.ConfirmPassword {
			return nil, ErrPasswordMismatch
		}
		if len(input.NewPassword) < 8 || !StrongPassword(input.NewPassword) {
			return nil, ErrWeakPassword
		}
		hashed, err := HashPassword(input.NewPassword)
		if err != nil {
			log.Error("failed to hash password", zap.Error(err))
			return nil, err
		}
		hash = &hashed
	}

	if email == nil && hash == nil {
		return nil, ErrNoAccountChanges
	}

	updated, err := s.repo.UpdateCredentials(ctx, id, email, hash)
	if err != nil {
		return nil, err
	}

	log.Info("admin account updated", zap.Bool("email_changed", email != nil), zap.Bool("password_changed", hash != nil))
	return updated, nil
}
