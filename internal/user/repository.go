package user

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"stackstore-be/internal/logger"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

const (
	uniqueViolation = "23505"
	userColumns     = `id, name, email, password, role, created_at`
)

type Repository interface {
	Create(ctx context.Context, name, email, passwordHash string, role Role) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id uint) (*User, error)
	ListRecent(ctx context.Context, limit int) ([]User, error)
	UpdateCredentials(ctx context.Context, id uint, email, passwordHash *string) (*User, error)
	Delete(ctx context.Context, id uint) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, name, email, passwordHash string, role Role) (*User, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "Create"),
	)

	var u User
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO users (name, email, password, role) VALUES ($1, $2, $3, $4)
		 RETURNING id, name, email, password, role, created_at`,
		name, email, passwordHash, string(role),
	).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			log.Info("email already registered", zap.String("email", email))
			return nil, ErrEmailExists
		}
		log.Error("db: failed to insert user", zap.String("email", email), zap.Error(err))
		return nil, err
	}

	return &u, nil
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*User, error) {
	return r.findOne(ctx, "FindByEmail",
		`SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER($1)`,
		email,
	)
}

func (r *repository) FindByID(ctx context.Context, id uint) (*User, error) {
	return r.findOne(ctx, "FindByID",
		`SELECT `+userColumns+` FROM users WHERE id = $1`,
		id,
	)
}

func (r *repository) findOne(ctx context.Context, method, query string, arg any) (*User, error) {
	var u User
	err := r.db.QueryRowContext(ctx, query, arg).
		Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		logger.FromCtx(ctx).Error("db: failed to load user",
			zap.String("layer", "repository"),
			zap.String("method", method),
			zap.Error(err),
		)
		return nil, err
	}
	return &u, nil
}

func (r *repository) ListRecent(ctx context.Context, limit int) ([]User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		logger.FromCtx(ctx).Error("db: failed to list users",
			zap.String("layer", "repository"),
			zap.String("method", "ListRecent"),
			zap.Error(err),
		)
		return nil, err
	}
	defer rows.Close()

	users := []User{}
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// UpdateCredentials keeps the stored column for a nil argument.
func (r *repository) UpdateCredentials(ctx context.Context, id uint, email, passwordHash *string) (*User, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "UpdateCredentials"),
		zap.Uint("user_id", id),
	)

	var u User
	err := r.db.QueryRowContext(ctx,
		`UPDATE users SET email = COALESCE($2, email), password = COALESCE($3, password)
		 WHERE id = $1
		 RETURNING `+userColumns,
		id, email, passwordHash,
	).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailExists
		}
		log.Error("db: failed to update credentials", zap.Error(err))
		return nil, err
	}
	return &u, nil
}

func (r *repository) Delete(ctx context.Context, id uint) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		logger.FromCtx(ctx).Error("db: failed to delete user",
			zap.String("layer", "repository"),
			zap.Uint("user_id", id),
			zap.Error(err),
		)
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == uniqueViolation
	}
	return strings.Contains(err.Error(), "users_email_key") || strings.Contains(err.Error(), "users_email_lower_idx")
}
