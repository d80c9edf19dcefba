// Package auth_repo provides PostgreSQL implementations for auth repositories.
package auth_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"invoicehub/internal/core/apperror"
	"invoicehub/internal/domain/auth"
	"invoicehub/internal/infrastructure/storage/postgres"
)

const userColumns = `id, username, email, password_hash, is_active, organization_id,
	last_login_at, failed_login_attempts, locked_until, created_at, updated_at`

// UserRepo implements auth.UserRepository.
type UserRepo struct {
	txManager *postgres.TxManager
}

// NewUserRepo creates a new user repository.
func NewUserRepo(txManager *postgres.TxManager) *UserRepo {
	return &UserRepo{txManager: txManager}
}

// Create creates a new user.
func (r *UserRepo) Create(ctx context.Context, user *auth.User) error {
	q := r.txManager.GetQuerier(ctx)

	query := `
		INSERT INTO users (username, email, password_hash, is_active, organization_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		user.Username, user.Email, user.PasswordHash, user.IsActive, user.OrganizationID,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return apperror.NewDuplicate("user", "email or username", user.Email)
		}
		if postgres.IsForeignKeyViolation(err) {
			return apperror.NewNotFound("shop", user.OrganizationID)
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

func (r *UserRepo) getOne(ctx context.Context, where string, arg any) (*auth.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where

	var user auth.User
	err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &user, query, arg)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NewNotFound("user", arg)
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &user, nil
}

// GetByID retrieves user by ID.
func (r *UserRepo) GetByID(ctx context.Context, userID int64) (*auth.User, error) {
	return r.getOne(ctx, "id = $1", userID)
}

// GetByEmail retrieves user by email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	return r.getOne(ctx, "lower(email) = lower($1)", email)
}

// UpdateLoginState persists the login counters of user.
func (r *UserRepo) UpdateLoginState(ctx context.Context, user *auth.User) error {
	query := `
		UPDATE users SET
			last_login_at = $2,
			failed_login_attempts = $3,
			locked_until = $4,
			updated_at = now()
		WHERE id = $1
	`

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, query,
		user.ID, user.LastLoginAt, user.FailedLoginAttempts, user.LockedUntil,
	)
	if err != nil {
		return fmt.Errorf("update login state: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("user", user.ID)
	}
	return nil
}

// ExistsByEmailOrUsername reports whether either value is taken.
func (r *UserRepo) ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE lower(email) = lower($1) OR username = $2)`

	var exists bool
	if err := r.txManager.GetQuerier(ctx).QueryRow(ctx, query, email, username).Scan(&exists); err != nil {
		return false, fmt.Errorf("check exists: %w", err)
	}
	return exists, nil
}

// LoadRoles loads the role names of a user.
func (r *UserRepo) LoadRoles(ctx context.Context, userID int64) ([]string, error) {
	query := `
		SELECT r.name
		FROM roles r
		INNER JOIN user_roles ur ON r.id = ur.role_id
		WHERE ur.user_id = $1
		ORDER BY r.name
	`

	roles := []string{}
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &roles, query, userID); err != nil {
		return nil, fmt.Errorf("query roles: %w", err)
	}
	return roles, nil
}

// AssignRole grants the named role to a user.
func (r *UserRepo) AssignRole(ctx context.Context, userID int64, roleName string) error {
	query := `
		INSERT INTO user_roles (user_id, role_id)
		SELECT $1, id FROM roles WHERE name = $2
		ON CONFLICT (user_id, role_id) DO NOTHING
	`

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, query, userID, roleName)
	if err != nil {
		return fmt.Errorf("assign role: %w", err)
	}
	if result.RowsAffected() == 0 {
		// Either already granted or the role is missing; only the latter is an error.
		var granted bool
		check := `SELECT EXISTS(SELECT 1 FROM user_roles ur JOIN roles r ON r.id = ur.role_id WHERE ur.user_id = $1 AND r.name = $2)`
		if err := r.txManager.GetQuerier(ctx).QueryRow(ctx, check, userID, roleName).Scan(&granted); err != nil {
			return fmt.Errorf("check role grant: %w", err)
		}
		if !granted {
			return apperror.NewNotFound("role", roleName)
		}
	}
	return nil
}

// Ensure interface compliance
var _ auth.UserRepository = (*UserRepo)(nil)
