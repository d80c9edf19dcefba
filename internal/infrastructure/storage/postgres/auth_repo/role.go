package auth_repo

import (
	"context"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"

	"invoicehub/internal/domain/auth"
	"invoicehub/internal/infrastructure/storage/postgres"
)

// RoleRepo implements auth.RoleRepository.
type RoleRepo struct {
	txManager *postgres.TxManager
}

// NewRoleRepo creates a new role repository.
func NewRoleRepo(txManager *postgres.TxManager) *RoleRepo {
	return &RoleRepo{txManager: txManager}
}

// Ensure creates the role if no role has this name.
func (r *RoleRepo) Ensure(ctx context.Context, name, description string) error {
	query := `
		INSERT INTO roles (name, description)
		VALUES ($1, $2)
		ON CONFLICT (name) DO NOTHING
	`

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, query, name, description); err != nil {
		return fmt.Errorf("ensure role %s: %w", name, err)
	}
	return nil
}

// List returns all roles.
func (r *RoleRepo) List(ctx context.Context) ([]auth.Role, error) {
	query := `SELECT id, name, description, created_at FROM roles ORDER BY name`

	roles := []auth.Role{}
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &roles, query); err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	return roles, nil
}

// Ensure interface compliance
var _ auth.RoleRepository = (*RoleRepo)(nil)
