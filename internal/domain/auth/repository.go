package auth

import (
	"context"
)

// UserRepository defines user storage operations.
type UserRepository interface {
	// Create inserts the user and sets its id.
	Create(ctx context.Context, user *User) error

	// GetByID returns NotFound when absent.
	GetByID(ctx context.Context, userID int64) (*User, error)

	// GetByEmail returns NotFound when absent.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// UpdateLoginState persists the login counters of user.
	UpdateLoginState(ctx context.Context, user *User) error

	// ExistsByEmailOrUsername reports whether either value is taken.
	ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error)

	// LoadRoles returns the role names of the user.
	LoadRoles(ctx context.Context, userID int64) ([]string, error)

	// AssignRole grants the named role to the user.
	AssignRole(ctx context.Context, userID int64, roleName string) error
}

// RoleRepository defines role storage operations.
type RoleRepository interface {
	// Ensure creates the role if no role has this name.
	Ensure(ctx context.Context, name, description string) error

	// List returns all roles.
	List(ctx context.Context) ([]Role, error)
}

// ShopChecker confirms the shop a new shop admin is bound to.
type ShopChecker interface {
	Exists(ctx context.Context, shopID int64) (bool, error)
}
