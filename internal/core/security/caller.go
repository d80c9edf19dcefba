// Package security describes who is calling and what they are allowed to touch.
package security

import (
	"context"
	"slices"

	appctx "invoicehub/internal/core/context"
)

// Role names as stored in the roles table and carried in tokens.
const (
	RoleSuperAdmin = "super_admin"
	RoleShopAdmin  = "shop_admin"
)

// Caller is the explicit identity passed into domain operations.
// It is built once per request from the authenticated user and never read from globals.
type Caller struct {
	UserID         int64
	Roles          []string
	OrganizationID *int64
}

// HasRole reports whether the caller holds role.
func (c Caller) HasRole(role string) bool {
	return slices.Contains(c.Roles, role)
}

// IsSuperAdmin reports cross-shop authority.
func (c Caller) IsSuperAdmin() bool { return c.HasRole(RoleSuperAdmin) }

// IsShopAdmin reports shop-scoped authority.
func (c Caller) IsShopAdmin() bool { return c.HasRole(RoleShopAdmin) }

// CallerFromContext builds a Caller from the authenticated user in ctx.
// The zero Caller (no roles) is returned for anonymous requests.
func CallerFromContext(ctx context.Context) Caller {
	user := appctx.GetUser(ctx)
	if user == nil {
		return Caller{}
	}
	return Caller{
		UserID:         user.UserID,
		Roles:          user.Roles,
		OrganizationID: user.OrganizationID,
	}
}
