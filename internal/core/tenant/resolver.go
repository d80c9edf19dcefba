// Package tenant decides which shop a request operates on.
//
// Tenancy is row-level: every shop-owned row carries shop_id, and every shop-scoped
// operation first resolves the shop through ResolveShop.
package tenant

import (
	"invoicehub/internal/core/security"
)

// ResolveShop returns the shop the caller is allowed to act on.
//
// A shop admin always gets their own organization; any requested id is ignored.
// A super admin must name the shop explicitly. Everyone else is denied.
func ResolveShop(caller security.Caller, requested *int64) (int64, error) {
	if caller.IsShopAdmin() {
		if caller.OrganizationID == nil {
			return 0, errShopAdminWithoutShop(caller.UserID)
		}
		return *caller.OrganizationID, nil
	}

	if caller.IsSuperAdmin() {
		if requested == nil || *requested <= 0 {
			return 0, errShopRequired()
		}
		return *requested, nil
	}

	return 0, errNotPermitted()
}

// ScopeFilter returns the shop filter for list-style reads.
// Shop admins are pinned to their shop; super admins see the requested shop or all shops (nil).
func ScopeFilter(caller security.Caller, requested *int64) (*int64, error) {
	if caller.IsShopAdmin() {
		shopID, err := ResolveShop(caller, nil)
		if err != nil {
			return nil, err
		}
		return &shopID, nil
	}
	if caller.IsSuperAdmin() {
		return requested, nil
	}
	return nil, errNotPermitted()
}

// CanAccessShop reports whether the caller may read or modify rows of shopID.
func CanAccessShop(caller security.Caller, shopID int64) bool {
	if caller.IsShopAdmin() {
		return caller.OrganizationID != nil && *caller.OrganizationID == shopID
	}
	return caller.IsSuperAdmin()
}
