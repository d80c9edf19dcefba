package tenant

import "invoicehub/internal/core/apperror"

// errNotPermitted is returned for callers that hold neither admin role.
func errNotPermitted() error {
	return apperror.NewPermissionDenied("caller has no shop-scoped role")
}

func errShopAdminWithoutShop(userID int64) error {
	return apperror.NewPermissionDenied("shop admin is not assigned to a shop").
		WithDetail("user_id", userID)
}

func errShopRequired() error {
	return apperror.NewValidation("shop_id is required for super admin").
		WithDetail("field", "shop_id")
}
