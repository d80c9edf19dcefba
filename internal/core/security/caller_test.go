package security

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	appctx "invoicehub/internal/core/context"
)

func TestCallerFromContext(t *testing.T) {
	orgID := int64(3)
	ctx := appctx.WithUser(context.Background(), &appctx.UserContext{
		UserID:         11,
		Roles:          []string{RoleShopAdmin},
		OrganizationID: &orgID,
	})

	caller := CallerFromContext(ctx)

	assert.Equal(t, int64(11), caller.UserID)
	assert.True(t, caller.IsShopAdmin())
	assert.False(t, caller.IsSuperAdmin())
	assert.Equal(t, &orgID, caller.OrganizationID)
}

func TestCallerFromContext_Anonymous(t *testing.T) {
	caller := CallerFromContext(context.Background())

	assert.Zero(t, caller.UserID)
	assert.Empty(t, caller.Roles)
	assert.False(t, caller.HasRole(RoleSuperAdmin))
}
