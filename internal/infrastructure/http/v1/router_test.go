package v1

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicehub/internal/core/apperror"
	appctx "invoicehub/internal/core/context"
	"invoicehub/internal/infrastructure/storage/postgres"
	"invoicehub/pkg/logger"
)

type fakeDB struct {
	err error
}

func (f fakeDB) Ping(context.Context) error { return f.err }

func (f fakeDB) Stats() postgres.PoolStats { return postgres.PoolStats{MaxConns: 20} }

type shopAdminValidator struct{}

func (shopAdminValidator) ValidateToken(string) (*appctx.UserContext, error) {
	shopID := int64(1)
	return &appctx.UserContext{UserID: 5, Roles: []string{"shop_admin"}, OrganizationID: &shopID}, nil
}

func newTestRouter(db fakeDB) http.Handler {
	return NewRouter(RouterConfig{
		Logger:       logger.NewNop(),
		DB:           db,
		Version:      "test",
		JWTValidator: shopAdminValidator{},
	})
}

func get(h http.Handler, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealthRoutes(t *testing.T) {
	r := newTestRouter(fakeDB{})

	assert.Equal(t, http.StatusOK, get(r, "/health/live", nil).Code)
	assert.Equal(t, http.StatusOK, get(r, "/health/ready", nil).Code)

	w := get(r, "/health/info", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var info map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, "test", info["version"])

	down := newTestRouter(fakeDB{err: errors.New("connection refused")})
	assert.Equal(t, http.StatusServiceUnavailable, get(down, "/health/ready", nil).Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	r := newTestRouter(fakeDB{})

	for _, path := range []string{"/api/v1/invoices", "/api/v1/products", "/api/v1/dashboard/summary", "/api/v1/auth/me"} {
		w := get(r, path, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestSuperAdminRoutesRejectShopAdmin(t *testing.T) {
	r := newTestRouter(fakeDB{})
	auth := map[string]string{"Authorization": "Bearer token"}

	for _, path := range []string{"/api/v1/shops", "/api/v1/auth/roles"} {
		w := get(r, path, auth)
		require.Equal(t, http.StatusForbidden, w.Code, path)

		var body map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, apperror.CodePermissionDenied, body["code"])
	}
}

func TestInvalidIDIsValidationError(t *testing.T) {
	r := newTestRouter(fakeDB{})

	w := get(r, "/api/v1/invoices/abc", map[string]string{"Authorization": "Bearer token"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
