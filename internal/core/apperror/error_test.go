package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsAppError_Wrapped(t *testing.T) {
	base := NewProductNotFound(42)
	wrapped := fmt.Errorf("validate line: %w", base)

	appErr, ok := AsAppError(wrapped)
	require.True(t, ok)
	assert.Equal(t, CodeProductNotFound, appErr.Code)
	assert.Equal(t, int64(42), appErr.Details["product_id"])
	assert.Equal(t, http.StatusNotFound, GetHTTPStatus(wrapped))
}

func TestHasCode(t *testing.T) {
	err := NewInsufficientStock(7, 6, 5)

	assert.True(t, HasCode(err, CodeNotFound, CodeInsufficientStock))
	assert.False(t, HasCode(err, CodeNotFound))
	assert.False(t, HasCode(errors.New("plain"), CodeInsufficientStock))
}

func TestNewPersistence_HidesCause(t *testing.T) {
	cause := errors.New("duplicate key value violates unique constraint")
	err := NewPersistence("Failed to create invoice", cause)

	assert.Equal(t, "Failed to create invoice", err.Message)
	assert.Equal(t, http.StatusInternalServerError, err.HTTPStatus)
	assert.ErrorIs(t, err, cause)
	assert.Empty(t, err.Details)
}

func TestIsConcurrentModification(t *testing.T) {
	assert.True(t, IsConcurrentModification(fmt.Errorf("tx: %w", NewConcurrentModification("invoices", 1))))
	assert.False(t, IsConcurrentModification(NewValidation("bad")))
}
