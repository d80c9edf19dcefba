package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"invoicehub/internal/core/apperror"
)

func TestClassification(t *testing.T) {
	unique := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "uq_invoice_number_per_shop"})

	assert.True(t, IsUniqueViolation(unique))
	assert.Equal(t, "uq_invoice_number_per_shop", constraintName(unique))
	assert.True(t, IsUniqueViolationOn(unique, "uq_invoice_number_per_shop"))
	assert.False(t, IsUniqueViolationOn(unique, "users_email_key"))
	assert.False(t, IsContention(unique))

	assert.True(t, IsForeignKeyViolation(&pgconn.PgError{Code: "23503"}))
	assert.True(t, IsCheckViolation(&pgconn.PgError{Code: "23514"}))
	assert.False(t, IsUniqueViolation(errors.New("plain")))
}

func TestMapContention(t *testing.T) {
	for _, code := range []string{"40001", "40P01", "55P03"} {
		err := mapContention(&pgconn.PgError{Code: code})
		assert.True(t, apperror.IsConcurrentModification(err), code)
		appErr, _ := apperror.AsAppError(err)
		assert.Empty(t, appErr.Details, code)
		assert.ErrorContains(t, err, code)
	}

	plain := errors.New("boom")
	assert.Same(t, plain, mapContention(plain))

	appErr := apperror.NewValidation("bad")
	assert.Equal(t, error(appErr), mapContention(appErr))
	assert.NoError(t, mapContention(nil))
}

func TestNotFound(t *testing.T) {
	err := notFound(fmt.Errorf("scan: %w", pgx.ErrNoRows), "invoice", int64(3))
	assert.True(t, apperror.IsNotFound(err))

	other := errors.New("io")
	assert.Same(t, other, notFound(other, "invoice", int64(3)))
}
