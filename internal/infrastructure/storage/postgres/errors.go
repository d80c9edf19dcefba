package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"invoicehub/internal/core/apperror"
)

// SQLSTATE codes the repositories react to.
const (
	codeUniqueViolation      = "23505"
	codeForeignKeyViolation  = "23503"
	codeCheckViolation       = "23514"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeLockNotAvailable     = "55P03"
)

// pgCode returns the SQLSTATE of err, or "" for non-Postgres errors.
func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// constraintName returns the violated constraint of err, if any.
func constraintName(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}

// IsUniqueViolation reports a duplicate key.
func IsUniqueViolation(err error) bool { return pgCode(err) == codeUniqueViolation }

// IsUniqueViolationOn reports a duplicate key on the named constraint.
func IsUniqueViolationOn(err error, constraint string) bool {
	return IsUniqueViolation(err) && constraintName(err) == constraint
}

// IsForeignKeyViolation reports a missing or still referenced row.
func IsForeignKeyViolation(err error) bool { return pgCode(err) == codeForeignKeyViolation }

// IsCheckViolation reports a CHECK constraint failure.
func IsCheckViolation(err error) bool { return pgCode(err) == codeCheckViolation }

// IsContention reports errors caused by a concurrent transaction; the whole transaction may be retried.
func IsContention(err error) bool {
	switch pgCode(err) {
	case codeSerializationFailure, codeDeadlockDetected, codeLockNotAvailable:
		return true
	}
	return false
}

// mapContention turns contention errors into ConcurrentModification and leaves others alone.
// The SQLSTATE stays in the cause; nothing of it reaches the details.
func mapContention(err error) error {
	if err == nil || apperror.IsAppError(err) || !IsContention(err) {
		return err
	}
	appErr := apperror.NewConcurrentModification("transaction", nil).WithCause(err)
	appErr.Details = nil
	return appErr
}

// notFound maps pgx.ErrNoRows to apperror NotFound.
func notFound(err error, entity string, id any) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperror.NewNotFound(entity, id)
	}
	return err
}
