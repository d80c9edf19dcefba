// Package numerator provides the PostgreSQL implementation of invoice numbering.
// It implements core/numerator.Generator.
package numerator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"invoicehub/internal/core/apperror"
	corenumerator "invoicehub/internal/core/numerator"
	"invoicehub/internal/infrastructure/storage/postgres"
)

// Service hands out per-shop, per-year invoice numbers.
//
// The shop row lock serializes numbering within a shop until the surrounding
// transaction ends, so the max-plus-one scan never races with another issuer.
// Shops never contend with each other.
type Service struct {
	cfg corenumerator.Config
}

// Ensure compile-time interface compliance.
var _ corenumerator.Generator = (*Service)(nil)

// New creates a numerator service.
func New(cfg corenumerator.Config) *Service {
	return &Service{cfg: cfg}
}

const lockShopSQL = `SELECT is_active FROM organizations WHERE id = $1 FOR UPDATE`

const maxSequenceSQL = `
	SELECT COALESCE(MAX(split_part(invoice_number, '-', 3)::bigint), 0)
	FROM invoices
	WHERE shop_id = $1
	  AND created_at >= $2 AND created_at < $3
	  AND invoice_number LIKE $4
`

// Next implements corenumerator.Generator. It must run inside a transaction.
func (s *Service) Next(ctx context.Context, shopID int64, asOf time.Time) (string, error) {
	tx, err := postgres.RequireTx(ctx, "invoice numbering")
	if err != nil {
		return "", err
	}

	var active bool
	err = tx.QueryRow(ctx, lockShopSQL, shopID).Scan(&active)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", apperror.NewNotFound("shop", shopID)
	}
	if err != nil {
		return "", fmt.Errorf("lock shop %d: %w", shopID, err)
	}
	if !active {
		return "", apperror.NewBusinessRule(apperror.CodeShopInactive, "Shop is inactive").
			WithDetail("shop_id", shopID)
	}

	year := asOf.UTC().Year()
	from, to := yearBounds(year)

	var last int64
	if err := tx.QueryRow(ctx, maxSequenceSQL, shopID, from, to, s.yearPattern(year)).Scan(&last); err != nil {
		return "", fmt.Errorf("scan last invoice number: %w", err)
	}

	return s.cfg.Format(year, last+1), nil
}

// yearPattern matches numbers of one year, e.g. "INV-2026-%".
func (s *Service) yearPattern(year int) string {
	return fmt.Sprintf("%s-%04d-%%", s.cfg.Prefix, year)
}

// yearBounds returns [Jan 1 of year, Jan 1 of year+1) in UTC.
func yearBounds(year int) (time.Time, time.Time) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(1, 0, 0)
}
