package numerator

import (
	"context"
	"time"
)

// Generator produces the next invoice number of a shop.
// Implementations live in the infrastructure layer.
//
// Next must be called inside the transaction that inserts the invoice: the read of the
// current high-water mark and the insert form one critical section per shop.
type Generator interface {
	// Next returns the next number for shopID in the calendar year of asOf.
	// Pattern: INV-YEAR-XXXXXX (e.g., INV-2026-000001)
	Next(ctx context.Context, shopID int64, asOf time.Time) (string, error)
}
