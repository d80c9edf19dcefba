package invoice

import (
	"context"
	"time"

	"invoicehub/internal/domain"
)

// ListFilter narrows invoice lists. Nil fields do not filter.
type ListFilter struct {
	domain.ListFilter

	ShopID        *int64
	PaymentStatus *PaymentStatus
	DateFrom      *time.Time // inclusive
	DateTo        *time.Time // inclusive
}

// Repository defines invoice storage. Writes run in the ambient transaction.
type Repository interface {
	// Create inserts the header and sets inv.ID.
	// A duplicate (shop_id, invoice_number) is reported as ConcurrentModification.
	Create(ctx context.Context, inv *Invoice) error

	// SaveItems inserts lines of invoiceID and sets their ids.
	SaveItems(ctx context.Context, invoiceID int64, items []Item) error

	// GetByID returns the header with its items, or NotFound.
	GetByID(ctx context.Context, id int64) (*Invoice, error)

	// List returns headers with items, newest first.
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Invoice], error)
}
