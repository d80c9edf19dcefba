package product

import (
	"context"

	"invoicehub/internal/domain"
)

// ListFilter narrows product lists. A nil ShopID lists every shop.
type ListFilter struct {
	domain.ListFilter

	ShopID     *int64
	ActiveOnly bool
}

// Repository defines the interface for product storage.
type Repository interface {
	Create(ctx context.Context, p *Product) error

	// GetByID returns NotFound when no product has this id.
	GetByID(ctx context.Context, id int64) (*Product, error)

	// GetForUpdate reads the row with a lock held until the transaction ends.
	GetForUpdate(ctx context.Context, id int64) (*Product, error)

	Update(ctx context.Context, p *Product) error

	// Delete returns Conflict when invoices still reference the product.
	Delete(ctx context.Context, id int64) error

	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Product], error)
}

// ShopChecker confirms a shop exists before products are attached to it.
type ShopChecker interface {
	Exists(ctx context.Context, shopID int64) (bool, error)
}
