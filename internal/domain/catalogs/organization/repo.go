package organization

import (
	"context"

	"invoicehub/internal/domain"
)

// Repository defines the interface for shop storage.
type Repository interface {
	Create(ctx context.Context, org *Organization) error
	// GetByID returns apperror NotFound when the shop does not exist.
	GetByID(ctx context.Context, id int64) (*Organization, error)
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Organization], error)
}
