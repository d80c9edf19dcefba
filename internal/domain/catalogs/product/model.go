// Package product provides the shop-owned product catalog.
package product

import (
	"strings"
	"time"

	"invoicehub/internal/core/apperror"
	"invoicehub/internal/core/types"
)

// Product is a sellable item of one shop. Quantity is the stock on hand and never goes negative.
type Product struct {
	ID          int64       `db:"id" json:"id"`
	ShopID      int64       `db:"shop_id" json:"shopId"`
	Name        string      `db:"name" json:"name"`
	Description *string     `db:"description" json:"description,omitempty"`
	Price       types.Money `db:"price" json:"price"`
	Quantity    int         `db:"quantity" json:"quantity"`
	IsActive    bool        `db:"is_active" json:"isActive"`
	CreatedAt   time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updatedAt"`
}

// Validate checks the invariants a stored product must hold.
func (p *Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return apperror.NewValidation("name is required").WithDetail("field", "name")
	}
	if p.Price.IsNegative() {
		return apperror.NewValidation("price must not be negative").WithDetail("field", "price")
	}
	if p.Quantity < 0 {
		return apperror.NewValidation("quantity must not be negative").WithDetail("field", "quantity")
	}
	return nil
}

// Sellable reports whether the product may appear on a new invoice.
func (p *Product) Sellable() bool {
	return p.IsActive
}

// auditState is the field set recorded in the audit log on change.
func (p *Product) auditState() map[string]any {
	state := map[string]any{
		"name":      p.Name,
		"price":     p.Price.String(),
		"quantity":  p.Quantity,
		"is_active": p.IsActive,
	}
	if p.Description != nil {
		state["description"] = *p.Description
	}
	return state
}
