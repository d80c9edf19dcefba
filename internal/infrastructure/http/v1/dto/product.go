package dto

import (
	"invoicehub/internal/core/types"
	"invoicehub/internal/domain/catalogs/product"
)

// CreateProductRequest is the body of POST /products.
// ShopID is required for super admins and ignored for shop admins.
type CreateProductRequest struct {
	ShopID      *int64      `json:"shopId"`
	Name        string      `json:"name" binding:"required"`
	Description *string     `json:"description"`
	Price       types.Money `json:"price"`
	Quantity    int         `json:"quantity" binding:"min=0"`
}

// ToInput converts the request.
func (r CreateProductRequest) ToInput() product.CreateInput {
	return product.CreateInput{
		ShopID:      r.ShopID,
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		Quantity:    r.Quantity,
	}
}

// UpdateProductRequest is a partial update; absent fields are unchanged.
type UpdateProductRequest struct {
	Name        *string      `json:"name"`
	Description *string      `json:"description"`
	Price       *types.Money `json:"price"`
	Quantity    *int         `json:"quantity"`
	IsActive    *bool        `json:"isActive"`
}

// ToInput converts the request.
func (r UpdateProductRequest) ToInput() product.UpdateInput {
	return product.UpdateInput{
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		Quantity:    r.Quantity,
		IsActive:    r.IsActive,
	}
}

// ProductListQuery filters GET /products.
type ProductListQuery struct {
	ListQuery
	ShopID     *int64 `form:"shopId"`
	ActiveOnly bool   `form:"activeOnly"`
}

// ToFilter converts the query.
func (q ProductListQuery) ToFilter() product.ListFilter {
	return product.ListFilter{
		ListFilter: q.ListQuery.ToFilter(),
		ShopID:     q.ShopID,
		ActiveOnly: q.ActiveOnly,
	}
}
