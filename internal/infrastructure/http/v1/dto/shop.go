package dto

import (
	"invoicehub/internal/domain/catalogs/organization"
)

// CreateShopRequest is the body of POST /shops.
type CreateShopRequest struct {
	Name    string  `json:"name" binding:"required"`
	Address *string `json:"address"`
	Phone   *string `json:"phone"`
	Email   *string `json:"email"`
}

// ToInput converts the request.
func (r CreateShopRequest) ToInput() organization.CreateInput {
	return organization.CreateInput{
		Name:    r.Name,
		Address: r.Address,
		Phone:   r.Phone,
		Email:   r.Email,
	}
}
