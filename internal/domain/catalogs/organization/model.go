// Package organization provides the shop catalog. A shop is the tenant every product and
// invoice belongs to.
package organization

import (
	"net/mail"
	"strings"
	"time"

	"invoicehub/internal/core/apperror"
)

// Organization is a shop.
type Organization struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Address   *string   `db:"address" json:"address,omitempty"`
	Phone     *string   `db:"phone" json:"phone,omitempty"`
	Email     *string   `db:"email" json:"email,omitempty"`
	IsActive  bool      `db:"is_active" json:"isActive"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// NewOrganization creates an active shop.
func NewOrganization(name string) *Organization {
	return &Organization{
		Name:     strings.TrimSpace(name),
		IsActive: true,
	}
}

// Validate checks the fields a client can set.
func (o *Organization) Validate() error {
	if strings.TrimSpace(o.Name) == "" {
		return apperror.NewValidation("name is required").WithDetail("field", "name")
	}
	if o.Email != nil && *o.Email != "" {
		if _, err := mail.ParseAddress(*o.Email); err != nil {
			return apperror.NewValidation("email is invalid").WithDetail("field", "email")
		}
	}
	return nil
}
