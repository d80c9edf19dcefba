// Package invoice implements invoice creation: stock validation, pricing, numbering and
// the transaction that persists an invoice with its items and stock movement.
package invoice

import (
	"fmt"
	"strings"
	"time"

	"invoicehub/internal/core/apperror"
	"invoicehub/internal/core/types"
)

// PaymentStatus of an invoice.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

// Valid reports whether s is a known status.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentPaid, PaymentFailed:
		return true
	}
	return false
}

// ParsePaymentStatus accepts a status name in any case.
func ParsePaymentStatus(raw string) (PaymentStatus, error) {
	s := PaymentStatus(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", apperror.NewValidation(fmt.Sprintf("unknown payment status %q", raw)).
			WithDetail("field", "payment_status")
	}
	return s, nil
}

// Invoice is a sale document of one shop.
//
// DiscountAmount is always derived from DiscountType, DiscountValue and SubTotal, and
// GrandTotal == SubTotal - DiscountAmount + TaxAmount.
type Invoice struct {
	ID            int64   `db:"id"`
	InvoiceNumber string  `db:"invoice_number"`
	CustomerName  string  `db:"customer_name"`
	CustomerEmail *string `db:"customer_email"`

	SubTotal       types.Money  `db:"sub_total"`
	DiscountType   DiscountKind `db:"discount_type"`
	DiscountValue  types.Money  `db:"discount_value"`
	DiscountAmount types.Money  `db:"discount_amount"`
	TaxRate        types.Money  `db:"tax_rate"`
	TaxAmount      types.Money  `db:"tax_amount"`
	GrandTotal     types.Money  `db:"grand_total"`

	PaymentMethod *string       `db:"payment_method"`
	PaymentStatus PaymentStatus `db:"payment_status"`

	ShopID      int64     `db:"shop_id"`
	CreatedByID int64     `db:"created_by_id"`
	CreatedAt   time.Time `db:"created_at"`

	Items []Item `db:"-"`
}

// Item is one invoice line. Price is the product price at the time of sale.
type Item struct {
	ID         int64       `db:"id"`
	InvoiceID  int64       `db:"invoice_id"`
	LineNo     int         `db:"line_no"`
	ProductID  int64       `db:"product_id"`
	Quantity   int         `db:"quantity"`
	Price      types.Money `db:"price"`
	TotalPrice types.Money `db:"total_price"`
}

// auditState is what the audit log keeps about a new invoice.
func (inv *Invoice) auditState() map[string]any {
	items := make([]map[string]any, 0, len(inv.Items))
	for _, it := range inv.Items {
		items = append(items, map[string]any{
			"product_id": it.ProductID,
			"quantity":   it.Quantity,
			"price":      it.Price.String(),
		})
	}
	return map[string]any{
		"invoice_number":  inv.InvoiceNumber,
		"shop_id":         inv.ShopID,
		"customer_name":   inv.CustomerName,
		"sub_total":       inv.SubTotal.String(),
		"discount_amount": inv.DiscountAmount.String(),
		"tax_amount":      inv.TaxAmount.String(),
		"grand_total":     inv.GrandTotal.String(),
		"payment_status":  string(inv.PaymentStatus),
		"items":           items,
	}
}
