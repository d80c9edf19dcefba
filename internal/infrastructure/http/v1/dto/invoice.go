package dto

import (
	"time"

	"invoicehub/internal/core/apperror"
	"invoicehub/internal/core/types"
	"invoicehub/internal/domain/invoice"
)

// InvoiceItemRequest is one requested line.
type InvoiceItemRequest struct {
	ProductID int64 `json:"productId" binding:"required"`
	Quantity  int   `json:"quantity"`
}

// CreateInvoiceRequest is the body of POST /invoices.
type CreateInvoiceRequest struct {
	ShopID        *int64               `json:"shopId"`
	CustomerName  string               `json:"customerName"`
	CustomerEmail *string              `json:"customerEmail"`
	Items         []InvoiceItemRequest `json:"items"`
	DiscountType  *string              `json:"discountType"`
	DiscountValue *types.Money         `json:"discountValue"`
	TaxRate       *types.Money         `json:"taxRate"`
	PaymentMethod *string              `json:"paymentMethod"`
	PaymentStatus *string              `json:"paymentStatus"`
}

// ToRequest converts the body. Absent amounts are zero.
func (r CreateInvoiceRequest) ToRequest() invoice.CreateRequest {
	items := make([]invoice.LineRequest, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, invoice.LineRequest{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	req := invoice.CreateRequest{
		ShopID:        r.ShopID,
		CustomerName:  r.CustomerName,
		CustomerEmail: r.CustomerEmail,
		Items:         items,
		DiscountType:  r.DiscountType,
		DiscountValue: types.Zero(),
		TaxRate:       types.Zero(),
		PaymentMethod: r.PaymentMethod,
		PaymentStatus: r.PaymentStatus,
	}
	if r.DiscountValue != nil {
		req.DiscountValue = *r.DiscountValue
	}
	if r.TaxRate != nil {
		req.TaxRate = *r.TaxRate
	}
	return req
}

// InvoiceItemResponse is one stored line.
type InvoiceItemResponse struct {
	ID         int64       `json:"id"`
	LineNo     int         `json:"lineNo"`
	ProductID  int64       `json:"productId"`
	Quantity   int         `json:"quantity"`
	Price      types.Money `json:"price"`
	TotalPrice types.Money `json:"totalPrice"`
}

// InvoiceResponse is the public view of an invoice.
type InvoiceResponse struct {
	ID             int64                 `json:"id"`
	InvoiceNumber  string                `json:"invoiceNumber"`
	CustomerName   string                `json:"customerName"`
	CustomerEmail  *string               `json:"customerEmail,omitempty"`
	SubTotal       types.Money           `json:"subTotal"`
	DiscountType   string                `json:"discountType"`
	DiscountValue  types.Money           `json:"discountValue"`
	DiscountAmount types.Money           `json:"discountAmount"`
	TaxRate        types.Money           `json:"taxRate"`
	TaxAmount      types.Money           `json:"taxAmount"`
	GrandTotal     types.Money           `json:"grandTotal"`
	PaymentMethod  *string               `json:"paymentMethod,omitempty"`
	PaymentStatus  string                `json:"paymentStatus"`
	ShopID         int64                 `json:"shopId"`
	CreatedByID    int64                 `json:"createdById"`
	CreatedAt      time.Time             `json:"createdAt"`
	Items          []InvoiceItemResponse `json:"items"`
}

// FromInvoice converts an invoice.
func FromInvoice(inv *invoice.Invoice) InvoiceResponse {
	items := make([]InvoiceItemResponse, 0, len(inv.Items))
	for _, it := range inv.Items {
		items = append(items, InvoiceItemResponse{
			ID:         it.ID,
			LineNo:     it.LineNo,
			ProductID:  it.ProductID,
			Quantity:   it.Quantity,
			Price:      it.Price,
			TotalPrice: it.TotalPrice,
		})
	}
	return InvoiceResponse{
		ID:             inv.ID,
		InvoiceNumber:  inv.InvoiceNumber,
		CustomerName:   inv.CustomerName,
		CustomerEmail:  inv.CustomerEmail,
		SubTotal:       inv.SubTotal,
		DiscountType:   string(inv.DiscountType),
		DiscountValue:  inv.DiscountValue,
		DiscountAmount: inv.DiscountAmount,
		TaxRate:        inv.TaxRate,
		TaxAmount:      inv.TaxAmount,
		GrandTotal:     inv.GrandTotal,
		PaymentMethod:  inv.PaymentMethod,
		PaymentStatus:  string(inv.PaymentStatus),
		ShopID:         inv.ShopID,
		CreatedByID:    inv.CreatedByID,
		CreatedAt:      inv.CreatedAt,
		Items:          items,
	}
}

// InvoiceListQuery filters GET /invoices. Dates are YYYY-MM-DD, both inclusive.
type InvoiceListQuery struct {
	ListQuery
	ShopID   *int64 `form:"shopId"`
	Status   string `form:"status"`
	DateFrom string `form:"dateFrom"`
	DateTo   string `form:"dateTo"`
}

const dateLayout = "2006-01-02"

// ToFilter converts the query, rejecting unknown statuses and malformed dates.
func (q InvoiceListQuery) ToFilter() (invoice.ListFilter, error) {
	f := invoice.ListFilter{
		ListFilter: q.ListQuery.ToFilter(),
		ShopID:     q.ShopID,
	}
	if q.Status != "" {
		status, err := invoice.ParsePaymentStatus(q.Status)
		if err != nil {
			return f, err
		}
		f.PaymentStatus = &status
	}
	if q.DateFrom != "" {
		from, err := time.Parse(dateLayout, q.DateFrom)
		if err != nil {
			return f, apperror.NewValidation("dateFrom must be YYYY-MM-DD").WithDetail("field", "dateFrom")
		}
		f.DateFrom = &from
	}
	if q.DateTo != "" {
		to, err := time.Parse(dateLayout, q.DateTo)
		if err != nil {
			return f, apperror.NewValidation("dateTo must be YYYY-MM-DD").WithDetail("field", "dateTo")
		}
		// Inclusive: the whole day counts.
		end := to.AddDate(0, 0, 1).Add(-time.Nanosecond)
		f.DateTo = &end
	}
	return f, nil
}
