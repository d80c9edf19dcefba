// Package reports provides dashboard and sales reporting over invoices.
package reports

import (
	"time"

	"invoicehub/internal/core/types"
)

// Summary is the dashboard headline.
type Summary struct {
	TotalRevenue    types.Money `db:"total_revenue" json:"totalRevenue"`
	TodayRevenue    types.Money `db:"today_revenue" json:"todayRevenue"`
	MonthlyRevenue  types.Money `db:"monthly_revenue" json:"monthlyRevenue"`
	TotalInvoices   int64       `db:"total_invoices" json:"totalInvoices"`
	PaidInvoices    int64       `db:"paid_invoices" json:"paidInvoices"`
	PendingInvoices int64       `db:"pending_invoices" json:"pendingInvoices"`
	FailedInvoices  int64       `db:"failed_invoices" json:"failedInvoices"`
	TotalDiscount   types.Money `db:"total_discount" json:"totalDiscount"`
	TotalTax        types.Money `db:"total_tax" json:"totalTax"`
}

// SummaryQuery scopes a summary. Nil ShopID covers every shop.
type SummaryQuery struct {
	ShopID     *int64
	DayStart   time.Time
	MonthStart time.Time
}

// RevenuePoint is grand-total revenue of one day or month.
type RevenuePoint struct {
	Period time.Time   `db:"period" json:"-"`
	Label  string      `db:"-" json:"period"`
	Total  types.Money `db:"total" json:"total"`
}

// SalesRow is revenue of one shop.
type SalesRow struct {
	ShopID        int64       `db:"shop_id" json:"shopId"`
	ShopName      string      `db:"shop_name" json:"shopName"`
	TotalSales    types.Money `db:"total_sales" json:"totalSales"`
	TotalInvoices int64       `db:"total_invoices" json:"totalInvoices"`
}

// SalesSummary lists revenue per shop with a grand total.
type SalesSummary struct {
	Shops         []SalesRow  `json:"shops"`
	TotalSales    types.Money `json:"totalSales"`
	TotalInvoices int64       `json:"totalInvoices"`
}
