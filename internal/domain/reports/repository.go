package reports

import (
	"context"
	"time"
)

// Repository defines report data access. A nil shopID covers every shop.
type Repository interface {
	Summary(ctx context.Context, q SummaryQuery) (*Summary, error)

	// DailyRevenue returns one point per day with sales on or after from, ascending.
	DailyRevenue(ctx context.Context, shopID *int64, from time.Time) ([]RevenuePoint, error)

	// MonthlyRevenue returns one point per month with sales on or after from, ascending.
	MonthlyRevenue(ctx context.Context, shopID *int64, from time.Time) ([]RevenuePoint, error)

	// SalesByShop returns one row per shop, including shops without sales.
	SalesByShop(ctx context.Context, shopID *int64) ([]SalesRow, error)
}
