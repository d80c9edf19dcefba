// Package report_repo provides PostgreSQL implementations for report repositories.
package report_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"invoicehub/internal/domain/reports"
	"invoicehub/internal/infrastructure/storage/postgres"
)

// ReportRepo implements reports.Repository.
type ReportRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewReportRepo creates a new report repository.
func NewReportRepo(txManager *postgres.TxManager) *ReportRepo {
	return &ReportRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var _ reports.Repository = (*ReportRepo)(nil)

func scopeToShop(q squirrel.SelectBuilder, column string, shopID *int64) squirrel.SelectBuilder {
	if shopID != nil {
		return q.Where(squirrel.Eq{column: *shopID})
	}
	return q
}

func (r *ReportRepo) summaryQuery(q reports.SummaryQuery) (string, []any, error) {
	sel := r.builder.
		Select(
			"COALESCE(SUM(grand_total), 0) AS total_revenue",
			"COUNT(*) AS total_invoices",
			"COALESCE(SUM(discount_amount), 0) AS total_discount",
			"COALESCE(SUM(tax_amount), 0) AS total_tax",
			"COUNT(*) FILTER (WHERE payment_status = 'paid') AS paid_invoices",
			"COUNT(*) FILTER (WHERE payment_status = 'pending') AS pending_invoices",
			"COUNT(*) FILTER (WHERE payment_status = 'failed') AS failed_invoices",
		).
		Column(squirrel.Expr("COALESCE(SUM(grand_total) FILTER (WHERE created_at >= ?), 0) AS today_revenue", q.DayStart)).
		Column(squirrel.Expr("COALESCE(SUM(grand_total) FILTER (WHERE created_at >= ?), 0) AS monthly_revenue", q.MonthStart)).
		From("invoices")
	return scopeToShop(sel, "shop_id", q.ShopID).ToSql()
}

// Summary implements reports.Repository.
func (r *ReportRepo) Summary(ctx context.Context, q reports.SummaryQuery) (*reports.Summary, error) {
	sql, args, err := r.summaryQuery(q)
	if err != nil {
		return nil, fmt.Errorf("build summary query: %w", err)
	}

	var summary reports.Summary
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &summary, sql, args...); err != nil {
		return nil, fmt.Errorf("query summary: %w", err)
	}
	return &summary, nil
}

// revenueQuery groups grand totals by UTC day or month.
func (r *ReportRepo) revenueQuery(unit string, shopID *int64, from time.Time) (string, []any, error) {
	period := fmt.Sprintf("date_trunc('%s', created_at AT TIME ZONE 'UTC')", unit)
	sel := r.builder.
		Select(period+" AS period", "COALESCE(SUM(grand_total), 0) AS total").
		From("invoices").
		Where(squirrel.GtOrEq{"created_at": from})
	return scopeToShop(sel, "shop_id", shopID).
		GroupBy("1").
		OrderBy("1").
		ToSql()
}

func (r *ReportRepo) revenue(ctx context.Context, unit string, shopID *int64, from time.Time) ([]reports.RevenuePoint, error) {
	sql, args, err := r.revenueQuery(unit, shopID, from)
	if err != nil {
		return nil, fmt.Errorf("build revenue query: %w", err)
	}

	var points []reports.RevenuePoint
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &points, sql, args...); err != nil {
		return nil, fmt.Errorf("query %s revenue: %w", unit, err)
	}
	return points, nil
}

// DailyRevenue implements reports.Repository.
func (r *ReportRepo) DailyRevenue(ctx context.Context, shopID *int64, from time.Time) ([]reports.RevenuePoint, error) {
	return r.revenue(ctx, "day", shopID, from)
}

// MonthlyRevenue implements reports.Repository.
func (r *ReportRepo) MonthlyRevenue(ctx context.Context, shopID *int64, from time.Time) ([]reports.RevenuePoint, error) {
	return r.revenue(ctx, "month", shopID, from)
}

func (r *ReportRepo) salesByShopQuery(shopID *int64) (string, []any, error) {
	sel := r.builder.
		Select(
			"o.id AS shop_id",
			"o.name AS shop_name",
			"COALESCE(SUM(i.grand_total), 0) AS total_sales",
			"COUNT(i.id) AS total_invoices",
		).
		From("organizations o").
		LeftJoin("invoices i ON i.shop_id = o.id")
	return scopeToShop(sel, "o.id", shopID).
		GroupBy("o.id", "o.name").
		OrderBy("o.id").
		ToSql()
}

// SalesByShop implements reports.Repository.
func (r *ReportRepo) SalesByShop(ctx context.Context, shopID *int64) ([]reports.SalesRow, error) {
	sql, args, err := r.salesByShopQuery(shopID)
	if err != nil {
		return nil, fmt.Errorf("build sales query: %w", err)
	}

	var rows []reports.SalesRow
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("query sales by shop: %w", err)
	}
	return rows, nil
}
