package reports

import (
	"context"
	"fmt"
	"time"

	"invoicehub/internal/core/apperror"
	"invoicehub/internal/core/security"
	"invoicehub/internal/core/tenant"
	"invoicehub/internal/core/tx"
	"invoicehub/internal/core/types"
)

const (
	DefaultDays   = 7
	MaxDays       = 366
	DefaultMonths = 6
	MaxMonths     = 36
)

// Service provides report generation operations.
// Shop admins always see their own shop; super admins see all shops or the one they ask for.
type Service struct {
	repo      Repository
	txManager tx.ReadOnlyManager
	now       func() time.Time
}

// NewService creates a new reports service.
func NewService(repo Repository, txManager tx.ReadOnlyManager) *Service {
	return &Service{repo: repo, txManager: txManager, now: time.Now}
}

// Summary returns the dashboard headline figures.
func (s *Service) Summary(ctx context.Context, caller security.Caller, shopID *int64) (*Summary, error) {
	scope, err := tenant.ScopeFilter(caller, shopID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	dayStart := startOfDay(now)
	q := SummaryQuery{
		ShopID:     scope,
		DayStart:   dayStart,
		MonthStart: time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC),
	}

	var summary *Summary
	err = s.txManager.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		summary, err = s.repo.Summary(ctx, q)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get dashboard summary: %w", err)
	}
	return summary, nil
}

// DailyRevenue returns revenue of the last days days, today included. Days without sales are zero.
func (s *Service) DailyRevenue(ctx context.Context, caller security.Caller, shopID *int64, days int) ([]RevenuePoint, error) {
	if days == 0 {
		days = DefaultDays
	}
	if days < 1 || days > MaxDays {
		return nil, apperror.NewValidation(fmt.Sprintf("days must be between 1 and %d", MaxDays)).WithDetail("field", "days")
	}
	scope, err := tenant.ScopeFilter(caller, shopID)
	if err != nil {
		return nil, err
	}

	from := startOfDay(s.now().UTC()).AddDate(0, 0, -(days - 1))

	var points []RevenuePoint
	err = s.txManager.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		points, err = s.repo.DailyRevenue(ctx, scope, from)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get daily revenue: %w", err)
	}

	return fillSeries(points, from, days, func(t time.Time, i int) time.Time { return t.AddDate(0, 0, i) }, time.DateOnly), nil
}

// MonthlyRevenue returns revenue of the last months months, the current one included.
func (s *Service) MonthlyRevenue(ctx context.Context, caller security.Caller, shopID *int64, months int) ([]RevenuePoint, error) {
	if months == 0 {
		months = DefaultMonths
	}
	if months < 1 || months > MaxMonths {
		return nil, apperror.NewValidation(fmt.Sprintf("months must be between 1 and %d", MaxMonths)).WithDetail("field", "months")
	}
	scope, err := tenant.ScopeFilter(caller, shopID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(months - 1), 0)

	var points []RevenuePoint
	err = s.txManager.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		points, err = s.repo.MonthlyRevenue(ctx, scope, from)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get monthly revenue: %w", err)
	}

	return fillSeries(points, from, months, func(t time.Time, i int) time.Time { return t.AddDate(0, i, 0) }, "2006-01"), nil
}

// SalesSummary returns revenue per shop.
func (s *Service) SalesSummary(ctx context.Context, caller security.Caller, shopID *int64) (*SalesSummary, error) {
	scope, err := tenant.ScopeFilter(caller, shopID)
	if err != nil {
		return nil, err
	}

	var rows []SalesRow
	err = s.txManager.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		rows, err = s.repo.SalesByShop(ctx, scope)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get sales summary: %w", err)
	}

	out := &SalesSummary{Shops: rows, TotalSales: types.Zero()}
	for _, r := range rows {
		out.TotalSales = out.TotalSales.Add(r.TotalSales)
		out.TotalInvoices += r.TotalInvoices
	}
	if out.Shops == nil {
		out.Shops = []SalesRow{}
	}
	return out, nil
}

// fillSeries returns n consecutive periods starting at from, taking totals from points and zero elsewhere.
func fillSeries(points []RevenuePoint, from time.Time, n int, step func(time.Time, int) time.Time, layout string) []RevenuePoint {
	byLabel := make(map[string]types.Money, len(points))
	for _, p := range points {
		byLabel[p.Period.UTC().Format(layout)] = p.Total
	}

	series := make([]RevenuePoint, n)
	for i := range series {
		period := step(from, i)
		label := period.Format(layout)
		total, ok := byLabel[label]
		if !ok {
			total = types.Zero()
		}
		series[i] = RevenuePoint{Period: period, Label: label, Total: total}
	}
	return series
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
