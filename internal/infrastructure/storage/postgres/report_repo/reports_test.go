package report_repo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicehub/internal/domain/reports"
)

func TestReportRepo_SummaryQueryScopesToShop(t *testing.T) {
	r := NewReportRepo(nil)
	shopID := int64(4)
	day := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)
	month := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	sql, args, err := r.summaryQuery(reports.SummaryQuery{ShopID: &shopID, DayStart: day, MonthStart: month})
	require.NoError(t, err)

	assert.Contains(t, sql, "FILTER (WHERE created_at >= $1), 0) AS today_revenue")
	assert.Contains(t, sql, "FILTER (WHERE created_at >= $2), 0) AS monthly_revenue")
	assert.Contains(t, sql, "FROM invoices WHERE shop_id = $3")
	assert.Equal(t, []any{day, month, int64(4)}, args)
}

func TestReportRepo_SummaryQueryAllShops(t *testing.T) {
	sql, _, err := NewReportRepo(nil).summaryQuery(reports.SummaryQuery{})
	require.NoError(t, err)

	assert.NotContains(t, sql, "shop_id =")
}

func TestReportRepo_RevenueQueryGroupsByUTCPeriod(t *testing.T) {
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	sql, args, err := NewReportRepo(nil).revenueQuery("month", nil, from)
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT date_trunc('month', created_at AT TIME ZONE 'UTC') AS period, COALESCE(SUM(grand_total), 0) AS total "+
			"FROM invoices WHERE created_at >= $1 GROUP BY 1 ORDER BY 1",
		sql)
	assert.Equal(t, []any{from}, args)
}

func TestReportRepo_SalesByShopKeepsShopsWithoutSales(t *testing.T) {
	sql, _, err := NewReportRepo(nil).salesByShopQuery(nil)
	require.NoError(t, err)

	assert.Contains(t, sql, "FROM organizations o LEFT JOIN invoices i ON i.shop_id = o.id")
	assert.Contains(t, sql, "GROUP BY o.id, o.name")
}
