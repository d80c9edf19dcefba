package dto

// ShopScopeQuery selects the shop of dashboard endpoints. Ignored for shop admins.
type ShopScopeQuery struct {
	ShopID *int64 `form:"shopId"`
}

// DailyChartQuery is the query of GET /dashboard/charts/daily.
type DailyChartQuery struct {
	ShopScopeQuery
	Days int `form:"days"`
}

// MonthlyChartQuery is the query of GET /dashboard/charts/monthly.
type MonthlyChartQuery struct {
	ShopScopeQuery
	Months int `form:"months"`
}

// HistoryQuery is the query of audit history endpoints.
type HistoryQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=500"`
}
