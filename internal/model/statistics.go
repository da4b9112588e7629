package model

import "github.com/shopspring/decimal"

// RevenueSummaryRow is a per-status rollup of orders.
type RevenueSummaryRow struct {
	Status       string          `gorm:"column:status" json:"status"`
	OrderCount   int64           `gorm:"column:order_count" json:"order_count"`
	TotalRevenue decimal.Decimal `gorm:"column:total_revenue" json:"total_revenue"`
}

// DashboardStats is the owner dashboard headline.
type DashboardStats struct {
	TotalExpectedRevenue decimal.Decimal     `json:"total_expected_revenue"`
	PendingApprovals     int64               `json:"pending_approvals"`
	RevenueSummary       []RevenueSummaryRow `json:"revenue_summary"`
}
