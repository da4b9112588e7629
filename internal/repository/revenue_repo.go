package repository

import (
	"context"
	"fmt"

	"tussles/internal/model"

	"gorm.io/gorm"
)

type RevenueRepository interface {
	Summary(ctx context.Context) ([]model.RevenueSummaryRow, error)
}

type revenueRepository struct {
	db *gorm.DB
}

func NewRevenueRepository(db *gorm.DB) RevenueRepository {
	return &revenueRepository{db: db}
}

// Summary groups every order by status with its count and summed total_amount.
func (r *revenueRepository) Summary(ctx context.Context) ([]model.RevenueSummaryRow, error) {
	var rows []model.RevenueSummaryRow
	if err := GetDB(ctx, r.db).Table("orders").
		Select("status, COUNT(*) AS order_count, COALESCE(SUM(total_amount), 0) AS total_revenue").
		Group("status").
		Order("status").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query revenue summary: %w", err)
	}
	return rows, nil
}
