package repository

import (
	"context"
	"errors"
	"time"

	"tussles/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrOrderNotAwaiting is returned by MarkApproved when another request moved
// the order out of awaiting_approval first.
var ErrOrderNotAwaiting = errors.New("order is no longer awaiting approval")

type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	List(ctx context.Context, status string) ([]model.Order, error)
	ListCompleted(ctx context.Context, limit int) ([]model.Order, error)
	ListCompletedBetween(ctx context.Context, start, end *time.Time) ([]model.Order, error)
	ListRecentlyCompleted(ctx context.Context, limit int) ([]model.Order, error)
	MarkApproved(ctx context.Context, order *model.Order) error
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func withRelations(db *gorm.DB) *gorm.DB {
	return db.Preload("Company").Preload("Creator").Preload("Approver")
}

func (r *orderRepository) Create(ctx context.Context, order *model.Order) error {
	return GetDB(ctx, r.db).Create(order).Error
}

func (r *orderRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var order model.Order
	if err := withRelations(GetDB(ctx, r.db)).First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) List(ctx context.Context, status string) ([]model.Order, error) {
	var orders []model.Order

	query := withRelations(GetDB(ctx, r.db))
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *orderRepository) ListCompleted(ctx context.Context, limit int) ([]model.Order, error) {
	var orders []model.Order
	if err := withRelations(GetDB(ctx, r.db)).
		Where("status = ?", model.OrderStatusCompleted).
		Order("approved_at DESC NULLS LAST").Order("completed_at DESC").
		Limit(limit).
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *orderRepository) ListCompletedBetween(ctx context.Context, start, end *time.Time) ([]model.Order, error) {
	var orders []model.Order

	query := GetDB(ctx, r.db).Preload("Company").
		Where("status = ? AND completed_at IS NOT NULL", model.OrderStatusCompleted)
	if start != nil {
		query = query.Where("completed_at >= ?", *start)
	}
	if end != nil {
		query = query.Where("completed_at <= ?", *end)
	}
	if err := query.Order("completed_at ASC").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *orderRepository) ListRecentlyCompleted(ctx context.Context, limit int) ([]model.Order, error) {
	var orders []model.Order
	if err := GetDB(ctx, r.db).
		Where("status = ? AND completed_at IS NOT NULL", model.OrderStatusCompleted).
		Order("completed_at DESC").
		Limit(limit).
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// MarkApproved persists an approval only if the row is still awaiting
// approval, so two concurrent approvals cannot both succeed.
func (r *orderRepository) MarkApproved(ctx context.Context, order *model.Order) error {
	result := GetDB(ctx, r.db).Model(&model.Order{}).
		Where("id = ? AND status = ?", order.ID, model.OrderStatusAwaitingApproval).
		Updates(map[string]interface{}{
			"status":       order.Status,
			"approved_by":  *order.ApprovedBy,
			"approved_at":  *order.ApprovedAt,
			"completed_at": *order.CompletedAt,
			"updated_at":   *order.CompletedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrOrderNotAwaiting
	}
	return nil
}
