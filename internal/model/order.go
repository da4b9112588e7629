package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderStatus constants
const (
	OrderStatusAwaitingApproval = "awaiting_approval"
	OrderStatusCompleted        = "completed"
)

// ValidOrderStatus reports whether s is a member of the order status enum.
func ValidOrderStatus(s string) bool {
	return s == OrderStatusAwaitingApproval || s == OrderStatusCompleted
}

// Order is a manufacturing work item ("tussle") raised against a company.
type Order struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	CompanyID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"company_id"`
	Company      *Company        `gorm:"foreignKey:CompanyID" json:"company,omitempty"`
	Quantity     int             `gorm:"not null;check:quantity > 0" json:"quantity"`
	PricePerUnit decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"price_per_unit"`
	TotalAmount  decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"total_amount"` // fixed at creation
	MaterialCost decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"material_cost"`
	LaborCost    decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"labor_cost"`
	DueDate      time.Time       `gorm:"type:date;not null" json:"due_date"`
	Notes        string          `gorm:"type:text" json:"notes"`
	ImageURL     *string         `gorm:"type:text" json:"image_url"`
	Status       string          `gorm:"type:varchar(30);not null;default:'awaiting_approval';index" json:"status"`
	CreatedBy    uuid.UUID       `gorm:"type:uuid;not null;index" json:"created_by"`
	Creator      *UserSummary    `gorm:"foreignKey:CreatedBy" json:"creator,omitempty"`
	ApprovedBy   *uuid.UUID      `gorm:"type:uuid" json:"approved_by"`
	Approver     *UserSummary    `gorm:"foreignKey:ApprovedBy" json:"approver,omitempty"`
	CreatedAt    time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	ApprovedAt   *time.Time      `json:"approved_at"`
	CompletedAt  *time.Time      `gorm:"index" json:"completed_at"`
}

func (Order) TableName() string {
	return "orders"
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.Status == "" {
		o.Status = OrderStatusAwaitingApproval
	}
	if !ValidOrderStatus(o.Status) {
		return fmt.Errorf("invalid order status %q", o.Status)
	}
	return nil
}

// SellPrice is the revenue an order contributes once completed.
func (o *Order) SellPrice() decimal.Decimal {
	return o.TotalAmount
}

// COGS is material plus labor cost.
func (o *Order) COGS() decimal.Decimal {
	return o.MaterialCost.Add(o.LaborCost)
}

// GrossProfit is sell price minus COGS.
func (o *Order) GrossProfit() decimal.Decimal {
	return o.SellPrice().Sub(o.COGS())
}

// FinishedAt is completed_at when set, otherwise updated_at.
func (o *Order) FinishedAt() time.Time {
	if o.CompletedAt != nil {
		return *o.CompletedAt
	}
	return o.UpdatedAt
}
