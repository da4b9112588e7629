package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Role constants
const (
	RoleOwner    = "owner"
	RoleEmployee = "employee"
)

// User is the profile row kept next to the auth provider's identity.
// The role is assigned at signup and only read here.
type User struct {
	ID        uuid.UUID           `gorm:"type:uuid;primaryKey" json:"id"`
	FullName  string              `gorm:"type:varchar(255)" json:"full_name"`
	Email     string              `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Role      string              `gorm:"type:varchar(20);not null;default:'employee'" json:"role"`
	Salary    decimal.NullDecimal `gorm:"type:decimal(14,2)" json:"salary"`
	IsActive  bool                `gorm:"not null" json:"is_active"`
	CreatedAt time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// UserSummary is the public profile embedded in order and audit payloads.
// It reads the users table but never selects salary or activity.
type UserSummary struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	FullName string    `json:"full_name"`
	Email    string    `json:"email"`
	Role     string    `json:"role"`
}

func (UserSummary) TableName() string {
	return "users"
}

// MonthlySalary returns the salary or zero when unset.
func (u *User) MonthlySalary() decimal.Decimal {
	if !u.Salary.Valid {
		return decimal.Zero
	}
	return u.Salary.Decimal
}
