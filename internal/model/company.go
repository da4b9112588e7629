package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Company is a customer that orders are raised against.
// Names are matched case-insensitively.
type Company struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name          string     `gorm:"type:varchar(255);not null" json:"name"`
	NameKey       string     `gorm:"type:varchar(255);not null;uniqueIndex" json:"-"`
	ContactPerson string     `gorm:"type:varchar(255)" json:"contact_person"`
	Phone         string     `gorm:"type:varchar(50)" json:"phone"`
	Email         string     `gorm:"type:varchar(255)" json:"email"`
	Address       string     `gorm:"type:text" json:"address"`
	CreatedBy     *uuid.UUID `gorm:"type:uuid" json:"created_by"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (Company) TableName() string {
	return "companies"
}

// CompanyNameKey is the normalized form names are matched on.
func CompanyNameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (c *Company) BeforeSave(tx *gorm.DB) error {
	c.NameKey = CompanyNameKey(c.Name)
	return nil
}

func (c *Company) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
