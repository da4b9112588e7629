// Package testutil sets up in-memory databases and fixtures for package tests.
package testutil

import (
	"fmt"
	"testing"

	"tussles/internal/database"
	"tussles/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewTestDB opens a private in-memory SQLite database with every table migrated.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}
	// The database lives only as long as its one connection.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return db
}

// CreateUser inserts an active user with the given role and monthly salary
// ("" for none).
func CreateUser(t *testing.T, db *gorm.DB, role, salary string) *model.User {
	t.Helper()

	user := &model.User{
		FullName: role + " user",
		Email:    fmt.Sprintf("%s-%s@tussles.test", role, uuid.NewString()[:8]),
		Role:     role,
		IsActive: true,
	}
	if salary != "" {
		user.Salary = decimal.NewNullDecimal(decimal.RequireFromString(salary))
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	return user
}

// CreateCompany inserts a company with the given name.
func CreateCompany(t *testing.T, db *gorm.DB, name string) *model.Company {
	t.Helper()

	company := &model.Company{Name: name}
	if err := db.Create(company).Error; err != nil {
		t.Fatalf("Failed to create company: %v", err)
	}
	return company
}
