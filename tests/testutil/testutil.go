package testutil

import (
	"os"
	"testing"

	"github.com/wineprocure/procurement-api/config"
	"github.com/wineprocure/procurement-api/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// RequireTestEnvironmentOrSkip skips tests that need external services
// (a real Postgres or Redis) unless GO_ENV=test is set.
func RequireTestEnvironmentOrSkip(t *testing.T) {
	t.Helper()

	env := os.Getenv("GO_ENV")
	if env != "test" {
		t.Skipf("Skipping test: GO_ENV must be 'test' (current: %q)", env)
	}
}

// SetupTestDB opens a fresh in-memory SQLite database with every model
// migrated and installs it as the shared connection.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	// Each connection to :memory: is a separate database
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get test database handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.AutoMigrate(&models.User{}, &models.RFQ{}, &models.Quote{}, &models.Offender{}); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	config.SetDB(db)
	return db
}

// CreateUser inserts a user with the given role and company
func CreateUser(t *testing.T, db *gorm.DB, auth0ID, email, role, company string) *models.User {
	t.Helper()

	user := &models.User{
		Auth0ID: auth0ID,
		Name:    email,
		Email:   email,
		Role:    role,
		Company: company,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create user %s: %v", email, err)
	}
	return user
}
