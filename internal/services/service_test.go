package services

import (
	"errors"
	"testing"

	"github.com/rsolano/tracklio/backend/internal/authz"
	"github.com/rsolano/tracklio/backend/internal/models"
	"github.com/rsolano/tracklio/backend/internal/utils"
	"github.com/rsolano/tracklio/backend/pkg/response"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// setupTestDB opens a fresh in-memory sqlite database per test.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	err = db.AutoMigrate(
		&models.Tenant{},
		&models.User{},
		&models.Project{},
		&models.Task{},
		&models.RefreshToken{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

func createTestTenant(t *testing.T, db *gorm.DB, name, subdomain string) *models.Tenant {
	t.Helper()
	tenant := &models.Tenant{Name: name, Subdomain: subdomain, Status: models.TenantStatusActive}
	if err := db.Create(tenant).Error; err != nil {
		t.Fatalf("failed to create tenant %q: %v", subdomain, err)
	}
	return tenant
}

func createTestUser(t *testing.T, db *gorm.DB, tenantID, email, role string) *models.User {
	t.Helper()
	hashed, err := utils.HashPassword("password123")
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	user := &models.User{
		TenantID: tenantID,
		Email:    email,
		Password: hashed,
		FullName: email,
		Role:     role,
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user %q: %v", email, err)
	}
	return user
}

func principalFor(user *models.User) authz.Principal {
	return authz.Principal{UserID: user.ID, TenantID: user.TenantID, Role: user.Role}
}

// wantStatus asserts that err is an *response.AppError with the given HTTP
// status.
func wantStatus(t *testing.T, err error, status int) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with status %d, got nil", status)
	}
	var appErr *response.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *response.AppError, got %T: %v", err, err)
	}
	if appErr.HTTPStatus != status {
		t.Fatalf("HTTPStatus = %d, expected %d (message: %s)", appErr.HTTPStatus, status, appErr.Message)
	}
}
