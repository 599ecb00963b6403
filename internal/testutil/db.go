package testutil

import (
	"fmt"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	dbpkg "github.com/BruksfildServices01/counsel-console/internal/db"
	"github.com/BruksfildServices01/counsel-console/internal/models"
)

// NewDB opens a migrated in-memory sqlite database private to the test.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite db: %v", err)
	}

	if err := dbpkg.Migrate(db); err != nil {
		t.Fatalf("failed to migrate db: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	// one connection keeps background workers from hitting table locks
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return db
}

// SeedUser inserts a user with a unique email.
func SeedUser(t *testing.T, db *gorm.DB, name, role string) models.User {
	t.Helper()

	u := models.User{
		Name:  name,
		Email: fmt.Sprintf("%s-%s@example.test", strings.ReplaceAll(strings.ToLower(name), " ", "."), role),
		Role:  role,
	}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return u
}

// SeedBooking inserts b without touching its associations.
func SeedBooking(t *testing.T, db *gorm.DB, b *models.Booking) {
	t.Helper()

	if b.Status == "" {
		b.Status = "confirmed"
	}
	if err := db.Omit("Counselor", "Member", "Member2").Create(b).Error; err != nil {
		t.Fatalf("failed to seed booking: %v", err)
	}
}
