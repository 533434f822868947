package services

import (
	"testing"
	"time"

	"github.com/wazadio/bot/v1/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// SetupSQLiteTestDB creates an in-memory SQLite database for testing
func SetupSQLiteTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		t.Fatalf("Failed to connect to SQLite test database: %v", err)
	}

	if err := db.AutoMigrate(&models.Member{}); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return db
}

func int64Ptr(v int64) *int64 {
	return &v
}

func timePtr(t time.Time) *time.Time {
	return &t
}

// seedMember inserts a paid active member and returns it
func seedMember(t *testing.T, db *gorm.DB, id int64, phone string, membershipTime time.Time) *models.Member {
	t.Helper()

	member := &models.Member{
		ID:             id,
		FirstName:      "Member",
		LastName:       "Test",
		Phone:          phone,
		IsMembership:   true,
		IsActived:      true,
		MembershipTime: timePtr(membershipTime),
	}
	if err := db.Create(member).Error; err != nil {
		t.Fatalf("Failed to seed member: %v", err)
	}
	return member
}
