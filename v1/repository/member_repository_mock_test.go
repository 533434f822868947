package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	svcerrors "github.com/wazadio/bot/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupMockDB creates a sqlmock-backed GORM connection for failure injection
func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	var db *sql.DB
	var mock sqlmock.Sqlmock
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	dialector := postgres.New(postgres.Config{
		Conn:       db,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("failed to open gorm db: %v", err)
	}

	return gormDB, mock
}

// A store outage surfaces as a database-typed error, not as a not-found.
func TestFindActivePaidByPhone_StoreFailure(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	store := NewGormMemberStore(gormDB)

	mock.ExpectQuery(`SELECT \* FROM "tbl_member"`).
		WillReturnError(errors.New("connection reset by peer"))

	member, err := store.FindActivePaidByPhone(context.Background(), "081234567890")

	require.Error(t, err)
	assert.Nil(t, member)
	assert.True(t, svcerrors.IsDatabase(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPageExpiredActive_StoreFailure(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	store := NewGormMemberStore(gormDB)

	mock.ExpectQuery(`SELECT \* FROM "tbl_member"`).
		WillReturnError(errors.New("server closed the connection"))

	members, err := store.PageExpiredActive(context.Background(), time.Now(), 20, 0)

	require.Error(t, err)
	assert.Nil(t, members)
	assert.True(t, svcerrors.IsDatabase(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}
