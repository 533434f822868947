package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wazadio/bot/v1/models"
	"github.com/wazadio/bot/v1/repository"
	"gorm.io/gorm"
)

func newEvictionFixture(t *testing.T) (*EvictionService, *mockBotAPI, *gorm.DB) {
	t.Helper()
	db := SetupSQLiteTestDB(t)
	store := repository.NewGormMemberStore(db)
	mockBot := &mockBotAPI{}

	service := NewEvictionService(store, mockBot, testGroupID)
	service.itemDelay = 0
	service.pageDelay = 0
	return service, mockBot, db
}

// seedExpiredJoined inserts n expired active members who hold a live group
// membership, with ids starting at 1.
func seedExpiredJoined(t *testing.T, db *gorm.DB, n int) {
	t.Helper()
	expired := time.Now().Add(-48 * time.Hour)
	for i := 1; i <= n; i++ {
		member := seedMember(t, db, int64(i), fmt.Sprintf("0812345678%02d", i), expired)
		member.UserTelegramID = int64Ptr(int64(700000 + i))
		member.HasJoinedTelegramGroup = true
		require.NoError(t, db.Save(member).Error)
	}
}

func TestRunEvictionPass_PagesThroughAllExpiredMembers(t *testing.T) {
	service, _, db := newEvictionFixture(t)
	seedExpiredJoined(t, db, 45)

	stats, err := service.RunEvictionPass(context.Background(), time.Now())

	require.NoError(t, err)
	assert.Equal(t, 45, stats.Evicted)
	assert.Equal(t, 0, stats.Failed)
	assert.Equal(t, 3, stats.Pages)

	var stillJoined int64
	require.NoError(t, db.Model(&models.Member{}).Where("has_joined_telegram_group = ?", true).Count(&stillJoined).Error)
	assert.Equal(t, int64(0), stillJoined)
}

// Running a second pass right after the first evicts nobody.
func TestRunEvictionPass_SecondPassEvictsNothing(t *testing.T) {
	service, _, db := newEvictionFixture(t)
	seedExpiredJoined(t, db, 5)

	first, err := service.RunEvictionPass(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, 5, first.Evicted)

	second, err := service.RunEvictionPass(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, 0, second.Evicted)
	assert.Equal(t, 0, second.Failed)
}

// One member's remote failure must not stop the rest of the pass, and the
// failed member's record must stay untouched for the next pass.
func TestRunEvictionPass_FailureDoesNotAbortPass(t *testing.T) {
	service, mockBot, db := newEvictionFixture(t)
	seedExpiredJoined(t, db, 3)

	mockBot.BanMemberFunc = func(ctx context.Context, chatID, userID int64) error {
		if userID == 700002 {
			return errors.New("bot API timeout")
		}
		return nil
	}

	stats, err := service.RunEvictionPass(context.Background(), time.Now())

	require.NoError(t, err)
	assert.Equal(t, 2, stats.Evicted)
	assert.Equal(t, 1, stats.Failed)

	var failed models.Member
	require.NoError(t, db.First(&failed, "id = ?", 2).Error)
	assert.True(t, failed.HasJoinedTelegramGroup)
	require.NotNil(t, failed.UserTelegramID)
	assert.Equal(t, int64(700002), *failed.UserTelegramID)

	// The failed member is picked up by the next pass once the outage ends
	mockBot.BanMemberFunc = nil
	retry, err := service.RunEvictionPass(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, retry.Evicted)
}

// An unban failure counts as a failure too: the record is kept as joined so
// the next pass redoes the ban/unban pair (the only-if-banned flag makes
// that safe).
func TestRunEvictionPass_UnbanFailureKeepsMemberForRetry(t *testing.T) {
	service, mockBot, db := newEvictionFixture(t)
	seedExpiredJoined(t, db, 1)

	mockBot.UnbanIfBannedFunc = func(ctx context.Context, chatID, userID int64) error {
		return errors.New("bot API timeout")
	}

	stats, err := service.RunEvictionPass(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Evicted)
	assert.Equal(t, 1, stats.Failed)

	var member models.Member
	require.NoError(t, db.First(&member, "id = ?", 1).Error)
	assert.True(t, member.HasJoinedTelegramGroup)
}

// Expired members who never joined the group have nothing to revoke.
func TestRunEvictionPass_SkipsUnlinkedMembers(t *testing.T) {
	service, _, db := newEvictionFixture(t)
	expired := time.Now().Add(-48 * time.Hour)
	seedMember(t, db, 1, "081234567801", expired)
	member := seedMember(t, db, 2, "081234567802", expired)
	member.UserTelegramID = int64Ptr(700002)
	member.HasJoinedTelegramGroup = true
	require.NoError(t, db.Save(member).Error)

	stats, err := service.RunEvictionPass(context.Background(), time.Now())

	require.NoError(t, err)
	assert.Equal(t, 1, stats.Evicted)
	assert.Equal(t, 0, stats.Failed)
}

// Members whose paid term is still running are never touched.
func TestRunEvictionPass_IgnoresCurrentMembers(t *testing.T) {
	service, _, db := newEvictionFixture(t)
	member := seedMember(t, db, 1, "081234567801", time.Now().Add(30*24*time.Hour))
	member.UserTelegramID = int64Ptr(700001)
	member.HasJoinedTelegramGroup = true
	require.NoError(t, db.Save(member).Error)

	stats, err := service.RunEvictionPass(context.Background(), time.Now())

	require.NoError(t, err)
	assert.Equal(t, 0, stats.Evicted)

	var stored models.Member
	require.NoError(t, db.First(&stored, "id = ?", 1).Error)
	assert.True(t, stored.HasJoinedTelegramGroup)
}

// Cancellation is honored at page boundaries: a cancelled context stops the
// pass before the next page is fetched.
func TestRunEvictionPass_CancelledContextStopsAtPageBoundary(t *testing.T) {
	service, _, db := newEvictionFixture(t)
	seedExpiredJoined(t, db, 45)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stats, err := service.RunEvictionPass(ctx, time.Now())

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, stats.Evicted)
}
