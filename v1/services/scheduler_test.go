package services

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	svcerrors "github.com/wazadio/bot/pkg/errors"
	"github.com/wazadio/bot/v1/models"
	"github.com/wazadio/bot/v1/repository"
)

func newSchedulerFixture(t *testing.T, timeOfDay string) (*Scheduler, *EvictionService) {
	t.Helper()
	db := SetupSQLiteTestDB(t)
	store := repository.NewGormMemberStore(db)
	eviction := NewEvictionService(store, &mockBotAPI{}, testGroupID)
	eviction.itemDelay = 0
	eviction.pageDelay = 0

	scheduler, err := NewScheduler(eviction, timeOfDay)
	require.NoError(t, err)
	return scheduler, eviction
}

func TestNewScheduler_RejectsBadTimeOfDay(t *testing.T) {
	db := SetupSQLiteTestDB(t)
	eviction := NewEvictionService(repository.NewGormMemberStore(db), &mockBotAPI{}, testGroupID)

	_, err := NewScheduler(eviction, "25:99")
	assert.Error(t, err)

	_, err = NewScheduler(eviction, "midnight")
	assert.Error(t, err)
}

func TestScheduler_NextRunTime(t *testing.T) {
	scheduler, _ := newSchedulerFixture(t, "00:01")
	scheduler.now = func() time.Time {
		return time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
	}

	// Not running yet
	assert.Nil(t, scheduler.NextRunTime())

	scheduler.Start()
	defer scheduler.Stop()

	next := scheduler.NextRunTime()
	require.NotNil(t, next)
	assert.Equal(t, time.Date(2024, 3, 16, 0, 1, 0, 0, time.UTC), *next)
}

func TestScheduler_NextRunTimeLaterToday(t *testing.T) {
	scheduler, _ := newSchedulerFixture(t, "23:30")
	scheduler.now = func() time.Time {
		return time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
	}

	scheduler.Start()
	defer scheduler.Stop()

	next := scheduler.NextRunTime()
	require.NotNil(t, next)
	assert.Equal(t, time.Date(2024, 3, 15, 23, 30, 0, 0, time.UTC), *next)
}

func TestScheduler_StartIsIdempotent(t *testing.T) {
	scheduler, _ := newSchedulerFixture(t, "00:01")

	scheduler.Start()
	scheduler.Start() // warned no-op
	defer scheduler.Stop()

	assert.NotNil(t, scheduler.NextRunTime())
}

func TestScheduler_StopClearsSchedule(t *testing.T) {
	scheduler, _ := newSchedulerFixture(t, "00:01")

	scheduler.Start()
	scheduler.Stop()

	assert.Nil(t, scheduler.NextRunTime())

	// Stopping again is a no-op
	scheduler.Stop()
}

func TestScheduler_RunNow(t *testing.T) {
	scheduler, _ := newSchedulerFixture(t, "00:01")

	stats, err := scheduler.RunNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Evicted)
	assert.Equal(t, 0, stats.Failed)
}

func TestScheduler_RunNowRefusesOverlap(t *testing.T) {
	scheduler, _ := newSchedulerFixture(t, "00:01")

	// Simulate a pass already in flight
	require.True(t, scheduler.passInFlight.CompareAndSwap(false, true))
	defer scheduler.passInFlight.Store(false)

	_, err := scheduler.RunNow(context.Background())
	require.Error(t, err)
	assert.True(t, svcerrors.IsType(err, svcerrors.ErrorTypeBusiness))
}

// A due tick fires a pass on the background goroutine.
func TestScheduler_FiresWhenDue(t *testing.T) {
	db := SetupSQLiteTestDB(t)
	store := repository.NewGormMemberStore(db)
	eviction := NewEvictionService(store, &mockBotAPI{}, testGroupID)
	eviction.itemDelay = 0
	eviction.pageDelay = 0

	// Expired well before the simulated clock below
	member := seedMember(t, db, 1, "081234567890", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	member.UserTelegramID = int64Ptr(700001)
	member.HasJoinedTelegramGroup = true
	require.NoError(t, db.Save(member).Error)

	scheduler, err := NewScheduler(eviction, "00:01")
	require.NoError(t, err)
	scheduler.pollInterval = 10 * time.Millisecond

	var clock atomic.Value
	clock.Store(time.Date(2024, 3, 15, 0, 0, 59, 0, time.UTC))
	scheduler.now = func() time.Time { return clock.Load().(time.Time) }

	scheduler.Start()
	defer scheduler.Stop()

	// Move the clock past the trigger time
	clock.Store(time.Date(2024, 3, 15, 0, 1, 30, 0, time.UTC))

	assert.Eventually(t, func() bool {
		var stored models.Member
		if err := db.First(&stored, "id = ?", 1).Error; err != nil {
			return false
		}
		return !stored.HasJoinedTelegramGroup
	}, 2*time.Second, 20*time.Millisecond)
}
