package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/wazadio/bot/bot"
	"github.com/wazadio/bot/pkg/monitoring"
	"github.com/wazadio/bot/v1/models"
	"github.com/wazadio/bot/v1/repository"
)

// EvictionService revokes group access for members whose paid term has
// lapsed. It pages through the store and processes each member
// independently, so one failure never aborts a pass.
type EvictionService struct {
	store     repository.MemberStore
	moderator bot.Moderator
	groupID   int64

	// pacing knobs, overridable in tests
	pageSize  int
	itemDelay time.Duration
	pageDelay time.Duration
}

// NewEvictionService creates a new eviction service with default pacing
func NewEvictionService(store repository.MemberStore, moderator bot.Moderator, groupID int64) *EvictionService {
	return &EvictionService{
		store:     store,
		moderator: moderator,
		groupID:   groupID,
		pageSize:  20,
		itemDelay: 1 * time.Second,
		pageDelay: 2 * time.Second,
	}
}

// RunEvictionPass scans every active member whose paid term ended at or
// before cutoff and revokes their group access. Members without a linked
// Telegram account are skipped. The returned stats are valid even when the
// pass ends early on a store failure or cancellation; evicting is
// idempotent, so anything left behind is picked up by the next pass.
func (s *EvictionService) RunEvictionPass(ctx context.Context, cutoff time.Time) (models.EvictionStats, error) {
	passID := uuid.New().String()
	start := time.Now()
	stats := models.EvictionStats{}

	monitoring.PassInFlightAdd(ctx, 1)
	defer monitoring.PassInFlightAdd(ctx, -1)
	defer func() {
		monitoring.RecordPassDuration(ctx, time.Since(start))
		monitoring.RecordEviction(ctx, "evicted", int64(stats.Evicted))
		monitoring.RecordEviction(ctx, "failed", int64(stats.Failed))
	}()

	slog.Info("Starting eviction pass", "passID", passID, "cutoff", cutoff)

	offset := 0
	for {
		// Cancellation is honored only between pages so no member is left
		// half-processed.
		if err := ctx.Err(); err != nil {
			slog.Warn("Eviction pass cancelled at page boundary", "passID", passID, "offset", offset)
			return stats, err
		}

		members, err := s.store.PageExpiredActive(ctx, cutoff, s.pageSize, offset)
		if err != nil {
			slog.Error("Failed to fetch expired members, aborting pass", "passID", passID, "offset", offset, "error", err)
			return stats, err
		}
		if len(members) == 0 {
			break
		}
		stats.Pages++

		for i := range members {
			s.evictMember(ctx, passID, &members[i], &stats)
			time.Sleep(s.itemDelay)
		}

		offset += s.pageSize
		time.Sleep(s.pageDelay)
	}

	slog.Info("Eviction pass completed", "passID", passID,
		"evicted", stats.Evicted, "failed", stats.Failed, "pages", stats.Pages)
	return stats, nil
}

func (s *EvictionService) evictMember(ctx context.Context, passID string, member *models.Member, stats *models.EvictionStats) {
	if member.UserTelegramID == nil {
		// Never admitted, or already evicted by an earlier pass.
		slog.Debug("Skipping expired member with no linked account", "passID", passID, "memberID", member.ID)
		return
	}
	userID := *member.UserTelegramID

	slog.Info("Evicting expired member", "passID", passID,
		"memberID", member.ID, "name", member.FullName(), "telegramUserID", userID)

	if err := s.moderator.BanMember(ctx, s.groupID, userID); err != nil {
		slog.Error("Failed to remove member from group", "passID", passID, "memberID", member.ID, "error", err)
		stats.Failed++
		return
	}

	// Lift the ban right away so the user can rejoin once they renew. The
	// only_if_banned flag keeps this retryable if the process dies between
	// the two calls.
	if err := s.moderator.UnbanIfBanned(ctx, s.groupID, userID); err != nil {
		slog.Error("Failed to lift removal for member", "passID", passID, "memberID", member.ID, "error", err)
		stats.Failed++
		return
	}

	member.UserTelegramID = nil
	member.HasJoinedTelegramGroup = false
	if err := s.store.Save(ctx, member); err != nil {
		// Access is revoked but the record still shows the member as
		// joined; the next pass will redo the ban/unban and retry the save.
		slog.Error("Failed to persist eviction", "passID", passID, "memberID", member.ID, "error", err)
		stats.Failed++
		return
	}

	stats.Evicted++
}
