package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/wazadio/bot/bot"
	"github.com/wazadio/bot/pkg/monitoring"
	"github.com/wazadio/bot/v1/models"
	"github.com/wazadio/bot/v1/repository"
	"github.com/wazadio/bot/v1/utils"
)

// AdmissionService decides whether a user may enter the group and drives the
// one-shot invite issuance
type AdmissionService struct {
	store   repository.MemberStore
	bot     bot.API
	groupID int64
	locks   memberLocks
}

// NewAdmissionService creates a new admission service
func NewAdmissionService(store repository.MemberStore, botAPI bot.API, groupID int64) *AdmissionService {
	return &AdmissionService{store: store, bot: botAPI, groupID: groupID}
}

// AdmitByPhone verifies a submitted phone number and, for a paid member who
// has not joined yet, issues a single-use invite link. The store is written
// exactly once per accepted admission and never on any other outcome.
func (s *AdmissionService) AdmitByPhone(ctx context.Context, rawPhone string, telegramUserID int64) models.AdmissionResult {
	phone, ok := utils.NormalizePhone(rawPhone)
	if !ok {
		return s.finish(ctx, models.AdmissionResult{Outcome: models.AdmissionInvalidPhone})
	}

	member, err := s.store.FindActivePaidByPhone(ctx, phone)
	if err != nil {
		slog.Error("Failed to look up member by phone", "error", err)
		return s.finish(ctx, models.AdmissionResult{Outcome: models.AdmissionStoreFailed})
	}
	if member == nil {
		slog.Warn("Phone number not registered", "telegramUserID", telegramUserID)
		return s.finish(ctx, models.AdmissionResult{Outcome: models.AdmissionNotFound})
	}

	// Serialize concurrent admissions for the same member so only one of
	// them can issue an invite.
	unlock := s.locks.lock(member.ID)
	defer unlock()

	// Re-read under the lock: another request may have completed admission
	// between the first lookup and here.
	member, err = s.store.FindActivePaidByPhone(ctx, phone)
	if err != nil {
		slog.Error("Failed to re-read member by phone", "error", err)
		return s.finish(ctx, models.AdmissionResult{Outcome: models.AdmissionStoreFailed})
	}
	if member == nil {
		return s.finish(ctx, models.AdmissionResult{Outcome: models.AdmissionNotFound})
	}

	now := time.Now()
	switch {
	case member.HasJoinedTelegramGroup:
		slog.Info("Member already joined the group", "memberID", member.ID, "telegramUserID", telegramUserID)
		return s.finish(ctx, models.AdmissionResult{Outcome: models.AdmissionAlreadyJoined})
	case member.IsExpiredAt(now):
		slog.Info("Member's paid term has lapsed", "memberID", member.ID, "telegramUserID", telegramUserID)
		return s.finish(ctx, models.AdmissionResult{Outcome: models.AdmissionExpired})
	}

	// The link is single-use; the advertised one-hour window is not
	// enforced on the wire.
	link, err := s.bot.CreateOneTimeInvite(ctx, s.groupID, time.Time{})
	if err != nil {
		slog.Error("Failed to create invite link", "memberID", member.ID, "telegramUserID", telegramUserID, "error", err)
		return s.finish(ctx, models.AdmissionResult{Outcome: models.AdmissionTransportFailed})
	}

	member.UserTelegramID = &telegramUserID
	member.HasJoinedTelegramGroup = true
	if err := s.store.Save(ctx, member); err != nil {
		slog.Error("Failed to persist admission", "memberID", member.ID, "error", err)
		return s.finish(ctx, models.AdmissionResult{Outcome: models.AdmissionStoreFailed})
	}

	slog.Info("Issued one-time invite", "memberID", member.ID, "telegramUserID", telegramUserID)
	return s.finish(ctx, models.AdmissionResult{Outcome: models.AdmissionAccepted, InviteLink: link.InviteLink})
}

// AdmitJoinRequest answers a pending group join request for the Telegram
// account. The request is approved only for a linked active paid member whose
// term has not lapsed; every other case declines it.
func (s *AdmissionService) AdmitJoinRequest(ctx context.Context, telegramUserID int64) models.AdmissionResult {
	member, err := s.store.FindByTelegramID(ctx, telegramUserID)
	if err != nil {
		slog.Error("Failed to look up member by telegram id", "telegramUserID", telegramUserID, "error", err)
		return s.finish(ctx, models.AdmissionResult{Outcome: models.AdmissionStoreFailed})
	}

	decline := func(outcome models.AdmissionOutcome) models.AdmissionResult {
		if err := s.bot.DeclineJoinRequest(ctx, s.groupID, telegramUserID); err != nil {
			slog.Error("Failed to decline join request", "telegramUserID", telegramUserID, "error", err)
		}
		return s.finish(ctx, models.AdmissionResult{Outcome: outcome})
	}

	if member == nil {
		slog.Warn("Join request from unregistered user", "telegramUserID", telegramUserID)
		return decline(models.AdmissionNotFound)
	}

	unlock := s.locks.lock(member.ID)
	defer unlock()

	// Re-read under the lock: a concurrent request for the same account may
	// have approved it already.
	member, err = s.store.FindByTelegramID(ctx, telegramUserID)
	if err != nil {
		slog.Error("Failed to re-read member by telegram id", "telegramUserID", telegramUserID, "error", err)
		return s.finish(ctx, models.AdmissionResult{Outcome: models.AdmissionStoreFailed})
	}
	if member == nil {
		return decline(models.AdmissionNotFound)
	}

	if member.HasJoinedTelegramGroup {
		return decline(models.AdmissionAlreadyJoined)
	}
	if member.IsExpiredAt(time.Now()) {
		slog.Warn("Join request from expired member", "memberID", member.ID, "telegramUserID", telegramUserID)
		return decline(models.AdmissionExpired)
	}

	if err := s.bot.ApproveJoinRequest(ctx, s.groupID, telegramUserID); err != nil {
		slog.Error("Failed to approve join request", "memberID", member.ID, "telegramUserID", telegramUserID, "error", err)
		return s.finish(ctx, models.AdmissionResult{Outcome: models.AdmissionTransportFailed})
	}

	member.HasJoinedTelegramGroup = true
	if err := s.store.Save(ctx, member); err != nil {
		slog.Error("Failed to persist join approval", "memberID", member.ID, "error", err)
		return s.finish(ctx, models.AdmissionResult{Outcome: models.AdmissionStoreFailed})
	}

	slog.Info("Approved join request", "memberID", member.ID, "telegramUserID", telegramUserID)
	return s.finish(ctx, models.AdmissionResult{Outcome: models.AdmissionAccepted})
}

// TrackMembershipChange records a user joining or leaving the group observed
// through chat member updates.
func (s *AdmissionService) TrackMembershipChange(ctx context.Context, telegramUserID int64, joined bool) error {
	member, err := s.store.FindByTelegramID(ctx, telegramUserID)
	if err != nil {
		return err
	}
	if member == nil {
		return nil
	}

	unlock := s.locks.lock(member.ID)
	defer unlock()

	// Re-read under the lock so the write-back does not carry stale columns.
	member, err = s.store.FindByTelegramID(ctx, telegramUserID)
	if err != nil {
		return err
	}
	if member == nil {
		return nil
	}

	if member.HasJoinedTelegramGroup == joined {
		return nil
	}
	member.HasJoinedTelegramGroup = joined
	if err := s.store.Save(ctx, member); err != nil {
		return err
	}

	slog.Info("Updated member group state", "memberID", member.ID, "telegramUserID", telegramUserID, "joined", joined)
	return nil
}

func (s *AdmissionService) finish(ctx context.Context, result models.AdmissionResult) models.AdmissionResult {
	monitoring.RecordAdmission(ctx, string(result.Outcome))
	return result
}

// memberLocks hands out one mutex per member id
type memberLocks struct {
	m sync.Map
}

func (l *memberLocks) lock(memberID int64) func() {
	v, _ := l.m.LoadOrStore(memberID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
