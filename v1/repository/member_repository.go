package repository

import (
	"context"
	"time"

	svcerrors "github.com/wazadio/bot/pkg/errors"
	"github.com/wazadio/bot/v1/models"
	"gorm.io/gorm"
)

// MemberStore is the membership database seen by the admission and eviction
// engines. Lookups that match nothing return (nil, nil); only real store
// failures produce an error.
type MemberStore interface {
	// FindActivePaidByPhone returns the newest active paid member holding
	// the canonical phone number.
	FindActivePaidByPhone(ctx context.Context, phone string) (*models.Member, error)
	// FindByTelegramID returns the active paid member linked to the
	// Telegram account.
	FindByTelegramID(ctx context.Context, telegramID int64) (*models.Member, error)
	// PageExpiredActive returns one page of active members whose paid term
	// ended at or before cutoff, ordered by ascending id.
	PageExpiredActive(ctx context.Context, cutoff time.Time, limit, offset int) ([]models.Member, error)
	// Save persists the member's current state as one independent commit.
	Save(ctx context.Context, member *models.Member) error
}

// GormMemberStore implements MemberStore on a GORM connection
type GormMemberStore struct {
	db *gorm.DB
}

// NewGormMemberStore creates a member store backed by db
func NewGormMemberStore(db *gorm.DB) *GormMemberStore {
	return &GormMemberStore{db: db}
}

func (s *GormMemberStore) FindActivePaidByPhone(ctx context.Context, phone string) (*models.Member, error) {
	var member models.Member
	err := s.db.WithContext(ctx).
		Where("phone = ? AND is_membership = ? AND is_actived = ?", phone, true, true).
		Order("id DESC").
		First(&member).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, svcerrors.NewDatabaseError("find member by phone", err)
	}
	return &member, nil
}

func (s *GormMemberStore) FindByTelegramID(ctx context.Context, telegramID int64) (*models.Member, error) {
	var member models.Member
	err := s.db.WithContext(ctx).
		Where("user_telegram_id = ? AND is_membership = ? AND is_actived = ?", telegramID, true, true).
		First(&member).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, svcerrors.NewDatabaseError("find member by telegram id", err)
	}
	return &member, nil
}

func (s *GormMemberStore) PageExpiredActive(ctx context.Context, cutoff time.Time, limit, offset int) ([]models.Member, error) {
	var members []models.Member
	err := s.db.WithContext(ctx).
		Where("membership_time <= ? AND is_actived = ?", cutoff, true).
		Order("id ASC").
		Limit(limit).
		Offset(offset).
		Find(&members).Error
	if err != nil {
		return nil, svcerrors.NewDatabaseError("page expired members", err)
	}
	return members, nil
}

func (s *GormMemberStore) Save(ctx context.Context, member *models.Member) error {
	if err := s.db.WithContext(ctx).Save(member).Error; err != nil {
		return svcerrors.NewDatabaseError("save member", err)
	}
	return nil
}
