package models

import "time"

// Member represents one row of the membership table. The table is owned and
// populated by the external membership system; this service only reads the
// membership flags and writes the Telegram linkage columns.
type Member struct {
	ID                     int64      `gorm:"primaryKey;column:id" json:"id"`
	FirstName              string     `gorm:"column:first_name" json:"firstName"`
	LastName               string     `gorm:"column:last_name" json:"lastName"`
	Phone                  string     `gorm:"column:phone" json:"phone"`
	IsMembership           bool       `gorm:"column:is_membership" json:"isMembership"`
	IsActived              bool       `gorm:"column:is_actived" json:"isActived"`
	CreatedTime            *time.Time `gorm:"column:created_time" json:"createdTime"`
	MembershipTime         *time.Time `gorm:"column:membership_time" json:"membershipTime"`
	BankAccountNumber      string     `gorm:"column:bank_account_number" json:"bankAccountNumber"`
	BankName               string     `gorm:"column:bank_name" json:"bankName"`
	BankAccountName        string     `gorm:"column:bank_account_name" json:"bankAccountName"`
	ReferralCode           string     `gorm:"column:referral_code" json:"referralCode"`
	Nik                    string     `gorm:"column:nik" json:"nik"`
	HasJoinedTelegramGroup bool       `gorm:"column:has_joined_telegram_group" json:"hasJoinedTelegramGroup"`
	UserTelegramID         *int64     `gorm:"column:user_telegram_id" json:"userTelegramId"`
}

// TableName sets the table name for GORM
func (Member) TableName() string {
	return "tbl_member"
}

// FullName returns the member's display name for logging
func (m *Member) FullName() string {
	if m.LastName == "" {
		return m.FirstName
	}
	return m.FirstName + " " + m.LastName
}

// IsExpiredAt reports whether the member's paid term has lapsed at the given
// instant. A member with no recorded membership time counts as expired.
func (m *Member) IsExpiredAt(at time.Time) bool {
	if m.MembershipTime == nil {
		return true
	}
	return m.MembershipTime.Before(at)
}
