// Package bot defines the contract this service has with the group
// messaging platform. Implementations live in subpackages; the rest of the
// code depends only on these interfaces.
package bot

import (
	"context"
	"time"
)

// API aggregates every bot capability the service uses
type API interface {
	InviteManager
	Moderator
	Messenger
	UpdateSource
	JoinRequestManager
}

// InviteManager issues invite links into the managed group
type InviteManager interface {
	// CreateOneTimeInvite creates a single-use invite link. A zero expireAt
	// leaves the link without a time limit (the member limit still applies).
	CreateOneTimeInvite(ctx context.Context, chatID int64, expireAt time.Time) (*InviteLink, error)
}

// Moderator revokes and restores group access
type Moderator interface {
	BanMember(ctx context.Context, chatID, userID int64) error
	// UnbanIfBanned lifts a ban only when one is in place, so it is safe to
	// retry after a crash between ban and unban.
	UnbanIfBanned(ctx context.Context, chatID, userID int64) error
}

// Messenger sends replies to users
type Messenger interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
	// SendContactPrompt sends a message with a one-time reply keyboard whose
	// single button asks the user to share their phone number.
	SendContactPrompt(ctx context.Context, chatID int64, text, buttonLabel string) error
}

// UpdateSource long-polls for inbound updates
type UpdateSource interface {
	GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error)
}

// JoinRequestManager answers pending requests to join the group
type JoinRequestManager interface {
	ApproveJoinRequest(ctx context.Context, chatID, userID int64) error
	DeclineJoinRequest(ctx context.Context, chatID, userID int64) error
}

// InviteLink is a single-use credential granting one join into the group
type InviteLink struct {
	InviteLink  string `json:"invite_link"`
	MemberLimit int    `json:"member_limit"`
	ExpireDate  int64  `json:"expire_date,omitempty"`
}

// User identifies a platform account
type User struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name,omitempty"`
	Username  string `json:"username,omitempty"`
}

// Chat identifies a conversation or group
type Chat struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`
}

// Contact is a shared phone number attached to a message
type Contact struct {
	PhoneNumber string `json:"phone_number"`
	UserID      int64  `json:"user_id"`
}

// Message is one inbound message
type Message struct {
	MessageID int64    `json:"message_id"`
	From      *User    `json:"from,omitempty"`
	Chat      Chat     `json:"chat"`
	Text      string   `json:"text,omitempty"`
	Contact   *Contact `json:"contact,omitempty"`
}

// ChatJoinRequest is a pending request to join the group
type ChatJoinRequest struct {
	Chat Chat `json:"chat"`
	From User `json:"from"`
}

// ChatMemberState is a user's standing within the group at one instant
type ChatMemberState struct {
	Status string `json:"status"`
	User   User   `json:"user"`
}

// ChatMemberUpdated reports a transition in a user's group membership
type ChatMemberUpdated struct {
	Chat          Chat            `json:"chat"`
	From          User            `json:"from"`
	OldChatMember ChatMemberState `json:"old_chat_member"`
	NewChatMember ChatMemberState `json:"new_chat_member"`
}

// Update is one inbound event from long polling
type Update struct {
	UpdateID        int64              `json:"update_id"`
	Message         *Message           `json:"message,omitempty"`
	ChatJoinRequest *ChatJoinRequest   `json:"chat_join_request,omitempty"`
	ChatMember      *ChatMemberUpdated `json:"chat_member,omitempty"`
}
