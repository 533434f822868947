package telegram

import "context"

type banChatMemberRequest struct {
	ChatID         int64 `json:"chat_id"`
	UserID         int64 `json:"user_id"`
	RevokeMessages bool  `json:"revoke_messages"`
}

type unbanChatMemberRequest struct {
	ChatID       int64 `json:"chat_id"`
	UserID       int64 `json:"user_id"`
	OnlyIfBanned bool  `json:"only_if_banned"`
}

// BanMember removes the user from the chat. Their previous messages are kept.
func (c *Client) BanMember(ctx context.Context, chatID, userID int64) error {
	return c.call(ctx, "banChatMember", banChatMemberRequest{
		ChatID:         chatID,
		UserID:         userID,
		RevokeMessages: false,
	}, nil)
}

// UnbanIfBanned lifts the user's ban so they can rejoin later. The
// only_if_banned flag makes the call a no-op for users who are not banned,
// which keeps retries idempotent.
func (c *Client) UnbanIfBanned(ctx context.Context, chatID, userID int64) error {
	return c.call(ctx, "unbanChatMember", unbanChatMemberRequest{
		ChatID:       chatID,
		UserID:       userID,
		OnlyIfBanned: true,
	}, nil)
}
