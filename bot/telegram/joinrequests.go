package telegram

import "context"

type joinRequestAction struct {
	ChatID int64 `json:"chat_id"`
	UserID int64 `json:"user_id"`
}

// ApproveJoinRequest lets the user's pending join request through
func (c *Client) ApproveJoinRequest(ctx context.Context, chatID, userID int64) error {
	return c.call(ctx, "approveChatJoinRequest", joinRequestAction{ChatID: chatID, UserID: userID}, nil)
}

// DeclineJoinRequest rejects the user's pending join request
func (c *Client) DeclineJoinRequest(ctx context.Context, chatID, userID int64) error {
	return c.call(ctx, "declineChatJoinRequest", joinRequestAction{ChatID: chatID, UserID: userID}, nil)
}
