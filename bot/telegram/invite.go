package telegram

import (
	"context"
	"time"

	"github.com/wazadio/bot/bot"
)

type createInviteLinkRequest struct {
	ChatID      int64 `json:"chat_id"`
	MemberLimit int   `json:"member_limit"`
	ExpireDate  int64 `json:"expire_date,omitempty"`
}

// CreateOneTimeInvite creates a single-use invite link for the chat. The
// member limit is fixed at one; expireAt is forwarded only when non-zero.
func (c *Client) CreateOneTimeInvite(ctx context.Context, chatID int64, expireAt time.Time) (*bot.InviteLink, error) {
	req := createInviteLinkRequest{
		ChatID:      chatID,
		MemberLimit: 1,
	}
	if !expireAt.IsZero() {
		req.ExpireDate = expireAt.Unix()
	}

	var link bot.InviteLink
	if err := c.call(ctx, "createChatInviteLink", req, &link); err != nil {
		return nil, err
	}
	return &link, nil
}
