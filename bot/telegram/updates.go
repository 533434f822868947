package telegram

import (
	"context"
	"time"

	"github.com/wazadio/bot/bot"
)

type getUpdatesRequest struct {
	Offset         int64    `json:"offset,omitempty"`
	Timeout        int      `json:"timeout,omitempty"`
	AllowedUpdates []string `json:"allowed_updates,omitempty"`
}

// GetUpdates long-polls the Bot API for inbound updates. The offset must be
// one past the last update already handled.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]bot.Update, error) {
	var updates []bot.Update
	err := c.call(ctx, "getUpdates", getUpdatesRequest{
		Offset:         offset,
		Timeout:        int(timeout.Seconds()),
		AllowedUpdates: []string{"message", "chat_join_request", "chat_member"},
	}, &updates)
	if err != nil {
		return nil, err
	}
	return updates, nil
}
