package telegram

import "context"

type sendMessageRequest struct {
	ChatID      int64        `json:"chat_id"`
	Text        string       `json:"text"`
	ReplyMarkup *replyMarkup `json:"reply_markup,omitempty"`
}

type replyMarkup struct {
	Keyboard        [][]keyboardButton `json:"keyboard"`
	OneTimeKeyboard bool               `json:"one_time_keyboard"`
	ResizeKeyboard  bool               `json:"resize_keyboard"`
}

type keyboardButton struct {
	Text           string `json:"text"`
	RequestContact bool   `json:"request_contact"`
}

// SendMessage sends a plain text reply to the chat
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	return c.call(ctx, "sendMessage", sendMessageRequest{
		ChatID: chatID,
		Text:   text,
	}, nil)
}

// SendContactPrompt sends text with a one-time reply keyboard holding a
// single share-contact button.
func (c *Client) SendContactPrompt(ctx context.Context, chatID int64, text, buttonLabel string) error {
	return c.call(ctx, "sendMessage", sendMessageRequest{
		ChatID: chatID,
		Text:   text,
		ReplyMarkup: &replyMarkup{
			Keyboard: [][]keyboardButton{
				{{Text: buttonLabel, RequestContact: true}},
			},
			OneTimeKeyboard: true,
			ResizeKeyboard:  true,
		},
	}, nil)
}
