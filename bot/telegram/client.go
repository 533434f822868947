// Package telegram implements the bot contract against the Telegram Bot API.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/wazadio/bot/pkg/errors"
	"github.com/wazadio/bot/pkg/monitoring"
)

const defaultBaseURL = "https://api.telegram.org"

// Client is an HTTP client for the Telegram Bot API
type Client struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

// NewClient creates a client authenticated with the given bot token
func NewClient(token string) *Client {
	return &Client{
		BaseURL: defaultBaseURL,
		Token:   token,
		Client:  &http.Client{Timeout: 60 * time.Second},
	}
}

// apiResponse is the standard Bot API envelope
type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result,omitempty"`
	ErrorCode   int             `json:"error_code,omitempty"`
	Description string          `json:"description,omitempty"`
}

// call sends a JSON POST to the named Bot API method and decodes the result
// into out when out is non-nil.
func (c *Client) call(ctx context.Context, method string, payload interface{}, out interface{}) error {
	start := time.Now()
	err := c.doCall(ctx, method, payload, out)
	monitoring.RecordBotCall(ctx, method, time.Since(start), err)
	return err
}

func (c *Client) doCall(ctx context.Context, method string, payload interface{}, out interface{}) error {
	url := fmt.Sprintf("%s/bot%s/%s", c.BaseURL, c.Token, method)

	body, err := json.Marshal(payload)
	if err != nil {
		return errors.NewTransportError(method, fmt.Errorf("failed to encode request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return errors.NewTransportError(method, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.Client.Do(req)
	if err != nil {
		return errors.NewTransportError(method, fmt.Errorf("failed to send request: %w", err))
	}
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return errors.NewTransportError(method, fmt.Errorf("failed to read response: %w", err))
	}

	var envelope apiResponse
	if err := json.Unmarshal(resBody, &envelope); err != nil {
		return errors.NewTransportError(method, fmt.Errorf("failed to decode response (status %d): %w", res.StatusCode, err))
	}

	if !envelope.OK {
		return errors.NewTransportError(method, fmt.Errorf("bot API error %d: %s", envelope.ErrorCode, envelope.Description))
	}

	if out != nil {
		if err := json.Unmarshal(envelope.Result, out); err != nil {
			return errors.NewTransportError(method, fmt.Errorf("failed to decode result: %w", err))
		}
	}

	return nil
}
