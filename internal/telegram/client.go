package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
)

var ErrNotConfigured = errors.New("telegram bot token missing")

type Client struct {
	token string
	http  *resty.Client
}

// APIError is a rejected Bot API call.
type APIError struct {
	Method      string
	Code        int
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram API %s error: %s", e.Method, e.Description)
}

type envelope struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	ErrorCode   int             `json:"error_code"`
	Description string          `json:"description"`
}

func NewClient(address string, token string) *Client {
	client := resty.New().
		SetBaseURL(strings.TrimRight(address, "/")+"/bot"+token).
		SetHeader("Content-Type", "application/json")
	return &Client{token: token, http: client}
}

func (c *Client) call(ctx context.Context, method string, payload interface{}, result interface{}) error {
	if c.token == "" {
		return ErrNotConfigured
	}

	var reply envelope
	response, err := c.http.R().
		SetContext(ctx).
		SetBody(payload).
		SetResult(&reply).
		SetError(&reply).
		Post("/" + method)
	if err != nil {
		return fmt.Errorf("telegram %s request error %w", method, err)
	}

	if response.IsError() || !reply.OK {
		description := reply.Description
		if description == "" {
			description = response.Status()
		}
		code := reply.ErrorCode
		if code == 0 {
			code = response.StatusCode()
		}
		return &APIError{Method: method, Code: code, Description: description}
	}

	if result != nil && len(reply.Result) > 0 {
		if err := json.Unmarshal(reply.Result, result); err != nil {
			return fmt.Errorf("telegram %s json parsing error %w", method, err)
		}
	}
	return nil
}

// SendMessage delivers text to a numeric chat id or an @handle.
func (c *Client) SendMessage(ctx context.Context, chatID string, text string) error {
	if chatID == "" {
		return &APIError{Method: "sendMessage", Description: "missing chat id"}
	}
	payload := map[string]interface{}{
		"chat_id": chatID,
		"text":    text,
	}
	return c.call(ctx, "sendMessage", payload, nil)
}

// GetUpdates long-polls for updates with update_id >= offset, waiting up to
// timeoutSeconds for one to arrive.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeoutSeconds int) ([]Update, error) {
	payload := map[string]interface{}{
		"offset":  offset,
		"timeout": timeoutSeconds,
	}
	var updates []Update
	if err := c.call(ctx, "getUpdates", payload, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

// DeleteWebhook switches the bot to polling mode, keeping queued updates.
func (c *Client) DeleteWebhook(ctx context.Context) error {
	return c.call(ctx, "deleteWebhook", map[string]bool{"drop_pending_updates": false}, nil)
}
