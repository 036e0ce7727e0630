// Package telegram is the Bot API transport: an HTTP client guarded by a
// circuit breaker, the presenter the navigator talks to, and update intake
// for long polling and webhooks.
package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"
)

// DefaultAPIURL is the public Bot API endpoint.
const DefaultAPIURL = "https://api.telegram.org"

// APIError is an ok:false reply from the Bot API.
type APIError struct {
	Method      string
	Code        int
	Description string
	// RetryAfter is the flood-control wait in seconds, zero when absent.
	RetryAfter  int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram %s: %d %s", e.Method, e.Code, e.Description)
}

// IsNotModified reports an edit that would not change the message.
func IsNotModified(err error) bool {
	return hasDescription(err, "message is not modified")
}

// IsNoTextToEdit reports an edit of a message that has no text, such as a
// photo with a caption.
func IsNoTextToEdit(err error) bool {
	return hasDescription(err, "there is no text in the message to edit")
}

func hasDescription(err error, fragment string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && strings.Contains(apiErr.Description, fragment)
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	ErrorCode   int             `json:"error_code"`
	Description string          `json:"description"`
	Parameters  *struct {
		RetryAfter int `json:"retry_after"`
	} `json:"parameters"`
}

// ClientConfig configures a Client.
type ClientConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
	// BreakerFailures consecutive failures open the breaker for BreakerOpen.
	BreakerFailures int
	BreakerOpen     time.Duration
}

// Client calls Bot API methods.
type Client struct {
	http    *resty.Client
	breaker *gobreaker.CircuitBreaker
	token   string
}

// NewClient builds a client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultAPIURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 35 * time.Second
	}
	if cfg.BreakerFailures <= 0 {
		cfg.BreakerFailures = 5
	}
	if cfg.BreakerOpen <= 0 {
		cfg.BreakerOpen = 30 * time.Second
	}
	failures := uint32(cfg.BreakerFailures)
	return &Client{
		http: resty.New().
			SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
			SetTimeout(cfg.Timeout).
			SetHeader("Content-Type", "application/json"),
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "telegram",
			MaxRequests: 1,
			Timeout:     cfg.BreakerOpen,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= failures
			},
			// Requests the API rejected on their merits say nothing about
			// its health.
			IsSuccessful: func(err error) bool {
				var apiErr *APIError
				if errors.As(err, &apiErr) {
					return apiErr.Code < 500 && apiErr.Code != 429
				}
				return err == nil
			},
		}),
		token: cfg.Token,
	}
}

// call posts payload to method and decodes the result into out.
func (c *Client) call(ctx context.Context, method string, payload, out any) error {
	_, err := c.breaker.Execute(func() (interface{}, error) {
		resp, err := c.http.R().
			SetContext(ctx).
			SetBody(payload).
			Post("/bot" + c.token + "/" + method)
		if err != nil {
			return nil, fmt.Errorf("telegram %s: %w", method, err)
		}
		var env apiResponse
		if err := json.Unmarshal(resp.Body(), &env); err != nil {
			return nil, fmt.Errorf("telegram %s: decode response (status %d): %w", method, resp.StatusCode(), err)
		}
		if !env.OK {
			apiErr := &APIError{Method: method, Code: env.ErrorCode, Description: env.Description}
			if apiErr.Code == 0 {
				apiErr.Code = resp.StatusCode()
			}
			if env.Parameters != nil {
				apiErr.RetryAfter = env.Parameters.RetryAfter
			}
			return nil, apiErr
		}
		if out != nil && len(env.Result) > 0 {
			if err := json.Unmarshal(env.Result, out); err != nil {
				return nil, fmt.Errorf("telegram %s: decode result: %w", method, err)
			}
		}
		return nil, nil
	})
	return err
}

// BreakerState exposes the circuit breaker state for health reporting.
func (c *Client) BreakerState() string { return c.breaker.State().String() }

type sendMessageRequest struct {
	ChatID      int64                 `json:"chat_id"`
	Text        string                `json:"text"`
	ParseMode   string                `json:"parse_mode,omitempty"`
	ReplyMarkup *InlineKeyboardMarkup `json:"reply_markup,omitempty"`
}

// SendMessage sends an HTML message.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, markup *InlineKeyboardMarkup) (Message, error) {
	var m Message
	err := c.call(ctx, "sendMessage", sendMessageRequest{ChatID: chatID, Text: text, ParseMode: "HTML", ReplyMarkup: markup}, &m)
	return m, err
}

type editMessageTextRequest struct {
	ChatID      int64                 `json:"chat_id"`
	MessageID   int                   `json:"message_id"`
	Text        string                `json:"text"`
	ParseMode   string                `json:"parse_mode,omitempty"`
	ReplyMarkup *InlineKeyboardMarkup `json:"reply_markup,omitempty"`
}

// EditMessageText replaces a message's text and keyboard. An edit that
// changes nothing succeeds.
func (c *Client) EditMessageText(ctx context.Context, chatID int64, messageID int, text string, markup *InlineKeyboardMarkup) error {
	err := c.call(ctx, "editMessageText", editMessageTextRequest{
		ChatID: chatID, MessageID: messageID, Text: text, ParseMode: "HTML", ReplyMarkup: markup,
	}, nil)
	if IsNotModified(err) {
		return nil
	}
	return err
}

type sendPhotoRequest struct {
	ChatID      int64                 `json:"chat_id"`
	Photo       string                `json:"photo"`
	Caption     string                `json:"caption,omitempty"`
	ParseMode   string                `json:"parse_mode,omitempty"`
	ReplyMarkup *InlineKeyboardMarkup `json:"reply_markup,omitempty"`
}

// SendPhoto sends a photo by URL with an HTML caption.
func (c *Client) SendPhoto(ctx context.Context, chatID int64, photoURL, caption string, markup *InlineKeyboardMarkup) (Message, error) {
	var m Message
	err := c.call(ctx, "sendPhoto", sendPhotoRequest{
		ChatID: chatID, Photo: photoURL, Caption: caption, ParseMode: "HTML", ReplyMarkup: markup,
	}, &m)
	return m, err
}

// AnswerCallbackQuery acknowledges a button press, optionally with a toast.
func (c *Client) AnswerCallbackQuery(ctx context.Context, id, text string) error {
	return c.call(ctx, "answerCallbackQuery", map[string]any{"callback_query_id": id, "text": text}, nil)
}

// GetUpdates long-polls for updates starting at offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error) {
	var updates []Update
	err := c.call(ctx, "getUpdates", map[string]any{
		"offset":          offset,
		"timeout":         int(timeout / time.Second),
		"allowed_updates": []string{"message", "callback_query"},
	}, &updates)
	return updates, err
}

// SetWebhook registers url for update delivery.
func (c *Client) SetWebhook(ctx context.Context, url, secret string) error {
	payload := map[string]any{"url": url, "allowed_updates": []string{"message", "callback_query"}}
	if secret != "" {
		payload["secret_token"] = secret
	}
	return c.call(ctx, "setWebhook", payload, nil)
}

// DeleteWebhook switches the bot back to getUpdates delivery.
func (c *Client) DeleteWebhook(ctx context.Context) error {
	return c.call(ctx, "deleteWebhook", map[string]any{"drop_pending_updates": false}, nil)
}
