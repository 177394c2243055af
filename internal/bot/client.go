// Package bot implements the chat transport: a minimal Telegram Bot API
// client and the long-poll update loop that feeds the forecast pipeline.
package bot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Update is one inbound transport record. Message is nil for update kinds
// the bot does not handle; the id must still advance the cursor.
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message"`
}

// Message is the payload the bot reacts to.
type Message struct {
	Chat Chat   `json:"chat"`
	Text string `json:"text"`
}

// Chat identifies where replies go.
type Chat struct {
	ID int64 `json:"id"`
}

// Client talks to the Telegram Bot API. It covers exactly the two calls the
// bot needs: long-polling for updates and sending preformatted text.
type Client struct {
	token   string
	baseURL string
	client  *http.Client
}

// NewClient creates a Client. The http.Client's timeout must exceed the long
// poll duration passed to GetUpdates.
func NewClient(client *http.Client, token string) *Client {
	return &Client{
		token:   token,
		baseURL: "https://api.telegram.org",
		client:  client,
	}
}

func (c *Client) methodURL(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
}

// GetUpdates long-polls for updates with identifiers >= offset. Telegram
// treats offset as a half-open cursor: passing lastSeen+1 confirms
// everything up to lastSeen.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error) {
	values := url.Values{}
	values.Set("offset", strconv.FormatInt(offset, 10))
	values.Set("timeout", strconv.Itoa(int(timeout.Seconds())))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.methodURL("getUpdates")+"?"+values.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("getUpdates: unexpected status %d", resp.StatusCode)
	}

	var payload struct {
		OK     bool     `json:"ok"`
		Result []Update `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("getUpdates: decode response: %w", err)
	}
	if !payload.OK {
		return nil, fmt.Errorf("getUpdates: api returned ok=false")
	}
	return payload.Result, nil
}

// SendMessage delivers text to a chat. Tables are sent inside <pre> blocks
// so the fixed-width layout survives proportional fonts.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	body, err := json.Marshal(map[string]interface{}{
		"chat_id":    chatID,
		"text":       text,
		"parse_mode": "HTML",
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.methodURL("sendMessage"), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("sendMessage: unexpected status %d", resp.StatusCode)
	}
	return nil
}
