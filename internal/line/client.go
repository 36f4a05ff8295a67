package line

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultReplyEndpoint = "https://api.line.me/v2/bot/message/reply"

// Client sends outbound messages through the LINE Messaging API.
type Client struct {
	accessToken string
	endpoint    string
	httpClient  *http.Client
}

// NewClient creates a messaging client with the channel access token.
func NewClient(accessToken string) *Client {
	return &Client{
		accessToken: accessToken,
		endpoint:    defaultReplyEndpoint,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
	}
}

// SetEndpoint overrides the reply endpoint (used in tests).
func (c *Client) SetEndpoint(url string) {
	c.endpoint = url
}

// Reply delivers text back to the conversation identified by the reply
// token. A reply token is one-time use; retrying a consumed token fails at
// the platform, so the caller treats delivery failure as log-only.
func (c *Client) Reply(ctx context.Context, replyToken, text string) error {
	payload, err := json.Marshal(map[string]any{
		"replyToken": replyToken,
		"messages": []map[string]string{
			{"type": "text", "text": text},
		},
	})
	if err != nil {
		return fmt.Errorf("marshaling reply: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating reply request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending reply: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("reply API error (%d): %s", resp.StatusCode, string(body))
	}
	return nil
}
