package line

import (
	"encoding/json"
	"errors"
)

// ErrMalformedPayload is returned when the webhook body is not valid JSON
// or does not have the expected top-level shape.
var ErrMalformedPayload = errors.New("malformed webhook payload")

// Event is a text message event the agent handles. Event kinds other than
// text messages (stickers, follows, joins, ...) are dropped during decoding.
type Event struct {
	SenderID   string `json:"senderId"`
	Text       string `json:"text"`
	ReplyToken string `json:"replyToken"`
}

// webhookBody mirrors the LINE webhook request shape.
type webhookBody struct {
	Events []webhookEvent `json:"events"`
}

type webhookEvent struct {
	Type    string `json:"type"`
	Message *struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"message"`
	ReplyToken string `json:"replyToken"`
	Source     struct {
		UserID string `json:"userId"`
	} `json:"source"`
}

// ParseEvents decodes a verified webhook body into the text message events
// it contains, preserving platform order. Non-message events and non-text
// messages are skipped, not errored.
func ParseEvents(rawBody []byte) ([]Event, error) {
	var body webhookBody
	if err := json.Unmarshal(rawBody, &body); err != nil {
		return nil, ErrMalformedPayload
	}
	if body.Events == nil {
		return nil, ErrMalformedPayload
	}

	var events []Event
	for _, ev := range body.Events {
		if ev.Type != "message" || ev.Message == nil || ev.Message.Type != "text" {
			continue
		}
		events = append(events, Event{
			SenderID:   ev.Source.UserID,
			Text:       ev.Message.Text,
			ReplyToken: ev.ReplyToken,
		})
	}
	return events, nil
}
