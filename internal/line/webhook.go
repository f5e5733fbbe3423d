// Package line holds the LINE webhook payload model, signature validation,
// and the outbound messenger (reply and push).
package line

import (
	"encoding/json"
	"fmt"
)

// Event types and message types consumed by the dispatcher.
const (
	EventTypeMessage = "message"
	MessageTypeText  = "text"
)

// Payload is the body of a webhook delivery: a batch of events.
type Payload struct {
	Destination string  `json:"destination"`
	Events      []Event `json:"events"`
}

// Event is a single webhook event. Only text message events are processed;
// everything else gets a short fallback reply or is skipped.
type Event struct {
	Type       string  `json:"type"`
	ReplyToken string  `json:"replyToken,omitempty"`
	Timestamp  int64   `json:"timestamp,omitempty"`
	Message    Message `json:"message"`
	Source     Source  `json:"source"`
}

// Message is the message content of a message event.
type Message struct {
	Type string `json:"type"`
	ID   string `json:"id,omitempty"`
	Text string `json:"text,omitempty"`
}

// Source identifies where an event came from: a user, a group, or a room.
type Source struct {
	Type    string `json:"type,omitempty"`
	UserID  string `json:"userId,omitempty"`
	GroupID string `json:"groupId,omitempty"`
	RoomID  string `json:"roomId,omitempty"`
}

// TargetID resolves the push destination with precedence group > user > room,
// so group chats keep one shared conversation. Empty when unresolvable.
func (s Source) TargetID() string {
	switch {
	case s.GroupID != "":
		return s.GroupID
	case s.UserID != "":
		return s.UserID
	case s.RoomID != "":
		return s.RoomID
	default:
		return ""
	}
}

// ParsePayload decodes a webhook body.
func ParsePayload(body []byte) (*Payload, error) {
	var payload Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode webhook payload: %w", err)
	}
	return &payload, nil
}
