package line

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
)

// Messenger sends text messages through the LINE Messaging API. Reply uses the
// one-time reply token of an inbound event; Push addresses a durable target
// identifier (user, group, or room) and works at any later time.
type Messenger struct {
	api    *messaging_api.MessagingApiAPI
	logger *slog.Logger
}

// NewMessenger creates a messenger with the channel access token.
func NewMessenger(log *slog.Logger, channelAccessToken string) (*Messenger, error) {
	if log == nil {
		log = slog.Default()
	}
	if channelAccessToken == "" {
		return nil, errors.New("line: channel access token is required")
	}
	api, err := messaging_api.NewMessagingApiAPI(channelAccessToken)
	if err != nil {
		return nil, fmt.Errorf("create messaging api client: %w", err)
	}
	return &Messenger{
		api:    api,
		logger: log.With(slog.String("service", "line")),
	}, nil
}

// Reply sends text via the synchronous reply channel. The SDK client manages
// its own HTTP timeouts; ctx is accepted for interface symmetry.
func (m *Messenger) Reply(_ context.Context, replyToken, text string) error {
	_, err := m.api.ReplyMessage(&messaging_api.ReplyMessageRequest{
		ReplyToken: replyToken,
		Messages: []messaging_api.MessageInterface{
			messaging_api.TextMessage{Text: text},
		},
	})
	if err != nil {
		return fmt.Errorf("reply message: %w", err)
	}
	return nil
}

// Push sends text to a durable target identifier.
func (m *Messenger) Push(_ context.Context, targetID, text string) error {
	_, err := m.api.PushMessage(&messaging_api.PushMessageRequest{
		To: targetID,
		Messages: []messaging_api.MessageInterface{
			messaging_api.TextMessage{Text: text},
		},
	}, "")
	if err != nil {
		return fmt.Errorf("push message: %w", err)
	}
	return nil
}
