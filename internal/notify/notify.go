// Package notify delivers operator notifications and runs the missing-keyword feedback loop.
package notify

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
)

// ErrNotConfigured is returned by notifiers that lack a destination or credentials.
var ErrNotConfigured = errors.New("notifier not configured")

type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Nop drops every notification.
type Nop struct{}

func (Nop) Notify(context.Context, string) error { return nil }

// Multi fans a notification out to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, text string) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, text); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type linePusher interface {
	PushMessage(req *messaging_api.PushMessageRequest, xLineRetryKey string) (*messaging_api.PushMessageResponse, error)
}

// LineNotifier pushes a text message to the developer's LINE user.
type LineNotifier struct {
	api linePusher
	to  string
}

func NewLineNotifier(api linePusher, developerUserID string) *LineNotifier {
	return &LineNotifier{api: api, to: developerUserID}
}

func (n *LineNotifier) Notify(_ context.Context, text string) error {
	if n == nil || n.api == nil || n.to == "" {
		return ErrNotConfigured
	}
	_, err := n.api.PushMessage(&messaging_api.PushMessageRequest{
		To:       n.to,
		Messages: []messaging_api.MessageInterface{&messaging_api.TextMessage{Text: text}},
	}, "")
	if err != nil {
		return fmt.Errorf("line push: %w", err)
	}
	return nil
}

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier messages the admin chat.
type TelegramNotifier struct {
	s           sender
	adminUserID int64
}

func NewTelegramNotifier(s sender, adminUserID int64) *TelegramNotifier {
	return &TelegramNotifier{s: s, adminUserID: adminUserID}
}

func (n *TelegramNotifier) Notify(_ context.Context, text string) error {
	if n == nil || n.s == nil || n.adminUserID == 0 {
		return ErrNotConfigured
	}
	if _, err := n.s.Send(tgbotapi.NewMessage(n.adminUserID, text)); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}
