// Package line serves the LINE Messaging API webhook.
package line

import (
	"context"
	"encoding/json"

	"github.com/gofiber/fiber/v3"
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"
	"go.uber.org/zap"

	"dream-oracle/internal/metrics"
	"dream-oracle/internal/oracle"
)

// MaxReplyMessages is the LINE limit of messages in one reply or push.
const MaxReplyMessages = 5

const signatureHeader = "X-Line-Signature"

type Messenger interface {
	ReplyMessage(req *messaging_api.ReplyMessageRequest) (*messaging_api.ReplyMessageResponse, error)
	PushMessage(req *messaging_api.PushMessageRequest, xLineRetryKey string) (*messaging_api.PushMessageResponse, error)
}

type Responder interface {
	Handle(ctx context.Context, requesterID, text string) oracle.Reply
}

type Webhook struct {
	secret    string
	api       Messenger
	responder Responder
	maxMsgs   int
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

func NewWebhook(secret string, api Messenger, responder Responder, maxMsgs int, m *metrics.Metrics, logger *zap.Logger) *Webhook {
	if maxMsgs <= 0 || maxMsgs > MaxReplyMessages {
		maxMsgs = MaxReplyMessages
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Webhook{secret: secret, api: api, responder: responder, maxMsgs: maxMsgs, metrics: m, logger: logger}
}

// NewClient builds the Messaging API client used for replies and pushes.
func NewClient(accessToken string) (*messaging_api.MessagingApiAPI, error) {
	return messaging_api.NewMessagingApiAPI(accessToken)
}

// Callback verifies the signature and answers every text message event.
func (w *Webhook) Callback(c fiber.Ctx) error {
	body := c.Body()
	if !webhook.ValidateSignature(w.secret, c.Get(signatureHeader), body) {
		w.logger.Warn("⛔ invalid LINE signature", zap.String("ip", c.IP()))
		return fiber.NewError(fiber.StatusBadRequest, "invalid signature")
	}

	var cb webhook.CallbackRequest
	if err := json.Unmarshal(body, &cb); err != nil {
		w.logger.Warn("⚠️ malformed LINE callback", zap.Error(err))
		return fiber.NewError(fiber.StatusBadRequest, "malformed callback")
	}

	for _, ev := range cb.Events {
		switch e := ev.(type) {
		case webhook.MessageEvent:
			w.handleMessage(c.Context(), e)
		case *webhook.MessageEvent:
			w.handleMessage(c.Context(), *e)
		default:
			w.logger.Debug("ignoring LINE event", zap.String("type", ev.GetType()))
		}
	}
	return c.SendString("OK")
}

func (w *Webhook) handleMessage(ctx context.Context, e webhook.MessageEvent) {
	var text string
	switch m := e.Message.(type) {
	case webhook.TextMessageContent:
		text = m.Text
	case *webhook.TextMessageContent:
		text = m.Text
	default:
		return
	}

	requester, chat := sourceIDs(e.Source)
	reply := w.responder.Handle(ctx, requester, text)
	msgs := Messages(reply)
	if len(msgs) == 0 {
		return
	}
	w.metrics.ReplySegments(len(reply.Texts))

	head, rest := msgs, []messaging_api.MessageInterface(nil)
	if len(msgs) > w.maxMsgs {
		head, rest = msgs[:w.maxMsgs], msgs[w.maxMsgs:]
	}
	if _, err := w.api.ReplyMessage(&messaging_api.ReplyMessageRequest{
		ReplyToken: e.ReplyToken,
		Messages:   head,
	}); err != nil {
		w.logger.Error("❌ LINE reply failed", zap.String("requester", requester), zap.Error(err))
		return
	}
	w.push(chat, rest)
}

// push delivers the overflow in batches to the chat the message came from.
func (w *Webhook) push(to string, msgs []messaging_api.MessageInterface) {
	if len(msgs) == 0 {
		return
	}
	if to == "" {
		w.logger.Warn("⚠️ overflow messages dropped, no push target", zap.Int("count", len(msgs)))
		return
	}
	for len(msgs) > 0 {
		n := min(len(msgs), w.maxMsgs)
		if _, err := w.api.PushMessage(&messaging_api.PushMessageRequest{
			To:       to,
			Messages: msgs[:n],
		}, ""); err != nil {
			w.logger.Error("❌ LINE push failed", zap.String("to", to), zap.Error(err))
			return
		}
		msgs = msgs[n:]
	}
}

// Messages renders a reply as LINE text messages followed by the card image.
func Messages(r oracle.Reply) []messaging_api.MessageInterface {
	out := make([]messaging_api.MessageInterface, 0, len(r.Texts)+1)
	for _, t := range r.Texts {
		out = append(out, &messaging_api.TextMessage{Text: t})
	}
	if r.ImageURL != "" {
		out = append(out, &messaging_api.ImageMessage{
			OriginalContentUrl: r.ImageURL,
			PreviewImageUrl:    r.ImageURL,
		})
	}
	return out
}

// sourceIDs returns the requesting user and the chat to push overflow into.
func sourceIDs(src webhook.SourceInterface) (requester, chat string) {
	switch s := src.(type) {
	case webhook.UserSource:
		return s.UserId, s.UserId
	case *webhook.UserSource:
		return s.UserId, s.UserId
	case webhook.GroupSource:
		return s.UserId, s.GroupId
	case *webhook.GroupSource:
		return s.UserId, s.GroupId
	case webhook.RoomSource:
		return s.UserId, s.RoomId
	case *webhook.RoomSource:
		return s.UserId, s.RoomId
	}
	return "", ""
}
