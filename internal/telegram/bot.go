// Package telegram runs the long-polling Telegram front end of the oracle.
package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"dream-oracle/internal/auth"
	"dream-oracle/internal/oracle"
)

const (
	// maxMessageLength is Telegram's per-message character limit.
	maxMessageLength = 4096
	// maxCallbackData is Telegram's callback_data limit in bytes.
	maxCallbackData = 64
	keywordPrefix   = "kw:"
	// RequesterPrefix namespaces Telegram user IDs next to LINE user IDs.
	RequesterPrefix = "tg:"
)

type Responder interface {
	Handle(ctx context.Context, requesterID, text string) oracle.Reply
}

type Bot struct {
	api         *tgbotapi.BotAPI
	s           sender
	responder   Responder
	authSvc     *auth.Service
	adminUserID int64
	logger      *zap.Logger
}

// New wraps an authenticated API client. The same client may also back the admin notifier.
func New(api *tgbotapi.BotAPI, responder Responder, authSvc *auth.Service, adminUserID int64, logger *zap.Logger) *Bot {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bot{
		api:         api,
		s:           botAPISender{api: api},
		responder:   responder,
		authSvc:     authSvc,
		adminUserID: adminUserID,
		logger:      logger,
	}
}

// Start polls for updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	b.logger.Info("🤖 telegram bot started", zap.String("username", b.api.Self.UserName))
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.Message != nil && update.Message.IsCommand():
		b.handleCommand(ctx, update.Message)
	case update.Message != nil:
		b.handleIncomingMessage(ctx, update.Message)
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	}
}

func RequesterID(userID int64) string {
	return RequesterPrefix + strconv.FormatInt(userID, 10)
}

func (b *Bot) handleIncomingMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || strings.TrimSpace(msg.Text) == "" {
		return
	}
	b.logger.Info("💬 incoming message", zap.Int64("user_id", msg.From.ID), zap.String("username", msg.From.UserName), zap.String("text", msg.Text))
	b.respond(ctx, msg.Chat.ID, RequesterID(msg.From.ID), msg.Text)
}

func (b *Bot) respond(ctx context.Context, chatID int64, requester, text string) {
	reply := b.responder.Handle(ctx, requester, text)
	var texts []string
	for _, t := range reply.Texts {
		texts = append(texts, oracle.SplitText(t, maxMessageLength)...)
	}
	for i, t := range texts {
		out := tgbotapi.NewMessage(chatID, t)
		if i == len(texts)-1 && reply.Result != nil {
			if kb, ok := suggestionKeyboard(reply.Result.Suggestions); ok {
				out.ReplyMarkup = kb
			}
		}
		if _, err := b.s.Send(out); err != nil {
			b.logger.Error("❌ failed to send message", zap.Int64("chat_id", chatID), zap.Error(err))
			return
		}
	}
	if reply.ImageURL != "" {
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(reply.ImageURL))
		if reply.Result != nil {
			photo.Caption = reply.Result.Title
		}
		if _, err := b.s.Send(photo); err != nil {
			b.logger.Error("❌ failed to send card image", zap.String("url", reply.ImageURL), zap.Error(err))
		}
	}
}

// suggestionKeyboard builds one button per suggestion whose callback data fits.
// Longer suggestions stay in the reply text only.
func suggestionKeyboard(suggestions []string) (tgbotapi.InlineKeyboardMarkup, bool) {
	row := make([]tgbotapi.InlineKeyboardButton, 0, len(suggestions))
	for _, s := range suggestions {
		data := keywordPrefix + s
		if len(data) > maxCallbackData {
			continue
		}
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(s, data))
	}
	if len(row) == 0 {
		return tgbotapi.InlineKeyboardMarkup{}, false
	}
	return tgbotapi.NewInlineKeyboardMarkup(row), true
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.Message == nil || cb.From == nil || !strings.HasPrefix(cb.Data, keywordPrefix) {
		return
	}
	keyword := strings.TrimPrefix(cb.Data, keywordPrefix)
	b.respond(ctx, cb.Message.Chat.ID, RequesterID(cb.From.ID), keyword)
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}
	switch msg.Command() {
	case "start", "help":
		b.sendMessage(msg.Chat.ID, oracle.HelpText)
		return
	case "add", "suggest":
		b.respond(ctx, msg.Chat.ID, RequesterID(msg.From.ID), msg.Command()+" "+msg.CommandArguments())
		return
	}

	// admin-only commands
	if msg.From.ID != b.adminUserID || b.authSvc == nil {
		b.sendMessage(msg.Chat.ID, "⛔ 此指令僅限管理員使用")
		return
	}
	switch msg.Command() {
	case "admins":
		var bld strings.Builder
		bld.WriteString("👮 管理員名單：\n")
		for _, u := range b.authSvc.List() {
			bld.WriteString(fmt.Sprintf("- %s %s\n", u.ID, u.Name))
		}
		b.sendMessage(msg.Chat.ID, bld.String())
	case "allow":
		args := strings.Fields(msg.CommandArguments())
		if len(args) < 1 {
			b.sendMessage(msg.Chat.ID, "Usage: /allow <user_id> [name]")
			return
		}
		u := auth.User{ID: args[0], Name: strings.Join(args[1:], " ")}
		if err := b.authSvc.Upsert(u); err != nil {
			b.sendMessage(msg.Chat.ID, fmt.Sprintf("❌ 新增失敗：%v", err))
			return
		}
		b.sendMessage(msg.Chat.ID, fmt.Sprintf("✅ 已加入管理員：%s", u.ID))
	case "revoke":
		args := strings.Fields(msg.CommandArguments())
		if len(args) != 1 {
			b.sendMessage(msg.Chat.ID, "Usage: /revoke <user_id>")
			return
		}
		if err := b.authSvc.Remove(args[0]); err != nil {
			b.sendMessage(msg.Chat.ID, fmt.Sprintf("❌ 移除失敗：%v", err))
			return
		}
		b.sendMessage(msg.Chat.ID, fmt.Sprintf("🗑️ 已移除管理員：%s", args[0]))
	default:
		b.sendMessage(msg.Chat.ID, oracle.HelpText)
	}
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.s.Send(msg); err != nil {
		b.logger.Error("❌ failed to send message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}
