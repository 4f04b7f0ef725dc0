package telegram

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"dream-oracle/internal/auth"
	"dream-oracle/internal/oracle"
)

type fakeSender struct {
	sent   []string
	photos []string
	markup []any
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	switch m := c.(type) {
	case tgbotapi.MessageConfig:
		f.sent = append(f.sent, m.Text)
		f.markup = append(f.markup, m.ReplyMarkup)
	case tgbotapi.PhotoConfig:
		f.photos = append(f.photos, m.Caption)
	}
	return tgbotapi.Message{}, nil
}

type fakeResponder struct {
	requester, text string
	reply           oracle.Reply
}

func (f *fakeResponder) Handle(_ context.Context, requesterID, text string) oracle.Reply {
	f.requester, f.text = requesterID, text
	return f.reply
}

func newTestBot(resp *fakeResponder, admin int64) (*Bot, *fakeSender) {
	fs := &fakeSender{}
	svc, _ := auth.NewWithRepo(nil, nil)
	return &Bot{s: fs, responder: resp, authSvc: svc, adminUserID: admin, logger: zap.NewNop()}, fs
}

func command(userID int64, text string) *tgbotapi.Message {
	name := strings.Fields(text)[0]
	return &tgbotapi.Message{
		From:     &tgbotapi.User{ID: userID},
		Chat:     &tgbotapi.Chat{ID: 100},
		Text:     text,
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(name)}},
	}
}

func TestHandleIncomingMessage_SendsSegmentsAndPhoto(t *testing.T) {
	res := &oracle.Result{Title: "勇氣在黑暗中誕生"}
	resp := &fakeResponder{reply: oracle.Reply{
		Texts:    []string{"part one", "part two"},
		ImageURL: "https://oracle.example.com/Cards/B1.jpg",
		Result:   res,
	}}
	b, fs := newTestBot(resp, 0)

	msg := &tgbotapi.Message{From: &tgbotapi.User{ID: 42}, Chat: &tgbotapi.Chat{ID: 100}, Text: "蛇"}
	b.handleIncomingMessage(context.Background(), msg)

	if resp.requester != "tg:42" || resp.text != "蛇" {
		t.Fatalf("unexpected request: %q %q", resp.requester, resp.text)
	}
	if len(fs.sent) != 2 || fs.sent[0] != "part one" || fs.sent[1] != "part two" {
		t.Fatalf("unexpected texts: %+v", fs.sent)
	}
	if len(fs.photos) != 1 || fs.photos[0] != "勇氣在黑暗中誕生" {
		t.Fatalf("unexpected photos: %+v", fs.photos)
	}
}

func TestHandleIncomingMessage_SuggestionButtons(t *testing.T) {
	resp := &fakeResponder{reply: oracle.Reply{
		Texts:  []string{"miss"},
		Result: &oracle.Result{Missed: true, Suggestions: []string{"掉牙齒", "牙齒"}},
	}}
	b, fs := newTestBot(resp, 0)

	b.handleIncomingMessage(context.Background(), &tgbotapi.Message{From: &tgbotapi.User{ID: 1}, Chat: &tgbotapi.Chat{ID: 1}, Text: "掉牙"})

	kb, ok := fs.markup[0].(tgbotapi.InlineKeyboardMarkup)
	if !ok || len(kb.InlineKeyboard) != 1 || len(kb.InlineKeyboard[0]) != 2 {
		t.Fatalf("expected one row of two buttons, got %#v", fs.markup[0])
	}
	if data := kb.InlineKeyboard[0][0].CallbackData; data == nil || *data != "kw:掉牙齒" {
		t.Fatalf("unexpected callback data: %v", data)
	}
}

func TestHandleCallback_ReRunsKeyword(t *testing.T) {
	resp := &fakeResponder{reply: oracle.Reply{Texts: []string{"ok"}}}
	b, fs := newTestBot(resp, 0)

	b.handleCallback(context.Background(), &tgbotapi.CallbackQuery{
		From:    &tgbotapi.User{ID: 7},
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 5}},
		Data:    "kw:掉牙齒",
	})

	if resp.text != "掉牙齒" || resp.requester != "tg:7" {
		t.Fatalf("callback not routed: %q %q", resp.requester, resp.text)
	}
	if len(fs.sent) != 1 {
		t.Fatalf("expected one reply, got %+v", fs.sent)
	}
}

func TestHandleCommand_AddIsForwarded(t *testing.T) {
	resp := &fakeResponder{reply: oracle.Reply{Texts: []string{"✅"}}}
	b, _ := newTestBot(resp, 0)

	b.handleCommand(context.Background(), command(9, "/add 蛇 https://a.example/snake.html"))

	if resp.text != "add 蛇 https://a.example/snake.html" {
		t.Fatalf("unexpected forwarded text: %q", resp.text)
	}
}

func TestHandleCommand_AdminOnly(t *testing.T) {
	b, fs := newTestBot(&fakeResponder{}, 999)

	b.handleCommand(context.Background(), command(1, "/allow U123"))
	if len(fs.sent) != 1 || !strings.Contains(fs.sent[0], "僅限管理員") {
		t.Fatalf("non-admin should be refused: %+v", fs.sent)
	}

	b.handleCommand(context.Background(), command(999, "/allow U123 alice"))
	if !b.authSvc.IsAllowed("U123") || b.authSvc.IsAllowed("U456") {
		t.Fatalf("allow not effective")
	}

	b.handleCommand(context.Background(), command(999, "/admins"))
	if last := fs.sent[len(fs.sent)-1]; !strings.Contains(last, "U123 alice") {
		t.Fatalf("admins list missing user: %q", last)
	}

	b.handleCommand(context.Background(), command(999, "/revoke U123"))
	if !b.authSvc.Open() {
		t.Fatalf("revoke not effective")
	}
}

func TestHandleIncomingMessage_LongReplyFitsTelegramLimit(t *testing.T) {
	long := strings.Repeat("夢", 6000)
	handler := oracle.NewHandler(stubInterpreter{text: long}, nil, nil, "https://oracle.example.com", oracle.DefaultSegmentLimit, zap.NewNop())
	b, fs := newTestBot(nil, 0)
	b.responder = handler

	b.handleIncomingMessage(context.Background(), &tgbotapi.Message{From: &tgbotapi.User{ID: 3}, Chat: &tgbotapi.Chat{ID: 3}, Text: "蛇"})

	if len(fs.sent) < 3 {
		t.Fatalf("expected the reply to be split further, got %d messages", len(fs.sent))
	}
	var joined strings.Builder
	for i, m := range fs.sent {
		if n := utf8.RuneCountInString(m); n > maxMessageLength {
			t.Fatalf("message %d has %d characters", i, n)
		}
		joined.WriteString(m)
	}
	if !strings.Contains(joined.String(), long) {
		t.Fatalf("interpretation text lost while splitting")
	}
	if len(fs.photos) != 1 {
		t.Fatalf("card photo not sent: %+v", fs.photos)
	}
}

func TestSuggestionKeyboard_SkipsOversizedCallbackData(t *testing.T) {
	long := strings.Repeat("夢", 25)
	kb, ok := suggestionKeyboard([]string{long, "牙齒"})
	if !ok || len(kb.InlineKeyboard[0]) != 1 {
		t.Fatalf("expected one button, got %#v", kb)
	}
	if data := kb.InlineKeyboard[0][0].CallbackData; data == nil || *data != "kw:牙齒" {
		t.Fatalf("unexpected callback data: %v", data)
	}

	if _, ok := suggestionKeyboard([]string{long}); ok {
		t.Fatalf("keyboard without fitting buttons should be omitted")
	}
}

type stubInterpreter struct{ text string }

func (s stubInterpreter) Interpret(_ context.Context, req oracle.Request) oracle.Result {
	return oracle.Result{Keyword: req.Keyword, Text: s.text, Emotion: "恐懼", Title: "勇氣", Message: "點燈", Image: "B1.jpg", Suggestions: []string{}}
}
