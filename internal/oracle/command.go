package oracle

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"dream-oracle/internal/keywords"
	"dream-oracle/internal/validation"
)

const (
	Farewell        = "👋 感謝使用 Dream Oracle，再會～"
	MsgAddUsage     = "⚠️ 格式錯誤，請使用：add <關鍵字> <網址>"
	MsgAddScheme    = "⚠️ 網址必須以 http:// 或 https:// 開頭"
	MsgAddForbidden = "⛔ 你沒有權限新增關鍵字"
	MsgEmptyInput   = "🌙 請輸入夢境關鍵字，例如：蛇"
	MsgNoSuggestion = "🔎 找不到相近的關鍵字"
	HelpText        = "🌙 Dream Oracle 使用說明\n" +
		"• 直接輸入夢境關鍵字，例如：蛇\n" +
		"• suggest <關鍵字>：列出相近關鍵字\n" +
		"• add <關鍵字> <網址>：新增關鍵字（管理員）\n" +
		"• q：結束"
)

type CommandKind int

const (
	CmdInterpret CommandKind = iota
	CmdAdd
	CmdSuggest
	CmdQuit
	CmdHelp
	CmdEmpty
)

type Command struct {
	Kind    CommandKind
	Keyword string
	URL     string
	// Malformed marks an add command with the wrong number of arguments.
	Malformed bool
}

// ParseCommand recognises the command words case-insensitively; anything else is a dream keyword.
func ParseCommand(text string) Command {
	text = validation.NormalizeKeyword(text)
	if text == "" {
		return Command{Kind: CmdEmpty}
	}
	fields := strings.Fields(text)
	switch strings.ToLower(fields[0]) {
	case "add":
		if len(fields) != 3 {
			return Command{Kind: CmdAdd, Malformed: true}
		}
		return Command{Kind: CmdAdd, Keyword: fields[1], URL: fields[2]}
	case "suggest":
		if len(fields) < 2 {
			return Command{Kind: CmdHelp}
		}
		return Command{Kind: CmdSuggest, Keyword: strings.Join(fields[1:], " ")}
	case "q", "quit", "exit":
		if len(fields) == 1 {
			return Command{Kind: CmdQuit}
		}
	case "help", "說明":
		if len(fields) == 1 {
			return Command{Kind: CmdHelp}
		}
	}
	return Command{Kind: CmdInterpret, Keyword: text}
}

type Interpreter interface {
	Interpret(ctx context.Context, req Request) Result
}

type KeywordStore interface {
	Add(keyword, url string) error
	SuggestKeywords(keyword string) []string
}

type Authorizer interface {
	IsAllowed(userID string) bool
}

// Reply is what a transport sends back: ordered text segments and an optional image.
type Reply struct {
	Texts    []string
	ImageURL string
	Result   *Result
}

// Handler turns one inbound text into a Reply. It is shared by every transport.
type Handler struct {
	svc     Interpreter
	store   KeywordStore
	auth    Authorizer
	baseURL string
	limit   int
	logger  *zap.Logger
}

func NewHandler(svc Interpreter, store KeywordStore, auth Authorizer, baseURL string, limit int, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if limit <= 0 {
		limit = DefaultSegmentLimit
	}
	return &Handler{svc: svc, store: store, auth: auth, baseURL: baseURL, limit: limit, logger: logger}
}

func (h *Handler) Handle(ctx context.Context, requesterID, text string) Reply {
	cmd := ParseCommand(text)
	switch cmd.Kind {
	case CmdEmpty:
		return h.text(MsgEmptyInput)
	case CmdHelp:
		return h.text(HelpText)
	case CmdQuit:
		return h.text(Farewell)
	case CmdSuggest:
		return h.suggest(cmd.Keyword)
	case CmdAdd:
		return h.add(requesterID, cmd)
	}

	res := h.svc.Interpret(ctx, Request{Keyword: cmd.Keyword, RequesterID: requesterID})
	return Reply{
		Texts:    SplitText(FormatReply(res), h.limit),
		ImageURL: ImageURL(h.baseURL, res.Image),
		Result:   &res,
	}
}

func (h *Handler) add(requesterID string, cmd Command) Reply {
	if h.auth != nil && !h.auth.IsAllowed(requesterID) {
		h.logger.Warn("⛔ unauthorized add attempt", zap.String("requester", requesterID))
		return h.text(MsgAddForbidden)
	}
	if cmd.Malformed {
		return h.text(MsgAddUsage)
	}
	if !validation.HasHTTPScheme(cmd.URL) {
		return h.text(MsgAddScheme)
	}
	if err := h.store.Add(cmd.Keyword, cmd.URL); err != nil {
		h.logger.Warn("⚠️ add keyword failed", zap.String("keyword", cmd.Keyword), zap.Error(err))
		switch {
		case errors.Is(err, keywords.ErrInvalidKeyword), errors.Is(err, keywords.ErrInvalidURL):
			return h.text(fmt.Sprintf("⚠️ 無法新增：%v", err))
		default:
			return h.text("❌ 儲存關鍵字失敗，請稍後再試")
		}
	}
	h.logger.Info("✅ keyword added", zap.String("keyword", cmd.Keyword), zap.String("url", cmd.URL), zap.String("by", requesterID))
	return h.text(fmt.Sprintf("✅ 已新增：%s → %s", validation.NormalizeKeyword(cmd.Keyword), cmd.URL))
}

func (h *Handler) suggest(keyword string) Reply {
	s := h.store.SuggestKeywords(keyword)
	if len(s) == 0 {
		return h.text(MsgNoSuggestion)
	}
	return h.text("🔎 相近關鍵字：" + strings.Join(s, "、"))
}

func (h *Handler) text(s string) Reply {
	return Reply{Texts: SplitText(s, h.limit)}
}
