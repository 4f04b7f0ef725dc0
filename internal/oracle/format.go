package oracle

import (
	"net/url"
	"strings"
	"unicode/utf8"
)

// DefaultSegmentLimit is the per-message character ceiling of the chat transports.
const DefaultSegmentLimit = 4900

// CardsPath is the URL prefix the card images are served under.
const CardsPath = "/Cards/"

// FormatReply renders the reply text block.
func FormatReply(r Result) string {
	var b strings.Builder
	b.WriteString("🔍 解夢關鍵字：")
	b.WriteString(r.Keyword)
	b.WriteString("\n🧠 解夢結果：\n")
	b.WriteString(r.Text)
	b.WriteString("\n\n")
	if len(r.Suggestions) > 0 {
		b.WriteString("💡 你是不是想找：")
		b.WriteString(strings.Join(r.Suggestions, "、"))
		b.WriteString("\n")
	}
	if r.Summary != "" {
		b.WriteString("🤖 AI 補充說明：")
		b.WriteString(r.Summary)
		b.WriteString("\n")
	}
	b.WriteString("🎭 情緒判定：")
	b.WriteString(r.Emotion)
	b.WriteString("\n🃏 命定卡牌：「")
	b.WriteString(r.Title)
	b.WriteString("」\n👉 ")
	b.WriteString(r.Message)
	return b.String()
}

// SplitText cuts text into segments of at most limit characters whose concatenation is text.
// A segment ends after the last newline inside the window when there is one.
func SplitText(text string, limit int) []string {
	if limit <= 0 {
		limit = DefaultSegmentLimit
	}
	if text == "" {
		return nil
	}
	if utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	rs := []rune(text)
	var out []string
	for len(rs) > limit {
		cut := limit
		for i := limit - 1; i > 0; i-- {
			if rs[i] == '\n' {
				cut = i + 1
				break
			}
		}
		out = append(out, string(rs[:cut]))
		rs = rs[cut:]
	}
	if len(rs) > 0 {
		out = append(out, string(rs))
	}
	return out
}

// ImageURL resolves a card filename under the public base URL.
func ImageURL(base, filename string) string {
	if filename == "" {
		return ""
	}
	return strings.TrimRight(base, "/") + CardsPath + url.PathEscape(filename)
}
