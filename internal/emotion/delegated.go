package emotion

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"

	"go.uber.org/zap"

	"dream-oracle/internal/llm"
)

const (
	SummaryUnparsed    = "（無法解析說明）"
	SummaryUnavailable = "⚠️ 無法使用 AI 補充夢境說明"

	summaryPrefix = "說明："
	labelPrefix   = "情緒："
)

// SummaryClassifier is an external service that both summarizes and labels text.
type SummaryClassifier interface {
	ClassifyAndSummarize(ctx context.Context, text string) (summary string, label Label, err error)
}

// DelegatedClassifier wraps a SummaryClassifier and keeps the vocabulary closed:
// invalid labels and failures become a uniformly random classifiable label.
type DelegatedClassifier struct {
	remote SummaryClassifier
	logger *zap.Logger
	intn   func(n int) int
}

func NewDelegatedClassifier(remote SummaryClassifier, logger *zap.Logger) *DelegatedClassifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DelegatedClassifier{remote: remote, logger: logger, intn: rand.IntN}
}

// WithIntn replaces the random source, for deterministic tests.
func (c *DelegatedClassifier) WithIntn(f func(n int) int) *DelegatedClassifier {
	c.intn = f
	return c
}

func (c *DelegatedClassifier) Classify(ctx context.Context, text string) Classification {
	if shortCircuit(text) {
		return Classification{Label: Unknown}
	}
	summary, label, err := c.remote.ClassifyAndSummarize(ctx, text)
	if err != nil {
		c.logger.Warn("⚠️ delegated classifier failed, using random label", zap.Error(err))
		return Classification{Label: c.randomLabel(), Summary: SummaryUnavailable}
	}
	if label == Unknown || !Valid(label) {
		c.logger.Info("🎲 delegated classifier returned label outside vocabulary", zap.String("label", string(label)))
		label = c.randomLabel()
	}
	if strings.TrimSpace(summary) == "" {
		summary = SummaryUnparsed
	}
	return Classification{Label: label, Summary: summary}
}

func (c *DelegatedClassifier) randomLabel() Label {
	return Classifiable[c.intn(len(Classifiable))]
}

// LLMSummarizer asks a chat model for a short gentle reading and one label.
type LLMSummarizer struct {
	client llm.Client
}

func NewLLMSummarizer(client llm.Client) *LLMSummarizer {
	return &LLMSummarizer{client: client}
}

func (s *LLMSummarizer) ClassifyAndSummarize(ctx context.Context, text string) (string, Label, error) {
	resp, err := s.client.Generate(ctx, []llm.Message{
		{Role: "system", Content: "你是一位溫柔療癒的夢境心理分析師，只用繁體中文回答。"},
		{Role: "user", Content: BuildPrompt(text)},
	})
	if err != nil {
		return "", "", fmt.Errorf("generate: %w", err)
	}
	summary, label := ParseReply(resp.Content)
	return summary, label, nil
}

// BuildPrompt asks for the two-line 說明/情緒 answer format.
func BuildPrompt(text string) string {
	labels := make([]string, len(Classifiable))
	for i, l := range Classifiable {
		labels[i] = string(l)
	}
	var b strings.Builder
	b.WriteString("請根據以下夢境解析內容，提供心理學觀點的說明，語氣溫柔療癒，限制在 5 行內。\n")
	b.WriteString("夢境解析：")
	b.WriteString(text)
	b.WriteString("\n請另外回覆這個夢境可能對應的情緒，僅限以下情緒中的一種：")
	b.WriteString(strings.Join(labels, ", "))
	b.WriteString("。\n格式如下：\n說明：xxx\n情緒：xxx")
	return b.String()
}

// ParseReply extracts the 說明 and 情緒 lines. The last occurrence of each wins.
func ParseReply(content string) (string, Label) {
	var summary, label string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, summaryPrefix):
			summary = strings.TrimSpace(strings.TrimPrefix(line, summaryPrefix))
		case strings.HasPrefix(line, labelPrefix):
			label = strings.TrimSpace(strings.TrimPrefix(line, labelPrefix))
		}
	}
	if summary == "" {
		summary = SummaryUnparsed
	}
	return summary, Label(label)
}
