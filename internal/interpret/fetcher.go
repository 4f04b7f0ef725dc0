// Package interpret fetches a reference page and extracts its interpretation text.
package interpret

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"dream-oracle/internal/webpage"
)

// Unsupported sentinel texts. All start with SentinelPrefix.
const (
	SentinelPrefix     = "⚠️"
	MsgNotSupported    = "⚠️ 尚未支援此夢境，請稍後再試或由開發者補充資料"
	MsgPageUnavailable = "⚠️ 無法載入夢境解析頁面"
	MsgContentNotFound = "⚠️ 找不到夢境解析內容"
	contentTag         = "div"
	contentID          = "entrybody"
	paragraphSeparator = "\n"
)

// Interpretation is either supported text or the Unsupported sentinel.
type Interpretation struct {
	Text      string
	Supported bool
}

func Unsupported(msg string) Interpretation {
	return Interpretation{Text: msg}
}

// IsUnsupported recognises sentinel text produced by this package.
func IsUnsupported(text string) bool {
	return strings.HasPrefix(strings.TrimSpace(text), SentinelPrefix)
}

type Fetcher struct {
	client *webpage.Client
	logger *zap.Logger
}

func NewFetcher(client *webpage.Client, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{client: client, logger: logger}
}

// Fetch performs one GET and extracts the content region. It never returns an error:
// every failure becomes Unsupported.
func (f *Fetcher) Fetch(ctx context.Context, url string) Interpretation {
	if url == "" {
		return Unsupported(MsgNotSupported)
	}
	doc, err := f.client.Get(ctx, url)
	if err != nil {
		f.logger.Warn("⚠️ interpretation page unavailable", zap.String("url", url), zap.Error(err))
		return Unsupported(MsgPageUnavailable)
	}
	region := webpage.FindByID(doc, contentTag, contentID)
	if region == nil {
		f.logger.Warn("⚠️ interpretation content region missing", zap.String("url", url))
		return Unsupported(MsgContentNotFound)
	}
	text := webpage.Text(region, paragraphSeparator)
	if text == "" {
		f.logger.Warn("⚠️ interpretation content empty", zap.String("url", url))
		return Unsupported(MsgContentNotFound)
	}
	return Interpretation{Text: text, Supported: true}
}
