// Package crawler builds a keyword index from a dream dictionary home page.
package crawler

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"dream-oracle/internal/webpage"
)

type Crawler struct {
	client *webpage.Client
	logger *zap.Logger
}

func New(client *webpage.Client, logger *zap.Logger) *Crawler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Crawler{client: client, logger: logger}
}

// Crawl collects relative *.html links with visible text from the page at base.
// The link text becomes the keyword; the first occurrence of a keyword wins.
func (c *Crawler) Crawl(ctx context.Context, base string) (map[string]string, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	doc, err := c.client.Get(ctx, base)
	if err != nil {
		return nil, fmt.Errorf("fetch dictionary home: %w", err)
	}
	links := ExtractLinks(doc, baseURL)
	c.logger.Info("🕸️ dictionary crawled", zap.String("base", base), zap.Int("keywords", len(links)))
	return links, nil
}

// ExtractLinks walks doc and returns keyword to absolute URL.
func ExtractLinks(doc *html.Node, base *url.URL) map[string]string {
	out := make(map[string]string)
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			href := strings.TrimSpace(webpage.Attr(n, "href"))
			text := webpage.Text(n, "")
			if text != "" && strings.HasSuffix(href, ".html") && !strings.HasPrefix(href, "http") {
				if _, seen := out[text]; !seen {
					if ref, err := url.Parse(href); err == nil {
						out[text] = base.ResolveReference(ref).String()
					}
				}
			}
			return
		}
		for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
			walk(ch)
		}
	}
	walk(doc)
	return out
}
