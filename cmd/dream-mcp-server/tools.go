package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"dream-oracle/internal/keywords"
	"dream-oracle/internal/oracle"
)

// InterpretParams are the arguments of interpret_dream.
type InterpretParams struct {
	Keyword     string `json:"keyword" mcp:"the dream keyword, e.g. 蛇"`
	RequesterID string `json:"requester_id,omitempty" mcp:"identity recorded with the reading (default: mcp)"`
}

// LookupParams are the arguments of lookup_keyword.
type LookupParams struct {
	Keyword string `json:"keyword" mcp:"the dream keyword to resolve"`
}

type interpreter interface {
	Interpret(ctx context.Context, req oracle.Request) oracle.Result
}

type keywordIndex interface {
	Resolve(keyword string) (string, error)
	SuggestKeywords(keyword string) []string
}

// OracleMCPServer exposes the oracle pipeline as MCP tools.
type OracleMCPServer struct {
	svc     interpreter
	index   keywordIndex
	baseURL string
	logger  *zap.Logger
}

func NewOracleMCPServer(svc interpreter, index keywordIndex, baseURL string, logger *zap.Logger) *OracleMCPServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OracleMCPServer{svc: svc, index: index, baseURL: baseURL, logger: logger}
}

func errorResult(text string) *mcp.CallToolResultFor[any] {
	return &mcp.CallToolResultFor[any]{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

// InterpretDream runs the whole pipeline, recording the reading like any other transport.
func (s *OracleMCPServer) InterpretDream(ctx context.Context, session *mcp.ServerSession, params *mcp.CallToolParamsFor[InterpretParams]) (*mcp.CallToolResultFor[any], error) {
	args := params.Arguments
	keyword := strings.TrimSpace(args.Keyword)
	if keyword == "" {
		return errorResult("❌ keyword is required"), nil
	}
	requester := args.RequesterID
	if requester == "" {
		requester = "mcp"
	}

	s.logger.Info("🔮 MCP interpret_dream", zap.String("keyword", keyword), zap.String("requester", requester))
	res := s.svc.Interpret(ctx, oracle.Request{Keyword: keyword, RequesterID: requester})
	imageURL := oracle.ImageURL(s.baseURL, res.Image)

	return &mcp.CallToolResultFor[any]{
		Content: []mcp.Content{
			&mcp.TextContent{Text: oracle.FormatReply(res)},
		},
		Meta: map[string]any{
			"keyword":     res.Keyword,
			"emotion":     res.Emotion,
			"card_title":  res.Title,
			"image_url":   imageURL,
			"missed":      res.Missed,
			"suggestions": res.Suggestions,
		},
	}, nil
}

// LookupKeyword resolves a keyword without fetching, or lists close matches.
func (s *OracleMCPServer) LookupKeyword(ctx context.Context, session *mcp.ServerSession, params *mcp.CallToolParamsFor[LookupParams]) (*mcp.CallToolResultFor[any], error) {
	keyword := strings.TrimSpace(params.Arguments.Keyword)
	if keyword == "" {
		return errorResult("❌ keyword is required"), nil
	}

	url, err := s.index.Resolve(keyword)
	if err == nil {
		return &mcp.CallToolResultFor[any]{
			Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf("✅ %s → %s", keyword, url)}},
			Meta:    map[string]any{"found": true, "url": url},
		}, nil
	}
	if !errors.Is(err, keywords.ErrNotFound) {
		return errorResult(fmt.Sprintf("❌ lookup failed: %v", err)), nil
	}

	suggestions := s.index.SuggestKeywords(keyword)
	text := fmt.Sprintf("🛑 「%s」查無解夢資料", keyword)
	if len(suggestions) > 0 {
		text += "\n🔎 相近關鍵字：" + strings.Join(suggestions, "、")
	}
	return &mcp.CallToolResultFor[any]{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		Meta:    map[string]any{"found": false, "suggestions": suggestions},
	}, nil
}
