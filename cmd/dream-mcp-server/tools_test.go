package main

import (
	"context"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dream-oracle/internal/keywords"
	"dream-oracle/internal/oracle"
)

type stubInterpreter struct{ got oracle.Request }

func (s *stubInterpreter) Interpret(_ context.Context, req oracle.Request) oracle.Result {
	s.got = req
	return oracle.Result{Keyword: req.Keyword, Text: "夢見蛇", Emotion: "恐懼", Title: "勇氣", Message: "點燈", Image: "B1.jpg", Suggestions: []string{}}
}

func text(t *testing.T, res *mcp.CallToolResultFor[any]) string {
	t.Helper()
	require.Len(t, res.Content, 1)
	tc, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func newServer() (*OracleMCPServer, *stubInterpreter) {
	stub := &stubInterpreter{}
	ix := keywords.NewMemoryIndex(map[string]string{"掉牙齒": "https://example.com/teeth.html"})
	return NewOracleMCPServer(stub, ix, "https://oracle.example.com", nil), stub
}

func TestInterpretDream(t *testing.T) {
	s, stub := newServer()

	res, err := s.InterpretDream(context.Background(), nil, &mcp.CallToolParamsFor[InterpretParams]{
		Arguments: InterpretParams{Keyword: " 蛇 "},
	})
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, oracle.Request{Keyword: "蛇", RequesterID: "mcp"}, stub.got)
	assert.Contains(t, text(t, res), "🎭 情緒判定：恐懼")
	assert.Equal(t, "https://oracle.example.com/Cards/B1.jpg", res.Meta["image_url"])

	res, err = s.InterpretDream(context.Background(), nil, &mcp.CallToolParamsFor[InterpretParams]{})
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestLookupKeyword(t *testing.T) {
	s, _ := newServer()

	res, err := s.LookupKeyword(context.Background(), nil, &mcp.CallToolParamsFor[LookupParams]{
		Arguments: LookupParams{Keyword: "掉牙齒"},
	})
	require.NoError(t, err)
	assert.Equal(t, true, res.Meta["found"])
	assert.Contains(t, text(t, res), "https://example.com/teeth.html")

	res, err = s.LookupKeyword(context.Background(), nil, &mcp.CallToolParamsFor[LookupParams]{
		Arguments: LookupParams{Keyword: "掉牙"},
	})
	require.NoError(t, err)
	assert.Equal(t, false, res.Meta["found"])
	assert.Contains(t, text(t, res), "掉牙齒")
}
