package keywords

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuggest_RanksBySimilarity(t *testing.T) {
	ix := NewMemoryIndex(map[string]string{
		"掉牙":  "https://a.example/1.html",
		"掉牙齒": "https://a.example/2.html",
		"蛇":   "https://a.example/3.html",
		"飛翔":  "https://a.example/4.html",
	})

	got := ix.Suggest("掉牙齒了")
	require.Len(t, got, 2)
	assert.Equal(t, "掉牙齒", got[0].Keyword)
	assert.Equal(t, "掉牙", got[1].Keyword)
	assert.InDelta(t, 6.0/7.0, got[0].Score, 1e-9)
	assert.InDelta(t, 4.0/6.0, got[1].Score, 1e-9)
}

func TestSuggest_AtMostLimitAndAboveCutoff(t *testing.T) {
	ix := NewMemoryIndex(map[string]string{
		"夢見蛇":  "https://a.example/1.html",
		"夢見蛇咬": "https://a.example/2.html",
		"夢見蛇纏": "https://a.example/3.html",
		"夢見大蛇": "https://a.example/4.html",
		"下雨":   "https://a.example/5.html",
	})

	got := ix.Suggest("夢見蛇了")
	require.Len(t, got, DefaultSuggestLimit)
	assert.Equal(t, "夢見蛇", got[0].Keyword)
	for _, s := range got {
		assert.GreaterOrEqual(t, s.Score, DefaultSuggestCutoff)
		assert.NotEqual(t, "下雨", s.Keyword)
	}
}

func TestSuggest_NoCloseMatches(t *testing.T) {
	ix := NewMemoryIndex(map[string]string{"蛇": "https://a.example/1.html"})
	assert.Empty(t, ix.Suggest("火鍋寶寶外星人"))
	assert.Empty(t, ix.Suggest(""))
}

func TestSuggest_NeverResolves(t *testing.T) {
	ix := NewMemoryIndex(map[string]string{"掉牙齒": "https://a.example/2.html"})
	require.NotEmpty(t, ix.Suggest("掉牙"))
	_, err := ix.Resolve("掉牙")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWithSuggestions_Overrides(t *testing.T) {
	ix := NewMemoryIndex(map[string]string{
		"夢見蛇":  "https://a.example/1.html",
		"夢見蛇咬": "https://a.example/2.html",
	}, WithSuggestions(1, 0.8))
	got := ix.SuggestKeywords("夢見蛇了")
	assert.Equal(t, []string{"夢見蛇"}, got)
}
