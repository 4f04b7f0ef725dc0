package keywords

import (
	"sort"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"dream-oracle/internal/validation"
)

const (
	DefaultSuggestLimit  = 3
	DefaultSuggestCutoff = 0.6
)

type Suggestion struct {
	Keyword string  `json:"keyword"`
	Score   float64 `json:"score"`
}

// Suggest returns up to the configured number of keywords whose similarity ratio
// to the input is at least the cutoff, best first. It never resolves anything.
func (ix *Index) Suggest(keyword string) []Suggestion {
	keyword = validation.NormalizeKeyword(keyword)
	if keyword == "" {
		return nil
	}
	target := runes(keyword)

	ix.mu.RLock()
	candidates := make([]Suggestion, 0, 8)
	for k := range ix.links {
		m := difflib.NewMatcher(runes(k), target)
		if m.RealQuickRatio() < ix.cutoff || m.QuickRatio() < ix.cutoff {
			continue
		}
		if score := m.Ratio(); score >= ix.cutoff {
			candidates = append(candidates, Suggestion{Keyword: k, Score: score})
		}
	}
	limit := ix.limit
	ix.mu.RUnlock()

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Keyword < candidates[j].Keyword
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates
}

// SuggestKeywords is Suggest without scores.
func (ix *Index) SuggestKeywords(keyword string) []string {
	s := ix.Suggest(keyword)
	out := make([]string, len(s))
	for i, x := range s {
		out[i] = x.Keyword
	}
	return out
}

// runes splits a string into one element per character so ratios count CJK characters, not bytes.
func runes(s string) []string {
	return strings.Split(s, "")
}
