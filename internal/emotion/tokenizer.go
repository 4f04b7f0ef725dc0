package emotion

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-ego/gse"
)

// Tokenizer splits text into words.
type Tokenizer interface {
	Tokenize(text string) []string
}

// GseTokenizer segments Chinese text with gse's embedded dictionary
// extended by the rule keywords.
type GseTokenizer struct {
	seg gse.Segmenter
}

func NewGseTokenizer(extra []string) (*GseTokenizer, error) {
	t := &GseTokenizer{}
	if err := t.seg.LoadDictEmbed(); err != nil {
		return nil, fmt.Errorf("load gse dictionary: %w", err)
	}
	for _, w := range extra {
		t.seg.AddToken(w, 1000)
	}
	return t, nil
}

func (t *GseTokenizer) Tokenize(text string) []string {
	return dropBlank(t.seg.Cut(text, true))
}

// DictTokenizer does forward maximum matching against a fixed word list.
// Characters outside any word become single-character tokens.
type DictTokenizer struct {
	words  map[string]struct{}
	maxLen int
}

func NewDictTokenizer(words []string) *DictTokenizer {
	t := &DictTokenizer{words: make(map[string]struct{}, len(words))}
	for _, w := range words {
		if w == "" {
			continue
		}
		t.words[w] = struct{}{}
		if n := utf8.RuneCountInString(w); n > t.maxLen {
			t.maxLen = n
		}
	}
	return t
}

func (t *DictTokenizer) Tokenize(text string) []string {
	rs := []rune(text)
	var out []string
	for i := 0; i < len(rs); {
		if unicode.IsSpace(rs[i]) {
			i++
			continue
		}
		n := 1
		for l := min(t.maxLen, len(rs)-i); l > 1; l-- {
			if _, ok := t.words[string(rs[i:i+l])]; ok {
				n = l
				break
			}
		}
		out = append(out, string(rs[i:i+n]))
		i += n
	}
	return out
}

func dropBlank(tokens []string) []string {
	out := tokens[:0]
	for _, tok := range tokens {
		if strings.TrimSpace(tok) != "" {
			out = append(out, tok)
		}
	}
	return out
}
