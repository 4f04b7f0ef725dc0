package emotion

import (
	"context"
	"sort"
	"strings"

	"dream-oracle/internal/interpret"
)

// RuleClassifier picks the label of the most frequent token found in the rule table.
// Ties keep first-occurrence order, so the result is deterministic.
type RuleClassifier struct {
	rules     Rules
	tokenizer Tokenizer
}

// NewRuleClassifier falls back to a dictionary tokenizer over the rule keywords when tok is nil.
func NewRuleClassifier(rules Rules, tok Tokenizer) *RuleClassifier {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	if tok == nil {
		tok = NewDictTokenizer(rules.Keywords())
	}
	return &RuleClassifier{rules: rules, tokenizer: tok}
}

func (c *RuleClassifier) Classify(_ context.Context, text string) Classification {
	if shortCircuit(text) {
		return Classification{Label: Unknown}
	}
	for _, tok := range rankTokens(c.tokenizer.Tokenize(text)) {
		if label, ok := c.rules.Lookup(tok); ok {
			return Classification{Label: label}
		}
	}
	return Classification{Label: Unknown}
}

// shortCircuit is true for blank input and for the fetcher's Unsupported sentinel.
func shortCircuit(text string) bool {
	return strings.TrimSpace(text) == "" || interpret.IsUnsupported(text)
}

// rankTokens orders distinct tokens by descending count, ties by first occurrence.
func rankTokens(tokens []string) []string {
	counts := make(map[string]int, len(tokens))
	var order []string
	for _, tok := range tokens {
		if counts[tok] == 0 {
			order = append(order, tok)
		}
		counts[tok]++
	}
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	return order
}
