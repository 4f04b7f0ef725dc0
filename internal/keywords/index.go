// Package keywords maps dream keywords to reference interpretation URLs.
package keywords

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"dream-oracle/internal/validation"
)

var (
	// ErrNotFound is a miss, not a failure: the keyword has no entry.
	ErrNotFound = errors.New("keyword not found")
	// ErrInvalidKeyword rejects empty or whitespace-bearing keywords on Add.
	ErrInvalidKeyword = errors.New("invalid keyword")
	// ErrInvalidURL rejects anything that is not an absolute http(s) URL on Add.
	ErrInvalidURL = errors.New("invalid url")
)

type Repository interface {
	Load() (map[string]string, error)
	Save(links map[string]string) error
}

// Index is the in-memory keyword table backed by a Repository.
// Reads are concurrent; Add and Reload replace the table under a write lock.
type Index struct {
	repo   Repository
	mu     sync.RWMutex
	links  map[string]string
	limit  int
	cutoff float64
}

type Option func(*Index)

// WithSuggestions overrides the suggestion count and similarity cutoff.
func WithSuggestions(limit int, cutoff float64) Option {
	return func(ix *Index) {
		if limit > 0 {
			ix.limit = limit
		}
		if cutoff > 0 && cutoff <= 1 {
			ix.cutoff = cutoff
		}
	}
}

func NewIndex(repo Repository, opts ...Option) (*Index, error) {
	ix := &Index{
		repo:   repo,
		links:  make(map[string]string),
		limit:  DefaultSuggestLimit,
		cutoff: DefaultSuggestCutoff,
	}
	for _, o := range opts {
		o(ix)
	}
	if err := ix.Reload(); err != nil {
		return nil, err
	}
	return ix, nil
}

// NewMemoryIndex builds an index without persistence, mostly for tests and one-shot tools.
func NewMemoryIndex(links map[string]string, opts ...Option) *Index {
	ix := &Index{
		links:  maps.Clone(links),
		limit:  DefaultSuggestLimit,
		cutoff: DefaultSuggestCutoff,
	}
	if ix.links == nil {
		ix.links = make(map[string]string)
	}
	for _, o := range opts {
		o(ix)
	}
	return ix
}

// Resolve returns the URL stored for an exact keyword match.
func (ix *Index) Resolve(keyword string) (string, error) {
	keyword = validation.NormalizeKeyword(keyword)
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	url, ok := ix.links[keyword]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, keyword)
	}
	return url, nil
}

// Add inserts or overwrites a keyword and persists the whole index before returning.
func (ix *Index) Add(keyword, url string) error {
	keyword = validation.NormalizeKeyword(keyword)
	if !validation.ValidateKeyword(keyword) {
		return fmt.Errorf("%w: %q", ErrInvalidKeyword, keyword)
	}
	if ok, msg := validation.ValidateURL(url); !ok {
		return fmt.Errorf("%w: %s", ErrInvalidURL, msg)
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	next := maps.Clone(ix.links)
	next[keyword] = url
	if ix.repo != nil {
		if err := ix.repo.Save(next); err != nil {
			return fmt.Errorf("persist keyword %s: %w", keyword, err)
		}
	}
	ix.links = next
	return nil
}

// Merge imports many links at once. Existing keywords are kept unless overwrite is set.
func (ix *Index) Merge(links map[string]string, overwrite bool) (int, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	next := maps.Clone(ix.links)
	added := 0
	for k, v := range links {
		k = validation.NormalizeKeyword(k)
		if !validation.ValidateKeyword(k) {
			continue
		}
		if ok, _ := validation.ValidateURL(v); !ok {
			continue
		}
		if _, exists := next[k]; exists && !overwrite {
			continue
		}
		next[k] = v
		added++
	}
	if added == 0 {
		return 0, nil
	}
	if ix.repo != nil {
		if err := ix.repo.Save(next); err != nil {
			return 0, fmt.Errorf("persist merged keywords: %w", err)
		}
	}
	ix.links = next
	return added, nil
}

// Reload replaces the in-memory table with the repository contents.
func (ix *Index) Reload() error {
	if ix.repo == nil {
		return nil
	}
	links, err := ix.repo.Load()
	if err != nil {
		return fmt.Errorf("load keyword index: %w", err)
	}
	ix.mu.Lock()
	ix.links = links
	ix.mu.Unlock()
	return nil
}

func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.links)
}

// Keys returns all keywords sorted.
func (ix *Index) Keys() []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return slices.Sorted(maps.Keys(ix.links))
}
