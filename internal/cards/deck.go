// Package cards holds the oracle card deck and draws cards by emotion label.
package cards

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"

	"dream-oracle/internal/emotion"
)

var (
	ErrEmptyDeck = errors.New("card deck is empty")
	ErrBadHeader = errors.New("card file header must contain emotion,title,message,image")
)

type Card struct {
	Emotion string `json:"emotion"`
	Title   string `json:"title"`
	Message string `json:"message"`
	Image   string `json:"image"`
}

// Complete reports whether the card has every field a reply needs.
func (c Card) Complete() bool {
	return strings.TrimSpace(c.Title) != "" &&
		strings.TrimSpace(c.Message) != "" &&
		strings.TrimSpace(c.Image) != ""
}

// DefaultCard is drawn when no card matches and when a drawn card is incomplete.
var DefaultCard = Card{
	Title:   "（替代推薦）每次感到迷惘，都是更認識自己的機會。",
	Message: "試著寫日記，記錄最近的想法與感受。",
	Image:   "J2.jpg",
}

// DefaultSynonyms maps classifier labels onto the deck's emotion column.
func DefaultSynonyms() map[string]string {
	return map[string]string{
		"愛":   "被愛",
		"幸福感": "幸福",
	}
}

type FallbackPolicy string

const (
	FallbackDefault FallbackPolicy = "default"
	FallbackRandom  FallbackPolicy = "random"
)

// Selection is the drawn card plus how it was obtained.
type Selection struct {
	Card Card
	// Substitute is set when no card matched the label.
	Substitute bool
	// Repaired is set when the drawn card was incomplete and replaced.
	Repaired bool
}

type Deck struct {
	path     string
	mu       sync.RWMutex
	cards    []Card
	byLabel  map[string][]Card
	synonyms map[string]string
	policy   FallbackPolicy
	logger   *zap.Logger
	intn     func(n int) int
}

type Option func(*Deck)

func WithPolicy(p FallbackPolicy) Option {
	return func(d *Deck) {
		if p == FallbackDefault || p == FallbackRandom {
			d.policy = p
		}
	}
}

func WithSynonyms(m map[string]string) Option {
	return func(d *Deck) { d.synonyms = m }
}

func WithLogger(l *zap.Logger) Option {
	return func(d *Deck) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithIntn replaces the random source. f must be safe for concurrent use.
func WithIntn(f func(n int) int) Option {
	return func(d *Deck) { d.intn = f }
}

func newDeck(opts []Option) *Deck {
	d := &Deck{
		synonyms: DefaultSynonyms(),
		policy:   FallbackDefault,
		logger:   zap.NewNop(),
		intn:     rand.IntN,
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// NewDeck builds an in-memory deck.
func NewDeck(cards []Card, opts ...Option) *Deck {
	d := newDeck(opts)
	d.set(cards)
	return d
}

// LoadDeck reads the CSV card file at path. Reload re-reads the same file.
func LoadDeck(path string, opts ...Option) (*Deck, error) {
	d := newDeck(opts)
	d.path = path
	if err := d.Reload(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Deck) Reload() error {
	if d.path == "" {
		return nil
	}
	f, err := os.Open(d.path)
	if err != nil {
		return fmt.Errorf("open card file: %w", err)
	}
	defer f.Close()
	cards, err := ReadCSV(f)
	if err != nil {
		return fmt.Errorf("read card file %s: %w", d.path, err)
	}
	d.set(cards)
	return nil
}

func (d *Deck) set(cards []Card) {
	by := make(map[string][]Card)
	for _, c := range cards {
		by[c.Emotion] = append(by[c.Emotion], c)
	}
	d.mu.Lock()
	d.cards = cards
	d.byLabel = by
	d.mu.Unlock()
}

// ReadCSV parses a card file with a header row naming emotion, title, message and image.
// Column order is free; extra columns are ignored.
func ReadCSV(r io.Reader) ([]Card, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrBadHeader
		}
		return nil, err
	}
	idx := map[string]int{}
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, col := range []string{"emotion", "title", "message", "image"} {
		if _, ok := idx[col]; !ok {
			return nil, ErrBadHeader
		}
	}
	field := func(rec []string, col string) string {
		i := idx[col]
		if i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var cards []Card
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		cards = append(cards, Card{
			Emotion: field(rec, "emotion"),
			Title:   field(rec, "title"),
			Message: field(rec, "message"),
			Image:   field(rec, "image"),
		})
	}
	return cards, nil
}

// Select draws uniformly among cards for the label after synonym normalization.
// It never fails: no match follows the fallback policy, an incomplete card becomes DefaultCard.
func (d *Deck) Select(label emotion.Label) Selection {
	key := string(label)
	if mapped, ok := d.synonyms[key]; ok {
		key = mapped
	}

	d.mu.RLock()
	matched := d.byLabel[key]
	all := d.cards
	d.mu.RUnlock()

	var sel Selection
	switch {
	case len(matched) > 0:
		sel.Card = matched[d.intn(len(matched))]
	case d.policy == FallbackRandom && len(all) > 0:
		sel.Card = all[d.intn(len(all))]
		sel.Substitute = true
	default:
		sel.Card = DefaultCard
		sel.Substitute = true
	}

	if !sel.Card.Complete() {
		d.logger.Warn("⚠️ card record incomplete, using default card",
			zap.String("emotion", sel.Card.Emotion),
			zap.String("title", sel.Card.Title),
			zap.String("image", sel.Card.Image))
		sel.Card = DefaultCard
		sel.Repaired = true
	}
	return sel
}

// Random draws uniformly from the whole deck. ok is false when the deck is empty.
func (d *Deck) Random() (Card, bool) {
	d.mu.RLock()
	all := d.cards
	d.mu.RUnlock()
	if len(all) == 0 {
		return Card{}, false
	}
	return all[d.intn(len(all))], true
}

func (d *Deck) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.cards)
}

// Emotions lists the distinct emotion values present in the deck, in first-seen order.
func (d *Deck) Emotions() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	seen := map[string]bool{}
	var out []string
	for _, c := range d.cards {
		if !seen[c.Emotion] {
			seen[c.Emotion] = true
			out = append(out, c.Emotion)
		}
	}
	return out
}
