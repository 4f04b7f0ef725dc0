// Package emotion maps interpretation text to one label of a closed vocabulary.
package emotion

import "context"

type Label string

const (
	Anxiety  Label = "焦慮"
	Fear     Label = "恐懼"
	Joy      Label = "快樂"
	Sadness  Label = "悲傷"
	Surprise Label = "驚奇"
	Love     Label = "愛"
	Unknown  Label = "未知"
)

// Classifiable lists every label a classifier may pick, in rule-table order.
var Classifiable = []Label{Anxiety, Fear, Joy, Sadness, Surprise, Love}

// Valid reports whether l belongs to the vocabulary, Unknown included.
func Valid(l Label) bool {
	if l == Unknown {
		return true
	}
	for _, c := range Classifiable {
		if c == l {
			return true
		}
	}
	return false
}

func (l Label) String() string { return string(l) }

// Classification always carries exactly one label. Summary is set only by delegated strategies.
type Classification struct {
	Label   Label
	Summary string
}

// Classifier is total: every input yields a Classification.
type Classifier interface {
	Classify(ctx context.Context, text string) Classification
}
