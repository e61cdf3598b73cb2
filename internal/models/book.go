package models

import "time"

// Difficulty levels used by the scoring multiplier
const (
	DifficultyBeginner     = "Beginner"
	DifficultyIntermediate = "Intermediate"
	DifficultyAdvanced     = "Advanced"
)

// Book is a catalog entry. Contents holds one sentence per element.
type Book struct {
	ID            string    `json:"id" yaml:"id"`
	Title         string    `json:"title" yaml:"title"`
	Writer        string    `json:"writer" yaml:"writer"`
	Publisher     string    `json:"publisher,omitempty" yaml:"publisher"`
	Source        string    `json:"source,omitempty" yaml:"source"`
	Difficulty    string    `json:"difficulty,omitempty" yaml:"difficulty"`
	Cover         string    `json:"cover,omitempty" yaml:"cover"`
	Contents      []string  `json:"contents" yaml:"contents"`
	SentenceCount *int      `json:"sentenceCount,omitempty" yaml:"sentenceCount"`
	CreatedAt     time.Time `json:"createdAt" yaml:"-"`
}

// TotalSentences prefers the stored count and falls back to the contents length
func (b *Book) TotalSentences() int {
	if b.SentenceCount != nil {
		return *b.SentenceCount
	}
	return len(b.Contents)
}
