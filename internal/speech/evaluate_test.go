package speech

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "rabbit", "rabbit", 1.0},
		{"anagram", "listen", "silent", 1.0},
		{"disjoint", "cat", "dog", 0},
		{"partial", "cat", "hat", 0.5},
		{"empty transcript", "", "anything", 0},
		{"empty expected", "anything", "", 0},
		{"both empty", "", "", 0},
		{"repeated letters ignored", "aaa", "a", 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Similarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestSimilarityBounds(t *testing.T) {
	words := []string{"a", "rabbit", "carrot", "the", "reading", "ünïcode", "x y"}
	for _, a := range words {
		for _, b := range words {
			s := Similarity(a, b)
			if s < 0 || s > 1 {
				t.Errorf("Similarity(%q, %q) = %v, out of [0,1]", a, b, s)
			}
		}
		assert.Equal(t, 1.0, Similarity(a, a), "Similarity(x, x) for %q", a)
	}
}

func TestScore(t *testing.T) {
	assert.Equal(t, 100, Score(true, 1.0))
	assert.Equal(t, 25, Score(false, 0.5))
	assert.Equal(t, 49, Score(false, 0.999))
	assert.Equal(t, 0, Score(false, 0))
}

func TestEvaluate(t *testing.T) {
	t.Run("unrecognized", func(t *testing.T) {
		got := Evaluate(nil, "Rabbit")
		assert.False(t, got.Success)
		assert.False(t, got.Correct)
		assert.Zero(t, got.Confidence)
		assert.Zero(t, got.Similarity)
		assert.Equal(t, MessageUnrecognized, got.Message)
	})

	t.Run("correct after normalization", func(t *testing.T) {
		got := Evaluate(&Transcript{Text: " Rabbit ", Confidence: 0.93}, "rabbit ")
		assert.True(t, got.Success)
		assert.True(t, got.Correct)
		assert.Equal(t, 1.0, got.Similarity)
		assert.Equal(t, 100, got.Score)
		assert.Equal(t, MessageCorrect, got.Message)
		assert.InDelta(t, 0.93, got.Confidence, 1e-9)
	})

	t.Run("incorrect gets partial credit", func(t *testing.T) {
		got := Evaluate(&Transcript{Text: "hat", Confidence: 0.5}, "cat")
		assert.True(t, got.Success)
		assert.False(t, got.Correct)
		assert.InDelta(t, 0.5, got.Similarity, 1e-9)
		assert.Equal(t, 25, got.Score)
		assert.Equal(t, `You said "hat", but the word is "cat"`, got.Message)
	})
}
