// Package speech evaluates spoken pronunciation against an expected word.
package speech

import (
	"fmt"
	"math"
	"strings"
)

// Messages returned to the learner
const (
	MessageCorrect      = "Correct!"
	MessageUnrecognized = "could not recognize speech"
)

// Transcript is a recognizer result. Text is lowercased and trimmed.
type Transcript struct {
	Text       string  `json:"transcript"`
	Confidence float64 `json:"confidence"`
}

// Evaluation is the outcome of comparing a transcript with the expected word
type Evaluation struct {
	Success    bool    `json:"success"`
	Correct    bool    `json:"correct"`
	Transcript string  `json:"transcript"`
	Expected   string  `json:"expected"`
	Confidence float64 `json:"confidence"`
	Similarity float64 `json:"similarity"`
	Score      int     `json:"score"`
	Message    string  `json:"message"`
}

// Evaluate compares transcript with expected. A nil transcript means
// recognition failed. expected must be non-empty; callers validate it.
func Evaluate(transcript *Transcript, expected string) Evaluation {
	want := normalize(expected)
	if transcript == nil {
		return Evaluation{
			Success:  false,
			Expected: want,
			Message:  MessageUnrecognized,
		}
	}

	got := normalize(transcript.Text)
	correct := got == want
	similarity := Similarity(got, want)

	message := MessageCorrect
	if !correct {
		message = fmt.Sprintf("You said %q, but the word is %q", got, want)
	}

	return Evaluation{
		Success:    true,
		Correct:    correct,
		Transcript: got,
		Expected:   want,
		Confidence: transcript.Confidence,
		Similarity: similarity,
		Score:      Score(correct, similarity),
		Message:    message,
	}
}

// Similarity is the Jaccard index of the distinct characters in a and b.
// It ignores character order and repetition, so "listen" and "silent" score
// 1.0. Inputs are compared as given; Evaluate normalizes first.
func Similarity(a, b string) float64 {
	if a == b && a != "" {
		return 1.0
	}
	if a == "" || b == "" {
		return 0
	}

	setA := charSet(a)
	setB := charSet(b)

	intersection := 0
	for r := range setA {
		if setB[r] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}

// Score maps an evaluation to the 0-100 scale shown to the learner.
// Partial credit never reaches 50, the pass mark.
func Score(correct bool, similarity float64) int {
	if correct {
		return 100
	}
	return int(math.Floor(similarity * 50))
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func charSet(s string) map[rune]bool {
	set := make(map[rune]bool, len(s))
	for _, r := range s {
		set[r] = true
	}
	return set
}
