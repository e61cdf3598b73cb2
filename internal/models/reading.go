package models

import "time"

// ReadingSession tracks one learner reading through a single book
type ReadingSession struct {
	ID              string        `json:"sessionId"`
	UserID          string        `json:"uid"`
	BookID          string        `json:"bookId"`
	TotalSentences  int           `json:"totalSentences"`
	CurrentSentence int           `json:"currentSentence"`
	WordsRead       []WordAttempt `json:"wordsRead"`
	Active          bool          `json:"active"`
	StartTime       time.Time     `json:"startTime"`
	LastActivity    *time.Time    `json:"lastActivity,omitempty"`
	CompletedAt     *time.Time    `json:"completedAt,omitempty"`
	PointsEarned    *int          `json:"pointsEarned,omitempty"`
	Accuracy        *float64      `json:"accuracy,omitempty"`

	// Version guards conditional updates; bumped on every write
	Version int64 `json:"-"`
}

// IsCompleted reports whether the session reached its terminal state
func (s *ReadingSession) IsCompleted() bool {
	return !s.Active || s.CompletedAt != nil
}

// AtLastSentence reports whether the reader has reached the end of the book
func (s *ReadingSession) AtLastSentence() bool {
	return s.CurrentSentence >= s.TotalSentences
}

// WordAttempt is one recorded judgment of a spoken word
type WordAttempt struct {
	Word          string    `json:"word"`
	SentenceIndex int       `json:"sentenceIndex"`
	Correct       bool      `json:"correct"`
	Attempts      int       `json:"attempts"`
	Timestamp     time.Time `json:"timestamp"`
}

// SessionOutcome is the scoring result written when a session completes
type SessionOutcome struct {
	PointsEarned  int       `json:"pointsEarned"`
	Accuracy      float64   `json:"accuracy"`
	SentencesRead int       `json:"sentencesRead"`
	CompletedAt   time.Time `json:"-"`
}
