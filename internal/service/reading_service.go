package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ella/internal/metrics"
	"ella/internal/models"
	"ella/internal/repository"
)

const (
	defaultSessionListLimit = 20
	maxSessionListLimit     = 100
)

// BookCatalog looks up books; nil, nil means the book does not exist
type BookCatalog interface {
	GetByID(ctx context.Context, id string) (*models.Book, error)
}

// SessionStore persists reading sessions. Update and Complete are
// conditional on the session version and return repository.ErrConflict or
// repository.ErrSessionInactive when the condition fails.
type SessionStore interface {
	Create(ctx context.Context, s *models.ReadingSession) error
	GetByID(ctx context.Context, id string) (*models.ReadingSession, error)
	Update(ctx context.Context, s *models.ReadingSession) error
	Complete(ctx context.Context, s *models.ReadingSession, outcome models.SessionOutcome, update models.RewardUpdate, records ...models.LedgerRecord) (*models.UserRewardState, error)
	ListByUser(ctx context.Context, uid string, limit int) ([]models.ReadingSession, error)
}

// RewardLedger reads a user's reward state and applies read-modify-write
// updates to it atomically, retrying on version conflicts. records are
// written in the same transaction.
type RewardLedger interface {
	GetByUID(ctx context.Context, uid string) (*models.User, error)
	ApplyReward(ctx context.Context, uid string, update models.RewardUpdate, records ...models.LedgerRecord) (*models.UserRewardState, error)
}

var (
	_ SessionStore = (*repository.ReadingRepository)(nil)
	_ RewardLedger = (*repository.UserRepository)(nil)
)

// RecordWordInput is one pronunciation judgment submitted by the client
type RecordWordInput struct {
	SessionID     string
	Word          string
	SentenceIndex int
	Correct       bool
	Attempts      int
}

// AdvanceResult reports the position after advancing
type AdvanceResult struct {
	CurrentSentence int  `json:"currentSentence"`
	Completed       bool `json:"completed"`
}

// CompletionResult is returned to the client when a session completes
type CompletionResult struct {
	PointsEarned  int     `json:"pointsEarned"`
	Accuracy      float64 `json:"accuracy"`
	SentencesRead int     `json:"sentencesRead"`
	TotalPoints   int     `json:"totalPoints"`
	NewStickers   []int   `json:"newStickers"`
}

// ReadingService runs the reading session lifecycle: start, record words,
// advance sentences, and complete with a reward merge.
type ReadingService struct {
	books      BookCatalog
	sessions   SessionStore
	metrics    *metrics.Metrics
	logger     *zap.Logger
	maxRetries int
	now        func() time.Time
}

// NewReadingService creates a new reading service. maxRetries bounds how
// often a write is retried after a concurrent change to the same session.
func NewReadingService(books BookCatalog, sessions SessionStore, m *metrics.Metrics, logger *zap.Logger, maxRetries int) *ReadingService {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &ReadingService{
		books:      books,
		sessions:   sessions,
		metrics:    m,
		logger:     logger.Named("reading"),
		maxRetries: maxRetries,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// StartSession opens a session for bookID
func (s *ReadingService) StartSession(ctx context.Context, uid, bookID string) (*models.ReadingSession, error) {
	bookID = strings.TrimSpace(bookID)
	if bookID == "" {
		return nil, invalidInput("Book ID is required")
	}

	book, err := s.books.GetByID(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("failed to load book: %w", err)
	}
	if book == nil {
		return nil, ErrBookNotFound
	}

	session := &models.ReadingSession{
		ID:              uuid.NewString(),
		UserID:          uid,
		BookID:          book.ID,
		TotalSentences:  book.TotalSentences(),
		CurrentSentence: 0,
		WordsRead:       []models.WordAttempt{},
		Active:          true,
		StartTime:       s.now(),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.metrics.SessionsStarted.Inc()
	s.logger.Info("Reading session started",
		zap.String("sessionId", session.ID),
		zap.String("uid", uid),
		zap.String("bookId", book.ID),
		zap.Int("totalSentences", session.TotalSentences))

	return session, nil
}

// GetSession returns a session owned by uid
func (s *ReadingService) GetSession(ctx context.Context, uid, sessionID string) (*models.ReadingSession, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, invalidInput("Session ID is required")
	}

	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	if session.UserID != uid {
		return nil, ErrSessionForbidden
	}
	return session, nil
}

// RecordWord appends a word attempt to an open session
func (s *ReadingService) RecordWord(ctx context.Context, uid string, in RecordWordInput) error {
	word := strings.TrimSpace(in.Word)
	if word == "" {
		return invalidInput("Word is required")
	}
	if in.SentenceIndex < 0 {
		return invalidInput("Sentence index must not be negative")
	}
	attempts := in.Attempts
	if attempts < 1 {
		attempts = 1
	}

	return s.mutate(ctx, uid, in.SessionID, func(session *models.ReadingSession, now time.Time) bool {
		session.WordsRead = append(session.WordsRead, models.WordAttempt{
			Word:          word,
			SentenceIndex: in.SentenceIndex,
			Correct:       in.Correct,
			Attempts:      attempts,
			Timestamp:     now,
		})
		session.LastActivity = &now
		return true
	})
}

// AdvanceSentence moves to the next sentence, never past the last one
func (s *ReadingService) AdvanceSentence(ctx context.Context, uid, sessionID string) (*AdvanceResult, error) {
	var result AdvanceResult

	err := s.mutate(ctx, uid, sessionID, func(session *models.ReadingSession, now time.Time) bool {
		if session.AtLastSentence() {
			result = AdvanceResult{CurrentSentence: session.CurrentSentence, Completed: true}
			return false
		}
		session.CurrentSentence++
		session.LastActivity = &now
		result = AdvanceResult{
			CurrentSentence: session.CurrentSentence,
			Completed:       session.AtLastSentence(),
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// mutate loads an open session, applies change and writes it back, retrying
// when another request changed the session in between. change returns false
// when there is nothing to write.
func (s *ReadingService) mutate(ctx context.Context, uid, sessionID string, change func(*models.ReadingSession, time.Time) bool) error {
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		session, err := s.GetSession(ctx, uid, sessionID)
		if err != nil {
			return err
		}
		if session.IsCompleted() {
			return ErrSessionCompleted
		}

		if !change(session, s.now()) {
			return nil
		}

		err = s.sessions.Update(ctx, session)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, repository.ErrConflict):
			s.logger.Debug("Session changed concurrently, retrying",
				zap.String("sessionId", sessionID), zap.Int("attempt", attempt+1))
			continue
		case errors.Is(err, repository.ErrSessionInactive):
			return ErrSessionCompleted
		default:
			return fmt.Errorf("failed to update session: %w", err)
		}
	}
	return ErrSessionBusy
}

// CompleteSession scores an open session and merges the result into the
// owner's progress, points and stickers. Completion happens at most once;
// later calls fail with ErrSessionCompleted and award nothing.
func (s *ReadingService) CompleteSession(ctx context.Context, uid, sessionID string) (*CompletionResult, error) {
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		session, err := s.GetSession(ctx, uid, sessionID)
		if err != nil {
			return nil, err
		}
		if session.IsCompleted() {
			return nil, ErrSessionCompleted
		}

		// A missing book scores with the default multiplier
		book, err := s.books.GetByID(ctx, session.BookID)
		if err != nil {
			return nil, fmt.Errorf("failed to load book: %w", err)
		}

		outcome := ScoreSession(session, book)
		outcome.CompletedAt = s.now()

		entry := models.ProgressEntry{
			BookID:         session.BookID,
			SentencesRead:  outcome.SentencesRead,
			TotalSentences: session.TotalSentences,
		}
		var newStickers []int
		merge := func(state *models.UserRewardState) error {
			newStickers = MergeProgress(state, entry, outcome.PointsEarned)
			return nil
		}
		activity := &models.Activity{
			ID:             uuid.NewString(),
			UserID:         uid,
			BookID:         session.BookID,
			SentencesRead:  entry.SentencesRead,
			TotalSentences: entry.TotalSentences,
			PointsEarned:   outcome.PointsEarned,
			Completed:      entry.Completed(),
			CreatedAt:      outcome.CompletedAt,
		}

		state, err := s.sessions.Complete(ctx, session, outcome, merge, activity)
		switch {
		case err == nil:
			s.metrics.SessionsCompleted.Inc()
			s.metrics.PointsAwarded.Add(float64(outcome.PointsEarned))
			s.logger.Info("Reading session completed",
				zap.String("sessionId", sessionID),
				zap.String("uid", uid),
				zap.Int("pointsEarned", outcome.PointsEarned),
				zap.Float64("accuracy", outcome.Accuracy),
				zap.Ints("newStickers", newStickers))

			if newStickers == nil {
				newStickers = []int{}
			}
			return &CompletionResult{
				PointsEarned:  outcome.PointsEarned,
				Accuracy:      outcome.Accuracy,
				SentencesRead: outcome.SentencesRead,
				TotalPoints:   state.TotalPoints,
				NewStickers:   newStickers,
			}, nil
		case errors.Is(err, repository.ErrConflict):
			s.metrics.CompletionConflicts.Inc()
			s.logger.Debug("Session changed before completion, rescoring",
				zap.String("sessionId", sessionID), zap.Int("attempt", attempt+1))
			continue
		case errors.Is(err, repository.ErrSessionInactive):
			return nil, ErrSessionCompleted
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrUserNotFound
		default:
			return nil, fmt.Errorf("failed to complete session: %w", err)
		}
	}
	return nil, ErrSessionBusy
}

// ListUserSessions returns the caller's sessions, newest first
func (s *ReadingService) ListUserSessions(ctx context.Context, uid string, limit int) ([]models.ReadingSession, error) {
	if limit <= 0 {
		limit = defaultSessionListLimit
	}
	if limit > maxSessionListLimit {
		limit = maxSessionListLimit
	}
	sessions, err := s.sessions.ListByUser(ctx, uid, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}
