package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ella/internal/database"
	"ella/internal/models"
)

// ReadingRepository stores reading sessions. Every write is conditional on
// the session version and on the session still being active.
type ReadingRepository struct {
	db    *database.DB
	users *UserRepository
}

// NewReadingRepository creates a new reading session repository. users is
// needed so completion can merge rewards in the same transaction.
func NewReadingRepository(db *database.DB, users *UserRepository) *ReadingRepository {
	return &ReadingRepository{db: db, users: users}
}

const sessionColumns = `id, uid, book_id, total_sentences, current_sentence, words_read, active,
	start_time, last_activity, completed_at, points_earned, accuracy, version`

func scanSession(row rowScanner) (*models.ReadingSession, error) {
	s := &models.ReadingSession{}
	var words string
	var lastActivity, completedAt sql.NullTime
	var points sql.NullInt64
	var accuracy sql.NullFloat64

	err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.BookID,
		&s.TotalSentences,
		&s.CurrentSentence,
		&words,
		&s.Active,
		&s.StartTime,
		&lastActivity,
		&completedAt,
		&points,
		&accuracy,
		&s.Version,
	)
	if err != nil {
		return nil, err
	}

	if err := decodeJSON(words, &s.WordsRead); err != nil {
		return nil, err
	}
	if s.WordsRead == nil {
		s.WordsRead = []models.WordAttempt{}
	}
	for i := range s.WordsRead {
		if s.WordsRead[i].Attempts < 1 {
			s.WordsRead[i].Attempts = 1
		}
	}
	if lastActivity.Valid {
		s.LastActivity = &lastActivity.Time
	}
	if completedAt.Valid {
		s.CompletedAt = &completedAt.Time
	}
	if points.Valid {
		p := int(points.Int64)
		s.PointsEarned = &p
	}
	if accuracy.Valid {
		a := accuracy.Float64
		s.Accuracy = &a
	}
	return s, nil
}

// Create inserts a new session
func (r *ReadingRepository) Create(ctx context.Context, s *models.ReadingSession) error {
	return r.insert(ctx, r.db, s)
}

// Import inserts a session inside an existing transaction
func (r *ReadingRepository) Import(ctx context.Context, tx database.DBTX, s *models.ReadingSession) error {
	return r.insert(ctx, tx, s)
}

func (r *ReadingRepository) insert(ctx context.Context, q database.DBTX, s *models.ReadingSession) error {
	if s.WordsRead == nil {
		s.WordsRead = []models.WordAttempt{}
	}
	words, err := encodeJSON(s.WordsRead)
	if err != nil {
		return err
	}
	if s.Version == 0 {
		s.Version = 1
	}

	var points sql.NullInt64
	if s.PointsEarned != nil {
		points = sql.NullInt64{Int64: int64(*s.PointsEarned), Valid: true}
	}
	var accuracy sql.NullFloat64
	if s.Accuracy != nil {
		accuracy = sql.NullFloat64{Float64: *s.Accuracy, Valid: true}
	}

	query := `INSERT INTO reading_sessions (` + sessionColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = q.ExecContext(ctx, query,
		s.ID,
		s.UserID,
		s.BookID,
		s.TotalSentences,
		s.CurrentSentence,
		words,
		s.Active,
		s.StartTime,
		nullTime(s.LastActivity),
		nullTime(s.CompletedAt),
		points,
		accuracy,
		s.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to create reading session: %w", err)
	}
	return nil
}

// GetByID retrieves a session, or nil when it does not exist
func (r *ReadingRepository) GetByID(ctx context.Context, id string) (*models.ReadingSession, error) {
	return r.getByID(ctx, r.db, id)
}

func (r *ReadingRepository) getByID(ctx context.Context, q database.DBTX, id string) (*models.ReadingSession, error) {
	s, err := scanSession(q.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM reading_sessions WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reading session: %w", err)
	}
	return s, nil
}

// Update writes the mutable progress fields of an open session. It fails
// with ErrConflict when s.Version is stale and ErrSessionInactive when the
// session was completed in the meantime. On success s.Version is advanced.
func (r *ReadingRepository) Update(ctx context.Context, s *models.ReadingSession) error {
	words, err := encodeJSON(s.WordsRead)
	if err != nil {
		return err
	}

	query := `
		UPDATE reading_sessions
		SET current_sentence = ?, words_read = ?, last_activity = ?, version = version + 1
		WHERE id = ? AND version = ? AND active = ` + r.db.Dialect.BoolValue(true)

	res, err := r.db.ExecContext(ctx, query, s.CurrentSentence, words, nullTime(s.LastActivity), s.ID, s.Version)
	if err != nil {
		return fmt.Errorf("failed to update reading session: %w", err)
	}
	if err := r.checkSessionWrite(ctx, r.db, res, s.ID); err != nil {
		return err
	}
	s.Version++
	return nil
}

// Complete flips an open session to completed and merges the reward update
// into the owner's record in one transaction. Either both writes land or
// neither does. A stale session version yields ErrConflict for the caller to
// re-read; a conflict on the user row is retried here.
func (r *ReadingRepository) Complete(ctx context.Context, s *models.ReadingSession, outcome models.SessionOutcome, update models.RewardUpdate, records ...models.LedgerRecord) (*models.UserRewardState, error) {
	var state *models.UserRewardState
	var err error

	for attempt := 0; attempt < maxRewardRetries; attempt++ {
		userConflict := false
		err = r.db.WithTx(ctx, func(tx *database.Tx) error {
			if err := r.markCompleted(ctx, tx, s, outcome); err != nil {
				return err
			}
			var txErr error
			state, txErr = r.users.applyRewardTx(ctx, tx, s.UserID, update, outcome.CompletedAt, records)
			userConflict = errors.Is(txErr, ErrConflict)
			return txErr
		})
		if !userConflict {
			break
		}
	}
	if err != nil {
		return nil, err
	}

	completedAt := outcome.CompletedAt
	points := outcome.PointsEarned
	accuracy := outcome.Accuracy
	s.Active = false
	s.CompletedAt = &completedAt
	s.LastActivity = &completedAt
	s.PointsEarned = &points
	s.Accuracy = &accuracy
	s.Version++

	return state, nil
}

func (r *ReadingRepository) markCompleted(ctx context.Context, tx database.DBTX, s *models.ReadingSession, outcome models.SessionOutcome) error {
	dialect := tx.GetDialect()
	query := `
		UPDATE reading_sessions
		SET active = ` + dialect.BoolValue(false) + `, completed_at = ?, last_activity = ?,
		    points_earned = ?, accuracy = ?, version = version + 1
		WHERE id = ? AND version = ? AND active = ` + dialect.BoolValue(true)

	res, err := tx.ExecContext(ctx, query,
		outcome.CompletedAt, outcome.CompletedAt, outcome.PointsEarned, outcome.Accuracy, s.ID, s.Version)
	if err != nil {
		return fmt.Errorf("failed to complete reading session: %w", err)
	}
	return r.checkSessionWrite(ctx, tx, res, s.ID)
}

// checkSessionWrite explains a conditional update that matched no rows
func (r *ReadingRepository) checkSessionWrite(ctx context.Context, q database.DBTX, res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check session update: %w", err)
	}
	if n > 0 {
		return nil
	}

	current, err := r.getByID(ctx, q, id)
	if err != nil {
		return err
	}
	switch {
	case current == nil:
		return fmt.Errorf("reading session %s: %w", id, ErrNotFound)
	case !current.Active:
		return ErrSessionInactive
	default:
		return ErrConflict
	}
}

// ListByUser returns a user's sessions, newest first
func (r *ReadingRepository) ListByUser(ctx context.Context, uid string, limit int) ([]models.ReadingSession, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM reading_sessions
		WHERE uid = ?
		ORDER BY start_time DESC
		LIMIT ?
	`
	return r.query(ctx, query, uid, limit)
}

// ListAll returns every session, used by backups
func (r *ReadingRepository) ListAll(ctx context.Context) ([]models.ReadingSession, error) {
	return r.query(ctx, `SELECT `+sessionColumns+` FROM reading_sessions ORDER BY start_time`)
}

// CompletedStats counts a user's completed sessions and averages their accuracy
func (r *ReadingRepository) CompletedStats(ctx context.Context, uid string) (int, float64, error) {
	query := `
		SELECT COUNT(*), COALESCE(AVG(accuracy), 0)
		FROM reading_sessions
		WHERE uid = ? AND active = ` + r.db.Dialect.BoolValue(false)

	var count int
	var avg float64
	if err := r.db.QueryRowContext(ctx, query, uid).Scan(&count, &avg); err != nil {
		return 0, 0, fmt.Errorf("failed to compute session stats: %w", err)
	}
	return count, avg, nil
}

func (r *ReadingRepository) query(ctx context.Context, query string, args ...interface{}) ([]models.ReadingSession, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reading sessions: %w", err)
	}
	defer rows.Close()

	sessions := []models.ReadingSession{}
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reading session: %w", err)
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}
