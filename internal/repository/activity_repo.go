package repository

import (
	"context"
	"fmt"

	"ella/internal/database"
	"ella/internal/models"
)

// ActivityRepository reads the per-user reading history
type ActivityRepository struct {
	db *database.DB
}

// NewActivityRepository creates a new activity repository
func NewActivityRepository(db *database.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// ListByUser returns the newest activities first
func (r *ActivityRepository) ListByUser(ctx context.Context, uid string, limit int) ([]models.Activity, error) {
	query := `
		SELECT id, uid, book_id, sentences_read, total_sentences, points_earned, completed, created_at
		FROM activities
		WHERE uid = ?
		ORDER BY created_at DESC
		LIMIT ?
	`
	return r.query(ctx, query, uid, limit)
}

// ListAll returns every activity, used by backups
func (r *ActivityRepository) ListAll(ctx context.Context) ([]models.Activity, error) {
	query := `
		SELECT id, uid, book_id, sentences_read, total_sentences, points_earned, completed, created_at
		FROM activities
		ORDER BY created_at
	`
	return r.query(ctx, query)
}

// Import inserts an activity inside an existing transaction
func (r *ActivityRepository) Import(ctx context.Context, tx database.DBTX, a *models.Activity) error {
	return insertActivity(ctx, tx, a)
}

func (r *ActivityRepository) query(ctx context.Context, query string, args ...interface{}) ([]models.Activity, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query activities: %w", err)
	}
	defer rows.Close()

	activities := []models.Activity{}
	for rows.Next() {
		var a models.Activity
		if err := rows.Scan(&a.ID, &a.UserID, &a.BookID, &a.SentencesRead, &a.TotalSentences,
			&a.PointsEarned, &a.Completed, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}

func insertActivity(ctx context.Context, q database.DBTX, a *models.Activity) error {
	query := `
		INSERT INTO activities (id, uid, book_id, sentences_read, total_sentences, points_earned, completed, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := q.ExecContext(ctx, query, a.ID, a.UserID, a.BookID, a.SentencesRead, a.TotalSentences,
		a.PointsEarned, a.Completed, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert activity: %w", err)
	}
	return nil
}

func insertLedgerRecord(ctx context.Context, q database.DBTX, rec models.LedgerRecord) error {
	switch v := rec.(type) {
	case *models.Activity:
		return insertActivity(ctx, q, v)
	case *models.Redemption:
		return insertRedemption(ctx, q, v)
	default:
		return fmt.Errorf("unsupported ledger record %T", rec)
	}
}
