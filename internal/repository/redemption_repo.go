package repository

import (
	"context"
	"fmt"

	"ella/internal/database"
	"ella/internal/models"
)

// RedemptionRepository reads prize redemption history
type RedemptionRepository struct {
	db *database.DB
}

// NewRedemptionRepository creates a new redemption repository
func NewRedemptionRepository(db *database.DB) *RedemptionRepository {
	return &RedemptionRepository{db: db}
}

// ListByUser returns the newest redemptions first
func (r *RedemptionRepository) ListByUser(ctx context.Context, uid string, limit int) ([]models.Redemption, error) {
	query := `
		SELECT id, uid, prize_id, point_cost, created_at
		FROM redemptions
		WHERE uid = ?
		ORDER BY created_at DESC
		LIMIT ?
	`
	return r.query(ctx, query, uid, limit)
}

// ListAll returns every redemption, used by backups
func (r *RedemptionRepository) ListAll(ctx context.Context) ([]models.Redemption, error) {
	return r.query(ctx, `SELECT id, uid, prize_id, point_cost, created_at FROM redemptions ORDER BY created_at`)
}

// Import inserts a redemption inside an existing transaction
func (r *RedemptionRepository) Import(ctx context.Context, tx database.DBTX, red *models.Redemption) error {
	return insertRedemption(ctx, tx, red)
}

func (r *RedemptionRepository) query(ctx context.Context, query string, args ...interface{}) ([]models.Redemption, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query redemptions: %w", err)
	}
	defer rows.Close()

	redemptions := []models.Redemption{}
	for rows.Next() {
		var red models.Redemption
		if err := rows.Scan(&red.ID, &red.UserID, &red.PrizeID, &red.PointCost, &red.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan redemption: %w", err)
		}
		redemptions = append(redemptions, red)
	}
	return redemptions, rows.Err()
}

func insertRedemption(ctx context.Context, q database.DBTX, red *models.Redemption) error {
	query := `
		INSERT INTO redemptions (id, uid, prize_id, point_cost, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	if _, err := q.ExecContext(ctx, query, red.ID, red.UserID, red.PrizeID, red.PointCost, red.CreatedAt); err != nil {
		return fmt.Errorf("failed to insert redemption: %w", err)
	}
	return nil
}
