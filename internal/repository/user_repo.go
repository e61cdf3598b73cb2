package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ella/internal/database"
	"ella/internal/models"
)

// UserRepository handles database operations for users and their reward state
type UserRepository struct {
	db *database.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `uid, email, name, character_name, role, points, total_points,
	enrolled_code, class_code, unlocked_stickers, progress, version,
	created_at, last_login, last_activity`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*models.User, error) {
	user := &models.User{}
	var stickers, progress string
	var lastLogin, lastActivity sql.NullTime

	err := row.Scan(
		&user.UID,
		&user.Email,
		&user.Name,
		&user.Character,
		&user.Role,
		&user.Rewards.Points,
		&user.Rewards.TotalPoints,
		&user.EnrolledCode,
		&user.ClassCode,
		&stickers,
		&progress,
		&user.Rewards.Version,
		&user.CreatedAt,
		&lastLogin,
		&lastActivity,
	)
	if err != nil {
		return nil, err
	}

	if err := decodeJSON(stickers, &user.Rewards.UnlockedStickers); err != nil {
		return nil, err
	}
	if err := decodeJSON(progress, &user.Rewards.Progress); err != nil {
		return nil, err
	}
	user.Rewards.Normalize()

	if user.Character == "" {
		user.Character = models.DefaultCharacter
	}
	if lastLogin.Valid {
		user.LastLogin = &lastLogin.Time
	}
	if lastActivity.Valid {
		user.LastActivity = &lastActivity.Time
	}
	return user, nil
}

// GetByUID retrieves a user by provider uid
func (r *UserRepository) GetByUID(ctx context.Context, uid string) (*models.User, error) {
	return r.getByUID(ctx, r.db, uid)
}

func (r *UserRepository) getByUID(ctx context.Context, q database.DBTX, uid string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE uid = ?`
	user, err := scanUser(q.QueryRowContext(ctx, query, uid))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// Create inserts a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	return r.insert(ctx, r.db, user)
}

func (r *UserRepository) insert(ctx context.Context, q database.DBTX, user *models.User) error {
	user.Rewards.Normalize()
	stickers, err := encodeJSON(user.Rewards.UnlockedStickers)
	if err != nil {
		return err
	}
	progress, err := encodeJSON(user.Rewards.Progress)
	if err != nil {
		return err
	}
	if user.Rewards.Version == 0 {
		user.Rewards.Version = 1
	}

	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = q.ExecContext(ctx, query,
		user.UID,
		user.Email,
		user.Name,
		user.Character,
		user.Role,
		user.Rewards.Points,
		user.Rewards.TotalPoints,
		user.EnrolledCode,
		user.ClassCode,
		stickers,
		progress,
		user.Rewards.Version,
		user.CreatedAt,
		nullTime(user.LastLogin),
		nullTime(user.LastActivity),
	)
	if q.GetDialect().IsUniqueViolation(err) {
		return fmt.Errorf("user %s: %w", user.UID, ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// UpdateProfile applies the non-nil fields of update
func (r *UserRepository) UpdateProfile(ctx context.Context, uid string, update models.ProfileUpdate, at time.Time) error {
	query := "UPDATE users SET last_activity = ?"
	args := []interface{}{at}

	if update.Name != nil {
		query += ", name = ?"
		args = append(args, *update.Name)
	}
	if update.Character != nil {
		query += ", character_name = ?"
		args = append(args, *update.Character)
	}
	if update.EnrolledCode != nil {
		query += ", enrolled_code = ?"
		args = append(args, *update.EnrolledCode)
	}
	if update.ClassCode != nil {
		query += ", class_code = ?"
		args = append(args, *update.ClassCode)
	}
	if update.Role != nil {
		query += ", role = ?"
		args = append(args, *update.Role)
	}
	query += " WHERE uid = ?"
	args = append(args, uid)

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return requireRow(res)
}

// TouchLogin records a successful sign-in
func (r *UserRepository) TouchLogin(ctx context.Context, uid string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, "UPDATE users SET last_login = ?, last_activity = ? WHERE uid = ?", at, at, uid)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return nil
}

// TouchActivity updates the last activity timestamp
func (r *UserRepository) TouchActivity(ctx context.Context, uid string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, "UPDATE users SET last_activity = ? WHERE uid = ?", at, uid)
	if err != nil {
		return fmt.Errorf("failed to update last activity: %w", err)
	}
	return nil
}

// ApplyReward runs update against the user's reward state and writes the
// result together with records in one transaction. The write is guarded by
// the row version and retried when another writer got there first.
func (r *UserRepository) ApplyReward(ctx context.Context, uid string, update models.RewardUpdate, records ...models.LedgerRecord) (*models.UserRewardState, error) {
	var state *models.UserRewardState
	var err error

	for attempt := 0; attempt < maxRewardRetries; attempt++ {
		err = r.db.WithTx(ctx, func(tx *database.Tx) error {
			var txErr error
			state, txErr = r.applyRewardTx(ctx, tx, uid, update, time.Now().UTC(), records)
			return txErr
		})
		if !errors.Is(err, ErrConflict) {
			break
		}
	}
	if err != nil {
		return nil, err
	}
	return state, nil
}

// applyRewardTx is the read-modify-write step shared with session completion
func (r *UserRepository) applyRewardTx(ctx context.Context, tx database.DBTX, uid string, update models.RewardUpdate, at time.Time, records []models.LedgerRecord) (*models.UserRewardState, error) {
	user, err := r.getByUID(ctx, tx, uid)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("user %s: %w", uid, ErrNotFound)
	}

	state := user.Rewards
	if err := update(&state); err != nil {
		return nil, err
	}
	state.Normalize()

	stickers, err := encodeJSON(state.UnlockedStickers)
	if err != nil {
		return nil, err
	}
	progress, err := encodeJSON(state.Progress)
	if err != nil {
		return nil, err
	}

	query := `
		UPDATE users
		SET points = ?, total_points = ?, unlocked_stickers = ?, progress = ?,
		    version = version + 1, last_activity = ?
		WHERE uid = ? AND version = ?
	`
	res, err := tx.ExecContext(ctx, query,
		state.Points, state.TotalPoints, stickers, progress, at, uid, state.Version)
	if err != nil {
		return nil, fmt.Errorf("failed to update reward state: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check reward update: %w", err)
	}
	if n == 0 {
		return nil, ErrConflict
	}
	state.Version++

	for _, rec := range records {
		if err := insertLedgerRecord(ctx, tx, rec); err != nil {
			return nil, err
		}
	}

	return &state, nil
}

// Leaderboard returns users ordered by lifetime points
func (r *UserRepository) Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		ORDER BY total_points DESC, uid ASC
		LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	entries := []models.LeaderboardEntry{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard row: %w", err)
		}
		name := user.Name
		if name == "" {
			name = "Anonymous"
		}
		entries = append(entries, models.LeaderboardEntry{
			UID:            user.UID,
			Name:           name,
			Character:      user.Character,
			TotalPoints:    user.Rewards.TotalPoints,
			BooksCompleted: user.Rewards.BooksCompleted(),
		})
	}
	return entries, rows.Err()
}

// ListAll returns every user, used by backups
func (r *UserRepository) ListAll(ctx context.Context) ([]models.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at, uid`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

// Import inserts a user inside an existing transaction, used by restores
func (r *UserRepository) Import(ctx context.Context, tx database.DBTX, user *models.User) error {
	return r.insert(ctx, tx, user)
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
