package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"ella/internal/database"
	"ella/internal/models"
	"ella/internal/repository"
)

// BackupVersion is written into every export
const BackupVersion = "1.0"

// BackupData represents the complete database backup structure
type BackupData struct {
	Version      string                  `json:"version"`
	ExportedAt   time.Time               `json:"exported_at"`
	DatabaseType string                  `json:"database_type"`
	Users        []models.UserProfile    `json:"users"`
	Books        []models.Book           `json:"books"`
	Sessions     []models.ReadingSession `json:"sessions"`
	Activities   []models.Activity       `json:"activities"`
	Redemptions  []models.Redemption     `json:"redemptions"`
}

// BackupService handles database backup and restore operations
type BackupService struct {
	db          *database.DB
	users       *repository.UserRepository
	books       *repository.BookRepository
	sessions    *repository.ReadingRepository
	activities  *repository.ActivityRepository
	redemptions *repository.RedemptionRepository
	logger      *zap.Logger
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB, logger *zap.Logger) *BackupService {
	users := repository.NewUserRepository(db)
	return &BackupService{
		db:          db,
		users:       users,
		books:       repository.NewBookRepository(db),
		sessions:    repository.NewReadingRepository(db, users),
		activities:  repository.NewActivityRepository(db),
		redemptions: repository.NewRedemptionRepository(db),
		logger:      logger.Named("backup"),
	}
}

// Export writes a complete backup of the database to w
func (s *BackupService) Export(ctx context.Context, w io.Writer) (*BackupData, error) {
	backup := &BackupData{
		Version:      BackupVersion,
		ExportedAt:   time.Now().UTC(),
		DatabaseType: "universal",
	}

	users, err := s.users.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to export users: %w", err)
	}
	for i := range users {
		backup.Users = append(backup.Users, users[i].Profile())
	}

	if backup.Books, err = s.books.List(ctx, repository.BookFilter{}); err != nil {
		return nil, fmt.Errorf("failed to export books: %w", err)
	}
	if backup.Sessions, err = s.sessions.ListAll(ctx); err != nil {
		return nil, fmt.Errorf("failed to export sessions: %w", err)
	}
	if backup.Activities, err = s.activities.ListAll(ctx); err != nil {
		return nil, fmt.Errorf("failed to export activities: %w", err)
	}
	if backup.Redemptions, err = s.redemptions.ListAll(ctx); err != nil {
		return nil, fmt.Errorf("failed to export redemptions: %w", err)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return nil, fmt.Errorf("failed to encode backup: %w", err)
	}

	s.logger.Info("Database exported",
		zap.Int("users", len(backup.Users)),
		zap.Int("books", len(backup.Books)),
		zap.Int("sessions", len(backup.Sessions)),
		zap.Int("activities", len(backup.Activities)),
		zap.Int("redemptions", len(backup.Redemptions)))
	return backup, nil
}

// Import restores a backup read from r in a single transaction. With clear
// set, existing rows are deleted first; otherwise conflicting ids fail the
// import and nothing is written.
func (s *BackupService) Import(ctx context.Context, r io.Reader, clear bool) (*BackupData, error) {
	var backup BackupData
	if err := json.NewDecoder(r).Decode(&backup); err != nil {
		return nil, fmt.Errorf("failed to decode backup: %w", err)
	}
	s.logger.Info("Importing backup",
		zap.String("version", backup.Version),
		zap.Time("exportedAt", backup.ExportedAt))

	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		if clear {
			if err := clearTables(ctx, tx); err != nil {
				return err
			}
		}

		for i := range backup.Users {
			user := backup.Users[i].User
			user.Rewards = backup.Users[i].UserRewardState
			user.Rewards.Normalize()
			if err := s.users.Import(ctx, tx, &user); err != nil {
				return fmt.Errorf("failed to import user %s: %w", user.UID, err)
			}
		}
		for i := range backup.Books {
			if err := s.books.Import(ctx, tx, &backup.Books[i]); err != nil {
				return fmt.Errorf("failed to import book %s: %w", backup.Books[i].ID, err)
			}
		}
		for i := range backup.Sessions {
			if err := s.sessions.Import(ctx, tx, &backup.Sessions[i]); err != nil {
				return fmt.Errorf("failed to import session %s: %w", backup.Sessions[i].ID, err)
			}
		}
		for i := range backup.Activities {
			if err := s.activities.Import(ctx, tx, &backup.Activities[i]); err != nil {
				return fmt.Errorf("failed to import activity %s: %w", backup.Activities[i].ID, err)
			}
		}
		for i := range backup.Redemptions {
			if err := s.redemptions.Import(ctx, tx, &backup.Redemptions[i]); err != nil {
				return fmt.Errorf("failed to import redemption %s: %w", backup.Redemptions[i].ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Database import completed", zap.Int("users", len(backup.Users)), zap.Bool("cleared", clear))
	return &backup, nil
}

func clearTables(ctx context.Context, tx *database.Tx) error {
	// Ledger tables first
	tables := []string{"redemptions", "activities", "reading_sessions", "books", "users"}
	for _, table := range tables {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear table %s: %w", table, err)
		}
	}
	return nil
}
