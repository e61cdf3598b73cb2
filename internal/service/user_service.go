package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ella/internal/models"
	"ella/internal/repository"
	"ella/internal/validation"
)

const defaultHistoryLimit = 20

// ProgressInput is a direct progress report from the client
type ProgressInput struct {
	BookID         string
	SentencesRead  int
	TotalSentences int
	PointsEarned   int
}

// ProgressResult is the reward state after a progress update
type ProgressResult struct {
	Points           int   `json:"points"`
	TotalPoints      int   `json:"totalPoints"`
	UnlockedStickers []int `json:"unlockedStickers"`
	NewStickers      []int `json:"newStickers"`
}

// Achievements summarizes a user's rewards
type Achievements struct {
	UnlockedStickers []int `json:"unlockedStickers"`
	TotalPoints      int   `json:"totalPoints"`
	CurrentPoints    int   `json:"currentPoints"`
	BooksCompleted   int   `json:"booksCompleted"`
}

// UserStore is the user storage the user service needs
type UserStore interface {
	RewardLedger
	UpdateProfile(ctx context.Context, uid string, update models.ProfileUpdate, at time.Time) error
}

// UserService handles profile, progress and reading history
type UserService struct {
	users      UserStore
	activities *repository.ActivityRepository
	logger     *zap.Logger
	now        func() time.Time
}

// NewUserService creates a new user service
func NewUserService(users UserStore, activities *repository.ActivityRepository, logger *zap.Logger) *UserService {
	return &UserService{
		users:      users,
		activities: activities,
		logger:     logger.Named("user"),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Get returns the user or ErrUserNotFound
func (s *UserService) Get(ctx context.Context, uid string) (*models.User, error) {
	user, err := s.users.GetByUID(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// GetProgress returns the per-book progress list
func (s *UserService) GetProgress(ctx context.Context, uid string) ([]models.ProgressEntry, error) {
	user, err := s.Get(ctx, uid)
	if err != nil {
		return nil, err
	}
	return user.Rewards.Progress, nil
}

// UpdateProgress merges a progress report into the user record with the
// same contract as session completion and records an activity.
func (s *UserService) UpdateProgress(ctx context.Context, uid string, in ProgressInput) (*ProgressResult, error) {
	bookID := strings.TrimSpace(in.BookID)
	if bookID == "" {
		return nil, invalidInput("Book ID is required")
	}
	if in.SentencesRead < 0 || in.TotalSentences < 0 || in.PointsEarned < 0 {
		return nil, invalidInput("Progress values must not be negative")
	}

	entry := models.ProgressEntry{
		BookID:         bookID,
		SentencesRead:  in.SentencesRead,
		TotalSentences: in.TotalSentences,
	}
	activity := &models.Activity{
		ID:             uuid.NewString(),
		UserID:         uid,
		BookID:         bookID,
		SentencesRead:  entry.SentencesRead,
		TotalSentences: entry.TotalSentences,
		PointsEarned:   in.PointsEarned,
		Completed:      entry.Completed(),
		CreatedAt:      s.now(),
	}

	var newStickers []int
	state, err := s.users.ApplyReward(ctx, uid, func(state *models.UserRewardState) error {
		newStickers = MergeProgress(state, entry, in.PointsEarned)
		return nil
	}, activity)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update progress: %w", err)
	}

	if newStickers == nil {
		newStickers = []int{}
	}
	s.logger.Info("Progress updated",
		zap.String("uid", uid),
		zap.String("bookId", bookID),
		zap.Int("pointsEarned", in.PointsEarned),
		zap.Ints("newStickers", newStickers))

	return &ProgressResult{
		Points:           state.Points,
		TotalPoints:      state.TotalPoints,
		UnlockedStickers: state.UnlockedStickers,
		NewStickers:      newStickers,
	}, nil
}

// GetAchievements returns stickers and point totals
func (s *UserService) GetAchievements(ctx context.Context, uid string) (*Achievements, error) {
	user, err := s.Get(ctx, uid)
	if err != nil {
		return nil, err
	}
	return &Achievements{
		UnlockedStickers: user.Rewards.UnlockedStickers,
		TotalPoints:      user.Rewards.TotalPoints,
		CurrentPoints:    user.Rewards.Points,
		BooksCompleted:   user.Rewards.BooksCompleted(),
	}, nil
}

// UpdateProfile applies the supplied profile fields. Empty name or character
// values are ignored.
func (s *UserService) UpdateProfile(ctx context.Context, uid string, update models.ProfileUpdate) (*models.User, error) {
	update.Role = nil
	if update.Name != nil && strings.TrimSpace(*update.Name) == "" {
		update.Name = nil
	}
	if update.Character != nil && strings.TrimSpace(*update.Character) == "" {
		update.Character = nil
	}

	if err := validation.ValidateProfile(update.Name, update.Character, update.EnrolledCode, update.ClassCode); err != nil {
		return nil, invalidInput(err.Error())
	}

	if !update.IsEmpty() {
		err := s.users.UpdateProfile(ctx, uid, update, s.now())
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("failed to update profile: %w", err)
		}
	}

	return s.Get(ctx, uid)
}

// History returns the most recent activities, newest first
func (s *UserService) History(ctx context.Context, uid string) ([]models.Activity, error) {
	activities, err := s.activities.ListByUser(ctx, uid, defaultHistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	return activities, nil
}
