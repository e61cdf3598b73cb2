package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ella/internal/models"
	"ella/internal/repository"
)

const (
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 50
	defaultRedemptionLimit  = 20
)

// Stickers is the fixed sticker catalog. Sticker n costs (n-1)*100 lifetime
// points, matching the automatic unlock policy.
var Stickers = []models.Sticker{
	{ID: 1, Name: "Bronze Star", Cost: 0, Description: "Welcome sticker!"},
	{ID: 2, Name: "Silver Star", Cost: 100, Description: "Read your first book!"},
	{ID: 3, Name: "Gold Star", Cost: 200, Description: "Keep reading!"},
	{ID: 4, Name: "Reading Master", Cost: 300, Description: "You're doing great!"},
	{ID: 5, Name: "Word Wizard", Cost: 400, Description: "Amazing progress!"},
	{ID: 6, Name: "Book Champion", Cost: 500, Description: "Outstanding reader!"},
	{ID: 7, Name: "Super Reader", Cost: 600, Description: "Incredible dedication!"},
	{ID: 8, Name: "Ultimate Scholar", Cost: 700, Description: "You're a legend!"},
}

// FindSticker looks up a catalog sticker by id
func FindSticker(id int) (models.Sticker, bool) {
	for _, s := range Stickers {
		if s.ID == id {
			return s, true
		}
	}
	return models.Sticker{}, false
}

// UnlockResult reports a manual sticker unlock
type UnlockResult struct {
	Sticker         models.Sticker `json:"sticker"`
	AlreadyUnlocked bool           `json:"alreadyUnlocked"`
}

// RedeemInput spends points on a prize
type RedeemInput struct {
	PrizeID   string
	PointCost int
}

// PrizeService handles stickers, redemptions, the leaderboard and stats
type PrizeService struct {
	users       *repository.UserRepository
	redemptions *repository.RedemptionRepository
	sessions    *repository.ReadingRepository
	logger      *zap.Logger
	now         func() time.Time
}

// NewPrizeService creates a new prize service
func NewPrizeService(users *repository.UserRepository, redemptions *repository.RedemptionRepository, sessions *repository.ReadingRepository, logger *zap.Logger) *PrizeService {
	return &PrizeService{
		users:       users,
		redemptions: redemptions,
		sessions:    sessions,
		logger:      logger.Named("prizes"),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *PrizeService) rewards(ctx context.Context, uid string) (*models.UserRewardState, error) {
	user, err := s.users.GetByUID(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return &user.Rewards, nil
}

// Stickers returns the full catalog with the caller's unlock status
func (s *PrizeService) Stickers(ctx context.Context, uid string) ([]models.StickerStatus, error) {
	state, err := s.rewards(ctx, uid)
	if err != nil {
		return nil, err
	}

	statuses := make([]models.StickerStatus, 0, len(Stickers))
	for _, sticker := range Stickers {
		statuses = append(statuses, models.StickerStatus{
			Sticker:   sticker,
			Unlocked:  state.HasSticker(sticker.ID),
			CanUnlock: state.TotalPoints >= sticker.Cost,
		})
	}
	return statuses, nil
}

// Unlocked returns only the caller's unlocked stickers
func (s *PrizeService) Unlocked(ctx context.Context, uid string) ([]models.Sticker, error) {
	state, err := s.rewards(ctx, uid)
	if err != nil {
		return nil, err
	}

	unlocked := []models.Sticker{}
	for _, sticker := range Stickers {
		if state.HasSticker(sticker.ID) {
			unlocked = append(unlocked, sticker)
		}
	}
	return unlocked, nil
}

// Unlock adds a sticker the caller's lifetime points already cover
func (s *PrizeService) Unlock(ctx context.Context, uid string, stickerID int) (*UnlockResult, error) {
	sticker, ok := FindSticker(stickerID)
	if !ok {
		return nil, ErrStickerNotFound
	}

	result := &UnlockResult{Sticker: sticker}
	_, err := s.users.ApplyReward(ctx, uid, func(state *models.UserRewardState) error {
		result.AlreadyUnlocked = state.HasSticker(sticker.ID)
		if result.AlreadyUnlocked {
			return nil
		}
		if state.TotalPoints < sticker.Cost {
			return ErrStickerLocked
		}
		state.UnlockedStickers = append(state.UnlockedStickers, sticker.ID)
		return nil
	})
	switch {
	case errors.Is(err, ErrStickerLocked):
		return nil, ErrStickerLocked
	case errors.Is(err, repository.ErrNotFound):
		return nil, ErrUserNotFound
	case err != nil:
		return nil, fmt.Errorf("failed to unlock sticker: %w", err)
	}

	if !result.AlreadyUnlocked {
		s.logger.Info("Sticker unlocked", zap.String("uid", uid), zap.Int("stickerId", sticker.ID))
	}
	return result, nil
}

// Redeem spends current points on a prize. Lifetime points are untouched.
func (s *PrizeService) Redeem(ctx context.Context, uid string, in RedeemInput) (int, error) {
	prizeID := strings.TrimSpace(in.PrizeID)
	if prizeID == "" {
		return 0, invalidInput("prizeId is required")
	}
	if in.PointCost < 0 {
		return 0, invalidInput("Point cost must not be negative")
	}

	redemption := &models.Redemption{
		ID:        uuid.NewString(),
		UserID:    uid,
		PrizeID:   prizeID,
		PointCost: in.PointCost,
		CreatedAt: s.now(),
	}
	state, err := s.users.ApplyReward(ctx, uid, func(state *models.UserRewardState) error {
		if state.Points < in.PointCost {
			return ErrInsufficientPoints
		}
		state.Points -= in.PointCost
		return nil
	}, redemption)
	switch {
	case errors.Is(err, ErrInsufficientPoints):
		return 0, ErrInsufficientPoints
	case errors.Is(err, repository.ErrNotFound):
		return 0, ErrUserNotFound
	case err != nil:
		return 0, fmt.Errorf("failed to redeem prize: %w", err)
	}

	s.logger.Info("Prize redeemed",
		zap.String("uid", uid),
		zap.String("prizeId", prizeID),
		zap.Int("pointCost", in.PointCost),
		zap.Int("remaining", state.Points))
	return state.Points, nil
}

// Redemptions returns the caller's most recent redemptions
func (s *PrizeService) Redemptions(ctx context.Context, uid string) ([]models.Redemption, error) {
	redemptions, err := s.redemptions.ListByUser(ctx, uid, defaultRedemptionLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load redemptions: %w", err)
	}
	return redemptions, nil
}

// Leaderboard ranks users by lifetime points
func (s *PrizeService) Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = defaultLeaderboardLimit
	}
	if limit > maxLeaderboardLimit {
		limit = maxLeaderboardLimit
	}

	entries, err := s.users.Leaderboard(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard: %w", err)
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}

// Stats summarizes the caller's reading. Accuracy is a percentage rounded
// to two decimals.
func (s *PrizeService) Stats(ctx context.Context, uid string) (*models.ReadingStats, error) {
	state, err := s.rewards(ctx, uid)
	if err != nil {
		return nil, err
	}

	sessions, accuracy, err := s.sessions.CompletedStats(ctx, uid)
	if err != nil {
		return nil, err
	}

	sentences := 0
	for _, p := range state.Progress {
		sentences += p.SentencesRead
	}

	return &models.ReadingStats{
		TotalPoints:       state.TotalPoints,
		CurrentPoints:     state.Points,
		BooksStarted:      len(state.Progress),
		BooksCompleted:    state.BooksCompleted(),
		TotalSentences:    sentences,
		CompletedSessions: sessions,
		AverageAccuracy:   math.Round(accuracy*100*100) / 100,
		StickersUnlocked:  len(state.UnlockedStickers),
	}, nil
}
