package service

import (
	"math"
	"sort"

	"ella/internal/models"
)

const (
	// PointsPerSentence is the base award for each sentence reached
	PointsPerSentence = 10

	// PointsPerSticker is the lifetime points needed for each further sticker
	PointsPerSticker = 100

	// MaxStickerID is the highest sticker the points policy unlocks
	MaxStickerID = 8
)

// ComputeAccuracy is correct words over total attempts. Attempt counts below
// one are treated as one.
func ComputeAccuracy(words []models.WordAttempt) float64 {
	correct := 0
	attempts := 0
	for _, w := range words {
		if w.Correct {
			correct++
		}
		if w.Attempts < 1 {
			attempts++
		} else {
			attempts += w.Attempts
		}
	}
	if attempts == 0 {
		return 0
	}
	return float64(correct) / float64(attempts)
}

// DifficultyMultiplier scales points by book difficulty. Unknown or missing
// difficulties score like Beginner.
func DifficultyMultiplier(book *models.Book) float64 {
	if book == nil {
		return 1.0
	}
	switch book.Difficulty {
	case models.DifficultyIntermediate:
		return 1.5
	case models.DifficultyAdvanced:
		return 2.0
	default:
		return 1.0
	}
}

// ComputePoints truncates toward zero
func ComputePoints(sentencesRead int, accuracy, multiplier float64) int {
	return int(math.Floor(float64(sentencesRead*PointsPerSentence) * accuracy * multiplier))
}

// ScoreSession computes the completion outcome for s
func ScoreSession(s *models.ReadingSession, book *models.Book) models.SessionOutcome {
	accuracy := ComputeAccuracy(s.WordsRead)
	return models.SessionOutcome{
		PointsEarned:  ComputePoints(s.CurrentSentence, accuracy, DifficultyMultiplier(book)),
		Accuracy:      accuracy,
		SentencesRead: s.CurrentSentence,
	}
}

// MaxEligibleSticker is the highest sticker id totalPoints unlocks
func MaxEligibleSticker(totalPoints int) int {
	eligible := totalPoints/PointsPerSticker + 1
	if eligible > MaxStickerID {
		return MaxStickerID
	}
	if eligible < models.BaselineSticker {
		return models.BaselineSticker
	}
	return eligible
}

// UnlockEligibleStickers adds every sticker up to the eligible maximum and
// returns the ids that were newly added. Existing stickers are never removed.
func UnlockEligibleStickers(state *models.UserRewardState) []int {
	var unlocked []int
	for id := models.BaselineSticker; id <= MaxEligibleSticker(state.TotalPoints); id++ {
		if !state.HasSticker(id) {
			state.UnlockedStickers = append(state.UnlockedStickers, id)
			unlocked = append(unlocked, id)
		}
	}
	sort.Ints(state.UnlockedStickers)
	return unlocked
}

// UpsertProgress replaces the entry for entry.BookID or appends it. Ids are
// compared as strings.
func UpsertProgress(state *models.UserRewardState, entry models.ProgressEntry) {
	for i := range state.Progress {
		if state.Progress[i].BookID == entry.BookID {
			state.Progress[i] = entry
			return
		}
	}
	state.Progress = append(state.Progress, entry)
}

// MergeProgress folds one reading outcome into the reward state: progress
// entry, both point counters, then the sticker policy. It returns the
// stickers unlocked by this merge.
func MergeProgress(state *models.UserRewardState, entry models.ProgressEntry, points int) []int {
	UpsertProgress(state, entry)
	state.Points += points
	state.TotalPoints += points
	return UnlockEligibleStickers(state)
}
