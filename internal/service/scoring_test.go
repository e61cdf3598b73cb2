package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ella/internal/models"
)

func words(correct, wrong int) []models.WordAttempt {
	var out []models.WordAttempt
	for i := 0; i < correct; i++ {
		out = append(out, models.WordAttempt{Word: "yes", Correct: true, Attempts: 1})
	}
	for i := 0; i < wrong; i++ {
		out = append(out, models.WordAttempt{Word: "no", Correct: false, Attempts: 1})
	}
	return out
}

func TestComputeAccuracy(t *testing.T) {
	tests := []struct {
		name  string
		words []models.WordAttempt
		want  float64
	}{
		{"no words", nil, 0},
		{"all correct", words(4, 0), 1},
		{"six of ten", words(6, 4), 0.6},
		{
			name: "attempts count against accuracy",
			words: []models.WordAttempt{
				{Word: "cat", Correct: true, Attempts: 3},
				{Word: "dog", Correct: true, Attempts: 1},
			},
			want: 0.5,
		},
		{
			name:  "zero attempts count as one",
			words: []models.WordAttempt{{Word: "cat", Correct: true, Attempts: 0}},
			want:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ComputeAccuracy(tt.words), 1e-9)
		})
	}
}

func TestDifficultyMultiplier(t *testing.T) {
	tests := []struct {
		difficulty string
		want       float64
	}{
		{models.DifficultyBeginner, 1.0},
		{models.DifficultyIntermediate, 1.5},
		{models.DifficultyAdvanced, 2.0},
		{"", 1.0},
		{"Expert", 1.0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DifficultyMultiplier(&models.Book{Difficulty: tt.difficulty}), tt.difficulty)
	}
	assert.Equal(t, 1.0, DifficultyMultiplier(nil))
}

func TestComputePoints(t *testing.T) {
	assert.Equal(t, 45, ComputePoints(5, 0.6, 1.5))
	assert.Equal(t, 0, ComputePoints(0, 1, 2))
	assert.Equal(t, 0, ComputePoints(5, 0, 1))
	assert.Equal(t, 33, ComputePoints(5, 2.0/3.0, 1.0), "truncates toward zero")
}

func TestScoreSessionIsDeterministic(t *testing.T) {
	session := &models.ReadingSession{CurrentSentence: 5, TotalSentences: 5, WordsRead: words(6, 4)}
	book := &models.Book{Difficulty: models.DifficultyIntermediate}

	first := ScoreSession(session, book)
	second := ScoreSession(session, book)

	assert.Equal(t, first, second)
	assert.Equal(t, 45, first.PointsEarned)
	assert.InDelta(t, 0.6, first.Accuracy, 1e-9)
	assert.Equal(t, 5, first.SentencesRead)
}

func TestMaxEligibleSticker(t *testing.T) {
	tests := []struct {
		points int
		want   int
	}{
		{0, 1},
		{99, 1},
		{100, 2},
		{250, 3},
		{700, 8},
		{5000, 8},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MaxEligibleSticker(tt.points), "points=%d", tt.points)
	}
}

func TestUnlockEligibleStickers(t *testing.T) {
	t.Run("unlocks up to eligible", func(t *testing.T) {
		state := &models.UserRewardState{TotalPoints: 250, UnlockedStickers: []int{1}}
		added := UnlockEligibleStickers(state)
		assert.Equal(t, []int{2, 3}, added)
		assert.Equal(t, []int{1, 2, 3}, state.UnlockedStickers)
	})

	t.Run("never removes stickers", func(t *testing.T) {
		state := &models.UserRewardState{TotalPoints: 0, UnlockedStickers: []int{5, 1}}
		added := UnlockEligibleStickers(state)
		assert.Empty(t, added)
		assert.Equal(t, []int{1, 5}, state.UnlockedStickers)
	})

	t.Run("adds baseline when missing", func(t *testing.T) {
		state := &models.UserRewardState{}
		assert.Equal(t, []int{1}, UnlockEligibleStickers(state))
	})
}

func TestMergeProgress(t *testing.T) {
	state := &models.UserRewardState{
		Points:           20,
		TotalPoints:      240,
		UnlockedStickers: []int{1, 2, 3},
		Progress: []models.ProgressEntry{
			{BookID: "1", SentencesRead: 2, TotalSentences: 5},
			{BookID: "2", SentencesRead: 4, TotalSentences: 4},
		},
	}

	added := MergeProgress(state, models.ProgressEntry{BookID: "1", SentencesRead: 5, TotalSentences: 5}, 60)

	assert.Equal(t, []int{4}, added)
	assert.Equal(t, 80, state.Points)
	assert.Equal(t, 300, state.TotalPoints)
	assert.Len(t, state.Progress, 2, "existing entry is replaced, not duplicated")
	assert.Equal(t, 5, state.Progress[0].SentencesRead)
	assert.Equal(t, 2, state.BooksCompleted())

	MergeProgress(state, models.ProgressEntry{BookID: "3", SentencesRead: 1, TotalSentences: 9}, 0)
	assert.Len(t, state.Progress, 3)
	assert.Equal(t, "3", state.Progress[2].BookID)
}
