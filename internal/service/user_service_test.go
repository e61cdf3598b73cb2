package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ella/internal/models"
)

func strPtr(s string) *string { return &s }

func TestUserServiceUpdateProgress(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "u1")
	svc := NewUserService(f.users, f.activities, zap.NewNop())
	ctx := context.Background()

	result, err := svc.UpdateProgress(ctx, "u1", ProgressInput{BookID: "b1", SentencesRead: 2, TotalSentences: 4, PointsEarned: 120})
	require.NoError(t, err)
	assert.Equal(t, 120, result.Points)
	assert.Equal(t, 120, result.TotalPoints)
	assert.Equal(t, []int{2}, result.NewStickers)
	assert.Equal(t, []int{1, 2}, result.UnlockedStickers)

	result, err = svc.UpdateProgress(ctx, "u1", ProgressInput{BookID: "b1", SentencesRead: 4, TotalSentences: 4, PointsEarned: 0})
	require.NoError(t, err)
	assert.Empty(t, result.NewStickers)

	progress, err := svc.GetProgress(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []models.ProgressEntry{{BookID: "b1", SentencesRead: 4, TotalSentences: 4}}, progress)

	history, err := svc.History(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, history, 2)

	achievements, err := svc.GetAchievements(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, &Achievements{
		UnlockedStickers: []int{1, 2},
		TotalPoints:      120,
		CurrentPoints:    120,
		BooksCompleted:   1,
	}, achievements)
}

func TestUserServiceUpdateProgressValidation(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "u1")
	svc := NewUserService(f.users, f.activities, zap.NewNop())
	ctx := context.Background()

	tests := []struct {
		name string
		uid  string
		in   ProgressInput
		want error
	}{
		{"missing book", "u1", ProgressInput{SentencesRead: 1}, ErrInvalidInput},
		{"negative points", "u1", ProgressInput{BookID: "b1", PointsEarned: -5}, ErrInvalidInput},
		{"negative sentences", "u1", ProgressInput{BookID: "b1", SentencesRead: -1}, ErrInvalidInput},
		{"unknown user", "nobody", ProgressInput{BookID: "b1"}, ErrUserNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.UpdateProgress(ctx, tt.uid, tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	assert.Equal(t, 0, f.rewards(t, "u1").TotalPoints)
}

func TestUserServiceUpdateProfile(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "u1")
	svc := NewUserService(f.users, f.activities, zap.NewNop())
	ctx := context.Background()

	user, err := svc.UpdateProfile(ctx, "u1", models.ProfileUpdate{
		Name:      strPtr("Ada"),
		Character: strPtr(""),
		ClassCode: strPtr("CLASS1"),
		Role:      strPtr(RoleTeacher),
	})
	require.NoError(t, err)
	assert.Equal(t, "Ada", user.Name)
	assert.Equal(t, models.DefaultCharacter, user.Character, "empty character is ignored")
	assert.Equal(t, "CLASS1", user.ClassCode)
	assert.Equal(t, models.DefaultRole, user.Role, "role cannot be changed from the profile")

	_, err = svc.UpdateProfile(ctx, "nobody", models.ProfileUpdate{Name: strPtr("x")})
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = svc.UpdateProfile(ctx, "u1", models.ProfileUpdate{Character: strPtr("<b>owl</b>")})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Get(ctx, "nobody")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
