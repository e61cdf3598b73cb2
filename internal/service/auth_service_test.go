package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ella/internal/identity"
	"ella/internal/models"
)

func newAuthFixture(t *testing.T) (*fixture, *AuthService, *identity.JWTResolver) {
	t.Helper()
	f := newFixture(t)
	resolver, err := identity.NewJWTResolver("auth-test-secret", zap.NewNop())
	require.NoError(t, err)
	return f, NewAuthService(resolver, f.users, zap.NewNop()), resolver
}

func TestAuthServiceVerify(t *testing.T) {
	f, svc, resolver := newAuthFixture(t)
	ctx := context.Background()

	token, err := resolver.Issue("kid-1", "kid@example.com", "Kid", time.Hour)
	require.NoError(t, err)

	user, isNew, err := svc.Verify(ctx, token)
	require.NoError(t, err)
	assert.True(t, isNew)
	assert.Equal(t, "kid-1", user.UID)
	assert.Equal(t, "kid@example.com", user.Email)
	assert.Equal(t, models.DefaultCharacter, user.Character)
	assert.Equal(t, models.DefaultRole, user.Role)
	assert.Equal(t, []int{1}, user.Rewards.UnlockedStickers)

	grant(t, f, "kid-1", 40)

	user, isNew, err = svc.Verify(ctx, token)
	require.NoError(t, err)
	assert.False(t, isNew)
	assert.Equal(t, 40, user.Rewards.TotalPoints)
	assert.NotNil(t, user.LastLogin)

	_, _, err = svc.Verify(ctx, "")
	assert.ErrorIs(t, err, ErrMissingToken)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, _, err = svc.Verify(ctx, "garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthServiceVerifyConcurrentFirstSignIn(t *testing.T) {
	_, svc, resolver := newAuthFixture(t)
	ctx := context.Background()

	token, err := resolver.Issue("kid-race", "race@example.com", "Racer", time.Hour)
	require.NoError(t, err)

	const callers = 6
	var created atomic.Int32
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			user, isNew, err := svc.Verify(ctx, token)
			if err != nil {
				errs <- err
				return
			}
			if isNew {
				created.Add(1)
			}
			if user.UID != "kid-race" {
				errs <- assert.AnError
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), created.Load())
}

func TestAuthServiceSignup(t *testing.T) {
	f, svc, resolver := newAuthFixture(t)
	ctx := context.Background()

	token, err := resolver.Issue("kid-2", "kid2@example.com", "", time.Hour)
	require.NoError(t, err)

	user, err := svc.Signup(ctx, SignupInput{
		Token:        token,
		Name:         "Maya",
		Character:    "fox",
		EnrolledCode: strPtr("ABC123"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Maya", user.Name)
	assert.Equal(t, "fox", user.Character)
	assert.Equal(t, RoleStudent, user.Role)
	assert.Equal(t, "ABC123", user.EnrolledCode)
	assert.Equal(t, 0, user.Rewards.Points)

	grant(t, f, "kid-2", 300)

	user, err = svc.Signup(ctx, SignupInput{Token: token, Name: "Maya B", Role: RoleTeacher})
	require.NoError(t, err)
	assert.Equal(t, "Maya B", user.Name)
	assert.Equal(t, models.DefaultCharacter, user.Character)
	assert.Equal(t, RoleTeacher, user.Role)
	assert.Equal(t, 300, user.Rewards.TotalPoints, "repeating signup keeps rewards")

	_, err = svc.Signup(ctx, SignupInput{Token: token, Role: "Admin"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAuthServiceLogoutAndCurrentUser(t *testing.T) {
	f, svc, _ := newAuthFixture(t)
	ctx := context.Background()
	f.addUser(t, "u1")

	require.NoError(t, svc.Logout(ctx, "u1"))

	user, err := svc.CurrentUser(ctx, "u1")
	require.NoError(t, err)
	assert.NotNil(t, user.LastActivity)

	_, err = svc.CurrentUser(ctx, "nobody")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
