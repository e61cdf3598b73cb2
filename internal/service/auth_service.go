package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"ella/internal/identity"
	"ella/internal/models"
	"ella/internal/repository"
	"ella/internal/validation"
)

// Roles a user may pick at signup
const (
	RoleStudent = "Student"
	RoleTeacher = "Teacher"
)

// SignupInput completes a profile after the identity provider signup
type SignupInput struct {
	Token        string
	Name         string
	Character    string
	Role         string
	EnrolledCode *string
	ClassCode    *string
}

// AuthService maps verified identities onto user records
type AuthService struct {
	resolver identity.Resolver
	users    *repository.UserRepository
	logger   *zap.Logger
	now      func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(resolver identity.Resolver, users *repository.UserRepository, logger *zap.Logger) *AuthService {
	return &AuthService{
		resolver: resolver,
		users:    users,
		logger:   logger.Named("auth"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Resolve verifies a bearer credential and returns the caller's identity
func (s *AuthService) Resolve(ctx context.Context, token string) (*identity.Identity, error) {
	id, err := s.resolver.Resolve(ctx, strings.TrimSpace(token))
	switch {
	case errors.Is(err, identity.ErrMissingToken):
		return nil, ErrMissingToken
	case errors.Is(err, identity.ErrInvalidToken):
		s.logger.Debug("Token rejected", zap.Error(err))
		return nil, ErrInvalidToken
	case err != nil:
		return nil, fmt.Errorf("failed to verify token: %w", err)
	}
	return id, nil
}

// Verify resolves token and returns the matching user, creating it with
// signup defaults on first sight. isNew reports whether it was created.
func (s *AuthService) Verify(ctx context.Context, token string) (user *models.User, isNew bool, err error) {
	id, err := s.Resolve(ctx, token)
	if err != nil {
		return nil, false, err
	}

	now := s.now()
	user, err = s.users.GetByUID(ctx, id.UID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load user: %w", err)
	}

	if user != nil {
		if err := s.users.TouchLogin(ctx, id.UID, now); err != nil {
			return nil, false, err
		}
		user.LastLogin = &now
		user.LastActivity = &now
		return user, false, nil
	}

	user = models.NewUser(id.UID, id.Email, id.Name, now)
	err = s.users.Create(ctx, user)
	if errors.Is(err, repository.ErrDuplicate) {
		// A concurrent first sign-in created the row
		existing, getErr := s.users.GetByUID(ctx, id.UID)
		if getErr != nil || existing == nil {
			return nil, false, fmt.Errorf("failed to load user: %w", err)
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to create user: %w", err)
	}
	s.logger.Info("User created", zap.String("uid", user.UID))
	return user, true, nil
}

// Signup completes the caller's profile. A new user starts with zero points
// and the baseline sticker; an existing user keeps its rewards and only the
// profile fields change.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	role := strings.TrimSpace(in.Role)
	if role == "" {
		role = RoleStudent
	}
	if role != RoleStudent && role != RoleTeacher {
		return nil, invalidInput("Role must be Student or Teacher")
	}
	character := strings.TrimSpace(in.Character)
	if character == "" {
		character = models.DefaultCharacter
	}
	name := strings.TrimSpace(in.Name)
	if err := validation.ValidateProfile(&name, &character, in.EnrolledCode, in.ClassCode); err != nil {
		return nil, invalidInput(err.Error())
	}

	user, _, err := s.Verify(ctx, in.Token)
	if err != nil {
		return nil, err
	}

	update := models.ProfileUpdate{
		Name:         &name,
		Character:    &character,
		Role:         &role,
		EnrolledCode: in.EnrolledCode,
		ClassCode:    in.ClassCode,
	}
	if err := s.users.UpdateProfile(ctx, user.UID, update, s.now()); err != nil {
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}

	s.logger.Info("Signup completed", zap.String("uid", user.UID), zap.String("role", role))
	return s.CurrentUser(ctx, user.UID)
}

// Logout records the caller's last activity. Tokens are stateless so
// there is nothing to revoke here.
func (s *AuthService) Logout(ctx context.Context, uid string) error {
	return s.users.TouchActivity(ctx, uid, s.now())
}

// CurrentUser returns the caller's user record
func (s *AuthService) CurrentUser(ctx context.Context, uid string) (*models.User, error) {
	user, err := s.users.GetByUID(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}
