package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"ella/internal/service"
)

// AuthHandler handles sign-in and signup for identity provider users
type AuthHandler struct {
	authService *service.AuthService
	logger      *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger.Named("auth"),
	}
}

type verifyRequest struct {
	IDToken string `json:"idToken"`
}

type signupRequest struct {
	IDToken      string  `json:"idToken"`
	Name         string  `json:"name"`
	Character    string  `json:"character"`
	Role         string  `json:"role"`
	EnrolledCode *string `json:"enrolledCode"`
	ClassCode    *string `json:"classCode"`
}

// Verify exchanges an ID token for the user profile, creating the user on
// first sign-in
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, h.logger, "Invalid verify request", err)
		return
	}

	user, isNew, err := h.authService.Verify(r.Context(), req.IDToken)
	if err != nil {
		respondWithError(w, h.logger, "Verification failed", err)
		return
	}

	respondJSON(w, http.StatusOK, envelope{
		"user":      user.Profile(),
		"isNewUser": isNew,
	})
}

// Signup completes the caller's profile
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, h.logger, "Invalid signup request", err)
		return
	}

	user, err := h.authService.Signup(r.Context(), service.SignupInput{
		Token:        req.IDToken,
		Name:         req.Name,
		Character:    req.Character,
		Role:         req.Role,
		EnrolledCode: req.EnrolledCode,
		ClassCode:    req.ClassCode,
	})
	if err != nil {
		respondWithError(w, h.logger, "Signup failed", err)
		return
	}

	respondJSON(w, http.StatusCreated, envelope{
		"message": "User profile created successfully",
		"user":    user.Profile(),
	})
}

// Logout records the caller's last activity
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.authService.Logout(r.Context(), callerID(r)); err != nil {
		respondWithError(w, h.logger, "Logout failed", err)
		return
	}
	respondJSON(w, http.StatusOK, envelope{"message": "Logged out successfully"})
}

// CurrentUser returns the caller's profile
func (h *AuthHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.authService.CurrentUser(r.Context(), callerID(r))
	if err != nil {
		respondWithError(w, h.logger, "Failed to get user", err)
		return
	}
	respondJSON(w, http.StatusOK, envelope{"user": user.Profile()})
}
