package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"ella/internal/models"
	"ella/internal/service"
)

// UserHandler serves the caller's progress, achievements and profile
type UserHandler struct {
	userService *service.UserService
	logger      *zap.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *service.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		logger:      logger.Named("user"),
	}
}

type progressRequest struct {
	BookID         flexibleID `json:"bookId"`
	SentencesRead  int        `json:"sentencesRead"`
	TotalSentences int        `json:"totalSentences"`
	PointsEarned   int        `json:"pointsEarned"`
}

// GetProgress returns per-book progress
func (h *UserHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	progress, err := h.userService.GetProgress(r.Context(), callerID(r))
	if err != nil {
		respondWithError(w, h.logger, "Failed to get progress", err)
		return
	}
	respondJSON(w, http.StatusOK, envelope{"progress": progress})
}

// UpdateProgress records progress on a book outside a reading session
func (h *UserHandler) UpdateProgress(w http.ResponseWriter, r *http.Request) {
	var req progressRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, h.logger, "Invalid progress request", err)
		return
	}

	result, err := h.userService.UpdateProgress(r.Context(), callerID(r), service.ProgressInput{
		BookID:         req.BookID.String(),
		SentencesRead:  req.SentencesRead,
		TotalSentences: req.TotalSentences,
		PointsEarned:   req.PointsEarned,
	})
	if err != nil {
		respondWithError(w, h.logger, "Failed to update progress", err)
		return
	}

	respondJSON(w, http.StatusOK, envelope{
		"message":          "Progress updated successfully",
		"points":           result.Points,
		"totalPoints":      result.TotalPoints,
		"unlockedStickers": result.UnlockedStickers,
		"newStickers":      result.NewStickers,
	})
}

// GetAchievements returns stickers and point totals
func (h *UserHandler) GetAchievements(w http.ResponseWriter, r *http.Request) {
	achievements, err := h.userService.GetAchievements(r.Context(), callerID(r))
	if err != nil {
		respondWithError(w, h.logger, "Failed to get achievements", err)
		return
	}
	respondJSON(w, http.StatusOK, envelope{"achievements": achievements})
}

// UpdateProfile edits name, character and class codes
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req models.ProfileUpdate
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, h.logger, "Invalid profile request", err)
		return
	}

	user, err := h.userService.UpdateProfile(r.Context(), callerID(r), req)
	if err != nil {
		respondWithError(w, h.logger, "Failed to update profile", err)
		return
	}
	respondJSON(w, http.StatusOK, envelope{
		"message": "Profile updated successfully",
		"user":    user.Profile(),
	})
}

// History returns the caller's recent reading activity
func (h *UserHandler) History(w http.ResponseWriter, r *http.Request) {
	history, err := h.userService.History(r.Context(), callerID(r))
	if err != nil {
		respondWithError(w, h.logger, "Failed to get history", err)
		return
	}
	respondJSON(w, http.StatusOK, envelope{"history": history, "count": len(history)})
}
