package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"ella/internal/service"
)

// ReadingHandler exposes the reading session lifecycle
type ReadingHandler struct {
	readingService *service.ReadingService
	logger         *zap.Logger
}

// NewReadingHandler creates a new reading handler
func NewReadingHandler(readingService *service.ReadingService, logger *zap.Logger) *ReadingHandler {
	return &ReadingHandler{
		readingService: readingService,
		logger:         logger.Named("reading"),
	}
}

type startSessionRequest struct {
	BookID flexibleID `json:"bookId"`
}

type sessionRequest struct {
	SessionID string `json:"sessionId"`
}

type recordWordRequest struct {
	SessionID     string `json:"sessionId"`
	Word          string `json:"word"`
	SentenceIndex int    `json:"sentenceIndex"`
	Correct       bool   `json:"correct"`
	Attempts      int    `json:"attempts"`
}

// StartSession opens a reading session for a book
func (h *ReadingHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, h.logger, "Invalid start request", err)
		return
	}

	session, err := h.readingService.StartSession(r.Context(), callerID(r), req.BookID.String())
	if err != nil {
		respondWithError(w, h.logger, "Failed to start reading session", err)
		return
	}

	respondJSON(w, http.StatusCreated, envelope{
		"sessionId":      session.ID,
		"bookId":         session.BookID,
		"totalSentences": session.TotalSentences,
		"session":        session,
	})
}

// GetSession returns one of the caller's sessions
func (h *ReadingHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.readingService.GetSession(r.Context(), callerID(r), r.PathValue("sessionId"))
	if err != nil {
		respondWithError(w, h.logger, "Failed to get session", err)
		return
	}
	respondJSON(w, http.StatusOK, envelope{"session": session})
}

// RecordWord stores a pronunciation judgment for the current session
func (h *ReadingHandler) RecordWord(w http.ResponseWriter, r *http.Request) {
	var req recordWordRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, h.logger, "Invalid record-word request", err)
		return
	}

	err := h.readingService.RecordWord(r.Context(), callerID(r), service.RecordWordInput{
		SessionID:     req.SessionID,
		Word:          req.Word,
		SentenceIndex: req.SentenceIndex,
		Correct:       req.Correct,
		Attempts:      req.Attempts,
	})
	if err != nil {
		respondWithError(w, h.logger, "Failed to record word", err)
		return
	}
	respondJSON(w, http.StatusOK, envelope{"message": "Word recorded"})
}

// AdvanceSentence moves the session to the next sentence
func (h *ReadingHandler) AdvanceSentence(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, h.logger, "Invalid advance request", err)
		return
	}

	result, err := h.readingService.AdvanceSentence(r.Context(), callerID(r), req.SessionID)
	if err != nil {
		respondWithError(w, h.logger, "Failed to advance sentence", err)
		return
	}
	respondJSON(w, http.StatusOK, envelope{
		"currentSentence": result.CurrentSentence,
		"completed":       result.Completed,
	})
}

// CompleteSession scores the session and awards points and stickers
func (h *ReadingHandler) CompleteSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, h.logger, "Invalid complete request", err)
		return
	}

	result, err := h.readingService.CompleteSession(r.Context(), callerID(r), req.SessionID)
	if err != nil {
		respondWithError(w, h.logger, "Failed to complete session", err)
		return
	}
	respondJSON(w, http.StatusOK, envelope{
		"pointsEarned":  result.PointsEarned,
		"accuracy":      result.Accuracy,
		"sentencesRead": result.SentencesRead,
		"totalPoints":   result.TotalPoints,
		"newStickers":   result.NewStickers,
	})
}

// ListUserSessions returns the caller's sessions, newest first
func (h *ReadingHandler) ListUserSessions(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	sessions, err := h.readingService.ListUserSessions(r.Context(), callerID(r), limit)
	if err != nil {
		respondWithError(w, h.logger, "Failed to list sessions", err)
		return
	}
	respondJSON(w, http.StatusOK, envelope{"sessions": sessions, "count": len(sessions)})
}
