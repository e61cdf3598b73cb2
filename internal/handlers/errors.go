package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"ella/internal/service"
)

const (
	errInternalServerError = "Internal server error"
	errInvalidJSON         = "Invalid JSON body"
)

// envelope is the JSON object every API response is wrapped in
type envelope map[string]interface{}

type errorResponse struct {
	Success  bool   `json:"success"`
	Error    string `json:"error"`
	Category string `json:"category,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, payload envelope) {
	if _, ok := payload["success"]; !ok {
		payload["success"] = status < http.StatusBadRequest
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// respondWithError writes err as a JSON error. Categorized service errors
// carry their own client message; anything else is logged and reported as
// an internal error.
func respondWithError(w http.ResponseWriter, logger *zap.Logger, logMsg string, err error) {
	status, category := statusFor(err)

	message := errInternalServerError
	var svcErr *service.Error
	if errors.As(err, &svcErr) {
		message = svcErr.Message
	}

	if status >= http.StatusInternalServerError {
		logger.Error(logMsg, zap.Error(err))
	} else {
		logger.Debug(logMsg, zap.Error(err))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Success: false, Error: message, Category: category})
}

// respondWithMessage writes a plain client error that has no service error behind it
func respondWithMessage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Success: false, Error: message})
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest, "invalid_input"
	case errors.Is(err, service.ErrUnauthenticated):
		return http.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusForbidden, "unauthorized"
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrInvalidState):
		return http.StatusConflict, "invalid_state"
	case errors.Is(err, service.ErrUpstreamUnavailable):
		return http.StatusServiceUnavailable, "upstream_unavailable"
	default:
		return http.StatusInternalServerError, ""
	}
}

// decodeJSON reads a JSON request body into v
func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return &service.Error{Category: service.ErrInvalidInput, Message: "Request body too large"}
		}
		return &service.Error{Category: service.ErrInvalidInput, Message: errInvalidJSON}
	}
	return nil
}
