package service

import "errors"

// Error categories. Every error returned by this package that a caller can
// act on wraps exactly one of these.
var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrUnauthenticated     = errors.New("unauthenticated")
	ErrNotFound            = errors.New("not found")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInvalidState        = errors.New("invalid state")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

// Error is a categorized error whose message is safe to show to clients
type Error struct {
	Category error
	Message  string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Category }

func newError(category error, message string) *Error {
	return &Error{Category: category, Message: message}
}

// invalidInput builds a one-off validation error
func invalidInput(message string) error {
	return newError(ErrInvalidInput, message)
}

var (
	ErrBookNotFound     = newError(ErrNotFound, "Book not found")
	ErrSessionNotFound  = newError(ErrNotFound, "Session not found")
	ErrUserNotFound     = newError(ErrNotFound, "User not found")
	ErrStickerNotFound  = newError(ErrNotFound, "Sticker not found")
	ErrSessionForbidden = newError(ErrUnauthorized, "Unauthorized")
	ErrInvalidToken     = newError(ErrUnauthenticated, "Invalid token")
	ErrMissingToken     = newError(ErrUnauthenticated, "ID token is required")
	ErrSessionCompleted = newError(ErrInvalidState, "Session already completed")
	ErrSessionBusy      = newError(ErrInvalidState, "Session is being updated, please retry")

	ErrInsufficientPoints       = newError(ErrInvalidInput, "Insufficient points")
	ErrStickerLocked            = newError(ErrInvalidInput, "Not enough points to unlock this sticker")
	ErrTranscriptionUnavailable = newError(ErrUpstreamUnavailable, "Speech recognition is not available")
)
