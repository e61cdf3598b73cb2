package repository

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by write paths that need an existing row.
	// Read paths return nil, nil instead.
	ErrNotFound = errors.New("record not found")

	// ErrConflict means a version-guarded update lost a race
	ErrConflict = errors.New("concurrent modification")

	// ErrSessionInactive means the session was already completed
	ErrSessionInactive = errors.New("reading session is not active")

	// ErrDuplicate means an insert hit an existing primary key
	ErrDuplicate = errors.New("record already exists")
)

// maxRewardRetries bounds optimistic retries on the user row
const maxRewardRetries = 5

func encodeJSON(v interface{}) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode json column: %w", err)
	}
	return string(b), nil
}

func decodeJSON(raw string, v interface{}) error {
	if raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("failed to decode json column: %w", err)
	}
	return nil
}
