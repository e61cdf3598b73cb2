// Package validation checks user-supplied profile fields.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Field limits
const (
	MaxNameLength      = 50
	MaxCharacterLength = 32
	MaxCodeLength      = 20
)

var (
	characterRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	codeRegex      = regexp.MustCompile(`^[a-zA-Z0-9-]+$`)
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateName checks a display name. Blank names are handled by callers.
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) > MaxNameLength {
		return ValidationError{Field: "name", Message: fmt.Sprintf("name must be at most %d characters", MaxNameLength)}
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return ValidationError{Field: "name", Message: "name contains invalid characters"}
		}
	}
	return nil
}

// ValidateCharacter checks an avatar key such as "owl"
func ValidateCharacter(character string) error {
	character = strings.TrimSpace(character)
	if character == "" {
		return nil
	}
	if len(character) > MaxCharacterLength || !characterRegex.MatchString(character) {
		return ValidationError{Field: "character", Message: "character must be a short key of letters, digits, '-' or '_'"}
	}
	return nil
}

// ValidateCode checks a class or enrollment code. Empty clears the code.
func ValidateCode(field, code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil
	}
	if len(code) > MaxCodeLength || !codeRegex.MatchString(code) {
		return ValidationError{Field: field, Message: fmt.Sprintf("%s must be up to %d letters, digits or '-'", field, MaxCodeLength)}
	}
	return nil
}

// ValidateProfile checks every field that is set
func ValidateProfile(name, character, enrolledCode, classCode *string) error {
	if name != nil {
		if err := ValidateName(*name); err != nil {
			return err
		}
	}
	if character != nil {
		if err := ValidateCharacter(*character); err != nil {
			return err
		}
	}
	if enrolledCode != nil {
		if err := ValidateCode("enrolledCode", *enrolledCode); err != nil {
			return err
		}
	}
	if classCode != nil {
		if err := ValidateCode("classCode", *classCode); err != nil {
			return err
		}
	}
	return nil
}
