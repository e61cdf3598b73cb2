package validation

import (
	"strings"
	"testing"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{
			name:    "simple name",
			input:   "Maya",
			wantErr: false,
		},
		{
			name:    "unicode name",
			input:   "Zoë Ångström",
			wantErr: false,
		},
		{
			name:    "single letter",
			input:   "x",
			wantErr: false,
		},
		{
			name:    "exactly max length",
			input:   strings.Repeat("é", MaxNameLength),
			wantErr: false,
		},
		{
			name:    "too long",
			input:   strings.Repeat("a", MaxNameLength+1),
			wantErr: true,
		},
		{
			name:    "control character",
			input:   "Ma\x00ya",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateCharacter(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"owl", false},
		{"red-fox_2", false},
		{"", false},
		{"two words", true},
		{"<script>", true},
		{strings.Repeat("a", MaxCharacterLength+1), true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			err := ValidateCharacter(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateCharacter(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateProfile(t *testing.T) {
	ptr := func(s string) *string { return &s }

	if err := ValidateProfile(nil, nil, nil, nil); err != nil {
		t.Errorf("empty profile should be valid, got %v", err)
	}
	if err := ValidateProfile(ptr("Ada"), ptr("owl"), ptr("ABC123"), ptr("CLASS-1")); err != nil {
		t.Errorf("valid profile rejected: %v", err)
	}

	err := ValidateProfile(nil, nil, nil, ptr("bad code!"))
	ve, ok := err.(ValidationError)
	if !ok {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if ve.Field != "classCode" {
		t.Errorf("Field = %q, want classCode", ve.Field)
	}
}
