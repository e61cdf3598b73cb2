package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("AUTH_PROVIDER", "firebase")
	t.Setenv("DATABASE_TYPE", "sqlite")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.ServerPort)
	assert.Equal(t, "./ella.db", cfg.DatabasePath)
	assert.Equal(t, int64(16*1024*1024), cfg.MaxUploadBytes)
	assert.Equal(t, 10*time.Minute, cfg.BookCacheTTL)
	assert.Equal(t, 5, cfg.CompletionMaxRetries)
	assert.True(t, cfg.SpeechEnabled)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "sqlite with firebase",
			cfg:  Config{DatabaseType: "sqlite", AuthProvider: "firebase", CompletionMaxRetries: 1},
		},
		{
			name:    "postgres without url",
			cfg:     Config{DatabaseType: "postgres", AuthProvider: "firebase", CompletionMaxRetries: 1},
			wantErr: true,
		},
		{
			name: "mysql with url",
			cfg:  Config{DatabaseType: "mysql", DatabaseURL: "u:p@tcp(db)/ella", AuthProvider: "firebase", CompletionMaxRetries: 1},
		},
		{
			name:    "unknown database",
			cfg:     Config{DatabaseType: "oracle", AuthProvider: "firebase", CompletionMaxRetries: 1},
			wantErr: true,
		},
		{
			name:    "jwt without secret",
			cfg:     Config{DatabaseType: "sqlite", AuthProvider: "jwt", CompletionMaxRetries: 1},
			wantErr: true,
		},
		{
			name:    "zero retries",
			cfg:     Config{DatabaseType: "sqlite", AuthProvider: "jwt", JWTSecret: "s", CompletionMaxRetries: 0},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestAllowedOrigins(t *testing.T) {
	cfg := Config{CORSAllowedOrigins: "https://a.example, https://b.example ,"}
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins())
}
