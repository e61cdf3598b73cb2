package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration
type Config struct {
	ServerPort  string `envconfig:"PORT" default:"5000"`
	Environment string `envconfig:"APP_ENV" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogEncoding string `envconfig:"LOG_ENCODING" default:"json"`

	DatabaseType   string `envconfig:"DATABASE_TYPE" default:"sqlite"`
	DatabasePath   string `envconfig:"DB_PATH" default:"./ella.db"`
	DatabaseURL    string `envconfig:"DATABASE_URL"`
	MigrationsPath string `envconfig:"MIGRATIONS_PATH"`
	BooksSeedPath  string `envconfig:"BOOKS_SEED_PATH"`

	AuthProvider            string `envconfig:"AUTH_PROVIDER" default:"firebase"`
	FirebaseCredentials     string `envconfig:"FIREBASE_CREDENTIALS"`
	FirebaseCredentialsJSON string `envconfig:"FIREBASE_CREDENTIALS_JSON"`
	JWTSecret               string `envconfig:"JWT_SECRET"`

	SpeechEnabled     bool   `envconfig:"SPEECH_ENABLED" default:"true"`
	SpeechLanguage    string `envconfig:"SPEECH_LANGUAGE" default:"en-US"`
	SpeechSampleRate  int    `envconfig:"SPEECH_SAMPLE_RATE_HZ" default:"16000"`
	GoogleCredentials string `envconfig:"GOOGLE_APPLICATION_CREDENTIALS"`

	RedisURL     string        `envconfig:"REDIS_URL"`
	BookCacheTTL time.Duration `envconfig:"BOOK_CACHE_TTL" default:"10m"`

	MaxUploadBytes       int64         `envconfig:"MAX_UPLOAD_BYTES" default:"16777216"`
	EvaluateRateLimit    int           `envconfig:"EVALUATE_RATE_LIMIT" default:"60"`
	EvaluateRateWindow   time.Duration `envconfig:"EVALUATE_RATE_WINDOW" default:"1m"`
	CompletionMaxRetries int           `envconfig:"COMPLETION_MAX_RETRIES" default:"5"`
	CORSAllowedOrigins   string        `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
}

// Load reads a .env file when present, then environment variables with sensible defaults
func Load() (*Config, error) {
	// A missing .env file is normal outside local development
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks combinations envconfig cannot express
func (c *Config) Validate() error {
	switch strings.ToLower(c.DatabaseType) {
	case "sqlite", "sqlite3", "":
	case "postgres", "postgresql", "mysql":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for database type %s", c.DatabaseType)
		}
	default:
		return fmt.Errorf("unsupported database type: %s", c.DatabaseType)
	}

	switch strings.ToLower(c.AuthProvider) {
	case "firebase":
	case "jwt":
		if c.JWTSecret == "" {
			return errors.New("JWT_SECRET is required when AUTH_PROVIDER=jwt")
		}
	default:
		return fmt.Errorf("unsupported auth provider: %s", c.AuthProvider)
	}

	if c.CompletionMaxRetries < 1 {
		return errors.New("COMPLETION_MAX_RETRIES must be at least 1")
	}

	return nil
}

// IsDevelopment reports whether the service runs in development mode
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Environment, "development")
}

// AllowedOrigins splits CORS_ALLOWED_ORIGINS on commas
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
