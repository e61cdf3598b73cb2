package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"ella/internal/catalog"
	"ella/internal/config"
	"ella/internal/database"
	"ella/internal/handlers"
	"ella/internal/identity"
	"ella/internal/logger"
	"ella/internal/metrics"
	"ella/internal/models"
	"ella/internal/repository"
	"ella/internal/security"
	"ella/internal/service"
	"ella/internal/speech"
	"ella/migrations"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{Level: cfg.LogLevel, Encoding: cfg.LogEncoding})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("Server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database with config (supports sqlite, postgres, mysql)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	log.Info("Database connection established", zap.String("type", cfg.DatabaseType))

	applied, err := db.RunMigrations(ctx, migrationsFS(cfg))
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("Migrations completed", zap.Strings("applied", applied))

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	bookRepo := repository.NewBookRepository(db)
	readingRepo := repository.NewReadingRepository(db, userRepo)
	activityRepo := repository.NewActivityRepository(db)
	redemptionRepo := repository.NewRedemptionRepository(db)

	var books service.BookCatalog = bookRepo
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		client := redis.NewClient(opts)
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			// The cache fails open, so an unreachable Redis only costs latency
			log.Warn("Redis unreachable, book cache will fall back to the database", zap.Error(err))
		}
		books = repository.NewCachedBookRepository(bookRepo, client, cfg.BookCacheTTL, log)
		log.Info("Book cache enabled", zap.Duration("ttl", cfg.BookCacheTTL))
	}

	resolver, err := newResolver(ctx, cfg, log)
	if err != nil {
		return err
	}

	var transcriber speech.Transcriber
	if cfg.SpeechEnabled {
		gt, err := speech.NewGoogleTranscriber(ctx, speech.RecognizerConfig{
			LanguageCode:    cfg.SpeechLanguage,
			SampleRateHertz: cfg.SpeechSampleRate,
			CredentialsFile: cfg.GoogleCredentials,
			MaxRetries:      3,
		}, log)
		if err != nil {
			log.Warn("Speech recognition unavailable", zap.Error(err))
		} else {
			defer gt.Close()
			transcriber = gt
		}
	}

	// Initialize services
	authService := service.NewAuthService(resolver, userRepo, log)
	userService := service.NewUserService(userRepo, activityRepo, log)
	bookService := service.NewBookService(bookRepo, books, userRepo, log)
	readingService := service.NewReadingService(books, readingRepo, m, log, cfg.CompletionMaxRetries)
	speechService := service.NewSpeechService(transcriber, m, log)
	prizeService := service.NewPrizeService(userRepo, redemptionRepo, readingRepo, log)

	// Seed the default catalog
	if err := seedBooks(ctx, cfg, bookService, log); err != nil {
		log.Warn("Failed to seed books", zap.Error(err))
	}

	limiter := security.NewRateLimiter(cfg.EvaluateRateLimit, cfg.EvaluateRateWindow)
	defer limiter.Stop()

	router := &handlers.Router{
		Middleware:      handlers.NewMiddleware(authService, m, log),
		Auth:            handlers.NewAuthHandler(authService, log),
		Users:           handlers.NewUserHandler(userService, log),
		Books:           handlers.NewBookHandler(bookService, log),
		Reading:         handlers.NewReadingHandler(readingService, log),
		Speech:          handlers.NewSpeechHandler(speechService, log),
		Prizes:          handlers.NewPrizeHandler(prizeService, log),
		EvaluateLimiter: limiter,
		MetricsHandler:  m.Handler(),
		AllowedOrigins:  cfg.AllowedOrigins(),
		MaxBodyBytes:    cfg.MaxUploadBytes,
	}

	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      router.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", addr), zap.Bool("speech", speechService.Available()))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Server shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func migrationsFS(cfg *config.Config) fs.FS {
	if cfg.MigrationsPath != "" {
		return os.DirFS(cfg.MigrationsPath)
	}
	return migrations.FS
}

func newResolver(ctx context.Context, cfg *config.Config, log *zap.Logger) (identity.Resolver, error) {
	switch strings.ToLower(cfg.AuthProvider) {
	case "jwt":
		return identity.NewJWTResolver(cfg.JWTSecret, log)
	default:
		r, err := identity.NewFirebaseResolver(ctx, cfg.FirebaseCredentials, cfg.FirebaseCredentialsJSON, log)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize firebase: %w", err)
		}
		return r, nil
	}
}

func seedBooks(ctx context.Context, cfg *config.Config, bookService *service.BookService, log *zap.Logger) error {
	var books []models.Book
	var err error
	if cfg.BooksSeedPath != "" {
		books, err = catalog.LoadFile(cfg.BooksSeedPath)
	} else {
		books, err = catalog.Default()
	}
	if err != nil {
		return err
	}

	added, err := bookService.SeedBooks(ctx, books)
	if err != nil {
		return err
	}
	if added > 0 {
		log.Info("Seeded books", zap.Int("added", added))
	}
	return nil
}
