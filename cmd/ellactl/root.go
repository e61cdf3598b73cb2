package main

import (
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ella/internal/config"
	"ella/internal/database"
	"ella/internal/logger"
	"ella/migrations"
)

var rootCmd = &cobra.Command{
	Use:   "ellactl",
	Short: "ELLA database tool",
	Long: `ellactl manages the ELLA reading backend database.

The database is selected with the same environment variables as the server:
  DATABASE_TYPE    sqlite, postgres, or mysql (default: sqlite)
  DB_PATH          SQLite database path (default: ./ella.db)
  DATABASE_URL     PostgreSQL or MySQL connection URL`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "SQLite database path (overrides DB_PATH)")

	rootCmd.AddCommand(seedBooksCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}

// env bundles what every subcommand needs
type env struct {
	db     *database.DB
	logger *zap.Logger
}

func (e *env) Close() {
	e.db.Close()
	e.logger.Sync()
}

// openEnv loads configuration, opens the database and brings the schema up
// to date
func openEnv(cmd *cobra.Command) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		cfg.DatabaseType = "sqlite"
		cfg.DatabasePath = p
	}

	log, err := logger.New(logger.Config{Level: cfg.LogLevel, Encoding: "console"})
	if err != nil {
		return nil, err
	}

	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	var fsys fs.FS = migrations.FS
	if cfg.MigrationsPath != "" {
		fsys = os.DirFS(cfg.MigrationsPath)
	}
	_, err = db.RunMigrations(cmd.Context(), fsys)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &env{db: db, logger: log}, nil
}
