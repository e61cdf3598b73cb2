package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ella/internal/catalog"
	"ella/internal/models"
	"ella/internal/repository"
	"ella/internal/service"
)

var seedBooksCmd = &cobra.Command{
	Use:   "seed-books",
	Short: "Add books from a YAML catalog, skipping ids that already exist",
	Example: `  ellactl seed-books
  ellactl seed-books --file books.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")

		var books []models.Book
		var err error
		if file != "" {
			books, err = catalog.LoadFile(file)
		} else {
			books, err = catalog.Default()
		}
		if err != nil {
			return err
		}

		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		bookRepo := repository.NewBookRepository(e.db)
		bookService := service.NewBookService(bookRepo, bookRepo, repository.NewUserRepository(e.db), e.logger)

		added, err := bookService.SeedBooks(cmd.Context(), books)
		if err != nil {
			return err
		}
		e.logger.Info("Seed complete", zap.Int("added", added), zap.Int("skipped", len(books)-added))
		return nil
	},
}

func init() {
	seedBooksCmd.Flags().String("file", "", "YAML catalog file (default: built-in catalog)")
}
