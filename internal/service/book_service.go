package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"ella/internal/models"
	"ella/internal/repository"
)

// BookService serves the book catalog. Single-book lookups go through
// catalog, which may be the Redis read-through cache.
type BookService struct {
	books   *repository.BookRepository
	catalog BookCatalog
	users   *repository.UserRepository
	logger  *zap.Logger
}

// NewBookService creates a new book service
func NewBookService(books *repository.BookRepository, catalog BookCatalog, users *repository.UserRepository, logger *zap.Logger) *BookService {
	return &BookService{
		books:   books,
		catalog: catalog,
		users:   users,
		logger:  logger.Named("books"),
	}
}

// Catalog lists books matching the filter
func (s *BookService) Catalog(ctx context.Context, filter repository.BookFilter) ([]models.Book, error) {
	books, err := s.books.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	return books, nil
}

// Get returns one book or ErrBookNotFound
func (s *BookService) Get(ctx context.Context, id string) (*models.Book, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, invalidInput("Book ID is required")
	}
	book, err := s.catalog.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load book: %w", err)
	}
	if book == nil {
		return nil, ErrBookNotFound
	}
	return book, nil
}

// Search matches title or writer, case-insensitively
func (s *BookService) Search(ctx context.Context, term string) ([]models.Book, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, invalidInput("Search query is required")
	}
	books, err := s.books.Search(ctx, term)
	if err != nil {
		return nil, fmt.Errorf("failed to search books: %w", err)
	}
	return books, nil
}

// LastUnfinished returns the most recent book in the caller's progress that
// is not finished, or the most recent book if all are finished. It returns
// nil when there is no progress or the book no longer exists.
func (s *BookService) LastUnfinished(ctx context.Context, uid string) (*models.Book, error) {
	user, err := s.users.GetByUID(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	progress := user.Rewards.Progress
	if len(progress) == 0 {
		return nil, nil
	}

	bookID := progress[len(progress)-1].BookID
	for i := len(progress) - 1; i >= 0; i-- {
		if !progress[i].Completed() {
			bookID = progress[i].BookID
			break
		}
	}

	book, err := s.catalog.GetByID(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("failed to load book: %w", err)
	}
	return book, nil
}

// SeedBooks inserts catalog books whose ids are not present yet and returns
// how many were added.
func (s *BookService) SeedBooks(ctx context.Context, books []models.Book) (int, error) {
	added := 0
	for i := range books {
		book := books[i]

		exists, err := s.books.Exists(ctx, book.ID)
		if err != nil {
			return added, err
		}
		if exists {
			s.logger.Debug("Book already exists, skipping", zap.String("bookId", book.ID))
			continue
		}

		if book.CreatedAt.IsZero() {
			book.CreatedAt = time.Now().UTC()
		}
		err = s.books.Create(ctx, &book)
		if errors.Is(err, repository.ErrDuplicate) {
			continue
		}
		if err != nil {
			return added, fmt.Errorf("failed to seed book %s: %w", book.ID, err)
		}
		added++
	}

	if added > 0 {
		s.logger.Info("Seeded books", zap.Int("added", added), zap.Int("catalog", len(books)))
	}
	return added, nil
}
