package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"ella/internal/database"
	"ella/internal/models"
)

// BookFilter narrows a catalog listing; empty fields match everything
type BookFilter struct {
	Source     string
	Difficulty string
}

// BookRepository handles database operations for the book catalog
type BookRepository struct {
	db *database.DB
}

// NewBookRepository creates a new book repository
func NewBookRepository(db *database.DB) *BookRepository {
	return &BookRepository{db: db}
}

const bookColumns = `id, title, writer, publisher, source, difficulty, cover, contents, sentence_count, created_at`

func scanBook(row rowScanner) (*models.Book, error) {
	book := &models.Book{}
	var contents string
	var sentenceCount sql.NullInt64

	err := row.Scan(
		&book.ID,
		&book.Title,
		&book.Writer,
		&book.Publisher,
		&book.Source,
		&book.Difficulty,
		&book.Cover,
		&contents,
		&sentenceCount,
		&book.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := decodeJSON(contents, &book.Contents); err != nil {
		return nil, err
	}
	if book.Contents == nil {
		book.Contents = []string{}
	}
	if sentenceCount.Valid {
		n := int(sentenceCount.Int64)
		book.SentenceCount = &n
	}
	return book, nil
}

// GetByID retrieves a book, or nil when it does not exist
func (r *BookRepository) GetByID(ctx context.Context, id string) (*models.Book, error) {
	book, err := scanBook(r.db.QueryRowContext(ctx, `SELECT `+bookColumns+` FROM books WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get book: %w", err)
	}
	return book, nil
}

// List returns the catalog ordered by title
func (r *BookRepository) List(ctx context.Context, filter BookFilter) ([]models.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books WHERE 1 = 1`
	var args []interface{}

	if filter.Source != "" {
		query += " AND source = ?"
		args = append(args, filter.Source)
	}
	if filter.Difficulty != "" {
		query += " AND difficulty = ?"
		args = append(args, filter.Difficulty)
	}
	query += " ORDER BY title, id"

	return r.query(ctx, query, args...)
}

// Search matches a case-insensitive substring of the title or writer
func (r *BookRepository) Search(ctx context.Context, term string) ([]models.Book, error) {
	pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
	query := `
		SELECT ` + bookColumns + `
		FROM books
		WHERE LOWER(title) LIKE ? ESCAPE '!' OR LOWER(writer) LIKE ? ESCAPE '!'
		ORDER BY title, id
	`
	return r.query(ctx, query, pattern, pattern)
}

// Exists reports whether a book id is already in the catalog
func (r *BookRepository) Exists(ctx context.Context, id string) (bool, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM books WHERE id = ?", id).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check book: %w", err)
	}
	return count > 0, nil
}

// Create inserts a book
func (r *BookRepository) Create(ctx context.Context, book *models.Book) error {
	return r.insert(ctx, r.db, book)
}

// Import inserts a book inside an existing transaction
func (r *BookRepository) Import(ctx context.Context, tx database.DBTX, book *models.Book) error {
	return r.insert(ctx, tx, book)
}

func (r *BookRepository) insert(ctx context.Context, q database.DBTX, book *models.Book) error {
	contents, err := encodeJSON(book.Contents)
	if err != nil {
		return err
	}
	var sentenceCount sql.NullInt64
	if book.SentenceCount != nil {
		sentenceCount = sql.NullInt64{Int64: int64(*book.SentenceCount), Valid: true}
	}

	query := `INSERT INTO books (` + bookColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = q.ExecContext(ctx, query,
		book.ID,
		book.Title,
		book.Writer,
		book.Publisher,
		book.Source,
		book.Difficulty,
		book.Cover,
		contents,
		sentenceCount,
		book.CreatedAt,
	)
	if q.GetDialect().IsUniqueViolation(err) {
		return fmt.Errorf("book %s: %w", book.ID, ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("failed to create book: %w", err)
	}
	return nil
}

func (r *BookRepository) query(ctx context.Context, query string, args ...interface{}) ([]models.Book, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query books: %w", err)
	}
	defer rows.Close()

	books := []models.Book{}
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan book: %w", err)
		}
		books = append(books, *book)
	}
	return books, rows.Err()
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
