package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"ella/internal/repository"
	"ella/internal/service"
)

// BookHandler serves the book catalog
type BookHandler struct {
	bookService *service.BookService
	logger      *zap.Logger
}

// NewBookHandler creates a new book handler
func NewBookHandler(bookService *service.BookService, logger *zap.Logger) *BookHandler {
	return &BookHandler{
		bookService: bookService,
		logger:      logger.Named("books"),
	}
}

// Catalog lists books, optionally filtered by source and difficulty
func (h *BookHandler) Catalog(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	books, err := h.bookService.Catalog(r.Context(), repository.BookFilter{
		Source:     query.Get("source"),
		Difficulty: query.Get("difficulty"),
	})
	if err != nil {
		respondWithError(w, h.logger, "Failed to get books", err)
		return
	}
	respondJSON(w, http.StatusOK, envelope{"books": books, "count": len(books)})
}

// GetBook returns one book with its contents
func (h *BookHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	book, err := h.bookService.Get(r.Context(), r.PathValue("bookId"))
	if err != nil {
		respondWithError(w, h.logger, "Failed to get book", err)
		return
	}
	respondJSON(w, http.StatusOK, envelope{"book": book})
}

// Search matches titles and writers
func (h *BookHandler) Search(w http.ResponseWriter, r *http.Request) {
	books, err := h.bookService.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		respondWithError(w, h.logger, "Failed to search books", err)
		return
	}
	respondJSON(w, http.StatusOK, envelope{"books": books, "count": len(books)})
}

// LastUnfinished returns the book the caller should resume, or null
func (h *BookHandler) LastUnfinished(w http.ResponseWriter, r *http.Request) {
	book, err := h.bookService.LastUnfinished(r.Context(), callerID(r))
	if err != nil {
		respondWithError(w, h.logger, "Failed to get last unfinished book", err)
		return
	}
	respondJSON(w, http.StatusOK, envelope{"book": book})
}
