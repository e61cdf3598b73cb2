package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ella/internal/catalog"
	"ella/internal/models"
	"ella/internal/repository"
)

func newBookService(f *fixture) *BookService {
	return NewBookService(f.books, f.books, f.users, zap.NewNop())
}

func TestSeedBooksSkipsExisting(t *testing.T) {
	f := newFixture(t)
	svc := newBookService(f)
	ctx := context.Background()

	books, err := catalog.Default()
	require.NoError(t, err)

	added, err := svc.SeedBooks(ctx, books)
	require.NoError(t, err)
	assert.Equal(t, len(books), added)

	added, err = svc.SeedBooks(ctx, books)
	require.NoError(t, err)
	assert.Equal(t, 0, added)

	all, err := svc.Catalog(ctx, repository.BookFilter{})
	require.NoError(t, err)
	assert.Len(t, all, len(books))

	beginner, err := svc.Catalog(ctx, repository.BookFilter{Difficulty: models.DifficultyBeginner})
	require.NoError(t, err)
	for _, b := range beginner {
		assert.Equal(t, models.DifficultyBeginner, b.Difficulty)
	}
}

func TestBookServiceGetAndSearch(t *testing.T) {
	f := newFixture(t)
	f.addBook(t, "b1", models.DifficultyBeginner, 3)
	svc := newBookService(f)
	ctx := context.Background()

	book, err := svc.Get(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, 3, book.TotalSentences())

	_, err = svc.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrBookNotFound)

	_, err = svc.Search(ctx, " ")
	assert.ErrorIs(t, err, ErrInvalidInput)

	found, err := svc.Search(ctx, "WRITER b1")
	require.NoError(t, err)
	assert.Len(t, found, 1)
}

func TestLastUnfinished(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "u1")
	for _, id := range []string{"b1", "b2", "b3"} {
		f.addBook(t, id, models.DifficultyBeginner, 4)
	}
	svc := newBookService(f)
	ctx := context.Background()

	book, err := svc.LastUnfinished(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, book, "no progress yet")

	setProgress := func(entries ...models.ProgressEntry) {
		_, err := f.users.ApplyReward(ctx, "u1", func(state *models.UserRewardState) error {
			state.Progress = entries
			return nil
		})
		require.NoError(t, err)
	}

	setProgress(
		models.ProgressEntry{BookID: "b1", SentencesRead: 1, TotalSentences: 4},
		models.ProgressEntry{BookID: "b2", SentencesRead: 2, TotalSentences: 4},
		models.ProgressEntry{BookID: "b3", SentencesRead: 4, TotalSentences: 4},
	)
	book, err = svc.LastUnfinished(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, book)
	assert.Equal(t, "b2", book.ID)

	setProgress(
		models.ProgressEntry{BookID: "b1", SentencesRead: 4, TotalSentences: 4},
		models.ProgressEntry{BookID: "b3", SentencesRead: 4, TotalSentences: 4},
	)
	book, err = svc.LastUnfinished(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, book)
	assert.Equal(t, "b3", book.ID, "falls back to the last book read")

	_, err = svc.LastUnfinished(ctx, "nobody")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
