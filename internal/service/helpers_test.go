package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ella/internal/database"
	"ella/internal/metrics"
	"ella/internal/models"
	"ella/internal/repository"
	"ella/migrations"
)

type fixture struct {
	db          *database.DB
	users       *repository.UserRepository
	books       *repository.BookRepository
	sessions    *repository.ReadingRepository
	activities  *repository.ActivityRepository
	redemptions *repository.RedemptionRepository
	metrics     *metrics.Metrics
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := database.Initialize(filepath.Join(t.TempDir(), "service_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.RunMigrations(context.Background(), migrations.FS)
	require.NoError(t, err)

	users := repository.NewUserRepository(db)
	return &fixture{
		db:          db,
		users:       users,
		books:       repository.NewBookRepository(db),
		sessions:    repository.NewReadingRepository(db, users),
		activities:  repository.NewActivityRepository(db),
		redemptions: repository.NewRedemptionRepository(db),
		metrics:     metrics.NewNop(),
	}
}

func (f *fixture) addUser(t *testing.T, uid string) *models.User {
	t.Helper()
	u := models.NewUser(uid, uid+"@example.com", "Reader "+uid, time.Now().UTC())
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}

func (f *fixture) addBook(t *testing.T, id, difficulty string, sentences int) *models.Book {
	t.Helper()
	b := &models.Book{
		ID:         id,
		Title:      "Book " + id,
		Writer:     "Writer " + id,
		Difficulty: difficulty,
		Contents:   make([]string, sentences),
		CreatedAt:  time.Now().UTC(),
	}
	for i := range b.Contents {
		b.Contents[i] = "Sentence."
	}
	require.NoError(t, f.books.Create(context.Background(), b))
	return b
}

func (f *fixture) rewards(t *testing.T, uid string) models.UserRewardState {
	t.Helper()
	u, err := f.users.GetByUID(context.Background(), uid)
	require.NoError(t, err)
	require.NotNil(t, u)
	return u.Rewards
}

func (f *fixture) readingService(store SessionStore, maxRetries int) *ReadingService {
	if store == nil {
		store = f.sessions
	}
	return NewReadingService(f.books, store, f.metrics, zap.NewNop(), maxRetries)
}
