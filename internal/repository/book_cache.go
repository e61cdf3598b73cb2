package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"ella/internal/models"
)

const bookCachePrefix = "ella:book:"

// CachedBookRepository serves book lookups through Redis. Redis failures
// fall back to the database; concurrent misses for one id share a single
// database read.
type CachedBookRepository struct {
	*BookRepository
	client redis.UniversalClient
	ttl    time.Duration
	group  singleflight.Group
	logger *zap.Logger
}

// NewCachedBookRepository wraps books with a read-through cache
func NewCachedBookRepository(books *BookRepository, client redis.UniversalClient, ttl time.Duration, logger *zap.Logger) *CachedBookRepository {
	return &CachedBookRepository{
		BookRepository: books,
		client:         client,
		ttl:            ttl,
		logger:         logger.Named("BookCache"),
	}
}

// GetByID checks Redis before the database. Missing books are not cached.
func (c *CachedBookRepository) GetByID(ctx context.Context, id string) (*models.Book, error) {
	key := bookCachePrefix + id

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var book models.Book
		if jsonErr := json.Unmarshal(raw, &book); jsonErr == nil {
			return &book, nil
		}
		c.logger.Warn("Discarding undecodable cache entry", zap.String("bookId", id))
	case errors.Is(err, redis.Nil):
	default:
		c.logger.Warn("Book cache unavailable, reading from database", zap.String("bookId", id), zap.Error(err))
	}

	v, err, _ := c.group.Do(id, func() (interface{}, error) {
		book, err := c.BookRepository.GetByID(ctx, id)
		if err != nil || book == nil {
			return book, err
		}
		if data, err := json.Marshal(book); err == nil {
			if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
				c.logger.Debug("Failed to populate book cache", zap.String("bookId", id), zap.Error(err))
			}
		}
		return book, nil
	})
	if err != nil {
		return nil, err
	}
	book, _ := v.(*models.Book)
	return book, nil
}
