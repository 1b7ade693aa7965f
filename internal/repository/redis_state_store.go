package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"StockX/internal/domain/models"
	domrepo "StockX/internal/domain/repository"

	"github.com/redis/go-redis/v9"
)

// StateClient is the subset of redis.Cmdable the state store needs.
type StateClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// RedisStateStore keeps msgpack state blobs under prefix+symbol with no expiry.
type RedisStateStore struct {
	client StateClient
	prefix string
}

func NewRedisStateStore(client StateClient, prefix string) *RedisStateStore {
	return &RedisStateStore{client: client, prefix: prefix}
}

func (s *RedisStateStore) key(symbol string) string { return s.prefix + symbol }

func (s *RedisStateStore) Load(ctx context.Context, symbol string) (*models.ARIMAState, error) {
	b, err := s.client.Get(ctx, s.key(symbol)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("state %s: %w", s.key(symbol), models.ErrNotFound)
		}
		return nil, &models.StorageError{Op: "redis get state", Err: err}
	}
	st, err := decodeState("", b)
	if err != nil {
		return nil, &models.StorageError{Op: "redis get state", Err: err}
	}
	if st.Symbol == "" {
		st.Symbol = symbol
	}
	return st, nil
}

func (s *RedisStateStore) Save(ctx context.Context, symbol string, st *models.ARIMAState) error {
	b, err := encodeState("", st)
	if err != nil {
		return &models.StorageError{Op: "encode state", Err: err}
	}
	if err := s.client.Set(ctx, s.key(symbol), b, 0).Err(); err != nil {
		return &models.StorageError{Op: "redis set state", Err: err}
	}
	return nil
}

var (
	_ domrepo.StateStore = (*RedisStateStore)(nil)
	_ StateClient        = (*redis.Client)(nil)
)
