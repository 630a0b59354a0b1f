package redisstore

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Store struct {
	rdb *redis.Client
}

func New(addr, password string, db int) *Store {
	return &Store{
		rdb: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.rdb.Close()
}

func tokenKey(userID uint64) string {
	return fmt.Sprintf("hstoken:%d", userID)
}

// SetToken caches a decrypted CRM token for the given user.
func (s *Store) SetToken(ctx context.Context, userID uint64, token string, ttl time.Duration) error {
	return s.rdb.Set(ctx, tokenKey(userID), token, ttl).Err()
}

// GetToken returns redis.Nil when no token is cached.
func (s *Store) GetToken(ctx context.Context, userID uint64) (string, error) {
	return s.rdb.Get(ctx, tokenKey(userID)).Result()
}

func (s *Store) DeleteToken(ctx context.Context, userID uint64) error {
	return s.rdb.Del(ctx, tokenKey(userID)).Err()
}
