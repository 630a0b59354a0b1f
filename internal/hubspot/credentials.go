package hubspot

import (
	"context"
	"errors"
	"time"

	"github.com/mohamed-ali0/hubspot-agent-sub000/internal/auth"
	"github.com/mohamed-ali0/hubspot-agent-sub000/internal/logger"
	"github.com/mohamed-ali0/hubspot-agent-sub000/internal/models"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TokenCache is the slice of redisstore.Store the resolver needs.
type TokenCache interface {
	GetToken(ctx context.Context, userID uint64) (string, error)
	SetToken(ctx context.Context, userID uint64, token string, ttl time.Duration) error
	DeleteToken(ctx context.Context, userID uint64) error
}

// TokenSource resolves the CRM credential for a user: the user's encrypted
// token when present, otherwise the process-wide fallback. Decrypted tokens
// are cached with a TTL; the cache is optional.
type TokenSource struct {
	db       *gorm.DB
	cache    TokenCache
	key      string
	fallback string
	ttl      time.Duration
}

func NewTokenSource(db *gorm.DB, cache TokenCache, encryptionKey, fallbackToken string, ttl time.Duration) *TokenSource {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &TokenSource{
		db:       db,
		cache:    cache,
		key:      encryptionKey,
		fallback: fallbackToken,
		ttl:      ttl,
	}
}

// TokenForUser returns the bearer token scoped to the user. Absence of both a
// per-user and a fallback token is a configuration error, not a remote one.
func (s *TokenSource) TokenForUser(ctx context.Context, userID uint64) (string, error) {
	if s.cache != nil {
		tok, err := s.cache.GetToken(ctx, userID)
		if err == nil && tok != "" {
			return tok, nil
		}
		if err != nil && !errors.Is(err, redis.Nil) {
			logger.Warn("token cache read failed", zap.Uint64("user_id", userID), zap.Error(err))
		}
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return "", err
	}

	if user.HubSpotToken != "" {
		tok, err := auth.DecryptToken(user.HubSpotToken, s.key)
		if err != nil {
			return "", err
		}
		if s.cache != nil {
			if err := s.cache.SetToken(ctx, userID, tok, s.ttl); err != nil {
				logger.Warn("token cache write failed", zap.Uint64("user_id", userID), zap.Error(err))
			}
		}
		return tok, nil
	}

	if s.fallback != "" {
		return s.fallback, nil
	}
	return "", ErrNoCredential
}

// Invalidate drops the cached token after a rotation.
func (s *TokenSource) Invalidate(ctx context.Context, userID uint64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteToken(ctx, userID); err != nil {
		logger.Warn("token cache invalidate failed", zap.Uint64("user_id", userID), zap.Error(err))
	}
}
