package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/internal/models"
	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/pkg/cache"
)

// CacheRecorder observes cache lookups
type CacheRecorder interface {
	RecordCacheHit()
	RecordCacheMiss()
}

// CachedAuthService remembers successfully validated keys for a short TTL.
// Rejections are never cached so that a newly activated key works at once.
type CachedAuthService struct {
	next     AuthServiceInterface
	cache    *cache.Cache[*models.APIKey]
	recorder CacheRecorder
}

// NewCachedAuthService wraps next with a bounded TTL cache
func NewCachedAuthService(next AuthServiceInterface, size int, ttl time.Duration, recorder CacheRecorder) (*CachedAuthService, error) {
	c, err := cache.New[*models.APIKey](size, ttl)
	if err != nil {
		return nil, err
	}
	return &CachedAuthService{next: next, cache: c, recorder: recorder}, nil
}

// ValidateAPIKey implements AuthServiceInterface
func (s *CachedAuthService) ValidateAPIKey(ctx context.Context, key string) (*models.APIKey, error) {
	if key == "" {
		return nil, ErrInvalidAPIKey
	}

	cacheKey := hashKey(key)
	if apiKey, ok := s.cache.Get(cacheKey); ok {
		if s.recorder != nil {
			s.recorder.RecordCacheHit()
		}
		return apiKey, nil
	}
	if s.recorder != nil {
		s.recorder.RecordCacheMiss()
	}

	apiKey, err := s.next.ValidateAPIKey(ctx, key)
	if err != nil {
		return nil, err
	}

	s.cache.Set(cacheKey, apiKey)
	return apiKey, nil
}

// Invalidate drops key from the cache
func (s *CachedAuthService) Invalidate(key string) {
	s.cache.Delete(hashKey(key))
}

// Size returns the number of cached keys
func (s *CachedAuthService) Size() int {
	return s.cache.Size()
}

// Stop halts the cache cleanup goroutine
func (s *CachedAuthService) Stop() {
	s.cache.Stop()
}

// hashKey keeps raw API keys out of process memory longer than needed
func hashKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}
