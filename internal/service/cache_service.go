package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/intransparency/platform-api/pkg/errors"
)

type cacheStore interface {
	Enabled() bool
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, pattern string) error
}

type cacheMetricsRecorder interface {
	RecordCacheHit()
	RecordCacheMiss()
}

// CacheService provides a JSON read-through cache over Redis. A disabled
// backing store turns every read into a miss and every write into a noop.
type CacheService struct {
	store   cacheStore
	metrics cacheMetricsRecorder
	logger  *zap.Logger
}

// NewCacheService constructs the cache service. Metrics may be nil.
func NewCacheService(store cacheStore, metrics cacheMetricsRecorder, logger *zap.Logger) *CacheService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{store: store, metrics: metrics, logger: logger}
}

// Enabled reports whether a backend is configured.
func (s *CacheService) Enabled() bool {
	return s.store != nil && s.store.Enabled()
}

// Get unmarshals a cached value into dest. Returns (true, nil) on a hit.
// A miss is not an error.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	raw, err := s.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, appErrors.ErrCacheMiss) {
			s.recordMiss()
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		s.logger.Warn("cache payload corrupt, dropping", zap.String("key", key), zap.Error(err))
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			s.logger.Warn("cache drop failed", zap.String("key", key), zap.Error(delErr))
		}
		s.recordMiss()
		return false, nil
	}
	s.recordHit()
	return true, nil
}

// Set marshals and stores a value with a TTL.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !s.Enabled() {
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value %s: %w", key, err)
	}
	return s.store.Set(ctx, key, raw, ttl)
}

// Invalidate removes cached entries matching the pattern.
func (s *CacheService) Invalidate(ctx context.Context, pattern string) error {
	if !s.Enabled() {
		return nil
	}
	return s.store.Delete(ctx, pattern)
}

func (s *CacheService) recordHit() {
	if s.metrics != nil {
		s.metrics.RecordCacheHit()
	}
}

func (s *CacheService) recordMiss() {
	if s.metrics != nil {
		s.metrics.RecordCacheMiss()
	}
}
