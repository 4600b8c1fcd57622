package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/worklane/hr-api/pkg/errors"
)

// attendanceKeyRegistry is the set holding every cache key derived from
// attendance data. Membership, not contents, is all the coupler tracks.
const attendanceKeyRegistry = "attendance:cache-keys"

// CacheRepository abstracts persistence for cached payloads and the key
// registry.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Register(ctx context.Context, registry, key string) error
	InvalidateRegistered(ctx context.Context, registry string) error
}

// CacheService couples attendance writes to cache invalidation. Readers
// caching an attendance-derived view go through SetView, which registers
// the key; any committed attendance write calls InvalidateAttendance, which
// drops every registered key and clears the registry.
type CacheService struct {
	repo       CacheRepository
	metrics    *MetricsService
	defaultTTL time.Duration
	logger     *zap.Logger
	enabled    bool
}

// NewCacheService constructs the cache coupler.
func NewCacheService(repo CacheRepository, metrics *MetricsService, defaultTTL time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if defaultTTL <= 0 {
		defaultTTL = 10 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, defaultTTL: defaultTTL, logger: logger, enabled: enabled}
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// GetView attempts to retrieve a cached attendance view. Repository
// failures degrade to a miss so reads never fail because of the cache.
func (s *CacheService) GetView(ctx context.Context, key string, dest interface{}) bool {
	if !s.Enabled() {
		return false
	}
	start := time.Now()
	err := s.repo.Get(ctx, key, dest)
	duration := time.Since(start)
	if err != nil {
		s.metrics.RecordCacheOperation(false, duration)
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	s.metrics.RecordCacheOperation(true, duration)
	return true
}

// SetView registers the key in the attendance registry, then stores the
// value. If registration fails the value is not cached, otherwise a stale
// entry could outlive the next invalidation sweep.
func (s *CacheService) SetView(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if !s.Enabled() {
		return
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	if err := s.repo.Register(ctx, attendanceKeyRegistry, key); err != nil {
		s.logger.Warn("cache key registration failed, skipping cache", zap.String("key", key), zap.Error(err))
		return
	}
	start := time.Now()
	err := s.repo.Set(ctx, key, value, ttl)
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// InvalidateAttendance drops every registered key and clears the registry.
// Callers invoke it after the triggering write has committed, never before.
func (s *CacheService) InvalidateAttendance(ctx context.Context) {
	if !s.Enabled() {
		return
	}
	if err := s.repo.InvalidateRegistered(ctx, attendanceKeyRegistry); err != nil {
		s.logger.Warn("cache invalidation failed", zap.Error(err))
		return
	}
	s.metrics.RecordInvalidation()
}
