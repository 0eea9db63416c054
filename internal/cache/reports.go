// Package cache provides the Redis-backed report cache. Assembling a
// patient report joins four tables; the cache keeps recently requested
// reports hot and is invalidated whenever a record for the patient
// changes.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/neurocare-patient-server/internal/domain"
)

// ReportCache caches assembled patient reports keyed by patient ID.
type ReportCache interface {
	// Get returns the cached report, a hit flag, and an error. A miss
	// is (nil, false, nil).
	Get(ctx context.Context, patientID string) (*domain.Report, bool, error)

	// Set caches a report for the patient.
	Set(ctx context.Context, patientID string, report *domain.Report) error

	// Invalidate drops the cached report for a patient. Called after
	// any write touching the patient's records.
	Invalidate(ctx context.Context, patientID string) error

	// Ping reports whether the cache backend is reachable.
	Ping(ctx context.Context) error

	// Close releases the underlying connection.
	Close() error
}

// cachedReport wraps a report with cache metadata.
type cachedReport struct {
	Report    *domain.Report `json:"report"`
	CachedAt  time.Time      `json:"cached_at"`
	ExpiresAt time.Time      `json:"expires_at"`
}

// RedisReportCache implements ReportCache on Redis.
type RedisReportCache struct {
	redis      *redis.Client
	defaultTTL time.Duration
}

// NewRedisReportCache creates a report cache from the cache config.
func NewRedisReportCache(config domain.CacheConfig) (*RedisReportCache, error) {
	opts, err := redis.ParseURL(config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opts.PoolSize = config.PoolSize
	opts.PoolTimeout = config.PoolTimeout
	opts.MaxRetries = config.MaxRetries

	client := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	ttl := config.DefaultTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	return &RedisReportCache{
		redis:      client,
		defaultTTL: ttl,
	}, nil
}

func reportKey(patientID string) string {
	return "report:" + patientID
}

// Get retrieves a cached report.
func (c *RedisReportCache) Get(ctx context.Context, patientID string) (*domain.Report, bool, error) {
	key := reportKey(patientID)

	val, err := c.redis.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, false, nil // Cache miss
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get report cache: %w", err)
	}

	var cached cachedReport
	if err := json.Unmarshal([]byte(val), &cached); err != nil {
		// Remove corrupted cache entry
		c.redis.Del(ctx, key)
		return nil, false, nil
	}

	if time.Now().After(cached.ExpiresAt) {
		c.redis.Del(ctx, key)
		return nil, false, nil
	}

	return cached.Report, true, nil
}

// Set caches a report.
func (c *RedisReportCache) Set(ctx context.Context, patientID string, report *domain.Report) error {
	cached := cachedReport{
		Report:    report,
		CachedAt:  time.Now(),
		ExpiresAt: time.Now().Add(c.defaultTTL),
	}

	jsonData, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("failed to marshal report cache data: %w", err)
	}

	return c.redis.Set(ctx, reportKey(patientID), jsonData, c.defaultTTL).Err()
}

// Invalidate drops the cached report for a patient.
func (c *RedisReportCache) Invalidate(ctx context.Context, patientID string) error {
	return c.redis.Del(ctx, reportKey(patientID)).Err()
}

// Ping checks Redis reachability.
func (c *RedisReportCache) Ping(ctx context.Context) error {
	return c.redis.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (c *RedisReportCache) Close() error {
	return c.redis.Close()
}

// NopReportCache is used when caching is disabled. Every lookup misses.
type NopReportCache struct{}

func NewNopReportCache() *NopReportCache { return &NopReportCache{} }

func (NopReportCache) Get(ctx context.Context, patientID string) (*domain.Report, bool, error) {
	return nil, false, nil
}

func (NopReportCache) Set(ctx context.Context, patientID string, report *domain.Report) error {
	return nil
}

func (NopReportCache) Invalidate(ctx context.Context, patientID string) error { return nil }

func (NopReportCache) Ping(ctx context.Context) error { return nil }

func (NopReportCache) Close() error { return nil }
