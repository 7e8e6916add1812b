// Package cache puts a Redis read-through layer in front of the setup store.
// When Redis is unavailable every call falls through to the store.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vitos/ltp_scanner/internal/domain"
	"go.uber.org/zap"
)

const (
	keySetups = "ltp:setups:%s:%d"
	keyLevels = "ltp:levels:%s"
	keyMTF    = "ltp:mtf:%s"

	DefaultTTL = 15 * time.Second
)

type Config struct {
	Address  string
	Password string
	DB       int
	TTL      time.Duration
}

// SetupCache wraps a SetupStore. Reads are cached for TTL; writes go to the
// store and drop the affected keys.
type SetupCache struct {
	store  domain.SetupStore
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger

	mu            sync.RWMutex
	healthy       bool
	failureCount  int
	maxFailures   int
	lastCheck     time.Time
	checkInterval time.Duration
}

func NewSetupCache(store domain.SetupStore, cfg Config, logger *zap.Logger) *SetupCache {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   -1,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})

	c := &SetupCache{
		store:         store,
		client:        client,
		ttl:           cfg.TTL,
		logger:        logger,
		maxFailures:   3,
		checkInterval: 30 * time.Second,
		lastCheck:     time.Now(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("Redis unavailable, serving from store", zap.String("addr", cfg.Address), zap.Error(err))
		return c
	}
	c.healthy = true
	return c
}

func (c *SetupCache) Close() error {
	return c.client.Close()
}

func (c *SetupCache) IsHealthy() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.healthy
}

// available reports health, re-probing Redis once per checkInterval while unhealthy.
func (c *SetupCache) available(ctx context.Context) bool {
	c.mu.Lock()
	if c.healthy {
		c.mu.Unlock()
		return true
	}
	if time.Since(c.lastCheck) < c.checkInterval {
		c.mu.Unlock()
		return false
	}
	c.lastCheck = time.Now()
	c.mu.Unlock()

	if err := c.client.Ping(ctx).Err(); err != nil {
		return false
	}
	c.logger.Info("Redis recovered")
	c.recordSuccess()
	return true
}

func (c *SetupCache) recordFailure(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failureCount++
	if c.failureCount >= c.maxFailures && c.healthy {
		c.logger.Warn("Redis marked unhealthy", zap.Int("failures", c.failureCount), zap.Error(err))
		c.healthy = false
	}
}

func (c *SetupCache) recordSuccess() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failureCount = 0
	c.healthy = true
}

// readThrough serves key from Redis or loads it from the store and caches it.
func readThrough[T any](ctx context.Context, c *SetupCache, key string, load func() (T, error)) (T, error) {
	if c.available(ctx) {
		raw, err := c.client.Get(ctx, key).Bytes()
		switch {
		case err == nil:
			var v T
			if jerr := json.Unmarshal(raw, &v); jerr == nil {
				return v, nil
			}
		case errors.Is(err, redis.Nil):
		default:
			c.recordFailure(err)
		}
	}

	v, err := load()
	if err != nil {
		return v, err
	}

	if c.IsHealthy() {
		if raw, jerr := json.Marshal(v); jerr == nil {
			if serr := c.client.Set(ctx, key, raw, c.ttl).Err(); serr != nil {
				c.recordFailure(serr)
			} else {
				c.recordSuccess()
			}
		}
	}
	return v, nil
}

func (c *SetupCache) invalidate(ctx context.Context, pattern string) {
	if !c.available(ctx) {
		return
	}
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.recordFailure(err)
		return
	}
	if len(keys) > 0 {
		if err := c.client.Del(ctx, keys...).Err(); err != nil {
			c.recordFailure(err)
		}
	}
}

// SetupReader Implementation

func (c *SetupCache) ListDetectedSetups(ctx context.Context, filter domain.SetupFilter) ([]*domain.DetectedSetup, error) {
	key := fmt.Sprintf(keySetups, filter.Symbol, filter.Limit)
	return readThrough(ctx, c, key, func() ([]*domain.DetectedSetup, error) {
		return c.store.ListDetectedSetups(ctx, filter)
	})
}

func (c *SetupCache) ListKeyLevels(ctx context.Context, symbol string, asOf time.Time) ([]*domain.KeyLevel, error) {
	return readThrough(ctx, c, fmt.Sprintf(keyLevels, symbol), func() ([]*domain.KeyLevel, error) {
		return c.store.ListKeyLevels(ctx, symbol, asOf)
	})
}

func (c *SetupCache) ListMTFAnalyses(ctx context.Context, symbol string, since time.Time) ([]*domain.MTFAnalysis, error) {
	return readThrough(ctx, c, fmt.Sprintf(keyMTF, symbol), func() ([]*domain.MTFAnalysis, error) {
		return c.store.ListMTFAnalyses(ctx, symbol, since)
	})
}

// SetupWriter Implementation

func (c *SetupCache) SaveDetectedSetup(ctx context.Context, setup *domain.DetectedSetup) error {
	if err := c.store.SaveDetectedSetup(ctx, setup); err != nil {
		return err
	}
	c.invalidate(ctx, "ltp:setups:*")
	return nil
}

func (c *SetupCache) SaveKeyLevel(ctx context.Context, level *domain.KeyLevel) error {
	if err := c.store.SaveKeyLevel(ctx, level); err != nil {
		return err
	}
	c.invalidate(ctx, fmt.Sprintf(keyLevels, level.Symbol))
	return nil
}

func (c *SetupCache) SaveMTFAnalysis(ctx context.Context, analysis *domain.MTFAnalysis) error {
	if err := c.store.SaveMTFAnalysis(ctx, analysis); err != nil {
		return err
	}
	c.invalidate(ctx, fmt.Sprintf(keyMTF, analysis.Symbol))
	return nil
}

// DeleteKeyLevel does not know the level's symbol, so it drops every cached level set.
func (c *SetupCache) DeleteKeyLevel(ctx context.Context, id string) error {
	if err := c.store.DeleteKeyLevel(ctx, id); err != nil {
		return err
	}
	c.invalidate(ctx, "ltp:levels:*")
	return nil
}
