// Package cache — кэш чтений в Redis. Записи инвалидируются при изменениях
// и считаются согласованными с хранилищем лишь в конечном счёте.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/magabrotheeeer/autopay-alert/internal/config"
	"github.com/magabrotheeeer/autopay-alert/internal/metrics"
)

const cacheName = "redis"

// Cache хранит JSON-значения с TTL.
type Cache struct {
	Db      *redis.Client
	ttl     time.Duration
	metrics *metrics.Metrics
}

// SubscriptionsKey — ключ списка подписок идентичности.
func SubscriptionsKey(uid string) string { return "subs:" + uid }

// ProfileKey — ключ профиля идентичности.
func ProfileKey(uid string) string { return "profile:" + uid }

// TasksKey — ключ списка задач идентичности.
func TasksKey(uid string) string { return "tasks:" + uid }

// InitServer подключается к Redis и проверяет соединение.
func InitServer(ctx context.Context, cfg config.RedisConnection, m *metrics.Metrics) (*Cache, error) {
	const op = "cache.InitServer"
	if m == nil {
		m = metrics.NewNop()
	}
	db := redis.NewClient(&redis.Options{
		Addr:         cfg.AddressRedis,
		Password:     cfg.Password,
		DB:           cfg.DB,
		Username:     cfg.User,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.TimeoutRedis,
		WriteTimeout: cfg.TimeoutRedis,
	})

	if err := db.Ping(ctx).Err(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Cache{Db: db, ttl: cfg.CacheTTL, metrics: m}, nil
}

// Get читает значение в result. Возвращает false, если ключа нет.
func (c *Cache) Get(ctx context.Context, key string, result any) (bool, error) {
	const op = "cache.Get"
	val, err := c.Db.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		c.metrics.CacheMisses.WithLabelValues(cacheName).Inc()
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if err := json.Unmarshal(val, result); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	c.metrics.CacheHits.WithLabelValues(cacheName).Inc()
	return true, nil
}

// Set сохраняет значение. Нулевой expiration заменяется TTL из конфига.
func (c *Cache) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	const op = "cache.Set"
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if expiration == 0 {
		expiration = c.ttl
	}
	if err := c.Db.Set(ctx, key, data, expiration).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Invalidate удаляет ключи.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) error {
	const op = "cache.Invalidate"
	if len(keys) == 0 {
		return nil
	}
	if err := c.Db.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Close закрывает соединение.
func (c *Cache) Close() error {
	return c.Db.Close()
}
