package ai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto"

	"github.com/magabrotheeeer/autopay-alert/internal/metrics"
)

const cacheName = "ai"

// CachedGenerator запоминает ответы по тексту запроса.
type CachedGenerator struct {
	next    Generator
	cache   *ristretto.Cache
	ttl     time.Duration
	metrics *metrics.Metrics
}

// NewCachedGenerator создаёт кэш примерно на maxEntries ответов.
func NewCachedGenerator(next Generator, maxEntries int64, ttl time.Duration, m *metrics.Metrics) (*CachedGenerator, error) {
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	if m == nil {
		m = metrics.NewNop()
	}
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxEntries * 10,
		MaxCost:     maxEntries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("ai.NewCachedGenerator: %w", err)
	}
	return &CachedGenerator{next: next, cache: cache, ttl: ttl, metrics: m}, nil
}

// Generate возвращает закэшированный ответ или запрашивает новый. Ошибки не кэшируются.
func (g *CachedGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	key := promptKey(prompt)
	if v, ok := g.cache.Get(key); ok {
		if text, ok := v.(string); ok {
			g.metrics.CacheHits.WithLabelValues(cacheName).Inc()
			return text, nil
		}
	}
	g.metrics.CacheMisses.WithLabelValues(cacheName).Inc()

	text, err := g.next.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	g.cache.SetWithTTL(key, text, 1, g.ttl)
	return text, nil
}

// Wait дожидается применения отложенных записей в кэш.
func (g *CachedGenerator) Wait() {
	g.cache.Wait()
}

// Close освобождает ресурсы кэша.
func (g *CachedGenerator) Close() {
	g.cache.Close()
}

func promptKey(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(sum[:])
}
