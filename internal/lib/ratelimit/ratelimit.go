// Package ratelimit хранит token bucket на каждый ключ (идентичность или адрес).
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Keyed — набор ограничителей по ключу. Ключи, к которым не обращались
// дольше expiresIn, удаляются при очередном вызове Allow.
type Keyed struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	expiresIn time.Duration
	entries   map[string]*entry
	lastSweep time.Time
	now       func() time.Time
}

// New создаёт Keyed с частотой perSecond и ёмкостью burst.
func New(perSecond float64, burst int, expiresIn time.Duration) *Keyed {
	if burst <= 0 {
		burst = 1
	}
	if expiresIn <= 0 {
		expiresIn = 3 * time.Minute
	}
	return &Keyed{
		limit:     rate.Limit(perSecond),
		burst:     burst,
		expiresIn: expiresIn,
		entries:   make(map[string]*entry),
		now:       time.Now,
	}
}

// PerMinute создаёт Keyed с частотой n запросов в минуту.
func PerMinute(n, burst int) *Keyed {
	return New(float64(n)/60.0, burst, time.Minute)
}

// Allow расходует один токен ключа.
func (k *Keyed) Allow(key string) bool {
	k.mu.Lock()
	defer k.mu.Unlock()

	now := k.now()
	k.sweepLocked(now)

	e, ok := k.entries[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(k.limit, k.burst)}
		k.entries[key] = e
	}
	e.lastSeen = now
	return e.limiter.AllowN(now, 1)
}

// Len возвращает число отслеживаемых ключей.
func (k *Keyed) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.entries)
}

func (k *Keyed) sweepLocked(now time.Time) {
	if now.Sub(k.lastSweep) < k.expiresIn {
		return
	}
	k.lastSweep = now
	for key, e := range k.entries {
		if now.Sub(e.lastSeen) > k.expiresIn {
			delete(k.entries, key)
		}
	}
}
