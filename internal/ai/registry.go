package ai

import (
	"fmt"
	"log/slog"
	"regexp"
	"sync"
	"time"

	"github.com/magabrotheeeer/autopay-alert/internal/metrics"
	"github.com/magabrotheeeer/autopay-alert/internal/models"
)

// Стандартные слоты сессий.
const (
	SlotTaskPlan    = "task-plan"
	SlotSubAnalysis = "sub-analysis"
	SlotSubReview   = "sub-review"
	SlotBriefing    = "briefing"
	SlotFreeForm    = "free-form"
)

// MaxSessionsPerIdentity ограничивает число сессий одной идентичности.
const MaxSessionsPerIdentity = 16

var slotPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{0,63}$`)

// ValidSlot проверяет имя слота: строчные латинские буквы, цифры и дефис.
func ValidSlot(slot string) bool {
	return slotPattern.MatchString(slot)
}

type sessionKey struct {
	uid  string
	slot string
}

type entry struct {
	session *Session
	used    time.Time
}

// Registry хранит по одной сессии на пару идентичность и слот. У идентичности
// не больше limit сессий: при переполнении вытесняется давно не используемая
// неактивная сессия.
type Registry struct {
	log      *slog.Logger
	streamer Streamer
	metrics  *metrics.Metrics
	limit    int
	now      func() time.Time

	mu       sync.Mutex
	sessions map[sessionKey]*entry
}

// NewRegistry создаёт пустой реестр.
func NewRegistry(log *slog.Logger, streamer Streamer, m *metrics.Metrics) *Registry {
	if m == nil {
		m = metrics.NewNop()
	}
	return &Registry{
		log:      log.With(slog.String("component", "ai")),
		streamer: streamer,
		metrics:  m,
		limit:    MaxSessionsPerIdentity,
		now:      time.Now,
		sessions: make(map[sessionKey]*entry),
	}
}

// Session возвращает сессию слота, создавая её при первом обращении.
func (r *Registry) Session(uid, slot string) (*Session, error) {
	const op = "ai.Session"
	if uid == "" || !ValidSlot(slot) {
		return nil, fmt.Errorf("%s: %w: slot %q", op, models.ErrInvalidInput, slot)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := sessionKey{uid: uid, slot: slot}
	if e, ok := r.sessions[key]; ok {
		e.used = r.now()
		return e.session, nil
	}
	if r.countLocked(uid) >= r.limit && !r.evictLocked(uid) {
		return nil, fmt.Errorf("%s: %w", op, ErrTooManySessions)
	}
	s := NewSession(r.log.With(slog.String("user_uid", uid), slog.String("slot", slot)), r.streamer, r.metrics)
	r.sessions[key] = &entry{session: s, used: r.now()}
	return s, nil
}

// Lookup возвращает существующую сессию.
func (r *Registry) Lookup(uid, slot string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sessionKey{uid: uid, slot: slot}]
	if !ok {
		return nil, false
	}
	e.used = r.now()
	return e.session, true
}

// Remove сбрасывает и удаляет сессию.
func (r *Registry) Remove(uid, slot string) bool {
	r.mu.Lock()
	key := sessionKey{uid: uid, slot: slot}
	e, ok := r.sessions[key]
	delete(r.sessions, key)
	r.mu.Unlock()
	if ok {
		e.session.Reset()
	}
	return ok
}

// Len возвращает число сессий идентичности.
func (r *Registry) Len(uid string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.countLocked(uid)
}

func (r *Registry) countLocked(uid string) int {
	n := 0
	for key := range r.sessions {
		if key.uid == uid {
			n++
		}
	}
	return n
}

// evictLocked удаляет самую давнюю неактивную сессию идентичности.
func (r *Registry) evictLocked(uid string) bool {
	var (
		victim sessionKey
		oldest *entry
	)
	for key, e := range r.sessions {
		if key.uid != uid || e.session.Snapshot().Status.Active() {
			continue
		}
		if oldest == nil || e.used.Before(oldest.used) {
			victim, oldest = key, e
		}
	}
	if oldest == nil {
		return false
	}
	delete(r.sessions, victim)
	oldest.session.Reset()
	r.log.Debug("ai session evicted", slog.String("user_uid", uid), slog.String("slot", victim.slot))
	return true
}

// Shutdown сбрасывает все сессии. Вызывается при остановке сервера.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, e := range r.sessions {
		sessions = append(sessions, e.session)
	}
	r.sessions = make(map[sessionKey]*entry)
	r.mu.Unlock()

	for _, s := range sessions {
		s.Reset()
	}
}
