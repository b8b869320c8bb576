// Package events рассылает уведомления об изменениях данных идентичности
// подписчикам внутри процесса (SSE-клиентам).
package events

import (
	"sync"
	"time"
)

// Типы изменений.
const (
	KindSubscriptions = "subscriptions"
	KindPayments      = "payments"
	KindTasks         = "tasks"
	KindProfile       = "profile"
	KindAlarms        = "alarms"
)

const bufferSize = 16

// Change — уведомление о том, что данные указанного вида изменились.
type Change struct {
	Kind      string    `json:"kind"`
	ID        string    `json:"id,omitempty"`
	Action    string    `json:"action,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Hub хранит подписчиков по идентичности. Publish не блокируется:
// медленный подписчик теряет события, а не задерживает запись.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan Change]struct{}
}

// NewHub создаёт пустой хаб.
func NewHub() *Hub {
	return &Hub{subscribers: make(map[string]map[chan Change]struct{})}
}

// Subscribe возвращает канал событий идентичности и функцию отписки.
// Отписка закрывает канал и может вызываться повторно.
func (h *Hub) Subscribe(uid string) (<-chan Change, func()) {
	ch := make(chan Change, bufferSize)

	h.mu.Lock()
	subs, ok := h.subscribers[uid]
	if !ok {
		subs = make(map[chan Change]struct{})
		h.subscribers[uid] = subs
	}
	subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if subs, exists := h.subscribers[uid]; exists {
				delete(subs, ch)
				if len(subs) == 0 {
					delete(h.subscribers, uid)
				}
			}
			close(ch)
		})
	}
}

// Publish отправляет событие всем подписчикам идентичности.
func (h *Hub) Publish(uid string, change Change) {
	if change.Timestamp.IsZero() {
		change.Timestamp = time.Now().UTC()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subscribers[uid] {
		select {
		case ch <- change:
		default:
		}
	}
}

// Subscribers возвращает число подписчиков идентичности.
func (h *Hub) Subscribers(uid string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[uid])
}
