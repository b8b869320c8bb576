package ai

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/magabrotheeeer/autopay-alert/internal/lib/sl"
	"github.com/magabrotheeeer/autopay-alert/internal/metrics"
)

// Session — одна потоковая генерация, не больше одного запроса одновременно.
//
// Каждый запуск получает номер поколения. Отмена, сброс и новый запуск увеличивают
// номер, и обратные вызовы устаревшего поколения отбрасываются, поэтому после
// Cancel ни один фрагмент, завершение или ошибка уже не применяются.
type Session struct {
	log      *slog.Logger
	streamer Streamer
	metrics  *metrics.Metrics
	now      func() time.Time

	mu     sync.Mutex
	state  State
	gen    uint64
	cancel context.CancelFunc
	done   chan struct{}
	subs   map[chan State]struct{}
}

// NewSession создаёт сессию в статусе idle.
func NewSession(log *slog.Logger, streamer Streamer, m *metrics.Metrics) *Session {
	if m == nil {
		m = metrics.NewNop()
	}
	closed := make(chan struct{})
	close(closed)
	return &Session{
		log:      log,
		streamer: streamer,
		metrics:  m,
		now:      time.Now,
		state:    State{Status: StatusIdle},
		done:     closed,
		subs:     make(map[chan State]struct{}),
	}
}

// Start прерывает предыдущий запрос и запускает новый. Статус thinking
// установлен уже к возврату из Start. Поток не зависит от отмены ctx,
// его останавливают Cancel и Reset.
func (s *Session) Start(ctx context.Context, prompt string) State {
	s.mu.Lock()
	s.abortLocked()
	s.state, _ = Transition(s.state, ResetEvent())
	s.state, _ = Transition(s.state, StartEvent(s.now()))

	gen := s.gen
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	done := make(chan struct{})
	s.done = done
	snapshot := s.state
	s.broadcastLocked()
	s.mu.Unlock()

	s.metrics.AIStreamsStarted.Inc()
	go s.run(runCtx, gen, prompt, done)
	return snapshot
}

func (s *Session) run(ctx context.Context, gen uint64, prompt string, done chan struct{}) {
	defer close(done)

	err := s.streamer.Stream(ctx, prompt, func(chunk string) {
		s.apply(gen, ChunkEvent(chunk))
	})

	switch {
	case err == nil:
		s.finish(gen)
	case ctx.Err() != nil || errors.Is(err, context.Canceled):
		// отмена уже применена Cancel или Reset
	default:
		s.log.Warn("ai stream failed", sl.Err(err))
		s.apply(gen, FailEvent(err.Error()))
	}
}

// finish завершает поток: без единого фрагмента ответ считается ошибкой.
func (s *Session) finish(gen uint64) {
	s.mu.Lock()
	empty := gen == s.gen && s.state.Status == StatusThinking
	s.mu.Unlock()
	if empty {
		s.apply(gen, FailEvent(ErrEmptyResponse.Error()))
		return
	}
	s.apply(gen, DoneEvent())
}

// apply применяет событие, если gen — текущее поколение.
func (s *Session) apply(gen uint64, e Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return false
	}
	next, err := Transition(s.state, e)
	if err != nil {
		s.log.Debug("ai event ignored", slog.String("event", e.Kind.String()), sl.Err(err))
		return false
	}
	s.state = next
	if e.Kind == EventChunk {
		s.metrics.AIChunks.Inc()
	}
	if next.Status.Terminal() {
		s.metrics.AIStreamsFinished.WithLabelValues(string(next.Status)).Inc()
		s.releaseLocked()
	}
	s.broadcastLocked()
	return true
}

// Cancel прерывает выполняющийся запрос. Для idle и терминальных статусов ничего не делает.
func (s *Session) Cancel() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.Status.Active() {
		return s.state
	}
	s.abortLocked()
	s.state, _ = Transition(s.state, CancelEvent())
	s.metrics.AIStreamsFinished.WithLabelValues(string(StatusCancelled)).Inc()
	s.broadcastLocked()
	return s.state
}

// Reset прерывает запрос и возвращает сессию в idle, отбрасывая текст.
func (s *Session) Reset() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.abortLocked()
	s.state, _ = Transition(s.state, ResetEvent())
	s.broadcastLocked()
	return s.state
}

// Snapshot возвращает копию текущего состояния.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Done возвращает канал, закрывающийся по завершении горутины текущего запуска.
func (s *Session) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// Subscribe возвращает канал снимков. Медленный читатель получает последний снимок,
// промежуточные могут быть пропущены. Текущее состояние отправляется сразу.
func (s *Session) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 1)
	s.mu.Lock()
	s.subs[ch] = struct{}{}
	ch <- s.state
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, ch)
			close(ch)
			s.mu.Unlock()
		})
	}
}

// abortLocked делает текущее поколение устаревшим и отменяет его контекст.
func (s *Session) abortLocked() {
	s.gen++
	s.releaseLocked()
}

func (s *Session) releaseLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *Session) broadcastLocked() {
	for ch := range s.subs {
		select {
		case ch <- s.state:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- s.state:
			default:
			}
		}
	}
}
