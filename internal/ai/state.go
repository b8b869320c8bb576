// Package ai управляет сессиями потоковой генерации текста.
//
// Состояние сессии меняется только через чистую функцию Transition; Session
// выполняет ввод-вывод и подаёт события в Transition.
package ai

import (
	"errors"
	"fmt"
	"time"
)

// Status — фаза сессии.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusThinking  Status = "thinking"
	StatusStreaming Status = "streaming"
	StatusComplete  Status = "complete"
	StatusError     Status = "error"
	StatusCancelled Status = "cancelled"
)

// Terminal сообщает, что из статуса можно выйти только через сброс.
func (s Status) Terminal() bool {
	return s == StatusComplete || s == StatusError || s == StatusCancelled
}

// Active сообщает, что запрос выполняется.
func (s Status) Active() bool {
	return s == StatusThinking || s == StatusStreaming
}

// State — снимок сессии.
type State struct {
	Text        string     `json:"text"`
	Status      Status     `json:"status"`
	Error       string     `json:"error,omitempty"`
	IsStreaming bool       `json:"is_streaming"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	ChunkCount  int        `json:"chunk_count"`
}

// EventKind — тип события автомата.
type EventKind int

const (
	EventStart EventKind = iota + 1
	EventChunk
	EventDone
	EventFail
	EventCancel
	EventReset
)

func (k EventKind) String() string {
	switch k {
	case EventStart:
		return "start"
	case EventChunk:
		return "chunk"
	case EventDone:
		return "done"
	case EventFail:
		return "fail"
	case EventCancel:
		return "cancel"
	case EventReset:
		return "reset"
	}
	return "unknown"
}

// Event — вход автомата.
type Event struct {
	Kind EventKind
	Text string
	At   time.Time
}

func StartEvent(at time.Time) Event { return Event{Kind: EventStart, At: at} }
func ChunkEvent(text string) Event  { return Event{Kind: EventChunk, Text: text} }
func DoneEvent() Event              { return Event{Kind: EventDone} }
func FailEvent(msg string) Event    { return Event{Kind: EventFail, Text: msg} }
func CancelEvent() Event            { return Event{Kind: EventCancel} }
func ResetEvent() Event             { return Event{Kind: EventReset} }

// ErrInvalidTransition — событие недопустимо в текущем статусе.
var ErrInvalidTransition = errors.New("invalid transition")

// Transition применяет событие к состоянию. При недопустимом переходе возвращает
// исходное состояние и ErrInvalidTransition. Отмена в idle или терминальном
// статусе ничего не меняет и ошибкой не считается.
func Transition(s State, e Event) (State, error) {
	switch e.Kind {
	case EventReset:
		return State{Status: StatusIdle}, nil

	case EventStart:
		if s.Status != StatusIdle {
			break
		}
		at := e.At
		return State{Status: StatusThinking, IsStreaming: true, StartedAt: &at}, nil

	case EventChunk:
		if !s.Status.Active() {
			break
		}
		s.Text += e.Text
		s.Status = StatusStreaming
		s.ChunkCount++
		return s, nil

	case EventDone:
		if s.Status != StatusStreaming {
			break
		}
		s.Status = StatusComplete
		s.IsStreaming = false
		return s, nil

	case EventFail:
		if !s.Status.Active() {
			break
		}
		s.Status = StatusError
		s.Error = e.Text
		s.IsStreaming = false
		return s, nil

	case EventCancel:
		if !s.Status.Active() {
			return s, nil
		}
		s.Status = StatusCancelled
		s.IsStreaming = false
		return s, nil
	}
	return s, fmt.Errorf("%w: %s in %s", ErrInvalidTransition, e.Kind, s.Status)
}
