package ai

import (
	"errors"
	"fmt"
)

var (
	// ErrTransport — сбой сети или ответ сервиса с ошибкой.
	ErrTransport = errors.New("transport error")
	// ErrParseNoise — запись потока не разобрана и пропущена.
	ErrParseNoise = errors.New("unparseable stream record")
	// ErrEmptyResponse — сервис завершил ответ, не вернув текста.
	ErrEmptyResponse = errors.New("empty response")
	// ErrNotConfigured — ключ доступа к сервису генерации не задан.
	ErrNotConfigured = errors.New("text generation is not configured")
	// ErrRateLimited — превышен лимит запросов идентичности.
	ErrRateLimited = errors.New("rate limit exceeded")
	// ErrTooManySessions — у идентичности уже максимум сессий, и все они заняты.
	ErrTooManySessions = fmt.Errorf("%w: too many active sessions", ErrRateLimited)
)

// TransportError — ошибка сервиса генерации с HTTP-статусом.
// Status равен 0, если ответ не был получен.
type TransportError struct {
	Status  int
	Message string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("API Error: %d - %s", e.Status, e.Message)
}

func (e *TransportError) Unwrap() error {
	return ErrTransport
}
