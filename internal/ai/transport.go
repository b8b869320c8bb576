package ai

import "context"

// Streamer отдаёт ответ на prompt фрагментами. onChunk вызывается последовательно
// в порядке поступления и только с целыми записями. Отмена ctx завершает поток
// с ошибкой контекста.
type Streamer interface {
	Stream(ctx context.Context, prompt string, onChunk func(string)) error
}

// Generator возвращает ответ целиком.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Client — сервис, поддерживающий оба режима.
type Client interface {
	Streamer
	Generator
}
