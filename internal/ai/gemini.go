package ai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/magabrotheeeer/autopay-alert/internal/config"
)

const maxErrorBody = 1 << 20

// GeminiClient обращается к REST API Gemini.
type GeminiClient struct {
	httpClient *http.Client
	baseURL    string
	model      string
	apiKey     string
	maxTokens  int
	log        *slog.Logger
}

// NewGeminiClient создаёт клиента по секции ai конфига. Таймаут cfg.Timeout
// ограничивает только неблокирующий режим, поток живёт, пока его не отменят.
func NewGeminiClient(cfg config.AI, log *slog.Logger) *GeminiClient {
	return &GeminiClient{
		httpClient: &http.Client{},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		model:      cfg.Model,
		apiKey:     cfg.APIKey,
		maxTokens:  cfg.MaxOutputTokens,
		log:        log.With(slog.String("component", "gemini")),
	}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	MaxOutputTokens int `json:"maxOutputTokens,omitempty"`
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

// Generate запрашивает ответ целиком.
func (c *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	const op = "ai.GeminiClient.Generate"
	resp, err := c.post(ctx, ":generateContent", prompt)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, &TransportError{Message: err.Error()})
	}
	if !gjson.ValidBytes(body) {
		return "", fmt.Errorf("%s: %w", op, ErrParseNoise)
	}
	if terr := recordError(body); terr != nil {
		return "", fmt.Errorf("%s: %w", op, terr)
	}
	text := candidateText(body)
	if text == "" {
		return "", fmt.Errorf("%s: %w", op, ErrEmptyResponse)
	}
	return text, nil
}

// Stream запрашивает ответ в формате SSE и передаёт текст каждой записи в onChunk.
// Записи читаются построчно, поэтому в onChunk попадают только целые JSON-объекты.
func (c *GeminiClient) Stream(ctx context.Context, prompt string, onChunk func(string)) error {
	const op = "ai.GeminiClient.Stream"
	resp, err := c.post(ctx, ":streamGenerateContent?alt=sse", prompt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if err := ReadStream(ctx, resp.Body, c.log, onChunk); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (c *GeminiClient) post(ctx context.Context, method, prompt string) (*http.Response, error) {
	if c.apiKey == "" {
		return nil, ErrNotConfigured
	}
	payload, err := json.Marshal(geminiRequest{
		Contents:         []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: geminiGenerationConfig{MaxOutputTokens: c.maxTokens},
	})
	if err != nil {
		return nil, err
	}

	url := c.baseURL + "/models/" + c.model + method
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &TransportError{Message: err.Error()}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, statusError(resp.StatusCode, body)
	}
	return resp, nil
}

// ReadStream разбирает построчный поток записей Gemini. Неразборчивые строки
// пропускаются, запись с объектом error завершает поток ошибкой TransportError.
func ReadStream(ctx context.Context, r io.Reader, log *slog.Logger, onChunk func(string)) error {
	br := bufio.NewReader(r)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, readErr := br.ReadBytes('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return &TransportError{Message: "stream interrupted: " + readErr.Error()}
		}

		if record := unframe(line); len(record) > 0 {
			if !gjson.ValidBytes(record) {
				log.Debug("skipping stream record", slog.String("error", ErrParseNoise.Error()), slog.Int("len", len(record)))
			} else if terr := recordError(record); terr != nil {
				return terr
			} else if text := candidateText(record); text != "" {
				onChunk(text)
			}
		}

		if errors.Is(readErr, io.EOF) {
			return nil
		}
	}
}

// unframe снимает SSE-префикс и обрамление JSON-массива с одной строки.
func unframe(line []byte) []byte {
	rec := bytes.TrimSpace(line)
	if after, ok := bytes.CutPrefix(rec, []byte("data:")); ok {
		rec = bytes.TrimSpace(after)
	}
	if bytes.Equal(rec, []byte("[DONE]")) {
		return nil
	}
	rec = bytes.TrimLeft(rec, "[,")
	rec = bytes.TrimRight(rec, "],")
	return bytes.TrimSpace(rec)
}

func candidateText(record []byte) string {
	var b strings.Builder
	gjson.GetBytes(record, "candidates.0.content.parts").ForEach(func(_, part gjson.Result) bool {
		b.WriteString(part.Get("text").String())
		return true
	})
	return b.String()
}

func recordError(record []byte) *TransportError {
	e := gjson.GetBytes(record, "error")
	if !e.Exists() {
		return nil
	}
	msg := e.Get("message").String()
	if msg == "" {
		msg = "Unknown error"
	}
	return &TransportError{Status: int(e.Get("code").Int()), Message: msg}
}

func statusError(status int, body []byte) *TransportError {
	msg := gjson.GetBytes(body, "error.message").String()
	if msg == "" {
		msg = http.StatusText(status)
	}
	if msg == "" {
		msg = "Unknown error"
	}
	return &TransportError{Status: status, Message: msg}
}

// WithTimeout оборачивает Generator ограничением времени на запрос.
func WithTimeout(g Generator, timeout time.Duration) Generator {
	if timeout <= 0 {
		return g
	}
	return generatorFunc(func(ctx context.Context, prompt string) (string, error) {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return g.Generate(ctx, prompt)
	})
}

type generatorFunc func(ctx context.Context, prompt string) (string, error)

func (f generatorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
