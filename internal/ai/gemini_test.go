package ai

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/autopay-alert/internal/config"
	"github.com/magabrotheeeer/autopay-alert/internal/lib/sl"
)

func textRecord(parts ...string) string {
	quoted := make([]string, len(parts))
	for i, p := range parts {
		quoted[i] = fmt.Sprintf(`{"text":%q}`, p)
	}
	return `{"candidates":[{"content":{"parts":[` + strings.Join(quoted, ",") + `],"role":"model"}}]}`
}

func newTestGemini(t *testing.T, handler http.HandlerFunc) *GeminiClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewGeminiClient(config.AI{
		APIKey:          "test-key",
		BaseURL:         srv.URL,
		Model:           "gemini-test",
		MaxOutputTokens: 256,
	}, sl.Discard())
}

func TestReadStream_TableTests(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantChunks []string
		wantStatus int
		wantErr    bool
	}{
		{
			name:       "sse records",
			body:       "data: " + textRecord("Hello ") + "\n\ndata: " + textRecord("world") + "\n\n",
			wantChunks: []string{"Hello ", "world"},
		},
		{
			name:       "json array framing",
			body:       "[" + textRecord("a") + "\n," + textRecord("b") + "\n]",
			wantChunks: []string{"a", "b"},
		},
		{
			name:       "noise is skipped",
			body:       "data: {broken\n" + "data: " + textRecord("ok") + "\n" + ": keep-alive\n",
			wantChunks: []string{"ok"},
		},
		{
			name:       "multiple parts joined",
			body:       "data: " + textRecord("x", "y") + "\n",
			wantChunks: []string{"xy"},
		},
		{
			name:       "record without text",
			body:       `data: {"candidates":[{"finishReason":"STOP"}]}` + "\n" + "data: [DONE]\n",
			wantChunks: nil,
		},
		{
			name:       "last line without newline",
			body:       "data: " + textRecord("tail"),
			wantChunks: []string{"tail"},
		},
		{
			name:       "error record surfaces",
			body:       "data: " + textRecord("partial") + "\n" + `data: {"error":{"code":429,"message":"quota exceeded"}}` + "\n" + "data: " + textRecord("never") + "\n",
			wantChunks: []string{"partial"},
			wantStatus: 429,
			wantErr:    true,
		},
		{
			name:       "multibyte text",
			body:       "data: " + textRecord("Привет, 世界") + "\n",
			wantChunks: []string{"Привет, 世界"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			err := ReadStream(context.Background(), strings.NewReader(tt.body), sl.Discard(), func(s string) {
				got = append(got, s)
			})

			assert.Equal(t, tt.wantChunks, got)
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrTransport)
			var terr *TransportError
			require.ErrorAs(t, err, &terr)
			assert.Equal(t, tt.wantStatus, terr.Status)
		})
	}
}

func TestReadStream_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := ReadStream(ctx, strings.NewReader("data: "+textRecord("x")+"\n"), sl.Discard(), func(string) { called = true })
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestGeminiClient_Stream(t *testing.T) {
	c := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gemini-test:streamGenerateContent", r.URL.Path)
		assert.Equal(t, "sse", r.URL.Query().Get("alt"))
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		body, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(body), `"text":"say hi"`)
		assert.Contains(t, string(body), `"maxOutputTokens":256`)

		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, part := range []string{"Hello ", "world", "!"} {
			fmt.Fprintf(w, "data: %s\n\n", textRecord(part))
			flusher.Flush()
		}
	})

	var got []string
	err := c.Stream(context.Background(), "say hi", func(s string) { got = append(got, s) })
	require.NoError(t, err)
	assert.Equal(t, []string{"Hello ", "world", "!"}, got)
}

func TestGeminiClient_StreamHTTPError(t *testing.T) {
	c := newTestGemini(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"code":400,"message":"API key not valid"}}`)
	})

	err := c.Stream(context.Background(), "p", func(string) {})
	require.Error(t, err)
	var terr *TransportError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, 400, terr.Status)
	assert.Equal(t, "API Error: 400 - API key not valid", terr.Error())
}

func TestGeminiClient_StreamHTTPErrorWithoutBody(t *testing.T) {
	c := newTestGemini(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	err := c.Stream(context.Background(), "p", func(string) {})
	var terr *TransportError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, "API Error: 503 - Service Unavailable", terr.Error())
}

func TestGeminiClient_StreamCancelled(t *testing.T) {
	release := make(chan struct{})
	c := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "data: %s\n\n", textRecord("first"))
		w.(http.Flusher).Flush()
		select {
		case <-r.Context().Done():
		case <-release:
		}
	})
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	got := make(chan string, 4)
	errCh := make(chan error, 1)
	go func() {
		errCh <- c.Stream(ctx, "p", func(s string) { got <- s })
	}()

	assert.Equal(t, "first", <-got)
	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not stop after cancel")
	}
}

func TestGeminiClient_Generate(t *testing.T) {
	c := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gemini-test:generateContent", r.URL.Path)
		_, _ = io.WriteString(w, textRecord("Keep it. ", "Cheaper plans exist."))
	})

	text, err := c.Generate(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "Keep it. Cheaper plans exist.", text)
}

func TestGeminiClient_GenerateEmpty(t *testing.T) {
	c := newTestGemini(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"candidates":[]}`)
	})

	_, err := c.Generate(context.Background(), "p")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestGeminiClient_NotConfigured(t *testing.T) {
	c := NewGeminiClient(config.AI{BaseURL: "http://127.0.0.1:1", Model: "m"}, sl.Discard())

	_, err := c.Generate(context.Background(), "p")
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.ErrorIs(t, c.Stream(context.Background(), "p", func(string) {}), ErrNotConfigured)
}

func TestSession_WithGeminiStream(t *testing.T) {
	c := newTestGemini(t, func(w http.ResponseWriter, _ *http.Request) {
		for _, part := range []string{"Hello ", "world", "!"} {
			fmt.Fprintf(w, "data: %s\n\n", textRecord(part))
		}
	})

	s := NewSession(sl.Discard(), c, nil)
	s.Start(context.Background(), "p")
	waitDone(t, s)

	st := s.Snapshot()
	assert.Equal(t, StatusComplete, st.Status)
	assert.Equal(t, "Hello world!", st.Text)
	assert.Equal(t, 3, st.ChunkCount)
}

func TestNewClient_Provider(t *testing.T) {
	c, err := NewClient(config.AI{Provider: "gemini"}, sl.Discard())
	require.NoError(t, err)
	assert.IsType(t, &GeminiClient{}, c)

	c, err = NewClient(config.AI{Provider: "anthropic", Model: "claude-test"}, sl.Discard())
	require.NoError(t, err)
	assert.IsType(t, &AnthropicClient{}, c)

	_, err = NewClient(config.AI{Provider: "other"}, sl.Discard())
	assert.Error(t, err)
}

func TestAnthropicClient_NotConfigured(t *testing.T) {
	c := NewAnthropicClient(config.AI{Model: "claude-test"}, sl.Discard())

	_, err := c.Generate(context.Background(), "p")
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.ErrorIs(t, c.Stream(context.Background(), "p", func(string) {}), ErrNotConfigured)
}
