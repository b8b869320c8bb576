package events

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/autopay-alert/internal/http/middlewarectx"
	"github.com/magabrotheeeer/autopay-alert/internal/lib/sl"
	"github.com/magabrotheeeer/autopay-alert/internal/services/events"
)

func TestEventsHandler_StreamsChanges(t *testing.T) {
	hub := events.NewHub()
	h := New(sl.Discard(), hub)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.ServeHTTP(w, r.WithContext(middlewarectx.WithUserUID(r.Context(), "uid-1")))
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	readEvent := func() (string, string) {
		var name, data string
		for {
			line, err := reader.ReadString('\n')
			require.NoError(t, err)
			line = strings.TrimRight(line, "\n")
			switch {
			case strings.HasPrefix(line, "event: "):
				name = strings.TrimPrefix(line, "event: ")
			case strings.HasPrefix(line, "data: "):
				data = strings.TrimPrefix(line, "data: ")
			case line == "" && name != "":
				return name, data
			}
		}
	}

	name, data := readEvent()
	assert.Equal(t, "connected", name)
	assert.Contains(t, data, "uid-1")

	require.Eventually(t, func() bool { return hub.Subscribers("uid-1") == 1 }, time.Second, 10*time.Millisecond)
	hub.Publish("uid-2", events.Change{Kind: events.KindTasks})
	hub.Publish("uid-1", events.Change{Kind: events.KindSubscriptions, ID: "sub-1", Action: "renewed"})

	name, data = readEvent()
	assert.Equal(t, events.KindSubscriptions, name)
	assert.Contains(t, data, `"action":"renewed"`)
}

func TestEventsHandler_Unauthorized(t *testing.T) {
	rr := httptest.NewRecorder()
	New(sl.Discard(), events.NewHub()).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/events", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
