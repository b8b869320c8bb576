// Package stream отдаёт снимки сессии ассистента через WebSocket.
//
// После подключения клиент сразу получает текущее состояние, затем каждое
// изменение. Сообщения клиента {"type":"cancel"} и {"type":"reset"} отменяют
// или сбрасывают сессию.
package stream

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/gorilla/websocket"

	"github.com/magabrotheeeer/autopay-alert/internal/ai"
	"github.com/magabrotheeeer/autopay-alert/internal/http/middlewarectx"
	"github.com/magabrotheeeer/autopay-alert/internal/http/response"
	"github.com/magabrotheeeer/autopay-alert/internal/lib/sl"
)

const (
	writeWait    = 10 * time.Second
	pingInterval = 30 * time.Second
)

// Registry открывает сессию слота.
type Registry interface {
	Session(uid, slot string) (*ai.Session, error)
}

// ClientMessage — команда клиента.
type ClientMessage struct {
	Type string `json:"type"`
}

type Handler struct {
	log      *slog.Logger
	registry Registry
	upgrader websocket.Upgrader
}

// New создаёт Handler. allowOrigin проверяет заголовок Origin; при nil
// принимаются только запросы с того же хоста.
func New(log *slog.Logger, registry Registry, allowOrigin func(r *http.Request) bool) *Handler {
	return &Handler{
		log:      log,
		registry: registry,
		upgrader: websocket.Upgrader{CheckOrigin: allowOrigin},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.ai.stream"

	slot := chi.URLParam(r, "slot")
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("slot", slot),
	)

	uid, ok := middlewarectx.RequireUser(w, r, log)
	if !ok {
		return
	}
	sess, err := h.registry.Session(uid, slot)
	if err != nil {
		response.FromError(w, r, log, "failed to open session", err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("websocket upgrade failed", sl.Err(err))
		return
	}
	defer conn.Close()

	states, unsubscribe := sess.Subscribe()
	defer unsubscribe()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Warn("websocket read failed", sl.Err(err))
				}
				return
			}
			var m ClientMessage
			if err := json.Unmarshal(msg, &m); err != nil {
				log.Debug("ignoring malformed client message", sl.Err(err))
				continue
			}
			switch m.Type {
			case "cancel":
				sess.Cancel()
			case "reset":
				sess.Reset()
			}
		}
	}()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case st, ok := <-states:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(st); err != nil {
				log.Debug("websocket write failed", sl.Err(err))
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
