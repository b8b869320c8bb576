// Package events отдаёт уведомления об изменениях данных идентичности
// потоком Server-Sent Events. Клиент перечитывает изменившийся вид данных.
package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/autopay-alert/internal/http/middlewarectx"
	"github.com/magabrotheeeer/autopay-alert/internal/http/response"
	"github.com/magabrotheeeer/autopay-alert/internal/services/events"
)

const keepAlive = 25 * time.Second

// Hub выдаёт подписку на изменения идентичности.
type Hub interface {
	Subscribe(uid string) (<-chan events.Change, func())
}

type Handler struct {
	log *slog.Logger
	hub Hub
}

func New(log *slog.Logger, hub Hub) *Handler {
	return &Handler{
		log: log,
		hub: hub,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.events"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	uid, ok := middlewarectx.RequireUser(w, r, log)
	if !ok {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		log.Error("response writer does not support flushing")
		response.Fail(w, r, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	// поток живёт дольше WriteTimeout сервера
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	ch, unsubscribe := h.hub.Subscribe(uid)
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if err := writeEvent(w, "connected", map[string]string{"user_uid": uid}); err != nil {
		return
	}
	flusher.Flush()

	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case change, ok := <-ch:
			if !ok {
				return
			}
			if err := writeEvent(w, change.Kind, change); err != nil {
				return
			}
			flusher.Flush()
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, name string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, payload)
	return err
}
