// Package remove реализует HTTP-обработчик удаления подписки.
// Вместе с подпиской удаляется её история платежей и снимается будильник.
package remove

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/autopay-alert/internal/http/middlewarectx"
	"github.com/magabrotheeeer/autopay-alert/internal/http/response"
)

// Handler обрабатывает запросы на удаление подписки.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает бизнес-логику удаления подписки.
type Service interface {
	Delete(ctx context.Context, uid, id string) error
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.remove"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	uid, ok := middlewarectx.RequireUser(w, r, log)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), uid, id); err != nil {
		response.FromError(w, r, log, "failed to delete subscription", err)
		return
	}

	log.Info("subscription deleted", slog.String("id", id))
	response.JSON(w, r, http.StatusOK, map[string]any{"deleted": id})
}
