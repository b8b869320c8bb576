// Package list реализует HTTP-обработчик для получения всех подписок идентичности.
package list

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/autopay-alert/internal/http/middlewarectx"
	"github.com/magabrotheeeer/autopay-alert/internal/http/response"
	"github.com/magabrotheeeer/autopay-alert/internal/models"
)

// Handler возвращает подписки, отсортированные по дате списания.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает бизнес-логику получения списка подписок.
type Service interface {
	List(ctx context.Context, uid string) ([]*models.Subscription, error)
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	uid, ok := middlewarectx.RequireUser(w, r, log)
	if !ok {
		return
	}

	subs, err := h.service.List(r.Context(), uid)
	if err != nil {
		response.FromError(w, r, log, "failed to list subscriptions", err)
		return
	}

	log.Debug("subscriptions listed", slog.Int("count", len(subs)))
	response.JSON(w, r, http.StatusOK, subs)
}
