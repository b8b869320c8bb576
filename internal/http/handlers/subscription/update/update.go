// Package update реализует HTTP-обработчик для изменения подписки.
//
// Поле description в запросе необязательно: пустое значение сохраняет
// ранее полученный AI-анализ.
package update

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/autopay-alert/internal/http/middlewarectx"
	"github.com/magabrotheeeer/autopay-alert/internal/http/response"
	"github.com/magabrotheeeer/autopay-alert/internal/models"
)

// Handler обрабатывает запросы на обновление подписки.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает бизнес-логику обновления подписки.
type Service interface {
	Update(ctx context.Context, uid, id string, req models.DummySubscription) (*models.Subscription, error)
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.update"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	uid, ok := middlewarectx.RequireUser(w, r, log)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	var req models.DummySubscription
	if !response.Decode(w, r, log, h.validate, &req) {
		return
	}

	sub, err := h.service.Update(r.Context(), uid, id, req)
	if err != nil {
		response.FromError(w, r, log, "failed to update subscription", err)
		return
	}

	log.Info("subscription updated", slog.String("id", id))
	response.JSON(w, r, http.StatusOK, sub)
}
