// Package history реализует HTTP-обработчик истории платежей подписки.
// Записи отдаются от новых к старым.
package history

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/autopay-alert/internal/http/middlewarectx"
	"github.com/magabrotheeeer/autopay-alert/internal/http/response"
	"github.com/magabrotheeeer/autopay-alert/internal/models"
)

type Handler struct {
	log     *slog.Logger
	service Service
}

type Service interface {
	History(ctx context.Context, uid, id string) ([]*models.PaymentHistory, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.history"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	uid, ok := middlewarectx.RequireUser(w, r, log)
	if !ok {
		return
	}

	payments, err := h.service.History(r.Context(), uid, chi.URLParam(r, "id"))
	if err != nil {
		response.FromError(w, r, log, "failed to list payment history", err)
		return
	}

	response.JSON(w, r, http.StatusOK, payments)
}
