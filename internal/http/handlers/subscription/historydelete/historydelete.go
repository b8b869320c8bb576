// Package historydelete реализует HTTP-обработчик удаления записи истории.
// Удаление откатывает дату следующего списания на один цикл назад.
package historydelete

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

// Service описывает отмену продления.
type Service interface {
	DeletePayment(ctx context.Context, uid, id, paymentID string) (*models.Subscription, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.historydelete"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	uid, ok := middlewarectx.RequireUser(w, r, log)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	paymentID := chi.URLParam(r, "historyID")

	sub, err := h.service.DeletePayment(r.Context(), uid, id, paymentID)
	if err != nil {
		response.FromError(w, r, log, "failed to delete payment", err)
		return
	}

	log.Info("payment deleted",
		slog.String("id", id),
		slog.String("payment_id", paymentID),
		slog.String("next_billing_date", sub.NextBillingDate))
	response.JSON(w, r, http.StatusOK, sub)
}
