// Package renew реализует HTTP-обработчик продления подписки: запись платежа
// в историю и перенос даты следующего списания на один цикл.
package renew

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

// Handler обрабатывает продление подписки.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает бизнес-логику продления.
type Service interface {
	Renew(ctx context.Context, uid, id string) (*models.Subscription, *models.PaymentHistory, error)
}

// Response — продлённая подписка и созданная запись истории.
type Response struct {
	Subscription *models.Subscription   `json:"subscription"`
	Payment      *models.PaymentHistory `json:"payment"`
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.renew"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	uid, ok := middlewarectx.RequireUser(w, r, log)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	sub, payment, err := h.service.Renew(r.Context(), uid, id)
	if err != nil {
		response.FromError(w, r, log, "failed to renew subscription", err)
		return
	}

	log.Info("subscription renewed",
		slog.String("id", id),
		slog.String("next_billing_date", sub.NextBillingDate))
	response.JSON(w, r, http.StatusOK, Response{Subscription: sub, Payment: payment})
}
