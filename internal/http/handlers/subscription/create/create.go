// Package create реализует HTTP-обработчик для создания новой подписки.
//
// Handler принимает JSON с данными подписки, валидирует его, берёт uid
// идентичности из контекста и передаёт данные сервису.
package create

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/autopay-alert/internal/http/middlewarectx"
	"github.com/magabrotheeeer/autopay-alert/internal/http/response"
	"github.com/magabrotheeeer/autopay-alert/internal/models"
)

// Handler обрабатывает запросы на создание подписки.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает бизнес-логику создания подписки.
type Service interface {
	Create(ctx context.Context, uid string, req models.DummySubscription) (*models.Subscription, error)
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP декодирует тело, проверяет его и создаёт подписку.
// Ответ 201 содержит созданную подписку.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.create"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	uid, ok := middlewarectx.RequireUser(w, r, log)
	if !ok {
		return
	}

	var req models.DummySubscription
	if !response.Decode(w, r, log, h.validate, &req) {
		return
	}

	sub, err := h.service.Create(r.Context(), uid, req)
	if err != nil {
		response.FromError(w, r, log, "failed to create subscription", err)
		return
	}

	log.Info("subscription created", slog.String("id", sub.ID))
	response.JSON(w, r, http.StatusCreated, sub)
}
