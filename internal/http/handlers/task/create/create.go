// Package create реализует HTTP-обработчик создания задачи.
// Статус по умолчанию todo, дата создания выставляется сервером.
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

type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

type Service interface {
	Create(ctx context.Context, uid string, req models.DummyTask) (*models.Task, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.task.create"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	uid, ok := middlewarectx.RequireUser(w, r, log)
	if !ok {
		return
	}

	var req models.DummyTask
	if !response.Decode(w, r, log, h.validate, &req) {
		return
	}

	task, err := h.service.Create(r.Context(), uid, req)
	if err != nil {
		response.FromError(w, r, log, "failed to create task", err)
		return
	}

	log.Info("task created", slog.String("id", task.ID))
	response.JSON(w, r, http.StatusCreated, task)
}
