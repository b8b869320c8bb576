// Package update реализует HTTP-обработчик изменения задачи.
// Дата создания не меняется; пустой статус сохраняет текущий.
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

type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

type Service interface {
	Update(ctx context.Context, uid, id string, req models.DummyTask) (*models.Task, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.task.update"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	uid, ok := middlewarectx.RequireUser(w, r, log)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	var req models.DummyTask
	if !response.Decode(w, r, log, h.validate, &req) {
		return
	}

	task, err := h.service.Update(r.Context(), uid, id, req)
	if err != nil {
		response.FromError(w, r, log, "failed to update task", err)
		return
	}

	response.JSON(w, r, http.StatusOK, task)
}
