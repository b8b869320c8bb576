// Package toggle реализует HTTP-обработчик переключения статуса задачи:
// done становится todo, остальные статусы становятся done.
package toggle

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
	Toggle(ctx context.Context, uid, id string) (*models.Task, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.task.toggle"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	uid, ok := middlewarectx.RequireUser(w, r, log)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	task, err := h.service.Toggle(r.Context(), uid, id)
	if err != nil {
		response.FromError(w, r, log, "failed to toggle task", err)
		return
	}

	log.Debug("task toggled", slog.String("id", id), slog.String("status", string(task.Status)))
	response.JSON(w, r, http.StatusOK, task)
}
