// Package list реализует HTTP-обработчик списка задач.
//
// По умолчанию задачи разделены на общие и запланированные;
// с параметром view=flat возвращается плоский список от новых к старым.
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

type Handler struct {
	log     *slog.Logger
	service Service
}

type Service interface {
	List(ctx context.Context, uid string) ([]*models.Task, error)
	Grouped(ctx context.Context, uid string) (models.GroupedTasks, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.task.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	uid, ok := middlewarectx.RequireUser(w, r, log)
	if !ok {
		return
	}

	if r.URL.Query().Get("view") == "flat" {
		tasks, err := h.service.List(r.Context(), uid)
		if err != nil {
			response.FromError(w, r, log, "failed to list tasks", err)
			return
		}
		response.JSON(w, r, http.StatusOK, tasks)
		return
	}

	grouped, err := h.service.Grouped(r.Context(), uid)
	if err != nil {
		response.FromError(w, r, log, "failed to list tasks", err)
		return
	}
	response.JSON(w, r, http.StatusOK, grouped)
}
