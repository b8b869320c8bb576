// Package dismiss реализует HTTP-обработчик снятия всех активных будильников.
package dismiss

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/autopay-alert/internal/http/middlewarectx"
	"github.com/magabrotheeeer/autopay-alert/internal/http/response"
)

type Handler struct {
	log     *slog.Logger
	service Service
}

type Service interface {
	DismissAll(uid string) int
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.alarm.dismiss"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	uid, ok := middlewarectx.RequireUser(w, r, log)
	if !ok {
		return
	}

	n := h.service.DismissAll(uid)
	log.Info("alarms dismissed", slog.Int("count", n))
	response.JSON(w, r, http.StatusOK, map[string]any{"dismissed": n})
}
