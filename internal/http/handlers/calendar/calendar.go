// Package calendar реализует HTTP-обработчик месячного календаря задач и списаний.
package calendar

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/autopay-alert/internal/http/middlewarectx"
	"github.com/magabrotheeeer/autopay-alert/internal/http/response"
	"github.com/magabrotheeeer/autopay-alert/internal/services/calendar"
)

type Handler struct {
	log     *slog.Logger
	service Service
}

type Service interface {
	Month(ctx context.Context, uid, month string) (*calendar.Month, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP отдаёт календарь месяца из параметра month (YYYY-MM).
// Без параметра берётся текущий месяц в часовом поясе профиля.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.calendar"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	uid, ok := middlewarectx.RequireUser(w, r, log)
	if !ok {
		return
	}

	month, err := h.service.Month(r.Context(), uid, r.URL.Query().Get("month"))
	if err != nil {
		response.FromError(w, r, log, "failed to build calendar", err)
		return
	}

	response.JSON(w, r, http.StatusOK, month)
}
