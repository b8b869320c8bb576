// Package list реализует HTTP-обработчик чтения активных будильников
// и текущего временного уведомления.
package list

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/autopay-alert/internal/alarm"
	"github.com/magabrotheeeer/autopay-alert/internal/http/middlewarectx"
	"github.com/magabrotheeeer/autopay-alert/internal/http/response"
	"github.com/magabrotheeeer/autopay-alert/internal/models"
)

type Handler struct {
	log     *slog.Logger
	service Service
}

// Service — состояние детектора будильников.
type Service interface {
	ActiveAlarms(uid string) []models.Subscription
	Notification(uid string) *alarm.Notice
}

// Response — активные будильники в порядке появления и уведомление, если оно не истекло.
type Response struct {
	Alarms []models.Subscription `json:"alarms"`
	Notice *alarm.Notice         `json:"notice"`
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.alarm.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	uid, ok := middlewarectx.RequireUser(w, r, log)
	if !ok {
		return
	}

	response.JSON(w, r, http.StatusOK, Response{
		Alarms: h.service.ActiveAlarms(uid),
		Notice: h.service.Notification(uid),
	})
}
