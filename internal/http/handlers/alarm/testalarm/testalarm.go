// Package testalarm реализует HTTP-обработчик пробного будильника: активные
// будильники заменяются синтетической подпиской, событие уходит в брокер
// с признаком test.
package testalarm

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
	log      *slog.Logger
	alarms   Alarms
	profiles Profiles
}

type Alarms interface {
	TestAlarm(ctx context.Context, uid string, profile models.UserProfile) models.Subscription
}

type Profiles interface {
	Get(ctx context.Context, uid string) (models.UserProfile, error)
}

func New(log *slog.Logger, alarms Alarms, profiles Profiles) *Handler {
	return &Handler{
		log:      log,
		alarms:   alarms,
		profiles: profiles,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.alarm.test"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	uid, ok := middlewarectx.RequireUser(w, r, log)
	if !ok {
		return
	}

	p, err := h.profiles.Get(r.Context(), uid)
	if err != nil {
		response.FromError(w, r, log, "failed to read profile", err)
		return
	}

	sub := h.alarms.TestAlarm(r.Context(), uid, p)
	log.Info("test alarm raised")
	response.JSON(w, r, http.StatusOK, sub)
}
