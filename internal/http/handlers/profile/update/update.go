// Package update реализует HTTP-обработчик сохранения профиля.
// Часовой пояс проверяется по базе IANA.
package update

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
	Update(ctx context.Context, uid string, req models.DummyProfile) (models.UserProfile, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.profile.update"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	uid, ok := middlewarectx.RequireUser(w, r, log)
	if !ok {
		return
	}

	var req models.DummyProfile
	if !response.Decode(w, r, log, h.validate, &req) {
		return
	}

	p, err := h.service.Update(r.Context(), uid, req)
	if err != nil {
		response.FromError(w, r, log, "failed to update profile", err)
		return
	}

	response.JSON(w, r, http.StatusOK, p)
}
