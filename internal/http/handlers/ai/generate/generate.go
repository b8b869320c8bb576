// Package generate реализует HTTP-обработчик разового запроса к ассистенту.
//
// Ответ форматируется в разделы с пунктами. Если сервис генерации
// недоступен, клиент получает текст-заглушку с признаком fallback.
package generate

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/autopay-alert/internal/http/middlewarectx"
	"github.com/magabrotheeeer/autopay-alert/internal/http/response"
	"github.com/magabrotheeeer/autopay-alert/internal/services/assistant"
)

type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

type Service interface {
	Generate(ctx context.Context, uid string, req assistant.Request) (*assistant.Result, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.ai.generate"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	uid, ok := middlewarectx.RequireUser(w, r, log)
	if !ok {
		return
	}

	var req assistant.Request
	if !response.Decode(w, r, log, h.validate, &req) {
		return
	}

	res, err := h.service.Generate(r.Context(), uid, req)
	if err != nil {
		response.FromError(w, r, log, "failed to generate", err)
		return
	}

	log.Info("generation finished", slog.String("kind", req.Kind), slog.Bool("fallback", res.Fallback))
	response.JSON(w, r, http.StatusOK, res)
}
