// Package anonymous реализует HTTP-обработчик создания анонимной идентичности.
//
// Клиент получает uid, JWT и секрет. Секрет показывается один раз и нужен,
// чтобы позже перевыпустить токен.
package anonymous

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/autopay-alert/internal/http/response"
	"github.com/magabrotheeeer/autopay-alert/internal/services/auth"
)

// Handler обрабатывает создание идентичности.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает выдачу анонимной идентичности.
type Service interface {
	Anonymous(ctx context.Context) (*auth.Credentials, error)
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Анонимная идентичность
// @Description Создаёт идентичность и возвращает uid, JWT и секрет для перевыпуска токена.
// @Tags Auth
// @Produce  json
// @Success 201 {object} response.Response "Идентичность создана"
// @Failure 503 {object} response.Response "Хранилище недоступно"
// @Router /auth/anonymous [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.anonymous"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	creds, err := h.service.Anonymous(r.Context())
	if err != nil {
		response.FromError(w, r, log, "failed to create identity", err)
		return
	}

	log.Info("identity issued", slog.String("user_uid", creds.UID))
	response.JSON(w, r, http.StatusCreated, creds)
}
