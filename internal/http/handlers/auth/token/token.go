// Package token реализует HTTP-обработчик перевыпуска JWT по uid и секрету.
package token

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/autopay-alert/internal/http/response"
	"github.com/magabrotheeeer/autopay-alert/internal/lib/sl"
	"github.com/magabrotheeeer/autopay-alert/internal/services/auth"
)

// Request — входные данные перевыпуска токена.
type Request struct {
	UID    string `json:"uid" validate:"required"`
	Secret string `json:"secret" validate:"required"`
}

// Handler обрабатывает перевыпуск токена.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс выдачи токена.
type Service interface {
	Token(ctx context.Context, uid, secret string) (string, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Перевыпуск токена
// @Description Проверяет секрет идентичности и возвращает новый JWT.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request true "uid и секрет"
// @Success 200 {object} response.Response "Новый токен"
// @Failure 400 {object} response.Response "Некорректный JSON"
// @Failure 401 {object} response.Response "Неверные учетные данные"
// @Failure 422 {object} response.Response "Ошибка валидации"
// @Router /auth/token [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.token"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if !response.Decode(w, r, log, h.validate, &req) {
		return
	}

	tok, err := h.service.Token(r.Context(), req.UID, req.Secret)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		log.Warn("invalid credentials", slog.String("user_uid", req.UID), sl.Err(err))
		response.Fail(w, r, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err != nil {
		response.FromError(w, r, log, "failed to issue token", err)
		return
	}

	log.Info("token issued", slog.String("user_uid", req.UID))
	response.JSON(w, r, http.StatusOK, map[string]any{
		"uid":   req.UID,
		"token": tok,
	})
}
