// Package response содержит вспомогательные типы и функции для формирования
// унифицированных JSON-ответов HTTP-обработчиков: успех, ошибка и сообщения
// валидации в едином формате.
package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/autopay-alert/internal/ai"
	"github.com/magabrotheeeer/autopay-alert/internal/lib/jwt"
	"github.com/magabrotheeeer/autopay-alert/internal/lib/sl"
	"github.com/magabrotheeeer/autopay-alert/internal/models"
)

// Response описывает стандартную структуру JSON-ответа сервера.
// Status — "OK" или "Error", Error заполняется при неуспехе, Data при успехе.
type Response struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	Data   any    `json:"data,omitempty"`
}

const (
	// StatusOK — значение статуса для успешного ответа.
	StatusOK = "OK"
	// StatusError — значение статуса для ответа с ошибкой.
	StatusError = "Error"
)

// OK возвращает успешный Response с переданными данными.
func OK(data any) Response {
	return Response{Status: StatusOK, Data: data}
}

// Error возвращает Response с ошибкой и переданным сообщением.
func Error(msg string) Response {
	return Response{Status: StatusError, Error: msg}
}

// ValidationError формирует Response на основе ошибок валидации.
// Каждое нарушение превращается в человекочитаемый текст.
func ValidationError(errs validator.ValidationErrors) Response {
	var errsMsgs []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is a required field", err.Field()))
		case "oneof":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be one of [%s]", err.Field(), err.Param()))
		case "max":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is too long", err.Field()))
		case "gt":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be greater than %s", err.Field(), err.Param()))
		default:
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is not valid", err.Field()))
		}
	}
	return Error(strings.Join(errsMsgs, ", "))
}

// JSON пишет данные в конверте со статусом code.
func JSON(w http.ResponseWriter, r *http.Request, code int, data any) {
	render.Status(r, code)
	render.JSON(w, r, OK(data))
}

// Fail пишет ошибку со статусом code.
func Fail(w http.ResponseWriter, r *http.Request, code int, msg string) {
	render.Status(r, code)
	render.JSON(w, r, Error(msg))
}

// StatusFor сопоставляет доменную ошибку с HTTP-статусом и сообщением клиенту.
func StatusFor(err error) (int, string) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, models.ErrInvalidInput):
		return http.StatusBadRequest, rootMessage(err)
	case errors.Is(err, models.ErrUnavailable):
		return http.StatusServiceUnavailable, "storage is temporarily unavailable, retry later"
	case errors.Is(err, ai.ErrRateLimited):
		return http.StatusTooManyRequests, "too many requests"
	case errors.Is(err, ai.ErrNotConfigured):
		return http.StatusServiceUnavailable, "ai service is not configured"
	case errors.Is(err, jwt.ErrInvalidToken):
		return http.StatusUnauthorized, "invalid or expired token"
	}
	return http.StatusInternalServerError, "internal error"
}

// FromError логирует ошибку и пишет ответ по StatusFor.
func FromError(w http.ResponseWriter, r *http.Request, log *slog.Logger, msg string, err error) {
	code, text := StatusFor(err)
	if code >= http.StatusInternalServerError {
		log.Error(msg, sl.Err(err))
	} else {
		log.Warn(msg, sl.Err(err))
	}
	Fail(w, r, code, text)
}

// Decode читает JSON-тело в v и проверяет его валидатором. При ошибке пишет
// ответ 400 или 422 и возвращает false.
func Decode(w http.ResponseWriter, r *http.Request, log *slog.Logger, validate *validator.Validate, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		Fail(w, r, http.StatusBadRequest, "invalid request body")
		return false
	}
	if validate == nil {
		return true
	}
	if err := validate.Struct(v); err != nil {
		log.Error("validation failed", sl.Err(err))
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			render.Status(r, http.StatusUnprocessableEntity)
			render.JSON(w, r, ValidationError(verrs))
			return false
		}
		Fail(w, r, http.StatusUnprocessableEntity, "invalid request body")
		return false
	}
	return true
}

// rootMessage убирает из текста ошибки префиксы операций "pkg.Func: ".
func rootMessage(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, models.ErrInvalidInput.Error()); i >= 0 {
		return msg[i:]
	}
	return msg
}
