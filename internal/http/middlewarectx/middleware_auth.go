// Package middlewarectx содержит HTTP middleware сервиса: проверку JWT,
// ограничение частоты запросов и сбор метрик.
//
// JWTMiddleware проверяет токен из заголовка Authorization и кладёт uid
// идентичности в контекст запроса. Для EventSource и WebSocket, которые не
// умеют передавать заголовки, токен принимается из параметра access_token.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/autopay-alert/internal/http/response"
	"github.com/magabrotheeeer/autopay-alert/internal/lib/sl"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

// UserUIDKey — ключ uid идентичности в контексте.
const UserUIDKey Key = "user_uid"

// TokenValidator проверяет JWT и возвращает uid идентичности.
type TokenValidator interface {
	ValidateToken(token string) (string, error)
}

// UserUID достаёт uid идентичности, положенный JWTMiddleware.
func UserUID(ctx context.Context) (string, bool) {
	uid, ok := ctx.Value(UserUIDKey).(string)
	return uid, ok && uid != ""
}

// WithUserUID кладёт uid в контекст.
func WithUserUID(ctx context.Context, uid string) context.Context {
	return context.WithValue(ctx, UserUIDKey, uid)
}

// JWTMiddleware возвращает middleware, который пропускает только запросы с валидным токеном.
func JWTMiddleware(validator TokenValidator, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.JWTMiddleware"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			tokenStr := bearerToken(r)
			if tokenStr == "" {
				log.Warn("missing or invalid authorization header")
				response.Fail(w, r, http.StatusUnauthorized, "missing or invalid authorization header")
				return
			}

			uid, err := validator.ValidateToken(tokenStr)
			if err != nil || uid == "" {
				log.Warn("invalid or expired token", sl.Err(err))
				response.Fail(w, r, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserUID(r.Context(), uid)))
		})
	}
}

func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	if authHeader == "" {
		return r.URL.Query().Get("access_token")
	}
	return ""
}

// RequireUser возвращает uid из контекста запроса. Если его нет, отвечает 401.
func RequireUser(w http.ResponseWriter, r *http.Request, log *slog.Logger) (string, bool) {
	uid, ok := UserUID(r.Context())
	if !ok {
		log.Error("user identification missing")
		response.Fail(w, r, http.StatusUnauthorized, "user identification missing")
	}
	return uid, ok
}
