package middlewarectx

import (
	"log/slog"
	"net"
	"net/http"

	"github.com/magabrotheeeer/autopay-alert/internal/http/response"
)

// Limiter расходует токен по ключу.
type Limiter interface {
	Allow(key string) bool
}

// RateLimitMiddleware ограничивает частоту запросов. Ключом служит uid идентичности,
// а для анонимных запросов адрес клиента.
func RateLimitMiddleware(log *slog.Logger, limiter Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, ok := UserUID(r.Context())
			if !ok {
				key = clientIP(r)
			}
			if !limiter.Allow(key) {
				log.Warn("too many requests", slog.String("key", key))
				w.Header().Set("Retry-After", "1")
				response.Fail(w, r, http.StatusTooManyRequests, "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
