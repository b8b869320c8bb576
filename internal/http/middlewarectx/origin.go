package middlewarectx

import (
	"net/http"
	"net/url"
	"strings"
)

// OriginChecker проверяет заголовок Origin запроса на открытие WebSocket.
// Запросы без Origin (не из браузера) и с того же хоста принимаются всегда,
// остальные — только из allowed. Значение "*" разрешает любой Origin.
func OriginChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	allowAll := false
	for _, o := range allowed {
		o = strings.ToLower(strings.TrimRight(strings.TrimSpace(o), "/"))
		switch o {
		case "":
		case "*":
			allowAll = true
		default:
			set[o] = struct{}{}
		}
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || allowAll {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil || u.Host == "" {
			return false
		}
		if strings.EqualFold(u.Host, r.Host) {
			return true
		}
		_, ok := set[strings.ToLower(u.Scheme+"://"+u.Host)]
		return ok
	}
}
