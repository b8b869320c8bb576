// Package handlertest собирает запросы для тестов HTTP-обработчиков:
// тело, uid идентичности в контексте и параметры маршрута chi.
package handlertest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/go-chi/chi"

	"github.com/magabrotheeeer/autopay-alert/internal/http/middlewarectx"
)

// Request создаёт запрос. Пустой uid означает запрос без идентичности,
// params — пары имя, значение параметров URL.
func Request(method, target, body, uid string, params ...string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}

	ctx := req.Context()
	if uid != "" {
		ctx = middlewarectx.WithUserUID(ctx, uid)
	}
	if len(params) > 0 {
		rctx := chi.NewRouteContext()
		for i := 0; i+1 < len(params); i += 2 {
			rctx.URLParams.Add(params[i], params[i+1])
		}
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}
	return req.WithContext(ctx)
}
