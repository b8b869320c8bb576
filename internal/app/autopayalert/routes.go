package autopayalert

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/autopay-alert/internal/ai"
	"github.com/magabrotheeeer/autopay-alert/internal/alarm"
	aigenerate "github.com/magabrotheeeer/autopay-alert/internal/http/handlers/ai/generate"
	aisession "github.com/magabrotheeeer/autopay-alert/internal/http/handlers/ai/session"
	aistream "github.com/magabrotheeeer/autopay-alert/internal/http/handlers/ai/stream"
	alarmdismiss "github.com/magabrotheeeer/autopay-alert/internal/http/handlers/alarm/dismiss"
	alarmlist "github.com/magabrotheeeer/autopay-alert/internal/http/handlers/alarm/list"
	"github.com/magabrotheeeer/autopay-alert/internal/http/handlers/alarm/testalarm"
	"github.com/magabrotheeeer/autopay-alert/internal/http/handlers/auth/anonymous"
	"github.com/magabrotheeeer/autopay-alert/internal/http/handlers/auth/token"
	calendarhandler "github.com/magabrotheeeer/autopay-alert/internal/http/handlers/calendar"
	eventshandler "github.com/magabrotheeeer/autopay-alert/internal/http/handlers/events"
	"github.com/magabrotheeeer/autopay-alert/internal/http/handlers/health"
	profileget "github.com/magabrotheeeer/autopay-alert/internal/http/handlers/profile/get"
	profileupdate "github.com/magabrotheeeer/autopay-alert/internal/http/handlers/profile/update"
	subcreate "github.com/magabrotheeeer/autopay-alert/internal/http/handlers/subscription/create"
	subhistory "github.com/magabrotheeeer/autopay-alert/internal/http/handlers/subscription/history"
	subhistorydelete "github.com/magabrotheeeer/autopay-alert/internal/http/handlers/subscription/historydelete"
	sublist "github.com/magabrotheeeer/autopay-alert/internal/http/handlers/subscription/list"
	suboverview "github.com/magabrotheeeer/autopay-alert/internal/http/handlers/subscription/overview"
	subread "github.com/magabrotheeeer/autopay-alert/internal/http/handlers/subscription/read"
	subremove "github.com/magabrotheeeer/autopay-alert/internal/http/handlers/subscription/remove"
	subrenew "github.com/magabrotheeeer/autopay-alert/internal/http/handlers/subscription/renew"
	subupdate "github.com/magabrotheeeer/autopay-alert/internal/http/handlers/subscription/update"
	taskcreate "github.com/magabrotheeeer/autopay-alert/internal/http/handlers/task/create"
	tasklist "github.com/magabrotheeeer/autopay-alert/internal/http/handlers/task/list"
	taskremove "github.com/magabrotheeeer/autopay-alert/internal/http/handlers/task/remove"
	tasktoggle "github.com/magabrotheeeer/autopay-alert/internal/http/handlers/task/toggle"
	taskupdate "github.com/magabrotheeeer/autopay-alert/internal/http/handlers/task/update"
	"github.com/magabrotheeeer/autopay-alert/internal/http/middlewarectx"
	"github.com/magabrotheeeer/autopay-alert/internal/lib/ratelimit"
	"github.com/magabrotheeeer/autopay-alert/internal/metrics"
	"github.com/magabrotheeeer/autopay-alert/internal/services/assistant"
	"github.com/magabrotheeeer/autopay-alert/internal/services/auth"
	"github.com/magabrotheeeer/autopay-alert/internal/services/calendar"
	"github.com/magabrotheeeer/autopay-alert/internal/services/events"
	"github.com/magabrotheeeer/autopay-alert/internal/services/profile"
	"github.com/magabrotheeeer/autopay-alert/internal/services/subscription"
	"github.com/magabrotheeeer/autopay-alert/internal/services/task"
)

// Services — зависимости, из которых собираются обработчики.
type Services struct {
	Auth          *auth.Service
	Subscriptions *subscription.Service
	Tasks         *task.Service
	Profiles      *profile.Service
	Calendar      *calendar.Service
	Assistant     *assistant.Service
	Alarms        *alarm.Detector
	Sessions      *ai.Registry
	Hub           *events.Hub
	Health        health.Checker
	Limiter       *ratelimit.Keyed
	Metrics       *metrics.Metrics
	Gatherer      prometheus.Gatherer
	// AllowedOrigins — Origin, с которых разрешено открывать WebSocket.
	AllowedOrigins []string
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, s Services) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		middlewarectx.MetricsMiddleware(s.Metrics),
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.RateLimitMiddleware(logger, s.Limiter))
			r.Post("/auth/anonymous", anonymous.New(logger, s.Auth).ServeHTTP)
			r.Post("/auth/token", token.New(logger, s.Auth).ServeHTTP)
		})

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(s.Auth, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger, s.Limiter))

			r.Post("/subscriptions", subcreate.New(logger, s.Subscriptions).ServeHTTP)
			r.Get("/subscriptions", sublist.New(logger, s.Subscriptions).ServeHTTP)
			r.Get("/subscriptions/overview", suboverview.New(logger, s.Subscriptions).ServeHTTP)
			r.Get("/subscriptions/{id}", subread.New(logger, s.Subscriptions).ServeHTTP)
			r.Put("/subscriptions/{id}", subupdate.New(logger, s.Subscriptions).ServeHTTP)
			r.Delete("/subscriptions/{id}", subremove.New(logger, s.Subscriptions).ServeHTTP)
			r.Post("/subscriptions/{id}/renew", subrenew.New(logger, s.Subscriptions).ServeHTTP)
			r.Get("/subscriptions/{id}/history", subhistory.New(logger, s.Subscriptions).ServeHTTP)
			r.Delete("/subscriptions/{id}/history/{historyID}", subhistorydelete.New(logger, s.Subscriptions).ServeHTTP)

			r.Post("/tasks", taskcreate.New(logger, s.Tasks).ServeHTTP)
			r.Get("/tasks", tasklist.New(logger, s.Tasks).ServeHTTP)
			r.Put("/tasks/{id}", taskupdate.New(logger, s.Tasks).ServeHTTP)
			r.Delete("/tasks/{id}", taskremove.New(logger, s.Tasks).ServeHTTP)
			r.Post("/tasks/{id}/toggle", tasktoggle.New(logger, s.Tasks).ServeHTTP)

			r.Get("/calendar", calendarhandler.New(logger, s.Calendar).ServeHTTP)

			r.Get("/profile", profileget.New(logger, s.Profiles).ServeHTTP)
			r.Put("/profile", profileupdate.New(logger, s.Profiles).ServeHTTP)

			r.Get("/alarms", alarmlist.New(logger, s.Alarms).ServeHTTP)
			r.Delete("/alarms", alarmdismiss.New(logger, s.Alarms).ServeHTTP)
			r.Post("/alarms/test", testalarm.New(logger, s.Alarms, s.Profiles).ServeHTTP)

			sessions := aisession.New(logger, s.Sessions, s.Assistant)
			r.Post("/ai/generate", aigenerate.New(logger, s.Assistant).ServeHTTP)
			r.Post("/ai/sessions/{slot}", sessions.Start)
			r.Get("/ai/sessions/{slot}", sessions.Get)
			r.Post("/ai/sessions/{slot}/cancel", sessions.Cancel)
			r.Delete("/ai/sessions/{slot}", sessions.Delete)
		})

		// Долгие соединения не ограничиваются по частоте
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(s.Auth, logger))
			r.Get("/ai/sessions/{slot}/ws", aistream.New(logger, s.Sessions, middlewarectx.OriginChecker(s.AllowedOrigins)).ServeHTTP)
			r.Get("/events", eventshandler.New(logger, s.Hub).ServeHTTP)
		})
	})

	r.Get("/health", health.New(logger, s.Health).ServeHTTP)
	r.Handle("/metrics", promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{}))
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
