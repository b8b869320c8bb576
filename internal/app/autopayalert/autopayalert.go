// Package autopayalert собирает HTTP API: хранилище, кэш, брокер, детектор
// будильников, сессии ассистента и маршруты.
package autopayalert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/autopay-alert/internal/ai"
	"github.com/magabrotheeeer/autopay-alert/internal/alarm"
	"github.com/magabrotheeeer/autopay-alert/internal/cache"
	"github.com/magabrotheeeer/autopay-alert/internal/config"
	"github.com/magabrotheeeer/autopay-alert/internal/lib/jwt"
	"github.com/magabrotheeeer/autopay-alert/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/autopay-alert/internal/lib/ratelimit"
	"github.com/magabrotheeeer/autopay-alert/internal/lib/sl"
	"github.com/magabrotheeeer/autopay-alert/internal/metrics"
	"github.com/magabrotheeeer/autopay-alert/internal/migrations"
	"github.com/magabrotheeeer/autopay-alert/internal/services/assistant"
	"github.com/magabrotheeeer/autopay-alert/internal/services/auth"
	"github.com/magabrotheeeer/autopay-alert/internal/services/calendar"
	"github.com/magabrotheeeer/autopay-alert/internal/services/events"
	"github.com/magabrotheeeer/autopay-alert/internal/services/profile"
	"github.com/magabrotheeeer/autopay-alert/internal/services/subscription"
	"github.com/magabrotheeeer/autopay-alert/internal/services/task"
	"github.com/magabrotheeeer/autopay-alert/internal/storage"
)

// aiCacheEntries — ёмкость кэша ответов ассистента.
const aiCacheEntries = 1000

type App struct {
	server   *http.Server
	logger   *slog.Logger
	db       *storage.Storage
	cache    *cache.Cache
	conn     *amqp.Connection
	ch       *amqp.Channel
	detector *alarm.Detector
	sessions *ai.Registry
	aiCache  *ai.CachedGenerator
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "autopayalert.New"

	db, err := storage.New(ctx, cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		_ = db.Close()
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	app := &App{logger: logger, db: db}

	// Без Redis сервис работает, чтения идут напрямую в базу.
	var readCache subscription.Cache
	if c, err := cache.InitServer(ctx, cfg.RedisConnection, m); err != nil {
		logger.Warn("redis is unavailable, running without cache", sl.Err(err))
	} else {
		app.cache = c
		readCache = c
	}

	// Без брокера будильники работают, но письма не отправляются.
	var publisher alarm.Publisher
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		logger.Warn("rabbitmq is unavailable, alarm events will not be published", sl.Err(err))
	} else {
		ch, err := rabbitmq.SetupChannel(conn, rabbitmq.AlarmQueues())
		if err != nil {
			_ = conn.Close()
			app.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		app.conn, app.ch = conn, ch
		publisher = rabbitmq.NewPublisher(ch, rabbitmq.AlarmRoutingKey)
	}

	hub := events.NewHub()

	detector := alarm.New(logger, db, publisher, m, alarm.Options{
		Interval:    cfg.Alarm.Interval,
		Window:      alarm.Window{Hours: cfg.TriggerHours, Width: cfg.TriggerWidth},
		NoticeTTL:   cfg.NoticeTTL,
		HorizonDays: cfg.HorizonDays,
	})
	detector.OnChange(func(uid string) {
		hub.Publish(uid, events.Change{Kind: events.KindAlarms, Action: "changed"})
	})
	app.detector = detector

	client, err := ai.NewClient(cfg.AI, logger)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	aiCache, err := ai.NewCachedGenerator(ai.WithTimeout(client, cfg.AI.Timeout), aiCacheEntries, cfg.AICacheTTL, m)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	app.aiCache = aiCache
	app.sessions = ai.NewRegistry(logger, client, m)

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	authService := auth.New(logger, db, jwtMaker)
	profileService := profile.New(logger, db, readCache, hub)
	subscriptionService := subscription.New(logger, db, readCache, detector, hub, profileService)
	taskService := task.New(logger, db, hub)
	calendarService := calendar.New(taskService, subscriptionService, profileService)
	assistantService := assistant.New(logger, aiCache, profileService, subscriptionService, taskService,
		ratelimit.PerMinute(cfg.AIRateLimitPerMin, cfg.AIRateLimitBurst), m)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, Services{
		Auth:          authService,
		Subscriptions: subscriptionService,
		Tasks:         taskService,
		Profiles:      profileService,
		Calendar:      calendarService,
		Assistant:     assistantService,
		Alarms:        detector,
		Sessions:      app.sessions,
		Hub:           hub,
		Health:        db,
		Limiter:       ratelimit.New(cfg.RateLimitPerSecond, cfg.RateLimitBurst, 0),
		Metrics:       m,
		Gatherer:      reg,

		AllowedOrigins: cfg.AllowedOrigins,
	})

	app.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP + cfg.AI.Timeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return app, nil
}

// Run запускает детектор будильников и HTTP-сервер и останавливает их при отмене ctx.
func (a *App) Run(ctx context.Context) error {
	detectorCtx, stopDetector := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		a.detector.Run(detectorCtx)
	}()

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	var err error
	select {
	case err = <-errCh:
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err = a.server.Shutdown(timeoutCtx)
	}

	stopDetector()
	wg.Wait()
	a.sessions.Shutdown()
	a.close()
	return err
}

func (a *App) close() {
	if a.aiCache != nil {
		a.aiCache.Close()
	}
	if a.ch != nil {
		if err := a.ch.Close(); err != nil && !isClosed(err) {
			a.logger.Error("failed to close channel", sl.Err(err))
		}
	}
	if a.conn != nil {
		if err := a.conn.Close(); err != nil && !isClosed(err) {
			a.logger.Error("failed to close connection", sl.Err(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Error("failed to close redis", sl.Err(err))
		}
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close database", sl.Err(err))
	}
}

func isClosed(err error) bool {
	return errors.Is(err, amqp.ErrClosed)
}
