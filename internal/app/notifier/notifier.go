// Package notifier собирает alarm-notifier: читает события будильников из
// RabbitMQ и рассылает письма.
package notifier

import (
	"context"
	"log/slog"
	"strings"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/autopay-alert/internal/config"
	"github.com/magabrotheeeer/autopay-alert/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/autopay-alert/internal/lib/sl"
	"github.com/magabrotheeeer/autopay-alert/internal/lib/smtp"
	notifierservice "github.com/magabrotheeeer/autopay-alert/internal/services/notifier"
)

type App struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	notifier *notifierservice.Service
	logger   *slog.Logger
}

func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.AlarmQueues())
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	transport := smtp.NewTransport(cfg.SMTP, logger)
	service := notifierservice.New(logger, transport, strings.Split(cfg.SMTPTo, ","))

	return &App{
		conn:     conn,
		ch:       ch,
		notifier: service,
		logger:   logger,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	err := rabbitmq.ConsumerMessage(ctx, a.logger, a.ch, rabbitmq.AlarmQueue, a.notifier.HandleAlarm)
	if err != nil {
		a.logger.Error("failed to start alarm consumer", slog.String("queue", rabbitmq.AlarmQueue), sl.Err(err))
		return err
	}

	<-ctx.Done()
	a.logger.Info("alarm-notifier shutting down gracefully")

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
	return nil
}
