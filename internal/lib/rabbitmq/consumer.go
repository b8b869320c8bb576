package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/autopay-alert/internal/lib/sl"
)

// maxInFlight — сколько сообщений обрабатывается одновременно.
const maxInFlight = 10

// ConsumerMessage читает очередь и вызывает handler для каждого сообщения.
// Успешно обработанные сообщения подтверждаются, при ошибке возвращаются в очередь.
func ConsumerMessage(ctx context.Context, log *slog.Logger, ch *amqp.Channel, queueName string, handler func([]byte) error) error {
	const op = "rabbitmq.ConsumerMessage"
	deliveries, err := ch.Consume(queueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	go Dispatch(ctx, log, deliveries, handler)
	return nil
}

// Dispatch раздаёт доставки обработчикам с ограничением параллелизма,
// пока канал не закроется или ctx не будет отменён.
func Dispatch(ctx context.Context, log *slog.Logger, deliveries <-chan amqp.Delivery, handler func([]byte) error) {
	sem := make(chan struct{}, maxInFlight)
	for {
		select {
		case d, ok := <-deliveries:
			if !ok {
				return
			}
			sem <- struct{}{}
			go func(d amqp.Delivery) {
				defer func() { <-sem }()
				handle(log, d.Body, d.Acknowledger, d.DeliveryTag, handler)
			}(d)
		case <-ctx.Done():
			return
		}
	}
}

func handle(log *slog.Logger, body []byte, ack amqp.Acknowledger, tag uint64, handler func([]byte) error) {
	if ack == nil {
		if err := handler(body); err != nil {
			log.Error("failed to handle message", sl.Err(err))
		}
		return
	}
	if err := handler(body); err != nil {
		log.Warn("message handling failed, requeue", sl.Err(err))
		if nackErr := ack.Nack(tag, false, true); nackErr != nil {
			log.Error("failed to nack message", sl.Err(nackErr))
		}
		return
	}
	if ackErr := ack.Ack(tag, false); ackErr != nil {
		log.Error("failed to ack message", sl.Err(ackErr))
	}
}
