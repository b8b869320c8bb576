// Package notifier отправляет письма о поднятых будильниках.
package notifier

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/autopay-alert/internal/alarm"
	"github.com/magabrotheeeer/autopay-alert/internal/lib/sl"
	"github.com/magabrotheeeer/autopay-alert/internal/lib/smtp"
)

// Service превращает события будильников в письма.
type Service struct {
	transport smtp.TransportInterface
	to        []string
	log       *slog.Logger
}

// New создаёт Service. Пустой список получателей отключает отправку.
func New(log *slog.Logger, transport smtp.TransportInterface, to []string) *Service {
	recipients := make([]string, 0, len(to))
	for _, addr := range to {
		if addr = strings.TrimSpace(addr); addr != "" {
			recipients = append(recipients, addr)
		}
	}
	return &Service{transport: transport, to: recipients, log: log}
}

// HandleAlarm обрабатывает одно сообщение из очереди. Нечитаемые сообщения
// отбрасываются, ошибки SMTP возвращаются для повторной доставки.
func (s *Service) HandleAlarm(body []byte) error {
	const op = "notifier.HandleAlarm"

	var ev alarm.Event
	if err := json.Unmarshal(body, &ev); err != nil {
		s.log.Error("dropping malformed alarm message", slog.String("op", op), sl.Err(err))
		return nil
	}
	if len(s.to) == 0 {
		s.log.Debug("no recipients configured, alarm not mailed", slog.String("subscription_id", ev.SubscriptionID))
		return nil
	}

	subject, text := Compose(ev)
	if err := s.sendEmail(s.to, subject, text); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Compose формирует тему и текст письма.
func Compose(ev alarm.Event) (string, string) {
	subject := fmt.Sprintf("Payment alarm: %s due in %s", ev.Name, dueIn(ev.DaysUntilDue))
	if ev.Test {
		subject = "[TEST] " + subject
	}
	text := fmt.Sprintf("Subscription %s (%s%s) is due on %s.\n\nRenew it or dismiss the alarm in the app.",
		ev.Name, ev.Currency, ev.Cost.StringFixed(2), ev.NextBillingDate)
	return subject, text
}

func dueIn(days int) string {
	switch days {
	case 0:
		return "today"
	case 1:
		return "1 day"
	}
	return fmt.Sprintf("%d days", days)
}

func (s *Service) sendEmail(to []string, subject, bodyText string) error {
	from := s.transport.GetSMTPUser()
	msg := strings.Join([]string{
		"From: " + from,
		"To: " + strings.Join(to, ", "),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		s.log.Error("failed to connect to SMTP server", sl.Err(err))
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Mail(from); err != nil {
		s.log.Error("failed to set MAIL FROM", slog.String("from", from), sl.Err(err))
		return err
	}
	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			s.log.Error("failed to set RCPT TO", slog.String("recipient", addr), sl.Err(err))
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("failed to get Data writer", sl.Err(err))
		return err
	}
	if _, err := wc.Write([]byte(msg)); err != nil {
		s.log.Error("failed to write email body", sl.Err(err))
		return err
	}
	if err := wc.Close(); err != nil {
		s.log.Error("failed to close Data writer", sl.Err(err))
		return err
	}
	if err := client.Quit(); err != nil {
		s.log.Error("failed to quit SMTP client", sl.Err(err))
		return err
	}

	s.log.Info("email sent successfully", slog.Any("to", to))
	return nil
}
