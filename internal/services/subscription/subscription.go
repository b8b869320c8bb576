// Package subscription содержит бизнес-логику подписок: CRUD, продление,
// историю платежей и сводку расходов. Чтения кэшируются, каждая запись
// инвалидирует кэш и рассылает уведомление об изменении.
package subscription

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/autopay-alert/internal/cache"
	"github.com/magabrotheeeer/autopay-alert/internal/ledger"
	"github.com/magabrotheeeer/autopay-alert/internal/lib/recurrence"
	"github.com/magabrotheeeer/autopay-alert/internal/lib/sl"
	"github.com/magabrotheeeer/autopay-alert/internal/models"
	"github.com/magabrotheeeer/autopay-alert/internal/services/events"
	"github.com/magabrotheeeer/autopay-alert/internal/storage"
)

// Repository определяет методы работы с подписками в хранилище.
type Repository interface {
	CreateSubscription(ctx context.Context, sub models.Subscription) (*models.Subscription, error)
	GetSubscription(ctx context.Context, uid, id string) (*models.Subscription, error)
	ListSubscriptions(ctx context.Context, uid string) ([]*models.Subscription, error)
	UpdateSubscription(ctx context.Context, sub models.Subscription) error
	SetDescription(ctx context.Context, uid, id, description string) error
	DeleteSubscription(ctx context.Context, uid, id string) error
	RenewSubscription(ctx context.Context, uid, id string, renew storage.RenewFunc) (*models.Subscription, *models.PaymentHistory, error)
	DeletePayment(ctx context.Context, uid, subscriptionID, paymentID string, undo storage.UndoFunc) (*models.Subscription, error)
	ListPayments(ctx context.Context, uid, subscriptionID string) ([]*models.PaymentHistory, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, keys ...string) error
}

// Alarms снимает подписку с активных будильников.
type Alarms interface {
	Resolve(uid, subscriptionID string) bool
}

// Publisher рассылает уведомления об изменениях.
type Publisher interface {
	Publish(uid string, change events.Change)
}

// Locator возвращает часовой пояс профиля идентичности.
type Locator interface {
	Location(ctx context.Context, uid string) (*time.Location, error)
}

// Service реализует бизнес-логику работы с подписками.
type Service struct {
	repo    Repository
	cache   Cache
	alarms  Alarms
	events  Publisher
	locator Locator
	log     *slog.Logger
	now     func() time.Time
}

// New создаёт Service. cache может быть nil.
func New(log *slog.Logger, repo Repository, c Cache, alarms Alarms, pub Publisher, locator Locator) *Service {
	return &Service{
		repo:    repo,
		cache:   c,
		alarms:  alarms,
		events:  pub,
		locator: locator,
		log:     log,
		now:     time.Now,
	}
}

// WithClock подменяет источник времени.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Create проверяет DTO и сохраняет новую подписку.
func (s *Service) Create(ctx context.Context, uid string, req models.DummySubscription) (*models.Subscription, error) {
	const op = "subscription.Create"

	sub, err := fromDummy(uid, req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	created, err := s.repo.CreateSubscription(ctx, sub)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("created new subscription", slog.String("id", created.ID), slog.String("user_uid", uid))
	s.changed(ctx, uid, events.KindSubscriptions, created.ID, "created")
	return created, nil
}

// List возвращает подписки идентичности, используя кэш.
func (s *Service) List(ctx context.Context, uid string) ([]*models.Subscription, error) {
	const op = "subscription.List"

	if s.cache != nil {
		var cached []*models.Subscription
		found, err := s.cache.Get(ctx, cache.SubscriptionsKey(uid), &cached)
		if err != nil {
			s.log.Warn("failed to read subscriptions from cache", slog.String("op", op), sl.Err(err))
		} else if found {
			for _, sub := range cached {
				sub.UserUID = uid
			}
			return cached, nil
		}
	}

	subs, err := s.repo.ListSubscriptions(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, cache.SubscriptionsKey(uid), subs, 0); err != nil {
			s.log.Warn("failed to cache subscriptions", slog.String("op", op), sl.Err(err))
		}
	}
	return subs, nil
}

// Get возвращает подписку по ID.
func (s *Service) Get(ctx context.Context, uid, id string) (*models.Subscription, error) {
	const op = "subscription.Get"
	sub, err := s.repo.GetSubscription(ctx, uid, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sub, nil
}

// Update перезаписывает подписку. Пустое описание сохраняет прежний анализ.
func (s *Service) Update(ctx context.Context, uid, id string, req models.DummySubscription) (*models.Subscription, error) {
	const op = "subscription.Update"

	current, err := s.repo.GetSubscription(ctx, uid, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	sub, err := fromDummy(uid, req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	sub.ID = id
	if sub.Description == "" {
		sub.Description = current.Description
	}
	if err := s.repo.UpdateSubscription(ctx, sub); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("updated subscription", slog.String("id", id))
	s.changed(ctx, uid, events.KindSubscriptions, id, "updated")
	return &sub, nil
}

// SetDescription сохраняет результат AI-анализа подписки.
func (s *Service) SetDescription(ctx context.Context, uid, id, description string) error {
	const op = "subscription.SetDescription"
	if err := s.repo.SetDescription(ctx, uid, id, description); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.changed(ctx, uid, events.KindSubscriptions, id, "analyzed")
	return nil
}

// Delete удаляет подписку вместе с историей и снимает её будильник.
func (s *Service) Delete(ctx context.Context, uid, id string) error {
	const op = "subscription.Delete"
	if err := s.repo.DeleteSubscription(ctx, uid, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if s.alarms.Resolve(uid, id) {
		s.events.Publish(uid, events.Change{Kind: events.KindAlarms, ID: id, Action: "resolved"})
	}
	s.log.Info("deleted subscription", slog.String("id", id))
	s.changed(ctx, uid, events.KindSubscriptions, id, "deleted")
	return nil
}

// Renew фиксирует оплату текущего периода, сдвигает дату на один цикл и
// снимает подписку с активных будильников. Запись истории и новая дата
// сохраняются атомарно.
func (s *Service) Renew(ctx context.Context, uid, id string) (*models.Subscription, *models.PaymentHistory, error) {
	const op = "subscription.Renew"

	now := s.now().UTC()
	renewed, record, err := s.repo.RenewSubscription(ctx, uid, id, func(sub models.Subscription) (models.Subscription, models.PaymentHistory, error) {
		return ledger.Renew(sub, now)
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	if s.alarms.Resolve(uid, id) {
		s.events.Publish(uid, events.Change{Kind: events.KindAlarms, ID: id, Action: "resolved"})
	}
	s.log.Info("renewed subscription",
		slog.String("id", id),
		slog.String("next_billing_date", renewed.NextBillingDate),
	)
	s.changed(ctx, uid, events.KindPayments, record.ID, "created")
	s.changed(ctx, uid, events.KindSubscriptions, id, "renewed")
	return renewed, record, nil
}

// History возвращает историю платежей подписки, новые записи первыми.
func (s *Service) History(ctx context.Context, uid, id string) ([]*models.PaymentHistory, error) {
	const op = "subscription.History"
	history, err := s.repo.ListPayments(ctx, uid, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return history, nil
}

// DeletePayment удаляет запись истории и откатывает дату на один цикл.
func (s *Service) DeletePayment(ctx context.Context, uid, id, paymentID string) (*models.Subscription, error) {
	const op = "subscription.DeletePayment"
	rewound, err := s.repo.DeletePayment(ctx, uid, id, paymentID, ledger.UndoRenewal)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("deleted payment record",
		slog.String("id", id),
		slog.String("payment_id", paymentID),
		slog.String("next_billing_date", rewound.NextBillingDate),
	)
	s.changed(ctx, uid, events.KindPayments, paymentID, "deleted")
	s.changed(ctx, uid, events.KindSubscriptions, id, "rewound")
	return rewound, nil
}

func (s *Service) changed(ctx context.Context, uid, kind, id, action string) {
	if s.cache != nil && kind == events.KindSubscriptions {
		if err := s.cache.Invalidate(ctx, cache.SubscriptionsKey(uid)); err != nil {
			s.log.Warn("failed to invalidate subscriptions cache", slog.String("user_uid", uid), sl.Err(err))
		}
	}
	s.events.Publish(uid, events.Change{Kind: kind, ID: id, Action: action})
}

func fromDummy(uid string, req models.DummySubscription) (models.Subscription, error) {
	if err := recurrence.Validate(req.Cycle, req.CustomDays); err != nil {
		return models.Subscription{}, err
	}
	if _, err := recurrence.ParseDate(req.NextBillingDate); err != nil {
		return models.Subscription{}, err
	}
	if req.Cost.IsNegative() {
		return models.Subscription{}, fmt.Errorf("%w: cost must not be negative", models.ErrInvalidInput)
	}
	if !req.Priority.Valid() {
		return models.Subscription{}, fmt.Errorf("%w: unknown priority %q", models.ErrInvalidInput, req.Priority)
	}

	customDays := req.CustomDays
	if req.Cycle != models.CycleCustom {
		customDays = nil
	}
	return models.Subscription{
		UserUID:         uid,
		Name:            req.Name,
		Cost:            req.Cost.Round(2),
		Currency:        req.Currency,
		Cycle:           req.Cycle,
		CustomDays:      customDays,
		NextBillingDate: req.NextBillingDate,
		Category:        req.Category,
		Priority:        req.Priority,
		Description:     req.Description,
	}, nil
}

// monthlyCost приводит стоимость подписки к одному месяцу.
func monthlyCost(sub *models.Subscription) decimal.Decimal {
	return sub.Cost.Mul(decimal.NewFromFloat(recurrence.MonthlyFactor(sub.Cycle, sub.CustomDays)))
}
