// Package assistant строит запросы к сервису генерации текста из данных
// пользователя и форматирует ответы.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/autopay-alert/internal/ai"
	"github.com/magabrotheeeer/autopay-alert/internal/lib/formatter"
	"github.com/magabrotheeeer/autopay-alert/internal/lib/sl"
	"github.com/magabrotheeeer/autopay-alert/internal/metrics"
	"github.com/magabrotheeeer/autopay-alert/internal/models"
	"github.com/magabrotheeeer/autopay-alert/internal/services/subscription"
)

// FallbackText возвращается вместо ответа, если сервис генерации недоступен.
const FallbackText = "AI service is currently unavailable."

// Profiles возвращает профиль идентичности.
type Profiles interface {
	Get(ctx context.Context, uid string) (models.UserProfile, error)
}

// Subscriptions — чтение подписок и сохранение анализа.
type Subscriptions interface {
	List(ctx context.Context, uid string) ([]*models.Subscription, error)
	Get(ctx context.Context, uid, id string) (*models.Subscription, error)
	SetDescription(ctx context.Context, uid, id, description string) error
	Overview(ctx context.Context, uid string) (*subscription.Overview, error)
}

// Tasks возвращает незавершённые задачи.
type Tasks interface {
	Pending(ctx context.Context, uid string) ([]*models.Task, error)
}

// Limiter ограничивает частоту запросов по ключу.
type Limiter interface {
	Allow(key string) bool
}

// Request описывает запрос к ассистенту. Kind совпадает с именем слота сессии.
type Request struct {
	Kind           string          `json:"kind" validate:"required"`
	Title          string          `json:"title,omitempty"`
	Description    string          `json:"description,omitempty"`
	SubscriptionID string          `json:"subscription_id,omitempty"`
	Name           string          `json:"name,omitempty"`
	Cost           decimal.Decimal `json:"cost,omitempty"`
	Prompt         string          `json:"prompt,omitempty"`
}

// Result — ответ ассистента.
type Result struct {
	Kind     string `json:"kind"`
	Text     string `json:"text"`
	Raw      string `json:"raw"`
	Fallback bool   `json:"fallback,omitempty"`
}

// Service строит запросы и вызывает генератор.
type Service struct {
	generator ai.Generator
	profiles  Profiles
	subs      Subscriptions
	tasks     Tasks
	limiter   Limiter
	metrics   *metrics.Metrics
	log       *slog.Logger
}

// New создаёт Service.
func New(log *slog.Logger, generator ai.Generator, profiles Profiles, subs Subscriptions, tasks Tasks, limiter Limiter, m *metrics.Metrics) *Service {
	if m == nil {
		m = metrics.NewNop()
	}
	return &Service{
		generator: generator,
		profiles:  profiles,
		subs:      subs,
		tasks:     tasks,
		limiter:   limiter,
		metrics:   m,
		log:       log,
	}
}

// Allow расходует квоту запросов идентичности.
func (s *Service) Allow(uid string) error {
	if s.limiter != nil && !s.limiter.Allow(uid) {
		return ai.ErrRateLimited
	}
	return nil
}

// Prompt строит текст запроса для req на языке профиля.
func (s *Service) Prompt(ctx context.Context, uid string, req Request) (string, error) {
	const op = "assistant.Prompt"

	profile, err := s.profiles.Get(ctx, uid)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	lang := profile.Language

	switch req.Kind {
	case ai.SlotTaskPlan:
		if strings.TrimSpace(req.Title) == "" {
			return "", fmt.Errorf("%s: %w: title is required", op, models.ErrInvalidInput)
		}
		return PlanTask(req.Title, req.Description, lang), nil

	case ai.SlotSubAnalysis:
		name, cost := req.Name, req.Cost
		if req.SubscriptionID != "" {
			sub, err := s.subs.Get(ctx, uid, req.SubscriptionID)
			if err != nil {
				return "", fmt.Errorf("%s: %w", op, err)
			}
			name, cost = sub.Name, sub.Cost
		}
		if strings.TrimSpace(name) == "" {
			return "", fmt.Errorf("%s: %w: name is required", op, models.ErrInvalidInput)
		}
		return AnalyzeSubscription(name, cost, lang), nil

	case ai.SlotSubReview:
		subs, err := s.subs.List(ctx, uid)
		if err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}
		if len(subs) == 0 {
			return "", fmt.Errorf("%s: %w: no subscriptions to review", op, models.ErrInvalidInput)
		}
		return ReviewSubscriptions(subs, lang), nil

	case ai.SlotBriefing:
		pending, err := s.tasks.Pending(ctx, uid)
		if err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}
		overview, err := s.subs.Overview(ctx, uid)
		if err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}
		return DailyBriefing(len(pending), profile.Currency, overview.MonthlyTotal, lang), nil

	case ai.SlotFreeForm:
		if strings.TrimSpace(req.Prompt) == "" {
			return "", fmt.Errorf("%s: %w: prompt is required", op, models.ErrInvalidInput)
		}
		return req.Prompt, nil
	}
	return "", fmt.Errorf("%s: %w: unknown kind %q", op, models.ErrInvalidInput, req.Kind)
}

// Generate выполняет запрос целиком. Ошибка генератора не возвращается
// клиенту: вместо ответа отдаётся FallbackText.
func (s *Service) Generate(ctx context.Context, uid string, req Request) (*Result, error) {
	const op = "assistant.Generate"

	if err := s.Allow(uid); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	prompt, err := s.Prompt(ctx, uid, req)
	if err != nil {
		return nil, err
	}

	raw, err := s.generator.Generate(ctx, prompt)
	if err == nil && strings.TrimSpace(raw) == "" {
		err = ai.ErrEmptyResponse
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		s.metrics.AIGenerations.WithLabelValues("fallback").Inc()
		s.log.Error("generation failed", slog.String("op", op), slog.String("kind", req.Kind), sl.Err(err))
		return &Result{Kind: req.Kind, Text: FallbackText, Raw: FallbackText, Fallback: true}, nil
	}
	s.metrics.AIGenerations.WithLabelValues("ok").Inc()

	result := &Result{Kind: req.Kind, Text: formatter.Format(raw), Raw: raw}
	if req.Kind == ai.SlotSubAnalysis && req.SubscriptionID != "" {
		if err := s.subs.SetDescription(ctx, uid, req.SubscriptionID, result.Text); err != nil {
			s.log.Warn("failed to store analysis", slog.String("op", op), sl.Err(err))
		}
	}
	return result, nil
}
