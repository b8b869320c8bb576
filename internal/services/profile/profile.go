// Package profile управляет профилем идентичности: имя, валюта, язык,
// часовой пояс и звук будильника.
package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/autopay-alert/internal/cache"
	"github.com/magabrotheeeer/autopay-alert/internal/lib/sl"
	"github.com/magabrotheeeer/autopay-alert/internal/models"
	"github.com/magabrotheeeer/autopay-alert/internal/services/events"
)

// Repository хранит профили.
type Repository interface {
	GetProfile(ctx context.Context, uid string) (*models.UserProfile, error)
	UpsertProfile(ctx context.Context, p models.UserProfile) error
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, keys ...string) error
}

// Publisher рассылает уведомления об изменениях.
type Publisher interface {
	Publish(uid string, change events.Change)
}

// Service реализует чтение и обновление профиля.
type Service struct {
	repo   Repository
	cache  Cache
	events Publisher
	log    *slog.Logger
}

// New создаёт Service. cache может быть nil.
func New(log *slog.Logger, repo Repository, c Cache, pub Publisher) *Service {
	return &Service{repo: repo, cache: c, events: pub, log: log}
}

// Get возвращает профиль. Если профиль ещё не сохранялся, возвращаются
// значения по умолчанию.
func (s *Service) Get(ctx context.Context, uid string) (models.UserProfile, error) {
	const op = "profile.Get"

	var cached models.UserProfile
	if s.cache != nil {
		found, err := s.cache.Get(ctx, cache.ProfileKey(uid), &cached)
		if err != nil {
			s.log.Warn("failed to read profile from cache", slog.String("op", op), sl.Err(err))
		} else if found {
			cached.UserUID = uid
			return cached, nil
		}
	}

	p, err := s.repo.GetProfile(ctx, uid)
	var result models.UserProfile
	switch {
	case errors.Is(err, models.ErrNotFound):
		result = models.DefaultProfile(uid)
	case err != nil:
		return models.UserProfile{}, fmt.Errorf("%s: %w", op, err)
	default:
		result = *p
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cache.ProfileKey(uid), result, 0); err != nil {
			s.log.Warn("failed to cache profile", slog.String("op", op), sl.Err(err))
		}
	}
	return result, nil
}

// Update проверяет и сохраняет профиль целиком.
func (s *Service) Update(ctx context.Context, uid string, req models.DummyProfile) (models.UserProfile, error) {
	const op = "profile.Update"

	if _, err := time.LoadLocation(req.Timezone); err != nil || req.Timezone == "" {
		return models.UserProfile{}, fmt.Errorf("%s: %w: unknown time zone %q", op, models.ErrInvalidInput, req.Timezone)
	}

	p := models.UserProfile{
		UserUID:    uid,
		Name:       req.Name,
		Avatar:     req.Avatar,
		Currency:   req.Currency,
		Language:   req.Language,
		Timezone:   req.Timezone,
		AlarmSound: req.AlarmSound,
	}
	if p.Name == "" {
		p.Name = models.DefaultProfile(uid).Name
	}
	if p.AlarmSound == "" {
		p.AlarmSound = models.DefaultAlarmSound
	}

	if err := s.repo.UpsertProfile(ctx, p); err != nil {
		return models.UserProfile{}, fmt.Errorf("%s: %w", op, err)
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, cache.ProfileKey(uid)); err != nil {
			s.log.Warn("failed to invalidate profile cache", slog.String("op", op), sl.Err(err))
		}
	}
	s.events.Publish(uid, events.Change{Kind: events.KindProfile, Action: "updated"})
	s.log.Info("profile updated", slog.String("user_uid", uid), slog.String("timezone", p.Timezone))
	return p, nil
}

// Location возвращает часовой пояс профиля. Некорректный пояс заменяется UTC.
func (s *Service) Location(ctx context.Context, uid string) (*time.Location, error) {
	p, err := s.Get(ctx, uid)
	if err != nil {
		return nil, err
	}
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		s.log.Warn("invalid profile time zone, using UTC", slog.String("user_uid", uid), sl.Err(err))
		return time.UTC, nil
	}
	return loc, nil
}
