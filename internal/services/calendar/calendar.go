// Package calendar раскладывает задачи и списания подписок по дням месяца.
package calendar

import (
	"context"
	"fmt"
	"time"

	"github.com/magabrotheeeer/autopay-alert/internal/lib/recurrence"
	"github.com/magabrotheeeer/autopay-alert/internal/models"
)

const monthLayout = "2006-01"

// Tasks возвращает задачи идентичности.
type Tasks interface {
	List(ctx context.Context, uid string) ([]*models.Task, error)
}

// Subscriptions возвращает подписки идентичности.
type Subscriptions interface {
	List(ctx context.Context, uid string) ([]*models.Subscription, error)
}

// Locator возвращает часовой пояс профиля идентичности.
type Locator interface {
	Location(ctx context.Context, uid string) (*time.Location, error)
}

// Day — ячейка календаря.
type Day struct {
	Date          string                 `json:"date"`
	Today         bool                   `json:"today"`
	Tasks         []*models.Task         `json:"tasks"`
	Subscriptions []*models.Subscription `json:"subscriptions"`
}

// Month — месячная сетка. Leading — число пустых ячеек перед первым днём
// в неделе, начинающейся с воскресенья.
type Month struct {
	Month   string `json:"month"`
	Leading int    `json:"leading"`
	Days    []Day  `json:"days"`
}

// Service собирает календарь.
type Service struct {
	tasks   Tasks
	subs    Subscriptions
	locator Locator
	now     func() time.Time
}

// New создаёт Service.
func New(tasks Tasks, subs Subscriptions, locator Locator) *Service {
	return &Service{tasks: tasks, subs: subs, locator: locator, now: time.Now}
}

// ParseMonth разбирает месяц в формате YYYY-MM. Пустая строка означает
// текущий месяц в поясе loc.
func ParseMonth(s string, now time.Time, loc *time.Location) (time.Time, error) {
	if s == "" {
		y, m, _ := now.In(loc).Date()
		return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC), nil
	}
	t, err := time.Parse(monthLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid month %q", models.ErrInvalidInput, s)
	}
	return t, nil
}

// Month возвращает календарь месяца month (YYYY-MM или пусто).
func (s *Service) Month(ctx context.Context, uid, month string) (*Month, error) {
	const op = "calendar.Month"

	loc, err := s.locator.Location(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	now := s.now()
	first, err := ParseMonth(month, now, loc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	tasks, err := s.tasks.List(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	subs, err := s.subs.List(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return Build(first, recurrence.Truncate(now.In(loc)), tasks, subs), nil
}

// Build раскладывает задачи по сроку, а подписки по дате списания.
func Build(first, today time.Time, tasks []*models.Task, subs []*models.Subscription) *Month {
	daysInMonth := time.Date(first.Year(), first.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
	m := &Month{
		Month:   first.Format(monthLayout),
		Leading: int(first.Weekday()),
		Days:    make([]Day, daysInMonth),
	}
	index := make(map[string]int, daysInMonth)
	for i := range m.Days {
		d := first.AddDate(0, 0, i)
		date := recurrence.FormatDate(d)
		m.Days[i] = Day{
			Date:          date,
			Today:         d.Equal(today),
			Tasks:         make([]*models.Task, 0),
			Subscriptions: make([]*models.Subscription, 0),
		}
		index[date] = i
	}
	for _, t := range tasks {
		if i, ok := index[t.DueDate]; ok {
			m.Days[i].Tasks = append(m.Days[i].Tasks, t)
		}
	}
	for _, sub := range subs {
		if i, ok := index[sub.NextBillingDate]; ok {
			m.Days[i].Subscriptions = append(m.Days[i].Subscriptions, sub)
		}
	}
	return m
}
