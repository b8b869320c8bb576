// Package alarm определяет, какие подписки требуют внимания в окна срабатывания,
// и хранит активные будильники и уведомления каждой идентичности.
package alarm

import (
	"fmt"
	"time"

	"github.com/magabrotheeeer/autopay-alert/internal/lib/recurrence"
	"github.com/magabrotheeeer/autopay-alert/internal/models"
)

// Level — реакция на подписку, попавшую в горизонт.
type Level int

const (
	LevelNone Level = iota
	LevelNotify
	LevelAlarm
)

func (l Level) String() string {
	switch l {
	case LevelNotify:
		return "notify"
	case LevelAlarm:
		return "alarm"
	default:
		return "none"
	}
}

// DefaultHorizonDays — подписки со сроком дальше не рассматриваются.
const DefaultHorizonDays = 7

// windowKeyLayout — ключ окна: локальная дата и час начала окна.
const windowKeyLayout = "2006-01-02T15"

// Window описывает окна срабатывания: начало каждого часа из Hours
// длительностью Width в локальном времени пользователя.
type Window struct {
	Hours []int
	Width time.Duration
}

// DefaultWindow — 11:00 и 23:00, одна минута.
func DefaultWindow() Window {
	return Window{Hours: []int{11, 23}, Width: time.Minute}
}

// Active сообщает, попадает ли local в одно из окон, и возвращает ключ окна.
func (w Window) Active(local time.Time) (string, bool) {
	width := w.Width
	if width <= 0 {
		width = time.Minute
	}
	y, m, d := local.Date()
	for _, h := range w.Hours {
		start := time.Date(y, m, d, h, 0, 0, 0, local.Location())
		if !local.Before(start) && local.Before(start.Add(width)) {
			return start.Format(windowKeyLayout), true
		}
	}
	return "", false
}

// DaysUntilDue возвращает число календарных дней от сегодняшней даты в поясе loc
// до даты списания. Просроченные подписки дают отрицательное значение.
func DaysUntilDue(now time.Time, loc *time.Location, nextBillingDate string) (int, error) {
	due, err := recurrence.ParseDate(nextBillingDate)
	if err != nil {
		return 0, err
	}
	today := recurrence.Truncate(now.In(loc))
	return int(due.Sub(today).Hours() / 24), nil
}

// Classify сопоставляет приоритет и срок подписки с реакцией.
func Classify(days, horizon int, priority models.Priority) Level {
	if days < 0 || days > horizon {
		return LevelNone
	}
	switch priority {
	case models.PriorityHigh:
		return LevelAlarm
	case models.PriorityMedium:
		return LevelNotify
	default:
		return LevelNone
	}
}

// Candidate — подписка, требующая реакции в текущем окне.
type Candidate struct {
	Subscription models.Subscription
	DaysUntilDue int
	Level        Level
}

// Evaluation — результат одного прохода по подпискам идентичности.
type Evaluation struct {
	WindowKey string
	InWindow  bool
	Alarms    []Candidate
	Notices   []Candidate
	// Invalid — подписки с некорректной датой, пропущенные при проверке.
	Invalid []string
}

// Evaluate классифицирует подписки на момент now в поясе loc. Вне окна
// срабатывания кандидаты не формируются.
func Evaluate(now time.Time, loc *time.Location, subs []*models.Subscription, w Window, horizon int) Evaluation {
	local := now.In(loc)
	key, ok := w.Active(local)
	ev := Evaluation{WindowKey: key, InWindow: ok}
	if !ok {
		return ev
	}

	for _, sub := range subs {
		if sub == nil {
			continue
		}
		days, err := DaysUntilDue(now, loc, sub.NextBillingDate)
		if err != nil {
			ev.Invalid = append(ev.Invalid, sub.ID)
			continue
		}
		c := Candidate{Subscription: *sub, DaysUntilDue: days, Level: Classify(days, horizon, sub.Priority)}
		switch c.Level {
		case LevelAlarm:
			ev.Alarms = append(ev.Alarms, c)
		case LevelNotify:
			ev.Notices = append(ev.Notices, c)
		}
	}
	return ev
}

// NoticeMessage — текст уведомления о подписках среднего приоритета.
func NoticeMessage(count int) string {
	return fmt.Sprintf("Warning: %d Medium Priority subs due soon.", count)
}

// LoadLocation разбирает IANA-пояс профиля. Пустое или неизвестное значение даёт UTC.
func LoadLocation(tz string) (*time.Location, error) {
	if tz == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.UTC, fmt.Errorf("alarm.LoadLocation: %w", err)
	}
	return loc, nil
}
