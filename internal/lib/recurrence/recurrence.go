// Package recurrence вычисляет даты регулярных списаний.
//
// Месячная арифметика прижимает день к последнему дню целевого месяца
// (31 января + 1 месяц = 29 февраля в високосный год) одинаково в обе стороны,
// поэтому Previous(Next(d)) может отличаться от d на несколько дней около
// конца месяца.
package recurrence

import (
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/autopay-alert/internal/models"
)

// DateLayout — формат календарной даты без времени.
const DateLayout = "2006-01-02"

var (
	// ErrInvalidCycleConfig — неизвестный цикл или custom без положительного числа дней.
	ErrInvalidCycleConfig = fmt.Errorf("%w: invalid cycle config", models.ErrInvalidInput)
	// ErrInvalidDate — строка не является датой в формате YYYY-MM-DD.
	ErrInvalidDate = fmt.Errorf("%w: invalid calendar date", models.ErrInvalidInput)
)

// Next возвращает дату следующего списания после anchor.
func Next(anchor time.Time, cycle models.Cycle, customDays *int) (time.Time, error) {
	return step(anchor, cycle, customDays, 1)
}

// Previous отматывает anchor на один цикл назад.
func Previous(anchor time.Time, cycle models.Cycle, customDays *int) (time.Time, error) {
	return step(anchor, cycle, customDays, -1)
}

// NextDate — Next для дат в строковом виде.
func NextDate(anchor string, cycle models.Cycle, customDays *int) (string, error) {
	return stepDate(anchor, cycle, customDays, 1)
}

// PreviousDate — Previous для дат в строковом виде.
func PreviousDate(anchor string, cycle models.Cycle, customDays *int) (string, error) {
	return stepDate(anchor, cycle, customDays, -1)
}

// Validate проверяет конфигурацию цикла без вычисления даты.
func Validate(cycle models.Cycle, customDays *int) error {
	_, err := step(time.Time{}, cycle, customDays, 1)
	return err
}

// ParseDate разбирает YYYY-MM-DD в полночь UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}

// FormatDate форматирует дату как YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// Truncate отбрасывает время суток, сохраняя календарную дату в поясе t.
func Truncate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// MonthlyFactor — доля стоимости, приходящаяся на один месяц.
func MonthlyFactor(cycle models.Cycle, customDays *int) float64 {
	switch cycle {
	case models.CycleYearly:
		return 1.0 / 12
	case models.CycleQuarterly:
		return 1.0 / 4
	case models.CycleBiannual:
		return 1.0 / 6
	case models.CycleCustom:
		if customDays != nil && *customDays > 0 {
			return 30.0 / float64(*customDays)
		}
		return 0
	default:
		return 1
	}
}

func stepDate(anchor string, cycle models.Cycle, customDays *int, dir int) (string, error) {
	t, err := ParseDate(anchor)
	if err != nil {
		return "", err
	}
	next, err := step(t, cycle, customDays, dir)
	if err != nil {
		return "", err
	}
	return FormatDate(next), nil
}

func step(anchor time.Time, cycle models.Cycle, customDays *int, dir int) (time.Time, error) {
	switch cycle {
	case models.CycleMonthly:
		return addMonths(anchor, dir), nil
	case models.CycleQuarterly:
		// четыре месяца, а не три
		return addMonths(anchor, 4*dir), nil
	case models.CycleBiannual:
		return addMonths(anchor, 6*dir), nil
	case models.CycleYearly:
		return addMonths(anchor, 12*dir), nil
	case models.CycleCustom:
		if customDays == nil || *customDays <= 0 {
			return time.Time{}, fmt.Errorf("%w: custom cycle requires positive custom_days", ErrInvalidCycleConfig)
		}
		return anchor.AddDate(0, 0, *customDays*dir), nil
	default:
		return time.Time{}, fmt.Errorf("%w: unknown cycle %q", ErrInvalidCycleConfig, cycle)
	}
}

func addMonths(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	if last := daysIn(first.Year(), first.Month()); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// IsInvalidConfig сообщает, вызвана ли ошибка некорректной конфигурацией цикла.
func IsInvalidConfig(err error) bool {
	return errors.Is(err, ErrInvalidCycleConfig)
}
