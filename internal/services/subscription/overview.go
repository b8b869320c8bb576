package subscription

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/autopay-alert/internal/alarm"
	"github.com/magabrotheeeer/autopay-alert/internal/lib/recurrence"
	"github.com/magabrotheeeer/autopay-alert/internal/lib/sl"
	"github.com/magabrotheeeer/autopay-alert/internal/models"
)

// Urgency — цветовая отметка строки подписки по близости списания.
type Urgency string

const (
	UrgencySafe     Urgency = "safe"
	UrgencyWarning  Urgency = "warning"
	UrgencyCritical Urgency = "critical"
)

// UrgencyFor: больше 20 дней — safe, больше 7 — warning, иначе critical.
func UrgencyFor(days int) Urgency {
	switch {
	case days > 20:
		return UrgencySafe
	case days > 7:
		return UrgencyWarning
	default:
		return UrgencyCritical
	}
}

// Row — подписка с вычисленным сроком до списания.
type Row struct {
	*models.Subscription
	DaysUntilDue int     `json:"days_until_due"`
	Urgency      Urgency `json:"urgency"`
}

// Overview — сводка расходов идентичности.
type Overview struct {
	Upcoming           []Row           `json:"upcoming"`
	Subscriptions      []Row           `json:"subscriptions"`
	MonthlyTotal       decimal.Decimal `json:"monthly_total"`
	RemainingThisMonth decimal.Decimal `json:"remaining_this_month"`
	Count              int             `json:"count"`
}

// upcomingDays — горизонт блока ближайших списаний.
const upcomingDays = 7

// Overview считает ближайшие списания (0..7 дней), месячную сумму и остаток
// к оплате до конца текущего месяца в часовом поясе профиля.
func (s *Service) Overview(ctx context.Context, uid string) (*Overview, error) {
	const op = "subscription.Overview"

	subs, err := s.List(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	loc, err := s.locator.Location(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return Summarize(s.now(), loc, subs, s.log), nil
}

// Summarize строит сводку без обращения к хранилищу. Подписки с
// некорректной датой пропускаются.
func Summarize(now time.Time, loc *time.Location, subs []*models.Subscription, log *slog.Logger) *Overview {
	local := now.In(loc)
	today := recurrence.Truncate(local)
	endOfMonth := time.Date(today.Year(), today.Month()+1, 0, 0, 0, 0, 0, time.UTC)

	o := &Overview{
		Upcoming:           make([]Row, 0),
		Subscriptions:      make([]Row, 0, len(subs)),
		MonthlyTotal:       decimal.Zero,
		RemainingThisMonth: decimal.Zero,
	}
	for _, sub := range subs {
		days, err := alarm.DaysUntilDue(now, loc, sub.NextBillingDate)
		if err != nil {
			log.Warn("skipping subscription with invalid date", slog.String("id", sub.ID), sl.Err(err))
			continue
		}
		row := Row{Subscription: sub, DaysUntilDue: days, Urgency: UrgencyFor(days)}
		o.Subscriptions = append(o.Subscriptions, row)
		if days >= 0 && days <= upcomingDays {
			o.Upcoming = append(o.Upcoming, row)
		}

		o.MonthlyTotal = o.MonthlyTotal.Add(monthlyCost(sub))
		if due, _ := recurrence.ParseDate(sub.NextBillingDate); !due.After(endOfMonth) {
			o.RemainingThisMonth = o.RemainingThisMonth.Add(sub.Cost)
		}
	}

	sort.SliceStable(o.Upcoming, func(i, j int) bool {
		return o.Upcoming[i].NextBillingDate < o.Upcoming[j].NextBillingDate
	})
	o.MonthlyTotal = o.MonthlyTotal.Round(2)
	o.Count = len(o.Subscriptions)
	return o
}
