package assistant

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/autopay-alert/internal/models"
)

// PlanTask: при наличии описания просит улучшить и перевести его,
// иначе составить чек-лист по заголовку.
func PlanTask(title, description, lang string) string {
	if strings.TrimSpace(description) != "" {
		return fmt.Sprintf("Enhance and translate into %s: %q", lang, description)
	}
	return fmt.Sprintf("Create a concise checklist for the task: %q. Language: %s", title, lang)
}

// AnalyzeSubscription просит оценить одну подписку.
func AnalyzeSubscription(name string, cost decimal.Decimal, lang string) string {
	return fmt.Sprintf("Analyze subscription %q at %s. Worth it? Alternatives? Brief. Language: %s",
		name, cost.String(), lang)
}

// ReviewSubscriptions просит советы по экономии для всего списка.
func ReviewSubscriptions(subs []*models.Subscription, lang string) string {
	parts := make([]string, 0, len(subs))
	for _, s := range subs {
		parts = append(parts, fmt.Sprintf("%s (%s)", s.Name, s.Cost.String()))
	}
	return fmt.Sprintf("Review subs: %s. Save money tips. Language: %s", strings.Join(parts, ", "), lang)
}

// DailyBriefing — короткая сводка дня. Месячная сумма округляется до целого.
func DailyBriefing(pendingTasks int, currency string, monthlyBurn decimal.Decimal, lang string) string {
	return fmt.Sprintf("Briefing: %d tasks, %s%s monthly burn. 2 sentences. Anime commander style. Language: %s",
		pendingTasks, currency, monthlyBurn.StringFixed(0), lang)
}
