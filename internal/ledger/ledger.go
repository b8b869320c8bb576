// Package ledger описывает продление подписки и откат продления.
// Функции чистые: запись в хранилище выполняет сервис подписок в одной транзакции.
package ledger

import (
	"fmt"
	"time"

	"github.com/magabrotheeeer/autopay-alert/internal/lib/recurrence"
	"github.com/magabrotheeeer/autopay-alert/internal/models"
)

// Renew фиксирует оплату текущего периода и сдвигает дату следующего списания
// на один цикл. Запись истории получает текущие стоимость и валюту подписки
// и отметку времени now. Исходная подписка не изменяется.
func Renew(sub models.Subscription, now time.Time) (models.Subscription, models.PaymentHistory, error) {
	const op = "ledger.Renew"
	next, err := recurrence.NextDate(sub.NextBillingDate, sub.Cycle, sub.CustomDays)
	if err != nil {
		return models.Subscription{}, models.PaymentHistory{}, fmt.Errorf("%s: %w", op, err)
	}

	record := models.PaymentHistory{
		SubscriptionID: sub.ID,
		Date:           now,
		Amount:         sub.Cost,
		Currency:       sub.Currency,
	}
	renewed := sub
	renewed.NextBillingDate = next
	return renewed, record, nil
}

// UndoRenewal откатывает дату на один цикл после удаления записи истории.
// Это откат цикла, а не восстановление даты из записи: порядок удалений
// не проверяется, и каждое удаление сдвигает дату ровно на один цикл назад.
func UndoRenewal(sub models.Subscription, deleted models.PaymentHistory) (models.Subscription, error) {
	const op = "ledger.UndoRenewal"
	if deleted.SubscriptionID != "" && deleted.SubscriptionID != sub.ID {
		return models.Subscription{}, fmt.Errorf("%s: %w: record %s belongs to another subscription",
			op, models.ErrInvalidInput, deleted.ID)
	}
	prev, err := recurrence.PreviousDate(sub.NextBillingDate, sub.Cycle, sub.CustomDays)
	if err != nil {
		return models.Subscription{}, fmt.Errorf("%s: %w", op, err)
	}
	rewound := sub
	rewound.NextBillingDate = prev
	return rewound, nil
}
