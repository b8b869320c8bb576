package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentHistory — запись об оплате подписки. Принадлежит ровно одной
// подписке и удаляется вместе с ней.
type PaymentHistory struct {
	ID             string          `json:"id"`
	SubscriptionID string          `json:"subscription_id"`
	Date           time.Time       `json:"date"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
}
