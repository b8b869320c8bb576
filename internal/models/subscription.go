// Package models содержит доменные структуры: подписки, историю платежей,
// задачи и профиль пользователя, а также DTO для приёма данных из JSON-запросов.
package models

import (
	"github.com/shopspring/decimal"
)

// Cycle — правило, по которому сдвигается дата следующего списания.
type Cycle string

const (
	CycleMonthly   Cycle = "monthly"
	CycleYearly    Cycle = "yearly"
	CycleQuarterly Cycle = "quarterly"
	CycleBiannual  Cycle = "biannual"
	CycleCustom    Cycle = "custom"
)

// Valid сообщает, является ли значение допустимым циклом.
func (c Cycle) Valid() bool {
	switch c {
	case CycleMonthly, CycleYearly, CycleQuarterly, CycleBiannual, CycleCustom:
		return true
	}
	return false
}

// Priority — приоритет подписки или задачи.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Valid сообщает, является ли значение допустимым приоритетом.
func (p Priority) Valid() bool {
	return p == PriorityHigh || p == PriorityMedium || p == PriorityLow
}

// Subscription представляет регулярный платёж пользователя.
// NextBillingDate всегда хранится в виде YYYY-MM-DD, CustomDays заполнено
// только для Cycle == CycleCustom.
type Subscription struct {
	ID              string          `json:"id"`
	UserUID         string          `json:"-"`
	Name            string          `json:"name"`
	Cost            decimal.Decimal `json:"cost"`
	Currency        string          `json:"currency"`
	Cycle           Cycle           `json:"cycle"`
	CustomDays      *int            `json:"custom_days,omitempty"`
	NextBillingDate string          `json:"next_billing_date"`
	Category        string          `json:"category"`
	Priority        Priority        `json:"priority"`
	Description     string          `json:"description,omitempty"` // кэш AI-анализа
}

// DummySubscription используется для приёма данных из JSON-запроса,
// прежде чем сервис проверит их и превратит в Subscription.
type DummySubscription struct {
	Name            string          `json:"name" validate:"required,max=200"`
	Cost            decimal.Decimal `json:"cost"`
	Currency        string          `json:"currency" validate:"required,max=8"`
	Cycle           Cycle           `json:"cycle" validate:"required,oneof=monthly yearly quarterly biannual custom"`
	CustomDays      *int            `json:"custom_days,omitempty" validate:"omitempty,gt=0"`
	NextBillingDate string          `json:"next_billing_date" validate:"required"` // формат 2006-01-02
	Category        string          `json:"category" validate:"max=100"`
	Priority        Priority        `json:"priority" validate:"required,oneof=high medium low"`
	Description     string          `json:"description,omitempty"`
}
