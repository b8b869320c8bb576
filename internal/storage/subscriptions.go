package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/autopay-alert/internal/lib/recurrence"
	"github.com/magabrotheeeer/autopay-alert/internal/models"
)

const subscriptionColumns = `id, user_uid, name, cost, currency, cycle, custom_days,
	next_billing_date, category, priority, description`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubscription(row rowScanner) (*models.Subscription, error) {
	var (
		sub        models.Subscription
		customDays sql.NullInt32
		next       time.Time
	)
	if err := row.Scan(&sub.ID, &sub.UserUID, &sub.Name, &sub.Cost, &sub.Currency, &sub.Cycle,
		&customDays, &next, &sub.Category, &sub.Priority, &sub.Description); err != nil {
		return nil, err
	}
	if customDays.Valid {
		d := int(customDays.Int32)
		sub.CustomDays = &d
	}
	sub.NextBillingDate = recurrence.FormatDate(next)
	return &sub, nil
}

func customDaysArg(d *int) any {
	if d == nil {
		return nil
	}
	return *d
}

// CreateSubscription сохраняет подписку. Пустой ID заменяется новым UUID.
func (s *Storage) CreateSubscription(ctx context.Context, sub models.Subscription) (*models.Subscription, error) {
	const op = "storage.CreateSubscription"

	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO subscriptions (`+subscriptionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		sub.ID, sub.UserUID, sub.Name, sub.Cost, sub.Currency, sub.Cycle, customDaysArg(sub.CustomDays),
		sub.NextBillingDate, sub.Category, sub.Priority, sub.Description)
	if err != nil {
		return nil, wrap(op, err)
	}
	return &sub, nil
}

// GetSubscription возвращает подписку идентичности по ID.
func (s *Storage) GetSubscription(ctx context.Context, uid, id string) (*models.Subscription, error) {
	const op = "storage.GetSubscription"

	row := s.DB.QueryRowContext(ctx, `SELECT `+subscriptionColumns+`
		FROM subscriptions WHERE user_uid = $1 AND id = $2`, uid, id)
	sub, err := scanSubscription(row)
	if err != nil {
		return nil, wrap(op, err)
	}
	return sub, nil
}

// ListSubscriptions возвращает подписки идентичности по возрастанию даты списания.
func (s *Storage) ListSubscriptions(ctx context.Context, uid string) ([]*models.Subscription, error) {
	const op = "storage.ListSubscriptions"

	rows, err := s.DB.QueryContext(ctx, `SELECT `+subscriptionColumns+`
		FROM subscriptions WHERE user_uid = $1
		ORDER BY next_billing_date, name`, uid)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]*models.Subscription, 0)
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, wrap(op, err)
		}
		result = append(result, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap(op, err)
	}
	return result, nil
}

// UpdateSubscription перезаписывает изменяемые поля подписки.
func (s *Storage) UpdateSubscription(ctx context.Context, sub models.Subscription) error {
	const op = "storage.UpdateSubscription"

	res, err := s.DB.ExecContext(ctx, `
		UPDATE subscriptions
		SET name = $1, cost = $2, currency = $3, cycle = $4, custom_days = $5,
		    next_billing_date = $6, category = $7, priority = $8, description = $9
		WHERE user_uid = $10 AND id = $11`,
		sub.Name, sub.Cost, sub.Currency, sub.Cycle, customDaysArg(sub.CustomDays),
		sub.NextBillingDate, sub.Category, sub.Priority, sub.Description, sub.UserUID, sub.ID)
	if err != nil {
		return wrap(op, err)
	}
	if err := expectOne(res); err != nil {
		return wrap(op, err)
	}
	return nil
}

// SetDescription сохраняет закэшированный AI-анализ подписки.
func (s *Storage) SetDescription(ctx context.Context, uid, id, description string) error {
	const op = "storage.SetDescription"

	res, err := s.DB.ExecContext(ctx,
		`UPDATE subscriptions SET description = $1 WHERE user_uid = $2 AND id = $3`,
		description, uid, id)
	if err != nil {
		return wrap(op, err)
	}
	if err := expectOne(res); err != nil {
		return wrap(op, err)
	}
	return nil
}

// DeleteSubscription удаляет подписку вместе с историей платежей.
func (s *Storage) DeleteSubscription(ctx context.Context, uid, id string) error {
	const op = "storage.DeleteSubscription"

	res, err := s.DB.ExecContext(ctx,
		`DELETE FROM subscriptions WHERE user_uid = $1 AND id = $2`, uid, id)
	if err != nil {
		return wrap(op, err)
	}
	if err := expectOne(res); err != nil {
		return wrap(op, err)
	}
	return nil
}

// RenewFunc вычисляет продлённую подписку и запись истории.
type RenewFunc func(models.Subscription) (models.Subscription, models.PaymentHistory, error)

// RenewSubscription блокирует строку подписки, применяет renew и в той же
// транзакции добавляет запись истории и сдвигает дату списания.
func (s *Storage) RenewSubscription(ctx context.Context, uid, id string, renew RenewFunc) (*models.Subscription, *models.PaymentHistory, error) {
	const op = "storage.RenewSubscription"

	var (
		renewed models.Subscription
		record  models.PaymentHistory
	)
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		current, err := lockSubscription(ctx, tx, uid, id)
		if err != nil {
			return err
		}
		renewed, record, err = renew(*current)
		if err != nil {
			return err
		}
		if record.ID == "" {
			record.ID = uuid.NewString()
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO payment_history (id, subscription_id, date, amount, currency)
			VALUES ($1, $2, $3, $4, $5)`,
			record.ID, current.ID, record.Date, record.Amount, record.Currency); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE subscriptions SET next_billing_date = $1 WHERE id = $2`,
			renewed.NextBillingDate, current.ID)
		return err
	})
	if err != nil {
		return nil, nil, wrap(op, err)
	}
	return &renewed, &record, nil
}

// UndoFunc вычисляет подписку после удаления записи истории.
type UndoFunc func(models.Subscription, models.PaymentHistory) (models.Subscription, error)

// DeletePayment удаляет запись истории и в той же транзакции откатывает
// дату списания с помощью undo.
func (s *Storage) DeletePayment(ctx context.Context, uid, subscriptionID, paymentID string, undo UndoFunc) (*models.Subscription, error) {
	const op = "storage.DeletePayment"

	var rewound models.Subscription
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		current, err := lockSubscription(ctx, tx, uid, subscriptionID)
		if err != nil {
			return err
		}
		var record models.PaymentHistory
		err = tx.QueryRowContext(ctx, `
			DELETE FROM payment_history WHERE id = $1 AND subscription_id = $2
			RETURNING id, subscription_id, date, amount, currency`, paymentID, current.ID).
			Scan(&record.ID, &record.SubscriptionID, &record.Date, &record.Amount, &record.Currency)
		if err != nil {
			return err
		}
		rewound, err = undo(*current, record)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE subscriptions SET next_billing_date = $1 WHERE id = $2`,
			rewound.NextBillingDate, current.ID)
		return err
	})
	if err != nil {
		return nil, wrap(op, err)
	}
	return &rewound, nil
}

// ListPayments возвращает историю платежей подписки, новые записи первыми.
func (s *Storage) ListPayments(ctx context.Context, uid, subscriptionID string) ([]*models.PaymentHistory, error) {
	const op = "storage.ListPayments"

	if _, err := s.GetSubscription(ctx, uid, subscriptionID); err != nil {
		return nil, wrap(op, err)
	}

	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, subscription_id, date, amount, currency
		FROM payment_history WHERE subscription_id = $1
		ORDER BY date DESC`, subscriptionID)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]*models.PaymentHistory, 0)
	for rows.Next() {
		var p models.PaymentHistory
		if err := rows.Scan(&p.ID, &p.SubscriptionID, &p.Date, &p.Amount, &p.Currency); err != nil {
			return nil, wrap(op, err)
		}
		p.Date = p.Date.UTC()
		result = append(result, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap(op, err)
	}
	return result, nil
}

func lockSubscription(ctx context.Context, tx *sql.Tx, uid, id string) (*models.Subscription, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+subscriptionColumns+`
		FROM subscriptions WHERE user_uid = $1 AND id = $2 FOR UPDATE`, uid, id)
	return scanSubscription(row)
}
