package storage

import (
	"context"

	"github.com/magabrotheeeer/autopay-alert/internal/models"
)

// GetProfile возвращает профиль идентичности или ErrNotFound, если он
// ещё не сохранялся.
func (s *Storage) GetProfile(ctx context.Context, uid string) (*models.UserProfile, error) {
	const op = "storage.GetProfile"

	p := models.UserProfile{UserUID: uid}
	err := s.DB.QueryRowContext(ctx, `
		SELECT name, avatar, currency, language, timezone, alarm_sound
		FROM profiles WHERE user_uid = $1`, uid).
		Scan(&p.Name, &p.Avatar, &p.Currency, &p.Language, &p.Timezone, &p.AlarmSound)
	if err != nil {
		return nil, wrap(op, err)
	}
	return &p, nil
}

// UpsertProfile создаёт или полностью перезаписывает профиль.
func (s *Storage) UpsertProfile(ctx context.Context, p models.UserProfile) error {
	const op = "storage.UpsertProfile"

	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO profiles (user_uid, name, avatar, currency, language, timezone, alarm_sound)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_uid) DO UPDATE SET
			name = EXCLUDED.name,
			avatar = EXCLUDED.avatar,
			currency = EXCLUDED.currency,
			language = EXCLUDED.language,
			timezone = EXCLUDED.timezone,
			alarm_sound = EXCLUDED.alarm_sound`,
		p.UserUID, p.Name, p.Avatar, p.Currency, p.Language, p.Timezone, p.AlarmSound)
	if err != nil {
		return wrap(op, err)
	}
	return nil
}
