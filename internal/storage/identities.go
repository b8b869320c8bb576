package storage

import (
	"context"
)

// CreateIdentity сохраняет новую анонимную идентичность с хэшем секрета.
func (s *Storage) CreateIdentity(ctx context.Context, uid, secretHash string) error {
	const op = "storage.CreateIdentity"

	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO identities (uid, secret_hash) VALUES ($1, $2)`, uid, secretHash)
	if err != nil {
		return wrap(op, err)
	}
	return nil
}

// GetIdentitySecret возвращает хэш секрета идентичности.
func (s *Storage) GetIdentitySecret(ctx context.Context, uid string) (string, error) {
	const op = "storage.GetIdentitySecret"

	var hash string
	err := s.DB.QueryRowContext(ctx,
		`SELECT secret_hash FROM identities WHERE uid = $1`, uid).Scan(&hash)
	if err != nil {
		return "", wrap(op, err)
	}
	return hash, nil
}

// ListIdentities возвращает все известные идентичности. Используется
// детектором будильников для обхода пользователей.
func (s *Storage) ListIdentities(ctx context.Context) ([]string, error) {
	const op = "storage.ListIdentities"

	rows, err := s.DB.QueryContext(ctx, `SELECT uid FROM identities ORDER BY created_at`)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []string
	for rows.Next() {
		var uid string
		if err := rows.Scan(&uid); err != nil {
			return nil, wrap(op, err)
		}
		result = append(result, uid)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap(op, err)
	}
	return result, nil
}
