// Package password хеширует секреты анонимных идентичностей и генерирует новые.
package password

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const secretBytes = 24

// GetHash возвращает bcrypt-хеш секрета.
func GetHash(secret string) (string, error) {
	const op = "password.GetHash"
	hashed, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return string(hashed), nil
}

// CompareHash возвращает nil, если secret соответствует хешу.
func CompareHash(hash, secret string) error {
	const op = "password.CompareHash"
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// NewSecret генерирует случайный секрет, который клиент хранит вместо пароля.
func NewSecret() (string, error) {
	const op = "password.NewSecret"
	buf := make([]byte, secretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
