// Package auth выдаёт анонимные идентичности и JWT для них.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/autopay-alert/internal/lib/jwt"
	"github.com/magabrotheeeer/autopay-alert/internal/lib/password"
	"github.com/magabrotheeeer/autopay-alert/internal/models"
)

// ErrInvalidCredentials — неизвестная идентичность или неверный секрет.
var ErrInvalidCredentials = errors.New("invalid credentials")

// IdentityRepository хранит идентичности и хэши их секретов.
type IdentityRepository interface {
	CreateIdentity(ctx context.Context, uid, secretHash string) error
	GetIdentitySecret(ctx context.Context, uid string) (string, error)
}

// Credentials возвращаются клиенту один раз при создании идентичности.
// Secret позволяет позже перевыпустить токен.
type Credentials struct {
	UID    string `json:"uid"`
	Token  string `json:"token"`
	Secret string `json:"secret"`
}

// Service отвечает за создание идентичностей и валидацию JWT.
type Service struct {
	repo     IdentityRepository
	jwtMaker jwt.Maker
	log      *slog.Logger
}

// New создаёт Service.
func New(log *slog.Logger, repo IdentityRepository, jwtMaker jwt.Maker) *Service {
	return &Service{repo: repo, jwtMaker: jwtMaker, log: log}
}

// Anonymous создаёт новую идентичность со случайным секретом.
func (s *Service) Anonymous(ctx context.Context) (*Credentials, error) {
	const op = "auth.Anonymous"

	secret, err := password.NewSecret()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	hash, err := password.GetHash(secret)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	uid := uuid.NewString()
	if err := s.repo.CreateIdentity(ctx, uid, hash); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	token, err := s.jwtMaker.GenerateToken(uid)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("anonymous identity created", slog.String("user_uid", uid))
	return &Credentials{UID: uid, Token: token, Secret: secret}, nil
}

// Token перевыпускает JWT по uid и секрету.
func (s *Service) Token(ctx context.Context, uid, secret string) (string, error) {
	const op = "auth.Token"

	hash, err := s.repo.GetIdentitySecret(ctx, uid)
	if errors.Is(err, models.ErrNotFound) {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if err := password.CompareHash(hash, secret); err != nil {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}
	token, err := s.jwtMaker.GenerateToken(uid)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return token, nil
}

// ValidateToken проверяет JWT и возвращает uid идентичности.
func (s *Service) ValidateToken(token string) (string, error) {
	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		return "", err
	}
	return claims.UID(), nil
}
