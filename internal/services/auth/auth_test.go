package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/autopay-alert/internal/lib/jwt"
	"github.com/magabrotheeeer/autopay-alert/internal/lib/password"
	"github.com/magabrotheeeer/autopay-alert/internal/lib/sl"
	"github.com/magabrotheeeer/autopay-alert/internal/models"
	"github.com/magabrotheeeer/autopay-alert/internal/services/auth"
)

// Мок для IdentityRepository
type IdentityRepoMock struct {
	mock.Mock
}

func (m *IdentityRepoMock) CreateIdentity(ctx context.Context, uid, secretHash string) error {
	return m.Called(ctx, uid, secretHash).Error(0)
}

func (m *IdentityRepoMock) GetIdentitySecret(ctx context.Context, uid string) (string, error) {
	args := m.Called(ctx, uid)
	return args.String(0), args.Error(1)
}

func newService(r *IdentityRepoMock) *auth.Service {
	return auth.New(sl.Discard(), r, jwt.NewJWTMaker("test-secret", time.Hour))
}

func TestService_Anonymous(t *testing.T) {
	r := &IdentityRepoMock{}
	var storedHash string
	r.On("CreateIdentity", mock.Anything, mock.AnythingOfType("string"), mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) { storedHash = args.String(2) }).
		Return(nil).Once()

	s := newService(r)
	creds, err := s.Anonymous(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, creds.UID)
	assert.NotEmpty(t, creds.Secret)
	require.NoError(t, password.CompareHash(storedHash, creds.Secret))

	uid, err := s.ValidateToken(creds.Token)
	require.NoError(t, err)
	assert.Equal(t, creds.UID, uid)
}

func TestService_AnonymousStoreFailure(t *testing.T) {
	r := &IdentityRepoMock{}
	r.On("CreateIdentity", mock.Anything, mock.Anything, mock.Anything).Return(models.ErrUnavailable).Once()

	_, err := newService(r).Anonymous(context.Background())
	require.ErrorIs(t, err, models.ErrUnavailable)
}

func TestService_Token(t *testing.T) {
	hash, err := password.GetHash("right")
	require.NoError(t, err)

	tests := []struct {
		name    string
		secret  string
		setup   func(r *IdentityRepoMock)
		wantErr error
	}{
		{
			name:   "valid secret",
			secret: "right",
			setup: func(r *IdentityRepoMock) {
				r.On("GetIdentitySecret", mock.Anything, "u1").Return(hash, nil).Once()
			},
		},
		{
			name:   "wrong secret",
			secret: "wrong",
			setup: func(r *IdentityRepoMock) {
				r.On("GetIdentitySecret", mock.Anything, "u1").Return(hash, nil).Once()
			},
			wantErr: auth.ErrInvalidCredentials,
		},
		{
			name:   "unknown identity",
			secret: "right",
			setup: func(r *IdentityRepoMock) {
				r.On("GetIdentitySecret", mock.Anything, "u1").Return("", models.ErrNotFound).Once()
			},
			wantErr: auth.ErrInvalidCredentials,
		},
		{
			name:   "store unavailable",
			secret: "right",
			setup: func(r *IdentityRepoMock) {
				r.On("GetIdentitySecret", mock.Anything, "u1").Return("", errors.Join(models.ErrUnavailable)).Once()
			},
			wantErr: models.ErrUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &IdentityRepoMock{}
			tt.setup(r)
			s := newService(r)

			token, err := s.Token(context.Background(), "u1", tt.secret)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			uid, err := s.ValidateToken(token)
			require.NoError(t, err)
			assert.Equal(t, "u1", uid)
		})
	}
}

func TestService_ValidateTokenRejectsGarbage(t *testing.T) {
	_, err := newService(&IdentityRepoMock{}).ValidateToken("not-a-token")
	assert.ErrorIs(t, err, jwt.ErrInvalidToken)
}
