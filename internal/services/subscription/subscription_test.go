package subscription

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/autopay-alert/internal/lib/sl"
	"github.com/magabrotheeeer/autopay-alert/internal/models"
	"github.com/magabrotheeeer/autopay-alert/internal/services/events"
	"github.com/magabrotheeeer/autopay-alert/internal/storage"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) CreateSubscription(ctx context.Context, sub models.Subscription) (*models.Subscription, error) {
	args := m.Called(ctx, sub)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}

func (m *RepoMock) GetSubscription(ctx context.Context, uid, id string) (*models.Subscription, error) {
	args := m.Called(ctx, uid, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}

func (m *RepoMock) ListSubscriptions(ctx context.Context, uid string) ([]*models.Subscription, error) {
	args := m.Called(ctx, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Subscription), args.Error(1)
}

func (m *RepoMock) UpdateSubscription(ctx context.Context, sub models.Subscription) error {
	return m.Called(ctx, sub).Error(0)
}

func (m *RepoMock) SetDescription(ctx context.Context, uid, id, description string) error {
	return m.Called(ctx, uid, id, description).Error(0)
}

func (m *RepoMock) DeleteSubscription(ctx context.Context, uid, id string) error {
	return m.Called(ctx, uid, id).Error(0)
}

// RenewSubscription применяет renew к подписке, заданной в Return.
func (m *RepoMock) RenewSubscription(ctx context.Context, uid, id string, renew storage.RenewFunc) (*models.Subscription, *models.PaymentHistory, error) {
	args := m.Called(ctx, uid, id)
	if err := args.Error(1); err != nil {
		return nil, nil, err
	}
	sub, rec, err := renew(*args.Get(0).(*models.Subscription))
	if err != nil {
		return nil, nil, err
	}
	rec.ID = "h1"
	return &sub, &rec, nil
}

func (m *RepoMock) DeletePayment(ctx context.Context, uid, subscriptionID, paymentID string, undo storage.UndoFunc) (*models.Subscription, error) {
	args := m.Called(ctx, uid, subscriptionID, paymentID)
	if err := args.Error(1); err != nil {
		return nil, err
	}
	sub, err := undo(*args.Get(0).(*models.Subscription), models.PaymentHistory{ID: paymentID, SubscriptionID: subscriptionID})
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (m *RepoMock) ListPayments(ctx context.Context, uid, subscriptionID string) ([]*models.PaymentHistory, error) {
	args := m.Called(ctx, uid, subscriptionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PaymentHistory), args.Error(1)
}

type CacheMock struct{ mock.Mock }

func (m *CacheMock) Get(ctx context.Context, key string, result any) (bool, error) {
	args := m.Called(ctx, key, result)
	return args.Bool(0), args.Error(1)
}

func (m *CacheMock) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	return m.Called(ctx, key, value, expiration).Error(0)
}

func (m *CacheMock) Invalidate(ctx context.Context, keys ...string) error {
	return m.Called(ctx, keys).Error(0)
}

type alarmsStub struct {
	resolved []string
	active   map[string]bool
}

func (a *alarmsStub) Resolve(_, id string) bool {
	a.resolved = append(a.resolved, id)
	return a.active[id]
}

type fixedLocator struct{ loc *time.Location }

func (f fixedLocator) Location(context.Context, string) (*time.Location, error) { return f.loc, nil }

func newService(r *RepoMock, c Cache, a *alarmsStub, hub *events.Hub) *Service {
	return New(sl.Discard(), r, c, a, hub, fixedLocator{loc: time.UTC})
}

func netflix() *models.Subscription {
	return &models.Subscription{
		ID:              "s1",
		UserUID:         "u1",
		Name:            "Netflix",
		Cost:            decimal.RequireFromString("15.49"),
		Currency:        "$",
		Cycle:           models.CycleMonthly,
		NextBillingDate: "2024-01-31",
		Priority:        models.PriorityHigh,
	}
}

func TestService_Create(t *testing.T) {
	seven := 7
	zero := 0

	tests := []struct {
		name    string
		req     models.DummySubscription
		setup   func(r *RepoMock)
		wantErr error
	}{
		{
			name: "success",
			req: models.DummySubscription{
				Name: "Netflix", Cost: decimal.RequireFromString("15.499"), Currency: "$",
				Cycle: models.CycleMonthly, CustomDays: &seven, NextBillingDate: "2024-02-01", Priority: models.PriorityHigh,
			},
			setup: func(r *RepoMock) {
				r.On("CreateSubscription", mock.Anything, mock.MatchedBy(func(s models.Subscription) bool {
					return s.UserUID == "u1" && s.CustomDays == nil && s.Cost.Equal(decimal.RequireFromString("15.5"))
				})).Return(netflix(), nil).Once()
			},
		},
		{
			name: "custom without days",
			req: models.DummySubscription{
				Name: "Gym", Currency: "$", Cycle: models.CycleCustom, CustomDays: &zero,
				NextBillingDate: "2024-02-01", Priority: models.PriorityLow,
			},
			setup:   func(*RepoMock) {},
			wantErr: models.ErrInvalidInput,
		},
		{
			name: "bad date",
			req: models.DummySubscription{
				Name: "Gym", Currency: "$", Cycle: models.CycleMonthly,
				NextBillingDate: "01-02-2024", Priority: models.PriorityLow,
			},
			setup:   func(*RepoMock) {},
			wantErr: models.ErrInvalidInput,
		},
		{
			name: "negative cost",
			req: models.DummySubscription{
				Name: "Gym", Cost: decimal.NewFromInt(-1), Currency: "$", Cycle: models.CycleMonthly,
				NextBillingDate: "2024-02-01", Priority: models.PriorityLow,
			},
			setup:   func(*RepoMock) {},
			wantErr: models.ErrInvalidInput,
		},
		{
			name: "store unavailable",
			req: models.DummySubscription{
				Name: "Gym", Currency: "$", Cycle: models.CycleYearly,
				NextBillingDate: "2024-02-01", Priority: models.PriorityLow,
			},
			setup: func(r *RepoMock) {
				r.On("CreateSubscription", mock.Anything, mock.Anything).Return(nil, models.ErrUnavailable).Once()
			},
			wantErr: models.ErrUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &RepoMock{}
			tt.setup(r)
			s := newService(r, nil, &alarmsStub{}, events.NewHub())

			got, err := s.Create(context.Background(), "u1", tt.req)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Contains(t, err.Error(), "subscription.Create")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "s1", got.ID)
			r.AssertExpectations(t)
		})
	}
}

func TestService_ListUsesCache(t *testing.T) {
	r, c := &RepoMock{}, &CacheMock{}
	subs := []*models.Subscription{netflix()}

	c.On("Get", mock.Anything, "subs:u1", mock.Anything).Return(false, nil).Once()
	r.On("ListSubscriptions", mock.Anything, "u1").Return(subs, nil).Once()
	c.On("Set", mock.Anything, "subs:u1", subs, time.Duration(0)).Return(nil).Once()

	c.On("Get", mock.Anything, "subs:u1", mock.Anything).Run(func(args mock.Arguments) {
		*(args.Get(2).(*[]*models.Subscription)) = []*models.Subscription{netflix()}
	}).Return(true, nil).Once()

	s := newService(r, c, &alarmsStub{}, events.NewHub())

	got, err := s.List(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = s.List(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "u1", got[0].UserUID)

	r.AssertExpectations(t)
	c.AssertExpectations(t)
}

func TestService_RenewResolvesAlarm(t *testing.T) {
	r, c := &RepoMock{}, &CacheMock{}
	a := &alarmsStub{active: map[string]bool{"s1": true}}
	hub := events.NewHub()
	ch, unsubscribe := hub.Subscribe("u1")
	defer unsubscribe()

	now := time.Date(2024, 1, 30, 9, 0, 0, 0, time.UTC)
	r.On("RenewSubscription", mock.Anything, "u1", "s1").Return(netflix(), nil).Once()
	c.On("Invalidate", mock.Anything, []string{"subs:u1"}).Return(nil)

	s := newService(r, c, a, hub).WithClock(func() time.Time { return now })

	sub, rec, err := s.Renew(context.Background(), "u1", "s1")
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", sub.NextBillingDate)
	assert.Equal(t, now, rec.Date)
	assert.True(t, rec.Amount.Equal(decimal.RequireFromString("15.49")))
	assert.Equal(t, []string{"s1"}, a.resolved)

	kinds := []string{(<-ch).Kind, (<-ch).Kind, (<-ch).Kind}
	assert.Equal(t, []string{events.KindAlarms, events.KindPayments, events.KindSubscriptions}, kinds)
	c.AssertExpectations(t)
}

func TestService_RenewNotFound(t *testing.T) {
	r := &RepoMock{}
	a := &alarmsStub{}
	r.On("RenewSubscription", mock.Anything, "u1", "nope").Return(nil, models.ErrNotFound).Once()

	s := newService(r, nil, a, events.NewHub())
	_, _, err := s.Renew(context.Background(), "u1", "nope")
	require.ErrorIs(t, err, models.ErrNotFound)
	assert.Empty(t, a.resolved)
}

func TestService_DeletePaymentRewinds(t *testing.T) {
	r := &RepoMock{}
	sub := netflix()
	sub.NextBillingDate = "2024-03-31"
	r.On("DeletePayment", mock.Anything, "u1", "s1", "h1").Return(sub, nil).Once()

	s := newService(r, nil, &alarmsStub{}, events.NewHub())
	got, err := s.DeletePayment(context.Background(), "u1", "s1", "h1")
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", got.NextBillingDate)
}

func TestService_DeleteResolvesAlarm(t *testing.T) {
	r := &RepoMock{}
	a := &alarmsStub{}
	r.On("DeleteSubscription", mock.Anything, "u1", "s1").Return(nil).Once()

	s := newService(r, nil, a, events.NewHub())
	require.NoError(t, s.Delete(context.Background(), "u1", "s1"))
	assert.Equal(t, []string{"s1"}, a.resolved)

	r.On("DeleteSubscription", mock.Anything, "u1", "s2").Return(errors.New("boom")).Once()
	require.Error(t, s.Delete(context.Background(), "u1", "s2"))
}

func TestService_UpdateKeepsDescription(t *testing.T) {
	r := &RepoMock{}
	current := netflix()
	current.Description = "analysis"
	r.On("GetSubscription", mock.Anything, "u1", "s1").Return(current, nil).Once()
	r.On("UpdateSubscription", mock.Anything, mock.MatchedBy(func(s models.Subscription) bool {
		return s.ID == "s1" && s.Description == "analysis" && s.Name == "Netflix 4K"
	})).Return(nil).Once()

	s := newService(r, nil, &alarmsStub{}, events.NewHub())
	got, err := s.Update(context.Background(), "u1", "s1", models.DummySubscription{
		Name: "Netflix 4K", Cost: decimal.NewFromInt(20), Currency: "$", Cycle: models.CycleMonthly,
		NextBillingDate: "2024-02-01", Priority: models.PriorityHigh,
	})
	require.NoError(t, err)
	assert.Equal(t, "analysis", got.Description)
	r.AssertExpectations(t)
}
