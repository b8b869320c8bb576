package assistant

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/autopay-alert/internal/ai"
	"github.com/magabrotheeeer/autopay-alert/internal/lib/sl"
	"github.com/magabrotheeeer/autopay-alert/internal/models"
	"github.com/magabrotheeeer/autopay-alert/internal/services/subscription"
)

type GeneratorMock struct{ mock.Mock }

func (m *GeneratorMock) Generate(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

type profiles struct{ p models.UserProfile }

func (p profiles) Get(context.Context, string) (models.UserProfile, error) { return p.p, nil }

type SubsMock struct{ mock.Mock }

func (m *SubsMock) List(ctx context.Context, uid string) ([]*models.Subscription, error) {
	args := m.Called(ctx, uid)
	return args.Get(0).([]*models.Subscription), args.Error(1)
}

func (m *SubsMock) Get(ctx context.Context, uid, id string) (*models.Subscription, error) {
	args := m.Called(ctx, uid, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}

func (m *SubsMock) SetDescription(ctx context.Context, uid, id, description string) error {
	return m.Called(ctx, uid, id, description).Error(0)
}

func (m *SubsMock) Overview(ctx context.Context, uid string) (*subscription.Overview, error) {
	args := m.Called(ctx, uid)
	return args.Get(0).(*subscription.Overview), args.Error(1)
}

type tasks []*models.Task

func (t tasks) Pending(context.Context, string) ([]*models.Task, error) { return t, nil }

type denyAll struct{}

func (denyAll) Allow(string) bool { return false }

func newService(g ai.Generator, subs *SubsMock, limiter Limiter) *Service {
	p := models.DefaultProfile("u1")
	p.Language = "jp"
	p.Currency = "¥"
	return New(sl.Discard(), g, profiles{p: p}, subs, tasks{{ID: "t1"}, {ID: "t2"}}, limiter, nil)
}

func TestService_Prompt(t *testing.T) {
	subs := &SubsMock{}
	subs.On("List", mock.Anything, "u1").Return([]*models.Subscription{
		{Name: "Netflix", Cost: decimal.RequireFromString("15.49")},
		{Name: "Gym", Cost: decimal.NewFromInt(30)},
	}, nil)
	subs.On("Get", mock.Anything, "u1", "s1").Return(&models.Subscription{Name: "Spotify", Cost: decimal.RequireFromString("9.99")}, nil)
	subs.On("Overview", mock.Anything, "u1").Return(&subscription.Overview{MonthlyTotal: decimal.RequireFromString("45.49")}, nil)

	s := newService(&GeneratorMock{}, subs, nil)

	tests := []struct {
		name    string
		req     Request
		want    string
		wantErr error
	}{
		{
			name: "task checklist",
			req:  Request{Kind: ai.SlotTaskPlan, Title: "Move house"},
			want: `Create a concise checklist for the task: "Move house". Language: jp`,
		},
		{
			name: "task enhance",
			req:  Request{Kind: ai.SlotTaskPlan, Title: "Move", Description: "pack boxes"},
			want: `Enhance and translate into jp: "pack boxes"`,
		},
		{
			name: "analysis of stored subscription",
			req:  Request{Kind: ai.SlotSubAnalysis, SubscriptionID: "s1"},
			want: `Analyze subscription "Spotify" at 9.99. Worth it? Alternatives? Brief. Language: jp`,
		},
		{
			name: "review",
			req:  Request{Kind: ai.SlotSubReview},
			want: "Review subs: Netflix (15.49), Gym (30). Save money tips. Language: jp",
		},
		{
			name: "briefing",
			req:  Request{Kind: ai.SlotBriefing},
			want: "Briefing: 2 tasks, ¥45 monthly burn. 2 sentences. Anime commander style. Language: jp",
		},
		{
			name:    "missing title",
			req:     Request{Kind: ai.SlotTaskPlan},
			wantErr: models.ErrInvalidInput,
		},
		{
			name:    "unknown kind",
			req:     Request{Kind: "poem"},
			wantErr: models.ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Prompt(context.Background(), "u1", tt.req)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestService_GenerateFormatsAndStoresAnalysis(t *testing.T) {
	g := &GeneratorMock{}
	subs := &SubsMock{}
	subs.On("Get", mock.Anything, "u1", "s1").Return(&models.Subscription{Name: "Spotify", Cost: decimal.NewFromInt(10)}, nil)
	g.On("Generate", mock.Anything, mock.Anything).Return("Fine value. Keep it.", nil).Once()
	subs.On("SetDescription", mock.Anything, "u1", "s1", "**Analysis**\n\n• Fine value\n• Keep it").Return(nil).Once()

	s := newService(g, subs, nil)
	res, err := s.Generate(context.Background(), "u1", Request{Kind: ai.SlotSubAnalysis, SubscriptionID: "s1"})
	require.NoError(t, err)
	assert.False(t, res.Fallback)
	assert.Equal(t, "Fine value. Keep it.", res.Raw)
	subs.AssertExpectations(t)
}

func TestService_GenerateFallback(t *testing.T) {
	tests := []struct {
		name string
		text string
		err  error
	}{
		{name: "transport error", err: &ai.TransportError{Status: 503, Message: "overloaded"}},
		{name: "empty text", text: "   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := &GeneratorMock{}
			g.On("Generate", mock.Anything, mock.Anything).Return(tt.text, tt.err).Once()

			s := newService(g, &SubsMock{}, nil)
			res, err := s.Generate(context.Background(), "u1", Request{Kind: ai.SlotFreeForm, Prompt: "hi"})
			require.NoError(t, err)
			assert.True(t, res.Fallback)
			assert.Equal(t, FallbackText, res.Text)
		})
	}
}

func TestService_GenerateRateLimited(t *testing.T) {
	g := &GeneratorMock{}
	s := newService(g, &SubsMock{}, denyAll{})

	_, err := s.Generate(context.Background(), "u1", Request{Kind: ai.SlotFreeForm, Prompt: "hi"})
	require.True(t, errors.Is(err, ai.ErrRateLimited))
	g.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}
