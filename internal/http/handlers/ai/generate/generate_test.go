package generate

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/autopay-alert/internal/ai"
	"github.com/magabrotheeeer/autopay-alert/internal/http/handlers/handlertest"
	"github.com/magabrotheeeer/autopay-alert/internal/lib/sl"
	"github.com/magabrotheeeer/autopay-alert/internal/models"
	"github.com/magabrotheeeer/autopay-alert/internal/services/assistant"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Generate(ctx context.Context, uid string, req assistant.Request) (*assistant.Result, error) {
	args := m.Called(ctx, uid, req)
	res, _ := args.Get(0).(*assistant.Result)
	return res, args.Error(1)
}

func TestGenerateHandler(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "план задачи",
			body: `{"kind":"task-plan","title":"Move out"}`,
			setupMock: func(m *MockService) {
				m.On("Generate", mock.Anything, "uid-1", assistant.Request{Kind: ai.SlotTaskPlan, Title: "Move out"}).
					Return(&assistant.Result{Kind: ai.SlotTaskPlan, Text: "**Analysis**\n\n• Pack boxes", Raw: "Pack boxes."}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"kind":"task-plan"`,
		},
		{
			name: "заглушка при недоступном сервисе",
			body: `{"kind":"briefing"}`,
			setupMock: func(m *MockService) {
				m.On("Generate", mock.Anything, "uid-1", mock.Anything).
					Return(&assistant.Result{Kind: ai.SlotBriefing, Text: assistant.FallbackText, Raw: assistant.FallbackText, Fallback: true}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"fallback":true`,
		},
		{
			name:           "нет вида запроса",
			body:           `{"title":"x"}`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   "field Kind is a required field",
		},
		{
			name: "превышен лимит",
			body: `{"kind":"briefing"}`,
			setupMock: func(m *MockService) {
				m.On("Generate", mock.Anything, "uid-1", mock.Anything).
					Return(nil, fmt.Errorf("assistant.Generate: %w", ai.ErrRateLimited))
			},
			expectedStatus: http.StatusTooManyRequests,
		},
		{
			name: "неизвестный вид",
			body: `{"kind":"poem"}`,
			setupMock: func(m *MockService) {
				m.On("Generate", mock.Anything, "uid-1", mock.Anything).
					Return(nil, fmt.Errorf("assistant.Prompt: %w: unknown kind", models.ErrInvalidInput))
			},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			rr := httptest.NewRecorder()
			New(sl.Discard(), mockService).ServeHTTP(rr, handlertest.Request(http.MethodPost, "/ai/generate", tt.body, "uid-1"))

			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.expectedBody)
			mockService.AssertExpectations(t)
		})
	}
}
