package update

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/autopay-alert/internal/http/handlers/handlertest"
	"github.com/magabrotheeeer/autopay-alert/internal/lib/sl"
	"github.com/magabrotheeeer/autopay-alert/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Update(ctx context.Context, uid string, req models.DummyProfile) (models.UserProfile, error) {
	args := m.Called(ctx, uid, req)
	return args.Get(0).(models.UserProfile), args.Error(1)
}

func TestUpdateHandler(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "профиль сохранён",
			body: `{"name":"Ann","currency":"€","language":"fr","timezone":"Europe/Paris"}`,
			setupMock: func(m *MockService) {
				m.On("Update", mock.Anything, "uid-1", models.DummyProfile{
					Name: "Ann", Currency: "€", Language: "fr", Timezone: "Europe/Paris",
				}).Return(models.UserProfile{Name: "Ann", Currency: "€", Language: "fr", Timezone: "Europe/Paris", AlarmSound: "radar"}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"timezone":"Europe/Paris"`,
		},
		{
			name:           "неизвестный язык",
			body:           `{"currency":"$","language":"de","timezone":"UTC"}`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   "field Language must be one of [en jp es fr]",
		},
		{
			name: "неизвестный пояс",
			body: `{"currency":"$","language":"en","timezone":"Mars/Olympus"}`,
			setupMock: func(m *MockService) {
				m.On("Update", mock.Anything, "uid-1", mock.Anything).
					Return(models.UserProfile{}, fmt.Errorf("profile.Update: %w: unknown time zone", models.ErrInvalidInput))
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "unknown time zone",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			rr := httptest.NewRecorder()
			New(sl.Discard(), mockService).ServeHTTP(rr, handlertest.Request(http.MethodPut, "/profile", tt.body, "uid-1"))

			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.expectedBody)
			mockService.AssertExpectations(t)
		})
	}
}
