package list

import (
	"context"
	"errors"
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

func (m *MockService) List(ctx context.Context, uid string) ([]*models.Subscription, error) {
	args := m.Called(ctx, uid)
	res, _ := args.Get(0).([]*models.Subscription)
	return res, args.Error(1)
}

func TestListHandler(t *testing.T) {
	tests := []struct {
		name           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "список подписок",
			setupMock: func(m *MockService) {
				m.On("List", mock.Anything, "uid-1").Return([]*models.Subscription{
					{ID: "a", Name: "Netflix"}, {ID: "b", Name: "Spotify"},
				}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"name":"Spotify"`,
		},
		{
			name: "ошибка сервиса",
			setupMock: func(m *MockService) {
				m.On("List", mock.Anything, "uid-1").Return(nil, errors.New("boom"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"status":"Error","error":"internal error"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			rr := httptest.NewRecorder()
			New(sl.Discard(), mockService).ServeHTTP(rr, handlertest.Request(http.MethodGet, "/subscriptions", "", "uid-1"))

			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.expectedBody)
			mockService.AssertExpectations(t)
		})
	}
}
