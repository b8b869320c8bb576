package read

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

// MockService реализует интерфейс read.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Get(ctx context.Context, uid, id string) (*models.Subscription, error) {
	args := m.Called(ctx, uid, id)
	if res := args.Get(0); res != nil {
		return res.(*models.Subscription), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestReadHandler(t *testing.T) {
	tests := []struct {
		name           string
		id             string
		uid            string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "успешное чтение подписки",
			id:   "sub-1",
			uid:  "uid-1",
			setupMock: func(m *MockService) {
				m.On("Get", mock.Anything, "uid-1", "sub-1").
					Return(&models.Subscription{ID: "sub-1", Name: "Netflix"}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"name":"Netflix"`,
		},
		{
			name: "подписка не найдена",
			id:   "missing",
			uid:  "uid-1",
			setupMock: func(m *MockService) {
				m.On("Get", mock.Anything, "uid-1", "missing").
					Return(nil, fmt.Errorf("storage.GetSubscription: %w", models.ErrNotFound))
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `{"status":"Error","error":"not found"}`,
		},
		{
			name:           "без идентичности хранилище не вызывается",
			id:             "sub-1",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(sl.Discard(), mockService)
			req := handlertest.Request(http.MethodGet, "/subscriptions/"+tt.id, "", tt.uid, "id", tt.id)
			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.expectedBody)
			mockService.AssertExpectations(t)
		})
	}
}
