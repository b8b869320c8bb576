package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/magabrotheeeer/autopay-alert/internal/lib/sl"
)

type checkerFunc func(ctx context.Context) error

func (f checkerFunc) CheckDatabaseReady(ctx context.Context) error { return f(ctx) }

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
	}{
		{name: "база доступна", expectedStatus: http.StatusOK},
		{name: "база недоступна", err: errors.New("dial tcp: refused"), expectedStatus: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New(sl.Discard(), checkerFunc(func(context.Context) error { return tt.err }))
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
			assert.Equal(t, tt.expectedStatus, rr.Code)
		})
	}
}
