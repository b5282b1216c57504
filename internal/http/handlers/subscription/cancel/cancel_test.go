package cancel

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/medico/internal/lib/apperr"
	"github.com/magabrotheeeer/medico/internal/models"
	"github.com/magabrotheeeer/medico/internal/profile"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) CancelSubscription(ctx context.Context, customer models.Customer) (models.RemoteSubscription, error) {
	args := m.Called(ctx, customer)
	return args.Get(0).(models.RemoteSubscription), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestCancelHandler(t *testing.T) {
	jane := models.User{UUID: "uid-1", Username: "jane"}
	customer := models.Customer{User: jane}

	tests := []struct {
		name           string
		mockSub        models.RemoteSubscription
		mockErr        error
		wantStatusCode int
		wantBody       string
	}{
		{
			name:           "success",
			mockSub:        models.RemoteSubscription{ID: "sub_1", Status: models.SubscriptionCanceled},
			wantStatusCode: http.StatusOK,
			wantBody:       `{"next_url":"/","deleted_sub_id":"sub_1"}`,
		},
		{
			name:           "no subscription",
			mockErr:        apperr.NotFound("No subscription was found on this user."),
			wantStatusCode: http.StatusNotFound,
			wantBody:       `{"error":{"message":"No subscription was found on this user.","type":"NotFoundError"}}`,
		},
		{
			name:           "provider error",
			mockErr:        apperr.Provider("No such subscription: 'sub_1'", errors.New("resource_missing")),
			wantStatusCode: http.StatusInternalServerError,
			wantBody:       `{"error":{"message":"No such subscription: 'sub_1'","type":"StripeError"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := new(ServiceMock)
			service.On("CancelSubscription", mock.Anything, customer).Return(tt.mockSub, tt.mockErr).Once()

			req := httptest.NewRequest(http.MethodPost, "/users/cancel-subscription/", nil)
			req = req.WithContext(profile.WithResolution(req.Context(), profile.Resolution{Kind: profile.Customer, User: &jane, Customer: &customer}))
			rec := httptest.NewRecorder()

			New(newNoopLogger(), service, "/").ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
			service.AssertExpectations(t)
		})
	}
}
