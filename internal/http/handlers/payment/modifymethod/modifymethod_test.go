package modifymethod

import (
	"bytes"
	"context"
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

func (m *ServiceMock) ModifyPaymentMethod(ctx context.Context, customer models.Customer, paymentMethodID string) (string, error) {
	args := m.Called(ctx, customer, paymentMethodID)
	return args.String(0), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestModifyMethodHandler(t *testing.T) {
	jane := models.User{UUID: "uid-1", Username: "jane"}
	customer := models.Customer{User: jane}

	tests := []struct {
		name           string
		body           string
		mockID         string
		mockErr        error
		callService    bool
		wantPM         string
		wantStatusCode int
		wantBody       string
	}{
		{
			name:           "success",
			body:           `{"payment_method":"pm_456"}`,
			mockID:         "pm_456",
			callService:    true,
			wantPM:         "pm_456",
			wantStatusCode: http.StatusOK,
			wantBody:       `{"payment_method_id":"pm_456"}`,
		},
		{
			name:           "no subscription",
			body:           `{"payment_method":"pm_456"}`,
			mockErr:        apperr.NotFound("No subscription was found on this user."),
			callService:    true,
			wantPM:         "pm_456",
			wantStatusCode: http.StatusNotFound,
			wantBody:       `{"error":{"message":"No subscription was found on this user.","type":"NotFoundError"}}`,
		},
		{
			name:           "invalid body without subscription",
			body:           `{`,
			mockErr:        apperr.NotFound("No subscription was found on this user."),
			callService:    true,
			wantStatusCode: http.StatusNotFound,
			wantBody:       `{"error":{"message":"No subscription was found on this user.","type":"NotFoundError"}}`,
		},
		{
			name:           "invalid body with subscription",
			body:           `{`,
			mockErr:        apperr.Request(apperr.CommonMessage),
			callService:    true,
			wantStatusCode: http.StatusBadRequest,
			wantBody:       `{"error":{"message":"` + apperr.CommonMessage + `","type":"RequestError"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := new(ServiceMock)
			if tt.callService {
				service.On("ModifyPaymentMethod", mock.Anything, customer, tt.wantPM).Return(tt.mockID, tt.mockErr).Once()
			}

			req := httptest.NewRequest(http.MethodPost, "/users/payments/modify-payment-method/", bytes.NewBufferString(tt.body))
			req = req.WithContext(profile.WithResolution(req.Context(), profile.Resolution{Kind: profile.Customer, User: &jane, Customer: &customer}))
			rec := httptest.NewRecorder()

			New(newNoopLogger(), service).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
			service.AssertExpectations(t)
		})
	}
}
