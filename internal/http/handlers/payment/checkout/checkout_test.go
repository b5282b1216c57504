package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/medico/internal/lib/apperr"
	"github.com/magabrotheeeer/medico/internal/models"
	"github.com/magabrotheeeer/medico/internal/profile"
	"github.com/magabrotheeeer/medico/internal/services/payment"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Checkout(ctx context.Context, customer models.Customer, req payment.CheckoutRequest) (payment.CheckoutResult, error) {
	args := m.Called(ctx, customer, req)
	return args.Get(0).(payment.CheckoutResult), args.Error(1)
}

type FlashMock struct {
	mock.Mock
}

func (m *FlashMock) SetCheckoutSuccess(w http.ResponseWriter, r *http.Request) error {
	args := m.Called(w, r)
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestCheckoutHandler_ServeHTTP(t *testing.T) {
	jane := models.User{UUID: "uid-1", Username: "jane", Email: "jane@example.com"}
	customer := models.Customer{User: jane}

	tests := []struct {
		name           string
		body           string
		setupMocks     func(*ServiceMock, *FlashMock)
		wantStatusCode int
		wantBody       string
	}{
		{
			name: "one-time payment",
			body: `{"payment_method":"pm_123","reason_for_visit":"checkup"}`,
			setupMocks: func(s *ServiceMock, f *FlashMock) {
				s.On("Checkout", mock.Anything, customer, payment.CheckoutRequest{PaymentMethodID: "pm_123", ReasonForVisit: "checkup"}).
					Return(payment.CheckoutResult{Mode: models.CheckoutOneTime, Customer: models.RemoteCustomer{ID: "cus_1"}}, nil).Once()
				f.On("SetCheckoutSuccess", mock.Anything, mock.Anything).Return(nil).Once()
			},
			wantStatusCode: http.StatusOK,
			wantBody:       `{"next_url":"/users/payments/consultation/","customer_id":"cus_1","intent_status":"succeeded"}`,
		},
		{
			name: "subscription keeps fixed status",
			body: `{"payment_method":"pm_123","reason_for_visit":"checkup","plan_id":"price_monthly"}`,
			setupMocks: func(s *ServiceMock, f *FlashMock) {
				s.On("Checkout", mock.Anything, customer, payment.CheckoutRequest{PaymentMethodID: "pm_123", ReasonForVisit: "checkup", PlanID: "price_monthly"}).
					Return(payment.CheckoutResult{Mode: models.CheckoutSubscription, Customer: models.RemoteCustomer{ID: "cus_1"}}, nil).Once()
				f.On("SetCheckoutSuccess", mock.Anything, mock.Anything).Return(errors.New("cookie too large")).Once()
			},
			wantStatusCode: http.StatusOK,
			wantBody:       `{"next_url":"/users/payments/consultation/","customer_id":"cus_1","intent_status":"succeeded"}`,
		},
		{
			name: "form error",
			body: `{"payment_method":"pm_123","reason_for_visit":"too long"}`,
			setupMocks: func(s *ServiceMock, _ *FlashMock) {
				s.On("Checkout", mock.Anything, customer, mock.Anything).
					Return(payment.CheckoutResult{}, apperr.Form(payment.FormMessage, "You have exceeded the character limit. Please remove 3 characters.")).Once()
			},
			wantStatusCode: http.StatusBadRequest,
			wantBody:       `{"error":{"message":"Please fill in all the fields in the checkout form properly.","type":"FormError","messages":["You have exceeded the character limit. Please remove 3 characters."]}}`,
		},
		{
			name: "provider error",
			body: `{"payment_method":"pm_123","reason_for_visit":"checkup"}`,
			setupMocks: func(s *ServiceMock, _ *FlashMock) {
				s.On("Checkout", mock.Anything, customer, mock.Anything).
					Return(payment.CheckoutResult{}, apperr.Provider("Your card was declined.", errors.New("card_declined"))).Once()
			},
			wantStatusCode: http.StatusInternalServerError,
			wantBody:       `{"error":{"message":"Your card was declined.","type":"StripeError"}}`,
		},
		{
			name: "empty reason is accepted",
			body: `{"payment_method":"pm_123","reason_for_visit":""}`,
			setupMocks: func(s *ServiceMock, f *FlashMock) {
				s.On("Checkout", mock.Anything, customer, payment.CheckoutRequest{PaymentMethodID: "pm_123"}).
					Return(payment.CheckoutResult{Mode: models.CheckoutOneTime, Customer: models.RemoteCustomer{ID: "cus_1"}}, nil).Once()
				f.On("SetCheckoutSuccess", mock.Anything, mock.Anything).Return(nil).Once()
			},
			wantStatusCode: http.StatusOK,
			wantBody:       `{"next_url":"/users/payments/consultation/","customer_id":"cus_1","intent_status":"succeeded"}`,
		},
		{
			name:           "missing reason_for_visit",
			body:           `{"payment_method":"pm_123"}`,
			setupMocks:     func(_ *ServiceMock, _ *FlashMock) {},
			wantStatusCode: http.StatusBadRequest,
			wantBody:       `{"error":{"message":"` + apperr.CommonMessage + `","type":"RequestError"}}`,
		},
		{
			name:           "invalid json body",
			body:           `not a json`,
			setupMocks:     func(_ *ServiceMock, _ *FlashMock) {},
			wantStatusCode: http.StatusBadRequest,
			wantBody:       `{"error":{"message":"` + apperr.CommonMessage + `","type":"RequestError"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := new(ServiceMock)
			flash := new(FlashMock)
			tt.setupMocks(service, flash)

			handler := New(newNoopLogger(), service, flash, "/users/payments/consultation/")

			req := httptest.NewRequest(http.MethodPost, "/users/payments/checkout/", bytes.NewBufferString(tt.body))
			ctx := context.WithValue(req.Context(), middleware.RequestIDKey, "reqid123")
			ctx = profile.WithResolution(ctx, profile.Resolution{Kind: profile.Customer, User: &jane, Customer: &customer})
			req = req.WithContext(ctx)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
			service.AssertExpectations(t)
			flash.AssertExpectations(t)
		})
	}
}

func TestCheckoutHandler_NoCustomerProfile(t *testing.T) {
	service := new(ServiceMock)
	handler := New(newNoopLogger(), service, new(FlashMock), "/users/payments/consultation/")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/users/payments/checkout/", bytes.NewBufferString(`{}`)))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var got map[string]map[string]any
	assert.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, "ServerError", got["error"]["type"])
	service.AssertNotCalled(t, "Checkout", mock.Anything, mock.Anything, mock.Anything)
}
