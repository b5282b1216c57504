package login

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/medico/internal/models"
	"github.com/magabrotheeeer/medico/internal/services/auth"
)

type AuthServiceMock struct {
	mock.Mock
}

func (m *AuthServiceMock) Login(ctx context.Context, username, password string) (models.User, string, error) {
	args := m.Called(ctx, username, password)
	return args.Get(0).(models.User), args.String(1), args.Error(2)
}

type SessionMock struct {
	mock.Mock
}

func (m *SessionMock) Login(w http.ResponseWriter, r *http.Request, userUID, username string) error {
	args := m.Called(w, r, userUID, username)
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestLoginHandler_ServeHTTP(t *testing.T) {
	jane := models.User{UUID: "uid-1", Username: "jane"}

	tests := []struct {
		name           string
		target         string
		body           string
		setupMocks     func(*AuthServiceMock, *SessionMock)
		wantStatusCode int
		wantBody       string
	}{
		{
			name:   "valid login",
			target: "/accounts/login/",
			body:   `{"username":"jane","password":"s3cretpass"}`,
			setupMocks: func(a *AuthServiceMock, s *SessionMock) {
				a.On("Login", mock.Anything, "jane", "s3cretpass").Return(jane, "tok", nil).Once()
				s.On("Login", mock.Anything, mock.Anything, "uid-1", "jane").Return(nil).Once()
			},
			wantStatusCode: http.StatusOK,
			wantBody:       `{"token":"tok","username":"jane","next_url":"/users/jane/"}`,
		},
		{
			name:   "local next is kept",
			target: "/accounts/login/?next=%2Fusers%2Fpayments%2Fcheckout%2F",
			body:   `{"username":"jane","password":"s3cretpass"}`,
			setupMocks: func(a *AuthServiceMock, s *SessionMock) {
				a.On("Login", mock.Anything, "jane", "s3cretpass").Return(jane, "tok", nil).Once()
				s.On("Login", mock.Anything, mock.Anything, "uid-1", "jane").Return(nil).Once()
			},
			wantStatusCode: http.StatusOK,
			wantBody:       `{"token":"tok","username":"jane","next_url":"/users/payments/checkout/"}`,
		},
		{
			name:   "external next is ignored",
			target: "/accounts/login/?next=%2F%2Fevil.example",
			body:   `{"username":"jane","password":"s3cretpass"}`,
			setupMocks: func(a *AuthServiceMock, s *SessionMock) {
				a.On("Login", mock.Anything, "jane", "s3cretpass").Return(jane, "tok", nil).Once()
				s.On("Login", mock.Anything, mock.Anything, "uid-1", "jane").Return(nil).Once()
			},
			wantStatusCode: http.StatusOK,
			wantBody:       `{"token":"tok","username":"jane","next_url":"/users/jane/"}`,
		},
		{
			name:           "invalid json body",
			target:         "/accounts/login/",
			body:           `not a json`,
			setupMocks:     func(_ *AuthServiceMock, _ *SessionMock) {},
			wantStatusCode: http.StatusBadRequest,
			wantBody:       `{"error":{"message":"invalid request body","type":"RequestError"}}`,
		},
		{
			name:           "validation error - missing password",
			target:         "/accounts/login/",
			body:           `{"username":"jane"}`,
			setupMocks:     func(_ *AuthServiceMock, _ *SessionMock) {},
			wantStatusCode: http.StatusBadRequest,
			wantBody:       `{"error":{"message":"invalid request body","type":"RequestError","messages":["field Password is a required field"]}}`,
		},
		{
			name:   "wrong password",
			target: "/accounts/login/",
			body:   `{"username":"jane","password":"nope"}`,
			setupMocks: func(a *AuthServiceMock, _ *SessionMock) {
				a.On("Login", mock.Anything, "jane", "nope").Return(models.User{}, "", auth.ErrInvalidCredentials).Once()
			},
			wantStatusCode: http.StatusUnauthorized,
			wantBody:       `{"error":{"message":"Please enter a correct username and password.","type":"RequestError"}}`,
		},
		{
			name:   "store failure",
			target: "/accounts/login/",
			body:   `{"username":"jane","password":"s3cretpass"}`,
			setupMocks: func(a *AuthServiceMock, _ *SessionMock) {
				a.On("Login", mock.Anything, "jane", "s3cretpass").Return(models.User{}, "", errors.New("db down")).Once()
			},
			wantStatusCode: http.StatusInternalServerError,
			wantBody:       `{"error":{"message":"Something went wrong. Please refresh the page or try again later.","type":"ServerError"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := new(AuthServiceMock)
			session := new(SessionMock)
			tt.setupMocks(service, session)

			req := httptest.NewRequest(http.MethodPost, tt.target, bytes.NewBufferString(tt.body))
			req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "reqid123"))
			rec := httptest.NewRecorder()

			New(newNoopLogger(), service, session).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
			service.AssertExpectations(t)
			session.AssertExpectations(t)
		})
	}
}
