package middlewarectx_test

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

	"github.com/magabrotheeeer/medico/internal/http/middlewarectx"
	"github.com/magabrotheeeer/medico/internal/models"
	"github.com/magabrotheeeer/medico/internal/profile"
)

type TokenValidatorMock struct {
	mock.Mock
}

func (m *TokenValidatorMock) ValidateToken(ctx context.Context, token string) (string, string, error) {
	args := m.Called(ctx, token)
	return args.String(0), args.String(1), args.Error(2)
}

type SessionReaderMock struct {
	mock.Mock
}

func (m *SessionReaderMock) Principal(r *http.Request) (string, string, bool) {
	args := m.Called(r)
	return args.String(0), args.String(1), args.Bool(2)
}

type ResolverMock struct {
	mock.Mock
}

func (m *ResolverMock) Resolve(ctx context.Context, userUID string) (profile.Resolution, error) {
	args := m.Called(ctx, userUID)
	return args.Get(0).(profile.Resolution), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestAuthenticate(t *testing.T) {
	tests := []struct {
		name           string
		authHeader     string
		setupMocks     func(*TokenValidatorMock, *SessionReaderMock)
		wantStatusCode int
		wantUID        string
		wantCalled     bool
	}{
		{
			name:       "valid bearer token",
			authHeader: "Bearer validtoken",
			setupMocks: func(tv *TokenValidatorMock, _ *SessionReaderMock) {
				tv.On("ValidateToken", mock.Anything, "validtoken").Return("uid-1", "jane", nil).Once()
			},
			wantStatusCode: http.StatusOK,
			wantUID:        "uid-1",
			wantCalled:     true,
		},
		{
			name:       "invalid token",
			authHeader: "Bearer expired",
			setupMocks: func(tv *TokenValidatorMock, _ *SessionReaderMock) {
				tv.On("ValidateToken", mock.Anything, "expired").Return("", "", errors.New("token is expired")).Once()
			},
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "invalid header prefix",
			authHeader:     "Basic abc",
			setupMocks:     func(_ *TokenValidatorMock, _ *SessionReaderMock) {},
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name: "session cookie",
			setupMocks: func(_ *TokenValidatorMock, sr *SessionReaderMock) {
				sr.On("Principal", mock.Anything).Return("uid-2", "john", true).Once()
			},
			wantStatusCode: http.StatusOK,
			wantUID:        "uid-2",
			wantCalled:     true,
		},
		{
			name: "anonymous passes through",
			setupMocks: func(_ *TokenValidatorMock, sr *SessionReaderMock) {
				sr.On("Principal", mock.Anything).Return("", "", false).Once()
			},
			wantStatusCode: http.StatusOK,
			wantCalled:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens := new(TokenValidatorMock)
			sessions := new(SessionReaderMock)
			tt.setupMocks(tokens, sessions)

			called := false
			var gotUID string
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				gotUID = middlewarectx.UserUIDFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/users/subscription/", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()

			middlewarectx.Authenticate(tokens, sessions, newNoopLogger())(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)
			assert.Equal(t, tt.wantCalled, called)
			assert.Equal(t, tt.wantUID, gotUID)
			tokens.AssertExpectations(t)
			sessions.AssertExpectations(t)
		})
	}
}

func TestResolveProfile(t *testing.T) {
	jane := models.User{UUID: "uid-1", Username: "jane"}
	customer := models.Customer{User: jane}

	t.Run("stores resolution", func(t *testing.T) {
		resolver := new(ResolverMock)
		resolver.On("Resolve", mock.Anything, "uid-1").
			Return(profile.Resolution{Kind: profile.Customer, User: &jane, Customer: &customer}, nil).Once()

		var got profile.Resolution
		next := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			got = profile.FromContext(r.Context())
		})

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(context.WithValue(req.Context(), middlewarectx.UserUID, "uid-1"))
		middlewarectx.ResolveProfile(resolver, newNoopLogger())(next).ServeHTTP(httptest.NewRecorder(), req)

		assert.Equal(t, profile.Customer, got.Kind)
		resolver.AssertExpectations(t)
	})

	t.Run("store failure is a server error", func(t *testing.T) {
		resolver := new(ResolverMock)
		resolver.On("Resolve", mock.Anything, "").Return(profile.Resolution{}, errors.New("db down")).Once()

		rec := httptest.NewRecorder()
		middlewarectx.ResolveProfile(resolver, newNoopLogger())(http.NotFoundHandler()).
			ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, rec.Body.String(), `"type":"ServerError"`)
	})
}

func withResolution(req *http.Request, res profile.Resolution) *http.Request {
	return req.WithContext(profile.WithResolution(req.Context(), res))
}

func TestLoginRequired(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	h := middlewarectx.LoginRequired(ok)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/payments/checkout/?plan=x", nil))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/accounts/login/?next=%2Fusers%2Fpayments%2Fcheckout%2F%3Fplan%3Dx", rec.Header().Get("Location"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/users/payments/checkout/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	user := models.User{UUID: "uid-1", Username: "jane"}
	h.ServeHTTP(rec, withResolution(httptest.NewRequest(http.MethodPost, "/", nil), profile.Resolution{Kind: profile.Anonymous, User: &user}))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireProfile(t *testing.T) {
	user := models.User{UUID: "uid-1", Username: "dr house"}
	pro := models.MedicalProfessional{User: user}
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	rec := httptest.NewRecorder()
	req := withResolution(httptest.NewRequest(http.MethodPost, "/users/payments/checkout/", nil),
		profile.Resolution{Kind: profile.MedicalPro, User: &user, MedicalPro: &pro})
	middlewarectx.RequireProfile(profile.Customer)(ok).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/users/dr%20house/", rec.Header().Get("Location"))

	rec = httptest.NewRecorder()
	middlewarectx.RequireProfile(profile.MedicalPro)(ok).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimitMiddleware(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	h := middlewarectx.RateLimitMiddleware(0.001, 1, newNoopLogger())(ok)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}
