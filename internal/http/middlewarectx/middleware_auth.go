// Package middlewarectx содержит HTTP middleware: аутентификацию по JWT или
// cookie-сессии, определение профиля пользователя, проверку входа и вида
// профиля, ограничение частоты запросов.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/medico/internal/http/response"
	"github.com/magabrotheeeer/medico/internal/lib/apperr"
	"github.com/magabrotheeeer/medico/internal/lib/sl"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

const (
	// UserUID ключ для идентификатора пользователя в контексте
	UserUID Key = "user_uid"
	// Username ключ для имени пользователя в контексте
	Username Key = "username"
)

// TokenValidator проверяет JWT из заголовка Authorization.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (userUID, username string, err error)
}

// SessionReader читает пользователя из cookie-сессии.
type SessionReader interface {
	Principal(r *http.Request) (userUID, username string, ok bool)
}

// Authenticate кладет в контекст пользователя из Bearer-токена или из сессии.
// Запрос без токена и без сессии проходит дальше анонимным; недействительный
// токен отклоняется с 401.
func Authenticate(tokens TokenValidator, sessions SessionReader, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.Authenticate"
			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			var userUID, username string
			if authHeader := r.Header.Get("Authorization"); authHeader != "" {
				if !strings.HasPrefix(authHeader, "Bearer ") {
					log.Info("invalid authorization header")
					w.WriteHeader(http.StatusUnauthorized)
					render.JSON(w, r, response.Error(apperr.KindRequest, "missing or invalid authorization header"))
					return
				}
				var err error
				userUID, username, err = tokens.ValidateToken(r.Context(), strings.TrimPrefix(authHeader, "Bearer "))
				if err != nil {
					log.Info("invalid or expired token", sl.Err(err))
					w.WriteHeader(http.StatusUnauthorized)
					render.JSON(w, r, response.Error(apperr.KindRequest, "invalid or expired token"))
					return
				}
			} else if uid, name, ok := sessions.Principal(r); ok {
				userUID, username = uid, name
			}

			if userUID == "" {
				next.ServeHTTP(w, r)
				return
			}
			ctx := context.WithValue(r.Context(), UserUID, userUID)
			ctx = context.WithValue(ctx, Username, username)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserUIDFromContext идентификатор пользователя, положенный Authenticate.
func UserUIDFromContext(ctx context.Context) string {
	uid, _ := ctx.Value(UserUID).(string)
	return uid
}
