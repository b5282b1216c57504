package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/medico/internal/access"
	"github.com/magabrotheeeer/medico/internal/http/response"
	"github.com/magabrotheeeer/medico/internal/lib/apperr"
	"github.com/magabrotheeeer/medico/internal/profile"
)

// LoginPath страница входа для перенаправления неаутентифицированных GET-запросов.
const LoginPath = "/accounts/login/"

// ProfileResolver определяет вид профиля пользователя.
type ProfileResolver interface {
	Resolve(ctx context.Context, userUID string) (profile.Resolution, error)
}

// ResolveProfile определяет профиль один раз на запрос и кладет результат в контекст.
func ResolveProfile(resolver ProfileResolver, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.ResolveProfile"
			res, err := resolver.Resolve(r.Context(), UserUIDFromContext(r.Context()))
			if err != nil {
				response.Fail(w, r, log.With(
					slog.String("op", op),
					slog.String("request_id", middleware.GetReqID(r.Context())),
				), err)
				return
			}
			next.ServeHTTP(w, r.WithContext(profile.WithResolution(r.Context(), res)))
		})
	}
}

// LoginRequired пропускает только аутентифицированных пользователей.
// GET перенаправляется на страницу входа, остальные методы получают 401.
func LoginRequired(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if profile.FromContext(r.Context()).Authenticated() {
			next.ServeHTTP(w, r)
			return
		}
		if r.Method == http.MethodGet {
			http.Redirect(w, r, LoginPath+"?next="+url.QueryEscape(r.URL.RequestURI()), http.StatusFound)
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error(apperr.KindRequest, "authentication required"))
	})
}

// RequireProfile пропускает запрос только для профиля вида kind,
// иначе перенаправляет на страницу пользователя.
func RequireProfile(kind profile.Kind) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision := access.Require(profile.FromContext(r.Context()), kind)
			if !decision.Allowed {
				http.Redirect(w, r, decision.RedirectTo, http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
