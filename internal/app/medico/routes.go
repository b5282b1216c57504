package medico

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/medico/internal/cache"
	"github.com/magabrotheeeer/medico/internal/config"
	"github.com/magabrotheeeer/medico/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/medico/internal/http/handlers/auth/logout"
	"github.com/magabrotheeeer/medico/internal/http/handlers/auth/signup"
	"github.com/magabrotheeeer/medico/internal/http/handlers/health"
	"github.com/magabrotheeeer/medico/internal/http/handlers/payment/checkout"
	"github.com/magabrotheeeer/medico/internal/http/handlers/payment/checkoutpage"
	"github.com/magabrotheeeer/medico/internal/http/handlers/payment/consultation"
	"github.com/magabrotheeeer/medico/internal/http/handlers/payment/modifymethod"
	"github.com/magabrotheeeer/medico/internal/http/handlers/subscription/cancel"
	"github.com/magabrotheeeer/medico/internal/http/handlers/subscription/overview"
	"github.com/magabrotheeeer/medico/internal/http/handlers/users/detail"
	"github.com/magabrotheeeer/medico/internal/http/handlers/users/medicalprofile"
	"github.com/magabrotheeeer/medico/internal/http/handlers/users/redirect"
	"github.com/magabrotheeeer/medico/internal/http/middlewarectx"
	"github.com/magabrotheeeer/medico/internal/http/response"
	"github.com/magabrotheeeer/medico/internal/http/session"
	"github.com/magabrotheeeer/medico/internal/profile"
	authservice "github.com/magabrotheeeer/medico/internal/services/auth"
	paymentservice "github.com/magabrotheeeer/medico/internal/services/payment"
	signupservice "github.com/magabrotheeeer/medico/internal/services/signup"
	"github.com/magabrotheeeer/medico/internal/storage/repository"
)

// Deps зависимости обработчиков.
type Deps struct {
	Repo     *repository.Storage
	Cache    *cache.Cache
	Sessions *session.Manager
	Resolver *profile.Resolver
	Auth     *authservice.Service
	Signup   *signupservice.Service
	Payment  *paymentservice.Service
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, cfg *config.Config, deps Deps) {
	// До r.Use: иначе цепочка middleware оборачивает обработчик дважды.
	r.MethodNotAllowed(response.MethodNotAllowed)

	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		cors.New(cors.Options{
			AllowedOrigins:   cfg.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost},
			AllowedHeaders:   []string{"Authorization", "Content-Type"},
			AllowCredentials: true,
		}).Handler,
		middleware.Timeout(cfg.RequestTimeout),
	)

	r.Get("/healthz", health.New(logger, map[string]health.Check{
		"postgres": deps.Repo.DB.PingContext,
		"redis": func(ctx context.Context) error {
			return deps.Cache.Db.Ping(ctx).Err()
		},
	}).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)

	// Статические POST-пути под /users/ иначе совпали бы с /users/{username}/ при GET.
	for _, path := range []string{
		"/users/cancel-subscription/",
		"/users/customer-signup/",
		"/users/medical-signup/",
	} {
		r.Get(path, response.MethodNotAllowed)
	}

	r.Group(func(r chi.Router) {
		r.Use(middlewarectx.Authenticate(deps.Auth, deps.Sessions, logger))
		r.Use(middlewarectx.ResolveProfile(deps.Resolver, logger))

		// Открытые конечные точки
		r.Post("/accounts/login/", login.New(logger, deps.Auth, deps.Sessions).ServeHTTP)
		r.Post("/accounts/logout/", logout.New(logger, deps.Sessions).ServeHTTP)
		r.Post("/users/customer-signup/", signup.NewCustomer(logger, deps.Signup, deps.Sessions).ServeHTTP)
		r.Post("/users/medical-signup/", signup.NewMedical(logger, deps.Signup, deps.Sessions).ServeHTTP)

		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.LoginRequired)

			r.Get("/users/~redirect/", redirect.ServeHTTP)
			r.Get("/users/{username}/", detail.New(logger, deps.Repo, deps.Resolver).ServeHTTP)

			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.RequireProfile(profile.Customer))

				r.Get("/users/payments/checkout/", checkoutpage.New(logger, deps.Payment,
					cfg.PublishableKey, cfg.ReasonMaxLength).ServeHTTP)
				r.Post("/users/payments/checkout/", checkout.New(logger, deps.Payment, deps.Sessions,
					cfg.SuccessURL).ServeHTTP)
				r.Get("/users/payments/consultation/", consultation.New(logger, deps.Sessions).ServeHTTP)
				r.With(middlewarectx.RateLimitMiddleware(cfg.RateLimit, cfg.RateBurst, logger)).
					Post("/users/payments/modify-payment-method/", modifymethod.New(logger, deps.Payment).ServeHTTP)
				r.Post("/users/cancel-subscription/", cancel.New(logger, deps.Payment, cfg.CancelNextURL).ServeHTTP)
				r.Get("/users/subscription/", overview.New(logger, deps.Payment).ServeHTTP)
			})

			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.RequireProfile(profile.MedicalPro))

				r.Get("/users/medical/profile/", medicalprofile.New(logger).ServeHTTP)
			})
		})
	})
}
