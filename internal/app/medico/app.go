// Package medico собирает HTTP-приложение: хранилище, кэш, платежного
// провайдера, брокер событий и маршруты.
package medico

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/medico/internal/cache"
	"github.com/magabrotheeeer/medico/internal/config"
	"github.com/magabrotheeeer/medico/internal/http/session"
	"github.com/magabrotheeeer/medico/internal/lib/jwt"
	"github.com/magabrotheeeer/medico/internal/lib/sl"
	"github.com/magabrotheeeer/medico/internal/lib/uploads"
	"github.com/magabrotheeeer/medico/internal/migrations"
	"github.com/magabrotheeeer/medico/internal/paymentprovider"
	"github.com/magabrotheeeer/medico/internal/profile"
	"github.com/magabrotheeeer/medico/internal/rabbitmq"
	authservice "github.com/magabrotheeeer/medico/internal/services/auth"
	"github.com/magabrotheeeer/medico/internal/services/checkoutinfo"
	paymentservice "github.com/magabrotheeeer/medico/internal/services/payment"
	signupservice "github.com/magabrotheeeer/medico/internal/services/signup"
	"github.com/magabrotheeeer/medico/internal/storage/repository"
)

const shutdownTimeout = 15 * time.Second

// App HTTP-приложение.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	cache  *cache.Cache
	conn   *amqp.Connection
	ch     *amqp.Channel
}

// New поднимает зависимости и регистрирует маршруты. Брокер необязателен:
// без RABBITMQ_URL события биллинга не публикуются.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		_ = db.Close()
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	app := &App{
		logger: logger,
		db:     db,
		cache:  cacheRedis,
	}

	var publisher paymentservice.Publisher
	if cfg.RabbitMQURL != "" {
		app.conn, err = rabbitmq.Connect(ctx, cfg.RabbitMQ)
		if err != nil {
			app.close()
			return nil, err
		}
		app.ch, err = rabbitmq.SetupChannel(app.conn, cfg.Exchange, rabbitmq.BillingQueues())
		if err != nil {
			app.close()
			return nil, err
		}
		publisher = rabbitmq.NewPublisher(app.ch, cfg.Exchange)
	} else {
		logger.Warn("rabbitmq url is empty, billing events are disabled")
	}

	var store uploads.Store = uploads.NewFileStore(cfg.UploadsDir)
	if cfg.UploadsBucket != "" {
		store, err = uploads.NewBucketStore(ctx, cfg.UploadsBucket)
		if err != nil {
			app.close()
			return nil, err
		}
	}

	journal := checkoutinfo.NewStore(db, cfg.ReasonMaxLength)
	deps := Deps{
		Repo:     db,
		Cache:    cacheRedis,
		Sessions: session.New(cfg.Session),
		Resolver: profile.NewResolver(db),
		Auth:     authservice.New(db, jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)),
		Signup:   signupservice.New(db, store, cfg.Signup, logger),
		Payment: paymentservice.New(paymentprovider.NewClient(cfg.Stripe), db, cacheRedis, journal,
			publisher, cfg.Stripe, logger),
	}

	router := chi.NewRouter()
	RegisterRoutes(router, logger, cfg, deps)

	app.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return app, nil
}

// Run обслуживает запросы до отмены ctx, затем мягко останавливает сервер.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.close()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.close()
		return err
	}
}

func (a *App) close() {
	if a.ch != nil {
		if err := a.ch.Close(); err != nil {
			a.logger.Error("failed to close channel", sl.Err(err))
		}
	}
	if a.conn != nil {
		if err := a.conn.Close(); err != nil {
			a.logger.Error("failed to close connection", sl.Err(err))
		}
	}
	if err := a.cache.Close(); err != nil {
		a.logger.Error("failed to close redis", sl.Err(err))
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close storage", sl.Err(err))
	}
}
