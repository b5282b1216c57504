// Package notifier собирает воркер, который рассылает письма по событиям биллинга.
package notifier

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/medico/internal/config"
	"github.com/magabrotheeeer/medico/internal/lib/sl"
	"github.com/magabrotheeeer/medico/internal/lib/smtp"
	"github.com/magabrotheeeer/medico/internal/models"
	"github.com/magabrotheeeer/medico/internal/rabbitmq"
	senderservice "github.com/magabrotheeeer/medico/internal/services/sender"
)

// App воркер уведомлений.
type App struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	handlers map[string]rabbitmq.Handler
	logger   *slog.Logger
}

// New подключается к брокеру и объявляет очереди событий биллинга.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "notifier.New"

	if cfg.RabbitMQURL == "" {
		return nil, fmt.Errorf("%s: rabbitmq url is empty", op)
	}
	conn, err := rabbitmq.Connect(ctx, cfg.RabbitMQ)
	if err != nil {
		return nil, err
	}

	queues := rabbitmq.BillingQueues()
	ch, err := rabbitmq.SetupChannel(conn, cfg.Exchange, queues)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	sender := senderservice.New(smtp.NewTransport(cfg.SMTP, logger), logger)
	byKey := map[string]rabbitmq.Handler{
		models.EventCheckoutSucceeded:    sender.SendCheckoutSucceeded,
		models.EventSubscriptionCanceled: sender.SendSubscriptionCanceled,
	}
	handlers, err := bindHandlers(queues, byKey)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &App{
		conn:     conn,
		ch:       ch,
		handlers: handlers,
		logger:   logger,
	}, nil
}

// Run обрабатывает сообщения до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	for queue, handler := range a.handlers {
		if err := rabbitmq.ConsumerMessage(ctx, a.ch, queue, handler, a.logger); err != nil {
			a.logger.Error("failed to start consumer", slog.String("queue", queue), sl.Err(err))
			a.close()
			return err
		}
	}

	<-ctx.Done()
	a.logger.Info("notifier shutting down gracefully")
	a.close()
	return nil
}

func (a *App) close() {
	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
}

// bindHandlers сопоставляет очереди обработчикам по ключу маршрутизации.
func bindHandlers(queues []rabbitmq.QueueConfig, byKey map[string]rabbitmq.Handler) (map[string]rabbitmq.Handler, error) {
	handlers := make(map[string]rabbitmq.Handler, len(queues))
	for _, q := range queues {
		h, ok := byKey[q.RoutingKey]
		if !ok {
			return nil, fmt.Errorf("no handler for routing key %q", q.RoutingKey)
		}
		handlers[q.QueueName] = h
	}
	return handlers, nil
}
