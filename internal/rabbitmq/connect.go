// Package rabbitmq подключение к брокеру, объявление очередей биллинга,
// публикация событий и их потребление воркером уведомлений.
package rabbitmq

import (
	"context"
	"fmt"
	"time"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/medico/internal/config"
)

// Connect подключается к брокеру, повторяя попытку cfg.ConnRetries раз.
func Connect(ctx context.Context, cfg config.RabbitMQ) (*amqp.Connection, error) {
	const op = "rabbitmq.Connect"
	var conn *amqp.Connection
	var err error

	retries := max(cfg.ConnRetries, 1)
	for attempt := range retries {
		conn, err = amqp.Dial(cfg.RabbitMQURL)
		if err == nil {
			return conn, nil
		}
		if attempt == retries-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%s: %w", op, ctx.Err())
		case <-time.After(cfg.ConnRetryWait):
		}
	}

	return nil, fmt.Errorf("%s: %w", op, err)
}
