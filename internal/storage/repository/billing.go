package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/medico/internal/models"
)

// FindFirstRemoteCustomer возвращает самого раннего покупателя провайдера для пользователя.
func (s *Storage) FindFirstRemoteCustomer(ctx context.Context, userUID string) (models.RemoteCustomer, bool, error) {
	const op = "storage.FindFirstRemoteCustomer"
	select {
	case <-ctx.Done():
		return models.RemoteCustomer{}, false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, email, name, COALESCE(default_payment_method, ''), created_at
			  FROM billing_customers
			  WHERE user_uid = $1
			  ORDER BY created_at, id
			  LIMIT 1`
	var c models.RemoteCustomer
	err := s.DB.QueryRowContext(ctx, query, userUID).Scan(
		&c.ID, &c.UserUID, &c.Email, &c.Name, &c.DefaultPaymentMethod, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.RemoteCustomer{}, false, nil
	}
	if err != nil {
		return models.RemoteCustomer{}, false, fmt.Errorf("%s: %w", op, err)
	}
	return c, true, nil
}

// SaveRemoteCustomer создает или обновляет зеркало покупателя.
func (s *Storage) SaveRemoteCustomer(ctx context.Context, c models.RemoteCustomer) error {
	const op = "storage.SaveRemoteCustomer"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO billing_customers (id, user_uid, email, name, default_payment_method, created_at)
			  VALUES ($1, $2, $3, $4, $5, COALESCE($6, NOW()))
			  ON CONFLICT (id) DO UPDATE
			  SET email = EXCLUDED.email,
			      name = EXCLUDED.name,
			      default_payment_method = EXCLUDED.default_payment_method`
	var created sql.NullTime
	if !c.CreatedAt.IsZero() {
		created = sql.NullTime{Time: c.CreatedAt, Valid: true}
	}
	if _, err := s.DB.ExecContext(ctx, query,
		c.ID, c.UserUID, c.Email, c.Name, nullString(c.DefaultPaymentMethod), created); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// SavePaymentMethod создает или обновляет зеркало платежного инструмента.
func (s *Storage) SavePaymentMethod(ctx context.Context, pm models.PaymentMethod) error {
	const op = "storage.SavePaymentMethod"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	// customer_id ссылается на billing_customers, неизвестный покупатель не сохраняется
	query := `INSERT INTO billing_payment_methods (id, customer_id, type, card_brand, card_last4, exp_month, exp_year)
			  VALUES ($1, (SELECT id FROM billing_customers WHERE id = $2), $3, $4, $5, $6, $7)
			  ON CONFLICT (id) DO UPDATE
			  SET customer_id = COALESCE(EXCLUDED.customer_id, billing_payment_methods.customer_id),
			      type = EXCLUDED.type,
			      card_brand = EXCLUDED.card_brand,
			      card_last4 = EXCLUDED.card_last4,
			      exp_month = EXCLUDED.exp_month,
			      exp_year = EXCLUDED.exp_year,
			      updated_at = NOW()`
	if _, err := s.DB.ExecContext(ctx, query,
		pm.ID, pm.CustomerID, pm.Type, nullString(pm.CardBrand), nullString(pm.CardLast4),
		pm.ExpMonth, pm.ExpYear); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// FindPaymentMethod возвращает зеркало платежного инструмента.
func (s *Storage) FindPaymentMethod(ctx context.Context, id string) (models.PaymentMethod, bool, error) {
	const op = "storage.FindPaymentMethod"
	select {
	case <-ctx.Done():
		return models.PaymentMethod{}, false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, COALESCE(customer_id, ''), type, COALESCE(card_brand, ''),
			      COALESCE(card_last4, ''), COALESCE(exp_month, 0), COALESCE(exp_year, 0)
			  FROM billing_payment_methods WHERE id = $1`
	var pm models.PaymentMethod
	err := s.DB.QueryRowContext(ctx, query, id).Scan(
		&pm.ID, &pm.CustomerID, &pm.Type, &pm.CardBrand, &pm.CardLast4, &pm.ExpMonth, &pm.ExpYear)
	if errors.Is(err, sql.ErrNoRows) {
		return models.PaymentMethod{}, false, nil
	}
	if err != nil {
		return models.PaymentMethod{}, false, fmt.Errorf("%s: %w", op, err)
	}
	return pm, true, nil
}

// SavePaymentIntent сохраняет зеркало разового платежа.
func (s *Storage) SavePaymentIntent(ctx context.Context, pi models.PaymentIntent) error {
	const op = "storage.SavePaymentIntent"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO billing_payment_intents (id, customer_id, payment_method_id, amount, currency, status, description)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  ON CONFLICT (id) DO UPDATE
			  SET status = EXCLUDED.status`
	if _, err := s.DB.ExecContext(ctx, query,
		pi.ID, pi.CustomerID, nullString(pi.PaymentMethodID), pi.Amount, pi.Currency,
		pi.Status, pi.Description); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// SaveSubscription создает или обновляет зеркало подписки.
func (s *Storage) SaveSubscription(ctx context.Context, sub models.RemoteSubscription) error {
	const op = "storage.SaveSubscription"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO billing_subscriptions (id, customer_id, plan_id, status, default_payment_method,
			      current_period_start, current_period_end, canceled_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			  ON CONFLICT (id) DO UPDATE
			  SET status = EXCLUDED.status,
			      plan_id = CASE WHEN EXCLUDED.plan_id = '' THEN billing_subscriptions.plan_id ELSE EXCLUDED.plan_id END,
			      default_payment_method = COALESCE(EXCLUDED.default_payment_method, billing_subscriptions.default_payment_method),
			      current_period_start = COALESCE(EXCLUDED.current_period_start, billing_subscriptions.current_period_start),
			      current_period_end = COALESCE(EXCLUDED.current_period_end, billing_subscriptions.current_period_end),
			      canceled_at = EXCLUDED.canceled_at,
			      updated_at = NOW()`
	if _, err := s.DB.ExecContext(ctx, query,
		sub.ID, sub.CustomerID, sub.PlanID, sub.Status, nullString(sub.DefaultPaymentMethod),
		nullTime(sub.CurrentPeriodStart), nullTime(sub.CurrentPeriodEnd), sub.CanceledAt); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// FindActiveSubscription возвращает действующую подписку покупателя.
func (s *Storage) FindActiveSubscription(ctx context.Context, customerID string) (models.RemoteSubscription, bool, error) {
	const op = "storage.FindActiveSubscription"
	select {
	case <-ctx.Done():
		return models.RemoteSubscription{}, false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, customer_id, plan_id, status, COALESCE(default_payment_method, ''),
			      current_period_start, current_period_end, canceled_at
			  FROM billing_subscriptions
			  WHERE customer_id = $1 AND status NOT IN ($2, $3)
			  ORDER BY created_at DESC
			  LIMIT 1`
	var (
		sub        models.RemoteSubscription
		start, end sql.NullTime
		canceledAt sql.NullTime
	)
	err := s.DB.QueryRowContext(ctx, query, customerID,
		models.SubscriptionCanceled, models.SubscriptionIncompleteExpired).Scan(
		&sub.ID, &sub.CustomerID, &sub.PlanID, &sub.Status, &sub.DefaultPaymentMethod,
		&start, &end, &canceledAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.RemoteSubscription{}, false, nil
	}
	if err != nil {
		return models.RemoteSubscription{}, false, fmt.Errorf("%s: %w", op, err)
	}
	sub.CurrentPeriodStart = start.Time
	sub.CurrentPeriodEnd = end.Time
	if canceledAt.Valid {
		sub.CanceledAt = &canceledAt.Time
	}
	return sub, true, nil
}
