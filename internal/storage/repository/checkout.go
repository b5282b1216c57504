package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/medico/internal/models"
)

// CreateCheckoutAttempt записывает попытку оформления в статусе pending.
func (s *Storage) CreateCheckoutAttempt(ctx context.Context, a models.CheckoutAttempt) (models.CheckoutAttempt, error) {
	const op = "storage.CreateCheckoutAttempt"
	select {
	case <-ctx.Done():
		return models.CheckoutAttempt{}, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	a.Status = models.AttemptPending
	query := `INSERT INTO checkout_attempts (id, user_uid, mode, status, payment_method_id)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING created_at, updated_at`
	err := s.DB.QueryRowContext(ctx, query, a.ID, a.UserUID, a.Mode, a.Status, a.PaymentMethodID).
		Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return models.CheckoutAttempt{}, fmt.Errorf("%s: %w", op, err)
	}
	return a, nil
}

// CompleteCheckout в одной транзакции сохраняет запись о причине обращения
// и закрывает попытку. Закрыть можно только попытку в статусе pending.
func (s *Storage) CompleteCheckout(ctx context.Context, attempt models.CheckoutAttempt, info models.CheckoutInformation) (models.CheckoutInformation, error) {
	const op = "storage.CompleteCheckout"
	select {
	case <-ctx.Done():
		return models.CheckoutInformation{}, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE checkout_attempts
			SET status = $2, customer_id = $3, payment_intent_id = $4, subscription_id = $5, updated_at = NOW()
			WHERE id = $1 AND status = $6`,
			attempt.ID, models.AttemptCompleted, nullString(attempt.CustomerID),
			nullString(attempt.PaymentIntentID), nullString(attempt.SubscriptionID), models.AttemptPending)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrAttemptNotPending
		}

		return tx.QueryRowContext(ctx, `INSERT INTO checkout_information
				(attempt_id, reason_for_visit, customer_id, payment_intent_id)
			VALUES ($1, $2, $3, $4)
			RETURNING id, created_at`,
			attempt.ID, info.ReasonForVisit, info.CustomerID, info.PaymentIntentID).
			Scan(&info.ID, &info.CreatedAt)
	})
	if err != nil {
		return models.CheckoutInformation{}, fmt.Errorf("%s: %w", op, err)
	}
	info.AttemptID = attempt.ID
	return info, nil
}

// FailCheckoutAttempt помечает попытку как неуспешную.
func (s *Storage) FailCheckoutAttempt(ctx context.Context, attemptID, reason string) error {
	const op = "storage.FailCheckoutAttempt"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	res, err := s.DB.ExecContext(ctx, `UPDATE checkout_attempts
		SET status = $2, failure_reason = $3, updated_at = NOW()
		WHERE id = $1 AND status = $4`,
		attemptID, models.AttemptFailed, reason, models.AttemptPending)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s: %w", op, ErrAttemptNotPending)
	}
	return nil
}

// FindCheckoutAttempt возвращает попытку оформления по идентификатору.
func (s *Storage) FindCheckoutAttempt(ctx context.Context, id string) (models.CheckoutAttempt, bool, error) {
	const op = "storage.FindCheckoutAttempt"
	select {
	case <-ctx.Done():
		return models.CheckoutAttempt{}, false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, mode, status, payment_method_id, COALESCE(customer_id, ''),
			      COALESCE(payment_intent_id, ''), COALESCE(subscription_id, ''),
			      COALESCE(failure_reason, ''), created_at, updated_at
			  FROM checkout_attempts WHERE id = $1`
	var a models.CheckoutAttempt
	err := s.DB.QueryRowContext(ctx, query, id).Scan(&a.ID, &a.UserUID, &a.Mode, &a.Status,
		&a.PaymentMethodID, &a.CustomerID, &a.PaymentIntentID, &a.SubscriptionID,
		&a.FailureReason, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.CheckoutAttempt{}, false, nil
	}
	if err != nil {
		return models.CheckoutAttempt{}, false, fmt.Errorf("%s: %w", op, err)
	}
	return a, true, nil
}
