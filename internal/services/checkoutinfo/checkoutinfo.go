// Package checkoutinfo проверяет и сохраняет данные формы оформления
// консультации и ведет журнал попыток оформления.
//
// Попытка записывается в статусе pending до первого обращения к провайдеру
// и закрывается после него, поэтому сбой между шагами виден в хранилище.
package checkoutinfo

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/medico/internal/models"
)

// ValidationError причина обращения длиннее допустимого.
type ValidationError struct {
	Length int
	Limit  int
}

// Overage на сколько символов превышен лимит.
func (e *ValidationError) Overage() int {
	return e.Length - e.Limit
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("You have exceeded the character limit. Please remove %d characters.", e.Overage())
}

// Repository хранилище журнала оформления.
type Repository interface {
	CreateCheckoutAttempt(ctx context.Context, a models.CheckoutAttempt) (models.CheckoutAttempt, error)
	CompleteCheckout(ctx context.Context, attempt models.CheckoutAttempt, info models.CheckoutInformation) (models.CheckoutInformation, error)
	FailCheckoutAttempt(ctx context.Context, attemptID, reason string) error
}

// Store проверяет причину обращения и ведет журнал попыток.
type Store struct {
	repo  Repository
	limit int
}

// NewStore создает Store с лимитом длины причины обращения в символах.
func NewStore(repo Repository, limit int) *Store {
	return &Store{repo: repo, limit: limit}
}

// Limit максимальная длина причины обращения.
func (s *Store) Limit() int {
	return s.limit
}

// Validate проверяет длину причины обращения. Длина считается в символах, а не байтах.
func (s *Store) Validate(reason string) error {
	if n := utf8.RuneCountInString(reason); n > s.limit {
		return &ValidationError{Length: n, Limit: s.limit}
	}
	return nil
}

// Begin записывает попытку оформления до обращения к провайдеру.
func (s *Store) Begin(ctx context.Context, userUID string, mode models.CheckoutMode, paymentMethodID string) (models.CheckoutAttempt, error) {
	const op = "checkoutinfo.Begin"

	attempt, err := s.repo.CreateCheckoutAttempt(ctx, models.CheckoutAttempt{
		ID:              uuid.NewString(),
		UserUID:         userUID,
		Mode:            mode,
		PaymentMethodID: paymentMethodID,
	})
	if err != nil {
		return models.CheckoutAttempt{}, fmt.Errorf("%s: %w", op, err)
	}
	return attempt, nil
}

// Complete сохраняет запись о причине обращения и закрывает попытку.
// Для подписки attempt.PaymentIntentID пуст, и ссылка на платеж не сохраняется.
func (s *Store) Complete(ctx context.Context, attempt models.CheckoutAttempt, reason string) (models.CheckoutInformation, error) {
	const op = "checkoutinfo.Complete"

	if err := s.Validate(reason); err != nil {
		return models.CheckoutInformation{}, fmt.Errorf("%s: %w", op, err)
	}
	if attempt.CustomerID == "" {
		return models.CheckoutInformation{}, fmt.Errorf("%s: %w", op, errors.New("customer id is required"))
	}

	info := models.CheckoutInformation{
		ReasonForVisit: reason,
		CustomerID:     attempt.CustomerID,
	}
	if attempt.PaymentIntentID != "" {
		pi := attempt.PaymentIntentID
		info.PaymentIntentID = &pi
	}

	saved, err := s.repo.CompleteCheckout(ctx, attempt, info)
	if err != nil {
		return models.CheckoutInformation{}, fmt.Errorf("%s: %w", op, err)
	}
	return saved, nil
}

// Fail помечает попытку как неуспешную.
func (s *Store) Fail(ctx context.Context, attempt models.CheckoutAttempt, cause error) error {
	const op = "checkoutinfo.Fail"

	reason := "unknown"
	if cause != nil {
		reason = cause.Error()
	}
	if err := s.repo.FailCheckoutAttempt(ctx, attempt.ID, reason); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
