package payment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/medico/internal/lib/apperr"
	"github.com/magabrotheeeer/medico/internal/lib/sl"
	"github.com/magabrotheeeer/medico/internal/metrics"
	"github.com/magabrotheeeer/medico/internal/models"
)

// periodLayout формат дат периода подписки, например "Monday, Jan 02".
const periodLayout = "Monday, Jan 02"

// Card данные карты для страницы подписки.
type Card struct {
	Brand    string `json:"brand"`
	Last4    string `json:"last4"`
	ExpMonth int64  `json:"exp_month"`
	ExpYear  int64  `json:"exp_year"`
}

// Overview сводка по действующей подписке.
type Overview struct {
	SubscriptionID     string `json:"subscription_id"`
	Status             string `json:"status"`
	StartedAt          string `json:"started_at"`
	EndsAt             string `json:"ends_at"`
	HumanReadablePrice string `json:"human_readable_price"`
	Card               *Card  `json:"card,omitempty"`
}

// activeSubscription находит покупателя и его действующую подписку.
// Отсутствие любого из них дает NotFound.
func (s *Service) activeSubscription(ctx context.Context, userUID string) (models.RemoteCustomer, models.RemoteSubscription, error) {
	const op = "payment.activeSubscription"

	rc, found, err := s.repo.FindFirstRemoteCustomer(ctx, userUID)
	if err != nil {
		return models.RemoteCustomer{}, models.RemoteSubscription{}, fmt.Errorf("%s: %w", op, err)
	}
	if !found {
		return models.RemoteCustomer{}, models.RemoteSubscription{}, apperr.NotFound(NoSubscriptionMessage)
	}
	sub, found, err := s.repo.FindActiveSubscription(ctx, rc.ID)
	if err != nil {
		return models.RemoteCustomer{}, models.RemoteSubscription{}, fmt.Errorf("%s: %w", op, err)
	}
	if !found {
		return models.RemoteCustomer{}, models.RemoteSubscription{}, apperr.NotFound(NoSubscriptionMessage)
	}
	return rc, sub, nil
}

// ModifyPaymentMethod делает новый инструмент основным у покупателя и у
// действующей подписки. Возвращает id инструмента.
func (s *Service) ModifyPaymentMethod(ctx context.Context, customer models.Customer, paymentMethodID string) (string, error) {
	const op = "payment.ModifyPaymentMethod"
	log := s.log.With(slog.String("op", op), slog.String("user_uid", customer.User.UUID))

	id, err := s.modifyPaymentMethod(ctx, customer, paymentMethodID)
	metrics.SubscriptionChanges.WithLabelValues("modify_payment_method", metrics.Outcome(err)).Inc()
	if err != nil {
		log.Error("failed to modify payment method", sl.Err(err))
		return "", toAppErr(err)
	}
	log.Info("payment method modified", slog.String("payment_method_id", id))
	return id, nil
}

func (s *Service) modifyPaymentMethod(ctx context.Context, customer models.Customer, paymentMethodID string) (string, error) {
	const op = "payment.modifyPaymentMethod"

	rc, sub, err := s.activeSubscription(ctx, customer.User.UUID)
	if err != nil {
		return "", err
	}
	if paymentMethodID == "" {
		return "", apperr.Request(apperr.CommonMessage)
	}

	pm, err := s.provider.AttachPaymentMethod(ctx, paymentMethodID, rc.ID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if pm.CustomerID == "" {
		pm.CustomerID = rc.ID
	}
	if err = s.repo.SavePaymentMethod(ctx, pm); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	updated, err := s.provider.SetDefaultPaymentMethod(ctx, rc.ID, paymentMethodID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	rc.DefaultPaymentMethod = paymentMethodID
	if updated.Email != "" {
		rc.Email = updated.Email
	}
	if err = s.repo.SaveRemoteCustomer(ctx, rc); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	remote, err := s.provider.UpdateSubscriptionPaymentMethod(ctx, sub.ID, paymentMethodID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if remote.CustomerID == "" {
		remote.CustomerID = rc.ID
	}
	if err = s.repo.SaveSubscription(ctx, remote); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return paymentMethodID, nil
}

// CancelSubscription немедленно отменяет действующую подписку.
// Если подписки нет, провайдер не вызывается.
func (s *Service) CancelSubscription(ctx context.Context, customer models.Customer) (models.RemoteSubscription, error) {
	const op = "payment.CancelSubscription"
	log := s.log.With(slog.String("op", op), slog.String("user_uid", customer.User.UUID))

	sub, err := s.cancelSubscription(ctx, customer)
	metrics.SubscriptionChanges.WithLabelValues("cancel", metrics.Outcome(err)).Inc()
	if err != nil {
		log.Error("failed to cancel subscription", sl.Err(err))
		return models.RemoteSubscription{}, toAppErr(err)
	}

	s.publish(ctx, models.BillingEvent{
		Type:           models.EventSubscriptionCanceled,
		UserUID:        customer.User.UUID,
		Email:          customer.User.Email,
		Name:           customer.NameWithTitle(),
		CustomerID:     sub.CustomerID,
		SubscriptionID: sub.ID,
		OccurredAt:     time.Now().UTC(),
	})
	log.Info("subscription canceled", slog.String("subscription_id", sub.ID))
	return sub, nil
}

func (s *Service) cancelSubscription(ctx context.Context, customer models.Customer) (models.RemoteSubscription, error) {
	const op = "payment.cancelSubscription"

	rc, sub, err := s.activeSubscription(ctx, customer.User.UUID)
	if err != nil {
		return models.RemoteSubscription{}, err
	}

	canceled, err := s.provider.CancelSubscription(ctx, sub.ID)
	if err != nil {
		return models.RemoteSubscription{}, fmt.Errorf("%s: %w", op, err)
	}
	if canceled.CustomerID == "" {
		canceled.CustomerID = rc.ID
	}
	if err = s.repo.SaveSubscription(ctx, canceled); err != nil {
		return models.RemoteSubscription{}, fmt.Errorf("%s: %w", op, err)
	}
	return canceled, nil
}

// SubscriptionOverview возвращает сводку по подписке. found=false, если подписки нет.
func (s *Service) SubscriptionOverview(ctx context.Context, customer models.Customer) (Overview, bool, error) {
	const op = "payment.SubscriptionOverview"

	_, sub, err := s.activeSubscription(ctx, customer.User.UUID)
	if apperr.IsKind(err, apperr.KindNotFound) {
		return Overview{}, false, nil
	}
	if err != nil {
		return Overview{}, false, toAppErr(fmt.Errorf("%s: %w", op, err))
	}

	ov := Overview{
		SubscriptionID: sub.ID,
		Status:         sub.Status,
		StartedAt:      sub.CurrentPeriodStart.Format(periodLayout),
		EndsAt:         sub.CurrentPeriodEnd.Format(periodLayout),
	}
	if sub.PlanID != "" {
		price, err := s.price(ctx, sub.PlanID)
		if err != nil {
			return Overview{}, false, toAppErr(fmt.Errorf("%s: %w", op, err))
		}
		ov.HumanReadablePrice = price.HumanReadable()
	}
	if sub.DefaultPaymentMethod != "" {
		pm, found, err := s.repo.FindPaymentMethod(ctx, sub.DefaultPaymentMethod)
		if err != nil {
			return Overview{}, false, toAppErr(fmt.Errorf("%s: %w", op, err))
		}
		if found {
			ov.Card = &Card{Brand: pm.CardBrand, Last4: pm.CardLast4, ExpMonth: pm.ExpMonth, ExpYear: pm.ExpYear}
		}
	}
	return ov, true, nil
}
