package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/medico/internal/lib/apperr"
	"github.com/magabrotheeeer/medico/internal/lib/sl"
	"github.com/magabrotheeeer/medico/internal/metrics"
	"github.com/magabrotheeeer/medico/internal/models"
	"github.com/magabrotheeeer/medico/internal/services/checkoutinfo"
)

// CheckoutRequest данные формы оформления. Пустой PlanID означает разовую оплату.
type CheckoutRequest struct {
	PaymentMethodID string
	ReasonForVisit  string
	PlanID          string
}

// CheckoutResult итог оформления.
type CheckoutResult struct {
	Mode          models.CheckoutMode
	Customer      models.RemoteCustomer
	Information   models.CheckoutInformation
	PaymentIntent *models.PaymentIntent
	Subscription  *models.RemoteSubscription
}

// Checkout оформляет консультацию: проверяет форму до любых вызовов провайдера,
// синхронизирует инструмент, находит или создает покупателя, проводит разовый
// платеж либо подписку и сохраняет запись о причине обращения.
func (s *Service) Checkout(ctx context.Context, customer models.Customer, req CheckoutRequest) (CheckoutResult, error) {
	const op = "payment.Checkout"
	log := s.log.With(slog.String("op", op), slog.String("user_uid", customer.User.UUID))

	mode := models.CheckoutOneTime
	if req.PlanID != "" {
		mode = models.CheckoutSubscription
	}

	res, err := s.checkout(ctx, log, customer, mode, req)
	metrics.CheckoutTotal.WithLabelValues(string(mode), metrics.Outcome(err)).Inc()
	if err != nil {
		return CheckoutResult{}, err
	}
	return res, nil
}

func (s *Service) checkout(ctx context.Context, log *slog.Logger, customer models.Customer,
	mode models.CheckoutMode, req CheckoutRequest) (CheckoutResult, error) {
	if err := s.journal.Validate(req.ReasonForVisit); err != nil {
		var ve *checkoutinfo.ValidationError
		if errors.As(err, &ve) {
			log.Info("checkout form rejected", slog.Int("overage", ve.Overage()))
			return CheckoutResult{}, apperr.Form(FormMessage, ve.Error())
		}
		return CheckoutResult{}, toAppErr(err)
	}
	if req.PaymentMethodID == "" {
		return CheckoutResult{}, apperr.Request(apperr.CommonMessage)
	}
	if mode == models.CheckoutSubscription {
		if err := s.ensureNotSubscribed(ctx, customer.User.UUID); err != nil {
			log.Info("checkout rejected", sl.Err(err))
			return CheckoutResult{}, toAppErr(err)
		}
	}

	attempt, err := s.journal.Begin(ctx, customer.User.UUID, mode, req.PaymentMethodID)
	if err != nil {
		log.Error("failed to record checkout attempt", sl.Err(err))
		return CheckoutResult{}, toAppErr(err)
	}
	log = log.With(slog.String("attempt_id", attempt.ID))

	res := CheckoutResult{Mode: mode}
	if err = s.remoteCheckout(ctx, customer, req, &attempt, &res); err != nil {
		if failErr := s.journal.Fail(ctx, attempt, err); failErr != nil {
			log.Error("failed to mark checkout attempt", sl.Err(failErr))
		}
		log.Error("checkout failed", sl.Err(err))
		return CheckoutResult{}, toAppErr(err)
	}

	res.Information, err = s.journal.Complete(ctx, attempt, req.ReasonForVisit)
	if err != nil {
		// провайдер уже провел операцию, попытка остается в статусе pending
		log.Error("checkout succeeded remotely but was not saved",
			slog.String("customer_id", attempt.CustomerID),
			slog.String("payment_intent_id", attempt.PaymentIntentID),
			slog.String("subscription_id", attempt.SubscriptionID),
			sl.Err(err))
		return CheckoutResult{}, toAppErr(err)
	}

	event := models.BillingEvent{
		Type:       models.EventCheckoutSucceeded,
		UserUID:    customer.User.UUID,
		Email:      customer.User.Email,
		Name:       customer.NameWithTitle(),
		CustomerID: res.Customer.ID,
		OccurredAt: time.Now().UTC(),
	}
	if res.PaymentIntent != nil {
		event.PaymentIntent = res.PaymentIntent.ID
		event.Amount = models.Price{UnitAmount: res.PaymentIntent.Amount, Currency: res.PaymentIntent.Currency}.HumanReadable()
	}
	if res.Subscription != nil {
		event.SubscriptionID = res.Subscription.ID
	}
	s.publish(ctx, event)

	log.Info("checkout completed", slog.String("mode", string(mode)), slog.String("customer_id", res.Customer.ID))
	return res, nil
}

// remoteCheckout выполняет шаги, требующие обращения к провайдеру.
// Ровно один из путей выбирается по PlanID.
func (s *Service) remoteCheckout(ctx context.Context, customer models.Customer, req CheckoutRequest,
	attempt *models.CheckoutAttempt, res *CheckoutResult) error {
	const op = "payment.remoteCheckout"

	if _, err := s.syncPaymentMethod(ctx, req.PaymentMethodID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	rc, err := s.GetOrCreateRemoteCustomer(ctx, customer, req.PaymentMethodID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	res.Customer = rc
	attempt.CustomerID = rc.ID

	if req.PlanID != "" {
		sub, err := s.Subscribe(ctx, req.PlanID, rc, "checkout-"+attempt.ID)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		res.Subscription = &sub
		attempt.SubscriptionID = sub.ID
		return nil
	}

	pi, err := s.ChargeOneTime(ctx, req.PaymentMethodID, rc, "checkout-"+attempt.ID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	res.PaymentIntent = &pi
	attempt.PaymentIntentID = pi.ID
	return nil
}

// ensureNotSubscribed отклоняет оформление подписки, если у пользователя уже
// есть действующая. Проверяются только локальные зеркала.
func (s *Service) ensureNotSubscribed(ctx context.Context, userUID string) error {
	const op = "payment.ensureNotSubscribed"

	rc, found, err := s.repo.FindFirstRemoteCustomer(ctx, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !found {
		return nil
	}
	_, found, err = s.repo.FindActiveSubscription(ctx, rc.ID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if found {
		return apperr.Form(FormMessage, AlreadySubscribedMessage)
	}
	return nil
}
