// Package payment содержит сценарии оплаты консультаций: поиск или создание
// покупателя у провайдера, разовый платеж, подписку, смену карты и отмену подписки.
//
// Сначала выполняется вызов провайдера, затем результат зеркалируется
// в локальное хранилище. Ошибки приводятся к классам apperr на границе операции.
package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/medico/internal/config"
	"github.com/magabrotheeeer/medico/internal/lib/apperr"
	"github.com/magabrotheeeer/medico/internal/lib/sl"
	"github.com/magabrotheeeer/medico/internal/models"
	"github.com/magabrotheeeer/medico/internal/paymentprovider"
)

const (
	// FormMessage сообщение при ошибке проверки формы оформления.
	FormMessage = "Please fill in all the fields in the checkout form properly."
	// NoSubscriptionMessage у пользователя нет действующей подписки.
	NoSubscriptionMessage = "No subscription was found on this user."
	// AlreadySubscribedMessage у покупателя уже есть действующая подписка.
	AlreadySubscribedMessage = "You already have an active subscription."
)

// Provider API платежного провайдера.
type Provider interface {
	GetPaymentMethod(ctx context.Context, id string) (models.PaymentMethod, error)
	AttachPaymentMethod(ctx context.Context, id, customerID string) (models.PaymentMethod, error)
	CreateCustomer(ctx context.Context, req paymentprovider.CustomerRequest) (models.RemoteCustomer, error)
	SetDefaultPaymentMethod(ctx context.Context, customerID, paymentMethodID string) (models.RemoteCustomer, error)
	GetPrice(ctx context.Context, id string) (models.Price, error)
	CreatePaymentIntent(ctx context.Context, req paymentprovider.PaymentIntentRequest) (models.PaymentIntent, error)
	CreateSubscription(ctx context.Context, req paymentprovider.SubscriptionRequest) (models.RemoteSubscription, error)
	UpdateSubscriptionPaymentMethod(ctx context.Context, subscriptionID, paymentMethodID string) (models.RemoteSubscription, error)
	CancelSubscription(ctx context.Context, subscriptionID string) (models.RemoteSubscription, error)
}

// Repository локальные зеркала записей провайдера.
type Repository interface {
	FindFirstRemoteCustomer(ctx context.Context, userUID string) (models.RemoteCustomer, bool, error)
	SaveRemoteCustomer(ctx context.Context, c models.RemoteCustomer) error
	SavePaymentMethod(ctx context.Context, pm models.PaymentMethod) error
	FindPaymentMethod(ctx context.Context, id string) (models.PaymentMethod, bool, error)
	SavePaymentIntent(ctx context.Context, pi models.PaymentIntent) error
	SaveSubscription(ctx context.Context, sub models.RemoteSubscription) error
	FindActiveSubscription(ctx context.Context, customerID string) (models.RemoteSubscription, bool, error)
}

// Cache кэш цен и блокировки по пользователю.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Lock(ctx context.Context, key string, ttl time.Duration) (func(), error)
}

// Journal журнал попыток оформления.
type Journal interface {
	Validate(reason string) error
	Begin(ctx context.Context, userUID string, mode models.CheckoutMode, paymentMethodID string) (models.CheckoutAttempt, error)
	Complete(ctx context.Context, attempt models.CheckoutAttempt, reason string) (models.CheckoutInformation, error)
	Fail(ctx context.Context, attempt models.CheckoutAttempt, cause error) error
}

// Publisher отправляет события биллинга в очередь уведомлений.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
}

// Service сценарии оплаты.
type Service struct {
	provider  Provider
	repo      Repository
	cache     Cache
	journal   Journal
	publisher Publisher
	cfg       config.Stripe
	log       *slog.Logger
}

// New создает Service. publisher может быть nil, тогда события не отправляются.
func New(provider Provider, repo Repository, cache Cache, journal Journal, publisher Publisher,
	cfg config.Stripe, log *slog.Logger) *Service {
	return &Service{
		provider:  provider,
		repo:      repo,
		cache:     cache,
		journal:   journal,
		publisher: publisher,
		cfg:       cfg,
		log:       log,
	}
}

// GetOrCreateRemoteCustomer возвращает первого покупателя провайдера для пользователя
// или создает нового с paymentMethodID в качестве инструмента по умолчанию.
// У существующего покупателя инструмент не меняется.
func (s *Service) GetOrCreateRemoteCustomer(ctx context.Context, customer models.Customer, paymentMethodID string) (models.RemoteCustomer, error) {
	const op = "payment.GetOrCreateRemoteCustomer"
	uid := customer.User.UUID

	unlock, err := s.cache.Lock(ctx, "customer:"+uid, s.cfg.CustomerLockTTL)
	if err != nil {
		return models.RemoteCustomer{}, fmt.Errorf("%s: %w", op, err)
	}
	defer unlock()

	rc, found, err := s.repo.FindFirstRemoteCustomer(ctx, uid)
	if err != nil {
		return models.RemoteCustomer{}, fmt.Errorf("%s: %w", op, err)
	}
	if found {
		if paymentMethodID != "" && paymentMethodID != rc.DefaultPaymentMethod {
			s.log.Info("payment method not attached to existing customer",
				slog.String("op", op),
				slog.String("customer_id", rc.ID),
				slog.String("payment_method_id", paymentMethodID))
		}
		return rc, nil
	}

	rc, err = s.provider.CreateCustomer(ctx, paymentprovider.CustomerRequest{
		Name:            customer.User.FullName(),
		Email:           customer.User.Email,
		PaymentMethodID: paymentMethodID,
		IdempotencyKey:  "customer-create-" + uid,
	})
	if err != nil {
		return models.RemoteCustomer{}, fmt.Errorf("%s: %w", op, err)
	}
	rc.UserUID = uid
	if err = s.repo.SaveRemoteCustomer(ctx, rc); err != nil {
		return models.RemoteCustomer{}, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("remote customer created", slog.String("op", op), slog.String("customer_id", rc.ID))
	return rc, nil
}

// OneTimePrice возвращает цену разовой консультации из конфига.
func (s *Service) OneTimePrice(ctx context.Context) (models.Price, error) {
	return s.price(ctx, s.cfg.OneTimePriceID)
}

func (s *Service) price(ctx context.Context, id string) (models.Price, error) {
	const op = "payment.price"
	key := "price:" + id

	var p models.Price
	found, err := s.cache.Get(ctx, key, &p)
	if err != nil {
		s.log.Warn("price cache read failed", slog.String("op", op), sl.Err(err))
	}
	if found {
		return p, nil
	}

	p, err = s.provider.GetPrice(ctx, id)
	if err != nil {
		return models.Price{}, fmt.Errorf("%s: %w", op, err)
	}
	if err = s.cache.Set(ctx, key, p, s.cfg.PriceCacheTTL); err != nil {
		s.log.Warn("price cache write failed", slog.String("op", op), sl.Err(err))
	}
	return p, nil
}

// ChargeOneTime создает и подтверждает платеж на сумму разовой консультации.
func (s *Service) ChargeOneTime(ctx context.Context, paymentMethodID string, rc models.RemoteCustomer, idempotencyKey string) (models.PaymentIntent, error) {
	const op = "payment.ChargeOneTime"

	price, err := s.OneTimePrice(ctx)
	if err != nil {
		return models.PaymentIntent{}, fmt.Errorf("%s: %w", op, err)
	}

	pi, err := s.provider.CreatePaymentIntent(ctx, paymentprovider.PaymentIntentRequest{
		CustomerID:      rc.ID,
		PaymentMethodID: paymentMethodID,
		Amount:          price.UnitAmount,
		Currency:        price.Currency,
		Description:     price.Description,
		IdempotencyKey:  idempotencyKey,
	})
	if err != nil {
		return models.PaymentIntent{}, fmt.Errorf("%s: %w", op, err)
	}
	if pi.CustomerID == "" {
		pi.CustomerID = rc.ID
	}
	if pi.PaymentMethodID == "" {
		pi.PaymentMethodID = paymentMethodID
	}
	if err = s.repo.SavePaymentIntent(ctx, pi); err != nil {
		return models.PaymentIntent{}, fmt.Errorf("%s: %w", op, err)
	}
	if pi.Status != models.PaymentIntentSucceeded {
		return models.PaymentIntent{}, apperr.Provider(
			fmt.Sprintf("Your card payment could not be completed (status: %s).", pi.Status),
			fmt.Errorf("%s: payment intent %s is %s", op, pi.ID, pi.Status))
	}
	return pi, nil
}

// Subscribe оформляет подписку на план с инструментом покупателя по умолчанию.
// У покупателя может быть только одна действующая подписка: проверка и создание
// выполняются под блокировкой покупателя.
func (s *Service) Subscribe(ctx context.Context, planID string, rc models.RemoteCustomer, idempotencyKey string) (models.RemoteSubscription, error) {
	const op = "payment.Subscribe"

	unlock, err := s.cache.Lock(ctx, "subscribe:"+rc.ID, s.cfg.CustomerLockTTL)
	if err != nil {
		return models.RemoteSubscription{}, fmt.Errorf("%s: %w", op, err)
	}
	defer unlock()

	active, found, err := s.repo.FindActiveSubscription(ctx, rc.ID)
	if err != nil {
		return models.RemoteSubscription{}, fmt.Errorf("%s: %w", op, err)
	}
	if found {
		s.log.Info("subscription already active",
			slog.String("op", op),
			slog.String("customer_id", rc.ID),
			slog.String("subscription_id", active.ID))
		return models.RemoteSubscription{}, apperr.Form(FormMessage, AlreadySubscribedMessage)
	}

	sub, err := s.provider.CreateSubscription(ctx, paymentprovider.SubscriptionRequest{
		CustomerID:           rc.ID,
		PlanID:               planID,
		DefaultPaymentMethod: rc.DefaultPaymentMethod,
		IdempotencyKey:       idempotencyKey,
	})
	if err != nil {
		return models.RemoteSubscription{}, fmt.Errorf("%s: %w", op, err)
	}
	if sub.CustomerID == "" {
		sub.CustomerID = rc.ID
	}
	if sub.PlanID == "" {
		sub.PlanID = planID
	}
	if err = s.repo.SaveSubscription(ctx, sub); err != nil {
		return models.RemoteSubscription{}, fmt.Errorf("%s: %w", op, err)
	}
	return sub, nil
}

// syncPaymentMethod получает инструмент у провайдера и сохраняет зеркало.
func (s *Service) syncPaymentMethod(ctx context.Context, id string) (models.PaymentMethod, error) {
	const op = "payment.syncPaymentMethod"

	pm, err := s.provider.GetPaymentMethod(ctx, id)
	if err != nil {
		return models.PaymentMethod{}, fmt.Errorf("%s: %w", op, err)
	}
	if err = s.repo.SavePaymentMethod(ctx, pm); err != nil {
		return models.PaymentMethod{}, fmt.Errorf("%s: %w", op, err)
	}
	return pm, nil
}

func (s *Service) publish(ctx context.Context, event models.BillingEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event.Type, event); err != nil {
		s.log.Error("failed to publish billing event",
			slog.String("type", event.Type),
			slog.String("customer_id", event.CustomerID),
			sl.Err(err))
	}
}

// toAppErr приводит ошибку к классу, который видит клиент.
func toAppErr(err error) error {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return ae
	}
	var pe *paymentprovider.Error
	if errors.As(err, &pe) {
		return apperr.Provider(pe.Message, err)
	}
	return apperr.Internal(err)
}
