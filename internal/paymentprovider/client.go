// Package paymentprovider оборачивает API Stripe и возвращает доменные модели.
// Каждый вызов ограничен таймаутом из конфига.
package paymentprovider

import (
	"context"
	"net/http"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"

	"github.com/magabrotheeeer/medico/internal/config"
	"github.com/magabrotheeeer/medico/internal/metrics"
	"github.com/magabrotheeeer/medico/internal/models"
)

type Client struct {
	sc      *client.API
	timeout time.Duration
	address config.Address
}

// NewClient создаёт клиент Stripe. APIURL из конфига переопределяет адрес API.
func NewClient(cfg config.Stripe) *Client {
	backendCfg := &stripe.BackendConfig{
		HTTPClient:        &http.Client{Timeout: cfg.Timeout},
		MaxNetworkRetries: stripe.Int64(cfg.MaxNetworkRetries),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
	}
	if cfg.APIURL != "" {
		backendCfg.URL = stripe.String(cfg.APIURL)
	}
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, backendCfg)

	return &Client{
		sc: client.New(cfg.SecretKey, &stripe.Backends{
			API:     backend,
			Connect: backend,
			Uploads: backend,
		}),
		timeout: cfg.Timeout,
		address: cfg.BillingAddress,
	}
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

// GetPaymentMethod получает платежный инструмент по id.
func (c *Client) GetPaymentMethod(ctx context.Context, id string) (models.PaymentMethod, error) {
	const op = "paymentprovider.GetPaymentMethod"
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	params := &stripe.PaymentMethodParams{}
	params.Context = ctx

	start := time.Now()
	pm, err := c.sc.PaymentMethods.Get(id, params)
	metrics.ObserveProvider("payment_method_get", start, err)
	if err != nil {
		return models.PaymentMethod{}, wrapErr(op, err)
	}
	return toPaymentMethod(pm), nil
}

// AttachPaymentMethod привязывает инструмент к покупателю.
func (c *Client) AttachPaymentMethod(ctx context.Context, id, customerID string) (models.PaymentMethod, error) {
	const op = "paymentprovider.AttachPaymentMethod"
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	params := &stripe.PaymentMethodAttachParams{Customer: stripe.String(customerID)}
	params.Context = ctx

	start := time.Now()
	pm, err := c.sc.PaymentMethods.Attach(id, params)
	metrics.ObserveProvider("payment_method_attach", start, err)
	if err != nil {
		return models.PaymentMethod{}, wrapErr(op, err)
	}
	return toPaymentMethod(pm), nil
}

// CreateCustomer создает покупателя с инструментом по умолчанию и адресом из конфига.
func (c *Client) CreateCustomer(ctx context.Context, req CustomerRequest) (models.RemoteCustomer, error) {
	const op = "paymentprovider.CreateCustomer"
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	params := &stripe.CustomerParams{
		Name:          stripe.String(req.Name),
		Email:         stripe.String(req.Email),
		PaymentMethod: stripe.String(req.PaymentMethodID),
		InvoiceSettings: &stripe.CustomerInvoiceSettingsParams{
			DefaultPaymentMethod: stripe.String(req.PaymentMethodID),
		},
		Address: &stripe.AddressParams{
			City:       stripe.String(c.address.City),
			Country:    stripe.String(c.address.Country),
			Line1:      stripe.String(c.address.Line1),
			Line2:      stripe.String(c.address.Line2),
			PostalCode: stripe.String(c.address.PostalCode),
			State:      stripe.String(c.address.State),
		},
	}
	params.Context = ctx
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	start := time.Now()
	cus, err := c.sc.Customers.New(params)
	metrics.ObserveProvider("customer_create", start, err)
	if err != nil {
		return models.RemoteCustomer{}, wrapErr(op, err)
	}
	return toCustomer(cus), nil
}

// SetDefaultPaymentMethod делает инструмент платежным по умолчанию для счетов покупателя.
func (c *Client) SetDefaultPaymentMethod(ctx context.Context, customerID, paymentMethodID string) (models.RemoteCustomer, error) {
	const op = "paymentprovider.SetDefaultPaymentMethod"
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	params := &stripe.CustomerParams{
		InvoiceSettings: &stripe.CustomerInvoiceSettingsParams{
			DefaultPaymentMethod: stripe.String(paymentMethodID),
		},
	}
	params.Context = ctx

	start := time.Now()
	cus, err := c.sc.Customers.Update(customerID, params)
	metrics.ObserveProvider("customer_update", start, err)
	if err != nil {
		return models.RemoteCustomer{}, wrapErr(op, err)
	}
	return toCustomer(cus), nil
}

// GetPrice получает цену вместе с продуктом.
func (c *Client) GetPrice(ctx context.Context, id string) (models.Price, error) {
	const op = "paymentprovider.GetPrice"
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	params := &stripe.PriceParams{}
	params.Context = ctx
	params.AddExpand("product")

	start := time.Now()
	p, err := c.sc.Prices.Get(id, params)
	metrics.ObserveProvider("price_get", start, err)
	if err != nil {
		return models.Price{}, wrapErr(op, err)
	}
	return toPrice(p), nil
}

// CreatePaymentIntent создает и сразу подтверждает карточный платеж.
func (c *Client) CreatePaymentIntent(ctx context.Context, req PaymentIntentRequest) (models.PaymentIntent, error) {
	const op = "paymentprovider.CreatePaymentIntent"
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(req.Amount),
		Currency:           stripe.String(req.Currency),
		Customer:           stripe.String(req.CustomerID),
		PaymentMethod:      stripe.String(req.PaymentMethodID),
		Description:        stripe.String(req.Description),
		Confirm:            stripe.Bool(true),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}
	params.Context = ctx
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	start := time.Now()
	pi, err := c.sc.PaymentIntents.New(params)
	metrics.ObserveProvider("payment_intent_create", start, err)
	if err != nil {
		return models.PaymentIntent{}, wrapErr(op, err)
	}
	return toPaymentIntent(pi), nil
}

// CreateSubscription создает подписку на план.
func (c *Client) CreateSubscription(ctx context.Context, req SubscriptionRequest) (models.RemoteSubscription, error) {
	const op = "paymentprovider.CreateSubscription"
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	params := &stripe.SubscriptionParams{
		Customer: stripe.String(req.CustomerID),
		Items: []*stripe.SubscriptionItemsParams{
			{Price: stripe.String(req.PlanID)},
		},
	}
	if req.DefaultPaymentMethod != "" {
		params.DefaultPaymentMethod = stripe.String(req.DefaultPaymentMethod)
	}
	params.Context = ctx
	params.AddExpand("latest_invoice.payment_intent")
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	start := time.Now()
	sub, err := c.sc.Subscriptions.New(params)
	metrics.ObserveProvider("subscription_create", start, err)
	if err != nil {
		return models.RemoteSubscription{}, wrapErr(op, err)
	}
	return toSubscription(sub), nil
}

// UpdateSubscriptionPaymentMethod меняет инструмент по умолчанию у подписки.
func (c *Client) UpdateSubscriptionPaymentMethod(ctx context.Context, subscriptionID, paymentMethodID string) (models.RemoteSubscription, error) {
	const op = "paymentprovider.UpdateSubscriptionPaymentMethod"
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	params := &stripe.SubscriptionParams{
		DefaultPaymentMethod: stripe.String(paymentMethodID),
	}
	params.Context = ctx

	start := time.Now()
	sub, err := c.sc.Subscriptions.Update(subscriptionID, params)
	metrics.ObserveProvider("subscription_update", start, err)
	if err != nil {
		return models.RemoteSubscription{}, wrapErr(op, err)
	}
	return toSubscription(sub), nil
}

// CancelSubscription немедленно отменяет подписку.
func (c *Client) CancelSubscription(ctx context.Context, subscriptionID string) (models.RemoteSubscription, error) {
	const op = "paymentprovider.CancelSubscription"
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	params := &stripe.SubscriptionCancelParams{}
	params.Context = ctx

	start := time.Now()
	sub, err := c.sc.Subscriptions.Cancel(subscriptionID, params)
	metrics.ObserveProvider("subscription_cancel", start, err)
	if err != nil {
		return models.RemoteSubscription{}, wrapErr(op, err)
	}
	return toSubscription(sub), nil
}
