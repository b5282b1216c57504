package paymentprovider

import (
	"errors"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v76"

	"github.com/magabrotheeeer/medico/internal/models"
)

// CustomerRequest параметры создания покупателя у провайдера.
type CustomerRequest struct {
	Name            string
	Email           string
	PaymentMethodID string
	IdempotencyKey  string
}

// PaymentIntentRequest параметры разового платежа с немедленным подтверждением.
type PaymentIntentRequest struct {
	CustomerID      string
	PaymentMethodID string
	Amount          int64
	Currency        string
	Description     string
	IdempotencyKey  string
}

// SubscriptionRequest параметры подписки с одной позицией.
type SubscriptionRequest struct {
	CustomerID           string
	PlanID               string
	DefaultPaymentMethod string
	IdempotencyKey       string
}

// Error ошибка, которую вернул сам провайдер. Message можно показывать клиенту.
type Error struct {
	Op         string
	Message    string
	Code       string
	Type       string
	HTTPStatus int
	Err        error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: stripe %s (%s): %s", e.Op, e.Type, e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// wrapErr превращает *stripe.Error в *Error, остальные ошибки просто оборачивает.
func wrapErr(op string, err error) error {
	var se *stripe.Error
	if errors.As(err, &se) {
		return &Error{
			Op:         op,
			Message:    se.Msg,
			Code:       string(se.Code),
			Type:       string(se.Type),
			HTTPStatus: se.HTTPStatusCode,
			Err:        err,
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func unix(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}

func toPaymentMethod(pm *stripe.PaymentMethod) models.PaymentMethod {
	out := models.PaymentMethod{
		ID:   pm.ID,
		Type: string(pm.Type),
	}
	if pm.Customer != nil {
		out.CustomerID = pm.Customer.ID
	}
	if pm.Card != nil {
		out.CardBrand = string(pm.Card.Brand)
		out.CardLast4 = pm.Card.Last4
		out.ExpMonth = int64(pm.Card.ExpMonth)
		out.ExpYear = int64(pm.Card.ExpYear)
	}
	return out
}

func toCustomer(c *stripe.Customer) models.RemoteCustomer {
	out := models.RemoteCustomer{
		ID:        c.ID,
		Email:     c.Email,
		Name:      c.Name,
		CreatedAt: unix(c.Created),
	}
	if c.InvoiceSettings != nil && c.InvoiceSettings.DefaultPaymentMethod != nil {
		out.DefaultPaymentMethod = c.InvoiceSettings.DefaultPaymentMethod.ID
	}
	return out
}

func toPrice(p *stripe.Price) models.Price {
	out := models.Price{
		ID:         p.ID,
		UnitAmount: p.UnitAmount,
		Currency:   string(p.Currency),
	}
	if p.Product != nil {
		out.ProductID = p.Product.ID
		out.Description = p.Product.Description
	}
	if p.Recurring != nil {
		out.Interval = string(p.Recurring.Interval)
	}
	return out
}

func toPaymentIntent(pi *stripe.PaymentIntent) models.PaymentIntent {
	out := models.PaymentIntent{
		ID:          pi.ID,
		Amount:      pi.Amount,
		Currency:    string(pi.Currency),
		Status:      string(pi.Status),
		Description: pi.Description,
		CreatedAt:   unix(pi.Created),
	}
	if pi.Customer != nil {
		out.CustomerID = pi.Customer.ID
	}
	if pi.PaymentMethod != nil {
		out.PaymentMethodID = pi.PaymentMethod.ID
	}
	return out
}

func toSubscription(s *stripe.Subscription) models.RemoteSubscription {
	out := models.RemoteSubscription{
		ID:                 s.ID,
		Status:             string(s.Status),
		CurrentPeriodStart: unix(s.CurrentPeriodStart),
		CurrentPeriodEnd:   unix(s.CurrentPeriodEnd),
	}
	if s.Customer != nil {
		out.CustomerID = s.Customer.ID
	}
	if s.DefaultPaymentMethod != nil {
		out.DefaultPaymentMethod = s.DefaultPaymentMethod.ID
	}
	if s.CanceledAt != 0 {
		t := unix(s.CanceledAt)
		out.CanceledAt = &t
	}
	if s.Items != nil && len(s.Items.Data) > 0 && s.Items.Data[0].Price != nil {
		out.PlanID = s.Items.Data[0].Price.ID
	}
	return out
}
