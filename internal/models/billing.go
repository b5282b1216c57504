package models

import (
	"fmt"
	"strings"
	"time"
)

// RemoteCustomer локальное зеркало покупателя у платежного провайдера.
type RemoteCustomer struct {
	ID                   string    `json:"id"`
	UserUID              string    `json:"user_uid"`
	Email                string    `json:"email"`
	Name                 string    `json:"name"`
	DefaultPaymentMethod string    `json:"default_payment_method,omitempty"`
	CreatedAt            time.Time `json:"created_at"`
}

// PaymentMethod зеркало платежного инструмента (карты).
type PaymentMethod struct {
	ID         string `json:"id"`
	CustomerID string `json:"customer_id,omitempty"`
	Type       string `json:"type"`
	CardBrand  string `json:"brand,omitempty"`
	CardLast4  string `json:"last4,omitempty"`
	ExpMonth   int64  `json:"exp_month,omitempty"`
	ExpYear    int64  `json:"exp_year,omitempty"`
}

// Статусы подписки провайдера, при которых она считается завершенной.
const (
	SubscriptionCanceled          = "canceled"
	SubscriptionIncompleteExpired = "incomplete_expired"
)

// RemoteSubscription зеркало подписки провайдера.
type RemoteSubscription struct {
	ID                   string     `json:"id"`
	CustomerID           string     `json:"customer_id"`
	PlanID               string     `json:"plan_id"`
	Status               string     `json:"status"`
	DefaultPaymentMethod string     `json:"default_payment_method,omitempty"`
	CurrentPeriodStart   time.Time  `json:"current_period_start"`
	CurrentPeriodEnd     time.Time  `json:"current_period_end"`
	CanceledAt           *time.Time `json:"canceled_at,omitempty"`
}

// Active сообщает, считается ли подписка действующей.
func (s RemoteSubscription) Active() bool {
	return s.Status != SubscriptionCanceled && s.Status != SubscriptionIncompleteExpired
}

// PaymentIntentSucceeded статус успешно проведенного платежа.
const PaymentIntentSucceeded = "succeeded"

// PaymentIntent зеркало разового платежа.
type PaymentIntent struct {
	ID              string    `json:"id"`
	CustomerID      string    `json:"customer_id"`
	PaymentMethodID string    `json:"payment_method_id"`
	Amount          int64     `json:"amount"`
	Currency        string    `json:"currency"`
	Status          string    `json:"status"`
	Description     string    `json:"description"`
	CreatedAt       time.Time `json:"created_at"`
}

// Price цена продукта у провайдера. Сумма в минимальных единицах валюты.
type Price struct {
	ID          string `json:"id"`
	ProductID   string `json:"product_id"`
	UnitAmount  int64  `json:"unit_amount"`
	Currency    string `json:"currency"`
	Description string `json:"description"`
	Interval    string `json:"interval,omitempty"`
}

// HumanReadable форматирует цену, например "$20.00 USD/month".
func (p Price) HumanReadable() string {
	cur := strings.ToUpper(p.Currency)
	amount := fmt.Sprintf("%d.%02d", p.UnitAmount/100, p.UnitAmount%100)
	if cur == "USD" {
		amount = "$" + amount
	}
	s := amount + " " + cur
	if p.Interval != "" {
		s += "/" + p.Interval
	}
	return s
}
