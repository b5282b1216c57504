package models

import "time"

// CheckoutMode путь оформления: разовая оплата или подписка.
type CheckoutMode string

const (
	CheckoutOneTime      CheckoutMode = "one_time"
	CheckoutSubscription CheckoutMode = "subscription"
)

// AttemptStatus состояние попытки оформления.
type AttemptStatus string

const (
	AttemptPending   AttemptStatus = "pending"
	AttemptCompleted AttemptStatus = "completed"
	AttemptFailed    AttemptStatus = "failed"
)

// CheckoutAttempt журнал попытки оформления: записывается до первого
// обращения к провайдеру и закрывается после него.
type CheckoutAttempt struct {
	ID              string        `json:"id"`
	UserUID         string        `json:"user_uid"`
	Mode            CheckoutMode  `json:"mode"`
	Status          AttemptStatus `json:"status"`
	PaymentMethodID string        `json:"payment_method_id"`
	CustomerID      string        `json:"customer_id,omitempty"`
	PaymentIntentID string        `json:"payment_intent_id,omitempty"`
	SubscriptionID  string        `json:"subscription_id,omitempty"`
	FailureReason   string        `json:"failure_reason,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// CheckoutInformation запись о причине обращения, связанная с покупателем
// и, для разовой оплаты, с платежом. Создается один раз и не изменяется.
type CheckoutInformation struct {
	ID              int64     `json:"id"`
	AttemptID       string    `json:"attempt_id"`
	ReasonForVisit  string    `json:"reason_for_visit"`
	CustomerID      string    `json:"customer_id"`
	PaymentIntentID *string   `json:"payment_intent_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// BillingEvent событие биллинга для очереди уведомлений.
type BillingEvent struct {
	Type           string    `json:"type"`
	UserUID        string    `json:"user_uid"`
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	CustomerID     string    `json:"customer_id"`
	SubscriptionID string    `json:"subscription_id,omitempty"`
	PaymentIntent  string    `json:"payment_intent_id,omitempty"`
	Amount         string    `json:"amount,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// Типы событий биллинга, совпадают с ключами маршрутизации.
const (
	EventCheckoutSucceeded    = "checkout.succeeded"
	EventSubscriptionCanceled = "subscription.canceled"
)
