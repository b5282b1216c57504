// Package checkout реализует HTTP-обработчик оформления консультации:
// разовая оплата или подписка через платежного провайдера.
package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/medico/internal/http/response"
	"github.com/magabrotheeeer/medico/internal/lib/apperr"
	"github.com/magabrotheeeer/medico/internal/lib/sl"
	"github.com/magabrotheeeer/medico/internal/models"
	"github.com/magabrotheeeer/medico/internal/profile"
	"github.com/magabrotheeeer/medico/internal/services/payment"
)

// IntentStatus статус, который возвращается при успешном оформлении.
const IntentStatus = "succeeded"

// Request тело запроса оформления. Наличие plan_id выбирает подписку.
// reason_for_visit обязателен, пустая строка допустима.
type Request struct {
	PaymentMethod  string  `json:"payment_method" example:"pm_123"`
	ReasonForVisit *string `json:"reason_for_visit" example:"checkup"`
	PlanID         string `json:"plan_id,omitempty" example:"price_monthly"`
}

// Response ответ при успешном оформлении.
type Response struct {
	NextURL      string `json:"next_url" example:"/users/payments/consultation/"`
	CustomerID   string `json:"customer_id" example:"cus_123"`
	IntentStatus string `json:"intent_status" example:"succeeded"`
}

// Service описывает оформление консультации.
type Service interface {
	Checkout(ctx context.Context, customer models.Customer, req payment.CheckoutRequest) (payment.CheckoutResult, error)
}

// Flash отмечает успешную оплату в сессии.
type Flash interface {
	SetCheckoutSuccess(w http.ResponseWriter, r *http.Request) error
}

// Handler обрабатывает HTTP-запросы оформления.
type Handler struct {
	log     *slog.Logger
	service Service
	flash   Flash
	nextURL string
}

// New создает новый экземпляр Handler. nextURL страница, на которую
// фронтенд переходит после успешной оплаты.
func New(log *slog.Logger, service Service, flash Flash, nextURL string) *Handler {
	return &Handler{
		log:     log,
		service: service,
		flash:   flash,
		nextURL: nextURL,
	}
}

// ServeHTTP godoc
// @Summary Оформление консультации
// @Description Проверяет форму, создает или находит покупателя у провайдера, проводит разовый платеж или оформляет подписку.
// @Tags Payments
// @Accept  json
// @Produce  json
// @Param request body Request true "Данные формы оформления"
// @Success 200 {object} Response
// @Failure 400 {object} response.ErrorResponse "FormError или RequestError"
// @Failure 500 {object} response.ErrorResponse "StripeError или ServerError"
// @Security BearerAuth
// @Router /users/payments/checkout/ [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.checkout"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	customer := profile.FromContext(r.Context()).Customer
	if customer == nil {
		response.Fail(w, r, log, errors.New("customer profile missing in context"))
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Info("failed to decode request body", sl.Err(err))
		response.Fail(w, r, log, apperr.Request(apperr.CommonMessage))
		return
	}
	if req.ReasonForVisit == nil {
		log.Info("reason_for_visit is missing")
		response.Fail(w, r, log, apperr.Request(apperr.CommonMessage))
		return
	}

	res, err := h.service.Checkout(r.Context(), *customer, payment.CheckoutRequest{
		PaymentMethodID: req.PaymentMethod,
		ReasonForVisit:  *req.ReasonForVisit,
		PlanID:          req.PlanID,
	})
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}

	if err := h.flash.SetCheckoutSuccess(w, r); err != nil {
		log.Error("failed to store checkout flag", sl.Err(err))
	}

	log.Info("checkout succeeded",
		slog.String("mode", string(res.Mode)),
		slog.String("customer_id", res.Customer.ID),
	)
	render.JSON(w, r, Response{
		NextURL:      h.nextURL,
		CustomerID:   res.Customer.ID,
		IntentStatus: IntentStatus,
	})
}
