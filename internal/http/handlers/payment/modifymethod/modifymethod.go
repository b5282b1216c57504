// Package modifymethod реализует смену платежного инструмента действующей подписки.
package modifymethod

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/medico/internal/http/response"
	"github.com/magabrotheeeer/medico/internal/lib/sl"
	"github.com/magabrotheeeer/medico/internal/models"
	"github.com/magabrotheeeer/medico/internal/profile"
)

// Request тело запроса смены инструмента.
type Request struct {
	PaymentMethod string `json:"payment_method" example:"pm_456"`
}

// Response id нового основного инструмента.
type Response struct {
	PaymentMethodID string `json:"payment_method_id" example:"pm_456"`
}

// Service описывает смену инструмента подписки.
type Service interface {
	ModifyPaymentMethod(ctx context.Context, customer models.Customer, paymentMethodID string) (string, error)
}

// Handler обрабатывает POST смены инструмента.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Смена платежного инструмента
// @Tags Subscription
// @Accept  json
// @Produce  json
// @Param request body Request true "Новый инструмент"
// @Success 200 {object} Response
// @Failure 400 {object} response.ErrorResponse "RequestError"
// @Failure 404 {object} response.ErrorResponse "NotFoundError"
// @Failure 500 {object} response.ErrorResponse "StripeError или ServerError"
// @Security BearerAuth
// @Router /users/payments/modify-payment-method/ [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.modifymethod"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	customer := profile.FromContext(r.Context()).Customer
	if customer == nil {
		response.Fail(w, r, log, errors.New("customer profile missing in context"))
		return
	}

	// Отсутствие подписки проверяется раньше тела: испорченное тело дает
	// пустой инструмент, и сервис сначала вернет NotFound, затем RequestError.
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Info("failed to decode request body", sl.Err(err))
		req = Request{}
	}

	id, err := h.service.ModifyPaymentMethod(r.Context(), *customer, req.PaymentMethod)
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}

	log.Info("payment method modified", slog.String("payment_method_id", id))
	render.JSON(w, r, Response{PaymentMethodID: id})
}
