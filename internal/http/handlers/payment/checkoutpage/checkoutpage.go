// Package checkoutpage отдает данные для страницы оформления: цену
// консультации, публичный ключ провайдера и ограничение длины причины обращения.
package checkoutpage

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/medico/internal/http/response"
	"github.com/magabrotheeeer/medico/internal/models"
)

// Response данные страницы оформления.
type Response struct {
	PublishableKey     string `json:"publishable_key"`
	PriceID            string `json:"price_id"`
	UnitAmount         int64  `json:"unit_amount"`
	Currency           string `json:"currency"`
	HumanReadablePrice string `json:"human_readable_price" example:"$20.00 USD"`
	ReasonMaxLength    int    `json:"reason_max_length"`
}

// Service источник цены разовой консультации.
type Service interface {
	OneTimePrice(ctx context.Context) (models.Price, error)
}

// Handler обрабатывает GET страницы оформления.
type Handler struct {
	log            *slog.Logger
	service        Service
	publishableKey string
	reasonMaxLen   int
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service, publishableKey string, reasonMaxLen int) *Handler {
	return &Handler{
		log:            log,
		service:        service,
		publishableKey: publishableKey,
		reasonMaxLen:   reasonMaxLen,
	}
}

// ServeHTTP godoc
// @Summary Данные страницы оформления
// @Tags Payments
// @Produce  json
// @Success 200 {object} Response
// @Failure 500 {object} response.ErrorResponse
// @Router /users/payments/checkout/ [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.checkoutpage"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	price, err := h.service.OneTimePrice(r.Context())
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}

	render.JSON(w, r, Response{
		PublishableKey:     h.publishableKey,
		PriceID:            price.ID,
		UnitAmount:         price.UnitAmount,
		Currency:           price.Currency,
		HumanReadablePrice: price.HumanReadable(),
		ReasonMaxLength:    h.reasonMaxLen,
	})
}
