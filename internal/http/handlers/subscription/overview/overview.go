// Package overview отдает сводку по подписке покупателя для страницы
// управления подпиской.
package overview

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/medico/internal/http/response"
	"github.com/magabrotheeeer/medico/internal/models"
	"github.com/magabrotheeeer/medico/internal/profile"
	"github.com/magabrotheeeer/medico/internal/services/payment"
)

// Response сводка; Subscription пусто, если подписки нет.
type Response struct {
	Subscription *payment.Overview `json:"subscription"`
}

// Service источник сводки по подписке.
type Service interface {
	SubscriptionOverview(ctx context.Context, customer models.Customer) (payment.Overview, bool, error)
}

// Handler обрабатывает GET страницы подписки.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Сводка по подписке
// @Tags Subscription
// @Produce  json
// @Success 200 {object} Response
// @Failure 500 {object} response.ErrorResponse
// @Security BearerAuth
// @Router /users/subscription/ [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.overview"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	customer := profile.FromContext(r.Context()).Customer
	if customer == nil {
		response.Fail(w, r, log, errors.New("customer profile missing in context"))
		return
	}

	ov, found, err := h.service.SubscriptionOverview(r.Context(), *customer)
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}

	var resp Response
	if found {
		resp.Subscription = &ov
	}
	render.JSON(w, r, resp)
}
