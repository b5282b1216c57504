// Package cancel реализует отмену действующей подписки покупателя.
package cancel

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
)

// Response ответ при успешной отмене.
type Response struct {
	NextURL      string `json:"next_url" example:"/"`
	DeletedSubID string `json:"deleted_sub_id" example:"sub_123"`
}

// Service описывает отмену подписки.
type Service interface {
	CancelSubscription(ctx context.Context, customer models.Customer) (models.RemoteSubscription, error)
}

// Handler обрабатывает POST отмены подписки.
type Handler struct {
	log     *slog.Logger
	service Service
	nextURL string
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service, nextURL string) *Handler {
	return &Handler{log: log, service: service, nextURL: nextURL}
}

// ServeHTTP godoc
// @Summary Отмена подписки
// @Tags Subscription
// @Produce  json
// @Success 200 {object} Response
// @Failure 404 {object} response.ErrorResponse "NotFoundError"
// @Failure 500 {object} response.ErrorResponse "StripeError или ServerError"
// @Security BearerAuth
// @Router /users/cancel-subscription/ [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.cancel"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	customer := profile.FromContext(r.Context()).Customer
	if customer == nil {
		response.Fail(w, r, log, errors.New("customer profile missing in context"))
		return
	}

	sub, err := h.service.CancelSubscription(r.Context(), *customer)
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}

	log.Info("subscription canceled", slog.String("subscription_id", sub.ID))
	render.JSON(w, r, Response{NextURL: h.nextURL, DeletedSubID: sub.ID})
}
