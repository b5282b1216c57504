// Package consultation отдает данные страницы консультации после оплаты.
package consultation

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/medico/internal/lib/sl"
)

// SuccessMessage сообщение, которое показывается один раз после успешной оплаты.
const SuccessMessage = "Your card payment was successful."

// Response данные страницы консультации.
type Response struct {
	Messages []string `json:"messages"`
}

// Flash одноразовый флаг успешной оплаты.
type Flash interface {
	PopCheckoutSuccess(w http.ResponseWriter, r *http.Request) (bool, error)
}

// Handler обрабатывает GET страницы консультации.
type Handler struct {
	log   *slog.Logger
	flash Flash
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, flash Flash) *Handler {
	return &Handler{log: log, flash: flash}
}

// ServeHTTP godoc
// @Summary Страница консультации
// @Description Возвращает сообщение об успешной оплате, если оно еще не было показано.
// @Tags Payments
// @Produce  json
// @Success 200 {object} Response
// @Router /users/payments/consultation/ [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.consultation"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	messages := []string{}
	set, err := h.flash.PopCheckoutSuccess(w, r)
	if err != nil {
		log.Error("failed to read checkout flag", sl.Err(err))
	}
	if set {
		messages = append(messages, SuccessMessage)
	}

	render.JSON(w, r, Response{Messages: messages})
}
