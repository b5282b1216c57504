// Package logout завершает cookie-сессию пользователя.
package logout

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/medico/internal/http/response"
)

// Response адрес, на который следует перейти после выхода.
type Response struct {
	NextURL string `json:"next_url"`
}

// Session удаляет сессию.
type Session interface {
	Logout(w http.ResponseWriter, r *http.Request) error
}

// Handler обрабатывает POST выхода.
type Handler struct {
	log     *slog.Logger
	session Session
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, session Session) *Handler {
	return &Handler{log: log, session: session}
}

// ServeHTTP godoc
// @Summary Выход пользователя
// @Tags Auth
// @Produce  json
// @Success 200 {object} Response
// @Router /accounts/logout/ [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.logout"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	if err := h.session.Logout(w, r); err != nil {
		response.Fail(w, r, log, err)
		return
	}
	render.JSON(w, r, Response{NextURL: "/"})
}
