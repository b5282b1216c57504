// Package login реализует HTTP-обработчик входа пользователя.
//
// Тело запроса декодируется из JSON и проверяется валидатором. При успешном
// входе устанавливается cookie-сессия и возвращается JWT для API-клиентов
// вместе с адресом, на который следует перейти.
package login

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/medico/internal/access"
	"github.com/magabrotheeeer/medico/internal/http/response"
	"github.com/magabrotheeeer/medico/internal/lib/apperr"
	"github.com/magabrotheeeer/medico/internal/lib/sl"
	"github.com/magabrotheeeer/medico/internal/models"
	"github.com/magabrotheeeer/medico/internal/services/auth"
)

// InvalidCredentialsMessage сообщение при неверном имени или пароле.
const InvalidCredentialsMessage = "Please enter a correct username and password."

// Request входные данные для авторизации.
type Request struct {
	Username string `json:"username" validate:"required,max=150"`
	Password string `json:"password" validate:"required"`
}

// Response ответ при успешном входе.
type Response struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	NextURL  string `json:"next_url"`
}

// Service описывает проверку учетных данных.
type Service interface {
	Login(ctx context.Context, username, password string) (models.User, string, error)
}

// Session устанавливает сессию пользователя.
type Session interface {
	Login(w http.ResponseWriter, r *http.Request, userUID, username string) error
}

// Handler обрабатывает HTTP-запросы для авторизации.
type Handler struct {
	log      *slog.Logger
	service  Service
	session  Session
	validate *validator.Validate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service, session Session) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		session:  session,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Вход пользователя
// @Description Проверяет имя и пароль, устанавливает cookie-сессию и возвращает JWT.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request true "Учетные данные пользователя"
// @Param next query string false "Куда перейти после входа"
// @Success 200 {object} Response
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 401 {object} response.ErrorResponse "Неверные учетные данные"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /accounts/login/ [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.login"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Info("failed to decode request body", sl.Err(err))
		response.Fail(w, r, log, apperr.Request("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			log.Info("validation failed", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.ValidationError(verrs))
			return
		}
		response.Fail(w, r, log, err)
		return
	}

	user, token, err := h.service.Login(r.Context(), req.Username, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		log.Info("invalid credentials", slog.String("username", req.Username))
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error(apperr.KindRequest, InvalidCredentialsMessage))
		return
	}
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}

	if err := h.session.Login(w, r, user.UUID, user.Username); err != nil {
		log.Error("failed to establish session", sl.Err(err))
	}

	log.Info("login success", slog.String("username", user.Username))
	render.JSON(w, r, Response{
		Token:    token,
		Username: user.Username,
		NextURL:  nextURL(r, user.Username),
	})
}

// nextURL адрес после входа: локальный путь из параметра next или страница пользователя.
func nextURL(r *http.Request, username string) string {
	next := r.URL.Query().Get("next")
	if strings.HasPrefix(next, "/") && !strings.HasPrefix(next, "//") {
		return next
	}
	return access.UserDetailPath(username)
}
