// Package response содержит вспомогательные типы и функции для формирования
// JSON-ответов HTTP-обработчиков: конверт ошибки {"error": {...}} и ответ
// с ошибками полей формы регистрации.
package response

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/medico/internal/lib/apperr"
	"github.com/magabrotheeeer/medico/internal/lib/sl"
)

// ErrorBody содержимое конверта ошибки.
type ErrorBody struct {
	Message  string   `json:"message" example:"Please fill in all the fields in the checkout form properly."`
	Type     string   `json:"type" example:"FormError"`
	Messages []string `json:"messages,omitempty"`
}

// ErrorResponse конверт ошибки, используется и в аннотациях @Failure.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// FieldErrorsResponse ошибки формы по именам полей.
type FieldErrorsResponse struct {
	Errors map[string][]string `json:"errors"`
}

// MethodNotAllowedText тело ответа 405; отдается обычным текстом, без конверта.
const MethodNotAllowedText = "Method not allowed"

// Error возвращает конверт ошибки указанного класса.
func Error(kind apperr.Kind, msg string, messages ...string) ErrorResponse {
	return ErrorResponse{Error: ErrorBody{Message: msg, Type: string(kind), Messages: messages}}
}

// Fail приводит err к классу ошибки, пишет статус и конверт.
// Для ServerError клиент видит только общее сообщение, причина уходит в лог.
func Fail(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	e := apperr.From(err)
	switch e.Kind {
	case apperr.KindServer, apperr.KindProvider:
		log.Error("request failed", slog.String("type", string(e.Kind)), sl.Err(err))
	default:
		log.Info("request rejected", slog.String("type", string(e.Kind)), slog.String("message", e.Message))
	}

	w.WriteHeader(e.Status())
	render.JSON(w, r, Error(e.Kind, e.Message, e.Messages...))
}

// FieldErrors отвечает 400 с ошибками полей формы.
func FieldErrors(w http.ResponseWriter, r *http.Request, errs map[string][]string) {
	w.WriteHeader(http.StatusBadRequest)
	render.JSON(w, r, FieldErrorsResponse{Errors: errs})
}

// MethodNotAllowed отвечает 405 обычным текстом.
func MethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	http.Error(w, MethodNotAllowedText, http.StatusMethodNotAllowed)
}

// ValidationError формирует RequestError на основе ошибок валидации тела запроса.
// Каждое нарушение превращается в отдельное человеко-читаемое сообщение.
func ValidationError(errs validator.ValidationErrors) ErrorResponse {
	var msgs []string
	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("field %s is a required field", err.Field()))
		case "min":
			msgs = append(msgs, fmt.Sprintf("field %s must be at least %s characters long", err.Field(), err.Param()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("field %s must be at most %s characters long", err.Field(), err.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("field %s is not a valid", err.Field()))
		}
	}
	return Error(apperr.KindRequest, "invalid request body", msgs...)
}
