// Package apperr описывает классы ошибок, которые видит клиент,
// и их соответствие HTTP-статусам.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind класс ошибки, передается клиенту в поле type.
type Kind string

const (
	KindForm     Kind = "FormError"
	KindRequest  Kind = "RequestError"
	KindProvider Kind = "StripeError"
	KindNotFound Kind = "NotFoundError"
	KindServer   Kind = "ServerError"
)

// CommonMessage текст для клиента при любой непредвиденной ошибке.
const CommonMessage = "Something went wrong. Please refresh the page or try again later."

// Error ошибка с классом и сообщением для клиента.
// Err хранит исходную причину только для логов.
type Error struct {
	Kind     Kind
	Message  string
	Messages []string
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Status HTTP-статус для класса ошибки.
func (e *Error) Status() int {
	return HTTPStatus(e.Kind)
}

// HTTPStatus возвращает статус ответа для класса.
func HTTPStatus(k Kind) int {
	switch k {
	case KindForm, KindRequest:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Form ошибка валидации формы со списком сообщений по полям.
func Form(message string, messages ...string) *Error {
	return &Error{Kind: KindForm, Message: message, Messages: messages}
}

// Request некорректный запрос клиента.
func Request(message string) *Error {
	return &Error{Kind: KindRequest, Message: message}
}

// Provider ошибка платежного провайдера; его сообщение показывается клиенту как есть.
func Provider(message string, err error) *Error {
	return &Error{Kind: KindProvider, Message: message, Err: err}
}

// NotFound отсутствует запись, необходимая для операции.
func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// Internal непредвиденная ошибка, клиент получает CommonMessage.
func Internal(err error) *Error {
	return &Error{Kind: KindServer, Message: CommonMessage, Err: err}
}

// From приводит любую ошибку к *Error; неизвестные становятся ServerError.
func From(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal(err)
}

// IsKind проверяет класс ошибки в цепочке.
func IsKind(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}
