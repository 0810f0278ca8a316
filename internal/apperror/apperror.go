package apperror

import (
	"errors"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindForbidden
	KindUnauthenticated
)

// Error es el error de dominio que viaja hasta el handler.
// Title llena el campo "error" de la respuesta y Message el campo "message".
type Error struct {
	Kind    Kind
	Title   string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Title
	}
	return e.Title + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Status() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindUnauthenticated:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func Validation(title, message string) *Error {
	return &Error{Kind: KindValidation, Title: title, Message: message}
}

func NotFound(title, message string) *Error {
	return &Error{Kind: KindNotFound, Title: title, Message: message}
}

func Forbidden(title, message string) *Error {
	return &Error{Kind: KindForbidden, Title: title, Message: message}
}

func Unauthenticated(title, message string) *Error {
	return &Error{Kind: KindUnauthenticated, Title: title, Message: message}
}

// Internal envuelve un fallo inesperado conservando su mensaje.
func Internal(title string, err error) *Error {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return &Error{Kind: KindInternal, Title: title, Message: msg, Err: err}
}

func InvalidID() *Error {
	return Validation("ID inválido", "El ID proporcionado no es válido")
}

// From devuelve el *Error contenido en err o lo envuelve como interno.
func From(err error, title string) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(title, err)
}

func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}
