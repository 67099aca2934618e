package response

import (
	"errors"
	"net/http"
)

// Kind classifies an AppError and fixes its HTTP status.
type Kind int

const (
	KindInternal Kind = iota
	KindBadRequest
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	KindPaymentGateway
)

// Status returns the HTTP status code for the kind.
func (k Kind) Status() int {
	switch k {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindPaymentGateway:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (k Kind) defaultCode() ErrCode {
	switch k {
	case KindBadRequest:
		return ErrBadRequest
	case KindUnauthorized:
		return ErrTokenInvalid
	case KindForbidden:
		return ErrForbidden
	case KindNotFound:
		return ErrNotFound
	case KindConflict:
		return ErrConflict
	case KindPaymentGateway:
		return ErrPaymentGateway
	default:
		return ErrInternal
	}
}

// AppError is a named-kind error that the error-handler middleware turns
// into a response. Message is shown to the client; Err is only logged.
type AppError struct {
	Kind    Kind
	Code    ErrCode
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

// NewAppError builds an AppError; an empty code falls back to the kind's default.
func NewAppError(kind Kind, code ErrCode, message string, err error) *AppError {
	if code == "" {
		code = kind.defaultCode()
	}
	if message == "" {
		message = GetMessage(code)
	}
	return &AppError{Kind: kind, Code: code, Message: message, Err: err}
}

func BadRequest(message string) *AppError {
	return NewAppError(KindBadRequest, ErrBadRequest, message, nil)
}

func Unauthorized(code ErrCode, message string) *AppError {
	return NewAppError(KindUnauthorized, code, message, nil)
}

func Forbidden(message string) *AppError {
	return NewAppError(KindForbidden, ErrForbidden, message, nil)
}

func NotFound(message string) *AppError {
	return NewAppError(KindNotFound, ErrNotFound, message, nil)
}

func Conflict(message string) *AppError {
	return NewAppError(KindConflict, ErrConflict, message, nil)
}

func PaymentGateway(err error) *AppError {
	return NewAppError(KindPaymentGateway, ErrPaymentGateway, "", err)
}

// AsAppError extracts an AppError from err's chain.
func AsAppError(err error) (*AppError, bool) {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}
