package service

import (
	"errors"
	"fmt"
)

const (
	// ErrInternalServerError means that an internal error has occurred.
	ErrInternalServerError = "internal_server_error"
	// ErrEntityNotFound means that no worker is registered for the requested address.
	ErrEntityNotFound = "entity_not_found"
	// ErrBadParameter means that provided parameter does not match declared.
	ErrBadParameter = "bad_parameter"
	// ErrTransport means the controller could not be reached (connection refused, reset, DNS).
	ErrTransport = "transport_error"
	// ErrDeadlineExceeded means a call ran past its configured deadline.
	ErrDeadlineExceeded = "deadline_exceeded"
	// ErrController means the controller answered with a non-200 status.
	ErrController = "controller_error"
	// ErrBadResponse means the controller answered 200 with a body that could not be decoded.
	ErrBadResponse = "bad_response"
)

// GatewayError is a classified gateway failure.
type GatewayError struct {
	// Code is a machine-readable code.
	Code string `json:"code,omitempty"`
	// Message is a human-readable message.
	Message string `json:"message"`
	// Inner is a wrapped error that is never shown to API consumers.
	Inner error `json:"-"`
}

// NewGatewayError creates a new GatewayError.
func NewGatewayError(code string, message string, inner error) *GatewayError {
	return &GatewayError{
		Code:    code,
		Message: message,
		Inner:   inner,
	}
}

func newClassified(code string, message string, inner error) *GatewayError {
	if gwInner := ToGatewayError(inner); gwInner != nil {
		return gwInner
	}
	return NewGatewayError(code, message, inner)
}

func NewInternalServerError(message string, inner error) *GatewayError {
	return newClassified(ErrInternalServerError, message, inner)
}

func NewEntityNotFoundError(message string, inner error) *GatewayError {
	return newClassified(ErrEntityNotFound, message, inner)
}

func NewBadParameterError(message string, inner error) *GatewayError {
	return newClassified(ErrBadParameter, message, inner)
}

func NewTransportError(message string, inner error) *GatewayError {
	return newClassified(ErrTransport, message, inner)
}

func NewDeadlineExceededError(message string, inner error) *GatewayError {
	return newClassified(ErrDeadlineExceeded, message, inner)
}

func NewControllerError(message string, inner error) *GatewayError {
	return newClassified(ErrController, message, inner)
}

func NewBadResponseError(message string, inner error) *GatewayError {
	return newClassified(ErrBadResponse, message, inner)
}

func (e GatewayError) Error() string {
	if e.Inner != nil {
		return fmt.Sprintf("%s %s: %v", e.Code, e.Message, e.Inner)
	}

	return fmt.Sprintf("%s %s", e.Code, e.Message)
}

// Unwrap the error returning the error's reason.
func (e GatewayError) Unwrap() error {
	return e.Inner
}

// ToGatewayError returns the first *GatewayError in err's chain, or nil.
func ToGatewayError(err error) *GatewayError {
	var e *GatewayError
	if errors.As(err, &e) {
		return e
	}

	return nil
}

// ToGatewayErrorCode returns the code of the error, if available.
func ToGatewayErrorCode(err error) string {
	if gwErr := ToGatewayError(err); gwErr != nil {
		return gwErr.Code
	}
	return ""
}

func IsGatewayError(err error, code string) bool {
	if gwErr := ToGatewayError(err); gwErr != nil {
		return gwErr.Code == code
	}
	return false
}

func IsEntityNotFoundError(err error) bool {
	return IsGatewayError(err, ErrEntityNotFound)
}

func IsBadParameterError(err error) bool {
	return IsGatewayError(err, ErrBadParameter)
}

func IsTransportError(err error) bool {
	return IsGatewayError(err, ErrTransport)
}

func IsDeadlineExceededError(err error) bool {
	return IsGatewayError(err, ErrDeadlineExceeded)
}
