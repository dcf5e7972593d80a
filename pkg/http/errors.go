package http

import (
	"errors"
	"fmt"
	"net/http"

	"TradeForge/internal/domain/models"
)

// AppError is one entry of an error response. Status picks the HTTP
// code and is not serialized.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Status  int    `json:"-"`
	cause   error
}

func (e *AppError) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.cause }

func NewAppError(code, field, message string, status int) *AppError {
	return &AppError{Code: code, Field: field, Message: message, Status: status}
}

func BadRequestErrorf(format string, a ...interface{}) *AppError {
	return NewAppError("ERR_BAD_REQUEST", "", fmt.Sprintf(format, a...), http.StatusBadRequest)
}

func TooManyRequestsError(message string) *AppError {
	return NewAppError("ERR_RATE_LIMITED", "", message, http.StatusTooManyRequests)
}

type domainMapping struct {
	kind   error
	code   string
	status int
	// hide replaces the message for kinds whose text can leak internals
	hide string
}

var domainMappings = []domainMapping{
	{kind: models.ErrInvalidArgument, code: "ERR_INVALID_ARGUMENT", status: http.StatusBadRequest},
	{kind: models.ErrNotFound, code: "ERR_NOT_FOUND", status: http.StatusNotFound},
	{kind: models.ErrPreconditionFailed, code: "ERR_PRECONDITION_FAILED", status: http.StatusConflict},
	{kind: models.ErrSourceUnavailable, code: "ERR_UNAVAILABLE", status: http.StatusServiceUnavailable, hide: "backing store unavailable"},
}

// FromDomainError maps a domain error kind onto its HTTP error, or
// returns nil for errors outside the taxonomy.
func FromDomainError(err error) *AppError {
	if err == nil {
		return nil
	}
	for _, m := range domainMappings {
		if !errors.Is(err, m.kind) {
			continue
		}
		msg := err.Error()
		if m.hide != "" {
			msg = m.hide
		}
		return &AppError{Code: m.code, Message: msg, Status: m.status, cause: err}
	}
	return nil
}
