// Package apperr defines the small closed taxonomy of error kinds that
// every component in hotelly2 surfaces at its boundary, modeled on the
// teacher client's Error/ErrorCode pair (see errors.go upstream).
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is one of the error kinds from the design's error taxonomy.
type Kind string

const (
	KindValidation           Kind = "validation"
	KindAuth                 Kind = "auth"
	KindNotFound             Kind = "not_found"
	KindConflictIdempotent   Kind = "conflict_idempotent"
	KindConflictBusiness     Kind = "conflict_business"
	KindUnavailable          Kind = "unavailable"
	KindProviderTransient    Kind = "provider_transient"
	KindProviderPermanent    Kind = "provider_permanent"
	KindInventoryConsistency Kind = "inventory_consistency"
	KindConfigurationMissing Kind = "configuration_missing"
)

// Error is the single error type every package returns at its boundary.
// Code is a short machine-readable identifier for HTTP clients (e.g.
// "room_conflict", "hold_unavailable"); Message is safe for a client to
// read. Neither field is ever allowed to carry PII.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	// Retryable marks ProviderTransient errors eligible for the single
	// retry allowed by the design.
	Retryable bool
	// Err wraps the underlying cause, if any, for logging. Never exposed
	// to clients directly.
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an *Error of the given kind and message.
func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Wrap builds an *Error of the given kind, preserving err for logging.
func Wrap(kind Kind, code, message string, err error) *Error {
	return &Error{Kind: kind, Code: code, Message: message, Err: err}
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// IsRetryable reports whether err is a retryable provider-transient error.
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable
	}
	return false
}

// HTTPStatus maps a Kind to the status code the HTTP edge should return,
// per the design's error-handling table.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindAuth:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindConflictIdempotent:
		return http.StatusOK
	case KindConflictBusiness, KindUnavailable:
		return http.StatusConflict
	case KindProviderTransient, KindProviderPermanent, KindInventoryConsistency:
		return http.StatusInternalServerError
	case KindConfigurationMissing:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// Sentinel convenience constructors for the most common shapes.

func NotFound(code, message string) *Error {
	return New(KindNotFound, code, message)
}

func Validation(code, message string) *Error {
	return New(KindValidation, code, message)
}

func Unavailable(code, message string) *Error {
	return New(KindUnavailable, code, message)
}

func ConflictBusiness(code, message string) *Error {
	return New(KindConflictBusiness, code, message)
}

func ConfigurationMissing(message string) *Error {
	return New(KindConfigurationMissing, "configuration_missing", message)
}
