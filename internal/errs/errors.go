package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure so handlers can map it to an HTTP status
// and callers can decide whether a retry makes sense.
type Kind int

const (
	// KindValidation is bad client input. Not retryable.
	KindValidation Kind = iota
	// KindConfiguration is missing or invalid operator configuration.
	// Never retried; an operator has to fix the environment.
	KindConfiguration
	// KindGatewayRejected is a domain-level decline reported by the
	// gateway despite transport success.
	KindGatewayRejected
	// KindTransient is a network or timeout failure. The caller may
	// retry with the same orderId.
	KindTransient
	// KindAuthentication is a failed webhook signature check.
	KindAuthentication
)

type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// HTTPStatus maps the error kind to the status code the external
// interfaces contract requires.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindValidation, KindGatewayRejected:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func Validation(op, message string) *Error {
	return &Error{Kind: KindValidation, Op: op, Message: message}
}

func Configuration(op, message string) *Error {
	return &Error{Kind: KindConfiguration, Op: op, Message: message}
}

func GatewayRejected(op, message string) *Error {
	return &Error{Kind: KindGatewayRejected, Op: op, Message: message}
}

func Transient(op, message string, err error) *Error {
	return &Error{Kind: KindTransient, Op: op, Message: message, Err: err}
}

func Authentication(op, message string) *Error {
	return &Error{Kind: KindAuthentication, Op: op, Message: message}
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// StatusFor resolves the HTTP status for any error, defaulting to 500
// for errors outside the taxonomy.
func StatusFor(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.HTTPStatus()
	}
	return http.StatusInternalServerError
}
