package gateway

import (
	"errors"
	"fmt"
)

// ErrorKind classifies every failure the gateway can surface. Transport-level
// detail never escapes this package; callers branch on kinds only.
type ErrorKind string

const (
	// KindValidation covers bad input and stock violations. Recoverable,
	// shown inline.
	KindValidation ErrorKind = "validation"
	// KindAuth means the session is gone. Not recoverable locally; the caller
	// must redirect to login.
	KindAuth ErrorKind = "auth"
	// KindTokenExpired is the 419 anti-forgery failure. The client refreshes
	// and retries once internally, so callers only see this if the retry also
	// failed to produce a usable token.
	KindTokenExpired ErrorKind = "token_expired"
	// KindNotFound means the line vanished server-side. Treated by callers as
	// an already-successful removal.
	KindNotFound ErrorKind = "not_found"
	// KindNetwork covers transport failures, timeouts, open circuit and 5xx.
	// Recoverable only by user retry.
	KindNetwork ErrorKind = "network"
)

type Error struct {
	Kind    ErrorKind
	Message string
	// Fields holds per-field validation messages when the server returned
	// them (checkout form errors).
	Fields map[string]string
	Err    error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("cart gateway: %s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("cart gateway: %s", e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

func IsKind(err error, kind ErrorKind) bool {
	var ge *Error
	return errors.As(err, &ge) && ge.Kind == kind
}

func IsNotFound(err error) bool   { return IsKind(err, KindNotFound) }
func IsAuth(err error) bool       { return IsKind(err, KindAuth) }
func IsValidation(err error) bool { return IsKind(err, KindValidation) }
func IsNetwork(err error) bool    { return IsKind(err, KindNetwork) }

// FieldErrors extracts per-field validation messages, if any.
func FieldErrors(err error) map[string]string {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Fields
	}
	return nil
}
