package services

import (
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/shopspring/decimal"
)

// ErrorKind classifies failures a caller can act on.
type ErrorKind int

const (
	KindNotFound ErrorKind = iota + 1
	KindInvalidState
	KindValidation
	KindUnauthorized
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "NotFound"
	case KindInvalidState:
		return "InvalidState"
	case KindValidation:
		return "Validation"
	case KindUnauthorized:
		return "Unauthorized"
	default:
		return "Unknown"
	}
}

// DomainError is a business-rule rejection. Infrastructure failures are
// never DomainErrors.
type DomainError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

func (e *DomainError) ErrorKind() ErrorKind {
	return e.Kind
}

// InsufficientFundsError rejects a payment the wallet cannot cover.
type InsufficientFundsError struct {
	Available decimal.Decimal
	Required  decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient wallet balance. Available: %s, Required: %s",
		e.Available.StringFixed(2), e.Required.StringFixed(2))
}

func (e *InsufficientFundsError) ErrorKind() ErrorKind {
	return KindInvalidState
}

type kindedError interface {
	error
	ErrorKind() ErrorKind
}

// KindOf reports the kind of the first classified error in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var k kindedError
	if errors.As(err, &k) {
		return k.ErrorKind(), true
	}
	return 0, false
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

func notFound(format string, args ...interface{}) error {
	return &DomainError{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func invalidState(format string, args ...interface{}) error {
	return &DomainError{Kind: KindInvalidState, Message: fmt.Sprintf(format, args...)}
}

func invalid(format string, args ...interface{}) error {
	return &DomainError{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func unauthorized(message string) error {
	return &DomainError{Kind: KindUnauthorized, Message: message}
}

// validationFailed wraps ozzo validation errors so the handler can render
// them field by field.
func validationFailed(err error) error {
	if err == nil {
		return nil
	}
	var internal validation.InternalError
	if errors.As(err, &internal) {
		return err
	}
	return &DomainError{Kind: KindValidation, Message: "validation failed: " + err.Error(), Err: err}
}
