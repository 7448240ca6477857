package amm

import (
	"errors"
	"fmt"
)

// Error kinds. Every rejected operation wraps exactly one of these.
var (
	ErrValidation        = errors.New("validation error")
	ErrAuthorization     = errors.New("authorization error")
	ErrConfig            = errors.New("config error")
	ErrArithmetic        = errors.New("arithmetic error")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// Error describes why an operation was rejected.
type Error struct {
	Kind   error
	Op     string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v: %s", e.Op, e.Kind, e.Reason)
}

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, op, format string, args ...interface{}) error {
	return &Error{Kind: kind, Op: op, Reason: fmt.Sprintf(format, args...)}
}

func validationf(op, format string, args ...interface{}) error {
	return newError(ErrValidation, op, format, args...)
}

func authorizationf(op, format string, args ...interface{}) error {
	return newError(ErrAuthorization, op, format, args...)
}

// withOp tags a lower level error with the operation. Errors that are already
// typed keep their kind.
func withOp(op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		if e.Op == "" {
			e.Op = op
		}
		return e
	}
	return fmt.Errorf("%s: %w", op, err)
}

// Kind returns the sentinel kind of err, or nil if err is not an engine error.
func Kind(err error) error {
	for _, k := range []error{ErrValidation, ErrAuthorization, ErrConfig, ErrArithmetic, ErrInsufficientFunds} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
