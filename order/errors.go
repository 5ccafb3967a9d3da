package order

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("order not found")
	ErrInvalidState = errors.New("invalid order state")
	ErrValidation   = errors.New("invalid order request")
)

// ValidationError 指明校验失败的字段。
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// Is 让 errors.Is(err, ErrValidation) 成立。
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
