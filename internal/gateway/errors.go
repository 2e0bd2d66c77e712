package gateway

import (
	"errors"
	"fmt"
)

// ErrRequestFailed matches every gateway failure via errors.Is.
var ErrRequestFailed = errors.New("request failed")

// Error is the uniform "operation failed" result. Callers only rely on the
// message; Status is informational and zero for transport failures.
type Error struct {
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s failed", e.Op)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	return target == ErrRequestFailed
}

// Fail wraps err as a gateway failure for op. Existing *Error values pass
// through unchanged.
func Fail(op string, err error) error {
	if err == nil {
		return nil
	}
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return err
	}
	return &Error{Op: op, Message: err.Error(), Err: err}
}
