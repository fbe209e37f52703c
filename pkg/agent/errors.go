package agent

import (
	"errors"
	"fmt"
)

// ErrInvalidRunParams is returned by Run before any browser work.
var ErrInvalidRunParams = errors.New("invalid run parameters")

// DriverError wraps a browser failure with the operation that hit it.
type DriverError struct {
	Op  string
	Err error
}

func (e *DriverError) Error() string {
	return fmt.Sprintf("browser %s: %v", e.Op, e.Err)
}

func (e *DriverError) Unwrap() error {
	return e.Err
}
