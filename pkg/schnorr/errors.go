package schnorr

import (
	"errors"
	"fmt"
)

var (
	ErrParameterGeneration = errors.New("parameter generation failed")
	ErrInvalidParameters   = errors.New("invalid domain parameters")
	ErrUnknownLevel        = errors.New("unknown security level")
	ErrHashUnavailable     = errors.New("hash algorithm unavailable")
	ErrInvalidRecord       = errors.New("invalid key record")
	ErrStore               = errors.New("key store failure")
	ErrRecordNotFound      = errors.New("key record not found")
)

// GenerationError reports which factor exhausted its search bound. Factor is one of
// "q", "p", "a" or "sanity".
type GenerationError struct {
	Factor string
	Steps  int
}

func (e *GenerationError) Error() string {
	if e.Factor == "sanity" {
		return "parameter generation failed: q is not reduced modulo p"
	}
	return fmt.Sprintf("parameter generation failed: %s computation timed off after %d steps", e.Factor, e.Steps)
}

func (e *GenerationError) Is(target error) bool {
	return target == ErrParameterGeneration
}

// StoreError wraps any failure of the key store so that it can never be mistaken for
// a verification mismatch.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("key store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func (e *StoreError) Is(target error) bool {
	return target == ErrStore
}

func storeError(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}
