package domain

import (
	"errors"
	"strings"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidRequest    = errors.New("invalid request")
	ErrPolicyDenied      = errors.New("policy denied")
	ErrParamsUnavailable = errors.New("domain parameters unavailable")
	ErrStoreUnavailable  = errors.New("key store unavailable")
	ErrMessageTooLarge   = errors.New("message too large")
)

// PolicyDeniedError carries the deny reasons of a failed policy evaluation.
type PolicyDeniedError struct {
	Evaluation PolicyEvaluation
}

func (e *PolicyDeniedError) Error() string {
	codes := make([]string, 0, len(e.Evaluation.Result.Deny))
	for _, d := range e.Evaluation.Result.Deny {
		codes = append(codes, d.Code)
	}
	if len(codes) == 0 {
		return ErrPolicyDenied.Error()
	}
	return ErrPolicyDenied.Error() + ": " + strings.Join(codes, ", ")
}

func (e *PolicyDeniedError) Is(target error) bool {
	return target == ErrPolicyDenied
}
