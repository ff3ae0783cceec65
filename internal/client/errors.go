package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/experiencias-arroyo/sierra-explora/internal/eligibility"
	"github.com/experiencias-arroyo/sierra-explora/internal/lifecycle"
	"github.com/experiencias-arroyo/sierra-explora/internal/model"
)

// ValidationError is a draft the eligibility rules reject.  It is produced
// locally before any request, or decoded from a 422 response.
type ValidationError = eligibility.ValidationError

// TransitionError is a status change refused because the reservation is
// no longer pending.
type TransitionError struct {
	ID      uint64
	From    model.Status
	To      model.Status
	Message string
}

func (e *TransitionError) Error() string {
	if e.From != "" {
		return fmt.Sprintf("reservation %d: cannot move from %s to %s", e.ID, e.From, e.To)
	}
	return fmt.Sprintf("reservation %d: cannot move to %s", e.ID, e.To)
}

func (e *TransitionError) Is(target error) bool { return target == lifecycle.ErrInvalidTransition }

// NetworkError covers every failure to get a usable answer: transport
// errors, cancelled contexts, 5xx responses and bodies that do not decode.
// Status is zero when no response was read.
type NetworkError struct {
	Op     string
	Status int
	Err    error
}

func (e *NetworkError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: http %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Canceled reports whether the caller gave up on the request.
func (e *NetworkError) Canceled() bool {
	return errors.Is(e.Err, context.Canceled) || errors.Is(e.Err, context.DeadlineExceeded)
}

// APIError is any other refusal from the server (400, 401, 403, 404).
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("http %d %s: %s", e.Status, e.Code, e.Message)
}

func (e *APIError) Is(target error) bool {
	return target == lifecycle.ErrForbidden && e.Status == http.StatusForbidden
}
