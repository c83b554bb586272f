package errors

import (
	"fmt"
)

// ErrUnauthorized is returned when the caller identity is missing or invalid
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	if e.Message == "" {
		return "unauthorized"
	}
	return fmt.Sprintf("unauthorized: %s", e.Message)
}

// ErrBadRequest is returned when required fields are missing or malformed
type ErrBadRequest struct {
	Message string
}

func (e *ErrBadRequest) Error() string {
	return fmt.Sprintf("bad request: %s", e.Message)
}

// ErrNotFound is returned when a referenced resource does not exist
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrConfiguration is returned when a required secret or setting is absent
type ErrConfiguration struct {
	Key string
}

func (e *ErrConfiguration) Error() string {
	return fmt.Sprintf("missing configuration: %s", e.Key)
}

// ErrPaymentGateway is returned when the payment provider rejects a request
// or answers with something unusable
type ErrPaymentGateway struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *ErrPaymentGateway) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("payment gateway error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("payment gateway error: %s", e.Message)
}

func (e *ErrPaymentGateway) Unwrap() error {
	return e.Err
}

// ErrStore wraps a failed backing-store operation
type ErrStore struct {
	Op  string
	Err error
}

func (e *ErrStore) Error() string {
	return fmt.Sprintf("store error during %s: %v", e.Op, e.Err)
}

func (e *ErrStore) Unwrap() error {
	return e.Err
}

// ErrInvalidStateTransition is returned when a status change is not allowed
type ErrInvalidStateTransition struct {
	From interface{}
	To   interface{}
}

func (e *ErrInvalidStateTransition) Error() string {
	return fmt.Sprintf("invalid state transition from %v to %v", e.From, e.To)
}

// ErrForbidden is returned when the caller may not access a resource
type ErrForbidden struct {
	Resource string
}

func (e *ErrForbidden) Error() string {
	return fmt.Sprintf("access to %s denied", e.Resource)
}
