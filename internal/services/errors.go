package services

import (
	"errors"
	"fmt"

	"github.com/soinechankit/Soinech-CRM/internal/repositories"
)

var (
	ErrNotFound          = repositories.ErrNotFound
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// IneligibleLeadError means a lead cannot be converted to a deal.
type IneligibleLeadError struct {
	LeadID string
	Reason string
}

func (e *IneligibleLeadError) Error() string {
	return fmt.Sprintf("lead %s cannot be converted: %s", e.LeadID, e.Reason)
}

// StoreError wraps a storage failure with the operation that hit it.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *StoreError) Unwrap() error { return e.Err }

// ValidationError is a bad field value caught by a service rather than by
// request binding.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// storeErr passes ErrNotFound through and wraps everything else.
func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	return &StoreError{Op: op, Err: err}
}
