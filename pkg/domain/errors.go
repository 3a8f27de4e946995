package domain

import (
	"errors"
	"fmt"
)

// Ledger error categories. Callers match them with errors.Is.
var (
	// ErrInvalidArgument is returned when an input is malformed or out of range
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotFound is returned when a requested resource is not found
	ErrNotFound = errors.New("resource not found")
	// ErrAlreadyExists is returned when trying to create a resource that already exists
	ErrAlreadyExists = errors.New("resource already exists")
	// ErrAccountNotActive is returned when a mutation targets a BLOCKED or CLOSED account
	ErrAccountNotActive = errors.New("account not active")
	// ErrInsufficientFunds is returned when a debit would take a balance below its floor
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrBusy is returned when account locks could not be acquired in time
	ErrBusy = errors.New("account busy")
	// ErrStorageFailure is returned when the underlying store fails
	ErrStorageFailure = errors.New("storage failure")
	// ErrConflict is returned when a versioned update loses against a concurrent writer
	ErrConflict = errors.New("version conflict")
)

var (
	// ErrInvalidAmount is returned when an operation amount is zero or negative.
	ErrInvalidAmount = fmt.Errorf("%w: amount must be positive", ErrInvalidArgument)
	// ErrSameAccount is returned when a transfer names the same account twice.
	ErrSameAccount = fmt.Errorf("%w: cannot transfer to same account", ErrInvalidArgument)
)

// StorageError wraps a driver error so it matches ErrStorageFailure
// while keeping the cause in the chain.
func StorageError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrStorageFailure, err)
}
