package account

import (
	"fmt"
	"strings"

	"github.com/amirasaad/ledger/pkg/domain"
	"github.com/amirasaad/ledger/pkg/domain/money"
	"github.com/shopspring/decimal"
)

// Type is the product kind of an account. Its behavior comes from the
// static feature table, never from per-type code paths.
type Type string

const (
	TypeChecking Type = "CHECKING"
	TypeSavings  Type = "SAVINGS"
)

// Features describes what an account type allows.
type Features struct {
	OverdraftAllowed bool
	MinimumBalance   money.Amount
	// InterestRate is annual and informational only; nothing accrues it.
	InterestRate decimal.Decimal
}

var features = map[Type]Features{
	TypeChecking: {
		OverdraftAllowed: true,
		MinimumBalance:   money.Zero,
	},
	TypeSavings: {
		OverdraftAllowed: false,
		MinimumBalance:   money.FromMinor(100_00),
		InterestRate:     decimal.RequireFromString("0.025"),
	},
}

// ErrUnknownType is returned when parsing an account type that is not in the table.
var ErrUnknownType = fmt.Errorf("%w: unknown account type", domain.ErrInvalidArgument)

// ParseType parses a type name case-insensitively.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := features[t]; !ok {
		return "", ErrUnknownType
	}
	return t, nil
}

// Valid reports whether t has an entry in the feature table.
func (t Type) Valid() bool {
	_, ok := features[t]
	return ok
}

// Features returns the static features of t.
func (t Type) Features() Features {
	return features[t]
}

// Floor is the lowest balance a debit may leave behind: zero for types with
// overdraft, the minimum balance otherwise.
func (t Type) Floor() money.Amount {
	f := features[t]
	if f.OverdraftAllowed {
		return money.Zero
	}
	return f.MinimumBalance
}

// Status is the lifecycle state of an account.
type Status string

const (
	StatusActive  Status = "ACTIVE"
	StatusBlocked Status = "BLOCKED"
	StatusClosed  Status = "CLOSED"
)

// ErrUnknownStatus is returned when parsing an unrecognized status.
var ErrUnknownStatus = fmt.Errorf("%w: unknown account status", domain.ErrInvalidArgument)

// ErrInvalidTransition is returned when a status change is not permitted.
var ErrInvalidTransition = fmt.Errorf("%w: invalid status transition", domain.ErrInvalidArgument)

// ParseStatus parses a status name case-insensitively.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	switch st {
	case StatusActive, StatusBlocked, StatusClosed:
		return st, nil
	}
	return "", ErrUnknownStatus
}

// CanTransitionTo reports whether an account in status s may move to next.
// CLOSED is terminal.
func (s Status) CanTransitionTo(next Status) bool {
	if s == StatusClosed {
		return false
	}
	switch next {
	case StatusActive, StatusBlocked, StatusClosed:
		return s != next
	}
	return false
}
