package account

import (
	"time"

	"github.com/amirasaad/ledger/pkg/domain/money"
	"github.com/google/uuid"
)

// Kind is the operation a transaction records.
type Kind string

const (
	KindDeposit  Kind = "DEPOSIT"
	KindWithdraw Kind = "WITHDRAW"
	KindTransfer Kind = "TRANSFER"
)

// TransactionStatus is the terminal state of a transaction. There is no
// pending state: records are written only at commit.
type TransactionStatus string

const (
	TransactionCompleted TransactionStatus = "COMPLETED"
	TransactionRejected  TransactionStatus = "REJECTED"
)

// Transaction is an immutable record of one balance-changing operation.
//
// Deposits carry only a destination, withdrawals only a source, transfers both.
// The *BalanceAfter fields snapshot the balances the operation produced.
type Transaction struct {
	ID                      uuid.UUID         `json:"id"`
	Kind                    Kind              `json:"kind"`
	Amount                  money.Amount      `json:"amount"`
	Status                  TransactionStatus `json:"status"`
	Timestamp               time.Time         `json:"timestamp"`
	SourceAccountID         *uuid.UUID        `json:"source_account_id,omitempty"`
	DestinationAccountID    *uuid.UUID        `json:"destination_account_id,omitempty"`
	SourceBalanceAfter      *money.Amount     `json:"source_balance_after,omitempty"`
	DestinationBalanceAfter *money.Amount     `json:"destination_balance_after,omitempty"`
}

// NewDeposit records a completed deposit into dest.
func NewDeposit(dest *Account, amount money.Amount, at time.Time) *Transaction {
	return &Transaction{
		ID:                      uuid.New(),
		Kind:                    KindDeposit,
		Amount:                  amount,
		Status:                  TransactionCompleted,
		Timestamp:               at,
		DestinationAccountID:    ptr(dest.ID),
		DestinationBalanceAfter: ptr(dest.Balance),
	}
}

// NewWithdraw records a completed withdrawal from src.
func NewWithdraw(src *Account, amount money.Amount, at time.Time) *Transaction {
	return &Transaction{
		ID:                 uuid.New(),
		Kind:               KindWithdraw,
		Amount:             amount,
		Status:             TransactionCompleted,
		Timestamp:          at,
		SourceAccountID:    ptr(src.ID),
		SourceBalanceAfter: ptr(src.Balance),
	}
}

// NewTransfer records a completed transfer from src to dest.
func NewTransfer(src, dest *Account, amount money.Amount, at time.Time) *Transaction {
	return &Transaction{
		ID:                      uuid.New(),
		Kind:                    KindTransfer,
		Amount:                  amount,
		Status:                  TransactionCompleted,
		Timestamp:               at,
		SourceAccountID:         ptr(src.ID),
		DestinationAccountID:    ptr(dest.ID),
		SourceBalanceAfter:      ptr(src.Balance),
		DestinationBalanceAfter: ptr(dest.Balance),
	}
}

// Involves reports whether id is the source or destination of t.
func (t *Transaction) Involves(id uuid.UUID) bool {
	return (t.SourceAccountID != nil && *t.SourceAccountID == id) ||
		(t.DestinationAccountID != nil && *t.DestinationAccountID == id)
}

// Delta is the signed effect of t on the balance of account id.
func (t *Transaction) Delta(id uuid.UUID) money.Amount {
	if t.Status != TransactionCompleted {
		return money.Zero
	}
	var d money.Amount
	if t.DestinationAccountID != nil && *t.DestinationAccountID == id {
		d += t.Amount
	}
	if t.SourceAccountID != nil && *t.SourceAccountID == id {
		d -= t.Amount
	}
	return d
}

// Clone returns a deep copy of t.
func (t *Transaction) Clone() *Transaction {
	c := *t
	if t.SourceAccountID != nil {
		c.SourceAccountID = ptr(*t.SourceAccountID)
	}
	if t.DestinationAccountID != nil {
		c.DestinationAccountID = ptr(*t.DestinationAccountID)
	}
	if t.SourceBalanceAfter != nil {
		c.SourceBalanceAfter = ptr(*t.SourceBalanceAfter)
	}
	if t.DestinationBalanceAfter != nil {
		c.DestinationBalanceAfter = ptr(*t.DestinationBalanceAfter)
	}
	return &c
}

func ptr[T any](v T) *T {
	return &v
}

// NextTimestamp returns now in UTC truncated to microseconds, pushed strictly
// past every timestamp in after. Commit times built this way never repeat or
// go backwards for an account, even when the wall clock does.
func NextTimestamp(now time.Time, after ...time.Time) time.Time {
	ts := now.UTC().Truncate(time.Microsecond)
	for _, prev := range after {
		if floor := prev.UTC().Truncate(time.Microsecond).Add(time.Microsecond); ts.Before(floor) {
			ts = floor
		}
	}
	return ts
}
