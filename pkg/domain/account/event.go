package account

import (
	"time"

	"github.com/amirasaad/ledger/pkg/domain/money"
	"github.com/google/uuid"
)

// Event type names.
const (
	EventTransactionCommitted = "ledger.transaction.committed"
	EventAccountOpened        = "ledger.account.opened"
	EventStatusChanged        = "ledger.account.status_changed"
)

// TransactionCommitted is published after a deposit, withdrawal or transfer
// has been durably committed.
type TransactionCommitted struct {
	Transaction *Transaction               `json:"transaction"`
	Balances    map[uuid.UUID]money.Amount `json:"balances"`
}

func (TransactionCommitted) Type() string { return EventTransactionCommitted }

// AccountOpened is published when an account is provisioned.
type AccountOpened struct {
	AccountID      uuid.UUID    `json:"account_id"`
	OwnerRef       uuid.UUID    `json:"owner_ref"`
	AccountType    Type         `json:"account_type"`
	InitialBalance money.Amount `json:"initial_balance"`
	OpenedAt       time.Time    `json:"opened_at"`
}

func (AccountOpened) Type() string { return EventAccountOpened }

// StatusChanged is published when an account moves between lifecycle states.
type StatusChanged struct {
	AccountID uuid.UUID `json:"account_id"`
	From      Status    `json:"from"`
	To        Status    `json:"to"`
	ChangedAt time.Time `json:"changed_at"`
}

func (StatusChanged) Type() string { return EventStatusChanged }

// PartitionKey keeps the events of one account in order on a partitioned
// broker. Transfers are keyed by their source account.
func (e TransactionCommitted) PartitionKey() string {
	switch {
	case e.Transaction == nil:
		return EventTransactionCommitted
	case e.Transaction.SourceAccountID != nil:
		return e.Transaction.SourceAccountID.String()
	case e.Transaction.DestinationAccountID != nil:
		return e.Transaction.DestinationAccountID.String()
	}
	return EventTransactionCommitted
}

func (e AccountOpened) PartitionKey() string { return e.AccountID.String() }

func (e StatusChanged) PartitionKey() string { return e.AccountID.String() }
