package repository

import (
	"time"

	"github.com/amirasaad/ledger/pkg/domain/account"
	"github.com/amirasaad/ledger/pkg/domain/money"
	"github.com/google/uuid"
)

// Account represents an account record in the database.
type Account struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	OwnerRef  uuid.UUID `gorm:"type:uuid;not null;index"`
	Balance   int64     `gorm:"not null"`
	Type      string    `gorm:"size:16;not null"`
	Status    string    `gorm:"size:16;not null"`
	Version   uint64    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime:false"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime:false"`
}

// TableName specifies the table name for the Account model.
func (Account) TableName() string {
	return "accounts"
}

// Transaction represents a persisted ledger transaction.
type Transaction struct {
	ID                      uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Kind                    string     `gorm:"size:16;not null"`
	Amount                  int64      `gorm:"not null"`
	Status                  string     `gorm:"size:16;not null"`
	OccurredAt              time.Time  `gorm:"not null;index"`
	SourceAccountID         *uuid.UUID `gorm:"type:uuid;index"`
	DestinationAccountID    *uuid.UUID `gorm:"type:uuid;index"`
	SourceBalanceAfter      *int64
	DestinationBalanceAfter *int64
}

// TableName specifies the table name for the Transaction model.
func (Transaction) TableName() string {
	return "transactions"
}

// Models lists every table the ledger needs, in migration order.
func Models() []any {
	return []any{&Account{}, &Transaction{}}
}

func toAccountModel(a *account.Account) *Account {
	return &Account{
		ID:        a.ID,
		OwnerRef:  a.OwnerRef,
		Balance:   a.Balance.Minor(),
		Type:      string(a.Type),
		Status:    string(a.Status),
		Version:   a.Version,
		CreatedAt: a.CreatedAt.UTC(),
		UpdatedAt: a.UpdatedAt.UTC(),
	}
}

func toAccountDomain(m *Account) (*account.Account, error) {
	return account.New().
		WithID(m.ID).
		WithOwnerRef(m.OwnerRef).
		WithType(account.Type(m.Type)).
		WithStatus(account.Status(m.Status)).
		WithBalance(money.FromMinor(m.Balance)).
		WithVersion(m.Version).
		WithCreatedAt(m.CreatedAt.UTC()).
		WithUpdatedAt(m.UpdatedAt.UTC()).
		Hydrate().
		Build()
}

func toTransactionModel(tx *account.Transaction) *Transaction {
	m := &Transaction{
		ID:                   tx.ID,
		Kind:                 string(tx.Kind),
		Amount:               tx.Amount.Minor(),
		Status:               string(tx.Status),
		OccurredAt:           tx.Timestamp.UTC(),
		SourceAccountID:      tx.SourceAccountID,
		DestinationAccountID: tx.DestinationAccountID,
	}
	if tx.SourceBalanceAfter != nil {
		v := tx.SourceBalanceAfter.Minor()
		m.SourceBalanceAfter = &v
	}
	if tx.DestinationBalanceAfter != nil {
		v := tx.DestinationBalanceAfter.Minor()
		m.DestinationBalanceAfter = &v
	}
	return m
}

func toTransactionDomain(m *Transaction) *account.Transaction {
	tx := &account.Transaction{
		ID:                   m.ID,
		Kind:                 account.Kind(m.Kind),
		Amount:               money.FromMinor(m.Amount),
		Status:               account.TransactionStatus(m.Status),
		Timestamp:            m.OccurredAt.UTC(),
		SourceAccountID:      m.SourceAccountID,
		DestinationAccountID: m.DestinationAccountID,
	}
	if m.SourceBalanceAfter != nil {
		v := money.FromMinor(*m.SourceBalanceAfter)
		tx.SourceBalanceAfter = &v
	}
	if m.DestinationBalanceAfter != nil {
		v := money.FromMinor(*m.DestinationBalanceAfter)
		tx.DestinationBalanceAfter = &v
	}
	return tx
}
