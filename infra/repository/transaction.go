package repository

import (
	"context"
	"time"

	"github.com/amirasaad/ledger/pkg/domain/account"
	"github.com/amirasaad/ledger/pkg/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type transactionLog struct {
	db *gorm.DB
}

// NewTransactionLog creates a TransactionLog on db.
func NewTransactionLog(db *gorm.DB) repository.TransactionLog {
	return &transactionLog{db: db}
}

func (l *transactionLog) Append(ctx context.Context, tx *account.Transaction) error {
	return WrapError(func() error {
		return l.db.WithContext(ctx).Create(toTransactionModel(tx)).Error
	})
}

func (l *transactionLog) ListByAccount(
	ctx context.Context,
	id uuid.UUID,
	since time.Time,
) ([]*account.Transaction, error) {
	q := l.db.WithContext(ctx).
		Where("source_account_id = ? OR destination_account_id = ?", id, id)
	if !since.IsZero() {
		q = q.Where("occurred_at > ?", since.UTC())
	}
	var rows []Transaction
	if err := WrapError(func() error {
		return q.Order("occurred_at ASC").Order("id ASC").Find(&rows).Error
	}); err != nil {
		return nil, err
	}
	out := make([]*account.Transaction, 0, len(rows))
	for i := range rows {
		out = append(out, toTransactionDomain(&rows[i]))
	}
	return out, nil
}
