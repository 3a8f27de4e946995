package account

import (
	"time"

	"github.com/amirasaad/ledger/pkg/domain/account"
)

//revive:disable

// OpenAccountRequest represents the request body for opening an account.
type OpenAccountRequest struct {
	OwnerRef       string `json:"owner_ref" validate:"required,uuid"`
	Type           string `json:"type" validate:"omitempty,oneof=CHECKING SAVINGS checking savings"`
	InitialBalance string `json:"initial_balance" validate:"omitempty,numeric"`
}

// AmountRequest represents the body of a deposit or withdrawal.
type AmountRequest struct {
	Amount string `json:"amount" xml:"amount" form:"amount" validate:"required,numeric"`
}

// TransferRequest represents the request body for transferring funds between accounts.
type TransferRequest struct {
	SourceAccountID      string `json:"source_account_id" validate:"required,uuid"`
	DestinationAccountID string `json:"destination_account_id" validate:"required,uuid"`
	Amount               string `json:"amount" validate:"required,numeric"`
}

// StatusRequest represents the body of a status change.
type StatusRequest struct {
	Status string `json:"status" validate:"required,oneof=ACTIVE BLOCKED CLOSED active blocked closed"`
}

// AccountDTO is the API response representation of an account.
type AccountDTO struct {
	ID        string    `json:"id"`
	OwnerRef  string    `json:"owner_ref"`
	Type      string    `json:"type"`
	Status    string    `json:"status"`
	Balance   string    `json:"balance"`
	Version   uint64    `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BalanceDTO is the API response for a balance query.
type BalanceDTO struct {
	AccountID string `json:"account_id"`
	Balance   string `json:"balance"`
}

// MutationDTO is the API response for a deposit or withdrawal.
type MutationDTO struct {
	Transaction *account.Transaction `json:"transaction"`
	Balance     string               `json:"balance"`
}

// TransferDTO is the API response for a transfer.
type TransferDTO struct {
	Transaction        *account.Transaction `json:"transaction"`
	SourceBalance      string               `json:"source_balance"`
	DestinationBalance string               `json:"destination_balance"`
}

func toAccountDTO(a *account.Account) AccountDTO {
	return AccountDTO{
		ID:        a.ID.String(),
		OwnerRef:  a.OwnerRef.String(),
		Type:      string(a.Type),
		Status:    string(a.Status),
		Balance:   a.Balance.String(),
		Version:   a.Version,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}
