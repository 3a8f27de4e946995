package account

import (
	"fmt"
	"time"

	"github.com/amirasaad/ledger/pkg/domain"
	"github.com/amirasaad/ledger/pkg/domain/money"
	"github.com/google/uuid"
)

var (
	// ErrOwnerRequired is returned when building an account without an owner reference.
	ErrOwnerRequired = fmt.Errorf("%w: owner reference is required", domain.ErrInvalidArgument)
	// ErrBelowMinimumBalance is returned when an account would be opened under its floor.
	ErrBelowMinimumBalance = fmt.Errorf("%w: initial balance below minimum for account type", domain.ErrInvalidArgument)
)

// Account is the aggregate whose balance the ledger maintains.
//
// Invariants:
//   - Balance >= Type.Floor() after every completed mutation.
//   - Only ACTIVE accounts accept mutations.
//   - Version grows by one on every persisted update.
//
// OwnerRef points at the owning user; the account never holds the user itself.
type Account struct {
	ID        uuid.UUID
	OwnerRef  uuid.UUID
	Balance   money.Amount
	Type      Type
	Status    Status
	Version   uint64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Builder provides a fluent API for constructing Account instances.
type Builder struct {
	id        uuid.UUID
	ownerRef  uuid.UUID
	balance   money.Amount
	typ       Type
	status    Status
	version   uint64
	createdAt time.Time
	updatedAt time.Time
	hydrate   bool
}

// New creates a Builder for a fresh ACTIVE checking account with a new id.
func New() *Builder {
	now := time.Now().UTC()
	return &Builder{
		id:        uuid.New(),
		typ:       TypeChecking,
		status:    StatusActive,
		createdAt: now,
		updatedAt: now,
	}
}

// WithID sets the ID for the account being built.
func (b *Builder) WithID(id uuid.UUID) *Builder {
	b.id = id
	return b
}

// WithOwnerRef sets the owning user reference. This is a mandatory field.
func (b *Builder) WithOwnerRef(owner uuid.UUID) *Builder {
	b.ownerRef = owner
	return b
}

// WithType sets the account type.
func (b *Builder) WithType(t Type) *Builder {
	b.typ = t
	return b
}

// WithBalance sets the initial balance.
func (b *Builder) WithBalance(balance money.Amount) *Builder {
	b.balance = balance
	return b
}

// WithStatus sets the lifecycle status. Used when hydrating from a store.
func (b *Builder) WithStatus(s Status) *Builder {
	b.status = s
	return b
}

// WithVersion sets the stored version. Used when hydrating from a store.
func (b *Builder) WithVersion(v uint64) *Builder {
	b.version = v
	return b
}

// WithCreatedAt sets the creation timestamp.
func (b *Builder) WithCreatedAt(t time.Time) *Builder {
	b.createdAt = t
	return b
}

// WithUpdatedAt sets the last-updated timestamp.
func (b *Builder) WithUpdatedAt(t time.Time) *Builder {
	b.updatedAt = t
	return b
}

// Hydrate skips opening rules such as the minimum initial balance. Stores use
// it to rebuild accounts whose balances were already validated.
func (b *Builder) Hydrate() *Builder {
	b.hydrate = true
	return b
}

// Build validates the account and returns it.
func (b *Builder) Build() (*Account, error) {
	if b.ownerRef == uuid.Nil {
		return nil, ErrOwnerRequired
	}
	if !b.typ.Valid() {
		return nil, ErrUnknownType
	}
	if _, err := ParseStatus(string(b.status)); err != nil {
		return nil, err
	}
	if !b.hydrate {
		if b.balance.IsNegative() {
			return nil, ErrBelowMinimumBalance
		}
		if b.balance < b.typ.Features().MinimumBalance {
			return nil, ErrBelowMinimumBalance
		}
	}
	return &Account{
		ID:        b.id,
		OwnerRef:  b.ownerRef,
		Balance:   b.balance,
		Type:      b.typ,
		Status:    b.status,
		Version:   b.version,
		CreatedAt: b.createdAt,
		UpdatedAt: b.updatedAt,
	}, nil
}

// Clone returns a copy that shares nothing with a.
func (a *Account) Clone() *Account {
	c := *a
	return &c
}

// Floor is the lowest balance this account may be debited to.
func (a *Account) Floor() money.Amount {
	return a.Type.Floor()
}

// EnsureActive fails with ErrAccountNotActive unless the account accepts mutations.
func (a *Account) EnsureActive() error {
	if a.Status != StatusActive {
		return fmt.Errorf("%w: account %s is %s", domain.ErrAccountNotActive, a.ID, a.Status)
	}
	return nil
}

// ValidateAmount rejects zero and negative amounts.
func ValidateAmount(amount money.Amount) error {
	if !amount.IsPositive() {
		return domain.ErrInvalidAmount
	}
	return nil
}

// Credit adds amount to the balance.
func (a *Account) Credit(amount money.Amount) error {
	if err := ValidateAmount(amount); err != nil {
		return err
	}
	if err := a.EnsureActive(); err != nil {
		return err
	}
	balance, err := a.Balance.Add(amount)
	if err != nil {
		return err
	}
	a.Balance = balance
	return nil
}

// Debit removes amount from the balance if the floor allows it.
func (a *Account) Debit(amount money.Amount) error {
	if err := ValidateAmount(amount); err != nil {
		return err
	}
	if err := a.EnsureActive(); err != nil {
		return err
	}
	balance, err := a.Balance.Sub(amount)
	if err != nil {
		return err
	}
	if balance < a.Floor() {
		return fmt.Errorf("%w: balance %s, requested %s, floor %s",
			domain.ErrInsufficientFunds, a.Balance, amount, a.Floor())
	}
	a.Balance = balance
	return nil
}

// TransitionTo changes the lifecycle status.
func (a *Account) TransitionTo(next Status) error {
	if _, err := ParseStatus(string(next)); err != nil {
		return err
	}
	if !a.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, a.Status, next)
	}
	a.Status = next
	return nil
}
