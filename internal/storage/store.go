// Package storage defines the persistence contract of the wallet ledger.
package storage

import (
	"context"
	"errors"

	"github.com/rudigital/backend/internal/models"
	"github.com/shopspring/decimal"
)

var (
	// ErrAccountNotFound is returned when the account is missing or inactive.
	ErrAccountNotFound = errors.New("account not found or inactive")
	// ErrLockTimeout is returned when the account lock could not be acquired
	// before the deadline.
	ErrLockTimeout = errors.New("timed out waiting for account lock")
)

// LedgerStore gives access to balances and ledger entries. Reads are never
// cached; every call hits the authoritative state.
type LedgerStore interface {
	BeginTx(ctx context.Context) (LedgerTx, error)
	GetBalance(ctx context.Context, userID int64) (decimal.Decimal, error)
	// ListTransactions returns entries newest first.
	ListTransactions(ctx context.Context, userID int64, limit, offset int) ([]models.Transacao, error)
}

// LedgerTx is one atomic unit of work. Nothing written through it is
// visible to other readers until Commit. Rollback after Commit is a no-op.
type LedgerTx interface {
	// LockAccount takes an exclusive lock on the account row and returns its
	// current balance. The lock is held until Commit or Rollback.
	LockAccount(ctx context.Context, userID int64) (decimal.Decimal, error)
	UpdateBalance(ctx context.Context, userID int64, balance decimal.Decimal) error
	// AppendEntry inserts the entry and fills in its ID and CriadoEm.
	AppendEntry(ctx context.Context, entry *models.Transacao) error
	Commit() error
	Rollback() error
}
