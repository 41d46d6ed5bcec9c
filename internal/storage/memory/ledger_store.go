// Package memory is an in-process LedgerStore with the same locking and
// atomicity behaviour as the PostgreSQL store. It backs tests and local runs
// without a database.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rudigital/backend/internal/models"
	"github.com/rudigital/backend/internal/storage"
	"github.com/shopspring/decimal"
)

var errTxDone = errors.New("transaction already finished")

type account struct {
	lock    chan struct{}
	balance decimal.Decimal
	active  bool
}

// LedgerStore holds accounts and entries in memory. Each account has its own
// lock so transactions on different accounts never wait on each other.
type LedgerStore struct {
	mu       sync.Mutex
	accounts map[int64]*account
	entries  []models.Transacao
	nextID   int64
	now      func() time.Time
}

func NewLedgerStore() *LedgerStore {
	return &LedgerStore{
		accounts: make(map[int64]*account),
		now:      time.Now,
	}
}

// AddAccount creates or replaces an account with the given opening balance.
func (s *LedgerStore) AddAccount(userID int64, balance decimal.Decimal, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[userID] = &account{
		lock:    make(chan struct{}, 1),
		balance: balance,
		active:  active,
	}
}

// SetActive flips the account's active flag.
func (s *LedgerStore) SetActive(userID int64, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if acc, ok := s.accounts[userID]; ok {
		acc.active = active
	}
}

// Entries returns a copy of the user's entries in commit order.
func (s *LedgerStore) Entries(userID int64) []models.Transacao {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Transacao
	for _, e := range s.entries {
		if e.UsuarioID == userID {
			out = append(out, e)
		}
	}
	return out
}

func (s *LedgerStore) BeginTx(ctx context.Context) (storage.LedgerTx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &ledgerTx{
		store:    s,
		locked:   make(map[int64]*account),
		balances: make(map[int64]decimal.Decimal),
	}, nil
}

func (s *LedgerStore) GetBalance(ctx context.Context, userID int64) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[userID]
	if !ok || !acc.active {
		return decimal.Zero, storage.ErrAccountNotFound
	}
	return acc.balance, nil
}

func (s *LedgerStore) ListTransactions(ctx context.Context, userID int64, limit, offset int) ([]models.Transacao, error) {
	entries := s.Entries(userID)
	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].CriadoEm.Equal(entries[j].CriadoEm) {
			return entries[i].CriadoEm.After(entries[j].CriadoEm)
		}
		return entries[i].ID > entries[j].ID
	})

	if offset >= len(entries) {
		return []models.Transacao{}, nil
	}
	entries = entries[offset:]
	if limit < len(entries) {
		entries = entries[:limit]
	}
	return entries, nil
}

type ledgerTx struct {
	store    *LedgerStore
	locked   map[int64]*account
	balances map[int64]decimal.Decimal
	pending  []models.Transacao
	done     bool
}

func (t *ledgerTx) LockAccount(ctx context.Context, userID int64) (decimal.Decimal, error) {
	if t.done {
		return decimal.Zero, errTxDone
	}
	if _, ok := t.locked[userID]; ok {
		return t.currentBalance(userID), nil
	}

	t.store.mu.Lock()
	acc, ok := t.store.accounts[userID]
	active := ok && acc.active
	t.store.mu.Unlock()
	if !active {
		return decimal.Zero, storage.ErrAccountNotFound
	}

	select {
	case acc.lock <- struct{}{}:
	case <-ctx.Done():
		return decimal.Zero, fmt.Errorf("%w: %v", storage.ErrLockTimeout, ctx.Err())
	}
	t.locked[userID] = acc

	// Deactivated while we were waiting.
	t.store.mu.Lock()
	active = acc.active
	t.store.mu.Unlock()
	if !active {
		delete(t.locked, userID)
		<-acc.lock
		return decimal.Zero, storage.ErrAccountNotFound
	}

	return t.currentBalance(userID), nil
}

func (t *ledgerTx) currentBalance(userID int64) decimal.Decimal {
	if b, ok := t.balances[userID]; ok {
		return b
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	return t.locked[userID].balance
}

func (t *ledgerTx) UpdateBalance(ctx context.Context, userID int64, balance decimal.Decimal) error {
	if t.done {
		return errTxDone
	}
	if _, ok := t.locked[userID]; !ok {
		return fmt.Errorf("update balance: account %d is not locked by this transaction", userID)
	}
	if balance.IsNegative() {
		return fmt.Errorf("update balance: negative balance %s for account %d", balance, userID)
	}
	t.balances[userID] = balance
	return nil
}

func (t *ledgerTx) AppendEntry(ctx context.Context, entry *models.Transacao) error {
	if t.done {
		return errTxDone
	}
	if _, ok := t.locked[entry.UsuarioID]; !ok {
		return fmt.Errorf("append ledger entry: account %d is not locked by this transaction", entry.UsuarioID)
	}
	if !entry.Valor.IsPositive() {
		return fmt.Errorf("append ledger entry: amount must be positive, got %s", entry.Valor)
	}

	t.store.mu.Lock()
	t.store.nextID++
	entry.ID = t.store.nextID
	entry.CriadoEm = t.store.now()
	t.store.mu.Unlock()

	t.pending = append(t.pending, *entry)
	return nil
}

func (t *ledgerTx) Commit() error {
	if t.done {
		return errTxDone
	}

	t.store.mu.Lock()
	for userID, balance := range t.balances {
		t.locked[userID].balance = balance
	}
	t.store.entries = append(t.store.entries, t.pending...)
	t.store.mu.Unlock()

	t.release()
	return nil
}

func (t *ledgerTx) Rollback() error {
	if t.done {
		return nil
	}
	t.release()
	return nil
}

func (t *ledgerTx) release() {
	t.done = true
	for _, acc := range t.locked {
		<-acc.lock
	}
	t.locked = nil
	t.balances = nil
	t.pending = nil
}

var _ storage.LedgerStore = (*LedgerStore)(nil)
