package ledger

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rudigital/backend/internal/audit"
	"github.com/rudigital/backend/internal/models"
	"github.com/rudigital/backend/internal/models/events"
	"github.com/rudigital/backend/internal/storage"
	"github.com/rudigital/backend/internal/storage/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func recharge(userID int64, amount string) Request {
	return Request{
		UserID:      userID,
		Kind:        models.TipoRecarga,
		Amount:      dec(amount),
		Description: "Recarga - App",
		Method:      "app",
	}
}

func debit(userID int64, amount string) Request {
	return Request{
		UserID:      userID,
		Kind:        models.TipoDebito,
		Amount:      dec(amount),
		Description: "Refeição - Almoço",
		Method:      "ticket",
	}
}

// assertLedgerConsistent checks that the stored balance equals the opening
// balance plus every signed entry, and that each snapshot chains from the
// previous one.
func assertLedgerConsistent(t *testing.T, store *memory.LedgerStore, userID int64, opening decimal.Decimal) {
	t.Helper()

	running := opening
	for _, e := range store.Entries(userID) {
		running = running.Add(e.Signed())
		assert.True(t, running.Equal(e.SaldoApos), "entry %d: saldo_apos %s, chain %s", e.ID, e.SaldoApos, running)
		assert.False(t, e.SaldoApos.IsNegative())
	}

	balance, err := store.GetBalance(context.Background(), userID)
	require.NoError(t, err)
	assert.True(t, running.Equal(balance), "balance %s, ledger sum %s", balance, running)
}

func TestEngine_Apply(t *testing.T) {
	ctx := context.Background()

	t.Run("recharge on a funded account", func(t *testing.T) {
		store := memory.NewLedgerStore()
		store.AddAccount(1, dec("24.00"), true)
		engine := NewEngine(store, WithMaxAmount(dec("1000")))

		result, err := engine.Apply(ctx, recharge(1, "20.00"))
		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Equal(t, "Recarga realizada com sucesso.", result.Message)
		assert.Equal(t, "44", result.NewBalance.String())

		entries := store.Entries(1)
		require.Len(t, entries, 1)
		assert.Equal(t, "44", entries[0].SaldoApos.String())
		assert.Equal(t, models.TipoRecarga, entries[0].Tipo)
		assert.Equal(t, "app", entries[0].MetodoPgto)
		assert.Equal(t, result.Entry.ID, entries[0].ID)
		assertLedgerConsistent(t, store, 1, dec("24.00"))
	})

	t.Run("debit within balance", func(t *testing.T) {
		store := memory.NewLedgerStore()
		store.AddAccount(1, dec("10.00"), true)
		engine := NewEngine(store)

		result, err := engine.Apply(ctx, debit(1, "10.00"))
		require.NoError(t, err)
		assert.Equal(t, "Débito realizado com sucesso.", result.Message)
		assert.True(t, result.NewBalance.IsZero())
		assertLedgerConsistent(t, store, 1, dec("10.00"))
	})

	t.Run("debit above balance changes nothing", func(t *testing.T) {
		store := memory.NewLedgerStore()
		store.AddAccount(1, dec("4.99"), true)
		engine := NewEngine(store)

		result, err := engine.Apply(ctx, debit(1, "5.00"))
		assert.ErrorIs(t, err, ErrInsufficientFunds)
		assert.Nil(t, result)

		balance, err := store.GetBalance(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, "4.99", balance.String())
		assert.Empty(t, store.Entries(1))
	})

	t.Run("missing or inactive account", func(t *testing.T) {
		store := memory.NewLedgerStore()
		store.AddAccount(2, dec("10"), false)
		engine := NewEngine(store)

		_, err := engine.Apply(ctx, recharge(1, "5"))
		assert.ErrorIs(t, err, ErrAccountNotFound)
		_, err = engine.Apply(ctx, recharge(2, "5"))
		assert.ErrorIs(t, err, ErrAccountNotFound)
		assert.Empty(t, store.Entries(2))
	})
}

func TestEngine_ValidationTakesNoLock(t *testing.T) {
	store := new(MockLedgerStore)
	engine := NewEngine(store, WithMaxAmount(dec("1000")))
	ctx := context.Background()

	cases := []struct {
		name string
		req  Request
		err  error
	}{
		{"zero amount", recharge(1, "0"), ErrInvalidAmount},
		{"negative amount", recharge(1, "-5"), ErrInvalidAmount},
		{"sub-cent amount", recharge(1, "1.005"), ErrInvalidAmount},
		{"above maximum", recharge(1, "1000.01"), ErrInvalidAmount},
		{"extreme negative exponent", Request{UserID: 1, Kind: models.TipoRecarga, Amount: decimal.New(1, -100000000)}, ErrInvalidAmount},
		{"extreme positive exponent", Request{UserID: 1, Kind: models.TipoDebito, Amount: decimal.New(1, 2000000000)}, ErrInvalidAmount},
		{"unknown kind", Request{UserID: 1, Kind: "estorno", Amount: dec("1")}, ErrInvalidKind},
		{"no user", recharge(0, "5"), ErrAccountNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := engine.Apply(ctx, tc.req)
			assert.ErrorIs(t, err, tc.err)
		})
	}

	store.AssertNotCalled(t, "BeginTx", mock.Anything)
}

func TestScaleInRange(t *testing.T) {
	assert.True(t, ScaleInRange(dec("20.00")))
	assert.True(t, ScaleInRange(decimal.New(5, 10)))
	assert.True(t, ScaleInRange(decimal.New(5, -10)))
	assert.False(t, ScaleInRange(decimal.New(5, 11)))
	assert.False(t, ScaleInRange(decimal.New(5, -11)))
}

func TestEngine_AcceptsTrailingZeros(t *testing.T) {
	store := memory.NewLedgerStore()
	store.AddAccount(1, decimal.Zero, true)
	engine := NewEngine(store, WithMaxAmount(dec("1000")))

	result, err := engine.Apply(context.Background(), recharge(1, "1000.000"))
	require.NoError(t, err)
	assert.Equal(t, "1000", result.NewBalance.String())
}

func TestEngine_PersistenceFailuresRollBack(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("connection reset")

	t.Run("begin fails", func(t *testing.T) {
		store := new(MockLedgerStore)
		store.On("BeginTx", mock.Anything).Return(nil, boom)
		engine := NewEngine(store)

		_, err := engine.Apply(ctx, recharge(1, "5"))
		assert.ErrorIs(t, err, ErrPersistence)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("lock fails", func(t *testing.T) {
		store := new(MockLedgerStore)
		tx := new(MockLedgerTx)
		store.On("BeginTx", mock.Anything).Return(tx, nil)
		tx.On("LockAccount", mock.Anything, int64(1)).Return(decimal.Zero, boom)
		tx.On("Rollback").Return(nil)
		engine := NewEngine(store)

		_, err := engine.Apply(ctx, recharge(1, "5"))
		var pErr *PersistenceError
		require.ErrorAs(t, err, &pErr)
		assert.Equal(t, "lock", pErr.Op)
		assert.False(t, pErr.Timeout())
		tx.AssertNotCalled(t, "UpdateBalance", mock.Anything, mock.Anything, mock.Anything)
		tx.AssertCalled(t, "Rollback")
	})

	t.Run("append fails after balance update", func(t *testing.T) {
		store := new(MockLedgerStore)
		tx := new(MockLedgerTx)
		store.On("BeginTx", mock.Anything).Return(tx, nil)
		tx.On("LockAccount", mock.Anything, int64(1)).Return(dec("10"), nil)
		tx.On("UpdateBalance", mock.Anything, int64(1), dec("15")).Return(nil)
		tx.On("AppendEntry", mock.Anything, mock.AnythingOfType("*models.Transacao")).Return(boom)
		tx.On("Rollback").Return(nil)
		engine := NewEngine(store)

		_, err := engine.Apply(ctx, recharge(1, "5"))
		var pErr *PersistenceError
		require.ErrorAs(t, err, &pErr)
		assert.Equal(t, "append_entry", pErr.Op)
		tx.AssertNotCalled(t, "Commit")
		tx.AssertCalled(t, "Rollback")
	})

	t.Run("commit fails", func(t *testing.T) {
		store := new(MockLedgerStore)
		tx := new(MockLedgerTx)
		publisher := new(MockPublisher)
		store.On("BeginTx", mock.Anything).Return(tx, nil)
		tx.On("LockAccount", mock.Anything, int64(1)).Return(dec("10"), nil)
		tx.On("UpdateBalance", mock.Anything, int64(1), dec("15")).Return(nil)
		tx.On("AppendEntry", mock.Anything, mock.Anything).Return(nil)
		tx.On("Commit").Return(boom)
		tx.On("Rollback").Return(nil)
		engine := NewEngine(store, WithPublisher(publisher))

		_, err := engine.Apply(ctx, recharge(1, "5"))
		var pErr *PersistenceError
		require.ErrorAs(t, err, &pErr)
		assert.Equal(t, "commit", pErr.Op)
		publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("lock timeout", func(t *testing.T) {
		store := new(MockLedgerStore)
		tx := new(MockLedgerTx)
		store.On("BeginTx", mock.Anything).Return(tx, nil)
		tx.On("LockAccount", mock.Anything, int64(1)).Return(decimal.Zero, storage.ErrLockTimeout)
		tx.On("Rollback").Return(nil)
		engine := NewEngine(store)

		_, err := engine.Apply(ctx, recharge(1, "5"))
		assert.True(t, IsTimeout(err))
		assert.ErrorIs(t, err, ErrPersistence)
	})
}

func TestEngine_PublishesAfterCommit(t *testing.T) {
	store := memory.NewLedgerStore()
	store.AddAccount(7, dec("24"), true)
	publisher := new(MockPublisher)
	var buf bytes.Buffer
	engine := NewEngine(store, WithPublisher(publisher), WithAuditLogger(audit.NewLogger(&buf)))

	var published events.TransacaoRegistrada
	publisher.On("Publish", mock.Anything, "7", mock.AnythingOfType("events.TransacaoRegistrada")).
		Run(func(args mock.Arguments) { published = args.Get(2).(events.TransacaoRegistrada) }).
		Return(nil).Once()

	result, err := engine.Apply(context.Background(), recharge(7, "20"))
	require.NoError(t, err)

	publisher.AssertExpectations(t)
	assert.Equal(t, result.Entry.ID, published.TransacaoID)
	assert.Equal(t, "44", published.SaldoApos.String())
	assert.NotEmpty(t, published.EventID)
	assert.Contains(t, buf.String(), `"status":"APPLIED"`)
}

func TestEngine_PublishFailureKeepsEntry(t *testing.T) {
	store := memory.NewLedgerStore()
	store.AddAccount(7, dec("0"), true)
	publisher := new(MockPublisher)
	publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("broker down"))
	engine := NewEngine(store, WithPublisher(publisher))

	result, err := engine.Apply(context.Background(), recharge(7, "3.50"))
	require.NoError(t, err)
	assert.Equal(t, "3.5", result.NewBalance.String())
	assert.Len(t, store.Entries(7), 1)
}

func TestEngine_AuditsRejections(t *testing.T) {
	store := memory.NewLedgerStore()
	store.AddAccount(1, dec("1"), true)
	var buf bytes.Buffer
	engine := NewEngine(store, WithAuditLogger(audit.NewLogger(&buf)))

	_, err := engine.Apply(context.Background(), debit(1, "2"))
	require.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Contains(t, buf.String(), `"status":"REJECTED"`)
	assert.Contains(t, buf.String(), "insufficient funds")
}

func TestEngine_ConcurrentRechargesSameAccount(t *testing.T) {
	store := memory.NewLedgerStore()
	store.AddAccount(1, dec("10.00"), true)
	engine := NewEngine(store)

	const n = 100
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_, err := engine.Apply(context.Background(), recharge(1, "1.50"))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	balance, err := store.GetBalance(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "160", balance.String())
	assert.Len(t, store.Entries(1), n)
	assertLedgerConsistent(t, store, 1, dec("10.00"))
}

func TestEngine_ConcurrentMixedOperations(t *testing.T) {
	store := memory.NewLedgerStore()
	store.AddAccount(1, dec("5.00"), true)
	engine := NewEngine(store)

	var wg sync.WaitGroup
	for i := 0; i < 60; i++ {
		wg.Add(1)
		req := recharge(1, "2.00")
		if i%2 == 1 {
			req = debit(1, "3.00")
		}
		go func(req Request) {
			defer wg.Done()
			_, err := engine.Apply(context.Background(), req)
			if err != nil {
				assert.ErrorIs(t, err, ErrInsufficientFunds)
			}
		}(req)
	}
	wg.Wait()

	assertLedgerConsistent(t, store, 1, dec("5.00"))
}

func TestEngine_AccountsAreIsolated(t *testing.T) {
	store := memory.NewLedgerStore()
	store.AddAccount(1, decimal.Zero, true)
	store.AddAccount(2, decimal.Zero, true)
	engine := NewEngine(store, WithTimeout(50*time.Millisecond))
	ctx := context.Background()

	// Hold account 1 as a concurrent request would.
	holder, err := store.BeginTx(ctx)
	require.NoError(t, err)
	_, err = holder.LockAccount(ctx, 1)
	require.NoError(t, err)

	_, err = engine.Apply(ctx, recharge(2, "5"))
	assert.NoError(t, err)

	_, err = engine.Apply(ctx, recharge(1, "5"))
	assert.True(t, IsTimeout(err), "got %v", err)
	require.NoError(t, holder.Rollback())

	_, err = engine.Apply(ctx, recharge(1, "5"))
	assert.NoError(t, err)

	assertLedgerConsistent(t, store, 1, decimal.Zero)
	assertLedgerConsistent(t, store, 2, decimal.Zero)
}

func TestEngine_ConcurrentAccountsIndependent(t *testing.T) {
	store := memory.NewLedgerStore()
	store.AddAccount(1, dec("1"), true)
	store.AddAccount(2, dec("2"), true)
	engine := NewEngine(store)

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := engine.Apply(context.Background(), recharge(1, "0.25"))
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, err := engine.Apply(context.Background(), recharge(2, "1.00"))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	b1, _ := store.GetBalance(context.Background(), 1)
	b2, _ := store.GetBalance(context.Background(), 2)
	assert.Equal(t, "11", b1.String())
	assert.Equal(t, "42", b2.String())
	assertLedgerConsistent(t, store, 1, dec("1"))
	assertLedgerConsistent(t, store, 2, dec("2"))
}
