package ledger

import (
	"context"

	"github.com/rudigital/backend/internal/models"
	"github.com/rudigital/backend/internal/storage"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type MockLedgerStore struct {
	mock.Mock
}

func (m *MockLedgerStore) BeginTx(ctx context.Context) (storage.LedgerTx, error) {
	args := m.Called(ctx)
	tx, _ := args.Get(0).(storage.LedgerTx)
	return tx, args.Error(1)
}

func (m *MockLedgerStore) GetBalance(ctx context.Context, userID int64) (decimal.Decimal, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockLedgerStore) ListTransactions(ctx context.Context, userID int64, limit, offset int) ([]models.Transacao, error) {
	args := m.Called(ctx, userID, limit, offset)
	return args.Get(0).([]models.Transacao), args.Error(1)
}

type MockLedgerTx struct {
	mock.Mock
}

func (m *MockLedgerTx) LockAccount(ctx context.Context, userID int64) (decimal.Decimal, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockLedgerTx) UpdateBalance(ctx context.Context, userID int64, balance decimal.Decimal) error {
	return m.Called(ctx, userID, balance).Error(0)
}

func (m *MockLedgerTx) AppendEntry(ctx context.Context, entry *models.Transacao) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *MockLedgerTx) Commit() error {
	return m.Called().Error(0)
}

func (m *MockLedgerTx) Rollback() error {
	return m.Called().Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, key string, event any) error {
	return m.Called(ctx, key, event).Error(0)
}
