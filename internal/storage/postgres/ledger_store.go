package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/rudigital/backend/internal/models"
	"github.com/rudigital/backend/internal/storage"
	"github.com/shopspring/decimal"
)

// PostgreSQL error codes raised when a lock wait is abandoned.
const (
	codeLockNotAvailable = "55P03"
	codeQueryCanceled    = "57014"
)

// LedgerStore keeps balances in usuarios.saldo and the ledger in transacoes.
type LedgerStore struct {
	db          *sql.DB
	lockTimeout time.Duration
}

func NewLedgerStore(db *sql.DB, lockTimeout time.Duration) *LedgerStore {
	return &LedgerStore{db: db, lockTimeout: lockTimeout}
}

func (s *LedgerStore) BeginTx(ctx context.Context) (storage.LedgerTx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}

	// Bound how long this transaction may wait for a row lock.
	if s.lockTimeout > 0 {
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = %d", lockTimeoutMillis(s.lockTimeout))
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("set lock timeout: %w", err)
		}
	}

	return &ledgerTx{tx: tx}, nil
}

func (s *LedgerStore) GetBalance(ctx context.Context, userID int64) (decimal.Decimal, error) {
	var saldo decimal.Decimal
	err := s.db.QueryRowContext(ctx,
		`SELECT saldo FROM usuarios WHERE id = $1 AND ativo = TRUE`,
		userID).Scan(&saldo)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, storage.ErrAccountNotFound
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("get balance: %w", err)
	}
	return saldo, nil
}

func (s *LedgerStore) ListTransactions(ctx context.Context, userID int64, limit, offset int) ([]models.Transacao, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, usuario_id, tipo, valor, descricao, metodo_pgto, saldo_apos, criado_em
		FROM transacoes
		WHERE usuario_id = $1
		ORDER BY criado_em DESC, id DESC
		LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	transacoes := make([]models.Transacao, 0, limit)
	for rows.Next() {
		var t models.Transacao
		if err := rows.Scan(&t.ID, &t.UsuarioID, &t.Tipo, &t.Valor, &t.Descricao,
			&t.MetodoPgto, &t.SaldoApos, &t.CriadoEm); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		transacoes = append(transacoes, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return transacoes, nil
}

type ledgerTx struct {
	tx *sql.Tx
}

func (t *ledgerTx) LockAccount(ctx context.Context, userID int64) (decimal.Decimal, error) {
	var saldo decimal.Decimal
	err := t.tx.QueryRowContext(ctx, `
		SELECT saldo
		FROM usuarios
		WHERE id = $1 AND ativo = TRUE
		FOR UPDATE`, userID).Scan(&saldo)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, storage.ErrAccountNotFound
	}
	if err != nil {
		return decimal.Zero, mapLockError(ctx, err)
	}
	return saldo, nil
}

func (t *ledgerTx) UpdateBalance(ctx context.Context, userID int64, balance decimal.Decimal) error {
	result, err := t.tx.ExecContext(ctx,
		`UPDATE usuarios SET saldo = $1, atualizado_em = NOW() WHERE id = $2`,
		balance, userID)
	if err != nil {
		return fmt.Errorf("update balance: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update balance: %w", err)
	}
	if rowsAffected != 1 {
		return fmt.Errorf("update balance: %d rows affected for account %d", rowsAffected, userID)
	}
	return nil
}

func (t *ledgerTx) AppendEntry(ctx context.Context, entry *models.Transacao) error {
	err := t.tx.QueryRowContext(ctx, `
		INSERT INTO transacoes (usuario_id, tipo, valor, descricao, metodo_pgto, saldo_apos)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, criado_em`,
		entry.UsuarioID, entry.Tipo, entry.Valor, entry.Descricao, entry.MetodoPgto, entry.SaldoApos,
	).Scan(&entry.ID, &entry.CriadoEm)
	if err != nil {
		return fmt.Errorf("append ledger entry: %w", err)
	}
	return nil
}

func (t *ledgerTx) Commit() error {
	return t.tx.Commit()
}

func (t *ledgerTx) Rollback() error {
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return err
	}
	return nil
}

func mapLockError(ctx context.Context, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case codeLockNotAvailable, codeQueryCanceled:
			return fmt.Errorf("%w: %v", storage.ErrLockTimeout, err)
		}
	}
	if ctx.Err() != nil {
		return fmt.Errorf("%w: %v", storage.ErrLockTimeout, ctx.Err())
	}
	return fmt.Errorf("lock account: %w", err)
}

var _ storage.LedgerStore = (*LedgerStore)(nil)

// lockTimeoutMillis rounds up to whole milliseconds. PostgreSQL reads 0 as
// "wait forever", so any positive duration maps to at least 1.
func lockTimeoutMillis(d time.Duration) int64 {
	return int64((d + time.Millisecond - 1) / time.Millisecond)
}
