package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Ledger entry kinds as persisted in transacoes.tipo.
const (
	TipoRecarga = "recarga"
	TipoDebito  = "debito"
)

// Transacao is one immutable ledger entry. SaldoApos is the account balance
// right after the entry was applied.
type Transacao struct {
	ID         int64           `json:"id"`
	UsuarioID  int64           `json:"usuario_id"`
	Tipo       string          `json:"tipo"`
	Valor      decimal.Decimal `json:"valor"`
	Descricao  string          `json:"descricao"`
	MetodoPgto string          `json:"metodo"`
	SaldoApos  decimal.Decimal `json:"saldo_apos"`
	CriadoEm   time.Time       `json:"data"`
}

// IsIncome reports whether the entry adds to the balance. Debit is the only
// expense kind.
func (t *Transacao) IsIncome() bool {
	return t.Tipo != TipoDebito
}

// Signed returns the amount with the sign it contributes to the balance.
func (t *Transacao) Signed() decimal.Decimal {
	if t.IsIncome() {
		return t.Valor
	}
	return t.Valor.Neg()
}
