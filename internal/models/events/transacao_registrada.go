package events

import (
	"time"

	"github.com/shopspring/decimal"
)

const TopicTransacaoRegistrada = "transacao.registrada"

// TransacaoRegistrada is emitted after a ledger entry has been committed.
type TransacaoRegistrada struct {
	EventID     string          `json:"event_id"`
	TransacaoID int64           `json:"transacao_id"`
	UsuarioID   int64           `json:"usuario_id"`
	Tipo        string          `json:"tipo"`
	Valor       decimal.Decimal `json:"valor"`
	SaldoApos   decimal.Decimal `json:"saldo_apos"`
	Metodo      string          `json:"metodo"`
	OcorridoEm  time.Time       `json:"ocorrido_em"`
}
