package audit

import (
	"encoding/json"
	"io"
	"log"
	"os"
	"time"

	"github.com/shopspring/decimal"
)

// Event statuses.
const (
	StatusApplied  = "APPLIED"
	StatusRejected = "REJECTED"
	StatusFailed   = "FAILED"
)

type Event struct {
	Timestamp   time.Time         `json:"timestamp"`
	EventType   string            `json:"event_type"`
	UsuarioID   int64             `json:"usuario_id"`
	TransacaoID int64             `json:"transacao_id,omitempty"`
	Amount      *decimal.Decimal  `json:"amount,omitempty"`
	Balance     *decimal.Decimal  `json:"balance,omitempty"`
	Status      string            `json:"status"`
	Details     map[string]string `json:"details,omitempty"`
}

// Logger writes one JSON line per balance-affecting outcome.
type Logger struct {
	out *log.Logger
	now func() time.Time
}

func NewLogger(w io.Writer) *Logger {
	if w == nil {
		w = os.Stderr
	}
	return &Logger{
		out: log.New(w, "", log.LstdFlags),
		now: time.Now,
	}
}

// LogApplied records a committed ledger entry.
func (a *Logger) LogApplied(usuarioID, transacaoID int64, tipo string, amount, balance decimal.Decimal, method string) {
	a.log(Event{
		EventType:   tipo,
		UsuarioID:   usuarioID,
		TransacaoID: transacaoID,
		Amount:      &amount,
		Balance:     &balance,
		Status:      StatusApplied,
		Details:     map[string]string{"method": method},
	})
}

// LogRejected records a request refused by a business rule. Nothing was written.
func (a *Logger) LogRejected(usuarioID int64, tipo string, amount decimal.Decimal, reason string) {
	a.log(Event{
		EventType: tipo,
		UsuarioID: usuarioID,
		Amount:    &amount,
		Status:    StatusRejected,
		Details:   map[string]string{"reason": reason},
	})
}

// LogError records an infrastructure failure. The unit of work was rolled back.
func (a *Logger) LogError(usuarioID int64, tipo, op string, err error) {
	a.log(Event{
		EventType: tipo,
		UsuarioID: usuarioID,
		Status:    StatusFailed,
		Details:   map[string]string{"op": op, "error": err.Error()},
	})
}

func (a *Logger) log(event Event) {
	event.Timestamp = a.now()
	data, _ := json.Marshal(event)
	a.out.Printf("AUDIT: %s", string(data))
}
