// Package ledger applies balance mutations. Every call runs as one atomic
// unit under an exclusive lock on the target account.
package ledger

import (
	"context"
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rudigital/backend/internal/audit"
	"github.com/rudigital/backend/internal/models"
	"github.com/rudigital/backend/internal/models/events"
	"github.com/rudigital/backend/internal/storage"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/rudigital/backend/internal/ledger"

// EventPublisher receives an event for every committed entry.
type EventPublisher interface {
	Publish(ctx context.Context, key string, event any) error
}

// Request describes one balance mutation. Kind is models.TipoRecarga or
// models.TipoDebito.
type Request struct {
	UserID      int64
	Kind        string
	Amount      decimal.Decimal
	Description string
	Method      string
}

type Result struct {
	Success    bool
	Message    string
	NewBalance decimal.Decimal
	Entry      *models.Transacao
}

type Engine struct {
	store          storage.LedgerStore
	publisher      EventPublisher
	audit          *audit.Logger
	maxAmount      decimal.Decimal
	timeout        time.Duration
	publishTimeout time.Duration

	tracer   trace.Tracer
	applied  metric.Int64Counter
	rejected metric.Int64Counter
	duration metric.Float64Histogram
}

type Option func(*Engine)

// WithPublisher sets the event publisher. Publishing happens after commit
// and its failure never undoes the entry.
func WithPublisher(p EventPublisher) Option {
	return func(e *Engine) { e.publisher = p }
}

func WithAuditLogger(a *audit.Logger) Option {
	return func(e *Engine) { e.audit = a }
}

// WithMaxAmount sets the largest amount a single entry may carry.
func WithMaxAmount(max decimal.Decimal) Option {
	return func(e *Engine) { e.maxAmount = max }
}

// WithTimeout bounds the whole unit of work, lock wait included.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) { e.timeout = d }
}

func NewEngine(store storage.LedgerStore, opts ...Option) *Engine {
	e := &Engine{
		store:          store,
		publishTimeout: 5 * time.Second,
		tracer:         otel.Tracer(instrumentationName),
	}
	for _, opt := range opts {
		opt(e)
	}

	meter := otel.Meter(instrumentationName)
	var err error
	if e.applied, err = meter.Int64Counter("ledger.transactions.applied",
		metric.WithDescription("Ledger entries committed")); err != nil {
		log.Printf("[LEDGER] Failed to create applied counter: %v", err)
	}
	if e.rejected, err = meter.Int64Counter("ledger.transactions.rejected",
		metric.WithDescription("Balance mutations refused or rolled back")); err != nil {
		log.Printf("[LEDGER] Failed to create rejected counter: %v", err)
	}
	if e.duration, err = meter.Float64Histogram("ledger.transactions.duration",
		metric.WithDescription("Time spent inside the atomic unit"),
		metric.WithUnit("ms")); err != nil {
		log.Printf("[LEDGER] Failed to create duration histogram: %v", err)
	}
	return e
}

// Apply locks the account, checks funds for debits, writes the new balance
// and appends one ledger entry carrying it, then commits. On any error no
// write is visible.
func (e *Engine) Apply(ctx context.Context, req Request) (*Result, error) {
	ctx, span := e.tracer.Start(ctx, "ledger.Apply", trace.WithAttributes(
		attribute.Int64("usuario.id", req.UserID),
		attribute.String("transacao.tipo", req.Kind),
	))
	defer span.End()

	if err := e.validate(req); err != nil {
		e.recordRejection(ctx, span, req, err)
		return nil, err
	}

	unitCtx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		unitCtx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	started := time.Now()
	entry, err := e.apply(unitCtx, req)
	if e.duration != nil {
		e.duration.Record(ctx, float64(time.Since(started).Microseconds())/1000,
			metric.WithAttributes(attribute.String("tipo", req.Kind)))
	}
	if err != nil {
		e.recordRejection(ctx, span, req, err)
		return nil, err
	}

	e.afterCommit(ctx, entry)

	message := "Recarga realizada com sucesso."
	if req.Kind == models.TipoDebito {
		message = "Débito realizado com sucesso."
	}
	return &Result{
		Success:    true,
		Message:    message,
		NewBalance: entry.SaldoApos,
		Entry:      entry,
	}, nil
}

// maxAmountScale bounds the decimal exponent of an amount. Comparing two
// decimals rescales them to a common exponent, which costs digits
// proportional to the gap.
const maxAmountScale = 10

// ScaleInRange reports whether amount's exponent lies within
// [-maxAmountScale, maxAmountScale]. Callers must check it before doing any
// arithmetic on untrusted amounts.
func ScaleInRange(amount decimal.Decimal) bool {
	exp := amount.Exponent()
	return exp >= -maxAmountScale && exp <= maxAmountScale
}

func (e *Engine) validate(req Request) error {
	if req.UserID <= 0 {
		return ErrAccountNotFound
	}
	if req.Kind != models.TipoRecarga && req.Kind != models.TipoDebito {
		return ErrInvalidKind
	}
	if !ScaleInRange(req.Amount) {
		return ErrInvalidAmount
	}
	if !req.Amount.IsPositive() || !req.Amount.Equal(req.Amount.Round(2)) {
		return ErrInvalidAmount
	}
	if e.maxAmount.IsPositive() && req.Amount.GreaterThan(e.maxAmount) {
		return ErrInvalidAmount
	}
	return nil
}

func (e *Engine) apply(ctx context.Context, req Request) (*models.Transacao, error) {
	tx, err := e.store.BeginTx(ctx)
	if err != nil {
		return nil, &PersistenceError{Op: "begin", Err: err}
	}
	defer tx.Rollback()

	balance, err := tx.LockAccount(ctx, req.UserID)
	if errors.Is(err, storage.ErrAccountNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, &PersistenceError{Op: "lock", Err: err}
	}

	var newBalance decimal.Decimal
	if req.Kind == models.TipoDebito {
		if req.Amount.GreaterThan(balance) {
			return nil, ErrInsufficientFunds
		}
		newBalance = balance.Sub(req.Amount)
	} else {
		newBalance = balance.Add(req.Amount)
	}

	if err := tx.UpdateBalance(ctx, req.UserID, newBalance); err != nil {
		return nil, &PersistenceError{Op: "update_balance", Err: err}
	}

	entry := &models.Transacao{
		UsuarioID:  req.UserID,
		Tipo:       req.Kind,
		Valor:      req.Amount,
		Descricao:  req.Description,
		MetodoPgto: req.Method,
		SaldoApos:  newBalance,
	}
	if err := tx.AppendEntry(ctx, entry); err != nil {
		return nil, &PersistenceError{Op: "append_entry", Err: err}
	}

	if err := tx.Commit(); err != nil {
		return nil, &PersistenceError{Op: "commit", Err: err}
	}
	return entry, nil
}

// afterCommit runs outside the lock. Nothing here can fail the request.
func (e *Engine) afterCommit(ctx context.Context, entry *models.Transacao) {
	if e.applied != nil {
		e.applied.Add(ctx, 1, metric.WithAttributes(attribute.String("tipo", entry.Tipo)))
	}
	if e.audit != nil {
		e.audit.LogApplied(entry.UsuarioID, entry.ID, entry.Tipo, entry.Valor, entry.SaldoApos, entry.MetodoPgto)
	}
	if e.publisher == nil {
		return
	}

	event := events.TransacaoRegistrada{
		EventID:     uuid.NewString(),
		TransacaoID: entry.ID,
		UsuarioID:   entry.UsuarioID,
		Tipo:        entry.Tipo,
		Valor:       entry.Valor,
		SaldoApos:   entry.SaldoApos,
		Metodo:      entry.MetodoPgto,
		OcorridoEm:  entry.CriadoEm,
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.publishTimeout)
	defer cancel()
	if err := e.publisher.Publish(pubCtx, strconv.FormatInt(entry.UsuarioID, 10), event); err != nil {
		log.Printf("[LEDGER] Failed to publish event for transacao %d: %v", entry.ID, err)
	}
}

func (e *Engine) recordRejection(ctx context.Context, span trace.Span, req Request, err error) {
	reason := rejectionReason(err)
	span.SetAttributes(attribute.String("ledger.outcome", reason))

	if e.rejected != nil {
		e.rejected.Add(ctx, 1, metric.WithAttributes(
			attribute.String("tipo", req.Kind),
			attribute.String("reason", reason),
		))
	}

	var pErr *PersistenceError
	if errors.As(err, &pErr) {
		span.RecordError(err)
		span.SetStatus(codes.Error, pErr.Op)
		log.Printf("[LEDGER] %s for usuario %d: %v", pErr.Op, req.UserID, pErr.Err)
		if e.audit != nil {
			e.audit.LogError(req.UserID, req.Kind, pErr.Op, pErr.Err)
		}
		return
	}
	if e.audit != nil {
		e.audit.LogRejected(req.UserID, req.Kind, req.Amount, err.Error())
	}
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, ErrAccountNotFound):
		return "account_not_found"
	case errors.Is(err, ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, ErrInvalidKind):
		return "invalid_kind"
	case errors.Is(err, ErrInsufficientFunds):
		return "insufficient_funds"
	case IsTimeout(err):
		return "lock_timeout"
	}
	return "persistence"
}
