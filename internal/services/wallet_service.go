package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-redis/redis/v8"
	"github.com/rudigital/backend/internal/config"
	"github.com/rudigital/backend/internal/ledger"
	"github.com/rudigital/backend/internal/models"
	"github.com/rudigital/backend/internal/storage"
	"github.com/shopspring/decimal"
)

const (
	defaultRechargeMethod = "app"
	maxMethodLength       = 40
)

// TransactionApplier is the atomic balance mutation used by the wallet.
type TransactionApplier interface {
	Apply(ctx context.Context, req ledger.Request) (*ledger.Result, error)
}

type WalletService struct {
	store  storage.LedgerStore
	engine TransactionApplier
	redis  *redis.Client
	config *config.WalletConfig
}

// RechargeResult is what a successful recharge reports back.
type RechargeResult struct {
	Mensagem     string
	ValorRecarga decimal.Decimal
	SaldoAtual   decimal.Decimal
	TransacaoID  int64
}

// NewWalletService wires the wallet. redisClient may be nil, in which case
// recharge idempotency keys are ignored.
func NewWalletService(store storage.LedgerStore, engine TransactionApplier, redisClient *redis.Client, cfg *config.WalletConfig) *WalletService {
	return &WalletService{
		store:  store,
		engine: engine,
		redis:  redisClient,
		config: cfg,
	}
}

// GetBalance reads the balance of record. It never caches.
func (s *WalletService) GetBalance(ctx context.Context, userID int64) (decimal.Decimal, error) {
	balance, err := s.store.GetBalance(ctx, userID)
	if errors.Is(err, storage.ErrAccountNotFound) {
		return decimal.Zero, ledger.ErrAccountNotFound
	}
	return balance, err
}

// Recharge credits the account. Bounds and precision are checked before
// the engine is called. A non-empty idempotencyKey is claimed first so a
// double-submitted request is refused with ErrDuplicateRequest.
func (s *WalletService) Recharge(ctx context.Context, userID int64, amount decimal.Decimal, method, idempotencyKey string) (*RechargeResult, error) {
	if err := s.validateRecharge(amount); err != nil {
		return nil, err
	}

	method = strings.TrimSpace(method)
	if method == "" {
		method = defaultRechargeMethod
	}
	if utf8.RuneCountInString(method) > maxMethodLength {
		return nil, NewValidationError("Método de pagamento inválido.")
	}

	release, err := s.claimIdempotencyKey(ctx, userID, idempotencyKey)
	if err != nil {
		return nil, err
	}

	result, err := s.engine.Apply(ctx, ledger.Request{
		UserID:      userID,
		Kind:        models.TipoRecarga,
		Amount:      amount,
		Description: "Recarga - " + upperFirst(method),
		Method:      method,
	})
	if err != nil {
		// A failed commit may still have landed; keep the key so the
		// client cannot apply it twice.
		var pErr *ledger.PersistenceError
		if !errors.As(err, &pErr) || pErr.Op != "commit" {
			release()
		}
		return nil, err
	}

	log.Printf("[WALLET] Recharge of %s applied for usuario %d (transacao %d)", amount.StringFixed(2), userID, result.Entry.ID)
	return &RechargeResult{
		Mensagem:     result.Message,
		ValorRecarga: amount,
		SaldoAtual:   result.NewBalance,
		TransacaoID:  result.Entry.ID,
	}, nil
}

// PayMeal debits the configured meal price.
func (s *WalletService) PayMeal(ctx context.Context, userID int64, refeicao string) (*ledger.Result, error) {
	return s.engine.Apply(ctx, ledger.Request{
		UserID:      userID,
		Kind:        models.TipoDebito,
		Amount:      s.config.MealPrice,
		Description: "Refeição - " + models.RefeicaoLabel(refeicao),
		Method:      "ticket",
	})
}

// GetHistory lists entries newest first. A non-positive limit means the
// default page size and the limit never exceeds the configured maximum.
func (s *WalletService) GetHistory(ctx context.Context, userID int64, limit, offset int) ([]models.Transacao, error) {
	if limit <= 0 {
		limit = s.config.HistoryDefaultLimit
	}
	if limit > s.config.HistoryMaxLimit {
		limit = s.config.HistoryMaxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.ListTransactions(ctx, userID, limit, offset)
}

func (s *WalletService) validateRecharge(amount decimal.Decimal) error {
	if !ledger.ScaleInRange(amount) {
		return NewValidationError("Valor inválido.")
	}
	if amount.LessThan(s.config.MinRecharge) || amount.GreaterThan(s.config.MaxRecharge) {
		return NewValidationError("Valor deve ser entre R$ %s e R$ %s.",
			FormatBRL(s.config.MinRecharge), FormatBRL(s.config.MaxRecharge))
	}
	if !amount.Equal(amount.Round(2)) {
		return NewValidationError("Valor deve ter no máximo duas casas decimais.")
	}
	return nil
}

func (s *WalletService) claimIdempotencyKey(ctx context.Context, userID int64, key string) (func(), error) {
	noop := func() {}
	if key == "" || s.redis == nil {
		return noop, nil
	}

	redisKey := fmt.Sprintf("recarga:idem:%d:%s", userID, key)
	ok, err := s.redis.SetNX(ctx, redisKey, "1", s.config.IdempotencyTTL).Result()
	if err != nil {
		log.Printf("[WALLET] Idempotency check unavailable, proceeding: %v", err)
		return noop, nil
	}
	if !ok {
		log.Printf("[WALLET] Duplicate recharge refused for usuario %d (key %s)", userID, key)
		return nil, ErrDuplicateRequest
	}

	return func() {
		if err := s.redis.Del(context.WithoutCancel(ctx), redisKey).Err(); err != nil {
			log.Printf("[WALLET] Failed to release idempotency key %s: %v", redisKey, err)
		}
	}, nil
}

// FormatBRL renders an amount the Brazilian way: 1000 -> "1.000,00".
func FormatBRL(d decimal.Decimal) string {
	fixed := d.Abs().StringFixed(2)
	intPart, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	if d.IsNegative() {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	b.WriteByte(',')
	b.WriteString(frac)
	return b.String()
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
