package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/rudigital/backend/internal/config"
	"github.com/rudigital/backend/internal/ledger"
	"github.com/rudigital/backend/internal/models"
	"github.com/shopspring/decimal"
	"github.com/skip2/go-qrcode"
)

// Ticket is a single-use meal voucher. It holds no money: the debit happens
// when the ticket is redeemed at the turnstile.
type Ticket struct {
	Codigo    string          `json:"codigo"`
	UsuarioID int64           `json:"usuario_id"`
	Refeicao  string          `json:"refeicao"`
	Valor     decimal.Decimal `json:"valor"`
	ExpiraEm  time.Time       `json:"expira_em"`
}

type IssuedTicket struct {
	Ticket
	QRCode string `json:"qr_code"`
}

type RedeemedTicket struct {
	UsuarioID  int64
	Refeicao   string
	Valor      decimal.Decimal
	SaldoAtual decimal.Decimal
}

type TicketService struct {
	redis  *redis.Client
	wallet *WalletService
	config *config.WalletConfig
	now    func() time.Time
}

func NewTicketService(redisClient *redis.Client, wallet *WalletService, cfg *config.WalletConfig) *TicketService {
	return &TicketService{
		redis:  redisClient,
		wallet: wallet,
		config: cfg,
		now:    time.Now,
	}
}

// IssueTicket creates a voucher for one meal if the balance covers it.
func (s *TicketService) IssueTicket(ctx context.Context, userID int64, refeicao string) (*IssuedTicket, error) {
	if s.redis == nil {
		return nil, ErrTicketsUnavailable
	}
	if refeicao != models.RefeicaoAlmoco && refeicao != models.RefeicaoJantar {
		return nil, NewValidationError("Refeição inválida. Use 'almoco' ou 'jantar'.")
	}

	balance, err := s.wallet.GetBalance(ctx, userID)
	if err != nil {
		return nil, err
	}
	if balance.LessThan(s.config.MealPrice) {
		return nil, ledger.ErrInsufficientFunds
	}

	ticket := Ticket{
		Codigo:    uuid.NewString(),
		UsuarioID: userID,
		Refeicao:  refeicao,
		Valor:     s.config.MealPrice,
		ExpiraEm:  s.now().Add(s.config.TicketTTL).UTC(),
	}

	data, err := json.Marshal(ticket)
	if err != nil {
		return nil, err
	}
	if err := s.redis.Set(ctx, ticketKey(ticket.Codigo), data, s.config.TicketTTL).Err(); err != nil {
		return nil, fmt.Errorf("store ticket: %w", err)
	}

	image, err := qrImage(ticket.Codigo)
	if err != nil {
		return nil, err
	}

	log.Printf("[TICKET] Issued %s ticket %s for usuario %d", refeicao, ticket.Codigo, userID)
	return &IssuedTicket{Ticket: ticket, QRCode: image}, nil
}

// RedeemTicket consumes the voucher and debits the owner. Only one caller
// can consume a given ticket.
func (s *TicketService) RedeemTicket(ctx context.Context, codigo string) (*RedeemedTicket, error) {
	if s.redis == nil {
		return nil, ErrTicketsUnavailable
	}

	key := ticketKey(codigo)
	data, err := s.redis.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrTicketNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load ticket: %w", err)
	}

	deleted, err := s.redis.Del(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("consume ticket: %w", err)
	}
	if deleted == 0 {
		return nil, ErrTicketNotFound
	}

	var ticket Ticket
	if err := json.Unmarshal(data, &ticket); err != nil {
		return nil, fmt.Errorf("decode ticket: %w", err)
	}

	result, err := s.wallet.PayMeal(ctx, ticket.UsuarioID, ticket.Refeicao)
	if err != nil {
		log.Printf("[TICKET] Ticket %s consumed but debit failed for usuario %d: %v", codigo, ticket.UsuarioID, err)
		return nil, err
	}

	return &RedeemedTicket{
		UsuarioID:  ticket.UsuarioID,
		Refeicao:   ticket.Refeicao,
		Valor:      result.Entry.Valor,
		SaldoAtual: result.NewBalance,
	}, nil
}

func ticketKey(codigo string) string {
	return "ticket:" + codigo
}

func qrImage(content string) (string, error) {
	qr, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, qr.Image(256)); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
