package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/rudigital/backend/internal/ledger"
	"github.com/rudigital/backend/internal/middleware"
	"github.com/rudigital/backend/internal/models"
	"github.com/rudigital/backend/internal/services"
	"github.com/shopspring/decimal"
)

type WalletHandler struct {
	service *services.WalletService
}

func NewWalletHandler(service *services.WalletService) *WalletHandler {
	return &WalletHandler{service: service}
}

type RechargeRequest struct {
	Valor  json.RawMessage `json:"valor" swaggertype:"number" example:"20.00"`
	Metodo string          `json:"metodo" example:"pix"`
}

// maxValorLength caps the textual form of valor before it is parsed.
const maxValorLength = 32

// parseValor accepts a JSON number or a numeric string, as the PHP client
// sometimes sends "20.00".
func parseValor(raw json.RawMessage) (decimal.Decimal, bool) {
	text := strings.TrimSpace(string(raw))
	if text == "" || text == "null" || len(text) > maxValorLength+2 {
		return decimal.Zero, false
	}
	if text[0] == '"' {
		var s string
		if err := json.Unmarshal([]byte(text), &s); err != nil {
			return decimal.Zero, false
		}
		text = strings.TrimSpace(s)
	} else if text[0] != '-' && (text[0] < '0' || text[0] > '9') {
		return decimal.Zero, false
	}
	if text == "" || len(text) > maxValorLength {
		return decimal.Zero, false
	}

	amount, err := decimal.NewFromString(text)
	if err != nil || !ledger.ScaleInRange(amount) {
		return decimal.Zero, false
	}
	return amount, true
}

type transacaoView struct {
	ID        int64     `json:"id"`
	Tipo      string    `json:"tipo"`
	Valor     float64   `json:"valor"`
	Descricao string    `json:"descricao"`
	Metodo    string    `json:"metodo"`
	SaldoApos float64   `json:"saldo_apos"`
	Data      time.Time `json:"data"`
	IsIncome  bool      `json:"isIncome"`
}

// GetBalance returns the balance of record
// @Summary Saldo
// @Description Current balance of the authenticated user
// @Tags Carteira
// @Produce json
// @Security BearerAuth
// @Success 200 {object} services.SuccessResponse{data=object{saldo=number}}
// @Failure 401 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Router /saldo [get]
func (h *WalletHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		services.SendErrorResponse(w, "Token inválido.", http.StatusUnauthorized, nil)
		return
	}

	balance, err := h.service.GetBalance(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	services.SendSuccessResponse(w, map[string]any{"saldo": balance.InexactFloat64()}, http.StatusOK)
}

// Recharge credits the wallet
// @Summary Recarga
// @Description Credit the wallet. A repeated Idempotency-Key is rejected with 409.
// @Tags Carteira
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param Idempotency-Key header string false "Client generated key for safe retries"
// @Param request body RechargeRequest true "Recharge request"
// @Success 201 {object} services.SuccessResponse{data=object{mensagem=string,valor_recarga=number,saldo_atual=number}}
// @Failure 400 {object} services.ErrorResponse
// @Failure 409 {object} services.ErrorResponse
// @Failure 422 {object} services.ErrorResponse
// @Failure 503 {object} services.ErrorResponse
// @Router /recarga [post]
func (h *WalletHandler) Recharge(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		services.SendErrorResponse(w, "Token inválido.", http.StatusUnauthorized, nil)
		return
	}

	var req RechargeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	valor, ok := parseValor(req.Valor)
	if !ok {
		services.SendErrorResponse(w, "Valor inválido.", http.StatusUnprocessableEntity, nil)
		return
	}

	key := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	result, err := h.service.Recharge(r.Context(), userID, valor, req.Metodo, key)
	if err != nil {
		writeError(w, err)
		return
	}

	services.SendSuccessResponse(w, map[string]any{
		"mensagem":      result.Mensagem,
		"valor_recarga": result.ValorRecarga.InexactFloat64(),
		"saldo_atual":   result.SaldoAtual.InexactFloat64(),
		"transacao_id":  result.TransacaoID,
	}, http.StatusCreated)
}

// GetHistory lists ledger entries, newest first
// @Summary Extrato
// @Tags Carteira
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size (default 10, max 50)"
// @Param offset query int false "Entries to skip"
// @Success 200 {object} services.SuccessResponse{data=object{transacoes=[]transacaoView,total=int}}
// @Failure 401 {object} services.ErrorResponse
// @Failure 422 {object} services.ErrorResponse
// @Router /extrato [get]
func (h *WalletHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		services.SendErrorResponse(w, "Token inválido.", http.StatusUnauthorized, nil)
		return
	}

	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		writeError(w, err)
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		writeError(w, err)
		return
	}

	entries, err := h.service.GetHistory(r.Context(), userID, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	views := make([]transacaoView, 0, len(entries))
	for i := range entries {
		views = append(views, toTransacaoView(&entries[i]))
	}
	services.SendSuccessResponse(w, map[string]any{
		"transacoes": views,
		"total":      len(views),
	}, http.StatusOK)
}

func toTransacaoView(t *models.Transacao) transacaoView {
	return transacaoView{
		ID:        t.ID,
		Tipo:      t.Tipo,
		Valor:     t.Valor.InexactFloat64(),
		Descricao: t.Descricao,
		Metodo:    t.MetodoPgto,
		SaldoApos: t.SaldoApos.InexactFloat64(),
		Data:      t.CriadoEm,
		IsIncome:  t.IsIncome(),
	}
}
