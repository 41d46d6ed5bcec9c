package handlers

import (
	"net/http"

	"github.com/rudigital/backend/internal/middleware"
	"github.com/rudigital/backend/internal/services"
)

type TicketHandler struct {
	service   *services.TicketService
	validator *services.ValidationHelper
}

func NewTicketHandler(service *services.TicketService) *TicketHandler {
	return &TicketHandler{
		service:   service,
		validator: services.NewValidationHelper(),
	}
}

type IssueTicketRequest struct {
	Refeicao string `json:"refeicao" validate:"required,oneof=almoco jantar" example:"almoco"`
}

type RedeemTicketRequest struct {
	Codigo string `json:"codigo" validate:"required,uuid" example:"9b2f0c1e-6a4d-4e55-9a53-2b1f7e0c9d11"`
}

// IssueTicket creates a single-use meal ticket
// @Summary Generate meal ticket
// @Description Issue a QR ticket for one meal. The balance is only debited when the ticket is validated.
// @Tags Ticket
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body IssueTicketRequest true "Meal"
// @Success 201 {object} services.SuccessResponse{data=object{codigo=string,qr_code=string,expira_em=string,valor=number}}
// @Failure 400 {object} services.ErrorResponse
// @Failure 401 {object} services.ErrorResponse
// @Failure 422 {object} services.ErrorResponse
// @Failure 503 {object} services.ErrorResponse
// @Router /ticket [post]
func (h *TicketHandler) IssueTicket(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		services.SendErrorResponse(w, "Token inválido.", http.StatusUnauthorized, nil)
		return
	}

	var req IssueTicketRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if vErr := h.validator.Validate(&req); vErr != nil {
		writeError(w, vErr)
		return
	}

	ticket, err := h.service.IssueTicket(r.Context(), userID, req.Refeicao)
	if err != nil {
		writeError(w, err)
		return
	}

	services.SendSuccessResponse(w, map[string]any{
		"codigo":    ticket.Codigo,
		"qr_code":   ticket.QRCode,
		"expira_em": ticket.ExpiraEm,
		"valor":     ticket.Valor.InexactFloat64(),
	}, http.StatusCreated)
}

// RedeemTicket consumes a ticket at the turnstile and debits the owner
// @Summary Validate meal ticket
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body RedeemTicketRequest true "Ticket code"
// @Success 200 {object} services.SuccessResponse{data=object{mensagem=string,usuario_id=int,valor=number,saldo_atual=number}}
// @Failure 400 {object} services.ErrorResponse
// @Failure 403 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Router /admin/ticket/validar [post]
func (h *TicketHandler) RedeemTicket(w http.ResponseWriter, r *http.Request) {
	var req RedeemTicketRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if vErr := h.validator.Validate(&req); vErr != nil {
		writeError(w, vErr)
		return
	}

	redeemed, err := h.service.RedeemTicket(r.Context(), req.Codigo)
	if err != nil {
		writeError(w, err)
		return
	}

	services.SendSuccessResponse(w, map[string]any{
		"mensagem":    "Ticket validado. Bom apetite!",
		"usuario_id":  redeemed.UsuarioID,
		"refeicao":    redeemed.Refeicao,
		"valor":       redeemed.Valor.InexactFloat64(),
		"saldo_atual": redeemed.SaldoAtual.InexactFloat64(),
	}, http.StatusOK)
}
