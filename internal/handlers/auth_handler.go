package handlers

import (
	"log"
	"net"
	"net/http"
	"strings"

	"github.com/rudigital/backend/internal/middleware"
	"github.com/rudigital/backend/internal/services"
)

type AuthHandler struct {
	service   *services.AuthService
	validator *services.ValidationHelper
}

func NewAuthHandler(service *services.AuthService) *AuthHandler {
	return &AuthHandler{
		service:   service,
		validator: services.NewValidationHelper(),
	}
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Email string `json:"email" validate:"required,email" example:"maria@discente.ufcat.edu.br"`
	Senha string `json:"senha" validate:"required" example:"senha123"`
}

type RecoverRequest struct {
	Email string `json:"email" validate:"required,email" example:"maria@discente.ufcat.edu.br"`
}

type ResetRequest struct {
	Token     string `json:"token" validate:"required" example:"3f9c..."`
	NovaSenha string `json:"nova_senha" validate:"required,min=6" example:"novaSenha123"`
}

// Login authenticates a user
// @Summary Login
// @Description Exchange email and password for a bearer token. Five failures in 15 minutes lock the client IP out.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Credentials"
// @Success 200 {object} services.SuccessResponse{data=object{token=string,expira=int,usuario=object}}
// @Failure 401 {object} services.ErrorResponse
// @Failure 422 {object} services.ErrorResponse
// @Failure 429 {object} services.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if vErr := h.validator.Validate(&req); vErr != nil {
		writeError(w, vErr)
		return
	}

	result, err := h.service.Login(r.Context(), req.Email, req.Senha, clientIP(r))
	if err != nil {
		writeError(w, err)
		return
	}

	u := result.Usuario
	services.SendSuccessResponse(w, map[string]any{
		"token":  result.Token,
		"expira": result.Expira,
		"usuario": map[string]any{
			"id":    u.ID,
			"nome":  u.Nome,
			"email": u.Email,
			"curso": u.Curso,
			"saldo": u.Saldo.InexactFloat64(),
			"tipo":  u.Tipo,
		},
	}, http.StatusOK)
}

// Recover starts a password reset
// @Summary Recover password
// @Description Always answers the same message whether or not the email exists.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body RecoverRequest true "Email"
// @Success 200 {object} services.SuccessResponse{data=object{mensagem=string}}
// @Failure 422 {object} services.ErrorResponse
// @Router /auth/recuperar [post]
func (h *AuthHandler) Recover(w http.ResponseWriter, r *http.Request) {
	var req RecoverRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if vErr := h.validator.Validate(&req); vErr != nil {
		writeError(w, vErr)
		return
	}

	if err := h.service.RequestPasswordReset(r.Context(), req.Email); err != nil {
		log.Printf("[RECUPERAR] Reset request failed: %v", err)
	}

	services.SendSuccessResponse(w, map[string]string{
		"mensagem": "Se o e-mail estiver cadastrado, você receberá as instruções em breve.",
	}, http.StatusOK)
}

// Reset sets a new password using a reset token
// @Summary Reset password
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body ResetRequest true "Token and new password"
// @Success 200 {object} services.SuccessResponse{data=object{mensagem=string}}
// @Failure 400 {object} services.ErrorResponse
// @Failure 422 {object} services.ErrorResponse
// @Router /auth/redefinir [post]
func (h *AuthHandler) Reset(w http.ResponseWriter, r *http.Request) {
	var req ResetRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if vErr := h.validator.Validate(&req); vErr != nil {
		writeError(w, vErr)
		return
	}

	if err := h.service.ResetPassword(r.Context(), req.Token, req.NovaSenha); err != nil {
		writeError(w, err)
		return
	}

	services.SendSuccessResponse(w, map[string]string{
		"mensagem": "Senha redefinida com sucesso. Já pode fazer o login.",
	}, http.StatusOK)
}

// Logout revokes the current token
// @Summary Logout
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} services.SuccessResponse{data=object{mensagem=string}}
// @Failure 401 {object} services.ErrorResponse
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		services.SendErrorResponse(w, "Token inválido.", http.StatusUnauthorized, nil)
		return
	}

	if err := h.service.Logout(r.Context(), middleware.TokenFromContext(r.Context()), claims); err != nil {
		writeError(w, err)
		return
	}

	services.SendSuccessResponse(w, map[string]string{"mensagem": "Sessão encerrada."}, http.StatusOK)
}

// clientIP relies on chi's RealIP middleware having rewritten RemoteAddr.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
