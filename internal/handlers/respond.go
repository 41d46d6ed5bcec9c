package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/rudigital/backend/internal/ledger"
	"github.com/rudigital/backend/internal/services"
)

const maxBodyBytes = 1_048_576

var exposeInternalErrors bool

// ExposeInternalErrors makes 500 responses carry the underlying error text.
// Only meant for development.
func ExposeInternalErrors(on bool) {
	exposeInternalErrors = on
}

// decodeJSON reads a single JSON object into dst. An empty body leaves dst
// untouched so required-field checks report it. It writes the error response
// itself and returns false on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if errors.Is(err, io.EOF) {
		return true
	}
	if err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			field := typeErr.Field
			if field == "" {
				field = "body"
			}
			services.SendErrorResponse(w, fmt.Sprintf("Campo '%s' com tipo inválido.", field), http.StatusUnprocessableEntity, nil)
			return false
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			services.SendErrorResponse(w, "Corpo da requisição muito grande.", http.StatusRequestEntityTooLarge, nil)
			return false
		}
		services.SendErrorResponse(w, "JSON malformado: "+err.Error(), http.StatusBadRequest, nil)
		return false
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		services.SendErrorResponse(w, "O corpo deve conter um único objeto JSON.", http.StatusBadRequest, nil)
		return false
	}
	return true
}

// writeError maps a service or engine error onto the HTTP error taxonomy.
func writeError(w http.ResponseWriter, err error) {
	var (
		vErr     *services.ValidationError
		conflict *services.ConflictError
		rateErr  *services.RateLimitError
	)

	switch {
	case errors.As(err, &vErr):
		services.SendErrorResponse(w, vErr.Message, http.StatusUnprocessableEntity, vErr)
	case errors.As(err, &conflict):
		services.SendErrorResponse(w, conflict.Message, http.StatusConflict, nil)
	case errors.As(err, &rateErr):
		w.Header().Set("Retry-After", strconv.Itoa(int(rateErr.RetryAfter.Seconds())+1))
		services.SendErrorResponse(w,
			fmt.Sprintf("Muitas tentativas. Tente novamente em %d minuto(s).", rateErr.Minutes()),
			http.StatusTooManyRequests, nil)
	case errors.Is(err, services.ErrInvalidCredentials):
		services.SendErrorResponse(w, "Credenciais inválidas.", http.StatusUnauthorized, nil)
	case errors.Is(err, services.ErrInvalidResetToken):
		services.SendErrorResponse(w, "Token inválido ou expirado.", http.StatusBadRequest, nil)
	case errors.Is(err, services.ErrDuplicateRequest):
		services.SendErrorResponse(w, "Requisição duplicada. Esta recarga já foi processada.", http.StatusConflict, nil)
	case errors.Is(err, ledger.ErrAccountNotFound):
		services.SendErrorResponse(w, "Usuário não encontrado.", http.StatusNotFound, nil)
	case errors.Is(err, services.ErrUserNotFound):
		services.SendErrorResponse(w, "Utilizador não encontrado.", http.StatusNotFound, nil)
	case errors.Is(err, services.ErrMenuNotFound):
		services.SendErrorResponse(w, "Cardápio não encontrado.", http.StatusNotFound, nil)
	case errors.Is(err, services.ErrTicketNotFound):
		services.SendErrorResponse(w, "Ticket inválido, expirado ou já utilizado.", http.StatusNotFound, nil)
	case errors.Is(err, ledger.ErrInsufficientFunds):
		services.SendErrorResponse(w, "Saldo insuficiente.", http.StatusBadRequest, nil)
	case errors.Is(err, ledger.ErrInvalidAmount), errors.Is(err, ledger.ErrInvalidKind):
		services.SendErrorResponse(w, "Valor inválido.", http.StatusUnprocessableEntity, nil)
	case errors.Is(err, services.ErrTicketsUnavailable), ledger.IsTimeout(err):
		log.Printf("[API] Service unavailable: %v", err)
		services.SendErrorResponse(w, "Serviço temporariamente indisponível. Tente novamente.", http.StatusServiceUnavailable, nil)
	default:
		log.Printf("[API] Unexpected error: %v", err)
		msg := "Erro interno do servidor."
		if exposeInternalErrors {
			msg = err.Error()
		}
		services.SendErrorResponse(w, msg, http.StatusInternalServerError, nil)
	}
}

// queryInt parses an optional integer query parameter.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, services.NewValidationError("Parâmetro '%s' deve ser um número inteiro.", name)
	}
	return n, nil
}

// parseID validates a numeric path segment.
func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, services.NewValidationError("Identificador inválido.")
	}
	return id, nil
}

// NotFound answers unknown API routes in the standard error envelope.
func NotFound(w http.ResponseWriter, r *http.Request) {
	services.SendErrorResponse(w, fmt.Sprintf("Rota não encontrada: %s %s", r.Method, r.URL.Path), http.StatusNotFound, nil)
}

func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	services.SendErrorResponse(w, fmt.Sprintf("Método %s não permitido para %s", r.Method, r.URL.Path), http.StatusMethodNotAllowed, nil)
}
