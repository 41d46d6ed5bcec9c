package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/rudigital/backend/internal/services"
)

type contextKey string

const (
	claimsKey contextKey = "claims"
	tokenKey  contextKey = "token"
)

// TokenValidator resolves a bearer token into its claims.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*services.Claims, error)
}

// Auth rejects requests without a valid bearer token and stores the claims
// in the request context.
func Auth(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				services.SendErrorResponse(w, "Token de acesso não fornecido.", http.StatusUnauthorized, nil)
				return
			}

			claims, err := validator.ValidateToken(r.Context(), token)
			if err != nil {
				services.SendErrorResponse(w, authMessage(err), http.StatusUnauthorized, nil)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), token, claims)))
		})
	}
}

// Admin must run after Auth.
func Admin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			services.SendErrorResponse(w, "Token de acesso não fornecido.", http.StatusUnauthorized, nil)
			return
		}
		if !claims.IsAdmin() {
			services.SendErrorResponse(w, "Acesso negado. Permissão de administrador necessária.", http.StatusForbidden, nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func ClaimsFromContext(ctx context.Context) (*services.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*services.Claims)
	return claims, ok && claims != nil
}

// UserIDFromContext returns the authenticated account id.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	claims, ok := ClaimsFromContext(ctx)
	if !ok {
		return 0, false
	}
	id, err := claims.UserID()
	return id, err == nil
}

func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey).(string)
	return token
}

// WithClaims returns a context carrying claims as Auth would store them.
func WithClaims(ctx context.Context, token string, claims *services.Claims) context.Context {
	ctx = context.WithValue(ctx, claimsKey, claims)
	return context.WithValue(ctx, tokenKey, token)
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	return token, token != ""
}

func authMessage(err error) string {
	switch {
	case errors.Is(err, services.ErrTokenExpired):
		return "Sessão expirada. Faça login novamente."
	case errors.Is(err, services.ErrTokenRevoked):
		return "Sessão encerrada. Faça login novamente."
	case errors.Is(err, services.ErrTokenInvalid):
		return "Token inválido."
	}
	log.Printf("[JWT] Token validation failed: %v", err)
	return "Autenticação falhou."
}
