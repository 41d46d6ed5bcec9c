package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rudigital/backend/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockValidator struct {
	mock.Mock
}

func (m *MockValidator) ValidateToken(ctx context.Context, token string) (*services.Claims, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Claims), args.Error(1)
}

func claimsFor(id, tipo string) *services.Claims {
	return &services.Claims{Nome: "Ana", Tipo: tipo, RegisteredClaims: jwt.RegisteredClaims{Subject: id}}
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) services.ErrorResponse {
	t.Helper()
	var resp services.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestAuth(t *testing.T) {
	validator := new(MockValidator)
	var seenID int64
	handler := Auth(validator)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID, _ = UserIDFromContext(r.Context())
		assert.Equal(t, "good", TokenFromContext(r.Context()))
		w.WriteHeader(http.StatusNoContent)
	}))

	validator.On("ValidateToken", mock.Anything, "good").Return(claimsFor("7", "estudante"), nil)
	validator.On("ValidateToken", mock.Anything, "old").Return(nil, services.ErrTokenExpired)
	validator.On("ValidateToken", mock.Anything, "forged").Return(nil, services.ErrTokenInvalid)
	validator.On("ValidateToken", mock.Anything, "revoked").Return(nil, services.ErrTokenRevoked)

	cases := []struct {
		name    string
		header  string
		status  int
		message string
	}{
		{"valid", "Bearer good", http.StatusNoContent, ""},
		{"missing header", "", http.StatusUnauthorized, "Token de acesso não fornecido."},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, "Token de acesso não fornecido."},
		{"empty token", "Bearer ", http.StatusUnauthorized, "Token de acesso não fornecido."},
		{"expired", "Bearer old", http.StatusUnauthorized, "Sessão expirada. Faça login novamente."},
		{"invalid", "Bearer forged", http.StatusUnauthorized, "Token inválido."},
		{"revoked", "Bearer revoked", http.StatusUnauthorized, "Sessão encerrada. Faça login novamente."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/saldo", nil)
			if tc.header != "" {
				r.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, r)

			assert.Equal(t, tc.status, w.Code)
			if tc.message != "" {
				resp := decodeError(t, w)
				assert.Equal(t, "error", resp.Status)
				assert.Equal(t, tc.message, resp.Mensagem)
				assert.Equal(t, tc.status, resp.Codigo)
			}
		})
	}
	assert.Equal(t, int64(7), seenID)
}

func TestAdmin(t *testing.T) {
	handler := Admin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	t.Run("admin passes", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/admin/usuarios", nil)
		r = r.WithContext(WithClaims(r.Context(), "tok", claimsFor("1", "admin")))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("student is forbidden", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/admin/usuarios", nil)
		r = r.WithContext(WithClaims(r.Context(), "tok", claimsFor("7", "estudante")))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "Acesso negado. Permissão de administrador necessária.", decodeError(t, w).Mensagem)
	})

	t.Run("without auth", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/admin/usuarios", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestUserIDFromContext_BadSubject(t *testing.T) {
	ctx := WithClaims(context.Background(), "tok", claimsFor("abc", "estudante"))
	_, ok := UserIDFromContext(ctx)
	assert.False(t, ok)
}

func TestSecurityHeaders(t *testing.T) {
	w := httptest.NewRecorder()
	SecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})).
		ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "no-referrer", w.Header().Get("Referrer-Policy"))
}

func TestStaticFileServer(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>RU</html>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "script.js"), []byte("console.log(1)"), 0o644))
	server := StaticFileServer(dir)

	t.Run("serves asset", func(t *testing.T) {
		w := httptest.NewRecorder()
		server.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/script.js", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "console.log(1)", w.Body.String())
		assert.Equal(t, "public, max-age=86400", w.Header().Get("Cache-Control"))
	})

	t.Run("falls back to index", func(t *testing.T) {
		w := httptest.NewRecorder()
		server.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/reset.html", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "RU")
	})

	t.Run("does not escape the directory", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.URL.Path = "/../../etc/passwd"
		server.ServeHTTP(w, r)
		assert.NotContains(t, w.Body.String(), "root:")
	})
}
