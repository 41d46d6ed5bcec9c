package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type TestStruct struct {
	Nome     string `json:"nome" validate:"required,min=2"`
	Email    string `json:"email" validate:"required,email"`
	Refeicao string `json:"refeicao" validate:"required,oneof=almoco jantar"`
}

func TestValidationHelper_ValidateStruct(t *testing.T) {
	vh := NewValidationHelper()

	t.Run("valid struct", func(t *testing.T) {
		valid := TestStruct{Nome: "Maria", Email: "maria@ufcat.edu.br", Refeicao: "almoco"}
		assert.NoError(t, vh.ValidateStruct(&valid))
	})

	t.Run("field names come from json tags", func(t *testing.T) {
		invalid := TestStruct{Nome: "M", Email: "not-an-email", Refeicao: "cafe"}

		err := vh.ValidateStruct(&invalid)
		require.Error(t, err)

		validationErrors, ok := err.(validator.ValidationErrors)
		require.True(t, ok)
		assert.Len(t, validationErrors, 3)
		assert.Equal(t, "nome", validationErrors[0].Field())
		assert.Equal(t, "email", validationErrors[1].Tag())
	})
}

func TestValidationHelper_Validate(t *testing.T) {
	vh := NewValidationHelper()

	assert.Nil(t, vh.Validate(&TestStruct{Nome: "Maria", Email: "maria@ufcat.edu.br", Refeicao: "jantar"}))

	vErr := vh.Validate(&TestStruct{Nome: "Maria", Refeicao: "cafe"})
	require.NotNil(t, vErr)
	assert.Equal(t, "Campo 'email': campo obrigatório.", vErr.Message)
	assert.Equal(t, "deve ser um de: almoco, jantar.", vErr.Fields["refeicao"])
}

func TestSendErrorResponse(t *testing.T) {
	t.Run("plain error", func(t *testing.T) {
		w := httptest.NewRecorder()

		SendErrorResponse(w, "Erro interno do servidor.", http.StatusInternalServerError, nil)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))

		var response ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "error", response.Status)
		assert.Equal(t, "Erro interno do servidor.", response.Mensagem)
		assert.Equal(t, 500, response.Codigo)
		assert.Nil(t, response.Detalhes)
	})

	t.Run("validator errors become details", func(t *testing.T) {
		vh := NewValidationHelper()
		validationErr := vh.ValidateStruct(&TestStruct{Nome: "M", Email: "x", Refeicao: "almoco"})

		w := httptest.NewRecorder()
		SendErrorResponse(w, "Dados inválidos.", http.StatusUnprocessableEntity, validationErr)

		var response ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, 422, response.Codigo)
		assert.Contains(t, response.Detalhes, "nome")
		assert.Contains(t, response.Detalhes, "email")
	})

	t.Run("validation error details", func(t *testing.T) {
		w := httptest.NewRecorder()
		vErr := &ValidationError{Message: "x", Fields: map[string]string{"valor": "obrigatório"}}

		SendErrorResponse(w, vErr.Message, http.StatusUnprocessableEntity, vErr)

		var response ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "obrigatório", response.Detalhes["valor"])
	})
}

func TestSendSuccessResponse(t *testing.T) {
	w := httptest.NewRecorder()

	SendSuccessResponse(w, map[string]any{"saldo": 44.0}, http.StatusCreated)

	assert.Equal(t, http.StatusCreated, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, 44.0, body["data"].(map[string]any)["saldo"])
}

func TestRateLimitError_Minutes(t *testing.T) {
	assert.Equal(t, 15, (&RateLimitError{RetryAfter: 14*time.Minute + time.Second}).Minutes())
	assert.Equal(t, 1, (&RateLimitError{RetryAfter: 0}).Minutes())
}
