package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrorResponse represents error response structure
type ErrorResponse struct {
	Status   string            `json:"status" example:"error"`
	Mensagem string            `json:"mensagem" example:"Valor inválido."`
	Codigo   int               `json:"codigo" example:"422"`
	Detalhes map[string]string `json:"detalhes,omitempty"`
}

// SuccessResponse wraps every successful payload.
type SuccessResponse struct {
	Status string `json:"status" example:"success"`
	Data   any    `json:"data"`
}

// ValidationHelper provides shared validation functionality
type ValidationHelper struct {
	validator *validator.Validate
}

// NewValidationHelper creates a validator that reports fields by their JSON names.
func NewValidationHelper() *ValidationHelper {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return &ValidationHelper{validator: v}
}

// ValidateStruct validates a struct and returns validation errors
func (vh *ValidationHelper) ValidateStruct(s any) error {
	return vh.validator.Struct(s)
}

// Validate is ValidateStruct with the result converted to a *ValidationError.
func (vh *ValidationHelper) Validate(s any) *ValidationError {
	err := vh.validator.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &ValidationError{Message: "Dados inválidos."}
	}

	fields := fieldMessages(verrs)
	first := verrs[0]
	return &ValidationError{
		Message: fmt.Sprintf("Campo '%s': %s", first.Field(), fields[first.Field()]),
		Fields:  fields,
	}
}

func fieldMessages(verrs validator.ValidationErrors) map[string]string {
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = describe(fe)
	}
	return fields
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "campo obrigatório."
	case "email":
		return "e-mail inválido."
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("deve ter pelo menos %s caracteres.", fe.Param())
		}
		return fmt.Sprintf("deve ser no mínimo %s.", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("deve ter no máximo %s caracteres.", fe.Param())
		}
		return fmt.Sprintf("deve ser no máximo %s.", fe.Param())
	case "oneof":
		return fmt.Sprintf("deve ser um de: %s.", strings.ReplaceAll(fe.Param(), " ", ", "))
	case "datetime":
		return "formato de data inválido. Use YYYY-MM-DD."
	case "uuid":
		return "formato inválido."
	case "gt", "gte":
		return fmt.Sprintf("deve ser maior que %s.", fe.Param())
	}
	return fmt.Sprintf("falhou na validação '%s'.", fe.Tag())
}

// SendErrorResponse sends a JSON error response. validationErr may be a
// validator.ValidationErrors or a *ValidationError.
func SendErrorResponse(w http.ResponseWriter, message string, statusCode int, validationErr error) {
	errorResp := ErrorResponse{
		Status:   "error",
		Mensagem: message,
		Codigo:   statusCode,
	}

	var verrs validator.ValidationErrors
	var vErr *ValidationError
	switch {
	case validationErr == nil:
	case errors.As(validationErr, &verrs):
		errorResp.Detalhes = fieldMessages(verrs)
	case errors.As(validationErr, &vErr):
		errorResp.Detalhes = vErr.Fields
	}

	writeJSON(w, statusCode, errorResp)
}

// SendSuccessResponse sends {"status":"success","data":...}.
func SendSuccessResponse(w http.ResponseWriter, data any, statusCode int) {
	writeJSON(w, statusCode, SuccessResponse{Status: "success", Data: data})
}

func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}
