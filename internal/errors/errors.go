package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	ErrNotFound            = NewAppError("NOT_FOUND", "Recurso não encontrado", http.StatusNotFound)
	ErrUnauthorized        = NewAppError("UNAUTHORIZED", "Não autenticado", http.StatusUnauthorized)
	ErrForbidden           = NewAppError("FORBIDDEN", "Acesso negado", http.StatusForbidden)
	ErrBadRequest          = NewAppError("BAD_REQUEST", "Requisição inválida", http.StatusBadRequest)
	ErrInternalServer      = NewAppError("INTERNAL_SERVER_ERROR", "Erro interno do servidor", http.StatusInternalServerError)
	ErrConflict            = NewAppError("CONFLICT", "Conflito de recursos", http.StatusConflict)
	ErrValidation          = NewAppError("VALIDATION_ERROR", "Erro de validação", http.StatusUnprocessableEntity)
	ErrDatabase            = NewAppError("DATABASE_ERROR", "Erro no banco de dados", http.StatusInternalServerError)
	ErrInvalidCredentials  = NewAppError("INVALID_CREDENTIALS", "Email ou senha inválidos", http.StatusUnauthorized)
	ErrInvalidSignature    = NewAppError("INVALID_SIGNATURE", "Assinatura inválida", http.StatusForbidden)
	ErrNoRedeemableBalance = NewAppError("NO_REDEEMABLE_BALANCE", "Nenhuma emissão pendente de pagamento neste mês", http.StatusBadRequest)
	ErrAdminNotFound       = NewAppError("ADMIN_NOT_FOUND", "Administrador não encontrado", http.StatusNotFound)
	ErrCitizenNotFound     = NewAppError("CITIZEN_NOT_FOUND", "Usuário não encontrado", http.StatusNotFound)
	ErrTokenNotFound       = NewAppError("TOKEN_NOT_FOUND", "Token revogado ou inexistente", http.StatusUnauthorized)
	ErrNewsNotFound        = NewAppError("NEWS_NOT_FOUND", "Notícia não encontrada", http.StatusNotFound)
	ErrTripNotFound        = NewAppError("TRIP_NOT_FOUND", "Viagem não encontrada", http.StatusNotFound)
	ErrProgramNotFound     = NewAppError("PROGRAM_NOT_FOUND", "Programa de doação não encontrado", http.StatusNotFound)
	ErrDonationNotFound    = NewAppError("DONATION_NOT_FOUND", "Doação não encontrada", http.StatusNotFound)
)

type AppError struct {
	Code       string
	Message    string
	StatusCode int
	Details    map[string]interface{}
	Err        error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s - %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is compara pelo código, permitindo errors.Is contra as variáveis do pacote.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	clone := e.clone()
	if details == nil {
		clone.Details = make(map[string]interface{})
		return clone
	}
	clone.Details = make(map[string]interface{}, len(details))
	for k, v := range details {
		clone.Details[k] = v
	}
	return clone
}

func (e *AppError) WithError(err error) *AppError {
	clone := e.clone()
	clone.Err = err
	return clone
}

func (e *AppError) WithMessage(message string) *AppError {
	clone := e.clone()
	clone.Message = message
	return clone
}

func NewAppError(code, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Details:    make(map[string]interface{}),
	}
}

func WrapError(err error, code, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Err:        err,
		Details:    make(map[string]interface{}),
	}
}

func (e *AppError) clone() *AppError {
	if e == nil {
		return nil
	}
	clone := *e
	if e.Details != nil {
		clone.Details = make(map[string]interface{}, len(e.Details))
		for k, v := range e.Details {
			clone.Details[k] = v
		}
	} else {
		clone.Details = make(map[string]interface{})
	}
	return &clone
}

func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func HasCode(err error, code string) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}

func FromError(err error) *AppError {
	if appErr, ok := AsAppError(err); ok {
		return appErr
	}

	if errors.Is(err, context.Canceled) {
		return WrapError(err, "REQUEST_CANCELED", "Requisição cancelada pelo cliente", http.StatusRequestTimeout)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return WrapError(err, "UPSTREAM_ERROR", "Tempo limite excedido", http.StatusInternalServerError)
	}

	return WrapError(err, "INTERNAL_SERVER_ERROR", "Erro interno do servidor", http.StatusInternalServerError)
}

func NewAuthError(code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
		Details:    make(map[string]interface{}),
	}
}

// NewValidationError devolve um erro 422 com a mensagem associada ao campo.
func NewValidationError(field, message string) *AppError {
	return &AppError{
		Code:       "VALIDATION_ERROR",
		Message:    message,
		StatusCode: http.StatusUnprocessableEntity,
		Details: map[string]interface{}{
			"fields": []map[string]string{{"field": field, "message": message}},
		},
	}
}

func NewDatabaseError(err error) *AppError {
	return WrapError(err, "DATABASE_ERROR", "Erro ao executar operação no banco de dados", http.StatusInternalServerError)
}

// NewUpstreamError representa uma falha do gateway de pagamento.
func NewUpstreamError(statusCode int, body string, err error) *AppError {
	return &AppError{
		Code:       "UPSTREAM_ERROR",
		Message:    "Falha ao comunicar com o gateway de pagamento",
		StatusCode: http.StatusInternalServerError,
		Err:        err,
		Details: map[string]interface{}{
			"upstream_status": statusCode,
			"upstream_body":   body,
		},
	}
}

func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s não encontrado", resource),
		StatusCode: http.StatusNotFound,
		Details: map[string]interface{}{
			"resource": resource,
		},
	}
}

func NewConflictError(resource string) *AppError {
	return &AppError{
		Code:       "CONFLICT",
		Message:    fmt.Sprintf("%s foi alterado por outra requisição", resource),
		StatusCode: http.StatusConflict,
		Details: map[string]interface{}{
			"resource": resource,
		},
	}
}

func ParseValidationErrors(err error) *AppError {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return ErrValidation.WithMessage("Corpo da requisição inválido").WithError(err)
	}

	fieldErrors := make([]map[string]string, 0, len(validationErrors))
	for _, fieldErr := range validationErrors {
		fieldErrors = append(fieldErrors, map[string]string{
			"field":   toSnakeCase(fieldErr.Field()),
			"message": translateValidationError(fieldErr),
		})
	}

	return &AppError{
		Code:       "VALIDATION_ERROR",
		Message:    "Erro de validação nos campos",
		StatusCode: http.StatusUnprocessableEntity,
		Details: map[string]interface{}{
			"fields": fieldErrors,
		},
	}
}

func toSnakeCase(field string) string {
	var b strings.Builder
	for i, r := range field {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r + ('a' - 'A'))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func translateFieldName(field string) string {
	fieldMap := map[string]string{
		"amount":                "valor",
		"emission_kg":           "emissão",
		"emission":              "emissão",
		"name":                  "nome",
		"email":                 "email",
		"phone":                 "telefone",
		"password":              "senha",
		"password_confirmation": "confirmação de senha",
		"new_password":          "nova senha",
		"old_password":          "senha atual",
		"title":                 "título",
		"content":               "conteúdo",
		"program_id":            "programa",
		"target_amount":         "meta",
		"organizer":             "organizador",
		"start_date":            "data de início",
		"end_date":              "data de término",
		"distance_km":           "distância",
		"duration_seconds":      "duração",
		"vehicle":               "veículo",
	}
	snake := toSnakeCase(field)
	if translated, ok := fieldMap[snake]; ok {
		return translated
	}
	return snake
}

func translateValidationError(fe validator.FieldError) string {
	fieldName := translateFieldName(fe.Field())

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s é obrigatório", fieldName)
	case "email":
		return "Email inválido"
	case "min":
		return fmt.Sprintf("%s deve ter no mínimo %s", fieldName, fe.Param())
	case "max":
		return fmt.Sprintf("%s deve ter no máximo %s", fieldName, fe.Param())
	case "gte":
		return fmt.Sprintf("%s deve ser maior ou igual a %s", fieldName, fe.Param())
	case "lte":
		return fmt.Sprintf("%s deve ser menor ou igual a %s", fieldName, fe.Param())
	case "gt":
		return fmt.Sprintf("%s deve ser maior que %s", fieldName, fe.Param())
	case "lt":
		return fmt.Sprintf("%s deve ser menor que %s", fieldName, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s deve ser um dos valores: %s", fieldName, fe.Param())
	case "eqfield":
		return fmt.Sprintf("%s não confere", fieldName)
	case "nefield":
		return fmt.Sprintf("%s deve ser diferente da anterior", fieldName)
	case "datetime":
		return fmt.Sprintf("%s deve estar no formato AAAA-MM-DD", fieldName)
	case "latitude", "longitude":
		return fmt.Sprintf("%s deve ser uma coordenada válida", fieldName)
	case "required_with":
		return fmt.Sprintf("%s é obrigatório junto com %s", fieldName, toSnakeCase(fe.Param()))
	default:
		return fmt.Sprintf("Validação '%s' falhou para %s", fe.Tag(), fieldName)
	}
}
