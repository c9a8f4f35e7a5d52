package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError representa un error de aplicación con código HTTP y contexto
type AppError struct {
	Code       int    `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
	Internal   error  `json:"-"` // No se expone al cliente
	Retryable  bool   `json:"retryable"`
	StatusCode int    `json:"-"` // HTTP status code
}

func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Internal)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Internal
}

// NewAppError crea un nuevo error de aplicación
func NewAppError(statusCode int, code int, message string, internal error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		Internal:   internal,
		StatusCode: statusCode,
	}
}

// WithDetails agrega detalles adicionales al error
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// WithRetryable marca el error como reintentable
func (e *AppError) WithRetryable(retryable bool) *AppError {
	e.Retryable = retryable
	return e
}

// Taxonomía de errores del sistema de pedidos.
var (
	// ErrConfig: configuración obligatoria ausente; fatal en el arranque.
	ErrConfig = func(details string) *AppError {
		return NewAppError(http.StatusInternalServerError, 50010, "Configuración inválida", nil).
			WithDetails(details)
	}

	// ErrValidation: precondición de negocio incumplida; nunca toca la red.
	ErrValidation = func(details string) *AppError {
		return NewAppError(http.StatusUnprocessableEntity, 42200, "Error de validación", nil).
			WithDetails(details)
	}

	// ErrNotFound: búsqueda sin resultado (cliente o pedido).
	ErrNotFound = func(details string) *AppError {
		return NewAppError(http.StatusNotFound, 40400, "No encontrado", nil).
			WithDetails(details)
	}

	// ErrNotEditable: estado de negocio reconocido, no un fallo técnico.
	// No hay reintento posible salvo empezar una nueva búsqueda.
	ErrNotEditable = func(details string) *AppError {
		return NewAppError(http.StatusConflict, 40910, "El pedido no puede modificarse", nil).
			WithDetails(details)
	}

	// ErrGateway: fallo de transporte o respuesta success=false del
	// Apps Script. Se aborta la operación sin mutar estado.
	ErrGateway = func(details string, err error) *AppError {
		return NewAppError(http.StatusBadGateway, 50200, "Error del almacén remoto", err).
			WithDetails(details).
			WithRetryable(true)
	}

	// ErrWebhook: el webhook de actualización respondió con fallo.
	ErrWebhook = func(details string, err error) *AppError {
		return NewAppError(http.StatusBadGateway, 50210, "Error del webhook de actualización", err).
			WithDetails(details).
			WithRetryable(true)
	}
)

// IsRetryable verifica si un error es reintentable
func IsRetryable(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Retryable
	}
	return false
}

// GetStatusCode obtiene el código HTTP de un error
func GetStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}
