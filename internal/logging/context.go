package logging

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
)

// contextKey es un tipo privado para evitar colisiones de claves de contexto.
type contextKey string

const requestIDKey contextKey = "request_id"

// NewRequestID genera un identificador de petición único para correlación
// de logs. No necesita ser criptográfico, solo distinguible.
func NewRequestID() string {
	return fmt.Sprintf("%d-%d", time.Now().UnixNano(), os.Getpid())
}

// WithRequestID guarda el request id en el contexto.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID extrae el request id del contexto, o "" si no hay.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// FieldsFromContext devuelve los campos de logging derivados del contexto
// como slice de zap.Field, listo para pasar a zap.L().
func FieldsFromContext(ctx context.Context) []zap.Field {
	fields := []zap.Field{}
	if id := RequestID(ctx); id != "" {
		fields = append(fields, zap.String("request_id", id))
	}
	return fields
}
