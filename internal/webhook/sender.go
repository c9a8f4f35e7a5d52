// Package webhook envía las actualizaciones de pedidos al pipeline externo.
// El webhook recibe el snapshot previo y el actualizado y se encarga él de
// tocar la hoja; este servicio no escribe nada en la ruta de actualización.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/propiter/FormGodoy/internal/apperrors"
	"github.com/propiter/FormGodoy/internal/models"
	"github.com/propiter/FormGodoy/internal/retry"
)

const (
	maxAttempts = 3
	baseDelay   = 1 * time.Second
)

// Sender publica pares {previousOrder, updatedOrder} en la URL configurada.
type Sender struct {
	http      *http.Client
	updateURL string
	attempts  int
	baseDelay time.Duration
}

// UpdatePayload es el cuerpo exacto que espera el webhook.
type UpdatePayload struct {
	PreviousOrder models.Order `json:"previousOrder"`
	UpdatedOrder  models.Order `json:"updatedOrder"`
}

// errorBody es lo que el webhook devuelve (a veces) cuando falla.
type errorBody struct {
	Message string `json:"message"`
}

// NewSender construye el sender. La URL viene validada por config.
func NewSender(updateURL string) *Sender {
	return &Sender{
		http:      &http.Client{Timeout: 10 * time.Second},
		updateURL: updateURL,
		attempts:  maxAttempts,
		baseDelay: baseDelay,
	}
}

// SendUpdate publica la actualización. Cualquier 2xx es éxito; cualquier
// otra cosa es fallo duro que el llamante muestra al usuario y puede
// reintentar manualmente. Entre medias hay reintentos con backoff para
// cortes transitorios.
func (s *Sender) SendUpdate(ctx context.Context, previous, updated models.Order) error {
	payload, err := json.Marshal(UpdatePayload{
		PreviousOrder: previous,
		UpdatedOrder:  updated,
	})
	if err != nil {
		return fmt.Errorf("error marshaling update payload: %w", err)
	}

	attempt := 0
	err = retry.WithRetry(ctx, s.attempts, s.baseDelay, func() error {
		attempt++
		return s.post(ctx, payload, attempt)
	})
	if err != nil {
		return apperrors.ErrWebhook(
			fmt.Sprintf("pedido %s", updated.ReceptionNumber), err)
	}
	return nil
}

func (s *Sender) post(ctx context.Context, payload []byte, attempt int) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.updateURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Retry-Attempt", fmt.Sprintf("%d", attempt))

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("error sending webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	// El cuerpo de error puede traer {message}; si no, vale el status.
	msg := resp.Status
	if body, readErr := io.ReadAll(io.LimitReader(resp.Body, 4096)); readErr == nil {
		var eb errorBody
		if json.Unmarshal(body, &eb) == nil && eb.Message != "" {
			msg = eb.Message
		}
	}
	return fmt.Errorf("webhook failed with status %d: %s", resp.StatusCode, msg)
}
