// Package sheets implementa el gateway contra el Apps Script que da acceso
// al almacén de filas (la hoja de cálculo). Todo el tráfico es POST JSON
// {action, ...params} y la respuesta siempre es {success, data?, error?}.
package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/propiter/FormGodoy/internal/apperrors"
)

// Client habla con el endpoint del Apps Script.
type Client struct {
	http      *http.Client
	scriptURL string
	breaker   *gobreaker.CircuitBreaker
}

// apiResponse es el sobre de toda respuesta del Apps Script.
type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// NewClient construye el gateway. La URL es obligatoria: sin ella la
// aplicación no tiene almacén y no debe arrancar.
func NewClient(scriptURL string) (*Client, error) {
	if scriptURL == "" {
		return nil, errors.New("apps script URL is required")
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "sheets-gateway",
		MaxRequests: 2,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &Client{
		http:      &http.Client{Timeout: 30 * time.Second},
		scriptURL: scriptURL,
		breaker:   breaker,
	}, nil
}

// call ejecuta una acción contra el Apps Script y deja el campo data
// decodificado en out (si out no es nil). Un status no-2xx o success=false
// son errores que el llamante debe mostrar, nunca reintentar en silencio.
func (c *Client) call(ctx context.Context, action string, params map[string]any, out any) error {
	body := map[string]any{"action": action}
	for k, v := range params {
		body[k] = v
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("error marshaling %s request: %w", action, err)
	}

	raw, err := c.breaker.Execute(func() (any, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.scriptURL, bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("error building request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("request error: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("apps script error: status %d", resp.StatusCode)
		}

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("error reading response: %w", err)
		}
		return data, nil
	})
	if err != nil {
		return apperrors.ErrGateway(fmt.Sprintf("acción %s", action), err)
	}

	var result apiResponse
	if err := json.Unmarshal(raw.([]byte), &result); err != nil {
		return apperrors.ErrGateway(fmt.Sprintf("acción %s: respuesta no es JSON", action), err)
	}

	if !result.Success {
		msg := result.Error
		if msg == "" {
			msg = "unknown error occurred"
		}
		return apperrors.ErrGateway(fmt.Sprintf("acción %s", action), errors.New(msg))
	}

	if out != nil && len(result.Data) > 0 {
		if err := json.Unmarshal(result.Data, out); err != nil {
			return apperrors.ErrGateway(fmt.Sprintf("acción %s: data inválida", action), err)
		}
	}
	return nil
}

// GetRange lee un rango rectangular (p. ej. "CLIENTES!A2:E1000") y devuelve
// las filas como matrices de celdas sin tipar.
func (c *Client) GetRange(ctx context.Context, rng string) ([][]any, error) {
	var rows [][]any
	if err := c.call(ctx, "getRange", map[string]any{"range": rng}, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// AppendRows añade filas al final del rango indicado.
func (c *Client) AppendRows(ctx context.Context, rng string, values [][]any) error {
	return c.call(ctx, "appendRows", map[string]any{"range": rng, "values": values}, nil)
}

// DeleteOrderRows borra todas las filas de PEDIDOS cuya pareja
// (receptionNumber, clientCIF) coincida con la indicada.
func (c *Client) DeleteOrderRows(ctx context.Context, receptionNumber, clientCIF string) error {
	return c.call(ctx, "deleteOrderRows", map[string]any{
		"receptionNumber": receptionNumber,
		"clientCIF":       clientCIF,
	}, nil)
}
