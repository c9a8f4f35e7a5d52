package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propiter/FormGodoy/internal/apperrors"
	"github.com/propiter/FormGodoy/internal/models"
)

func testOrders() (models.Order, models.Order) {
	previous := models.Order{
		ReceptionNumber: "REC-000001",
		ClientCIF:       "B123",
		ClientName:      "Frutas Pérez",
		Status:          models.StatusPendiente,
	}
	updated := previous
	updated.Products = []models.ProductLine{{
		Product:       models.Product{ID: "P1", Name: "Tomate Pera"},
		Palet:         models.Palet{ID: "PL1", Name: "Palet Europeo"},
		PaletQuantity: 2,
		Caja:          models.Caja{ID: "C1", Name: "Caja 10kg"},
		CajaQuantity:  4,
	}}
	return previous, updated
}

func newTestSender(t *testing.T, handler http.HandlerFunc) *Sender {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	s := NewSender(srv.URL)
	// Reintentos casi inmediatos para que los tests de fallo no esperen.
	s.baseDelay = time.Millisecond
	return s
}

func TestSendUpdatePostsBothSnapshots(t *testing.T) {
	var got UpdatePayload
	sender := newTestSender(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	})

	previous, updated := testOrders()
	require.NoError(t, sender.SendUpdate(context.Background(), previous, updated))

	assert.Equal(t, "REC-000001", got.PreviousOrder.ReceptionNumber)
	assert.Empty(t, got.PreviousOrder.Products)
	require.Len(t, got.UpdatedOrder.Products, 1)
	assert.Equal(t, 2, got.UpdatedOrder.Products[0].PaletQuantity)
}

// Cualquier 2xx vale como éxito, no solo 200.
func TestSendUpdateAccepts2xx(t *testing.T) {
	sender := newTestSender(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})

	previous, updated := testOrders()
	require.NoError(t, sender.SendUpdate(context.Background(), previous, updated))
}

func TestSendUpdateRetriesTransientFailures(t *testing.T) {
	var calls int
	sender := newTestSender(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		assert.Equal(t, "3", r.Header.Get("X-Retry-Attempt"))
		w.WriteHeader(http.StatusOK)
	})

	previous, updated := testOrders()
	require.NoError(t, sender.SendUpdate(context.Background(), previous, updated))
	assert.Equal(t, 3, calls)
}

func TestSendUpdateExhaustedRetriesSurfaceMessage(t *testing.T) {
	var calls int
	sender := newTestSender(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"message": "pipeline parado"})
	})

	previous, updated := testOrders()
	err := sender.SendUpdate(context.Background(), previous, updated)
	require.Error(t, err)
	assert.Equal(t, maxAttempts, calls)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 50210, appErr.Code)
	assert.True(t, appErr.Retryable)
	assert.Contains(t, err.Error(), "pipeline parado")
}

// Sin {message} en el cuerpo, el error lleva al menos el status.
func TestSendUpdateFallsBackToStatusText(t *testing.T) {
	sender := newTestSender(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "sin formato", http.StatusForbidden)
	})

	previous, updated := testOrders()
	err := sender.SendUpdate(context.Background(), previous, updated)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}
