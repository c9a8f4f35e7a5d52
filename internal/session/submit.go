package session

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/propiter/FormGodoy/internal/apperrors"
	"github.com/propiter/FormGodoy/internal/models"
)

// pedidosAppendRange es el rango de escritura de la hoja PEDIDOS. Tiene que
// corresponderse columna a columna con models.Order.Rows y con el rango de
// lectura del repositorio.
const pedidosAppendRange = "PEDIDOS!A2:L"

const receptionPrefix = "REC"

// newReceptionNumber genera el nº de recepción: prefijo + últimos 6 dígitos
// del reloj en milisegundos. Propenso a colisiones bajo envíos simultáneos
// en la misma ventana; se mantiene porque el número lo consume un proceso
// manual aguas abajo que asume este formato.
func newReceptionNumber(now time.Time) string {
	millis := fmt.Sprintf("%d", now.UnixMilli())
	if len(millis) > 6 {
		millis = millis[len(millis)-6:]
	}
	return fmt.Sprintf("%s-%s", receptionPrefix, millis)
}

// orderTimestamp formatea la fecha como la espera la hoja (es-ES, 24h).
func orderTimestamp(now time.Time) string {
	return now.Format("02/01/2006 15:04:05")
}

// Submit es la ruta de alta: valida, compone el snapshot del pedido y
// escribe una fila física por línea de producto a través del gateway.
// Cualquier fallo deja la sesión intacta; el éxito limpia las líneas pero
// conserva el cliente para poder componer otro pedido seguido.
func (s *Session) Submit(ctx context.Context) (models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client == nil {
		return models.Order{}, apperrors.ErrValidation(
			"Debe seleccionar un cliente antes de enviar el pedido.")
	}
	if len(s.productLines) == 0 {
		return models.Order{}, apperrors.ErrValidation(
			"Debe agregar al menos un producto al pedido.")
	}

	now := time.Now()
	order := models.Order{
		ReceptionNumber: newReceptionNumber(now),
		ClientCIF:       s.client.CIF,
		ClientName:      s.client.Name,
		Products:        append([]models.ProductLine(nil), s.productLines...),
		Status:          models.StatusPendiente,
		OrderNumber:     "",
		Provider:        "",
		CreatedAt:       orderTimestamp(now),
	}

	if err := s.store.AppendRows(ctx, pedidosAppendRange, order.Rows()); err != nil {
		s.logger.Error("alta de pedido fallida",
			zap.String("reception_number", order.ReceptionNumber),
			zap.Error(err),
		)
		return models.Order{}, err
	}

	s.lastOrderNumber = order.ReceptionNumber
	s.showConfirmation = true
	s.productLines = nil

	s.logger.Info("pedido guardado",
		zap.String("reception_number", order.ReceptionNumber),
		zap.String("client_cif", order.ClientCIF),
		zap.Int("lines", len(order.Products)),
	)
	return order, nil
}

// UpdateViaWebhook es la ruta de actualización de producción: compone el
// snapshot actualizado reutilizando status, nº de pedido y proveedor del
// snapshot pre-edición (no son editables en este flujo) y publica ambos en
// el webhook. El fallo no muta nada y admite reintento; el éxito limpia la
// sesión entera.
func (s *Session) UpdateViaWebhook(ctx context.Context) (models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client == nil || s.currentOrderNumber == "" || s.previousOrder == nil {
		return models.Order{}, apperrors.ErrValidation(
			"Información de pedido incompleta. Intente buscar el pedido de nuevo.")
	}
	if len(s.productLines) == 0 {
		return models.Order{}, apperrors.ErrValidation(
			"Debe agregar al menos un producto al pedido.")
	}

	previous := *s.previousOrder
	updated := models.Order{
		ReceptionNumber: s.currentOrderNumber,
		ClientCIF:       s.client.CIF,
		ClientName:      s.client.Name,
		Products:        append([]models.ProductLine(nil), s.productLines...),
		Status:          previous.Status,
		OrderNumber:     previous.OrderNumber,
		Provider:        previous.Provider,
		CreatedAt:       orderTimestamp(time.Now()),
	}

	if err := s.sender.SendUpdate(ctx, previous, updated); err != nil {
		s.logger.Error("actualización vía webhook fallida",
			zap.String("reception_number", updated.ReceptionNumber),
			zap.Error(err),
		)
		return models.Order{}, err
	}

	s.logger.Info("pedido enviado para actualización",
		zap.String("reception_number", updated.ReceptionNumber),
		zap.Int("lines", len(updated.Products)),
	)
	s.clearOrderLocked()
	return updated, nil
}

// UpdateDirect es la ruta de actualización antigua, directa contra la hoja:
// borra todas las filas del pedido y reinserta las nuevas con el mismo
// layout que el alta (delete-then-reinsert, nunca patch in-place).
//
// Deprecated: la ruta de producción es UpdateViaWebhook; esta se conserva
// por compatibilidad con instalaciones sin el pipeline de webhook.
func (s *Session) UpdateDirect(ctx context.Context) (models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client == nil || s.currentOrderNumber == "" {
		return models.Order{}, apperrors.ErrValidation(
			"Información de pedido incompleta.")
	}
	if len(s.productLines) == 0 {
		return models.Order{}, apperrors.ErrValidation(
			"Debe agregar al menos un producto al pedido.")
	}

	updated := models.Order{
		ReceptionNumber: s.currentOrderNumber,
		ClientCIF:       s.client.CIF,
		ClientName:      s.client.Name,
		Products:        append([]models.ProductLine(nil), s.productLines...),
		Status:          models.StatusPendiente,
		CreatedAt:       orderTimestamp(time.Now()),
	}
	if s.previousOrder != nil {
		updated.Status = s.previousOrder.Status
		updated.OrderNumber = s.previousOrder.OrderNumber
		updated.Provider = s.previousOrder.Provider
	}

	if err := s.store.DeleteOrderRows(ctx, updated.ReceptionNumber, updated.ClientCIF); err != nil {
		return models.Order{}, err
	}
	if err := s.store.AppendRows(ctx, pedidosAppendRange, updated.Rows()); err != nil {
		return models.Order{}, err
	}

	s.clearOrderLocked()
	return updated, nil
}
