// Package workflow implementa los flujos por pasos de la UI con sus
// guardas: alta (cliente → productos → confirmar) y edición (búsqueda →
// edición → envío). Las guardas viven aquí para que ninguna página pueda
// avanzar con un estado incompleto.
package workflow

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/propiter/FormGodoy/internal/apperrors"
	"github.com/propiter/FormGodoy/internal/models"
	"github.com/propiter/FormGodoy/internal/session"
)

// Step es el paso activo del flujo de alta.
type Step int

const (
	StepCliente Step = iota
	StepProductos
	StepConfirmar
)

// CreateFlow es el stepper del alta de pedidos.
type CreateFlow struct {
	sess *session.Session
	step Step
}

// NewCreateFlow arranca el flujo en el paso de cliente.
func NewCreateFlow(sess *session.Session) *CreateFlow {
	return &CreateFlow{sess: sess, step: StepCliente}
}

// Step devuelve el paso actual.
func (f *CreateFlow) Step() Step {
	return f.step
}

// Next avanza un paso si la guarda lo permite: salir de cliente exige
// cliente seleccionado; salir de productos exige al menos una línea.
func (f *CreateFlow) Next() error {
	state := f.sess.Snapshot()
	switch f.step {
	case StepCliente:
		if state.Client == nil {
			return apperrors.ErrValidation("Debe seleccionar un cliente para continuar.")
		}
	case StepProductos:
		if len(state.ProductLines) == 0 {
			return apperrors.ErrValidation("Debe agregar al menos un producto para continuar.")
		}
	case StepConfirmar:
		return nil
	}
	f.step++
	return nil
}

// Back retrocede un paso sin guardas.
func (f *CreateFlow) Back() {
	if f.step > StepCliente {
		f.step--
	}
}

// SearchState es el resultado de la búsqueda del flujo de edición.
type SearchState int

const (
	SearchIdle SearchState = iota
	SearchNotFound
	SearchNotEditable
	SearchLoaded
)

// OrderSource es lo que el flujo de edición necesita del repositorio:
// pedidos frescos y resolución del cliente completo.
type OrderSource interface {
	FetchOrders(ctx context.Context) ([]models.Order, error)
	FindClientByCIF(cif string) (models.Client, bool)
}

// UpdateFlow es el flujo de edición de un pedido existente.
type UpdateFlow struct {
	sess   *session.Session
	source OrderSource
	logger *zap.Logger
	state  SearchState
}

// NewUpdateFlow arranca el flujo de edición en estado de búsqueda.
func NewUpdateFlow(sess *session.Session, source OrderSource, logger *zap.Logger) *UpdateFlow {
	if logger == nil {
		logger = zap.L()
	}
	return &UpdateFlow{sess: sess, source: source, logger: logger, state: SearchIdle}
}

// State devuelve el estado de la última búsqueda.
func (f *UpdateFlow) State() SearchState {
	return f.state
}

// Search localiza el pedido por (nº recepción, CIF) sobre datos frescos y,
// si su estado lo permite, entra en modo edición. Un estado no editable es
// terminal para ese pedido: la sesión queda limpia y solo cabe una nueva
// búsqueda. La sesión se limpia siempre antes de buscar.
func (f *UpdateFlow) Search(ctx context.Context, cif, receptionNumber string) (models.Order, error) {
	cleanCIF := models.NormalizeCIF(cif)
	cleanNumber := strings.ToUpper(strings.TrimSpace(receptionNumber))

	if cleanCIF == "" || cleanNumber == "" {
		return models.Order{}, apperrors.ErrValidation(
			"Por favor, introduce el CIF y el número de recepción.")
	}

	f.state = SearchIdle
	f.sess.ClearOrder()

	orders, err := f.source.FetchOrders(ctx)
	if err != nil {
		return models.Order{}, err
	}

	var found *models.Order
	for i := range orders {
		if strings.ToUpper(strings.TrimSpace(orders[i].ReceptionNumber)) == cleanNumber {
			found = &orders[i]
			break
		}
	}

	if found == nil {
		f.state = SearchNotFound
		return models.Order{}, apperrors.ErrNotFound(
			fmt.Sprintf("No se encontró el pedido %q en los datos más recientes.", cleanNumber))
	}

	if models.NormalizeCIF(found.ClientCIF) != cleanCIF {
		f.state = SearchNotFound
		return models.Order{}, apperrors.ErrValidation(
			fmt.Sprintf("El CIF del pedido encontrado (%s) no coincide con el CIF introducido.", found.ClientCIF))
	}

	if !found.Status.Editable() {
		f.state = SearchNotEditable
		f.logger.Info("pedido no editable",
			zap.String("reception_number", found.ReceptionNumber),
			zap.String("status", string(found.Status)),
		)
		return *found, apperrors.ErrNotEditable(
			fmt.Sprintf("El pedido %s tiene estado %q y no puede modificarse.",
				found.ReceptionNumber, found.Status))
	}

	var resolved *models.Client
	if client, ok := f.source.FindClientByCIF(found.ClientCIF); ok {
		resolved = &client
	}
	f.sess.StartEdit(*found, resolved)
	f.state = SearchLoaded
	return *found, nil
}
