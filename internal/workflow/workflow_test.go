package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/propiter/FormGodoy/internal/apperrors"
	"github.com/propiter/FormGodoy/internal/models"
	"github.com/propiter/FormGodoy/internal/session"
)

type noopStore struct{}

func (noopStore) AppendRows(ctx context.Context, rng string, values [][]any) error { return nil }
func (noopStore) DeleteOrderRows(ctx context.Context, receptionNumber, clientCIF string) error {
	return nil
}

type noopSender struct{}

func (noopSender) SendUpdate(ctx context.Context, previous, updated models.Order) error { return nil }

// fakeSource sirve pedidos frescos y clientes resueltos al flujo de edición.
type fakeSource struct {
	orders  []models.Order
	clients map[string]models.Client
	err     error
}

func (f *fakeSource) FetchOrders(ctx context.Context) ([]models.Order, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.orders, nil
}

func (f *fakeSource) FindClientByCIF(cif string) (models.Client, bool) {
	c, ok := f.clients[models.NormalizeCIF(cif)]
	return c, ok
}

func newSession() *session.Session {
	return session.New(noopStore{}, noopSender{}, zap.NewNop())
}

func testLine() models.ProductLine {
	return models.ProductLine{
		Product:       models.Product{ID: "P1", Name: "Tomate Pera"},
		Palet:         models.Palet{ID: "PL1", Name: "Palet Europeo"},
		PaletQuantity: 1,
		Caja:          models.Caja{ID: "C1", Name: "Caja 10kg"},
		CajaQuantity:  1,
	}
}

func TestCreateFlowGuards(t *testing.T) {
	sess := newSession()
	flow := NewCreateFlow(sess)

	// Sin cliente no se sale del primer paso.
	require.Error(t, flow.Next())
	assert.Equal(t, StepCliente, flow.Step())

	sess.SetClient(&models.Client{CIF: "B123", Name: "Frutas Pérez"})
	require.NoError(t, flow.Next())
	assert.Equal(t, StepProductos, flow.Step())

	// Sin líneas no se llega a confirmar.
	require.Error(t, flow.Next())
	assert.Equal(t, StepProductos, flow.Step())

	sess.AddLine(testLine())
	require.NoError(t, flow.Next())
	assert.Equal(t, StepConfirmar, flow.Step())

	// Confirmar es el último paso.
	require.NoError(t, flow.Next())
	assert.Equal(t, StepConfirmar, flow.Step())

	flow.Back()
	assert.Equal(t, StepProductos, flow.Step())
	flow.Back()
	flow.Back()
	assert.Equal(t, StepCliente, flow.Step())
}

func pendingOrder() models.Order {
	return models.Order{
		ReceptionNumber: "REC-000001",
		ClientCIF:       "B123",
		ClientName:      "Frutas Pérez",
		Products:        []models.ProductLine{testLine()},
		Status:          models.StatusPendiente,
	}
}

func TestUpdateFlowSearchLoadsEditableOrder(t *testing.T) {
	sess := newSession()
	source := &fakeSource{
		orders: []models.Order{pendingOrder()},
		clients: map[string]models.Client{
			"B123": {CIF: "B123", Name: "Frutas Pérez", Address: "Calle Mayor 1"},
		},
	}
	flow := NewUpdateFlow(sess, source, zap.NewNop())

	order, err := flow.Search(context.Background(), " b123 ", " rec-000001 ")
	require.NoError(t, err)
	assert.Equal(t, SearchLoaded, flow.State())
	assert.Equal(t, "REC-000001", order.ReceptionNumber)

	state := sess.Snapshot()
	assert.True(t, state.IsEditMode)
	require.NotNil(t, state.Client)
	// El cliente se re-resuelve contra el repositorio: llega con dirección.
	assert.Equal(t, "Calle Mayor 1", state.Client.Address)
	assert.Len(t, state.ProductLines, 1)
}

// Un pedido con estado fuera del conjunto editable no entra en edición y la
// sesión se queda en su estado limpio pre-búsqueda.
func TestUpdateFlowSearchNotEditable(t *testing.T) {
	sess := newSession()
	// Estado previo que debe quedar limpio tras la búsqueda.
	sess.SetClient(&models.Client{CIF: "VIEJO"})
	sess.AddLine(testLine())

	invoiced := pendingOrder()
	invoiced.Status = models.StatusFacturado
	flow := NewUpdateFlow(sess, &fakeSource{orders: []models.Order{invoiced}}, zap.NewNop())

	_, err := flow.Search(context.Background(), "B123", "REC-000001")
	require.Error(t, err)
	assert.Equal(t, SearchNotEditable, flow.State())

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 40910, appErr.Code)

	state := sess.Snapshot()
	assert.False(t, state.IsEditMode)
	assert.Nil(t, state.Client)
	assert.Empty(t, state.ProductLines)
}

func TestUpdateFlowSearchNotFound(t *testing.T) {
	sess := newSession()
	flow := NewUpdateFlow(sess, &fakeSource{orders: []models.Order{pendingOrder()}}, zap.NewNop())

	_, err := flow.Search(context.Background(), "B123", "REC-999999")
	require.Error(t, err)
	assert.Equal(t, SearchNotFound, flow.State())
	assert.False(t, sess.Snapshot().IsEditMode)
}

func TestUpdateFlowSearchCIFMismatch(t *testing.T) {
	sess := newSession()
	flow := NewUpdateFlow(sess, &fakeSource{orders: []models.Order{pendingOrder()}}, zap.NewNop())

	_, err := flow.Search(context.Background(), "B999", "REC-000001")
	require.Error(t, err)
	assert.Equal(t, SearchNotFound, flow.State())
	assert.False(t, sess.Snapshot().IsEditMode)
}

func TestUpdateFlowSearchRequiresBothFields(t *testing.T) {
	sess := newSession()
	source := &fakeSource{err: errors.New("no debería llamarse")}
	flow := NewUpdateFlow(sess, source, zap.NewNop())

	_, err := flow.Search(context.Background(), "", "REC-000001")
	require.Error(t, err)
	_, err = flow.Search(context.Background(), "B123", "   ")
	require.Error(t, err)
}

// Un pedido Solicitado también es editable.
func TestUpdateFlowSearchSolicitadoIsEditable(t *testing.T) {
	sess := newSession()
	requested := pendingOrder()
	requested.Status = models.StatusSolicitado
	flow := NewUpdateFlow(sess, &fakeSource{orders: []models.Order{requested}}, zap.NewNop())

	_, err := flow.Search(context.Background(), "B123", "REC-000001")
	require.NoError(t, err)
	assert.Equal(t, SearchLoaded, flow.State())
	assert.True(t, sess.Snapshot().IsEditMode)
}
