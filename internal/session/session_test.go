package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/propiter/FormGodoy/internal/models"
)

func testClient() *models.Client {
	return &models.Client{
		CIF:     "B123",
		Name:    "Frutas Pérez",
		Address: "Calle Mayor 1",
		Phone:   "600111222",
		Email:   "pedidos@perez.es",
	}
}

func line(productName string) models.ProductLine {
	return models.ProductLine{
		Product:       models.Product{ID: "P-" + productName, Name: productName, Category: "ROJO"},
		Palet:         models.Palet{ID: "PL1", Name: "Palet Europeo"},
		PaletQuantity: 1,
		Caja:          models.Caja{ID: "C1", Name: "Caja 10kg"},
		CajaQuantity:  1,
	}
}

func newTestSession() *Session {
	return New(&fakeStore{}, &fakeSender{}, zap.NewNop())
}

func TestAddLineKeepsDuplicates(t *testing.T) {
	s := newTestSession()
	s.AddLine(line("Tomate Pera"))
	s.AddLine(line("Tomate Pera"))

	state := s.Snapshot()
	assert.Len(t, state.ProductLines, 2)
}

// Eliminar una línea desplaza las posteriores: el índice 1 pasa a ser la
// que era tercera, y una actualización posterior sobre 1 la toca a ella.
func TestRemoveLineShiftsIndexes(t *testing.T) {
	s := newTestSession()
	s.AddLine(line("Primera"))
	s.AddLine(line("Segunda"))
	s.AddLine(line("Tercera"))

	require.NoError(t, s.RemoveLine(1))

	state := s.Snapshot()
	require.Len(t, state.ProductLines, 2)
	assert.Equal(t, "Primera", state.ProductLines[0].Product.Name)
	assert.Equal(t, "Tercera", state.ProductLines[1].Product.Name)

	require.NoError(t, s.UpdateLine(1, line("Tercera Editada")))
	state = s.Snapshot()
	assert.Equal(t, "Tercera Editada", state.ProductLines[1].Product.Name)
}

func TestLineIndexOutOfRange(t *testing.T) {
	s := newTestSession()
	s.AddLine(line("Única"))

	assert.Error(t, s.UpdateLine(1, line("X")))
	assert.Error(t, s.UpdateLine(-1, line("X")))
	assert.Error(t, s.RemoveLine(5))

	// El estado no cambia tras los rechazos.
	state := s.Snapshot()
	require.Len(t, state.ProductLines, 1)
	assert.Equal(t, "Única", state.ProductLines[0].Product.Name)
}

// ClearOrder resetea la composición pero no el recibo de confirmación:
// ese pertenece a otro ciclo de vida.
func TestClearOrderKeepsReceipt(t *testing.T) {
	s := newTestSession()
	s.SetClient(testClient())
	s.AddLine(line("Tomate Pera"))
	s.lastOrderNumber = "REC-123456"
	s.showConfirmation = true

	s.ClearOrder()

	state := s.Snapshot()
	assert.Nil(t, state.Client)
	assert.Empty(t, state.ProductLines)
	assert.False(t, state.IsEditMode)
	assert.Empty(t, state.CurrentOrderNumber)
	assert.Equal(t, "REC-123456", state.LastOrderNumber)
	assert.True(t, state.ShowConfirmation)
}

func TestStartEditPrefersResolvedClient(t *testing.T) {
	s := newTestSession()
	order := models.Order{
		ReceptionNumber: "REC-000001",
		ClientCIF:       "B123",
		ClientName:      "Frutas Pérez",
		Products:        []models.ProductLine{line("Tomate Pera")},
		Status:          models.StatusPendiente,
	}

	s.StartEdit(order, testClient())

	state := s.Snapshot()
	assert.True(t, state.IsEditMode)
	assert.Equal(t, "REC-000001", state.CurrentOrderNumber)
	require.NotNil(t, state.Client)
	assert.Equal(t, "Calle Mayor 1", state.Client.Address)
	require.Len(t, state.ProductLines, 1)

	previous, ok := s.PreviousOrder()
	require.True(t, ok)
	assert.Equal(t, "REC-000001", previous.ReceptionNumber)
}

// Sin cliente resoluble, los campos desnormalizados del pedido bastan para
// CIF y nombre; el resto queda vacío.
func TestStartEditFallsBackToDenormalizedClient(t *testing.T) {
	s := newTestSession()
	order := models.Order{
		ReceptionNumber: "REC-000002",
		ClientCIF:       "B456",
		ClientName:      "Verduras López",
		Products:        []models.ProductLine{line("Lechuga Romana")},
	}

	s.StartEdit(order, nil)

	state := s.Snapshot()
	require.NotNil(t, state.Client)
	assert.Equal(t, "B456", state.Client.CIF)
	assert.Equal(t, "Verduras López", state.Client.Name)
	assert.Empty(t, state.Client.Address)
	assert.Empty(t, state.Client.Phone)
	assert.Empty(t, state.Client.Email)
}

// El snapshot pre-edición no comparte el slice de líneas con la sesión:
// editar líneas no puede corromper el previousOrder que viaja al webhook.
func TestStartEditSnapshotIsIsolated(t *testing.T) {
	s := newTestSession()
	order := models.Order{
		ReceptionNumber: "REC-000003",
		ClientCIF:       "B123",
		Products:        []models.ProductLine{line("Original")},
	}
	s.StartEdit(order, nil)

	require.NoError(t, s.UpdateLine(0, line("Cambiada")))

	previous, ok := s.PreviousOrder()
	require.True(t, ok)
	assert.Equal(t, "Original", previous.Products[0].Product.Name)
}

func TestManagerSessionsAreIndependent(t *testing.T) {
	m := NewManager(&fakeStore{}, &fakeSender{}, zap.NewNop())

	id1, s1 := m.Create()
	id2, s2 := m.Create()
	require.NotEqual(t, id1, id2)

	s1.AddLine(line("Solo en la primera"))
	assert.Len(t, s1.Snapshot().ProductLines, 1)
	assert.Empty(t, s2.Snapshot().ProductLines)

	got, ok := m.Get(id1)
	require.True(t, ok)
	assert.Same(t, s1, got)

	m.Remove(id1)
	_, ok = m.Get(id1)
	assert.False(t, ok)
	assert.Equal(t, 1, m.Len())
}
