// Package session contiene el estado mutable del pedido en composición o
// edición y los dos algoritmos de envío (alta directa contra la hoja y
// actualización vía webhook). Cada sesión pertenece en exclusiva a un flujo
// de UI; el mutex solo protege contra el acceso concurrente del servidor.
package session

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/propiter/FormGodoy/internal/apperrors"
	"github.com/propiter/FormGodoy/internal/models"
)

// Store es lo que la sesión necesita del gateway de sheets.
type Store interface {
	AppendRows(ctx context.Context, rng string, values [][]any) error
	DeleteOrderRows(ctx context.Context, receptionNumber, clientCIF string) error
}

// UpdateSender es lo que la sesión necesita del webhook de actualización.
type UpdateSender interface {
	SendUpdate(ctx context.Context, previous, updated models.Order) error
}

// Session es la máquina de estados de un pedido activo.
type Session struct {
	store  Store
	sender UpdateSender
	logger *zap.Logger

	mu                 sync.Mutex
	client             *models.Client
	productLines       []models.ProductLine
	isEditMode         bool
	currentOrderNumber string
	previousOrder      *models.Order // snapshot pre-edición, viaja en el webhook
	lastOrderNumber    string
	showConfirmation   bool
}

// State es la vista inmutable de la sesión que consumen handlers y tests.
type State struct {
	Client             *models.Client       `json:"client"`
	ProductLines       []models.ProductLine `json:"productLines"`
	IsEditMode         bool                 `json:"isEditMode"`
	CurrentOrderNumber string               `json:"currentOrderNumber,omitempty"`
	LastOrderNumber    string               `json:"lastOrderNumber,omitempty"`
	ShowConfirmation   bool                 `json:"showConfirmation"`
}

// New crea una sesión vacía.
func New(store Store, sender UpdateSender, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.L()
	}
	return &Session{
		store:  store,
		sender: sender,
		logger: logger,
	}
}

// SetClient reemplaza el cliente seleccionado sin tocar las líneas.
func (s *Session) SetClient(client *models.Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.client = client
}

// AddLine añade la línea al final. No hay deduplicación: dos líneas del
// mismo producto son entradas distintas.
func (s *Session) AddLine(line models.ProductLine) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.productLines = append(s.productLines, line)
}

// UpdateLine reemplaza la línea en la posición dada. La posición es el único
// identificador de la línea; fuera de rango es error, no pánico.
func (s *Session) UpdateLine(index int, line models.ProductLine) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.productLines) {
		return apperrors.ErrValidation("índice de línea fuera de rango")
	}
	s.productLines[index] = line
	return nil
}

// RemoveLine elimina la línea en la posición dada. Las posteriores bajan una
// posición: cualquier índice que el llamante guardara queda invalidado y
// debe rederivarse.
func (s *Session) RemoveLine(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.productLines) {
		return apperrors.ErrValidation("índice de línea fuera de rango")
	}
	s.productLines = append(s.productLines[:index], s.productLines[index+1:]...)
	return nil
}

// ClearOrder resetea cliente, líneas y modo edición. No toca
// lastOrderNumber ni showConfirmation: el recibo de confirmación tiene su
// propio ciclo de vida.
func (s *Session) ClearOrder() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearOrderLocked()
}

func (s *Session) clearOrderLocked() {
	s.client = nil
	s.productLines = nil
	s.isEditMode = false
	s.currentOrderNumber = ""
	s.previousOrder = nil
}

// StartEdit entra en modo edición sobre el pedido dado y guarda su snapshot
// pre-edición. Si el repositorio pudo resolver el cliente completo se usa
// ese; los campos desnormalizados del pedido son un sustituto de menor
// fidelidad (solo CIF y nombre).
func (s *Session) StartEdit(order models.Order, resolved *models.Client) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := order
	snapshot.Products = append([]models.ProductLine(nil), order.Products...)

	s.isEditMode = true
	s.currentOrderNumber = order.ReceptionNumber
	s.previousOrder = &snapshot

	if resolved != nil {
		c := *resolved
		s.client = &c
	} else {
		s.client = &models.Client{
			CIF:  order.ClientCIF,
			Name: order.ClientName,
		}
	}

	s.productLines = append([]models.ProductLine(nil), order.Products...)
}

// CloseConfirmation cierra el recibo de confirmación del último alta.
func (s *Session) CloseConfirmation() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.showConfirmation = false
	s.lastOrderNumber = ""
}

// Snapshot devuelve una copia del estado actual.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := State{
		ProductLines:       append([]models.ProductLine(nil), s.productLines...),
		IsEditMode:         s.isEditMode,
		CurrentOrderNumber: s.currentOrderNumber,
		LastOrderNumber:    s.lastOrderNumber,
		ShowConfirmation:   s.showConfirmation,
	}
	if s.client != nil {
		c := *s.client
		state.Client = &c
	}
	return state
}

// PreviousOrder devuelve el snapshot pre-edición, si lo hay.
func (s *Session) PreviousOrder() (models.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.previousOrder == nil {
		return models.Order{}, false
	}
	return *s.previousOrder, true
}
