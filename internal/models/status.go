package models

import "strings"

// Status es el estado de negocio de un pedido tal como viene de la hoja.
// Los valores reconocidos están cerrados aquí; cualquier otro texto se
// conserva tal cual pero se trata como no editable.
type Status string

const (
	StatusPendiente  Status = "Pendiente"
	StatusSolicitado Status = "Solicitado"
	StatusFacturado  Status = "Facturado"
	StatusCancelado  Status = "Cancelado"
)

// ParseStatus normaliza el texto de la hoja a un Status. Vacío -> Pendiente.
func ParseStatus(raw string) Status {
	s := strings.TrimSpace(raw)
	if s == "" {
		return StatusPendiente
	}
	for _, known := range []Status{StatusPendiente, StatusSolicitado, StatusFacturado, StatusCancelado} {
		if strings.EqualFold(s, string(known)) {
			return known
		}
	}
	return Status(s)
}

// Editable indica si el pedido todavía admite cambios. Único punto de
// comparación de estados: el resto del código no compara literales.
func (s Status) Editable() bool {
	return strings.EqualFold(string(s), string(StatusPendiente)) ||
		strings.EqualFold(string(s), string(StatusSolicitado))
}
