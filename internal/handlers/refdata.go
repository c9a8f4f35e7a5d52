package handlers

import (
	"net/http"

	"github.com/propiter/FormGodoy/internal/apperrors"
	"github.com/propiter/FormGodoy/internal/models"
)

// CatalogResponse es el volcado de las listas maestras para los selectores.
type CatalogResponse struct {
	Products   []models.Product `json:"products"`
	Palets     []models.Palet   `json:"palets"`
	Cajas      []models.Caja    `json:"cajas"`
	Categories []string         `json:"categories"`
	Loading    bool             `json:"loading"`
	LastError  string           `json:"lastError,omitempty"`
}

// Catalog devuelve las listas maestras de la última carga.
func (h *Handler) Catalog(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, CatalogResponse{
		Products:   h.repo.Products(),
		Palets:     h.repo.Palets(),
		Cajas:      h.repo.Cajas(),
		Categories: h.repo.Categories(),
		Loading:    h.repo.Loading(),
		LastError:  h.repo.LastError(),
	})
}

// RefreshData relanza la carga completa de datos de referencia. Las cargas
// solapadas se rechazan por la puerta de loading, no se cancelan.
func (h *Handler) RefreshData(w http.ResponseWriter, r *http.Request) {
	if h.repo.Loading() {
		h.writeError(w, r, apperrors.ErrValidation("Ya hay una carga en curso."))
		return
	}
	if err := h.repo.LoadAll(r.Context()); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]bool{"reloaded": true})
}

// FindClient busca un cliente por CIF (insensible a mayúsculas/espacios).
func (h *Handler) FindClient(w http.ResponseWriter, r *http.Request) {
	cif := r.PathValue("cif")
	client, ok := h.repo.FindClientByCIF(cif)
	if !ok {
		h.writeError(w, r, apperrors.ErrNotFound("No se encontró ningún cliente con ese CIF."))
		return
	}
	h.writeJSON(w, http.StatusOK, client)
}
