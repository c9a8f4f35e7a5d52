// Package lineform captura y valida una línea de pedido candidata antes de
// entregársela a la sesión. Es independiente del estado del pedido: solo
// necesita el catálogo para resolver las selecciones.
package lineform

import (
	"strconv"
	"strings"

	"github.com/propiter/FormGodoy/internal/models"
)

// Catalog es lo que el formulario necesita del repositorio de referencia.
type Catalog interface {
	Products() []models.Product
	Palets() []models.Palet
	Cajas() []models.Caja
}

// Form es el estado del formulario tal como lo teclea el usuario: las
// cantidades se guardan como texto y solo se coercen a número al validar.
type Form struct {
	ProductID     string `json:"productId"`
	PaletID       string `json:"paletId"`
	PaletQuantity string `json:"paletQuantity"`
	CajaID        string `json:"cajaId"`
	CajaQuantity  string `json:"cajaQuantity"`
	Category      string `json:"category,omitempty"`
}

// Errors marca los campos inválidos del formulario.
type Errors struct {
	Product       bool `json:"product"`
	Palet         bool `json:"palet"`
	PaletQuantity bool `json:"paletQuantity"`
	Caja          bool `json:"caja"`
	CajaQuantity  bool `json:"cajaQuantity"`
}

// Any indica si hay algún campo inválido.
func (e Errors) Any() bool {
	return e.Product || e.Palet || e.PaletQuantity || e.Caja || e.CajaQuantity
}

// parseQuantity coerce la entrada del usuario a entero. Vacío o no numérico
// vale 0, que nunca pasa la regla de cantidad mínima.
func parseQuantity(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0
	}
	return n
}

// Validate resuelve las selecciones contra el catálogo y aplica la regla de
// línea: producto, palet y caja seleccionados y ambas cantidades >= 1.
// Devuelve la línea construida solo cuando no hay errores.
func (f Form) Validate(catalog Catalog) (models.ProductLine, Errors) {
	var errs Errors
	var line models.ProductLine

	product, okProduct := findProduct(catalog.Products(), f.ProductID)
	palet, okPalet := findPalet(catalog.Palets(), f.PaletID)
	caja, okCaja := findCaja(catalog.Cajas(), f.CajaID)

	paletQty := parseQuantity(f.PaletQuantity)
	cajaQty := parseQuantity(f.CajaQuantity)

	errs.Product = !okProduct
	errs.Palet = !okPalet
	errs.Caja = !okCaja
	errs.PaletQuantity = paletQty < 1
	errs.CajaQuantity = cajaQty < 1

	if errs.Any() {
		return models.ProductLine{}, errs
	}

	line = models.ProductLine{
		Product:       product,
		Palet:         palet,
		PaletQuantity: paletQty,
		Caja:          caja,
		CajaQuantity:  cajaQty,
	}
	return line, errs
}

// SelectCategory fija el filtro de categoría. Si el producto elegido deja
// de pertenecer a la categoría activa, la selección de producto se limpia:
// categoría y producto nunca quedan inconsistentes.
func (f *Form) SelectCategory(category string, catalog Catalog) {
	f.Category = category
	if f.ProductID == "" || category == "" {
		return
	}
	if product, ok := findProduct(catalog.Products(), f.ProductID); ok {
		if product.Category != category {
			f.ProductID = ""
		}
	}
}

// FilteredProducts devuelve los productos de la categoría activa, o todos
// si no hay filtro. La comparación es por igualdad exacta.
func (f Form) FilteredProducts(catalog Catalog) []models.Product {
	products := catalog.Products()
	if f.Category == "" {
		return products
	}
	filtered := make([]models.Product, 0, len(products))
	for _, p := range products {
		if p.Category == f.Category {
			filtered = append(filtered, p)
		}
	}
	return filtered
}

func findProduct(products []models.Product, id string) (models.Product, bool) {
	if id == "" {
		return models.Product{}, false
	}
	for _, p := range products {
		if p.ID == id {
			return p, true
		}
	}
	return models.Product{}, false
}

func findPalet(palets []models.Palet, id string) (models.Palet, bool) {
	if id == "" {
		return models.Palet{}, false
	}
	for _, p := range palets {
		if p.ID == id {
			return p, true
		}
	}
	return models.Palet{}, false
}

func findCaja(cajas []models.Caja, id string) (models.Caja, bool) {
	if id == "" {
		return models.Caja{}, false
	}
	for _, c := range cajas {
		if c.ID == id {
			return c, true
		}
	}
	return models.Caja{}, false
}
