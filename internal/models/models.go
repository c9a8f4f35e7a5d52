package models

import "strings"

// Client representa una fila de la hoja CLIENTES.
// El CIF es la clave única, siempre normalizado (trim + mayúsculas).
type Client struct {
	CIF     string `json:"cif"`
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
}

// Product representa una fila de la hoja PRODUCTOS.
type Product struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
}

// DefaultCategory es el valor centinela cuando la hoja no trae categoría.
const DefaultCategory = "OTROS"

// Palet representa una fila de la hoja PALETS.
type Palet struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Caja representa una fila de la hoja CAJAS.
type Caja struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ProductLine es una línea de pedido: producto × palet × caja con cantidades.
// No tiene identidad propia; su posición dentro del pedido es su único handle.
type ProductLine struct {
	Product       Product `json:"product"`
	Palet         Palet   `json:"palet"`
	PaletQuantity int     `json:"paletQuantity"`
	Caja          Caja    `json:"caja"`
	CajaQuantity  int     `json:"cajaQuantity"`
}

// Valid exige producto, palet y caja seleccionados y ambas cantidades >= 1.
func (l ProductLine) Valid() bool {
	return l.Product.Name != "" &&
		l.Palet.Name != "" &&
		l.Caja.Name != "" &&
		l.PaletQuantity >= 1 &&
		l.CajaQuantity >= 1
}

// Order agrupa las filas de la hoja PEDIDOS que comparten
// (receptionNumber, clientCIF). Una fila física por línea de producto.
type Order struct {
	ReceptionNumber string        `json:"receptionNumber"`
	ClientCIF       string        `json:"clientCIF"`
	ClientName      string        `json:"clientName"`
	Products        []ProductLine `json:"products"`
	Status          Status        `json:"status"`
	OrderNumber     string        `json:"orderNumber"`
	Provider        string        `json:"provider"`
	CreatedAt       string        `json:"createdAt"`
}

// Rows serializa el pedido al formato de 12 columnas de la hoja PEDIDOS,
// una fila por línea de producto. El orden de columnas es contrato con el
// Apps Script y debe coincidir en lectura y escritura.
func (o Order) Rows() [][]any {
	rows := make([][]any, 0, len(o.Products))
	for _, line := range o.Products {
		rows = append(rows, []any{
			o.ReceptionNumber,  // N SOLICITUD
			o.ClientCIF,        // CIF_CLIENTE
			o.ClientName,       // NOMBRE_CLIENTE
			line.Product.Name,  // PRODUCTOS
			line.Palet.Name,    // PALET
			line.PaletQuantity, // CANT (palets)
			line.Caja.Name,     // CAJAS
			line.CajaQuantity,  // CANT (cajas)
			string(o.Status),   // Status
			o.OrderNumber,      // N Pedido
			o.Provider,         // Proveedor
			o.CreatedAt,        // Fecha
		})
	}
	return rows
}

// NormalizeCIF aplica la normalización canónica de CIFs: trim + mayúsculas.
func NormalizeCIF(cif string) string {
	return strings.ToUpper(strings.TrimSpace(cif))
}
