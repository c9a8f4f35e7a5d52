package refdata

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/propiter/FormGodoy/internal/models"
)

// Las celdas llegan del Apps Script como JSON sin tipar: strings, números
// (float64) o null. Estos helpers centralizan la conversión.

func cellString(row []any, idx int) string {
	if idx >= len(row) || row[idx] == nil {
		return ""
	}
	switch v := row[idx].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		// Ids numéricos en la hoja: sin decimales espurios.
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

// cellInt devuelve la cantidad de la celda. Una celda no numérica es una
// condición de calidad de datos, no un pánico: devuelve 0 (que nunca pasa
// la validación de línea) y ok=false para que el llamante lo registre.
func cellInt(row []any, idx int) (int, bool) {
	if idx >= len(row) || row[idx] == nil {
		return 0, false
	}
	switch v := row[idx].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// blankFirstCell indica si la fila debe ignorarse (primera celda vacía).
func blankFirstCell(row []any) bool {
	return cellString(row, 0) == ""
}

// mapClients convierte las filas de CLIENTES. Columnas: [cif, nombre,
// dirección, teléfono, email]. El CIF se normaliza a mayúsculas.
func mapClients(rows [][]any) []models.Client {
	clients := make([]models.Client, 0, len(rows))
	for _, row := range rows {
		if blankFirstCell(row) {
			continue
		}
		clients = append(clients, models.Client{
			CIF:     models.NormalizeCIF(cellString(row, 0)),
			Name:    cellString(row, 1),
			Address: cellString(row, 2),
			Phone:   cellString(row, 3),
			Email:   cellString(row, 4),
		})
	}
	return clients
}

// mapProducts convierte las filas de PRODUCTOS. Columnas: [id, nombre,
// categoría]. Sin categoría -> centinela OTROS.
func mapProducts(rows [][]any) []models.Product {
	products := make([]models.Product, 0, len(rows))
	for _, row := range rows {
		if blankFirstCell(row) {
			continue
		}
		category := cellString(row, 2)
		if category == "" {
			category = models.DefaultCategory
		}
		products = append(products, models.Product{
			ID:       cellString(row, 0),
			Name:     cellString(row, 1),
			Category: category,
		})
	}
	return products
}

// mapPalets convierte las filas de PALETS. Columnas: [id, nombre].
func mapPalets(rows [][]any) []models.Palet {
	palets := make([]models.Palet, 0, len(rows))
	for _, row := range rows {
		if blankFirstCell(row) {
			continue
		}
		palets = append(palets, models.Palet{
			ID:   cellString(row, 0),
			Name: cellString(row, 1),
		})
	}
	return palets
}

// mapCajas convierte las filas de CAJAS. Columnas: [id, nombre].
func mapCajas(rows [][]any) []models.Caja {
	cajas := make([]models.Caja, 0, len(rows))
	for _, row := range rows {
		if blankFirstCell(row) {
			continue
		}
		cajas = append(cajas, models.Caja{
			ID:   cellString(row, 0),
			Name: cellString(row, 1),
		})
	}
	return cajas
}

// masters son los índices por nombre (case-insensitive) de las listas
// maestras, usados para reconstruir referencias al leer PEDIDOS: la hoja
// solo guarda nombres, no identificadores.
type masters struct {
	products map[string]models.Product
	palets   map[string]models.Palet
	cajas    map[string]models.Caja
}

func buildMasters(products []models.Product, palets []models.Palet, cajas []models.Caja) masters {
	m := masters{
		products: make(map[string]models.Product, len(products)),
		palets:   make(map[string]models.Palet, len(palets)),
		cajas:    make(map[string]models.Caja, len(cajas)),
	}
	for _, p := range products {
		m.products[strings.ToLower(p.Name)] = p
	}
	for _, p := range palets {
		m.palets[strings.ToLower(p.Name)] = p
	}
	for _, c := range cajas {
		m.cajas[strings.ToLower(c.Name)] = c
	}
	return m
}

// mapOrders agrupa las filas de PEDIDOS por (nº recepción, CIF) en orden de
// aparición. La primera fila de cada grupo aporta los campos de cabecera.
//
// Enriquecimiento por nombre: los ids de producto/palet/caja se resuelven
// contra las listas maestras recién cargadas. Una referencia sin resolver NO
// descarta la línea: se conserva con id (y categoría) en blanco y se emite
// un diagnóstico. Así un pedido histórico sigue siendo visible aunque el
// catálogo haya cambiado.
func mapOrders(rows [][]any, m masters, logger *zap.Logger) []models.Order {
	index := make(map[string]*models.Order)
	keys := make([]string, 0)

	for _, row := range rows {
		if blankFirstCell(row) {
			continue
		}

		receptionNumber := cellString(row, 0)
		clientCIF := models.NormalizeCIF(cellString(row, 1))
		key := receptionNumber + "_" + clientCIF

		line := resolveLine(row, m, logger, receptionNumber)

		if order, ok := index[key]; ok {
			order.Products = append(order.Products, line)
			continue
		}

		index[key] = &models.Order{
			ReceptionNumber: receptionNumber,
			ClientCIF:       clientCIF,
			ClientName:      cellString(row, 2),
			Products:        []models.ProductLine{line},
			Status:          models.ParseStatus(cellString(row, 8)),
			OrderNumber:     cellString(row, 9),
			Provider:        cellString(row, 10),
			CreatedAt:       cellString(row, 11),
		}
		keys = append(keys, key)
	}

	orders := make([]models.Order, 0, len(keys))
	for _, key := range keys {
		orders = append(orders, *index[key])
	}
	return orders
}

func resolveLine(row []any, m masters, logger *zap.Logger, receptionNumber string) models.ProductLine {
	productName := cellString(row, 3)
	paletName := cellString(row, 4)
	cajaName := cellString(row, 6)

	line := models.ProductLine{
		Product: models.Product{Name: productName},
		Palet:   models.Palet{Name: paletName},
		Caja:    models.Caja{Name: cajaName},
	}

	if p, ok := m.products[strings.ToLower(productName)]; ok {
		line.Product = p
	} else if logger != nil {
		logger.Warn("producto de pedido sin correspondencia en el catálogo",
			zap.String("reception_number", receptionNumber),
			zap.String("product_name", productName),
		)
	}
	if p, ok := m.palets[strings.ToLower(paletName)]; ok {
		line.Palet = p
	} else if logger != nil {
		logger.Warn("palet de pedido sin correspondencia en el catálogo",
			zap.String("reception_number", receptionNumber),
			zap.String("palet_name", paletName),
		)
	}
	if c, ok := m.cajas[strings.ToLower(cajaName)]; ok {
		line.Caja = c
	} else if logger != nil {
		logger.Warn("caja de pedido sin correspondencia en el catálogo",
			zap.String("reception_number", receptionNumber),
			zap.String("caja_name", cajaName),
		)
	}

	var ok bool
	if line.PaletQuantity, ok = cellInt(row, 5); !ok && logger != nil {
		logger.Warn("cantidad de palets no numérica",
			zap.String("reception_number", receptionNumber),
			zap.String("raw", cellString(row, 5)),
		)
	}
	if line.CajaQuantity, ok = cellInt(row, 7); !ok && logger != nil {
		logger.Warn("cantidad de cajas no numérica",
			zap.String("reception_number", receptionNumber),
			zap.String("raw", cellString(row, 7)),
		)
	}

	return line
}
