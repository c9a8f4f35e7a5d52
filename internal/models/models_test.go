package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validLine() ProductLine {
	return ProductLine{
		Product:       Product{ID: "P1", Name: "Tomate Pera", Category: "ROJO"},
		Palet:         Palet{ID: "PL1", Name: "Palet Europeo"},
		PaletQuantity: 2,
		Caja:          Caja{ID: "C1", Name: "Caja 10kg"},
		CajaQuantity:  5,
	}
}

func TestProductLineValid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ProductLine)
		want   bool
	}{
		{"línea completa", func(l *ProductLine) {}, true},
		{"sin producto", func(l *ProductLine) { l.Product = Product{} }, false},
		{"sin palet", func(l *ProductLine) { l.Palet = Palet{} }, false},
		{"sin caja", func(l *ProductLine) { l.Caja = Caja{} }, false},
		{"cantidad de palets cero", func(l *ProductLine) { l.PaletQuantity = 0 }, false},
		{"cantidad de cajas cero", func(l *ProductLine) { l.CajaQuantity = 0 }, false},
		{"cantidad negativa", func(l *ProductLine) { l.PaletQuantity = -3 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := validLine()
			tt.mutate(&line)
			assert.Equal(t, tt.want, line.Valid())
		})
	}
}

// La cantidad de palets a 0 invalida la línea aunque todo lo demás sea válido.
func TestProductLineZeroPaletQuantityAlwaysInvalid(t *testing.T) {
	line := validLine()
	line.PaletQuantity = 0
	assert.False(t, line.Valid())
}

func TestStatusEditable(t *testing.T) {
	assert.True(t, StatusPendiente.Editable())
	assert.True(t, StatusSolicitado.Editable())
	assert.True(t, Status("pendiente").Editable())
	assert.True(t, Status("SOLICITADO").Editable())
	assert.False(t, StatusFacturado.Editable())
	assert.False(t, StatusCancelado.Editable())
	assert.False(t, Status("Entregado").Editable())
	assert.False(t, Status("").Editable())
}

func TestParseStatus(t *testing.T) {
	assert.Equal(t, StatusPendiente, ParseStatus(""))
	assert.Equal(t, StatusPendiente, ParseStatus("  pendiente "))
	assert.Equal(t, StatusSolicitado, ParseStatus("Solicitado"))
	assert.Equal(t, StatusFacturado, ParseStatus("FACTURADO"))
	assert.Equal(t, Status("Entregado"), ParseStatus("Entregado"))
}

func TestOrderRows(t *testing.T) {
	order := Order{
		ReceptionNumber: "REC-123456",
		ClientCIF:       "B123",
		ClientName:      "Frutas Pérez",
		Products:        []ProductLine{validLine(), validLine()},
		Status:          StatusPendiente,
		OrderNumber:     "",
		Provider:        "",
		CreatedAt:       "01/02/2026 10:30:00",
	}

	rows := order.Rows()
	require.Len(t, rows, 2)

	for _, row := range rows {
		require.Len(t, row, 12)
		assert.Equal(t, "REC-123456", row[0])
		assert.Equal(t, "B123", row[1])
		assert.Equal(t, "Frutas Pérez", row[2])
		assert.Equal(t, "Tomate Pera", row[3])
		assert.Equal(t, "Palet Europeo", row[4])
		assert.Equal(t, 2, row[5])
		assert.Equal(t, "Caja 10kg", row[6])
		assert.Equal(t, 5, row[7])
		assert.Equal(t, "Pendiente", row[8])
		assert.Equal(t, "", row[9])
		assert.Equal(t, "", row[10])
		assert.Equal(t, "01/02/2026 10:30:00", row[11])
	}
}

func TestNormalizeCIF(t *testing.T) {
	assert.Equal(t, "B123", NormalizeCIF(" b123 "))
	assert.Equal(t, "A98765432", NormalizeCIF("a98765432"))
	assert.Equal(t, "", NormalizeCIF("   "))
}
