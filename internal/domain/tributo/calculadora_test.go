package tributo_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kipu-ec/kipu-api/internal/domain"
	"github.com/kipu-ec/kipu-api/internal/domain/tributo"
)

// ──────────────────────────────────────────────────────────────────────────────
// Caso de referencia: una línea {cantidad: 1, precioUnitario: 100, tarifa: 15}
// debe producir subtotal 100.00, IVA 15.00 e importe total 115.00.
// ──────────────────────────────────────────────────────────────────────────────

func lineaSimple() tributo.Linea {
	return tributo.Linea{
		CodigoPrincipal: "SRV-001",
		Descripcion:     "Servicio de consultoría",
		Cantidad:        decimal.NewFromInt(1),
		PrecioUnitario:  decimal.NewFromInt(100),
		TarifaIVA:       decimal.NewFromInt(15),
	}
}

func TestCalcular_CasoReferencia(t *testing.T) {
	calc := tributo.NewCalculadora(false)

	res, err := calc.Calcular([]tributo.Linea{lineaSimple()})
	require.NoError(t, err)

	assert.Equal(t, "100.00", tributo.Formato2(res.Totales.TotalSinImpuestos))
	assert.Equal(t, "15.00", tributo.Formato2(res.Totales.ValorIVA))
	assert.Equal(t, "115.00", tributo.Formato2(res.Totales.ImporteTotal))
	assert.Equal(t, "100.00", tributo.Formato2(res.Totales.SubtotalIVA))
	assert.Equal(t, "0.00", tributo.Formato2(res.Totales.Subtotal0))

	require.Len(t, res.Detalles, 1)
	assert.Equal(t, "4", res.Detalles[0].CodigoPorcentaje, "tarifa 15 es código de porcentaje 4")

	require.Len(t, res.Impuestos, 1)
	assert.Equal(t, tributo.CodigoImpuestoIVA, res.Impuestos[0].Codigo)
	assert.Equal(t, "100.00", tributo.Formato2(res.Impuestos[0].BaseImponible))
	assert.Equal(t, "15.00", tributo.Formato2(res.Impuestos[0].Valor))
}

// TestCalcular_TarifaFraccionaria verifica la normalización 0.15 → 15.
func TestCalcular_TarifaFraccionaria(t *testing.T) {
	calc := tributo.NewCalculadora(false)

	l := lineaSimple()
	l.TarifaIVA = decimal.NewFromFloat(0.15)

	res, err := calc.Calcular([]tributo.Linea{l})
	require.NoError(t, err)
	assert.Equal(t, "15", res.Detalles[0].TarifaNormalizada.String())
	assert.Equal(t, "15.00", tributo.Formato2(res.Totales.ValorIVA))
}

// TestCalcular_AgregaPorTarifa verifica que líneas con la misma tarifa se
// acumulan en una sola fila y que los agregados salen ordenados por tarifa.
func TestCalcular_AgregaPorTarifa(t *testing.T) {
	calc := tributo.NewCalculadora(false)

	d15a := lineaSimple()
	d15b := lineaSimple()
	d15b.PrecioUnitario = decimal.NewFromInt(50)
	d0 := lineaSimple()
	d0.TarifaIVA = decimal.Zero
	d0.PrecioUnitario = decimal.NewFromInt(30)

	res, err := calc.Calcular([]tributo.Linea{d15a, d0, d15b})
	require.NoError(t, err)

	require.Len(t, res.Impuestos, 2)
	assert.Equal(t, "0", res.Impuestos[0].CodigoPorcentaje, "la tarifa 0 va primero")
	assert.Equal(t, "30.00", tributo.Formato2(res.Impuestos[0].BaseImponible))
	assert.Equal(t, "4", res.Impuestos[1].CodigoPorcentaje)
	assert.Equal(t, "150.00", tributo.Formato2(res.Impuestos[1].BaseImponible))
	assert.Equal(t, "22.50", tributo.Formato2(res.Impuestos[1].Valor))

	assert.Equal(t, "30.00", tributo.Formato2(res.Totales.Subtotal0))
	assert.Equal(t, "150.00", tributo.Formato2(res.Totales.SubtotalIVA))
	assert.Equal(t, "180.00", tributo.Formato2(res.Totales.TotalSinImpuestos))
	assert.Equal(t, "202.50", tributo.Formato2(res.Totales.ImporteTotal))
}

// TestCalcular_PropiedadesDeTotales comprueba las identidades contables sobre
// un juego de líneas con descuentos y cantidades fraccionarias:
// importeTotal = totalSinImpuestos + IVA y subtotal0 + subtotalIVA = total.
func TestCalcular_PropiedadesDeTotales(t *testing.T) {
	calc := tributo.NewCalculadora(false)

	lineas := []tributo.Linea{
		{Cantidad: decimal.NewFromFloat(2.5), PrecioUnitario: decimal.NewFromFloat(19.99), Descuento: decimal.NewFromFloat(5.01), TarifaIVA: decimal.NewFromInt(15)},
		{Cantidad: decimal.NewFromInt(3), PrecioUnitario: decimal.NewFromFloat(0.33), TarifaIVA: decimal.NewFromInt(12)},
		{Cantidad: decimal.NewFromInt(1), PrecioUnitario: decimal.NewFromFloat(7.77), TarifaIVA: decimal.Zero},
		{Cantidad: decimal.NewFromFloat(0.5), PrecioUnitario: decimal.NewFromInt(120), Descuento: decimal.NewFromInt(10), TarifaIVA: decimal.NewFromInt(5)},
	}

	res, err := calc.Calcular(lineas)
	require.NoError(t, err)

	suma := decimal.Zero
	for _, d := range res.Detalles {
		suma = suma.Add(d.ValorIVA)
	}
	assert.True(t, res.Totales.ValorIVA.Equal(suma), "IVA total = suma de IVA por línea")

	esperado := res.Totales.TotalSinImpuestos.Add(res.Totales.ValorIVA)
	assert.True(t, res.Totales.ImporteTotal.Equal(esperado), "importe total = subtotal + IVA")

	bases := res.Totales.Subtotal0.Add(res.Totales.SubtotalIVA)
	assert.True(t, res.Totales.TotalSinImpuestos.Equal(bases), "subtotal 0 + subtotal IVA = total sin impuestos")

	assert.Equal(t, "15.01", tributo.Formato2(res.Totales.TotalDescuento))
}

// ── Tarifas fuera de tabla ────────────────────────────────────────────────────

func TestCalcular_TarifaDesconocidaEsError(t *testing.T) {
	calc := tributo.NewCalculadora(false)

	l := lineaSimple()
	l.TarifaIVA = decimal.NewFromInt(8)

	_, err := calc.Calcular([]tributo.Linea{l})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidacion)
	assert.Contains(t, err.Error(), "tarifa IVA no soportada")
}

func TestCalcular_TarifaDesconocidaTolerante(t *testing.T) {
	calc := tributo.NewCalculadora(true)

	l := lineaSimple()
	l.TarifaIVA = decimal.NewFromInt(8)

	res, err := calc.Calcular([]tributo.Linea{l})
	require.NoError(t, err)
	assert.Equal(t, "0", res.Detalles[0].CodigoPorcentaje, "en modo tolerante degrada a la fila del 0")
	assert.Equal(t, "0.00", tributo.Formato2(res.Totales.ValorIVA))
	assert.Equal(t, "100.00", tributo.Formato2(res.Totales.Subtotal0))
}

// ── Validaciones de línea ─────────────────────────────────────────────────────

func TestCalcular_Validaciones(t *testing.T) {
	calc := tributo.NewCalculadora(false)

	t.Run("sin líneas", func(t *testing.T) {
		_, err := calc.Calcular(nil)
		assert.ErrorIs(t, err, domain.ErrValidacion)
	})

	t.Run("cantidad cero", func(t *testing.T) {
		l := lineaSimple()
		l.Cantidad = decimal.Zero
		_, err := calc.Calcular([]tributo.Linea{l})
		assert.ErrorIs(t, err, domain.ErrValidacion)
	})

	t.Run("precio negativo", func(t *testing.T) {
		l := lineaSimple()
		l.PrecioUnitario = decimal.NewFromInt(-1)
		_, err := calc.Calcular([]tributo.Linea{l})
		assert.ErrorIs(t, err, domain.ErrValidacion)
	})

	t.Run("descuento mayor que subtotal", func(t *testing.T) {
		l := lineaSimple()
		l.Descuento = decimal.NewFromInt(101)
		_, err := calc.Calcular([]tributo.Linea{l})
		assert.ErrorIs(t, err, domain.ErrValidacion)
	})
}

// TestFormato2_RedondeoMitadFueraDeCero documenta la regla de redondeo del
// formateo: 2.345 → 2.35 y -2.345 → -2.35.
func TestFormato2_RedondeoMitadFueraDeCero(t *testing.T) {
	assert.Equal(t, "2.35", tributo.Formato2(decimal.NewFromFloat(2.345)))
	assert.Equal(t, "-2.35", tributo.Formato2(decimal.NewFromFloat(-2.345)))
	assert.Equal(t, "1.00", tributo.Formato2(decimal.NewFromInt(1)))
}
