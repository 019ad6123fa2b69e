// Package tributo calcula los totales e impuestos de un comprobante según la
// tabla de tarifas de IVA vigente del SRI. La aritmética interna conserva la
// precisión completa de decimal; el redondeo a dos decimales ocurre solo al
// formatear para el XML y el RIDE.
package tributo

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/kipu-ec/kipu-api/internal/domain"
)

// CodigoImpuestoIVA es el código del impuesto IVA en la tabla 16 del SRI.
const CodigoImpuestoIVA = "2"

// codigosPorcentaje mapea la tarifa entera soportada a su código de
// porcentaje (tabla 17): 0% → 0, 5% → 5, 12% → 2, 15% → 4.
var codigosPorcentaje = map[string]string{
	"0":  "0",
	"5":  "5",
	"12": "2",
	"15": "4",
}

// Linea es un renglón del comprobante tal como lo envía el cliente, ya
// tipado y sin normalizar.
type Linea struct {
	CodigoPrincipal string
	Descripcion     string
	Cantidad        decimal.Decimal
	PrecioUnitario  decimal.Decimal
	Descuento       decimal.Decimal
	TarifaIVA       decimal.Decimal // admite 15 o 0.15
}

// DetalleCalculado es el renglón con su base imponible e IVA resueltos.
type DetalleCalculado struct {
	Linea
	TarifaNormalizada decimal.Decimal // siempre en puntos porcentuales
	CodigoPorcentaje  string
	BaseImponible     decimal.Decimal // cantidad×precio − descuento
	ValorIVA          decimal.Decimal
}

// AgregadoImpuesto es una fila de totalConImpuestos: base y valor acumulados
// por tarifa.
type AgregadoImpuesto struct {
	Codigo           string
	CodigoPorcentaje string
	Tarifa           decimal.Decimal
	BaseImponible    decimal.Decimal
	Valor            decimal.Decimal
}

// Totales es el resumen del comprobante.
type Totales struct {
	TotalSinImpuestos decimal.Decimal
	TotalDescuento    decimal.Decimal
	Subtotal0         decimal.Decimal // base gravada al 0%
	SubtotalIVA       decimal.Decimal // base gravada con tarifa > 0
	ValorIVA          decimal.Decimal
	ImporteTotal      decimal.Decimal
}

// Resultado agrupa las tres salidas del cálculo.
type Resultado struct {
	Detalles  []DetalleCalculado
	Impuestos []AgregadoImpuesto
	Totales   Totales
}

// Calculadora normaliza líneas y agrega impuestos. Con Tolerante en true una
// tarifa fuera de tabla degrada a la fila del 0% en lugar de fallar; el modo
// estricto es el predeterminado del servicio.
type Calculadora struct {
	Tolerante bool
}

// NewCalculadora crea la calculadora con la política de tarifas indicada.
func NewCalculadora(tolerante bool) *Calculadora {
	return &Calculadora{Tolerante: tolerante}
}

// Calcular procesa las líneas y devuelve detalles, agregados por tarifa y
// totales. Es determinista: los agregados salen ordenados por tarifa
// ascendente.
func (c *Calculadora) Calcular(lineas []Linea) (*Resultado, error) {
	if len(lineas) == 0 {
		return nil, fmt.Errorf("%w: el comprobante debe tener al menos una línea", domain.ErrValidacion)
	}

	res := &Resultado{Detalles: make([]DetalleCalculado, 0, len(lineas))}
	porTarifa := make(map[string]*AgregadoImpuesto)

	for i, l := range lineas {
		if l.Cantidad.Sign() <= 0 {
			return nil, fmt.Errorf("%w: línea %d: cantidad debe ser positiva", domain.ErrValidacion, i+1)
		}
		if l.PrecioUnitario.Sign() < 0 {
			return nil, fmt.Errorf("%w: línea %d: precio unitario negativo", domain.ErrValidacion, i+1)
		}
		if l.Descuento.Sign() < 0 {
			return nil, fmt.Errorf("%w: línea %d: descuento negativo", domain.ErrValidacion, i+1)
		}

		tarifa, codigo, err := c.normalizarTarifa(l.TarifaIVA)
		if err != nil {
			return nil, fmt.Errorf("línea %d: %w", i+1, err)
		}

		base := l.Cantidad.Mul(l.PrecioUnitario).Sub(l.Descuento)
		if base.Sign() < 0 {
			return nil, fmt.Errorf("%w: línea %d: el descuento supera el subtotal", domain.ErrValidacion, i+1)
		}
		valor := base.Mul(tarifa).Div(decimal.NewFromInt(100))

		res.Detalles = append(res.Detalles, DetalleCalculado{
			Linea:             l,
			TarifaNormalizada: tarifa,
			CodigoPorcentaje:  codigo,
			BaseImponible:     base,
			ValorIVA:          valor,
		})

		agg, ok := porTarifa[codigo]
		if !ok {
			agg = &AgregadoImpuesto{Codigo: CodigoImpuestoIVA, CodigoPorcentaje: codigo, Tarifa: tarifa}
			porTarifa[codigo] = agg
		}
		agg.BaseImponible = agg.BaseImponible.Add(base)
		agg.Valor = agg.Valor.Add(valor)

		res.Totales.TotalSinImpuestos = res.Totales.TotalSinImpuestos.Add(base)
		res.Totales.TotalDescuento = res.Totales.TotalDescuento.Add(l.Descuento)
		res.Totales.ValorIVA = res.Totales.ValorIVA.Add(valor)
		if tarifa.Sign() == 0 {
			res.Totales.Subtotal0 = res.Totales.Subtotal0.Add(base)
		} else {
			res.Totales.SubtotalIVA = res.Totales.SubtotalIVA.Add(base)
		}
	}

	res.Totales.ImporteTotal = res.Totales.TotalSinImpuestos.Add(res.Totales.ValorIVA)

	for _, agg := range porTarifa {
		res.Impuestos = append(res.Impuestos, *agg)
	}
	sort.Slice(res.Impuestos, func(i, j int) bool {
		return res.Impuestos[i].Tarifa.LessThan(res.Impuestos[j].Tarifa)
	})

	return res, nil
}

// normalizarTarifa lleva la tarifa a puntos porcentuales (0.15 → 15) y la
// resuelve contra la tabla de códigos. Fuera de tabla: error en modo
// estricto, fila del 0% en modo tolerante.
func (c *Calculadora) normalizarTarifa(t decimal.Decimal) (decimal.Decimal, string, error) {
	if t.Sign() < 0 {
		return decimal.Zero, "", fmt.Errorf("%w: tarifa IVA negativa: %s", domain.ErrValidacion, t)
	}
	uno := decimal.NewFromInt(1)
	if t.Sign() > 0 && t.LessThan(uno) {
		t = t.Mul(decimal.NewFromInt(100))
	}
	if codigo, ok := codigosPorcentaje[t.String()]; ok {
		return t, codigo, nil
	}
	if c.Tolerante {
		return decimal.Zero, codigosPorcentaje["0"], nil
	}
	return decimal.Zero, "", fmt.Errorf("%w: tarifa IVA no soportada: %s", domain.ErrValidacion, t)
}

// Formato2 redondea a dos decimales con la regla half-away-from-zero y
// devuelve la representación con punto decimal que exige el esquema.
func Formato2(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// Formato6 formatea cantidades y precios unitarios, que el esquema admite
// hasta con seis decimales.
func Formato6(d decimal.Decimal) string {
	return d.StringFixed(6)
}
