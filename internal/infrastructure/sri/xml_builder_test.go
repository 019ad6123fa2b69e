package sri

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kipu-ec/kipu-api/internal/domain"
	"github.com/kipu-ec/kipu-api/internal/domain/entity"
	"github.com/kipu-ec/kipu-api/internal/domain/tributo"
)

// ──────────────────────────────────────────────────────────────────────────────
// TestConstructorXML_DocumentoExacto compara el documento generado contra el
// XML de referencia carácter por carácter. Es el canario del módulo de
// facturación: el firmador calcula digests sobre estos bytes, así que
// cualquier cambio de orden de elementos, indentación, escape o formato de
// montos rompe comprobantes ya emitidos y debe ser deliberado.
//
// La clave del vector se descompone así:
//
//	25082026 01 1790011674001 1 001 100 000000123 12345678 1 3
//	fecha    cod ruc          amb estab ptoEmi secuencial  cód tipo dv
// ──────────────────────────────────────────────────────────────────────────────

const clavePrueba = "2508202601179001167400110011000000001231234567813"

const facturaEsperada = `<?xml version="1.0" encoding="UTF-8"?>
<factura id="comprobante" version="1.1.0">
  <infoTributaria>
    <ambiente>1</ambiente>
    <tipoEmision>1</tipoEmision>
    <razonSocial>PENA &amp; ASOCIADOS CIA. LTDA.</razonSocial>
    <nombreComercial>Pena Hnos.</nombreComercial>
    <ruc>1790011674001</ruc>
    <claveAcceso>2508202601179001167400110011000000001231234567813</claveAcceso>
    <codDoc>01</codDoc>
    <estab>001</estab>
    <ptoEmi>100</ptoEmi>
    <secuencial>000000123</secuencial>
    <dirMatriz>Av. Amazonas N26-123 y Colon</dirMatriz>
  </infoTributaria>
  <infoFactura>
    <fechaEmision>25/08/2026</fechaEmision>
    <dirEstablecimiento>Local 12, CC El Bosque, Quito</dirEstablecimiento>
    <obligadoContabilidad>SI</obligadoContabilidad>
    <tipoIdentificacionComprador>05</tipoIdentificacionComprador>
    <razonSocialComprador>Maria Jose Vera</razonSocialComprador>
    <identificacionComprador>1712345678</identificacionComprador>
    <totalSinImpuestos>962.00</totalSinImpuestos>
    <totalDescuento>50.00</totalDescuento>
    <totalConImpuestos>
      <totalImpuesto>
        <codigo>2</codigo>
        <codigoPorcentaje>0</codigoPorcentaje>
        <baseImponible>12.00</baseImponible>
        <valor>0.00</valor>
      </totalImpuesto>
      <totalImpuesto>
        <codigo>2</codigo>
        <codigoPorcentaje>4</codigoPorcentaje>
        <baseImponible>950.00</baseImponible>
        <valor>142.50</valor>
      </totalImpuesto>
    </totalConImpuestos>
    <propina>0.00</propina>
    <importeTotal>1104.50</importeTotal>
    <moneda>DOLAR</moneda>
    <pagos>
      <pago>
        <formaPago>20</formaPago>
        <total>1104.50</total>
        <plazo>30</plazo>
        <unidadTiempo>dias</unidadTiempo>
      </pago>
    </pagos>
  </infoFactura>
  <detalles>
    <detalle>
      <descripcion>Arroz premium 5kg</descripcion>
      <cantidad>3.000000</cantidad>
      <precioUnitario>4.000000</precioUnitario>
      <descuento>0.00</descuento>
      <precioTotalSinImpuesto>12.00</precioTotalSinImpuesto>
      <impuestos>
        <impuesto>
          <codigo>2</codigo>
          <codigoPorcentaje>0</codigoPorcentaje>
          <tarifa>0.00</tarifa>
          <baseImponible>12.00</baseImponible>
          <valor>0.00</valor>
        </impuesto>
      </impuestos>
    </detalle>
    <detalle>
      <codigoPrincipal>LT-480</codigoPrincipal>
      <descripcion>Laptop ThinkPad T480</descripcion>
      <cantidad>2.000000</cantidad>
      <precioUnitario>500.000000</precioUnitario>
      <descuento>50.00</descuento>
      <precioTotalSinImpuesto>950.00</precioTotalSinImpuesto>
      <impuestos>
        <impuesto>
          <codigo>2</codigo>
          <codigoPorcentaje>4</codigoPorcentaje>
          <tarifa>15.00</tarifa>
          <baseImponible>950.00</baseImponible>
          <valor>142.50</valor>
        </impuesto>
      </impuestos>
    </detalle>
  </detalles>
  <infoAdicional>
    <campoAdicional nombre="Email">cliente@example.com</campoAdicional>
    <campoAdicional nombre="Direccion">Av. 6 de Diciembre</campoAdicional>
  </infoAdicional>
</factura>`

func TestConstructorXML_DocumentoExacto(t *testing.T) {
	ctx := contextoPrueba(t)

	got, err := NewConstructorXML().Construir(ctx)
	require.NoError(t, err, "Construir no debe fallar con un contexto completo")
	assert.Equal(t, facturaEsperada, string(got),
		"El documento debe coincidir byte a byte con el vector de referencia")
}

// TestConstructorXML_PagoPorDefecto verifica los valores que el constructor
// rellena cuando el cliente omite campos opcionales: un pago por el importe
// total con forma 01, la dirección matriz como dirEstablecimiento y
// obligadoContabilidad NO.
func TestConstructorXML_PagoPorDefecto(t *testing.T) {
	ctx := contextoPrueba(t)
	ctx.Pagos = nil
	ctx.CamposAdicionales = nil
	ctx.DirEstablecimiento = ""
	ctx.Emisor.ObligadoContabilidad = ""

	got, err := NewConstructorXML().Construir(ctx)
	require.NoError(t, err)
	doc := string(got)

	assert.Contains(t, doc, "<formaPago>01</formaPago>")
	assert.Contains(t, doc, "<total>1104.50</total>",
		"El pago por defecto debe cubrir el importe total")
	assert.NotContains(t, doc, "<plazo>")
	assert.Contains(t, doc, "<dirEstablecimiento>Av. Amazonas N26-123 y Colon</dirEstablecimiento>",
		"Sin dirección de establecimiento se usa la matriz")
	assert.Contains(t, doc, "<obligadoContabilidad>NO</obligadoContabilidad>")
	assert.NotContains(t, doc, "<infoAdicional>")
}

// TestConstructorXML_NombreComercialOpcional verifica que el elemento se
// omite por completo cuando el emisor no lo tiene: el esquema del SRI no
// admite elementos vacíos.
func TestConstructorXML_NombreComercialOpcional(t *testing.T) {
	ctx := contextoPrueba(t)
	ctx.Emisor.NombreComercial = ""

	got, err := NewConstructorXML().Construir(ctx)
	require.NoError(t, err)
	assert.NotContains(t, string(got), "<nombreComercial>")
}

func TestConstructorXML_Errores(t *testing.T) {
	svc := NewConstructorXML()

	t.Run("contexto nil", func(t *testing.T) {
		_, err := svc.Construir(nil)
		assert.ErrorIs(t, err, domain.ErrValidacion)
	})

	t.Run("sin cálculo", func(t *testing.T) {
		ctx := contextoPrueba(t)
		ctx.Calculo = nil
		_, err := svc.Construir(ctx)
		assert.ErrorIs(t, err, domain.ErrValidacion)
	})

	t.Run("clave de acceso corta", func(t *testing.T) {
		ctx := contextoPrueba(t)
		ctx.Factura.ClaveAcceso = "123"
		_, err := svc.Construir(ctx)
		assert.Error(t, err, "Una clave que no valida debe abortar la construcción")
	})

	t.Run("dígito verificador incorrecto", func(t *testing.T) {
		ctx := contextoPrueba(t)
		ctx.Factura.ClaveAcceso = clavePrueba[:48] + "4"
		_, err := svc.Construir(ctx)
		assert.Error(t, err)
	})
}

// ── helper ────────────────────────────────────────────────────────────────────

// contextoPrueba arma el contexto del vector de referencia: dos líneas (una al
// 0% y una al 15%), pago a crédito y dos campos adicionales. El cálculo usa la
// calculadora real en modo estricto.
func contextoPrueba(t *testing.T) *ContextoFactura {
	t.Helper()

	calculo, err := tributo.NewCalculadora(false).Calcular([]tributo.Linea{
		{
			Descripcion:    "Arroz premium 5kg",
			Cantidad:       decimal.NewFromInt(3),
			PrecioUnitario: decimal.NewFromInt(4),
			TarifaIVA:      decimal.Zero,
		},
		{
			CodigoPrincipal: "LT-480",
			Descripcion:     "Laptop ThinkPad T480",
			Cantidad:        decimal.NewFromInt(2),
			PrecioUnitario:  decimal.NewFromInt(500),
			Descuento:       decimal.NewFromInt(50),
			TarifaIVA:       decimal.NewFromInt(15),
		},
	})
	require.NoError(t, err, "el cálculo del vector de referencia no debe fallar")

	return &ContextoFactura{
		Emisor: &entity.Emisor{
			RUC:                  "1790011674001",
			RazonSocial:          "PEÑA & ASOCIADOS CÍA. LTDA.",
			NombreComercial:      "Peña Hnos.",
			DireccionMatriz:      "Av. Amazonas N26-123 y Colón",
			Ambiente:             entity.AmbientePruebas,
			ObligadoContabilidad: "SI",
		},
		Factura: &entity.Factura{
			ClaveAcceso:                 clavePrueba,
			TipoIdentificacionComprador: "05",
			IdentificacionComprador:     "1712345678",
			RazonSocialComprador:        "María José Vera",
		},
		Calculo:            calculo,
		DirEstablecimiento: "Local 12, CC El Bosque, Quito",
		Pagos: []Pago{
			{FormaPago: "20", Total: decimal.RequireFromString("1104.50"), Plazo: 30},
		},
		CamposAdicionales: []CampoAdicional{
			{Nombre: "Email", Valor: "cliente@example.com"},
			{Nombre: "Telefono", Valor: ""},
			{Nombre: "Dirección", Valor: "Av. 6 de Diciembre"},
		},
	}
}
