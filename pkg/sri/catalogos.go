package sri

// Catálogos de la Ficha Técnica del SRI usados por el esquema factura v1.1.0.
// Se exponen como mapas código → descripción para validación y para el RIDE.

// Ambientes de emisión (tabla 4).
const (
	AmbientePruebas    = "1"
	AmbienteProduccion = "2"
)

// Tipos de emisión (tabla 2).
const (
	EmisionNormal = "1"
)

// Códigos de documento (tabla 3).
const (
	DocFactura           = "01"
	DocLiquidacionCompra = "03"
	DocNotaCredito       = "04"
	DocNotaDebito        = "05"
	DocGuiaRemision      = "06"
	DocComprobanteRetenc = "07"
)

// TiposDocumento mapea código de documento → nombre para el RIDE.
var TiposDocumento = map[string]string{
	DocFactura:           "FACTURA",
	DocLiquidacionCompra: "LIQUIDACIÓN DE COMPRA DE BIENES Y PRESTACIÓN DE SERVICIOS",
	DocNotaCredito:       "NOTA DE CRÉDITO",
	DocNotaDebito:        "NOTA DE DÉBITO",
	DocGuiaRemision:      "GUÍA DE REMISIÓN",
	DocComprobanteRetenc: "COMPROBANTE DE RETENCIÓN",
}

// Tipos de identificación del comprador (tabla 6).
const (
	IdentRUC             = "04"
	IdentCedula          = "05"
	IdentPasaporte       = "06"
	IdentConsumidorFinal = "07"
	IdentExterior        = "08"
)

// TiposIdentificacion mapea código → descripción.
var TiposIdentificacion = map[string]string{
	IdentRUC:             "RUC",
	IdentCedula:          "CÉDULA",
	IdentPasaporte:       "PASAPORTE",
	IdentConsumidorFinal: "VENTA A CONSUMIDOR FINAL",
	IdentExterior:        "IDENTIFICACIÓN DEL EXTERIOR",
}

// RUCConsumidorFinal es la identificación fija para ventas a consumidor final.
const RUCConsumidorFinal = "9999999999999"

// Formas de pago (tabla 24).
var FormasPago = map[string]string{
	"01": "SIN UTILIZACION DEL SISTEMA FINANCIERO",
	"15": "COMPENSACIÓN DE DEUDAS",
	"16": "TARJETA DE DÉBITO",
	"17": "DINERO ELECTRÓNICO",
	"18": "TARJETA PREPAGO",
	"19": "TARJETA DE CRÉDITO",
	"20": "OTROS CON UTILIZACION DEL SISTEMA FINANCIERO",
	"21": "ENDOSO DE TÍTULOS",
}

// FormaPagoPorDefecto se usa cuando la factura no especifica forma de pago.
const FormaPagoPorDefecto = "01"

// ValidarFormaPago reporta si el código pertenece a la tabla 24.
func ValidarFormaPago(codigo string) bool {
	_, ok := FormasPago[codigo]
	return ok
}

// ValidarTipoIdentificacion reporta si el código pertenece a la tabla 6.
func ValidarTipoIdentificacion(codigo string) bool {
	_, ok := TiposIdentificacion[codigo]
	return ok
}

// InferirTipoIdentificacion deduce el tipo de identificación del comprador a
// partir de su forma: 9999999999999 es consumidor final, 13 dígitos RUC, 10
// dígitos cédula y cualquier otra cosa pasaporte.
func InferirTipoIdentificacion(identificacion string) string {
	if identificacion == RUCConsumidorFinal {
		return IdentConsumidorFinal
	}
	digitos := SoloDigitos(identificacion)
	switch {
	case len(digitos) == 13 && digitos == identificacion:
		return IdentRUC
	case len(digitos) == 10 && digitos == identificacion:
		return IdentCedula
	default:
		return IdentPasaporte
	}
}
