// Package sri implementa la generación del XML de factura v1.1.0 y el diálogo
// SOAP de recepción y autorización con el SRI (esquema offline).
package sri

import (
	"github.com/shopspring/decimal"

	"github.com/kipu-ec/kipu-api/internal/domain/entity"
	"github.com/kipu-ec/kipu-api/internal/domain/tributo"
)

// Pago es una fila de la sección pagos (tabla 24 del SRI).
type Pago struct {
	FormaPago    string // código de la tabla 24; vacío → "01"
	Total        decimal.Decimal
	Plazo        int    // 0 = sin plazo
	UnidadTiempo string // "dias" por defecto cuando hay plazo
}

// CampoAdicional es una entrada de infoAdicional.
type CampoAdicional struct {
	Nombre string
	Valor  string
}

// ContextoFactura reúne todo lo necesario para armar el XML del comprobante.
// Los datos tributarios (fecha, serie, secuencial, ambiente) se derivan de la
// clave de acceso para que el XML nunca pueda contradecirla.
type ContextoFactura struct {
	Emisor  *entity.Emisor
	Factura *entity.Factura
	Calculo *tributo.Resultado

	DirEstablecimiento string // vacío → se usa la dirección matriz
	Pagos              []Pago // vacío → un pago por el importe total, forma 01
	CamposAdicionales  []CampoAdicional
}
