package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados del ciclo de vida de un comprobante electrónico ante el SRI.
const (
	EstadoPendiente  = "PENDIENTE"  // encolada, sin firmar
	EstadoFirmado    = "FIRMADO"    // XML firmado y artefactos subidos
	EstadoRecibida   = "RECIBIDA"   // aceptada por recepción, autorización pendiente
	EstadoDevuelta   = "DEVUELTA"   // rechazada en recepción
	EstadoAutorizado = "AUTORIZADO" // autorizada (terminal)
	EstadoRechazado  = "RECHAZADO"  // no autorizada (terminal)
)

// EsEstadoTerminal reporta si el estado ya no admite transiciones.
func EsEstadoTerminal(estado string) bool {
	return estado == EstadoAutorizado || estado == EstadoRechazado
}

// Factura es la fila central de la máquina de estados de emisión.
type Factura struct {
	ID             string
	EmisorID       string
	PuntoEmisionID string
	Secuencial     string // 9 dígitos con ceros a la izquierda
	ClaveAcceso    string // 49 dígitos

	// Comprador.
	TipoIdentificacionComprador string
	IdentificacionComprador     string
	RazonSocialComprador        string
	EmailComprador              string

	// Totales calculados al emitir.
	SubtotalSinImpuestos decimal.Decimal
	Subtotal0            decimal.Decimal
	SubtotalIVA          decimal.Decimal
	TotalDescuento       decimal.Decimal
	ValorIVA             decimal.Decimal
	ImporteTotal         decimal.Decimal

	Estado string

	// Artefactos en el object store ("bucket/clave").
	XMLPath string
	PDFPath string

	// Diálogo con el SRI.
	FechaEnvioSRI     *time.Time
	FechaAutorizacion *time.Time
	MensajesSRI       string // respuesta cruda de recepción/autorización

	// Eco opaco de la petición del cliente, para auditoría y re-firmado.
	ClientInputData []byte

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NumeroCompleto arma el número humano estab-ptoEmi-secuencial a partir de la
// clave de acceso (posiciones 24..30 llevan la serie).
func (f *Factura) NumeroCompleto() string {
	if len(f.ClaveAcceso) != 49 {
		return f.Secuencial
	}
	serie := f.ClaveAcceso[24:30]
	return serie[:3] + "-" + serie[3:] + "-" + f.Secuencial
}
