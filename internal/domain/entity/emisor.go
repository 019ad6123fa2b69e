package entity

import (
	"time"

	"github.com/kipu-ec/kipu-api/internal/domain"
)

// Ambientes SRI.
const (
	AmbientePruebas    = "1"
	AmbienteProduccion = "2"
)

// Emisor es la identidad tributaria que origina comprobantes.
type Emisor struct {
	ID                   string
	PerfilID             string
	RUC                  string // 13 dígitos
	RazonSocial          string
	NombreComercial      string
	DireccionMatriz      string
	Ambiente             string // "1" pruebas, "2" producción
	ObligadoContabilidad string // "SI" | "NO"
	Email                string

	// Certificado de firma electrónica.
	P12Path              string     // ruta en el bucket certificates; vacío = sin certificado
	P12PasswordEncrypted string     // iv_hex:cipher_hex, AES-256-CBC
	P12Expiration        *time.Time // NotAfter del certificado seleccionado

	CreatedAt time.Time
	UpdatedAt time.Time
}

// PuedeEmitir reporta si el emisor tiene una credencial vigente.
func (e *Emisor) PuedeEmitir(ahora time.Time) error {
	if e.P12Path == "" {
		return domain.ErrFirmaFaltante
	}
	if e.P12Expiration != nil && e.P12Expiration.Before(ahora) {
		return domain.ErrFirmaExpirada
	}
	return nil
}

// Establecimiento es un local físico del emisor. El código es de 3 dígitos y
// único por emisor.
type Establecimiento struct {
	ID        string
	EmisorID  string
	Codigo    string // "001"
	Direccion string
	CreatedAt time.Time
}

// PuntoEmision es una caja registradora de un establecimiento. El secuencial
// avanza de uno en uno bajo candado de fila.
type PuntoEmision struct {
	ID                string
	EstablecimientoID string
	Codigo            string // "100"
	SecuencialActual  int64
	CreatedAt         time.Time
}
