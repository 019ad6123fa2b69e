package repository

import "github.com/kipu-ec/kipu-api/internal/domain/entity"

// EstructuraRepository define el puerto de persistencia para la jerarquía
// establecimiento → punto de emisión.
type EstructuraRepository interface {
	CrearEstablecimiento(e *entity.Establecimiento) error
	CrearPuntoEmision(p *entity.PuntoEmision) error
	ListarEstablecimientos(emisorID string) ([]*entity.Establecimiento, error)
	ListarPuntosEmision(establecimientoID string) ([]*entity.PuntoEmision, error)
	// BuscarEstablecimiento resuelve un establecimiento por código acotado al
	// emisor. Devuelve nil si no existe.
	BuscarEstablecimiento(emisorID, codigo string) (*entity.Establecimiento, error)
	// BuscarPunto resuelve el punto de emisión por códigos (estab, punto)
	// acotado al emisor. Devuelve nil si el par no existe.
	BuscarPunto(emisorID, codigoEstab, codigoPunto string) (*entity.PuntoEmision, error)
	// GenerarSecuencial avanza secuencial_actual en uno bajo candado de fila
	// y devuelve el valor asignado. Llamar dentro de una transacción.
	GenerarSecuencial(puntoID string) (int64, error)
}
