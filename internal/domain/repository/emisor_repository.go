package repository

import (
	"time"

	"github.com/kipu-ec/kipu-api/internal/domain/entity"
)

// EmisorRepository define el puerto de persistencia para Emisor.
type EmisorRepository interface {
	Crear(e *entity.Emisor) error
	GetByID(id string) (*entity.Emisor, error)
	// GetByIDForUpdate toma el candado de la fila del emisor; llamar dentro
	// de una transacción. Es la barrera de serialización de la emisión.
	GetByIDForUpdate(id string) (*entity.Emisor, error)
	GetByRUC(ruc string) (*entity.Emisor, error)
	ActualizarConfig(id, ambiente, nombreComercial, direccion string) error
	// ActualizarCertificado guarda la ruta del P12, la contraseña cifrada y
	// la expiración del certificado seleccionado.
	ActualizarCertificado(id, p12Path, passwordCifrada string, expiracion time.Time) error
}
