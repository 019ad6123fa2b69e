package repository

import (
	"time"

	"github.com/kipu-ec/kipu-api/internal/domain/entity"
)

// FacturaRepository define el puerto de persistencia de la máquina de estados
// de comprobantes. Los métodos Marcar* son transiciones compare-and-swap:
// actualizan solo si la fila sigue en el estado de origen y reportan con el
// booleano si hubo avance, de modo que repetir un tick del worker sobre una
// fila ya avanzada es un no-op.
type FacturaRepository interface {
	Crear(f *entity.Factura) error
	GetByID(id string) (*entity.Factura, error)
	GetByClaveAcceso(clave string) (*entity.Factura, error)
	ListarPorEmisor(emisorID string, limit int) ([]*entity.Factura, error)
	// ListarPorEstado selecciona las filas más antiguas en el estado dado con
	// FOR UPDATE SKIP LOCKED; llamar dentro de una transacción para que dos
	// réplicas del worker nunca procesen la misma fila.
	ListarPorEstado(estado string, limit int) ([]*entity.Factura, error)
	ContarPorEstado(emisorID string) (map[string]int64, error)

	// PENDIENTE → FIRMADO, registrando los artefactos subidos.
	MarcarFirmada(id, xmlPath, pdfPath string) (bool, error)
	// FIRMADO → RECIBIDA tras recepción exitosa.
	MarcarRecibida(id string, fechaEnvio time.Time, mensajes string) (bool, error)
	// FIRMADO → DEVUELTA con la respuesta de recepción.
	MarcarDevuelta(id, mensajes string) (bool, error)
	// RECIBIDA → AUTORIZADO con el XML autorizado y la fecha del SRI.
	MarcarAutorizada(id, xmlPath string, fechaAutorizacion time.Time, mensajes string) (bool, error)
	// RECIBIDA → RECHAZADO con los mensajes de negación.
	MarcarRechazada(id, mensajes string) (bool, error)

	// GuardarMensajes reemplaza los mensajes del SRI sin tocar el estado; se
	// usa cuando la autorización responde un estado intermedio desconocido.
	GuardarMensajes(id, mensajes string) error
}
