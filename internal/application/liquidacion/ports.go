package liquidacion

import (
	"context"

	"github.com/kipu-ec/kipu-api/internal/domain/entity"
	"github.com/kipu-ec/kipu-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción que incluye los
// repositorios del ciclo. El lote FOR UPDATE SKIP LOCKED y las transiciones
// de estado de un tick ocurren bajo la misma transacción.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		emisores repository.EmisorRepository,
		estructura repository.EstructuraRepository,
		creditos repository.CreditoRepository,
		facturas repository.FacturaRepository,
	) error) error
}

// Materializador produce los artefactos de un comprobante: la firma de las
// facturas encoladas (XML firmado + RIDE) y la regeneración del RIDE tras la
// autorización. Lo implementa facturacion.Service.
type Materializador interface {
	FirmarComprobante(ctx context.Context, emisor *entity.Emisor, f *entity.Factura) (rutaXML, rutaPDF string, err error)
	RegenerarRIDE(ctx context.Context, emisor *entity.Emisor, f *entity.Factura) (string, []byte, error)
}
