package facturacion

import (
	"context"

	"github.com/kipu-ec/kipu-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción que incluye los
// repositorios de la emisión. La asignación de secuencial, el candado de
// créditos y la inserción de la factura ocurren bajo la misma transacción.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		emisores repository.EmisorRepository,
		estructura repository.EstructuraRepository,
		creditos repository.CreditoRepository,
		facturas repository.FacturaRepository,
	) error) error
}
