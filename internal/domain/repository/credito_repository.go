package repository

import "github.com/kipu-ec/kipu-api/internal/domain/entity"

// CreditoRepository define el puerto de persistencia para el saldo de
// créditos y su libro de auditoría.
type CreditoRepository interface {
	Crear(emisorID string, saldoInicial int64) error
	GetSaldo(emisorID string) (int64, error)
	// GetSaldoForUpdate toma el candado de la fila de créditos; llamar
	// dentro de una transacción antes de debitar.
	GetSaldoForUpdate(emisorID string) (int64, error)
	// Debitar descuenta cantidad si hay saldo suficiente y devuelve el saldo
	// resultante. Con saldo insuficiente no modifica nada y devuelve
	// domain.ErrCreditosInsuficientes.
	Debitar(emisorID string, cantidad int64) (int64, error)
	Acreditar(emisorID string, cantidad int64) (int64, error)
	RegistrarMovimiento(t *entity.TransaccionCredito) error
	ListarMovimientos(emisorID string, limit int) ([]*entity.TransaccionCredito, error)
}
