package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kipu-ec/kipu-api/internal/application/auth"
	"github.com/kipu-ec/kipu-api/internal/application/creditos"
	"github.com/kipu-ec/kipu-api/internal/application/facturacion"
	"github.com/kipu-ec/kipu-api/internal/application/liquidacion"
	"github.com/kipu-ec/kipu-api/internal/domain/repository"
)

// TxRunner satisface los puertos transaccionales de cada caso de uso.
var _ facturacion.TxRunner = (*TxRunner)(nil)
var _ auth.OnboardingTxRunner = (*TxRunner)(nil)
var _ creditos.TxRunner = (*TxRunner)(nil)
var _ liquidacion.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción, ejecuta fn con los repos de emisión atados a la
// tx y hace Commit o Rollback. Lo usan la emisión de facturas y el worker.
func (r *TxRunner) Run(ctx context.Context, fn func(
	emisores repository.EmisorRepository,
	estructura repository.EstructuraRepository,
	creditos repository.CreditoRepository,
	facturas repository.FacturaRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	emisores := NewEmisorRepository(tx)
	estructura := NewEstructuraRepository(tx)
	creditos := NewCreditoRepository(tx)
	facturas := NewFacturaRepository(tx)

	if err := fn(emisores, estructura, creditos, facturas); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// RunOnboarding inicia una transacción con los repos del alta de emisor
// (perfil + emisor + estructura por defecto + saldo inicial).
func (r *TxRunner) RunOnboarding(ctx context.Context, fn func(
	perfiles repository.PerfilRepository,
	emisores repository.EmisorRepository,
	estructura repository.EstructuraRepository,
	creditos repository.CreditoRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	perfiles := NewPerfilRepository(tx)
	emisores := NewEmisorRepository(tx)
	estructura := NewEstructuraRepository(tx)
	creditos := NewCreditoRepository(tx)

	if err := fn(perfiles, emisores, estructura, creditos); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
