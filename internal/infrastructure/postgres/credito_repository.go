package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/kipu-ec/kipu-api/internal/domain"
	"github.com/kipu-ec/kipu-api/internal/domain/entity"
	"github.com/kipu-ec/kipu-api/internal/domain/repository"
)

var _ repository.CreditoRepository = (*CreditoRepo)(nil)

// CreditoRepo implementación de CreditoRepository (usable con pool o tx).
type CreditoRepo struct {
	q Querier
}

// NewCreditoRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCreditoRepository(q Querier) *CreditoRepo {
	return &CreditoRepo{q: q}
}

// Crear inicializa el saldo del emisor.
func (r *CreditoRepo) Crear(emisorID string, saldoInicial int64) error {
	query := `
		INSERT INTO creditos_emisor (emisor_id, saldo, actualizado_en)
		VALUES ($1, $2, now())`
	_, err := r.q.Exec(context.Background(), query, emisorID, saldoInicial)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: el emisor ya tiene saldo inicial", domain.ErrConflicto)
		}
		return fmt.Errorf("insert créditos: %w", err)
	}
	return nil
}

// GetSaldo lee el saldo sin candado.
func (r *CreditoRepo) GetSaldo(emisorID string) (int64, error) {
	return r.saldo(`SELECT saldo FROM creditos_emisor WHERE emisor_id = $1`, emisorID)
}

// GetSaldoForUpdate lee el saldo tomando el candado de la fila; llamar dentro
// de una transacción. Es la barrera que impide el doble débito concurrente.
func (r *CreditoRepo) GetSaldoForUpdate(emisorID string) (int64, error) {
	return r.saldo(`SELECT saldo FROM creditos_emisor WHERE emisor_id = $1 FOR UPDATE`, emisorID)
}

func (r *CreditoRepo) saldo(query, emisorID string) (int64, error) {
	var saldo int64
	err := r.q.QueryRow(context.Background(), query, emisorID).Scan(&saldo)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("%w: créditos del emisor %s", domain.ErrNoEncontrado, emisorID)
		}
		return 0, fmt.Errorf("get saldo: %w", err)
	}
	return saldo, nil
}

// Debitar descuenta si y solo si hay saldo suficiente. El WHERE con la
// condición de saldo y el CHECK de la tabla cubren ambos lados de la carrera.
func (r *CreditoRepo) Debitar(emisorID string, cantidad int64) (int64, error) {
	query := `
		UPDATE creditos_emisor
		SET saldo = saldo - $2, actualizado_en = now()
		WHERE emisor_id = $1 AND saldo >= $2
		RETURNING saldo`
	var saldo int64
	err := r.q.QueryRow(context.Background(), query, emisorID, cantidad).Scan(&saldo)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isCheckViolation(err) {
			return 0, domain.ErrCreditosInsuficientes
		}
		return 0, fmt.Errorf("debitar créditos: %w", err)
	}
	return saldo, nil
}

// Acreditar suma créditos y devuelve el saldo resultante.
func (r *CreditoRepo) Acreditar(emisorID string, cantidad int64) (int64, error) {
	query := `
		UPDATE creditos_emisor
		SET saldo = saldo + $2, actualizado_en = now()
		WHERE emisor_id = $1
		RETURNING saldo`
	var saldo int64
	err := r.q.QueryRow(context.Background(), query, emisorID, cantidad).Scan(&saldo)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("%w: créditos del emisor %s", domain.ErrNoEncontrado, emisorID)
		}
		return 0, fmt.Errorf("acreditar créditos: %w", err)
	}
	return saldo, nil
}

// RegistrarMovimiento agrega una entrada al libro de auditoría.
func (r *CreditoRepo) RegistrarMovimiento(t *entity.TransaccionCredito) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	query := `
		INSERT INTO transacciones_credito (id, emisor_id, tipo, cantidad, saldo_despues, detalle, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())`
	_, err := r.q.Exec(context.Background(), query,
		t.ID, t.EmisorID, t.Tipo, t.Cantidad, t.SaldoDespues, nullIfEmpty(t.Detalle),
	)
	if err != nil {
		return fmt.Errorf("insert transacción crédito: %w", err)
	}
	return nil
}

// ListarMovimientos devuelve las últimas entradas del libro, más recientes primero.
func (r *CreditoRepo) ListarMovimientos(emisorID string, limit int) ([]*entity.TransaccionCredito, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, emisor_id, tipo, cantidad, saldo_despues, COALESCE(detalle, ''), created_at
		FROM transacciones_credito
		WHERE emisor_id = $1 ORDER BY created_at DESC LIMIT $2`
	rows, err := r.q.Query(context.Background(), query, emisorID, limit)
	if err != nil {
		return nil, fmt.Errorf("list transacciones crédito: %w", err)
	}
	defer rows.Close()
	var list []*entity.TransaccionCredito
	for rows.Next() {
		var t entity.TransaccionCredito
		if err := rows.Scan(&t.ID, &t.EmisorID, &t.Tipo, &t.Cantidad, &t.SaldoDespues, &t.Detalle, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transacción crédito: %w", err)
		}
		list = append(list, &t)
	}
	return list, rows.Err()
}
