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

var _ repository.EstructuraRepository = (*EstructuraRepo)(nil)

// EstructuraRepo implementación de EstructuraRepository (usable con pool o tx).
type EstructuraRepo struct {
	q Querier
}

// NewEstructuraRepository construye el adaptador. Pasar pool o tx (Querier).
func NewEstructuraRepository(q Querier) *EstructuraRepo {
	return &EstructuraRepo{q: q}
}

// CrearEstablecimiento persiste un establecimiento; código duplicado dentro
// del emisor es conflicto.
func (r *EstructuraRepo) CrearEstablecimiento(e *entity.Establecimiento) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	query := `
		INSERT INTO establecimientos (id, emisor_id, codigo, direccion, created_at)
		VALUES ($1, $2, $3, $4, now())`
	_, err := r.q.Exec(context.Background(), query, e.ID, e.EmisorID, e.Codigo, nullIfEmpty(e.Direccion))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: el establecimiento %s ya existe", domain.ErrConflicto, e.Codigo)
		}
		return fmt.Errorf("insert establecimiento: %w", err)
	}
	return nil
}

// CrearPuntoEmision persiste un punto de emisión con secuencial en cero.
func (r *EstructuraRepo) CrearPuntoEmision(p *entity.PuntoEmision) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	query := `
		INSERT INTO puntos_emision (id, establecimiento_id, codigo, secuencial_actual, created_at)
		VALUES ($1, $2, $3, $4, now())`
	_, err := r.q.Exec(context.Background(), query, p.ID, p.EstablecimientoID, p.Codigo, p.SecuencialActual)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: el punto de emisión %s ya existe", domain.ErrConflicto, p.Codigo)
		}
		return fmt.Errorf("insert punto emisión: %w", err)
	}
	return nil
}

// ListarEstablecimientos devuelve los establecimientos del emisor ordenados por código.
func (r *EstructuraRepo) ListarEstablecimientos(emisorID string) ([]*entity.Establecimiento, error) {
	query := `
		SELECT id, emisor_id, codigo, COALESCE(direccion, ''), created_at
		FROM establecimientos WHERE emisor_id = $1 ORDER BY codigo`
	rows, err := r.q.Query(context.Background(), query, emisorID)
	if err != nil {
		return nil, fmt.Errorf("list establecimientos: %w", err)
	}
	defer rows.Close()
	var list []*entity.Establecimiento
	for rows.Next() {
		var e entity.Establecimiento
		if err := rows.Scan(&e.ID, &e.EmisorID, &e.Codigo, &e.Direccion, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan establecimiento: %w", err)
		}
		list = append(list, &e)
	}
	return list, rows.Err()
}

// ListarPuntosEmision devuelve los puntos de un establecimiento ordenados por código.
func (r *EstructuraRepo) ListarPuntosEmision(establecimientoID string) ([]*entity.PuntoEmision, error) {
	query := `
		SELECT id, establecimiento_id, codigo, secuencial_actual, created_at
		FROM puntos_emision WHERE establecimiento_id = $1 ORDER BY codigo`
	rows, err := r.q.Query(context.Background(), query, establecimientoID)
	if err != nil {
		return nil, fmt.Errorf("list puntos emisión: %w", err)
	}
	defer rows.Close()
	var list []*entity.PuntoEmision
	for rows.Next() {
		var p entity.PuntoEmision
		if err := rows.Scan(&p.ID, &p.EstablecimientoID, &p.Codigo, &p.SecuencialActual, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan punto emisión: %w", err)
		}
		list = append(list, &p)
	}
	return list, rows.Err()
}

// BuscarEstablecimiento resuelve un establecimiento por código dentro del
// emisor. Devuelve nil si no existe.
func (r *EstructuraRepo) BuscarEstablecimiento(emisorID, codigo string) (*entity.Establecimiento, error) {
	query := `
		SELECT id, emisor_id, codigo, COALESCE(direccion, ''), created_at
		FROM establecimientos WHERE emisor_id = $1 AND codigo = $2`
	var e entity.Establecimiento
	err := r.q.QueryRow(context.Background(), query, emisorID, codigo).Scan(
		&e.ID, &e.EmisorID, &e.Codigo, &e.Direccion, &e.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("buscar establecimiento: %w", err)
	}
	return &e, nil
}

// BuscarPunto resuelve (estab, punto) por códigos dentro del emisor.
// Devuelve nil si el par no existe.
func (r *EstructuraRepo) BuscarPunto(emisorID, codigoEstab, codigoPunto string) (*entity.PuntoEmision, error) {
	query := `
		SELECT p.id, p.establecimiento_id, p.codigo, p.secuencial_actual, p.created_at
		FROM puntos_emision p
		JOIN establecimientos e ON e.id = p.establecimiento_id
		WHERE e.emisor_id = $1 AND e.codigo = $2 AND p.codigo = $3`
	var p entity.PuntoEmision
	err := r.q.QueryRow(context.Background(), query, emisorID, codigoEstab, codigoPunto).Scan(
		&p.ID, &p.EstablecimientoID, &p.Codigo, &p.SecuencialActual, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("buscar punto emisión: %w", err)
	}
	return &p, nil
}

// GenerarSecuencial delega en la función generar_secuencial, que hace
// UPDATE ... SET secuencial_actual = secuencial_actual + 1 RETURNING bajo
// candado de fila. Dos emisiones concurrentes sobre el mismo punto se
// serializan ahí.
func (r *EstructuraRepo) GenerarSecuencial(puntoID string) (int64, error) {
	var secuencial int64
	err := r.q.QueryRow(context.Background(), `SELECT generar_secuencial($1)`, puntoID).Scan(&secuencial)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("%w: punto de emisión %s", domain.ErrNoEncontrado, puntoID)
		}
		return 0, fmt.Errorf("generar secuencial: %w", err)
	}
	return secuencial, nil
}
