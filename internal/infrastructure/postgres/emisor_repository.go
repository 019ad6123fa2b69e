package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/kipu-ec/kipu-api/internal/domain"
	"github.com/kipu-ec/kipu-api/internal/domain/entity"
	"github.com/kipu-ec/kipu-api/internal/domain/repository"
)

var _ repository.EmisorRepository = (*EmisorRepo)(nil)

// EmisorRepo implementación de EmisorRepository (usable con pool o tx).
type EmisorRepo struct {
	q Querier
}

// NewEmisorRepository construye el adaptador. Pasar pool o tx (Querier).
func NewEmisorRepository(q Querier) *EmisorRepo {
	return &EmisorRepo{q: q}
}

const columnasEmisor = `
	id, perfil_id, ruc, razon_social, COALESCE(nombre_comercial, ''),
	direccion_matriz, ambiente, obligado_contabilidad, COALESCE(email, ''),
	COALESCE(p12_path, ''), COALESCE(p12_password_encrypted, ''), p12_expiration,
	created_at, updated_at`

// Crear persiste un emisor nuevo. RUC duplicado es conflicto.
func (r *EmisorRepo) Crear(e *entity.Emisor) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	query := `
		INSERT INTO emisores (id, perfil_id, ruc, razon_social, nombre_comercial,
			direccion_matriz, ambiente, obligado_contabilidad, email, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())`
	_, err := r.q.Exec(context.Background(), query,
		e.ID, e.PerfilID, e.RUC, e.RazonSocial, nullIfEmpty(e.NombreComercial),
		e.DireccionMatriz, e.Ambiente, e.ObligadoContabilidad, nullIfEmpty(e.Email),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: el RUC %s ya está registrado", domain.ErrConflicto, e.RUC)
		}
		return fmt.Errorf("insert emisor: %w", err)
	}
	return nil
}

// GetByID obtiene un emisor por ID.
func (r *EmisorRepo) GetByID(id string) (*entity.Emisor, error) {
	return r.get(`SELECT`+columnasEmisor+` FROM emisores WHERE id = $1`, id)
}

// GetByIDForUpdate toma el candado de la fila del emisor dentro de la
// transacción en curso.
func (r *EmisorRepo) GetByIDForUpdate(id string) (*entity.Emisor, error) {
	return r.get(`SELECT`+columnasEmisor+` FROM emisores WHERE id = $1 FOR UPDATE`, id)
}

// GetByRUC obtiene un emisor por RUC.
func (r *EmisorRepo) GetByRUC(ruc string) (*entity.Emisor, error) {
	return r.get(`SELECT`+columnasEmisor+` FROM emisores WHERE ruc = $1`, ruc)
}

func (r *EmisorRepo) get(query, arg string) (*entity.Emisor, error) {
	var e entity.Emisor
	err := r.q.QueryRow(context.Background(), query, arg).Scan(
		&e.ID, &e.PerfilID, &e.RUC, &e.RazonSocial, &e.NombreComercial,
		&e.DireccionMatriz, &e.Ambiente, &e.ObligadoContabilidad, &e.Email,
		&e.P12Path, &e.P12PasswordEncrypted, &e.P12Expiration,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get emisor: %w", err)
	}
	return &e, nil
}

// ActualizarConfig cambia ambiente, nombre comercial y dirección matriz.
func (r *EmisorRepo) ActualizarConfig(id, ambiente, nombreComercial, direccion string) error {
	query := `
		UPDATE emisores
		SET ambiente         = COALESCE(NULLIF($2, ''), ambiente),
		    nombre_comercial = COALESCE(NULLIF($3, ''), nombre_comercial),
		    direccion_matriz = COALESCE(NULLIF($4, ''), direccion_matriz),
		    updated_at       = now()
		WHERE id = $1`
	tag, err := r.q.Exec(context.Background(), query, id, ambiente, nombreComercial, direccion)
	if err != nil {
		return fmt.Errorf("update config emisor: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: emisor %s", domain.ErrNoEncontrado, id)
	}
	return nil
}

// ActualizarCertificado guarda los datos del P12 validado.
func (r *EmisorRepo) ActualizarCertificado(id, p12Path, passwordCifrada string, expiracion time.Time) error {
	query := `
		UPDATE emisores
		SET p12_path               = $2,
		    p12_password_encrypted = $3,
		    p12_expiration         = $4,
		    updated_at             = now()
		WHERE id = $1`
	tag, err := r.q.Exec(context.Background(), query, id, p12Path, passwordCifrada, expiracion)
	if err != nil {
		return fmt.Errorf("update certificado emisor: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: emisor %s", domain.ErrNoEncontrado, id)
	}
	return nil
}
