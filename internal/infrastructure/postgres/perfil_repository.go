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

var _ repository.PerfilRepository = (*PerfilRepo)(nil)

// PerfilRepo implementación de PerfilRepository (usable con pool o tx).
type PerfilRepo struct {
	q Querier
}

// NewPerfilRepository construye el adaptador. Pasar pool o tx (Querier).
func NewPerfilRepository(q Querier) *PerfilRepo {
	return &PerfilRepo{q: q}
}

// Crear persiste un perfil nuevo.
func (r *PerfilRepo) Crear(p *entity.Perfil) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	query := `
		INSERT INTO perfiles (id, uid, email, nombre, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())`
	_, err := r.q.Exec(context.Background(), query, p.ID, p.UID, p.Email, nullIfEmpty(p.Nombre))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: el uid ya tiene perfil", domain.ErrConflicto)
		}
		return fmt.Errorf("insert perfil: %w", err)
	}
	return nil
}

// GetByUID busca el perfil por el uid del proveedor de identidad.
func (r *PerfilRepo) GetByUID(uid string) (*entity.Perfil, error) {
	return r.getBy("uid", uid)
}

// GetByID busca el perfil por su ID.
func (r *PerfilRepo) GetByID(id string) (*entity.Perfil, error) {
	return r.getBy("id", id)
}

func (r *PerfilRepo) getBy(col, val string) (*entity.Perfil, error) {
	query := fmt.Sprintf(`
		SELECT id, uid, email, COALESCE(nombre, ''), COALESCE(emisor_id::text, ''), created_at, updated_at
		FROM perfiles WHERE %s = $1`, col)
	var p entity.Perfil
	err := r.q.QueryRow(context.Background(), query, val).Scan(
		&p.ID, &p.UID, &p.Email, &p.Nombre, &p.EmisorID, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get perfil: %w", err)
	}
	return &p, nil
}

// VincularEmisor asocia el emisor activado al perfil.
func (r *PerfilRepo) VincularEmisor(perfilID, emisorID string) error {
	query := `UPDATE perfiles SET emisor_id = $2, updated_at = now() WHERE id = $1`
	tag, err := r.q.Exec(context.Background(), query, perfilID, emisorID)
	if err != nil {
		return fmt.Errorf("vincular emisor: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: perfil %s", domain.ErrNoEncontrado, perfilID)
	}
	return nil
}
