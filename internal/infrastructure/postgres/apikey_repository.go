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

var _ repository.ApiKeyRepository = (*ApiKeyRepo)(nil)

// ApiKeyRepo implementación de ApiKeyRepository (usable con pool o tx).
type ApiKeyRepo struct {
	q Querier
}

// NewApiKeyRepository construye el adaptador. Pasar pool o tx (Querier).
func NewApiKeyRepository(q Querier) *ApiKeyRepo {
	return &ApiKeyRepo{q: q}
}

// Crear persiste una llave nueva (solo hash y prefijo).
func (r *ApiKeyRepo) Crear(k *entity.ApiKey) error {
	if k.ID == "" {
		k.ID = uuid.New().String()
	}
	query := `
		INSERT INTO api_keys (id, emisor_id, nombre, key_hash, key_prefix, revocada, created_at)
		VALUES ($1, $2, $3, $4, $5, false, now())`
	_, err := r.q.Exec(context.Background(), query, k.ID, k.EmisorID, k.Nombre, k.KeyHash, k.KeyPrefix)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: colisión de hash de llave", domain.ErrConflicto)
		}
		return fmt.Errorf("insert api key: %w", err)
	}
	return nil
}

// ListarPorEmisor devuelve las llaves del emisor, más recientes primero.
func (r *ApiKeyRepo) ListarPorEmisor(emisorID string) ([]*entity.ApiKey, error) {
	query := `
		SELECT id, emisor_id, nombre, key_hash, key_prefix, revocada, last_used_at, created_at
		FROM api_keys WHERE emisor_id = $1 ORDER BY created_at DESC`
	rows, err := r.q.Query(context.Background(), query, emisorID)
	if err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}
	defer rows.Close()
	var list []*entity.ApiKey
	for rows.Next() {
		var k entity.ApiKey
		if err := rows.Scan(&k.ID, &k.EmisorID, &k.Nombre, &k.KeyHash, &k.KeyPrefix, &k.Revocada, &k.LastUsedAt, &k.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan api key: %w", err)
		}
		list = append(list, &k)
	}
	return list, rows.Err()
}

// GetPorHash busca una llave por el SHA-256 de la llave cruda.
func (r *ApiKeyRepo) GetPorHash(hash string) (*entity.ApiKey, error) {
	query := `
		SELECT id, emisor_id, nombre, key_hash, key_prefix, revocada, last_used_at, created_at
		FROM api_keys WHERE key_hash = $1`
	var k entity.ApiKey
	err := r.q.QueryRow(context.Background(), query, hash).Scan(
		&k.ID, &k.EmisorID, &k.Nombre, &k.KeyHash, &k.KeyPrefix, &k.Revocada, &k.LastUsedAt, &k.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get api key: %w", err)
	}
	return &k, nil
}

// Revocar marca la llave como revocada si pertenece al emisor.
func (r *ApiKeyRepo) Revocar(id, emisorID string) (bool, error) {
	query := `UPDATE api_keys SET revocada = true WHERE id = $1 AND emisor_id = $2`
	tag, err := r.q.Exec(context.Background(), query, id, emisorID)
	if err != nil {
		return false, fmt.Errorf("revocar api key: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// TocarUso actualiza la marca de último uso.
func (r *ApiKeyRepo) TocarUso(id string) error {
	_, err := r.q.Exec(context.Background(), `UPDATE api_keys SET last_used_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("tocar uso api key: %w", err)
	}
	return nil
}
