package repository

import "github.com/kipu-ec/kipu-api/internal/domain/entity"

// ApiKeyRepository define el puerto de persistencia para llaves de
// integración. Nunca maneja la llave cruda, solo su hash SHA-256.
type ApiKeyRepository interface {
	Crear(k *entity.ApiKey) error
	ListarPorEmisor(emisorID string) ([]*entity.ApiKey, error)
	GetPorHash(hash string) (*entity.ApiKey, error)
	// Revocar marca la llave como revocada; el booleano indica si existía y
	// pertenecía al emisor.
	Revocar(id, emisorID string) (bool, error)
	// TocarUso actualiza last_used_at; fallos se ignoran aguas arriba.
	TocarUso(id string) error
}
