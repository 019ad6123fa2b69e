// Package apikeys emite y verifica las llaves de integración con las que los
// sistemas externos (ERP, n8n, tiendas) consumen /integrations/* sin pasar
// por el inicio de sesión. La llave cruda se muestra una sola vez; en la base
// solo vive su SHA-256.
package apikeys

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/kipu-ec/kipu-api/internal/domain"
	"github.com/kipu-ec/kipu-api/internal/domain/entity"
	"github.com/kipu-ec/kipu-api/internal/domain/repository"
	"github.com/kipu-ec/kipu-api/pkg/logger"
)

// PrefijoLlave identifica las llaves de este servicio en logs y paneles de
// integradores sin revelar el secreto.
const PrefijoLlave = "kp_live_"

// bytesSecreto produce 48 caracteres hex tras el prefijo.
const bytesSecreto = 24

const maxNombre = 100

// Service implementa /keys y la autenticación por x-api-key.
type Service struct {
	repo repository.ApiKeyRepository
	log  *logger.Logger
}

func NewService(repo repository.ApiKeyRepository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log.Componente("apikeys")}
}

// EntradaLlave es el cuerpo de POST /keys.
type EntradaLlave struct {
	Nombre string `json:"nombre"`
}

// LlaveCreada es la respuesta de POST /keys. Llave lleva el secreto completo
// y es la única vez que el servicio lo devuelve.
type LlaveCreada struct {
	ID       string    `json:"id"`
	Nombre   string    `json:"nombre"`
	Llave    string    `json:"llave"`
	Prefijo  string    `json:"prefijo"`
	CreadaEn time.Time `json:"creada_en"`
}

// LlaveDTO es la vista de listado: identifica la llave por su prefijo sin
// exponer hash ni secreto.
type LlaveDTO struct {
	ID        string     `json:"id"`
	Nombre    string     `json:"nombre"`
	Prefijo   string     `json:"prefijo"`
	Revocada  bool       `json:"revocada"`
	UltimoUso *time.Time `json:"ultimo_uso,omitempty"`
	CreadaEn  time.Time  `json:"creada_en"`
}

// Crear genera una llave nueva para el emisor y devuelve el secreto completo.
// Quien lo pierda debe revocar la llave y crear otra; no hay recuperación.
func (s *Service) Crear(ctx context.Context, emisorID string, in EntradaLlave) (*LlaveCreada, error) {
	nombre := strings.TrimSpace(in.Nombre)
	if nombre == "" {
		return nil, fmt.Errorf("%w: nombre es obligatorio", domain.ErrValidacion)
	}
	if len(nombre) > maxNombre {
		return nil, fmt.Errorf("%w: nombre supera %d caracteres", domain.ErrValidacion, maxNombre)
	}

	cruda, err := generarLlave()
	if err != nil {
		return nil, fmt.Errorf("generar llave: %w", err)
	}
	k := &entity.ApiKey{
		EmisorID:  emisorID,
		Nombre:    nombre,
		KeyHash:   HashLlave(cruda),
		KeyPrefix: cruda[:len(PrefijoLlave)+4],
	}
	if err := s.repo.Crear(k); err != nil {
		return nil, err
	}
	s.log.Info().
		Str("emisor_id", emisorID).
		Str("key_prefix", k.KeyPrefix).
		Msg("llave de integración creada")
	if k.CreatedAt.IsZero() {
		k.CreatedAt = time.Now()
	}
	return &LlaveCreada{
		ID:       k.ID,
		Nombre:   k.Nombre,
		Llave:    cruda,
		Prefijo:  k.KeyPrefix,
		CreadaEn: k.CreatedAt,
	}, nil
}

// Listar devuelve las llaves del emisor, revocadas incluidas.
func (s *Service) Listar(ctx context.Context, emisorID string) ([]*LlaveDTO, error) {
	llaves, err := s.repo.ListarPorEmisor(emisorID)
	if err != nil {
		return nil, err
	}
	out := make([]*LlaveDTO, 0, len(llaves))
	for _, k := range llaves {
		out = append(out, &LlaveDTO{
			ID:        k.ID,
			Nombre:    k.Nombre,
			Prefijo:   k.KeyPrefix,
			Revocada:  k.Revocada,
			UltimoUso: k.LastUsedAt,
			CreadaEn:  k.CreatedAt,
		})
	}
	return out, nil
}

// Revocar deja la llave inutilizable de inmediato. La fila se conserva para
// el historial del emisor.
func (s *Service) Revocar(ctx context.Context, emisorID, id string) error {
	ok, err := s.repo.Revocar(id, emisorID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: llave %s", domain.ErrNoEncontrado, id)
	}
	s.log.Info().
		Str("emisor_id", emisorID).
		Str("key_id", id).
		Msg("llave de integración revocada")
	return nil
}

// Autenticar resuelve la llave cruda de x-api-key. Llave desconocida o
// revocada es acceso denegado; el middleware lo traduce a 403. El último uso
// se marca al vuelo y sus fallos no tumban la petición.
func (s *Service) Autenticar(ctx context.Context, cruda string) (*entity.ApiKey, error) {
	if cruda == "" {
		return nil, fmt.Errorf("%w: falta la cabecera x-api-key", domain.ErrProhibido)
	}
	k, err := s.repo.GetPorHash(HashLlave(cruda))
	if err != nil {
		return nil, err
	}
	if k == nil {
		return nil, fmt.Errorf("%w: llave desconocida", domain.ErrProhibido)
	}
	if !k.Activa() {
		return nil, fmt.Errorf("%w: llave revocada", domain.ErrProhibido)
	}
	if err := s.repo.TocarUso(k.ID); err != nil {
		s.log.Warn().Err(err).Str("key_id", k.ID).Msg("no se pudo marcar el último uso de la llave")
	}
	return k, nil
}

// HashLlave calcula el SHA-256 hex con el que la llave se persiste y busca.
func HashLlave(cruda string) string {
	sum := sha256.Sum256([]byte(cruda))
	return hex.EncodeToString(sum[:])
}

func generarLlave() (string, error) {
	buf := make([]byte, bytesSecreto)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return PrefijoLlave + hex.EncodeToString(buf), nil
}
