package repository

import "github.com/kipu-ec/kipu-api/internal/domain/entity"

// PerfilRepository define el puerto de persistencia para los perfiles de
// usuario del proveedor de identidad.
type PerfilRepository interface {
	Crear(p *entity.Perfil) error
	GetByUID(uid string) (*entity.Perfil, error)
	GetByID(id string) (*entity.Perfil, error)
	// VincularEmisor asocia el emisor recién activado al perfil.
	VincularEmisor(perfilID, emisorID string) error
}
