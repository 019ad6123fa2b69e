package entity

import "time"

// Perfil es la cuenta de un usuario autenticado por el proveedor de
// identidad. Un perfil tiene a lo sumo un emisor activo.
type Perfil struct {
	ID        string
	UID       string // identificador del proveedor de identidad
	Email     string
	Nombre    string
	EmisorID  string // vacío hasta activar un RUC
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RequiereOnboarding reporta si el perfil aún no tiene RUC activado.
func (p *Perfil) RequiereOnboarding() bool {
	return p.EmisorID == ""
}
