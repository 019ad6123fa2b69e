package entity

import "time"

// ApiKey es una llave de integración de un emisor. Solo se persiste el hash
// SHA-256 de la llave cruda; el prefijo se guarda aparte para mostrarla en
// listados sin revelar el secreto.
type ApiKey struct {
	ID         string
	EmisorID   string
	Nombre     string
	KeyHash    string // SHA-256 hex de la llave completa
	KeyPrefix  string // "kp_live_ab12" para identificación visual
	Revocada   bool
	LastUsedAt *time.Time
	CreatedAt  time.Time
}

// Activa reporta si la llave puede autenticar peticiones.
func (k *ApiKey) Activa() bool {
	return !k.Revocada
}
