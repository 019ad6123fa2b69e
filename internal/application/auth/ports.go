package auth

import (
	"context"

	"github.com/kipu-ec/kipu-api/internal/domain/repository"
)

// OnboardingTxRunner ejecuta el alta de emisor dentro de una transacción:
// perfil, emisor, estructura por defecto y saldo inicial nacen juntos o no
// nace ninguno.
type OnboardingTxRunner interface {
	RunOnboarding(ctx context.Context, fn func(
		perfiles repository.PerfilRepository,
		emisores repository.EmisorRepository,
		estructura repository.EstructuraRepository,
		creditos repository.CreditoRepository,
	) error) error
}
