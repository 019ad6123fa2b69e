package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/kipu-ec/kipu-api/internal/domain/entity"
)

// Locals keys del canal de integraciones.
const (
	LocalEmisorID = "emisor_id"
	LocalApiKeyID = "api_key_id"
)

// HeaderAPIKey es la cabecera del canal de integraciones.
const HeaderAPIKey = "x-api-key"

// AutenticadorLlaves valida la llave cruda de x-api-key; lo implementa el
// servicio de llaves de integración.
type AutenticadorLlaves interface {
	Autenticar(ctx context.Context, cruda string) (*entity.ApiKey, error)
}

// APIKeyMiddleware autentica las rutas /integrations con x-api-key y deja el
// emisor dueño de la llave en c.Locals. Llave ausente, desconocida o revocada
// es 403: el canal no distingue para no regalar información al que sondea.
func APIKeyMiddleware(autenticador AutenticadorLlaves) fiber.Handler {
	return func(c *fiber.Ctx) error {
		llave, err := autenticador.Autenticar(c.UserContext(), c.Get(HeaderAPIKey))
		if err != nil {
			return responderError(c, err)
		}
		c.Locals(LocalEmisorID, llave.EmisorID)
		c.Locals(LocalApiKeyID, llave.ID)
		return c.Next()
	}
}

// GetEmisorID devuelve el emisor autenticado por llave (tras APIKeyMiddleware).
func GetEmisorID(c *fiber.Ctx) string {
	s, _ := c.Locals(LocalEmisorID).(string)
	return s
}
