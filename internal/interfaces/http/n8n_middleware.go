package http

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
)

// HeaderN8NKey es la cabecera del canal administrativo (flujos n8n).
const HeaderN8NKey = "x-n8n-key"

// N8NMiddleware protege las rutas /admin con el secreto compartido del canal
// administrativo. La comparación es de tiempo constante; con el secreto sin
// configurar el canal queda cerrado.
func N8NMiddleware(secreto string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if secreto == "" {
			return c.Status(fiber.StatusForbidden).JSON(ErrorResponse{Code: "FORBIDDEN", Message: "canal administrativo deshabilitado"})
		}
		entregado := c.Get(HeaderN8NKey)
		if subtle.ConstantTimeCompare([]byte(entregado), []byte(secreto)) != 1 {
			return c.Status(fiber.StatusForbidden).JSON(ErrorResponse{Code: "FORBIDDEN", Message: "llave de servicio inválida"})
		}
		return c.Next()
	}
}
