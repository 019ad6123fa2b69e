package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

var inicio = time.Now()

// Health godoc
// @Summary      Salud del servicio
// @Tags         public
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "ok",
		"uptime":    time.Since(inicio).Round(time.Second).String(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
