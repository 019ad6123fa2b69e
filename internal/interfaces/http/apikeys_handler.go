package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/kipu-ec/kipu-api/internal/application/apikeys"
)

// ApiKeysHandler maneja el ciclo de vida de las llaves de integración.
type ApiKeysHandler struct {
	svc *apikeys.Service
}

// NewApiKeysHandler construye el handler de llaves.
func NewApiKeysHandler(svc *apikeys.Service) *ApiKeysHandler {
	return &ApiKeysHandler{svc: svc}
}

// Listar godoc
// @Summary      Listar llaves
// @Description  Llaves del emisor identificadas por prefijo; el secreto nunca vuelve a mostrarse.
// @Tags         keys
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  apikeys.LlaveDTO
// @Router       /keys [get]
func (h *ApiKeysHandler) Listar(c *fiber.Ctx) error {
	out, err := h.svc.Listar(c.UserContext(), GetEmisor(c).ID)
	if err != nil {
		return responderError(c, err)
	}
	return c.JSON(out)
}

// Crear godoc
// @Summary      Crear llave
// @Description  Genera una llave kp_live_…; la respuesta es la única vez que el secreto completo se entrega.
// @Tags         keys
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  apikeys.EntradaLlave  true  "nombre descriptivo"
// @Success      201  {object}  apikeys.LlaveCreada
// @Failure      400  {object}  ErrorResponse
// @Router       /keys [post]
func (h *ApiKeysHandler) Crear(c *fiber.Ctx) error {
	var in apikeys.EntradaLlave
	if err := c.BodyParser(&in); err != nil {
		return cuerpoInvalido(c)
	}
	out, err := h.svc.Crear(c.UserContext(), GetEmisor(c).ID, in)
	if err != nil {
		return responderError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Revocar godoc
// @Summary      Revocar llave
// @Tags         keys
// @Security     BearerAuth
// @Param        id  path  string  true  "id de la llave"
// @Success      204
// @Failure      404  {object}  ErrorResponse
// @Router       /keys/{id} [delete]
func (h *ApiKeysHandler) Revocar(c *fiber.Ctx) error {
	if err := h.svc.Revocar(c.UserContext(), GetEmisor(c).ID, c.Params("id")); err != nil {
		return responderError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
