package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/kipu-ec/kipu-api/internal/application/auth"
)

// AuthHandler maneja la sincronización de perfiles y el alta de emisores.
type AuthHandler struct {
	svc *auth.Service
}

// NewAuthHandler construye el handler de auth.
func NewAuthHandler(svc *auth.Service) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// Sincronizar godoc
// @Summary      Sincronizar perfil
// @Description  Busca o crea el perfil del sujeto del token e indica si aún debe activar un RUC.
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  auth.PerfilSincronizado
// @Failure      401  {object}  ErrorResponse
// @Router       /auth/sync [post]
func (h *AuthHandler) Sincronizar(c *fiber.Ctx) error {
	out, err := h.svc.Sincronizar(c.UserContext(), GetUID(c), GetEmail(c), GetNombre(c))
	if err != nil {
		return responderError(c, err)
	}
	return c.JSON(out)
}

// ActivarRUC godoc
// @Summary      Activar RUC
// @Description  Crea el emisor con su establecimiento 001, punto 100 y créditos de cortesía.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  auth.EntradaActivacion  true  "ruc, razon_social, direccion_matriz"
// @Success      201  {object}  auth.EmisorActivado
// @Failure      400  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /auth/activar-ruc [post]
func (h *AuthHandler) ActivarRUC(c *fiber.Ctx) error {
	var in auth.EntradaActivacion
	if err := c.BodyParser(&in); err != nil {
		return cuerpoInvalido(c)
	}
	out, err := h.svc.ActivarRUC(c.UserContext(), GetUID(c), in)
	if err != nil {
		return responderError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}
