package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/kipu-ec/kipu-api/internal/application/creditos"
)

// AdminHandler maneja el canal administrativo guardado por x-n8n-key.
type AdminHandler struct {
	svc *creditos.Service
}

// NewAdminHandler construye el handler administrativo.
func NewAdminHandler(svc *creditos.Service) *AdminHandler {
	return &AdminHandler{svc: svc}
}

// Recargar godoc
// @Summary      Recargar créditos
// @Description  Acredita emisiones al emisor por RUC con registro de auditoría; lo invoca el flujo de cobro tras confirmar un pago.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     N8NKeyAuth
// @Param        body  body  creditos.EntradaRecarga  true  "ruc, cantidad, referencia del pago"
// @Success      200  {object}  creditos.ResultadoRecarga
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /admin/topup [post]
func (h *AdminHandler) Recargar(c *fiber.Ctx) error {
	var in creditos.EntradaRecarga
	if err := c.BodyParser(&in); err != nil {
		return cuerpoInvalido(c)
	}
	out, err := h.svc.Recargar(c.UserContext(), in)
	if err != nil {
		return responderError(c, err)
	}
	return c.JSON(out)
}

// Estado godoc
// @Summary      Saldo y libro de créditos
// @Tags         admin
// @Produce      json
// @Security     N8NKeyAuth
// @Param        ruc     path   string  true   "RUC del emisor"
// @Param        limite  query  int     false  "movimientos a devolver (20 por defecto)"
// @Success      200  {object}  creditos.EstadoCreditos
// @Failure      404  {object}  ErrorResponse
// @Router       /admin/credits/{ruc} [get]
func (h *AdminHandler) Estado(c *fiber.Ctx) error {
	out, err := h.svc.Estado(c.UserContext(), c.Params("ruc"), c.QueryInt("limite"))
	if err != nil {
		return responderError(c, err)
	}
	return c.JSON(out)
}
