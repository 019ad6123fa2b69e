package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/kipu-ec/kipu-api/internal/application/facturacion"
)

// FacturasHandler maneja la emisión encolada y el historial del emisor
// autenticado por bearer.
type FacturasHandler struct {
	svc *facturacion.Service
}

// NewFacturasHandler construye el handler de facturas.
func NewFacturasHandler(svc *facturacion.Service) *FacturasHandler {
	return &FacturasHandler{svc: svc}
}

// Emitir godoc
// @Summary      Encolar factura
// @Description  Valida, asigna secuencial y clave de acceso y deja la factura PENDIENTE; el worker la firma y la liquida ante el SRI.
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  facturacion.EntradaFactura  true  "factura a emitir"
// @Success      202  {object}  facturacion.ResultadoEmision
// @Failure      400  {object}  ErrorResponse
// @Failure      402  {object}  ErrorResponse
// @Router       /invoices/emit [post]
func (h *FacturasHandler) Emitir(c *fiber.Ctx) error {
	out, err := h.svc.EncolarFactura(c.UserContext(), GetEmisor(c).ID, c.Body())
	if err != nil {
		return responderError(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(out)
}

// Historial godoc
// @Summary      Historial de facturas
// @Description  Últimas 50 facturas del emisor, más recientes primero.
// @Tags         invoices
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  facturacion.FacturaVista
// @Router       /invoices/history [get]
func (h *FacturasHandler) Historial(c *fiber.Ctx) error {
	out, err := h.svc.Historial(GetEmisor(c).ID)
	if err != nil {
		return responderError(c, err)
	}
	return c.JSON(out)
}
