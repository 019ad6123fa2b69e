package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/kipu-ec/kipu-api/internal/application/estructura"
	"github.com/kipu-ec/kipu-api/internal/application/facturacion"
)

// IntegracionesHandler maneja el canal autenticado por x-api-key: emisión
// síncrona, estado operativo y validación de estructura.
type IntegracionesHandler struct {
	facturas   *facturacion.Service
	estructura *estructura.Service
}

// NewIntegracionesHandler construye el handler de integraciones.
func NewIntegracionesHandler(facturas *facturacion.Service, estructura *estructura.Service) *IntegracionesHandler {
	return &IntegracionesHandler{facturas: facturas, estructura: estructura}
}

// Emitir godoc
// @Summary      Emitir factura (síncrono)
// @Description  Emite en una sola llamada: la respuesta llega con la factura FIRMADA y sus artefactos subidos.
// @Tags         integrations
// @Accept       json
// @Produce      json
// @Security     ApiKeyAuth
// @Param        body  body  facturacion.EntradaFactura  true  "factura a emitir"
// @Success      201  {object}  facturacion.ResultadoEmision
// @Failure      400  {object}  ErrorResponse
// @Failure      402  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Router       /integrations/invoice [post]
func (h *IntegracionesHandler) Emitir(c *fiber.Ctx) error {
	out, err := h.facturas.EmitirFactura(c.UserContext(), GetEmisorID(c), c.Body())
	if err != nil {
		return responderError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Estado godoc
// @Summary      Estado del emisor
// @Description  Saldo, contadores por estado y últimas 20 facturas.
// @Tags         integrations
// @Produce      json
// @Security     ApiKeyAuth
// @Success      200  {object}  facturacion.ResumenEmisor
// @Router       /integrations/status [get]
func (h *IntegracionesHandler) Estado(c *fiber.Ctx) error {
	out, err := h.facturas.Resumen(GetEmisorID(c))
	if err != nil {
		return responderError(c, err)
	}
	return c.JSON(out)
}

// Validar godoc
// @Summary      Validar par establecimiento/punto
// @Tags         integrations
// @Accept       json
// @Produce      json
// @Security     ApiKeyAuth
// @Param        body  body  cuerpoValidacion  true  "códigos a validar"
// @Success      200  {object}  estructura.ResultadoValidacion
// @Failure      400  {object}  ErrorResponse
// @Router       /integrations/validate [post]
func (h *IntegracionesHandler) Validar(c *fiber.Ctx) error {
	var in cuerpoValidacion
	if err := c.BodyParser(&in); err != nil {
		return cuerpoInvalido(c)
	}
	out, err := h.estructura.Validar(c.UserContext(), GetEmisorID(c), in.Establecimiento, in.PuntoEmision)
	if err != nil {
		return responderError(c, err)
	}
	return c.JSON(out)
}
