package http

import (
	"context"
	"fmt"
	"io"

	"github.com/gofiber/fiber/v2"

	"github.com/kipu-ec/kipu-api/internal/domain"
	"github.com/kipu-ec/kipu-api/internal/domain/entity"
)

// Descargas es lo que la descarga pública necesita de la facturación:
// resolver la factura por clave de acceso y abrir sus artefactos.
type Descargas interface {
	PorClaveAcceso(clave string) (*entity.Factura, error)
	AbrirArtefacto(ctx context.Context, ruta string) (io.ReadCloser, error)
}

// PublicoHandler sirve los artefactos por clave de acceso sin autenticación:
// la clave de 49 dígitos es el capability token que el comprador recibe.
type PublicoHandler struct {
	descargas Descargas
}

// NewPublicoHandler construye el handler público.
func NewPublicoHandler(descargas Descargas) *PublicoHandler {
	return &PublicoHandler{descargas: descargas}
}

// PDF godoc
// @Summary      Descargar RIDE
// @Description  Entrega el RIDE (PDF) del comprobante por su clave de acceso.
// @Tags         public
// @Produce      application/pdf
// @Param        clave  path  string  true  "clave de acceso (49 dígitos)"
// @Success      200  {file}  binary
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /public/pdf/{clave} [get]
func (h *PublicoHandler) PDF(c *fiber.Ctx) error {
	return h.servir(c, "application/pdf", ".pdf", func(f *entity.Factura) string { return f.PDFPath })
}

// XML godoc
// @Summary      Descargar XML
// @Description  Entrega el XML del comprobante (autorizado si ya lo está, firmado si no).
// @Tags         public
// @Produce      application/xml
// @Param        clave  path  string  true  "clave de acceso (49 dígitos)"
// @Success      200  {file}  binary
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /public/xml/{clave} [get]
func (h *PublicoHandler) XML(c *fiber.Ctx) error {
	return h.servir(c, "application/xml", ".xml", func(f *entity.Factura) string { return f.XMLPath })
}

func (h *PublicoHandler) servir(c *fiber.Ctx, contentType, extension string, ruta func(*entity.Factura) string) error {
	clave := c.Params("clave")
	f, err := h.descargas.PorClaveAcceso(clave)
	if err != nil {
		return responderError(c, err)
	}
	if f == nil {
		return responderError(c, fmt.Errorf("%w: comprobante %s", domain.ErrNoEncontrado, clave))
	}
	lector, err := h.descargas.AbrirArtefacto(c.UserContext(), ruta(f))
	if err != nil {
		return responderError(c, err)
	}
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderContentDisposition, `inline; filename="`+clave+extension+`"`)
	// SendStream cierra el lector al terminar de copiar.
	return c.SendStream(lector)
}
