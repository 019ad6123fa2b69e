package http

import (
	"io"

	"github.com/gofiber/fiber/v2"

	"github.com/kipu-ec/kipu-api/internal/application/emisor"
)

// EmisorHandler maneja el perfil del emisor, su certificado y su configuración.
type EmisorHandler struct {
	svc *emisor.Service
}

// NewEmisorHandler construye el handler de emisor.
func NewEmisorHandler(svc *emisor.Service) *EmisorHandler {
	return &EmisorHandler{svc: svc}
}

// Perfil godoc
// @Summary      Perfil del emisor
// @Tags         emitter
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  emisor.PerfilEmisor
// @Failure      404  {object}  ErrorResponse
// @Router       /emitter/profile [get]
func (h *EmisorHandler) Perfil(c *fiber.Ctx) error {
	out, err := h.svc.Perfil(c.UserContext(), GetUID(c))
	if err != nil {
		return responderError(c, err)
	}
	return c.JSON(out)
}

// SubirP12 godoc
// @Summary      Cargar certificado P12
// @Description  Recibe el contenedor PKCS#12 y su contraseña; valida titularidad y vigencia antes de guardar.
// @Tags         emitter
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        archivo   formData  file    true  "contenedor .p12"
// @Param        password  formData  string  true  "contraseña del contenedor"
// @Success      200  {object}  emisor.CertificadoCargado
// @Failure      400  {object}  ErrorResponse
// @Router       /emitter/upload-p12 [post]
func (h *EmisorHandler) SubirP12(c *fiber.Ctx) error {
	fh, err := c.FormFile("archivo")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Code: "VALIDATION", Message: "falta el archivo del certificado (campo archivo)"})
	}
	archivo, err := fh.Open()
	if err != nil {
		return responderError(c, err)
	}
	defer archivo.Close()
	datos, err := io.ReadAll(archivo)
	if err != nil {
		return responderError(c, err)
	}

	out, err := h.svc.SubirP12(c.UserContext(), GetUID(c), datos, c.FormValue("password"))
	if err != nil {
		return responderError(c, err)
	}
	return c.JSON(out)
}

// ActualizarConfig godoc
// @Summary      Actualizar configuración
// @Description  Parche de ambiente, nombre comercial o dirección matriz; los campos vacíos conservan su valor.
// @Tags         emitter
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  emisor.EntradaConfig  true  "campos a modificar"
// @Success      200  {object}  emisor.PerfilEmisor
// @Failure      400  {object}  ErrorResponse
// @Router       /emitter/config [patch]
func (h *EmisorHandler) ActualizarConfig(c *fiber.Ctx) error {
	var in emisor.EntradaConfig
	if err := c.BodyParser(&in); err != nil {
		return cuerpoInvalido(c)
	}
	out, err := h.svc.ActualizarConfig(c.UserContext(), GetUID(c), in)
	if err != nil {
		return responderError(c, err)
	}
	return c.JSON(out)
}
