package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/kipu-ec/kipu-api/internal/application/estructura"
)

// EstructuraHandler maneja establecimientos, puntos de emisión y su
// validación. Todas las rutas corren tras EmisorMiddleware.
type EstructuraHandler struct {
	svc *estructura.Service
}

// NewEstructuraHandler construye el handler de estructura.
func NewEstructuraHandler(svc *estructura.Service) *EstructuraHandler {
	return &EstructuraHandler{svc: svc}
}

// cuerpoValidacion es el cuerpo de /structure/validate y /integrations/validate.
type cuerpoValidacion struct {
	Establecimiento string `json:"establecimiento"`
	PuntoEmision    string `json:"punto_emision"`
}

// Establecimientos godoc
// @Summary      Listar establecimientos
// @Tags         structure
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  estructura.EstablecimientoDTO
// @Router       /structure/establishments [get]
func (h *EstructuraHandler) Establecimientos(c *fiber.Ctx) error {
	out, err := h.svc.Establecimientos(c.UserContext(), GetEmisor(c).ID)
	if err != nil {
		return responderError(c, err)
	}
	return c.JSON(out)
}

// CrearEstablecimiento godoc
// @Summary      Crear establecimiento
// @Tags         structure
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  estructura.EntradaEstablecimiento  true  "codigo de 3 dígitos, direccion opcional"
// @Success      201  {object}  estructura.EstablecimientoDTO
// @Failure      400  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /structure/establishments [post]
func (h *EstructuraHandler) CrearEstablecimiento(c *fiber.Ctx) error {
	var in estructura.EntradaEstablecimiento
	if err := c.BodyParser(&in); err != nil {
		return cuerpoInvalido(c)
	}
	out, err := h.svc.CrearEstablecimiento(c.UserContext(), GetEmisor(c).ID, in)
	if err != nil {
		return responderError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Puntos godoc
// @Summary      Listar puntos de emisión
// @Tags         structure
// @Produce      json
// @Security     BearerAuth
// @Param        establecimiento  query  string  false  "acotar a un establecimiento (código)"
// @Success      200  {array}  estructura.PuntoDTO
// @Router       /structure/issuing-points [get]
func (h *EstructuraHandler) Puntos(c *fiber.Ctx) error {
	out, err := h.svc.Puntos(c.UserContext(), GetEmisor(c).ID, c.Query("establecimiento"))
	if err != nil {
		return responderError(c, err)
	}
	return c.JSON(out)
}

// CrearPunto godoc
// @Summary      Crear punto de emisión
// @Tags         structure
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  estructura.EntradaPunto  true  "establecimiento padre y código del punto"
// @Success      201  {object}  estructura.PuntoDTO
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /structure/issuing-points [post]
func (h *EstructuraHandler) CrearPunto(c *fiber.Ctx) error {
	var in estructura.EntradaPunto
	if err := c.BodyParser(&in); err != nil {
		return cuerpoInvalido(c)
	}
	out, err := h.svc.CrearPunto(c.UserContext(), GetEmisor(c).ID, in)
	if err != nil {
		return responderError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Arbol godoc
// @Summary      Árbol de estructura
// @Tags         structure
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  estructura.NodoEstablecimiento
// @Router       /structure/tree [get]
func (h *EstructuraHandler) Arbol(c *fiber.Ctx) error {
	out, err := h.svc.Arbol(c.UserContext(), GetEmisor(c).ID)
	if err != nil {
		return responderError(c, err)
	}
	return c.JSON(out)
}

// Validar godoc
// @Summary      Validar par establecimiento/punto
// @Tags         structure
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  cuerpoValidacion  true  "códigos a validar"
// @Success      200  {object}  estructura.ResultadoValidacion
// @Failure      400  {object}  ErrorResponse
// @Router       /structure/validate [post]
func (h *EstructuraHandler) Validar(c *fiber.Ctx) error {
	var in cuerpoValidacion
	if err := c.BodyParser(&in); err != nil {
		return cuerpoInvalido(c)
	}
	out, err := h.svc.Validar(c.UserContext(), GetEmisor(c).ID, in.Establecimiento, in.PuntoEmision)
	if err != nil {
		return responderError(c, err)
	}
	return c.JSON(out)
}
