package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/kipu-ec/kipu-api/internal/domain"
)

// ErrorResponse es el cuerpo uniforme de error de la API.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// responderError traduce la taxonomía de errores del dominio a HTTP. Los
// servicios envuelven los centinelas con contexto, así que el mensaje llega
// utilizable; los errores fuera de la taxonomía son 500 con mensaje genérico
// para no filtrar detalles de infraestructura.
func responderError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrValidacion):
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errores(err, domain.ErrFirmaFaltante, domain.ErrFirmaExpirada, domain.ErrFirmaInvalida, domain.ErrRucNoCoincide):
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Code: "CERTIFICATE", Message: err.Error()})
	case errors.Is(err, domain.ErrNoAutorizado):
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{Code: "UNAUTHORIZED", Message: err.Error()})
	case errors.Is(err, domain.ErrCreditosInsuficientes):
		return c.Status(fiber.StatusPaymentRequired).JSON(ErrorResponse{Code: "INSUFFICIENT_CREDITS", Message: err.Error()})
	case errors.Is(err, domain.ErrProhibido):
		return c.Status(fiber.StatusForbidden).JSON(ErrorResponse{Code: "FORBIDDEN", Message: err.Error()})
	case errors.Is(err, domain.ErrNoEncontrado):
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
	case errors.Is(err, domain.ErrConflicto):
		return c.Status(fiber.StatusConflict).JSON(ErrorResponse{Code: "CONFLICT", Message: err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Code: "INTERNAL", Message: "error interno"})
	}
}

func errores(err error, objetivos ...error) bool {
	for _, objetivo := range objetivos {
		if errors.Is(err, objetivo) {
			return true
		}
	}
	return false
}

// cuerpoInvalido es la respuesta estándar cuando el JSON no parsea.
func cuerpoInvalido(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}
