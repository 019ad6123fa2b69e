package http

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/kipu-ec/kipu-api/internal/domain/entity"
	"github.com/kipu-ec/kipu-api/pkg/jwt"
)

// Locals keys cargadas por los middlewares de autenticación.
const (
	LocalUID    = "uid"
	LocalEmail  = "email"
	LocalNombre = "nombre"
	LocalEmisor = "emisor"
)

// BearerMiddleware valida el token del proveedor de identidad y deja uid,
// email y nombre en c.Locals. El token viene firmado con el secreto
// compartido (HS256); aquí solo se verifica, nunca se emite.
func BearerMiddleware(jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{Code: "MISSING_TOKEN", Message: "Authorization header requerido"})
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{Code: "INVALID_TOKEN", Message: "formato: Bearer <token>"})
		}
		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{Code: "MISSING_TOKEN", Message: "token vacío"})
		}
		claims, err := jwt.Parse(jwtSecret, tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{Code: "INVALID_TOKEN", Message: "token inválido o expirado"})
		}
		if claims.UID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{Code: "INVALID_TOKEN", Message: "token sin sujeto"})
		}
		c.Locals(LocalUID, claims.UID)
		c.Locals(LocalEmail, claims.Email)
		c.Locals(LocalNombre, claims.Nombre)
		return c.Next()
	}
}

// ResolutorEmisor traduce el uid autenticado al emisor activo; lo implementa
// el servicio de emisor.
type ResolutorEmisor interface {
	EmisorDe(ctx context.Context, uid string) (*entity.Emisor, error)
}

// EmisorMiddleware resuelve el emisor del sujeto autenticado y lo deja en
// c.Locals. Corre después de BearerMiddleware en las rutas que operan sobre
// el emisor (estructura, facturas, llaves); un perfil sin RUC activo recibe
// el 404 que indica completar el onboarding.
func EmisorMiddleware(resolutor ResolutorEmisor) fiber.Handler {
	return func(c *fiber.Ctx) error {
		emisor, err := resolutor.EmisorDe(c.UserContext(), GetUID(c))
		if err != nil {
			return responderError(c, err)
		}
		c.Locals(LocalEmisor, emisor)
		return c.Next()
	}
}

// GetUID devuelve el uid del sujeto autenticado (tras BearerMiddleware).
func GetUID(c *fiber.Ctx) string {
	s, _ := c.Locals(LocalUID).(string)
	return s
}

// GetEmail devuelve el correo del sujeto autenticado.
func GetEmail(c *fiber.Ctx) string {
	s, _ := c.Locals(LocalEmail).(string)
	return s
}

// GetNombre devuelve el nombre del sujeto autenticado.
func GetNombre(c *fiber.Ctx) string {
	s, _ := c.Locals(LocalNombre).(string)
	return s
}

// GetEmisor devuelve el emisor resuelto por EmisorMiddleware.
func GetEmisor(c *fiber.Ctx) *entity.Emisor {
	e, _ := c.Locals(LocalEmisor).(*entity.Emisor)
	return e
}
