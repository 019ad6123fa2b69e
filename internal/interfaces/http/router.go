package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/kipu-ec/kipu-api/internal/application/apikeys"
	"github.com/kipu-ec/kipu-api/internal/application/auth"
	"github.com/kipu-ec/kipu-api/internal/application/creditos"
	"github.com/kipu-ec/kipu-api/internal/application/emisor"
	"github.com/kipu-ec/kipu-api/internal/application/estructura"
	"github.com/kipu-ec/kipu-api/internal/application/facturacion"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Auth        *auth.Service
	Emisor      *emisor.Service
	Estructura  *estructura.Service
	Facturacion *facturacion.Service
	ApiKeys     *apikeys.Service
	Creditos    *creditos.Service
	JWTSecret   string
	N8NKey      string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", Health)

	// Descargas públicas por clave de acceso.
	publicoHandler := NewPublicoHandler(deps.Facturacion)
	publico := app.Group("/public")
	publico.Get("/pdf/:clave", publicoHandler.PDF)
	publico.Get("/xml/:clave", publicoHandler.XML)

	// Canal de integraciones (x-api-key).
	integracionesHandler := NewIntegracionesHandler(deps.Facturacion, deps.Estructura)
	integraciones := app.Group("/integrations", APIKeyMiddleware(deps.ApiKeys))
	integraciones.Post("/invoice", integracionesHandler.Emitir)
	integraciones.Get("/status", integracionesHandler.Estado)
	integraciones.Post("/validate", integracionesHandler.Validar)

	// Canal administrativo (x-n8n-key).
	adminHandler := NewAdminHandler(deps.Creditos)
	admin := app.Group("/admin", N8NMiddleware(deps.N8NKey))
	admin.Post("/topup", adminHandler.Recargar)
	admin.Get("/credits/:ruc", adminHandler.Estado)

	// Rutas con token del proveedor de identidad.
	bearer := app.Group("/", BearerMiddleware(deps.JWTSecret))

	authHandler := NewAuthHandler(deps.Auth)
	authGroup := bearer.Group("/auth")
	authGroup.Post("/sync", authHandler.Sincronizar)
	authGroup.Post("/activar-ruc", authHandler.ActivarRUC)

	emisorHandler := NewEmisorHandler(deps.Emisor)
	emitter := bearer.Group("/emitter")
	emitter.Get("/profile", emisorHandler.Perfil)
	emitter.Post("/upload-p12", emisorHandler.SubirP12)
	emitter.Patch("/config", emisorHandler.ActualizarConfig)

	// Rutas que operan sobre el emisor ya activo.
	conEmisor := bearer.Group("/", EmisorMiddleware(deps.Emisor))

	estructuraHandler := NewEstructuraHandler(deps.Estructura)
	structure := conEmisor.Group("/structure")
	structure.Get("/establishments", estructuraHandler.Establecimientos)
	structure.Post("/establishments", estructuraHandler.CrearEstablecimiento)
	structure.Get("/issuing-points", estructuraHandler.Puntos)
	structure.Post("/issuing-points", estructuraHandler.CrearPunto)
	structure.Get("/tree", estructuraHandler.Arbol)
	structure.Post("/validate", estructuraHandler.Validar)

	facturasHandler := NewFacturasHandler(deps.Facturacion)
	invoices := conEmisor.Group("/invoices")
	invoices.Post("/emit", facturasHandler.Emitir)
	invoices.Get("/history", facturasHandler.Historial)

	apiKeysHandler := NewApiKeysHandler(deps.ApiKeys)
	keys := conEmisor.Group("/keys")
	keys.Get("/", apiKeysHandler.Listar)
	keys.Post("/", apiKeysHandler.Crear)
	keys.Delete("/:id", apiKeysHandler.Revocar)
}
