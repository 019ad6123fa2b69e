package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	_ "github.com/kipu-ec/kipu-api/docs"
	"github.com/kipu-ec/kipu-api/internal/application/apikeys"
	"github.com/kipu-ec/kipu-api/internal/application/auth"
	"github.com/kipu-ec/kipu-api/internal/application/creditos"
	"github.com/kipu-ec/kipu-api/internal/application/emisor"
	"github.com/kipu-ec/kipu-api/internal/application/estructura"
	"github.com/kipu-ec/kipu-api/internal/application/facturacion"
	"github.com/kipu-ec/kipu-api/internal/infrastructure/firma"
	infrapdf "github.com/kipu-ec/kipu-api/internal/infrastructure/pdf"
	"github.com/kipu-ec/kipu-api/internal/infrastructure/postgres"
	infrasri "github.com/kipu-ec/kipu-api/internal/infrastructure/sri"
	"github.com/kipu-ec/kipu-api/internal/infrastructure/storage"
	httpRouter "github.com/kipu-ec/kipu-api/internal/interfaces/http"
	"github.com/kipu-ec/kipu-api/pkg/config"
	"github.com/kipu-ec/kipu-api/pkg/logger"
)

// @title        Kipu API
// @version      1.0
// @description  Facturación electrónica SRI Ecuador: emisión, firma XAdES-BES, autorización y RIDE.
//
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
//
// @securityDefinitions.apikey  ApiKeyAuth
// @in                          header
// @name                        x-api-key
//
// @securityDefinitions.apikey  N8NKeyAuth
// @in                          header
// @name                        x-n8n-key
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Ambiente: cfg.App.Env,
		Nivel:    cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando API")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	almacen, err := storage.NewAlmacenMinIO(cfg.MinIO)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a MinIO")
	}

	perfilRepo := postgres.NewPerfilRepository(pool)
	emisorRepo := postgres.NewEmisorRepository(pool)
	estructuraRepo := postgres.NewEstructuraRepository(pool)
	creditoRepo := postgres.NewCreditoRepository(pool)
	facturaRepo := postgres.NewFacturaRepository(pool)
	apiKeyRepo := postgres.NewApiKeyRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	cifrador := firma.NewCifrador(cfg.Seguridad.EncryptionKey)
	boveda := firma.NewBovedaAlmacen(almacen, cifrador)

	authSvc := auth.NewService(txRunner, perfilRepo, auth.Opciones{
		AmbienteDefecto:   cfg.SRI.AmbienteDefecto,
		CreditosIniciales: int64(cfg.Worker.CreditosIniciales),
	}, log)
	emisorSvc := emisor.NewService(perfilRepo, emisorRepo, creditoRepo, firma.CargadorPKCS12{}, cifrador, almacen, log)
	estructuraSvc := estructura.NewService(estructuraRepo, log)

	// La emisión síncrona (/integrations/invoice) firma en línea; la encolada
	// (/invoices/emit) deja la factura PENDIENTE para el worker.
	facturacionSvc := facturacion.NewService(
		txRunner, facturaRepo, creditoRepo,
		infrasri.NewConstructorXML(), boveda, firma.NewFirmador(),
		infrapdf.NewGeneradorRIDE(), almacen,
		cfg.SRI, log,
	)
	apikeysSvc := apikeys.NewService(apiKeyRepo, log)
	creditosSvc := creditos.NewService(txRunner, emisorRepo, creditoRepo, log)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Kipu API",
	}))

	httpRouter.Router(app, httpRouter.RouterDeps{
		Auth:        authSvc,
		Emisor:      emisorSvc,
		Estructura:  estructuraSvc,
		Facturacion: facturacionSvc,
		ApiKeys:     apikeysSvc,
		Creditos:    creditosSvc,
		JWTSecret:   cfg.JWT.Secret,
		N8NKey:      cfg.Seguridad.N8NAPIKey,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("API detenida")
}
