package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/kipu-ec/kipu-api/internal/application/facturacion"
	"github.com/kipu-ec/kipu-api/internal/application/liquidacion"
	"github.com/kipu-ec/kipu-api/internal/infrastructure/email"
	"github.com/kipu-ec/kipu-api/internal/infrastructure/firma"
	"github.com/kipu-ec/kipu-api/internal/infrastructure/notify"
	infrapdf "github.com/kipu-ec/kipu-api/internal/infrastructure/pdf"
	"github.com/kipu-ec/kipu-api/internal/infrastructure/postgres"
	infrasri "github.com/kipu-ec/kipu-api/internal/infrastructure/sri"
	"github.com/kipu-ec/kipu-api/internal/infrastructure/storage"
	"github.com/kipu-ec/kipu-api/pkg/config"
	"github.com/kipu-ec/kipu-api/pkg/logger"
)

// El worker liquida comprobantes contra el SRI: firma los PENDIENTES, entrega
// los FIRMADOS al WS de recepción y consulta la autorización de los
// RECIBIDOS. Corre separado de la API para que los ciclos SOAP nunca compitan
// con el tráfico HTTP; varias réplicas conviven gracias al lote SKIP LOCKED.
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
		Str("debito", cfg.SRI.DebitoCredito).
		Msg("iniciando worker de liquidación")

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
	creditoRepo := postgres.NewCreditoRepository(pool)
	facturaRepo := postgres.NewFacturaRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	cifrador := firma.NewCifrador(cfg.Seguridad.EncryptionKey)
	boveda := firma.NewBovedaAlmacen(almacen, cifrador)

	// El servicio de facturación materializa los artefactos (XML firmado,
	// RIDE); el worker solo decide cuándo.
	facturacionSvc := facturacion.NewService(
		txRunner, facturaRepo, creditoRepo,
		infrasri.NewConstructorXML(), boveda, firma.NewFirmador(),
		infrapdf.NewGeneradorRIDE(), almacen,
		cfg.SRI, log,
	)

	worker := liquidacion.NewService(
		txRunner,
		facturacionSvc,
		emisorRepo,
		perfilRepo,
		infrasri.NewClienteSOAP(cfg.SRI.TimeoutSOAP),
		almacen,
		notify.NewNotificadorWebhook(cfg.SRI.WebhookURL, cfg.SRI.TimeoutWebhook, log),
		email.NewEnviadorSMTP(cfg.SMTP, log),
		cfg.SRI,
		cfg.Worker,
		log,
	)

	runCtx, cancel := context.WithCancel(ctx)
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Info().Msg("señal de apagado recibida, deteniendo worker...")
		cancel()
	}()

	worker.Ejecutar(runCtx)
	log.Info().Msg("worker detenido")
}
