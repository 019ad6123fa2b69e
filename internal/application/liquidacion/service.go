// Package liquidacion implementa el worker que liquida comprobantes contra el
// SRI: firma las facturas encoladas, entrega las firmadas al WS de recepción
// y consulta la autorización de las recibidas. Cada tick avanza la máquina de
// estados con transiciones compare-and-swap sobre un lote FOR UPDATE SKIP
// LOCKED, así varias réplicas del worker pueden convivir sin pisarse.
package liquidacion

import (
	"context"
	"io"
	"time"

	"github.com/kipu-ec/kipu-api/internal/domain/entity"
	"github.com/kipu-ec/kipu-api/internal/domain/repository"
	"github.com/kipu-ec/kipu-api/internal/infrastructure/email"
	"github.com/kipu-ec/kipu-api/internal/infrastructure/notify"
	"github.com/kipu-ec/kipu-api/internal/infrastructure/sri"
	"github.com/kipu-ec/kipu-api/internal/infrastructure/storage"
	"github.com/kipu-ec/kipu-api/pkg/config"
	"github.com/kipu-ec/kipu-api/pkg/logger"
	pkgsri "github.com/kipu-ec/kipu-api/pkg/sri"
)

// Service orquesta los dos ciclos del worker: envío (firma + recepción) y
// autorización.
type Service struct {
	tx          TxRunner
	artefactos  Materializador
	emisores    repository.EmisorRepository // solo lectura, fuera de transacción
	perfiles    repository.PerfilRepository
	cliente     sri.ClienteSRI
	almacen     storage.Almacen
	notificador notify.Notificador
	correo      email.Remitente

	debitoEager           bool
	lote                  int
	intervaloEnvio        time.Duration
	intervaloAutorizacion time.Duration

	log *logger.Logger
}

// NewService construye el worker. emisores y perfiles son los repos sin
// transacción para resolver destinatarios de notificaciones; las escrituras
// de estado pasan por tx.
func NewService(
	tx TxRunner,
	artefactos Materializador,
	emisores repository.EmisorRepository,
	perfiles repository.PerfilRepository,
	cliente sri.ClienteSRI,
	almacen storage.Almacen,
	notificador notify.Notificador,
	correo email.Remitente,
	cfg config.SRIConfig,
	worker config.WorkerConfig,
	log *logger.Logger,
) *Service {
	lote := worker.TamanoLote
	if lote <= 0 {
		lote = 15
	}
	envio := worker.IntervaloEnvio
	if envio <= 0 {
		envio = 20 * time.Second
	}
	autorizacion := worker.IntervaloAutorizacion
	if autorizacion <= 0 {
		autorizacion = time.Minute
	}

	return &Service{
		tx:                    tx,
		artefactos:            artefactos,
		emisores:              emisores,
		perfiles:              perfiles,
		cliente:               cliente,
		almacen:               almacen,
		notificador:           notificador,
		correo:                correo,
		debitoEager:           cfg.DebitoEager(),
		lote:                  lote,
		intervaloEnvio:        envio,
		intervaloAutorizacion: autorizacion,
		log:                   log.Componente("liquidacion"),
	}
}

// Ejecutar corre ambos ciclos hasta que el contexto se cancele. Un solo
// goroutine atiende los dos tickers, de modo que un ciclo largo nunca se
// solapa con el siguiente.
func (s *Service) Ejecutar(ctx context.Context) {
	envio := time.NewTicker(s.intervaloEnvio)
	defer envio.Stop()
	autorizacion := time.NewTicker(s.intervaloAutorizacion)
	defer autorizacion.Stop()

	s.log.Info().
		Dur("intervalo_envio", s.intervaloEnvio).
		Dur("intervalo_autorizacion", s.intervaloAutorizacion).
		Int("lote", s.lote).
		Msg("worker de liquidación iniciado")

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("worker de liquidación detenido")
			return
		case <-envio.C:
			s.CicloEnvio(ctx)
		case <-autorizacion.C:
			s.CicloAutorizacion(ctx)
		}
	}
}

// despacho es una notificación diferida: el evento se arma dentro de la
// transacción pero se entrega después del commit, para no anunciar
// transiciones que terminen en rollback.
type despacho struct {
	emisorID string
	evento   notify.EventoFactura
	correo   *email.Comprobante
}

func (s *Service) despachar(ctx context.Context, pendientes []despacho) {
	for _, d := range pendientes {
		d.evento.UserUID = s.uidDe(d.emisorID)
		s.notificador.NotificarEstado(ctx, d.evento)
		if d.correo != nil {
			s.correo.EnviarComprobante(ctx, *d.correo)
		}
	}
}

// uidDe resuelve el UID del dueño del emisor para el webhook. Un fallo aquí
// no bloquea la entrega: el evento sale con el UID vacío.
func (s *Service) uidDe(emisorID string) string {
	emisor, err := s.emisores.GetByID(emisorID)
	if err != nil || emisor == nil {
		s.log.Warn().Err(err).Str("emisor_id", emisorID).Msg("emisor no resuelto para notificación")
		return ""
	}
	perfil, err := s.perfiles.GetByID(emisor.PerfilID)
	if err != nil || perfil == nil {
		s.log.Warn().Err(err).Str("emisor_id", emisorID).Msg("perfil no resuelto para notificación")
		return ""
	}
	return perfil.UID
}

func nuevoEvento(f *entity.Factura, estado, mensajes string) notify.EventoFactura {
	return notify.EventoFactura{
		InvoiceID:   f.ID,
		ClaveAcceso: f.ClaveAcceso,
		Estado:      estado,
		MensajeSRI:  mensajes,
		Fecha:       time.Now(),
	}
}

// ambienteDeClave extrae el dígito de ambiente embebido en la clave de
// acceso. Los WS deben coincidir con el ambiente con el que se firmó el
// comprobante, no con el ambiente actual del emisor.
func ambienteDeClave(clave string) string {
	if len(clave) != pkgsri.LongitudClaveAcceso {
		return entity.AmbientePruebas
	}
	return clave[23:24]
}

func (s *Service) descargarXML(ctx context.Context, ruta string) ([]byte, error) {
	bucket, objeto, err := storage.PartirRuta(ruta)
	if err != nil {
		return nil, err
	}
	rc, err := s.almacen.Descargar(ctx, bucket, objeto)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
