package liquidacion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kipu-ec/kipu-api/internal/domain"
	"github.com/kipu-ec/kipu-api/internal/domain/entity"
	"github.com/kipu-ec/kipu-api/internal/domain/repository"
	"github.com/kipu-ec/kipu-api/internal/infrastructure/sri"
)

// CicloEnvio es el tick de envío: primero firma las facturas PENDIENTE y
// luego entrega las FIRMADO al WS de recepción. Cada fase corre en su propia
// transacción.
func (s *Service) CicloEnvio(ctx context.Context) {
	s.firmarPendientes(ctx)
	s.enviarFirmadas(ctx)
}

// firmarPendientes materializa los artefactos de las facturas encoladas. Un
// fallo por fila (certificado vencido, store caído) deja la fila en PENDIENTE
// y el próximo tick la reintenta; las subidas son idempotentes por ruta.
func (s *Service) firmarPendientes(ctx context.Context) {
	err := s.tx.Run(ctx, func(
		emisores repository.EmisorRepository,
		_ repository.EstructuraRepository,
		_ repository.CreditoRepository,
		facturas repository.FacturaRepository,
	) error {
		filas, err := facturas.ListarPorEstado(entity.EstadoPendiente, s.lote)
		if err != nil {
			return err
		}
		for _, f := range filas {
			if err := s.firmarUna(ctx, emisores, facturas, f); err != nil {
				s.log.Warn().Err(err).
					Str("factura_id", f.ID).
					Str("clave_acceso", f.ClaveAcceso).
					Msg("firma diferida")
			}
		}
		return nil
	})
	if err != nil {
		s.log.Error().Err(err).Msg("ciclo de firma fallido")
	}
}

func (s *Service) firmarUna(ctx context.Context, emisores repository.EmisorRepository, facturas repository.FacturaRepository, f *entity.Factura) error {
	emisor, err := emisores.GetByID(f.EmisorID)
	if err != nil {
		return err
	}
	if emisor == nil {
		return fmt.Errorf("%w: emisor %s", domain.ErrNoEncontrado, f.EmisorID)
	}
	if err := emisor.PuedeEmitir(time.Now()); err != nil {
		return err
	}

	rutaXML, rutaPDF, err := s.artefactos.FirmarComprobante(ctx, emisor, f)
	if err != nil {
		return err
	}
	avanzo, err := facturas.MarcarFirmada(f.ID, rutaXML, rutaPDF)
	if err != nil {
		return err
	}
	if avanzo {
		s.log.Info().
			Str("factura_id", f.ID).
			Str("clave_acceso", f.ClaveAcceso).
			Msg("comprobante firmado")
	}
	return nil
}

// enviarFirmadas entrega el lote FIRMADO a recepción. Con el WS caído se
// pospone el resto del lote; las filas ya avanzadas en esta transacción se
// confirman igual.
func (s *Service) enviarFirmadas(ctx context.Context) {
	var pendientes []despacho
	err := s.tx.Run(ctx, func(
		_ repository.EmisorRepository,
		_ repository.EstructuraRepository,
		_ repository.CreditoRepository,
		facturas repository.FacturaRepository,
	) error {
		filas, err := facturas.ListarPorEstado(entity.EstadoFirmado, s.lote)
		if err != nil {
			return err
		}
		for _, f := range filas {
			d, err := s.enviarUna(ctx, facturas, f)
			if err != nil {
				if errors.Is(err, domain.ErrSRINoDisponible) {
					s.log.Warn().Err(err).Msg("recepción SRI no disponible, lote pospuesto")
					return nil
				}
				s.log.Warn().Err(err).
					Str("factura_id", f.ID).
					Str("clave_acceso", f.ClaveAcceso).
					Msg("envío diferido")
				continue
			}
			if d != nil {
				pendientes = append(pendientes, *d)
			}
		}
		return nil
	})
	if err != nil {
		s.log.Error().Err(err).Msg("ciclo de envío fallido")
		return
	}
	s.despachar(ctx, pendientes)
}

// enviarUna entrega un comprobante firmado a recepción. RECIBIDA avanza la
// fila sin notificar; DEVUELTA la aparta del flujo y produce el evento.
func (s *Service) enviarUna(ctx context.Context, facturas repository.FacturaRepository, f *entity.Factura) (*despacho, error) {
	firmado, err := s.descargarXML(ctx, f.XMLPath)
	if err != nil {
		return nil, err
	}

	res, err := s.cliente.EnviarRecepcion(ctx, firmado, ambienteDeClave(f.ClaveAcceso))
	if err != nil {
		return nil, err
	}

	if res.Estado == sri.EstadoRecibida {
		avanzo, err := facturas.MarcarRecibida(f.ID, time.Now(), res.Mensajes)
		if err != nil {
			return nil, err
		}
		if avanzo {
			s.log.Info().
				Str("factura_id", f.ID).
				Str("clave_acceso", f.ClaveAcceso).
				Msg("comprobante recibido por el SRI")
		}
		return nil, nil
	}

	avanzo, err := facturas.MarcarDevuelta(f.ID, res.Mensajes)
	if err != nil {
		return nil, err
	}
	if !avanzo {
		return nil, nil
	}
	s.log.Warn().
		Str("factura_id", f.ID).
		Str("clave_acceso", f.ClaveAcceso).
		Str("mensajes", res.Mensajes).
		Msg("comprobante devuelto en recepción")

	return &despacho{
		emisorID: f.EmisorID,
		evento:   nuevoEvento(f, entity.EstadoDevuelta, res.Mensajes),
	}, nil
}
