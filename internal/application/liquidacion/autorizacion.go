package liquidacion

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kipu-ec/kipu-api/internal/domain"
	"github.com/kipu-ec/kipu-api/internal/domain/entity"
	"github.com/kipu-ec/kipu-api/internal/domain/repository"
	"github.com/kipu-ec/kipu-api/internal/infrastructure/email"
	"github.com/kipu-ec/kipu-api/internal/infrastructure/sri"
	"github.com/kipu-ec/kipu-api/internal/infrastructure/storage"
)

// CicloAutorizacion es el tick de autorización: consulta al SRI cada factura
// RECIBIDA del lote y la liquida según el veredicto. AUTORIZADO guarda el XML
// autorizado, regenera el RIDE y con política lazy debita el crédito;
// NO AUTORIZADO marca RECHAZADO; EN PROCESO deja la fila para el próximo
// tick; cualquier otro estado se registra sin mover la fila.
func (s *Service) CicloAutorizacion(ctx context.Context) {
	var pendientes []despacho
	err := s.tx.Run(ctx, func(
		emisores repository.EmisorRepository,
		_ repository.EstructuraRepository,
		creditos repository.CreditoRepository,
		facturas repository.FacturaRepository,
	) error {
		filas, err := facturas.ListarPorEstado(entity.EstadoRecibida, s.lote)
		if err != nil {
			return err
		}
		for _, f := range filas {
			d, err := s.autorizarUna(ctx, emisores, creditos, facturas, f)
			if err != nil {
				if errors.Is(err, domain.ErrSRINoDisponible) {
					s.log.Warn().Err(err).Msg("autorización SRI no disponible, lote pospuesto")
					return nil
				}
				s.log.Warn().Err(err).
					Str("factura_id", f.ID).
					Str("clave_acceso", f.ClaveAcceso).
					Msg("autorización diferida")
				continue
			}
			if d != nil {
				pendientes = append(pendientes, *d)
			}
		}
		return nil
	})
	if err != nil {
		s.log.Error().Err(err).Msg("ciclo de autorización fallido")
		return
	}
	s.despachar(ctx, pendientes)
}

func (s *Service) autorizarUna(
	ctx context.Context,
	emisores repository.EmisorRepository,
	creditos repository.CreditoRepository,
	facturas repository.FacturaRepository,
	f *entity.Factura,
) (*despacho, error) {
	res, err := s.cliente.ConsultarAutorizacion(ctx, f.ClaveAcceso, ambienteDeClave(f.ClaveAcceso))
	if err != nil {
		return nil, err
	}

	switch res.Estado {
	case sri.EstadoAutorizado:
		return s.liquidarAutorizada(ctx, emisores, creditos, facturas, f, res)

	case sri.EstadoNoAutorizado:
		avanzo, err := facturas.MarcarRechazada(f.ID, res.Mensajes)
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
			Msg("comprobante rechazado por el SRI")
		return &despacho{
			emisorID: f.EmisorID,
			evento:   nuevoEvento(f, entity.EstadoRechazado, res.Mensajes),
		}, nil

	case sri.EstadoEnProceso:
		// El SRI aún no resuelve; la fila sigue en RECIBIDA.
		return nil, nil

	default:
		// Estado no contemplado: se conserva el texto del SRI tal cual y la
		// fila sigue en RECIBIDA para revisión.
		detalle := res.Estado
		if res.Mensajes != "" {
			detalle += ": " + res.Mensajes
		}
		if err := facturas.GuardarMensajes(f.ID, detalle); err != nil {
			return nil, err
		}
		s.log.Warn().
			Str("factura_id", f.ID).
			Str("clave_acceso", f.ClaveAcceso).
			Str("estado_sri", res.Estado).
			Msg("estado de autorización no contemplado")
		return nil, nil
	}
}

// liquidarAutorizada cierra el ciclo feliz: sube el XML autorizado, avanza la
// fila, regenera el RIDE con el bloque de autorización y arma el webhook y el
// correo al comprador. El débito lazy y el RIDE son mejor esfuerzo: la
// autorización del SRI es un hecho y no se revierte por fallas locales.
func (s *Service) liquidarAutorizada(
	ctx context.Context,
	emisores repository.EmisorRepository,
	creditos repository.CreditoRepository,
	facturas repository.FacturaRepository,
	f *entity.Factura,
	res *sri.ResultadoAutorizacion,
) (*despacho, error) {
	emisor, err := emisores.GetByID(f.EmisorID)
	if err != nil {
		return nil, err
	}
	if emisor == nil {
		return nil, fmt.Errorf("%w: emisor %s", domain.ErrNoEncontrado, f.EmisorID)
	}

	autorizado, err := sri.EnvolverAutorizado(res, ambienteDeClave(f.ClaveAcceso))
	if err != nil {
		return nil, err
	}
	rutaXML, err := s.almacen.Subir(ctx, storage.BucketComprobantes,
		storage.RutaXMLAutorizado(emisor.RUC, f.ClaveAcceso),
		bytes.NewReader(autorizado), int64(len(autorizado)), "application/xml")
	if err != nil {
		return nil, err
	}

	fecha := time.Now()
	if res.FechaAutorizacion != nil {
		fecha = *res.FechaAutorizacion
	}
	avanzo, err := facturas.MarcarAutorizada(f.ID, rutaXML, fecha, res.Mensajes)
	if err != nil {
		return nil, err
	}
	if !avanzo {
		return nil, nil
	}

	f.Estado = entity.EstadoAutorizado
	f.XMLPath = rutaXML
	f.FechaAutorizacion = &fecha

	if !s.debitoEager {
		s.debitarConsumo(creditos, f)
	}
	pdf := s.refrescarRIDE(ctx, emisor, f)

	s.log.Info().
		Str("factura_id", f.ID).
		Str("clave_acceso", f.ClaveAcceso).
		Time("fecha_autorizacion", fecha).
		Msg("comprobante autorizado")

	d := &despacho{
		emisorID: f.EmisorID,
		evento:   nuevoEvento(f, entity.EstadoAutorizado, res.Mensajes),
	}
	if f.EmailComprador != "" {
		d.correo = &email.Comprobante{
			Destinatario: f.EmailComprador,
			Comprador:    f.RazonSocialComprador,
			Emisor:       emisor.RazonSocial,
			Numero:       f.NumeroCompleto(),
			ClaveAcceso:  f.ClaveAcceso,
			XML:          autorizado,
			PDF:          pdf,
		}
	}
	return d, nil
}

// debitarConsumo aplica el débito lazy. Quedarse sin saldo después de una
// autorización no la revierte: se registra y se sigue.
func (s *Service) debitarConsumo(creditos repository.CreditoRepository, f *entity.Factura) {
	restante, err := creditos.Debitar(f.EmisorID, 1)
	if err != nil {
		if errors.Is(err, domain.ErrCreditosInsuficientes) {
			s.log.Warn().
				Str("emisor_id", f.EmisorID).
				Str("clave_acceso", f.ClaveAcceso).
				Msg("comprobante autorizado sin saldo que debitar")
			return
		}
		s.log.Error().Err(err).
			Str("emisor_id", f.EmisorID).
			Str("clave_acceso", f.ClaveAcceso).
			Msg("débito de crédito fallido")
		return
	}
	if err := creditos.RegistrarMovimiento(&entity.TransaccionCredito{
		EmisorID:     f.EmisorID,
		Tipo:         entity.MovimientoConsumo,
		Cantidad:     -1,
		SaldoDespues: restante,
		Detalle:      "autorización " + f.ClaveAcceso,
	}); err != nil {
		s.log.Error().Err(err).
			Str("clave_acceso", f.ClaveAcceso).
			Msg("movimiento de consumo no registrado")
	}
}

// refrescarRIDE regenera el PDF ya con el bloque de autorización y lo sube
// sobre la misma ruta. Si falla queda el RIDE de la etapa de firma.
func (s *Service) refrescarRIDE(ctx context.Context, emisor *entity.Emisor, f *entity.Factura) []byte {
	_, pdf, err := s.artefactos.RegenerarRIDE(ctx, emisor, f)
	if err != nil {
		s.log.Warn().Err(err).
			Str("clave_acceso", f.ClaveAcceso).
			Msg("RIDE autorizado no regenerado")
		return nil
	}
	return pdf
}
