package facturacion

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/kipu-ec/kipu-api/internal/domain"
	"github.com/kipu-ec/kipu-api/internal/domain/entity"
	"github.com/kipu-ec/kipu-api/internal/domain/repository"
	"github.com/kipu-ec/kipu-api/internal/domain/tributo"
	"github.com/kipu-ec/kipu-api/internal/infrastructure/storage"
)

// EmitirFactura es la ruta síncrona: valida, asigna secuencial y clave de
// acceso, construye y firma el XML, genera el RIDE, sube ambos artefactos y
// persiste la factura en FIRMADO, todo bajo una transacción. Si la política
// de débito es eager también descuenta el crédito aquí.
//
// raw es el cuerpo JSON tal como llegó; se guarda íntegro en la fila para
// auditoría y para el re-firmado del worker.
func (s *Service) EmitirFactura(ctx context.Context, emisorID string, raw []byte) (*ResultadoEmision, error) {
	in, err := ParsearEntrada(raw)
	if err != nil {
		return nil, err
	}
	calculo, err := s.calculadora.Calcular(in.Lineas())
	if err != nil {
		return nil, err
	}

	var (
		resultado *ResultadoEmision
		subidas   []string
	)
	err = s.tx.Run(ctx, func(
		emisores repository.EmisorRepository,
		estructura repository.EstructuraRepository,
		creditos repository.CreditoRepository,
		facturas repository.FacturaRepository,
	) error {
		ahora := time.Now()

		// 1) Candado del emisor: serializa las emisiones concurrentes.
		emisor, err := emisores.GetByIDForUpdate(emisorID)
		if err != nil {
			return err
		}
		if err := emisor.PuedeEmitir(ahora); err != nil {
			return err
		}

		// 2) Saldo bajo candado; sin crédito no se consume secuencial.
		saldo, err := creditos.GetSaldoForUpdate(emisorID)
		if err != nil {
			return err
		}
		if saldo <= 0 {
			return domain.ErrCreditosInsuficientes
		}

		// 3) Punto de emisión y secuencial.
		f, err := prepararFactura(estructura, emisor, in, calculo, raw, ahora)
		if err != nil {
			return err
		}

		// 4) Artefactos: XML firmado y RIDE al object store. Se suben antes
		// del commit; si la transacción termina en rollback se limpian.
		rutaXML, rutaPDF, err := s.generarArtefactos(ctx, emisor, f, in, calculo)
		if err != nil {
			return err
		}
		subidas = append(subidas, rutaXML, rutaPDF)
		f.Estado = entity.EstadoFirmado
		f.XMLPath = rutaXML
		f.PDFPath = rutaPDF

		// 5) Persistir la fila ya firmada.
		if err := facturas.Crear(f); err != nil {
			return err
		}

		// 6) Débito eager: un crédito por comprobante, en esta transacción.
		restante := saldo
		if s.cfg.DebitoEager() {
			restante, err = registrarConsumo(creditos, emisorID, f.ClaveAcceso)
			if err != nil {
				return err
			}
		}

		resultado = &ResultadoEmision{
			FacturaID:         f.ID,
			ClaveAcceso:       f.ClaveAcceso,
			Estado:            f.Estado,
			XMLPath:           f.XMLPath,
			PDFPath:           f.PDFPath,
			CreditosRestantes: restante,
		}
		return nil
	})
	if err != nil {
		s.eliminarArtefactos(ctx, subidas...)
		return nil, err
	}

	s.log.Info().
		Str("factura_id", resultado.FacturaID).
		Str("clave_acceso", resultado.ClaveAcceso).
		Int64("creditos_restantes", resultado.CreditosRestantes).
		Msg("factura emitida y firmada")
	return resultado, nil
}

// EncolarFactura es la ruta asíncrona: valida y persiste la factura en
// PENDIENTE con secuencial y clave ya asignados; el worker la firma y sube
// los artefactos después. Las mismas barreras de emisor, certificado y saldo
// aplican aquí para no encolar comprobantes que nunca podrán firmarse.
func (s *Service) EncolarFactura(ctx context.Context, emisorID string, raw []byte) (*ResultadoEmision, error) {
	in, err := ParsearEntrada(raw)
	if err != nil {
		return nil, err
	}
	calculo, err := s.calculadora.Calcular(in.Lineas())
	if err != nil {
		return nil, err
	}

	var resultado *ResultadoEmision
	err = s.tx.Run(ctx, func(
		emisores repository.EmisorRepository,
		estructura repository.EstructuraRepository,
		creditos repository.CreditoRepository,
		facturas repository.FacturaRepository,
	) error {
		ahora := time.Now()

		// 1) Candado del emisor y del saldo, como en la ruta síncrona.
		emisor, err := emisores.GetByIDForUpdate(emisorID)
		if err != nil {
			return err
		}
		if err := emisor.PuedeEmitir(ahora); err != nil {
			return err
		}
		saldo, err := creditos.GetSaldoForUpdate(emisorID)
		if err != nil {
			return err
		}
		if saldo <= 0 {
			return domain.ErrCreditosInsuficientes
		}

		// 2) Secuencial y clave se fijan al encolar: la fecha de la clave es
		// la de creación de la fila, no la del tick que la firme.
		f, err := prepararFactura(estructura, emisor, in, calculo, raw, ahora)
		if err != nil {
			return err
		}
		f.Estado = entity.EstadoPendiente

		// 3) Persistir sin artefactos.
		if err := facturas.Crear(f); err != nil {
			return err
		}

		// 4) El débito eager ocurre al aceptar el encargo, no al firmarlo.
		restante := saldo
		if s.cfg.DebitoEager() {
			restante, err = registrarConsumo(creditos, emisorID, f.ClaveAcceso)
			if err != nil {
				return err
			}
		}

		resultado = &ResultadoEmision{
			FacturaID:         f.ID,
			ClaveAcceso:       f.ClaveAcceso,
			Estado:            f.Estado,
			CreditosRestantes: restante,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("factura_id", resultado.FacturaID).
		Str("clave_acceso", resultado.ClaveAcceso).
		Msg("factura encolada")
	return resultado, nil
}

// FirmarComprobante materializa los artefactos de una factura PENDIENTE:
// re-parsea la entrada original del cliente, recalcula los totales y genera,
// firma y sube XML y RIDE. No toca el estado; el worker hace la transición
// con MarcarFirmada para que la escritura sea compare-and-swap.
func (s *Service) FirmarComprobante(ctx context.Context, emisor *entity.Emisor, f *entity.Factura) (rutaXML, rutaPDF string, err error) {
	in, err := ParsearEntrada(f.ClientInputData)
	if err != nil {
		return "", "", fmt.Errorf("entrada original ilegible: %w", err)
	}
	calculo, err := s.calculadora.Calcular(in.Lineas())
	if err != nil {
		return "", "", err
	}
	return s.generarArtefactos(ctx, emisor, f, in, calculo)
}

// RegenerarRIDE vuelve a renderizar el RIDE de una factura ya autorizada,
// ahora con el bloque de autorización, y lo sube sobre la misma ruta. Devuelve
// la ruta canónica y el PDF para el correo al comprador.
func (s *Service) RegenerarRIDE(ctx context.Context, emisor *entity.Emisor, f *entity.Factura) (string, []byte, error) {
	in, err := ParsearEntrada(f.ClientInputData)
	if err != nil {
		return "", nil, fmt.Errorf("entrada original ilegible: %w", err)
	}
	calculo, err := s.calculadora.Calcular(in.Lineas())
	if err != nil {
		return "", nil, err
	}

	ridePDF, err := s.ride.Generar(ctx, armarContexto(emisor, f, in, calculo))
	if err != nil {
		return "", nil, fmt.Errorf("regenerar RIDE: %w", err)
	}
	ruta, err := s.almacen.Subir(ctx, storage.BucketComprobantes,
		storage.RutaPDF(emisor.RUC, f.ClaveAcceso),
		bytes.NewReader(ridePDF), int64(len(ridePDF)), "application/pdf")
	if err != nil {
		return "", nil, fmt.Errorf("subir RIDE autorizado: %w", err)
	}
	return ruta, ridePDF, nil
}

// prepararFactura resuelve el punto de emisión, avanza el secuencial y arma
// la entidad con su clave de acceso. Llamar dentro de la transacción.
func prepararFactura(estructura repository.EstructuraRepository, emisor *entity.Emisor, in *EntradaFactura, calculo *tributo.Resultado, raw []byte, ahora time.Time) (*entity.Factura, error) {
	punto, err := estructura.BuscarPunto(emisor.ID, in.Establecimiento, in.PuntoEmision)
	if err != nil {
		return nil, err
	}
	if punto == nil {
		return nil, fmt.Errorf("%w: punto de emisión %s-%s", domain.ErrNoEncontrado, in.Establecimiento, in.PuntoEmision)
	}

	numero, err := estructura.GenerarSecuencial(punto.ID)
	if err != nil {
		return nil, err
	}
	secuencial := fmt.Sprintf("%09d", numero)

	clave, err := claveParaAhora(emisor, in.Establecimiento+in.PuntoEmision, secuencial, ahora)
	if err != nil {
		return nil, err
	}
	return nuevaFactura(emisor.ID, punto.ID, secuencial, clave, in, calculo, raw, ahora), nil
}
