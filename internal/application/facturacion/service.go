// Package facturacion implementa el núcleo de secuenciación y créditos: las
// dos rutas de emisión de comprobantes (síncrona con débito eager, encolada
// con débito lazy) y la materialización de artefactos que comparte el worker.
package facturacion

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/kipu-ec/kipu-api/internal/domain/entity"
	"github.com/kipu-ec/kipu-api/internal/domain/repository"
	"github.com/kipu-ec/kipu-api/internal/domain/tributo"
	"github.com/kipu-ec/kipu-api/internal/infrastructure/firma"
	"github.com/kipu-ec/kipu-api/internal/infrastructure/pdf"
	"github.com/kipu-ec/kipu-api/internal/infrastructure/sri"
	"github.com/kipu-ec/kipu-api/internal/infrastructure/storage"
	"github.com/kipu-ec/kipu-api/pkg/config"
	"github.com/kipu-ec/kipu-api/pkg/logger"
	pkgsri "github.com/kipu-ec/kipu-api/pkg/sri"
)

// zonaGuayaquil es la zona horaria de los componentes de fecha de la clave de
// acceso y de fechaEmision. Ecuador continental no tiene horario de verano.
var zonaGuayaquil = func() *time.Location {
	loc, err := time.LoadLocation("America/Guayaquil")
	if err != nil {
		return time.FixedZone("-05", -5*60*60)
	}
	return loc
}()

// Service orquesta la emisión: transacción, secuencial, clave de acceso,
// cálculo tributario, XML, firma, RIDE y subida de artefactos.
type Service struct {
	tx          TxRunner
	facturas    repository.FacturaRepository
	creditos    repository.CreditoRepository
	calculadora *tributo.Calculadora
	constructor *sri.ConstructorXML
	boveda      firma.Boveda
	firmador    *firma.Firmador
	ride        *pdf.GeneradorRIDE
	almacen     storage.Almacen
	cfg         config.SRIConfig
	log         *logger.Logger
}

// NewService construye el servicio de emisión. facturas y creditos son los
// repos sin transacción para las consultas; las escrituras pasan por tx.
func NewService(
	tx TxRunner,
	facturas repository.FacturaRepository,
	creditos repository.CreditoRepository,
	constructor *sri.ConstructorXML,
	boveda firma.Boveda,
	firmador *firma.Firmador,
	ride *pdf.GeneradorRIDE,
	almacen storage.Almacen,
	cfg config.SRIConfig,
	log *logger.Logger,
) *Service {
	return &Service{
		tx:          tx,
		facturas:    facturas,
		creditos:    creditos,
		calculadora: tributo.NewCalculadora(!cfg.IVAEstricto),
		constructor: constructor,
		boveda:      boveda,
		firmador:    firmador,
		ride:        ride,
		almacen:     almacen,
		cfg:         cfg,
		log:         log.Componente("facturacion"),
	}
}

// claveParaAhora arma la clave de acceso con la hora local de Guayaquil. El
// código numérico de seguridad es HHMMSS más dos dígitos de milisegundos.
func claveParaAhora(emisor *entity.Emisor, serie, secuencial string, ahora time.Time) (string, error) {
	local := ahora.In(zonaGuayaquil)
	codigo := local.Format("150405") + fmt.Sprintf("%02d", local.Nanosecond()/10_000_000)

	return pkgsri.GenerarClaveAcceso(pkgsri.ClaveAccesoInput{
		FechaEmision:   local,
		CodDoc:         pkgsri.DocFactura,
		RUC:            emisor.RUC,
		Ambiente:       emisor.Ambiente,
		Serie:          serie,
		Secuencial:     secuencial,
		CodigoNumerico: codigo,
		TipoEmision:    pkgsri.EmisionNormal,
	})
}

// nuevaFactura arma la entidad con los totales del cálculo; el estado lo pone
// cada ruta de emisión.
func nuevaFactura(emisorID, puntoID, secuencial, clave string, in *EntradaFactura, calculo *tributo.Resultado, raw []byte, ahora time.Time) *entity.Factura {
	return &entity.Factura{
		EmisorID:       emisorID,
		PuntoEmisionID: puntoID,
		Secuencial:     secuencial,
		ClaveAcceso:    clave,

		TipoIdentificacionComprador: in.TipoIdentificacionComprador(),
		IdentificacionComprador:     in.Comprador.Identificacion,
		RazonSocialComprador:        in.Comprador.RazonSocial,
		EmailComprador:              in.Comprador.Email,

		SubtotalSinImpuestos: calculo.Totales.TotalSinImpuestos,
		Subtotal0:            calculo.Totales.Subtotal0,
		SubtotalIVA:          calculo.Totales.SubtotalIVA,
		TotalDescuento:       calculo.Totales.TotalDescuento,
		ValorIVA:             calculo.Totales.ValorIVA,
		ImporteTotal:         calculo.Totales.ImporteTotal,

		ClientInputData: raw,
		CreatedAt:       ahora,
		UpdatedAt:       ahora,
	}
}

// armarContexto junta entidades, cálculo y secciones opcionales para el
// armador de XML y el RIDE. DirEstablecimiento queda vacío: el armador cae a
// la dirección matriz del emisor.
func armarContexto(emisor *entity.Emisor, f *entity.Factura, in *EntradaFactura, calculo *tributo.Resultado) *sri.ContextoFactura {
	return &sri.ContextoFactura{
		Emisor:            emisor,
		Factura:           f,
		Calculo:           calculo,
		Pagos:             in.PagosXML(),
		CamposAdicionales: in.CamposXML(),
	}
}

// generarArtefactos construye el XML firmado y el RIDE y los sube. Si la
// subida del PDF falla después de subir el XML, borra el XML para no dejar
// huérfanos. Devuelve las rutas canónicas bucket/objeto.
func (s *Service) generarArtefactos(ctx context.Context, emisor *entity.Emisor, f *entity.Factura, in *EntradaFactura, calculo *tributo.Resultado) (rutaXML, rutaPDF string, err error) {
	contexto := armarContexto(emisor, f, in, calculo)

	xmlComprobante, err := s.constructor.Construir(contexto)
	if err != nil {
		return "", "", fmt.Errorf("armar XML: %w", err)
	}

	cred, err := s.boveda.Abrir(ctx, emisor)
	if err != nil {
		return "", "", err
	}
	firmado, err := s.firmador.Firmar(xmlComprobante, cred)
	if err != nil {
		return "", "", fmt.Errorf("firmar XML: %w", err)
	}

	ridePDF, err := s.ride.Generar(ctx, contexto)
	if err != nil {
		return "", "", fmt.Errorf("generar RIDE: %w", err)
	}

	rutaXML, err = s.almacen.Subir(ctx, storage.BucketComprobantes,
		storage.RutaXMLFirmado(emisor.RUC, f.ClaveAcceso),
		bytes.NewReader(firmado), int64(len(firmado)), "application/xml")
	if err != nil {
		return "", "", fmt.Errorf("subir XML firmado: %w", err)
	}

	rutaPDF, err = s.almacen.Subir(ctx, storage.BucketComprobantes,
		storage.RutaPDF(emisor.RUC, f.ClaveAcceso),
		bytes.NewReader(ridePDF), int64(len(ridePDF)), "application/pdf")
	if err != nil {
		s.eliminarArtefactos(ctx, rutaXML)
		return "", "", fmt.Errorf("subir RIDE: %w", err)
	}

	return rutaXML, rutaPDF, nil
}

// eliminarArtefactos borra rutas bucket/objeto subidas por una emisión que
// terminó en rollback. Mejor esfuerzo: un huérfano en el store es preferible
// a enmascarar el error original.
func (s *Service) eliminarArtefactos(ctx context.Context, rutas ...string) {
	for _, ruta := range rutas {
		if ruta == "" {
			continue
		}
		bucket, objeto, err := storage.PartirRuta(ruta)
		if err != nil {
			continue
		}
		if err := s.almacen.Eliminar(ctx, bucket, objeto); err != nil {
			s.log.Warn().Err(err).Str("ruta", ruta).Msg("no se pudo limpiar artefacto huérfano")
		}
	}
}

// registrarConsumo debita un crédito y asienta el movimiento en el libro.
func registrarConsumo(creditos repository.CreditoRepository, emisorID, clave string) (int64, error) {
	restante, err := creditos.Debitar(emisorID, 1)
	if err != nil {
		return 0, err
	}
	err = creditos.RegistrarMovimiento(&entity.TransaccionCredito{
		EmisorID:     emisorID,
		Tipo:         entity.MovimientoConsumo,
		Cantidad:     -1,
		SaldoDespues: restante,
		Detalle:      "emisión " + clave,
	})
	if err != nil {
		return 0, err
	}
	return restante, nil
}
