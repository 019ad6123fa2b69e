package facturacion

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kipu-ec/kipu-api/internal/domain"
	"github.com/kipu-ec/kipu-api/internal/domain/entity"
	"github.com/kipu-ec/kipu-api/internal/infrastructure/storage"
	pkgsri "github.com/kipu-ec/kipu-api/pkg/sri"
)

const (
	limiteHistorial = 50
	limiteResumen   = 20
)

// FacturaVista es la proyección JSON de una factura para el historial y el
// estado de integraciones. No expone el eco del cliente ni rutas internas del
// object store; los artefactos se descargan por /public con la clave.
type FacturaVista struct {
	ID                      string          `json:"id"`
	Numero                  string          `json:"numero"`
	ClaveAcceso             string          `json:"clave_acceso,omitempty"`
	Estado                  string          `json:"estado"`
	RazonSocialComprador    string          `json:"razon_social_comprador"`
	IdentificacionComprador string          `json:"identificacion_comprador"`
	ImporteTotal            decimal.Decimal `json:"importe_total"`
	FechaEmision            time.Time       `json:"fecha_emision"`
	FechaAutorizacion       *time.Time      `json:"fecha_autorizacion,omitempty"`
	MensajesSRI             string          `json:"mensajes_sri,omitempty"`
}

// ResumenEmisor es la foto operativa del emisor para integraciones: saldo,
// contadores por estado y las últimas facturas.
type ResumenEmisor struct {
	Saldo     int64            `json:"saldo"`
	PorEstado map[string]int64 `json:"por_estado"`
	Ultimas   []*FacturaVista  `json:"ultimas"`
}

// Historial devuelve las últimas 50 facturas del emisor, más recientes
// primero.
func (s *Service) Historial(emisorID string) ([]*FacturaVista, error) {
	filas, err := s.facturas.ListarPorEmisor(emisorID, limiteHistorial)
	if err != nil {
		return nil, err
	}
	return vistas(filas), nil
}

// Resumen arma el estado operativo del emisor para /integrations/status.
func (s *Service) Resumen(emisorID string) (*ResumenEmisor, error) {
	saldo, err := s.creditos.GetSaldo(emisorID)
	if err != nil {
		return nil, err
	}
	porEstado, err := s.facturas.ContarPorEstado(emisorID)
	if err != nil {
		return nil, err
	}
	ultimas, err := s.facturas.ListarPorEmisor(emisorID, limiteResumen)
	if err != nil {
		return nil, err
	}
	return &ResumenEmisor{Saldo: saldo, PorEstado: porEstado, Ultimas: vistas(ultimas)}, nil
}

func vistas(filas []*entity.Factura) []*FacturaVista {
	out := make([]*FacturaVista, 0, len(filas))
	for _, f := range filas {
		out = append(out, &FacturaVista{
			ID:                      f.ID,
			Numero:                  f.NumeroCompleto(),
			ClaveAcceso:             f.ClaveAcceso,
			Estado:                  f.Estado,
			RazonSocialComprador:    f.RazonSocialComprador,
			IdentificacionComprador: f.IdentificacionComprador,
			ImporteTotal:            f.ImporteTotal,
			FechaEmision:            f.CreatedAt,
			FechaAutorizacion:       f.FechaAutorizacion,
			MensajesSRI:             f.MensajesSRI,
		})
	}
	return out
}

// PorClaveAcceso resuelve la factura de los endpoints públicos de descarga.
// Valida el formato antes de tocar la base: una clave malformada es un 400,
// no un 404.
func (s *Service) PorClaveAcceso(clave string) (*entity.Factura, error) {
	if err := pkgsri.ValidarClaveAcceso(clave); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidacion, err)
	}
	return s.facturas.GetByClaveAcceso(clave)
}

// AbrirArtefacto abre un artefacto por su ruta canónica bucket/objeto tal
// como quedó en xml_path o pdf_path. El caller cierra el reader.
func (s *Service) AbrirArtefacto(ctx context.Context, ruta string) (io.ReadCloser, error) {
	if ruta == "" {
		return nil, fmt.Errorf("%w: el comprobante aún no tiene artefactos", domain.ErrNoEncontrado)
	}
	bucket, objeto, err := storage.PartirRuta(ruta)
	if err != nil {
		return nil, err
	}
	return s.almacen.Descargar(ctx, bucket, objeto)
}
