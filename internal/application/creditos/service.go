// Package creditos cubre la superficie administrativa del saldo de emisiones:
// la recarga que dispara el flujo de cobro (n8n) tras confirmar un pago y la
// consulta de saldo con su libro de auditoría. El consumo por autorización
// vive en la emisión y en el worker; aquí solo entran créditos.
package creditos

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kipu-ec/kipu-api/internal/domain"
	"github.com/kipu-ec/kipu-api/internal/domain/entity"
	"github.com/kipu-ec/kipu-api/internal/domain/repository"
	"github.com/kipu-ec/kipu-api/pkg/logger"
	pkgsri "github.com/kipu-ec/kipu-api/pkg/sri"
)

// maxMovimientos acota la página del libro en la consulta administrativa.
const maxMovimientos = 100

// TxRunner ejecuta una función dentro de una transacción. La recarga acredita
// y registra el movimiento bajo la misma transacción para que el libro nunca
// quede desfasado del saldo.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		emisores repository.EmisorRepository,
		estructura repository.EstructuraRepository,
		creditos repository.CreditoRepository,
		facturas repository.FacturaRepository,
	) error) error
}

// Service implementa /admin/topup y la consulta de saldo administrativa.
type Service struct {
	tx       TxRunner
	emisores repository.EmisorRepository
	creditos repository.CreditoRepository
	log      *logger.Logger
}

// NewService construye el servicio. Los repos sueltos van atados al pool y
// cubren las lecturas; las recargas corren dentro del TxRunner.
func NewService(tx TxRunner, emisores repository.EmisorRepository, creditos repository.CreditoRepository, log *logger.Logger) *Service {
	return &Service{
		tx:       tx,
		emisores: emisores,
		creditos: creditos,
		log:      log.Componente("creditos"),
	}
}

// EntradaRecarga es el cuerpo de POST /admin/topup. Referencia es el
// identificador del pago en el sistema de cobro (id de transferencia, orden).
type EntradaRecarga struct {
	RUC        string `json:"ruc"`
	Cantidad   int64  `json:"cantidad"`
	Referencia string `json:"referencia"`
}

// ResultadoRecarga es la respuesta de la recarga.
type ResultadoRecarga struct {
	EmisorID   string `json:"emisor_id"`
	RUC        string `json:"ruc"`
	Acreditado int64  `json:"acreditado"`
	Saldo      int64  `json:"saldo"`
}

// MovimientoDTO es una entrada del libro de auditoría en la vista admin.
type MovimientoDTO struct {
	ID         string    `json:"id"`
	Tipo       string    `json:"tipo"`
	Cantidad   int64     `json:"cantidad"`
	Saldo      int64     `json:"saldo_resultante"`
	Referencia string    `json:"referencia,omitempty"`
	CreadoEn   time.Time `json:"creado_en"`
}

// EstadoCreditos es la respuesta de GET /admin/credits/:ruc.
type EstadoCreditos struct {
	EmisorID    string           `json:"emisor_id"`
	RUC         string           `json:"ruc"`
	Saldo       int64            `json:"saldo"`
	Movimientos []*MovimientoDTO `json:"movimientos"`
}

// Recargar acredita créditos al emisor identificado por RUC y deja la entrada
// RECARGA en el libro. Acreditación y auditoría comparten transacción.
func (s *Service) Recargar(ctx context.Context, in EntradaRecarga) (*ResultadoRecarga, error) {
	if err := pkgsri.ValidarRUC(in.RUC); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidacion, err)
	}
	if in.Cantidad <= 0 {
		return nil, fmt.Errorf("%w: cantidad debe ser mayor que cero", domain.ErrValidacion)
	}
	referencia := strings.TrimSpace(in.Referencia)
	if referencia == "" {
		return nil, fmt.Errorf("%w: referencia es obligatoria para la auditoría", domain.ErrValidacion)
	}

	var res ResultadoRecarga
	err := s.tx.Run(ctx, func(
		emisores repository.EmisorRepository,
		_ repository.EstructuraRepository,
		creditos repository.CreditoRepository,
		_ repository.FacturaRepository,
	) error {
		emisor, err := emisores.GetByRUC(in.RUC)
		if err != nil {
			return err
		}
		if emisor == nil {
			return fmt.Errorf("%w: emisor con RUC %s", domain.ErrNoEncontrado, in.RUC)
		}
		saldo, err := creditos.Acreditar(emisor.ID, in.Cantidad)
		if err != nil {
			return err
		}
		if err := creditos.RegistrarMovimiento(&entity.TransaccionCredito{
			EmisorID:     emisor.ID,
			Tipo:         entity.MovimientoRecarga,
			Cantidad:     in.Cantidad,
			SaldoDespues: saldo,
			Detalle:      referencia,
		}); err != nil {
			return err
		}
		res = ResultadoRecarga{
			EmisorID:   emisor.ID,
			RUC:        emisor.RUC,
			Acreditado: in.Cantidad,
			Saldo:      saldo,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("emisor_id", res.EmisorID).
		Str("ruc", res.RUC).
		Int64("acreditado", res.Acreditado).
		Int64("saldo", res.Saldo).
		Str("referencia", referencia).
		Msg("créditos recargados")
	return &res, nil
}

// Estado devuelve el saldo y las últimas entradas del libro del emisor. Es la
// consulta previa a una recarga en el flujo de soporte.
func (s *Service) Estado(ctx context.Context, ruc string, limite int) (*EstadoCreditos, error) {
	if err := pkgsri.ValidarRUC(ruc); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidacion, err)
	}
	if limite <= 0 {
		limite = 20
	}
	if limite > maxMovimientos {
		limite = maxMovimientos
	}

	emisor, err := s.emisores.GetByRUC(ruc)
	if err != nil {
		return nil, err
	}
	if emisor == nil {
		return nil, fmt.Errorf("%w: emisor con RUC %s", domain.ErrNoEncontrado, ruc)
	}
	saldo, err := s.creditos.GetSaldo(emisor.ID)
	if err != nil {
		return nil, err
	}
	movimientos, err := s.creditos.ListarMovimientos(emisor.ID, limite)
	if err != nil {
		return nil, err
	}

	estado := &EstadoCreditos{
		EmisorID:    emisor.ID,
		RUC:         emisor.RUC,
		Saldo:       saldo,
		Movimientos: make([]*MovimientoDTO, 0, len(movimientos)),
	}
	for _, m := range movimientos {
		estado.Movimientos = append(estado.Movimientos, &MovimientoDTO{
			ID:         m.ID,
			Tipo:       m.Tipo,
			Cantidad:   m.Cantidad,
			Saldo:      m.SaldoDespues,
			Referencia: m.Detalle,
			CreadoEn:   m.CreatedAt,
		})
	}
	return estado, nil
}
