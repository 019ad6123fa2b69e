package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/kipu-ec/kipu-api/internal/domain"
	"github.com/kipu-ec/kipu-api/internal/domain/entity"
	"github.com/kipu-ec/kipu-api/internal/domain/repository"
)

var _ repository.FacturaRepository = (*FacturaRepo)(nil)

// FacturaRepo implementación de FacturaRepository (usable con pool o tx).
type FacturaRepo struct {
	q Querier
}

// NewFacturaRepository construye el adaptador. Pasar pool o tx (Querier).
func NewFacturaRepository(q Querier) *FacturaRepo {
	return &FacturaRepo{q: q}
}

const columnasFactura = `
	id, emisor_id, punto_emision_id, secuencial, clave_acceso,
	tipo_identificacion_comprador, identificacion_comprador, razon_social_comprador,
	COALESCE(email_comprador, ''),
	subtotal_sin_impuestos, subtotal_0, subtotal_iva, total_descuento, valor_iva, importe_total,
	estado, COALESCE(xml_path, ''), COALESCE(pdf_path, ''),
	fecha_envio_sri, fecha_autorizacion, COALESCE(mensajes_sri, ''),
	client_input_data, created_at, updated_at`

// Crear persiste la factura con todos los campos calculados. La unicidad de
// (punto_emision_id, secuencial) y de clave_acceso la garantiza la base.
func (r *FacturaRepo) Crear(f *entity.Factura) error {
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	query := `
		INSERT INTO facturas (id, emisor_id, punto_emision_id, secuencial, clave_acceso,
			tipo_identificacion_comprador, identificacion_comprador, razon_social_comprador, email_comprador,
			subtotal_sin_impuestos, subtotal_0, subtotal_iva, total_descuento, valor_iva, importe_total,
			estado, xml_path, pdf_path, mensajes_sri, client_input_data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $21)`
	_, err := r.q.Exec(context.Background(), query,
		f.ID, f.EmisorID, f.PuntoEmisionID, f.Secuencial, f.ClaveAcceso,
		f.TipoIdentificacionComprador, f.IdentificacionComprador, f.RazonSocialComprador, nullIfEmpty(f.EmailComprador),
		f.SubtotalSinImpuestos, f.Subtotal0, f.SubtotalIVA, f.TotalDescuento, f.ValorIVA, f.ImporteTotal,
		f.Estado, nullIfEmpty(f.XMLPath), nullIfEmpty(f.PDFPath), nullIfEmpty(f.MensajesSRI), f.ClientInputData,
		f.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: secuencial o clave de acceso duplicados", domain.ErrConflicto)
		}
		return fmt.Errorf("insert factura: %w", err)
	}
	return nil
}

// GetByID obtiene una factura por ID.
func (r *FacturaRepo) GetByID(id string) (*entity.Factura, error) {
	return r.get(`SELECT`+columnasFactura+` FROM facturas WHERE id = $1`, id)
}

// GetByClaveAcceso obtiene una factura por su clave de acceso.
func (r *FacturaRepo) GetByClaveAcceso(clave string) (*entity.Factura, error) {
	return r.get(`SELECT`+columnasFactura+` FROM facturas WHERE clave_acceso = $1`, clave)
}

func (r *FacturaRepo) get(query, arg string) (*entity.Factura, error) {
	row := r.q.QueryRow(context.Background(), query, arg)
	f, err := scanFactura(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get factura: %w", err)
	}
	return f, nil
}

// ListarPorEmisor devuelve las últimas facturas del emisor, más recientes primero.
func (r *FacturaRepo) ListarPorEmisor(emisorID string, limit int) ([]*entity.Factura, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT` + columnasFactura + `
		FROM facturas WHERE emisor_id = $1
		ORDER BY created_at DESC LIMIT $2`
	return r.listar(query, emisorID, limit)
}

// ListarPorEstado selecciona las filas más antiguas en el estado dado con
// FOR UPDATE SKIP LOCKED, de modo que otra réplica del worker que corra el
// mismo tick salte las filas ya tomadas. Llamar dentro de una transacción.
func (r *FacturaRepo) ListarPorEstado(estado string, limit int) ([]*entity.Factura, error) {
	if limit <= 0 {
		limit = 15
	}
	query := `SELECT` + columnasFactura + `
		FROM facturas WHERE estado = $1
		ORDER BY created_at ASC LIMIT $2
		FOR UPDATE SKIP LOCKED`
	return r.listar(query, estado, limit)
}

func (r *FacturaRepo) listar(query string, arg any, limit int) ([]*entity.Factura, error) {
	rows, err := r.q.Query(context.Background(), query, arg, limit)
	if err != nil {
		return nil, fmt.Errorf("list facturas: %w", err)
	}
	defer rows.Close()
	var list []*entity.Factura
	for rows.Next() {
		f, err := scanFactura(rows)
		if err != nil {
			return nil, fmt.Errorf("scan factura: %w", err)
		}
		list = append(list, f)
	}
	return list, rows.Err()
}

func scanFactura(row pgx.Row) (*entity.Factura, error) {
	var f entity.Factura
	err := row.Scan(
		&f.ID, &f.EmisorID, &f.PuntoEmisionID, &f.Secuencial, &f.ClaveAcceso,
		&f.TipoIdentificacionComprador, &f.IdentificacionComprador, &f.RazonSocialComprador,
		&f.EmailComprador,
		&f.SubtotalSinImpuestos, &f.Subtotal0, &f.SubtotalIVA, &f.TotalDescuento, &f.ValorIVA, &f.ImporteTotal,
		&f.Estado, &f.XMLPath, &f.PDFPath,
		&f.FechaEnvioSRI, &f.FechaAutorizacion, &f.MensajesSRI,
		&f.ClientInputData, &f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// ContarPorEstado agrupa las facturas del emisor por estado.
func (r *FacturaRepo) ContarPorEstado(emisorID string) (map[string]int64, error) {
	query := `SELECT estado, COUNT(*) FROM facturas WHERE emisor_id = $1 GROUP BY estado`
	rows, err := r.q.Query(context.Background(), query, emisorID)
	if err != nil {
		return nil, fmt.Errorf("contar facturas: %w", err)
	}
	defer rows.Close()
	conteo := make(map[string]int64)
	for rows.Next() {
		var estado string
		var n int64
		if err := rows.Scan(&estado, &n); err != nil {
			return nil, fmt.Errorf("scan conteo: %w", err)
		}
		conteo[estado] = n
	}
	return conteo, rows.Err()
}

// Las transiciones comparan el estado de origen en el WHERE: una fila ya
// avanzada por otro tick produce RowsAffected 0 y se reporta como no-op.

// MarcarFirmada avanza PENDIENTE → FIRMADO registrando los artefactos.
func (r *FacturaRepo) MarcarFirmada(id, xmlPath, pdfPath string) (bool, error) {
	query := `
		UPDATE facturas
		SET estado = $2, xml_path = $3, pdf_path = $4, updated_at = now()
		WHERE id = $1 AND estado = $5`
	return r.transicion(query, id, entity.EstadoFirmado, xmlPath, pdfPath, entity.EstadoPendiente)
}

// MarcarRecibida avanza FIRMADO → RECIBIDA con la fecha de envío.
func (r *FacturaRepo) MarcarRecibida(id string, fechaEnvio time.Time, mensajes string) (bool, error) {
	query := `
		UPDATE facturas
		SET estado = $2, fecha_envio_sri = $3, mensajes_sri = NULLIF($4, ''), updated_at = now()
		WHERE id = $1 AND estado = $5`
	return r.transicion(query, id, entity.EstadoRecibida, fechaEnvio, mensajes, entity.EstadoFirmado)
}

// MarcarDevuelta avanza FIRMADO → DEVUELTA con la respuesta de recepción.
func (r *FacturaRepo) MarcarDevuelta(id, mensajes string) (bool, error) {
	query := `
		UPDATE facturas
		SET estado = $2, mensajes_sri = $3, updated_at = now()
		WHERE id = $1 AND estado = $4`
	return r.transicion(query, id, entity.EstadoDevuelta, mensajes, entity.EstadoFirmado)
}

// MarcarAutorizada avanza RECIBIDA → AUTORIZADO con el XML autorizado y la
// fecha de autorización que devuelve el SRI.
func (r *FacturaRepo) MarcarAutorizada(id, xmlPath string, fechaAutorizacion time.Time, mensajes string) (bool, error) {
	query := `
		UPDATE facturas
		SET estado = $2, xml_path = $3, fecha_autorizacion = $4, mensajes_sri = NULLIF($5, ''), updated_at = now()
		WHERE id = $1 AND estado = $6`
	return r.transicion(query, id, entity.EstadoAutorizado, xmlPath, fechaAutorizacion, mensajes, entity.EstadoRecibida)
}

// MarcarRechazada avanza RECIBIDA → RECHAZADO con los mensajes de negación.
func (r *FacturaRepo) MarcarRechazada(id, mensajes string) (bool, error) {
	query := `
		UPDATE facturas
		SET estado = $2, mensajes_sri = $3, updated_at = now()
		WHERE id = $1 AND estado = $4`
	return r.transicion(query, id, entity.EstadoRechazado, mensajes, entity.EstadoRecibida)
}

func (r *FacturaRepo) transicion(query, id string, args ...any) (bool, error) {
	tag, err := r.q.Exec(context.Background(), query, append([]any{id}, args...)...)
	if err != nil {
		return false, fmt.Errorf("transición de factura: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// GuardarMensajes reemplaza los mensajes del SRI sin mover el estado.
func (r *FacturaRepo) GuardarMensajes(id, mensajes string) error {
	query := `UPDATE facturas SET mensajes_sri = NULLIF($2, ''), updated_at = now() WHERE id = $1`
	if _, err := r.q.Exec(context.Background(), query, id, mensajes); err != nil {
		return fmt.Errorf("guardar mensajes: %w", err)
	}
	return nil
}
