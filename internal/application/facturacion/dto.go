package facturacion

import (
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/shopspring/decimal"

	"github.com/kipu-ec/kipu-api/internal/domain"
	"github.com/kipu-ec/kipu-api/internal/domain/tributo"
	"github.com/kipu-ec/kipu-api/internal/infrastructure/sri"
	pkgsri "github.com/kipu-ec/kipu-api/pkg/sri"
)

// EntradaFactura es el tipo estricto al que se valida el JSON del cliente. El
// cuerpo crudo se conserva aparte como client_input_data para auditoría.
type EntradaFactura struct {
	Establecimiento string `json:"establecimiento"` // código de 3 dígitos
	PuntoEmision    string `json:"punto_emision"`   // código de 3 dígitos

	Comprador CompradorFactura `json:"comprador"`
	Detalles  []LineaFactura   `json:"detalles"`

	Pagos         []PagoFactura    `json:"pagos,omitempty"`
	InfoAdicional []CampoAdicional `json:"info_adicional,omitempty"`
}

// CompradorFactura identifica al adquiriente. Sin tipo de identificación
// explícito se infiere por la forma (RUC, cédula, consumidor final, pasaporte).
type CompradorFactura struct {
	TipoIdentificacion string `json:"tipo_identificacion,omitempty"`
	Identificacion     string `json:"identificacion"`
	RazonSocial        string `json:"razon_social"`
	Email              string `json:"email,omitempty"`
	Direccion          string `json:"direccion,omitempty"`
}

// LineaFactura es un renglón del comprobante.
type LineaFactura struct {
	CodigoPrincipal string          `json:"codigo_principal,omitempty"`
	Descripcion     string          `json:"descripcion"`
	Cantidad        decimal.Decimal `json:"cantidad"`
	PrecioUnitario  decimal.Decimal `json:"precio_unitario"`
	Descuento       decimal.Decimal `json:"descuento,omitempty"`
	TarifaIVA       decimal.Decimal `json:"tarifa_iva"`
}

// PagoFactura es una entrada de la sección pagos (tabla 24).
type PagoFactura struct {
	FormaPago    string          `json:"forma_pago"`
	Total        decimal.Decimal `json:"total"`
	Plazo        int             `json:"plazo,omitempty"`
	UnidadTiempo string          `json:"unidad_tiempo,omitempty"`
}

// CampoAdicional es una entrada libre de infoAdicional.
type CampoAdicional struct {
	Nombre string `json:"nombre"`
	Valor  string `json:"valor"`
}

// ResultadoEmision es la respuesta de las dos rutas de emisión.
type ResultadoEmision struct {
	FacturaID         string `json:"invoice_id"`
	ClaveAcceso       string `json:"clave_acceso"`
	Estado            string `json:"estado"`
	XMLPath           string `json:"xml_path,omitempty"`
	PDFPath           string `json:"pdf_path,omitempty"`
	CreditosRestantes int64  `json:"creditos_restantes"`
}

var reCodigoTresDigitos = regexp.MustCompile(`^\d{3}$`)

// ParsearEntrada decodifica y valida el cuerpo del cliente. El mismo parseo
// sirve a las dos rutas de emisión y al worker cuando rearma una factura
// pendiente desde client_input_data.
func ParsearEntrada(raw []byte) (*EntradaFactura, error) {
	var in EntradaFactura
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, fmt.Errorf("%w: cuerpo JSON ilegible: %v", domain.ErrValidacion, err)
	}
	if err := in.Validar(); err != nil {
		return nil, err
	}
	return &in, nil
}

// Validar aplica las reglas de forma. Los errores envuelven ErrValidacion
// para que el handler responda 4xx.
func (in *EntradaFactura) Validar() error {
	if !reCodigoTresDigitos.MatchString(in.Establecimiento) {
		return fmt.Errorf("%w: establecimiento debe ser un código de 3 dígitos", domain.ErrValidacion)
	}
	if !reCodigoTresDigitos.MatchString(in.PuntoEmision) {
		return fmt.Errorf("%w: punto_emision debe ser un código de 3 dígitos", domain.ErrValidacion)
	}
	if in.Comprador.Identificacion == "" {
		return fmt.Errorf("%w: comprador.identificacion es obligatorio", domain.ErrValidacion)
	}
	if in.Comprador.RazonSocial == "" {
		return fmt.Errorf("%w: comprador.razon_social es obligatorio", domain.ErrValidacion)
	}
	if in.Comprador.TipoIdentificacion != "" && !pkgsri.ValidarTipoIdentificacion(in.Comprador.TipoIdentificacion) {
		return fmt.Errorf("%w: tipo_identificacion %q fuera de la tabla 6", domain.ErrValidacion, in.Comprador.TipoIdentificacion)
	}
	if len(in.Detalles) == 0 {
		return fmt.Errorf("%w: la factura necesita al menos un detalle", domain.ErrValidacion)
	}
	for i, d := range in.Detalles {
		switch {
		case d.Descripcion == "":
			return fmt.Errorf("%w: detalle %d sin descripción", domain.ErrValidacion, i)
		case !d.Cantidad.IsPositive():
			return fmt.Errorf("%w: detalle %d con cantidad no positiva", domain.ErrValidacion, i)
		case d.PrecioUnitario.IsNegative():
			return fmt.Errorf("%w: detalle %d con precio negativo", domain.ErrValidacion, i)
		case d.Descuento.IsNegative():
			return fmt.Errorf("%w: detalle %d con descuento negativo", domain.ErrValidacion, i)
		}
	}
	for i, p := range in.Pagos {
		if p.FormaPago != "" && !pkgsri.ValidarFormaPago(p.FormaPago) {
			return fmt.Errorf("%w: pago %d con forma_pago %q fuera de la tabla 24", domain.ErrValidacion, i, p.FormaPago)
		}
		if p.Total.IsNegative() {
			return fmt.Errorf("%w: pago %d con total negativo", domain.ErrValidacion, i)
		}
	}
	return nil
}

// TipoIdentificacionComprador devuelve el tipo explícito o el inferido.
func (in *EntradaFactura) TipoIdentificacionComprador() string {
	if in.Comprador.TipoIdentificacion != "" {
		return in.Comprador.TipoIdentificacion
	}
	return pkgsri.InferirTipoIdentificacion(in.Comprador.Identificacion)
}

// Lineas convierte los detalles al formato de la calculadora.
func (in *EntradaFactura) Lineas() []tributo.Linea {
	lineas := make([]tributo.Linea, len(in.Detalles))
	for i, d := range in.Detalles {
		lineas[i] = tributo.Linea{
			CodigoPrincipal: d.CodigoPrincipal,
			Descripcion:     d.Descripcion,
			Cantidad:        d.Cantidad,
			PrecioUnitario:  d.PrecioUnitario,
			Descuento:       d.Descuento,
			TarifaIVA:       d.TarifaIVA,
		}
	}
	return lineas
}

// PagosXML convierte los pagos al formato del armador de XML.
func (in *EntradaFactura) PagosXML() []sri.Pago {
	pagos := make([]sri.Pago, len(in.Pagos))
	for i, p := range in.Pagos {
		pagos[i] = sri.Pago{
			FormaPago:    p.FormaPago,
			Total:        p.Total,
			Plazo:        p.Plazo,
			UnidadTiempo: p.UnidadTiempo,
		}
	}
	return pagos
}

// CamposXML arma infoAdicional: primero email y dirección del comprador,
// luego los campos libres.
func (in *EntradaFactura) CamposXML() []sri.CampoAdicional {
	var campos []sri.CampoAdicional
	if in.Comprador.Email != "" {
		campos = append(campos, sri.CampoAdicional{Nombre: "Email", Valor: in.Comprador.Email})
	}
	if in.Comprador.Direccion != "" {
		campos = append(campos, sri.CampoAdicional{Nombre: "Direccion", Valor: in.Comprador.Direccion})
	}
	for _, c := range in.InfoAdicional {
		if c.Nombre == "" || c.Valor == "" {
			continue
		}
		campos = append(campos, sri.CampoAdicional{Nombre: c.Nombre, Valor: c.Valor})
	}
	return campos
}
