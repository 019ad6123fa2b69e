package sri

import (
	"bytes"
	"encoding/xml"
	"fmt"

	"github.com/kipu-ec/kipu-api/internal/domain"
	"github.com/kipu-ec/kipu-api/internal/domain/tributo"
	"github.com/kipu-ec/kipu-api/pkg/sri"
)

// Atributos fijos del elemento raíz según el esquema factura v1.1.0. El id es
// el destino de la Reference del firmador.
const (
	versionFactura = "1.1.0"
	idComprobante  = "comprobante"

	monedaDolar = "DOLAR"
	maxTexto    = 300
)

// ConstructorXML arma el XML de factura (sin firma).
type ConstructorXML struct{}

// NewConstructorXML crea el servicio.
func NewConstructorXML() *ConstructorXML {
	return &ConstructorXML{}
}

// Construir genera el documento factura v1.1.0 a partir del contexto. Los
// campos tributarios salen de la clave de acceso, ya validada contra su
// dígito verificador.
func (s *ConstructorXML) Construir(ctx *ContextoFactura) ([]byte, error) {
	if ctx == nil || ctx.Emisor == nil || ctx.Factura == nil || ctx.Calculo == nil {
		return nil, fmt.Errorf("%w: faltan emisor, factura o cálculo en el contexto", domain.ErrValidacion)
	}
	clave := ctx.Factura.ClaveAcceso
	if err := sri.ValidarClaveAcceso(clave); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")

	root := xml.StartElement{
		Name: xml.Name{Local: "factura"},
		Attr: []xml.Attr{
			{Name: xml.Name{Local: "id"}, Value: idComprobante},
			{Name: xml.Name{Local: "version"}, Value: versionFactura},
		},
	}
	if err := enc.EncodeToken(root); err != nil {
		return nil, err
	}

	s.escribirInfoTributaria(enc, ctx, clave)
	s.escribirInfoFactura(enc, ctx, clave)
	s.escribirDetalles(enc, ctx)
	s.escribirInfoAdicional(enc, ctx)

	if err := enc.EncodeToken(root.End()); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// escribirInfoTributaria escribe el bloque fiscal. Ambiente, serie, secuencial
// y tipo de emisión se leen de la clave, no de la fila, para que ambos nunca
// diverjan.
func (s *ConstructorXML) escribirInfoTributaria(enc *xml.Encoder, ctx *ContextoFactura, clave string) {
	abrir(enc, "infoTributaria")
	escribir(enc, "ambiente", clave[23:24])
	escribir(enc, "tipoEmision", clave[47:48])
	escribir(enc, "razonSocial", texto(ctx.Emisor.RazonSocial))
	if ctx.Emisor.NombreComercial != "" {
		escribir(enc, "nombreComercial", texto(ctx.Emisor.NombreComercial))
	}
	escribir(enc, "ruc", clave[10:23])
	escribir(enc, "claveAcceso", clave)
	escribir(enc, "codDoc", clave[8:10])
	escribir(enc, "estab", clave[24:27])
	escribir(enc, "ptoEmi", clave[27:30])
	escribir(enc, "secuencial", clave[30:39])
	escribir(enc, "dirMatriz", texto(ctx.Emisor.DireccionMatriz))
	cerrar(enc, "infoTributaria")
}

func (s *ConstructorXML) escribirInfoFactura(enc *xml.Encoder, ctx *ContextoFactura, clave string) {
	f := ctx.Factura
	tot := ctx.Calculo.Totales

	abrir(enc, "infoFactura")
	// La clave lleva la fecha como ddmmaaaa.
	escribir(enc, "fechaEmision", clave[0:2]+"/"+clave[2:4]+"/"+clave[4:8])

	dir := ctx.DirEstablecimiento
	if dir == "" {
		dir = ctx.Emisor.DireccionMatriz
	}
	if dir != "" {
		escribir(enc, "dirEstablecimiento", texto(dir))
	}

	obligado := ctx.Emisor.ObligadoContabilidad
	if obligado == "" {
		obligado = "NO"
	}
	escribir(enc, "obligadoContabilidad", obligado)

	escribir(enc, "tipoIdentificacionComprador", f.TipoIdentificacionComprador)
	escribir(enc, "razonSocialComprador", texto(f.RazonSocialComprador))
	escribir(enc, "identificacionComprador", f.IdentificacionComprador)
	escribir(enc, "totalSinImpuestos", tributo.Formato2(tot.TotalSinImpuestos))
	escribir(enc, "totalDescuento", tributo.Formato2(tot.TotalDescuento))

	abrir(enc, "totalConImpuestos")
	for _, imp := range ctx.Calculo.Impuestos {
		abrir(enc, "totalImpuesto")
		escribir(enc, "codigo", imp.Codigo)
		escribir(enc, "codigoPorcentaje", imp.CodigoPorcentaje)
		escribir(enc, "baseImponible", tributo.Formato2(imp.BaseImponible))
		escribir(enc, "valor", tributo.Formato2(imp.Valor))
		cerrar(enc, "totalImpuesto")
	}
	cerrar(enc, "totalConImpuestos")

	escribir(enc, "propina", "0.00")
	escribir(enc, "importeTotal", tributo.Formato2(tot.ImporteTotal))
	escribir(enc, "moneda", monedaDolar)

	abrir(enc, "pagos")
	pagos := ctx.Pagos
	if len(pagos) == 0 {
		pagos = []Pago{{FormaPago: sri.FormaPagoPorDefecto, Total: tot.ImporteTotal}}
	}
	for _, p := range pagos {
		forma := p.FormaPago
		if forma == "" {
			forma = sri.FormaPagoPorDefecto
		}
		abrir(enc, "pago")
		escribir(enc, "formaPago", forma)
		escribir(enc, "total", tributo.Formato2(p.Total))
		if p.Plazo > 0 {
			unidad := p.UnidadTiempo
			if unidad == "" {
				unidad = "dias"
			}
			escribir(enc, "plazo", fmt.Sprintf("%d", p.Plazo))
			escribir(enc, "unidadTiempo", unidad)
		}
		cerrar(enc, "pago")
	}
	cerrar(enc, "pagos")
	cerrar(enc, "infoFactura")
}

func (s *ConstructorXML) escribirDetalles(enc *xml.Encoder, ctx *ContextoFactura) {
	abrir(enc, "detalles")
	for _, d := range ctx.Calculo.Detalles {
		abrir(enc, "detalle")
		if d.CodigoPrincipal != "" {
			escribir(enc, "codigoPrincipal", texto(d.CodigoPrincipal))
		}
		escribir(enc, "descripcion", texto(d.Descripcion))
		escribir(enc, "cantidad", tributo.Formato6(d.Cantidad))
		escribir(enc, "precioUnitario", tributo.Formato6(d.PrecioUnitario))
		escribir(enc, "descuento", tributo.Formato2(d.Descuento))
		escribir(enc, "precioTotalSinImpuesto", tributo.Formato2(d.BaseImponible))
		abrir(enc, "impuestos")
		abrir(enc, "impuesto")
		escribir(enc, "codigo", tributo.CodigoImpuestoIVA)
		escribir(enc, "codigoPorcentaje", d.CodigoPorcentaje)
		escribir(enc, "tarifa", tributo.Formato2(d.TarifaNormalizada))
		escribir(enc, "baseImponible", tributo.Formato2(d.BaseImponible))
		escribir(enc, "valor", tributo.Formato2(d.ValorIVA))
		cerrar(enc, "impuesto")
		cerrar(enc, "impuestos")
		cerrar(enc, "detalle")
	}
	cerrar(enc, "detalles")
}

func (s *ConstructorXML) escribirInfoAdicional(enc *xml.Encoder, ctx *ContextoFactura) {
	if len(ctx.CamposAdicionales) == 0 {
		return
	}
	abrir(enc, "infoAdicional")
	for _, c := range ctx.CamposAdicionales {
		if c.Nombre == "" || c.Valor == "" {
			continue
		}
		_ = enc.EncodeToken(xml.StartElement{
			Name: xml.Name{Local: "campoAdicional"},
			Attr: []xml.Attr{{Name: xml.Name{Local: "nombre"}, Value: texto(c.Nombre)}},
		})
		_ = enc.EncodeToken(xml.CharData(texto(c.Valor)))
		_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Local: "campoAdicional"}})
	}
	cerrar(enc, "infoAdicional")
}

// texto normaliza un campo libre para el esquema: sin diacríticos, espacios
// colapsados y truncado al máximo permitido.
func texto(s string) string {
	return sri.TruncarTexto(sri.NormalizarTexto(s), maxTexto)
}

func abrir(enc *xml.Encoder, local string) {
	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Local: local}})
}

func cerrar(enc *xml.Encoder, local string) {
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Local: local}})
}

func escribir(enc *xml.Encoder, local, valor string) {
	abrir(enc, local)
	_ = enc.EncodeToken(xml.CharData(valor))
	cerrar(enc, local)
}
