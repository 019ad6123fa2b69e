// Package pdf implementa la Representación Impresa del Documento Electrónico
// (RIDE) de la factura, según el formato de la Ficha Técnica del SRI.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  EMISOR: Razón social / RUC      │  FACTURA No. 001-100-…    │
//	│  Direcciones / Obligado contab.  │  N° autorización + fecha  │
//	│                                  │  Ambiente / Clave acceso  │
//	│  ─────────────────────────────────────────────────────────  │
//	│  COMPRADOR: Razón social + identificación + fecha emisión   │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Cod | Descripción | Cant | P.Unit | Dscto | Total    │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FORMA DE PAGO / INFO ADICIONAL  │  SUBTOTALES / IVA / TOTAL │
//	│  ─────────────────────────────────────────────────────────  │
//	│  QR consulta pública SRI + leyenda                           │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/kipu-ec/kipu-api/internal/domain"
	"github.com/kipu-ec/kipu-api/internal/domain/entity"
	"github.com/kipu-ec/kipu-api/internal/domain/tributo"
	"github.com/kipu-ec/kipu-api/internal/infrastructure/sri"
	pkgsri "github.com/kipu-ec/kipu-api/pkg/sri"
)

// urlConsultaSRI es la página pública de validez de comprobantes; el QR la
// parametriza con la clave de acceso.
const urlConsultaSRI = "https://srienlinea.sri.gob.ec/sri-en-linea/SriDeclaracionesWeb/ConsultaValidezComprobanteElectronico/Consultas/consultaValidezComprobante?claveAcceso="

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimario = &props.Color{Red: 15, Green: 75, Blue: 120}
	colorGris     = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorAlerta   = &props.Color{Red: 190, Green: 30, Blue: 30}
)

// ── Generador ─────────────────────────────────────────────────────────────────

// GeneradorRIDE produce el PDF de la factura usando Maroto v2.
type GeneradorRIDE struct{}

// NewGeneradorRIDE construye el generador.
func NewGeneradorRIDE() *GeneradorRIDE { return &GeneradorRIDE{} }

// Generar arma el RIDE a partir del mismo contexto con el que se construyó el
// XML. Mientras la factura no esté AUTORIZADO el documento lleva la leyenda
// "PENDIENTE DE AUTORIZACIÓN" en rojo.
func (g *GeneradorRIDE) Generar(_ context.Context, fc *sri.ContextoFactura) ([]byte, error) {
	if fc == nil || fc.Emisor == nil || fc.Factura == nil || fc.Calculo == nil {
		return nil, fmt.Errorf("%w: faltan emisor, factura o cálculo para el RIDE", domain.ErrValidacion)
	}
	if len(fc.Factura.ClaveAcceso) != pkgsri.LongitudClaveAcceso {
		return nil, fmt.Errorf("%w: clave de acceso incompleta", domain.ErrValidacion)
	}

	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Factura "+fc.Factura.NumeroCompleto(), true).
		WithAuthor(fc.Emisor.RazonSocial, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(cabeceraRow(fc))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimario, Thickness: 0.5}))
	m.AddRows(compradorRow(fc.Factura))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimario, Thickness: 0.3}))

	m.AddRows(tablaCabeceraRow())
	m.AddRows(tablaDetalleRows(fc.Calculo.Detalles)...)
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimario, Thickness: 0.3}))

	m.AddRows(totalesRows(fc.Calculo)...)

	m.AddRows(line.NewRow(2))
	m.AddRows(pagosYAdicionalesRows(fc)...)

	m.AddRows(line.NewRow(2))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGris, Thickness: 0.3}))
	m.AddRows(pieRow(fc.Factura))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar RIDE: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// cabeceraRow: bloque del emisor (izq) y bloque tributario (der).
func cabeceraRow(fc *sri.ContextoFactura) core.Row {
	e, f := fc.Emisor, fc.Factura
	clave := f.ClaveAcceso

	izquierda := col.New(6).Add(
		text.New(e.RazonSocial, props.Text{
			Style: fontstyle.Bold, Size: 12, Color: colorPrimario, Top: 1,
		}),
		text.New(noVacio(e.NombreComercial, e.RazonSocial), props.Text{
			Size: 9, Top: 8, Color: colorGris,
		}),
		text.New("Dirección matriz: "+e.DireccionMatriz, props.Text{Size: 8, Top: 14}),
		text.New("Dirección sucursal: "+noVacio(fc.DirEstablecimiento, e.DireccionMatriz),
			props.Text{Size: 8, Top: 19}),
		text.New("Obligado a llevar contabilidad: "+noVacio(e.ObligadoContabilidad, "NO"),
			props.Text{Size: 8, Top: 24}),
	)

	componentes := []core.Component{
		text.New("R.U.C.: "+clave[10:23], props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Right, Top: 1,
		}),
		text.New("FACTURA", props.Text{
			Style: fontstyle.Bold, Size: 13, Align: align.Right,
			Color: colorPrimario, Top: 7,
		}),
		text.New("No. "+f.NumeroCompleto(), props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Right, Top: 14,
		}),
	}
	if f.Estado == entity.EstadoAutorizado && f.FechaAutorizacion != nil {
		componentes = append(componentes,
			text.New("NÚMERO DE AUTORIZACIÓN", props.Text{Size: 7, Align: align.Right, Top: 20, Color: colorGris}),
			text.New(clave, props.Text{Size: 6.5, Align: align.Right, Top: 24}),
			text.New("Fecha autorización: "+f.FechaAutorizacion.Format("02/01/2006 15:04:05"),
				props.Text{Size: 8, Align: align.Right, Top: 28}),
		)
	} else {
		componentes = append(componentes,
			text.New("PENDIENTE DE AUTORIZACIÓN", props.Text{
				Style: fontstyle.Bold, Size: 10, Align: align.Right,
				Color: colorAlerta, Top: 22,
			}),
		)
	}
	componentes = append(componentes,
		text.New("Ambiente: "+nombreAmbiente(clave[23:24]), props.Text{Size: 8, Align: align.Right, Top: 33}),
		text.New("Emisión: "+nombreEmision(clave[47:48]), props.Text{Size: 8, Align: align.Right, Top: 37}),
		text.New("CLAVE DE ACCESO", props.Text{Size: 7, Align: align.Right, Top: 42, Color: colorGris}),
		text.New(clave, props.Text{Size: 6.5, Align: align.Right, Top: 46}),
	)

	return row.New(52).Add(izquierda, col.New(6).Add(componentes...))
}

// compradorRow: datos del adquiriente y fecha de emisión (de la clave).
func compradorRow(f *entity.Factura) core.Row {
	clave := f.ClaveAcceso
	fecha := clave[0:2] + "/" + clave[2:4] + "/" + clave[4:8]

	return row.New(14).Add(
		col.New(12).Add(
			text.New("COMPRADOR", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimario, Top: 1,
			}),
			text.New(f.RazonSocialComprador, props.Text{Style: fontstyle.Bold, Size: 10, Top: 6}),
			text.New(fmt.Sprintf("Identificación: %s   |   Fecha de emisión: %s",
				f.IdentificacionComprador, fecha,
			), props.Text{Size: 8, Top: 12, Color: colorGris}),
		),
	)
}

// tablaCabeceraRow: cabecera de la tabla de detalles.
func tablaCabeceraRow() core.Row {
	h := func(etiqueta string, ancho int, a align.Type) core.Col {
		return col.New(ancho).Add(text.New(etiqueta, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorPrimario, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Cod.", 1, align.Left),
		h("Descripción", 5, align.Left),
		h("Cant.", 1, align.Right),
		h("P. Unitario", 2, align.Right),
		h("Dscto.", 1, align.Right),
		h("Total", 2, align.Right),
	)
}

// tablaDetalleRows: una fila por línea del comprobante.
func tablaDetalleRows(detalles []tributo.DetalleCalculado) []core.Row {
	filas := make([]core.Row, 0, len(detalles))
	for _, d := range detalles {
		filas = append(filas, row.New(7).Add(
			col.New(1).Add(text.New(noVacio(d.CodigoPrincipal, "-"),
				props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1})),
			col.New(5).Add(text.New(d.Descripcion,
				props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1})),
			col.New(1).Add(text.New(d.Cantidad.String(),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(2).Add(text.New(tributo.Formato2(d.PrecioUnitario),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(1).Add(text.New(tributo.Formato2(d.Descuento),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(2).Add(text.New(tributo.Formato2(d.BaseImponible),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
		))
	}
	return filas
}

// totalesRows: subtotales por tarifa, descuento, IVA y total a pagar.
func totalesRows(calculo *tributo.Resultado) []core.Row {
	var filas []core.Row

	for _, imp := range calculo.Impuestos {
		filas = append(filas, filaTotal(
			fmt.Sprintf("SUBTOTAL %s%%", imp.Tarifa.StringFixed(0)),
			tributo.Formato2(imp.BaseImponible), false))
	}
	filas = append(filas,
		filaTotal("SUBTOTAL SIN IMPUESTOS", tributo.Formato2(calculo.Totales.TotalSinImpuestos), false),
		filaTotal("TOTAL DESCUENTO", tributo.Formato2(calculo.Totales.TotalDescuento), false),
	)
	for _, imp := range calculo.Impuestos {
		if imp.Tarifa.Sign() > 0 {
			filas = append(filas, filaTotal(
				fmt.Sprintf("IVA %s%%", imp.Tarifa.StringFixed(0)),
				tributo.Formato2(imp.Valor), false))
		}
	}
	filas = append(filas,
		filaTotal("PROPINA", "0.00", false),
		filaTotal("VALOR TOTAL", tributo.Formato2(calculo.Totales.ImporteTotal), true),
	)
	return filas
}

func filaTotal(etiqueta, valor string, destacada bool) core.Row {
	estiloEtiqueta := props.Text{Style: fontstyle.Bold, Size: 8, Align: align.Right, Right: 2}
	estiloValor := props.Text{Size: 8, Align: align.Right, Right: 1}
	alto := 5.0
	if destacada {
		estiloEtiqueta.Size = 10
		estiloEtiqueta.Color = colorPrimario
		estiloValor.Style = fontstyle.Bold
		estiloValor.Size = 10
		estiloValor.Color = colorPrimario
		alto = 7
	}
	return row.New(alto).Add(
		col.New(6),
		col.New(4).Add(text.New(etiqueta, estiloEtiqueta)),
		col.New(2).Add(text.New(valor, estiloValor)),
	)
}

// pagosYAdicionalesRows: formas de pago (nombre de la tabla 24) y campos de
// información adicional.
func pagosYAdicionalesRows(fc *sri.ContextoFactura) []core.Row {
	filas := []core.Row{
		row.New(6).Add(col.New(12).Add(text.New("FORMA DE PAGO", props.Text{
			Style: fontstyle.Bold, Size: 8, Color: colorPrimario, Top: 1,
		}))),
	}

	pagos := fc.Pagos
	if len(pagos) == 0 {
		pagos = []sri.Pago{{FormaPago: pkgsri.FormaPagoPorDefecto, Total: fc.Calculo.Totales.ImporteTotal}}
	}
	for _, p := range pagos {
		codigo := noVacio(p.FormaPago, pkgsri.FormaPagoPorDefecto)
		nombre, ok := pkgsri.FormasPago[codigo]
		if !ok {
			nombre = codigo
		}
		filas = append(filas, row.New(5).Add(col.New(12).Add(
			text.New(fmt.Sprintf("%s: %s", nombre, tributo.Formato2(p.Total)),
				props.Text{Size: 8, Left: 2, Color: colorGris}),
		)))
	}

	if len(fc.CamposAdicionales) > 0 {
		filas = append(filas, row.New(6).Add(col.New(12).Add(
			text.New("INFORMACIÓN ADICIONAL", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimario, Top: 1,
			}),
		)))
		for _, c := range fc.CamposAdicionales {
			if c.Nombre == "" || c.Valor == "" {
				continue
			}
			filas = append(filas, row.New(5).Add(col.New(12).Add(
				text.New(c.Nombre+": "+c.Valor, props.Text{Size: 8, Left: 2, Color: colorGris}),
			)))
		}
	}
	return filas
}

// pieRow: QR hacia la consulta pública del SRI y leyenda.
func pieRow(f *entity.Factura) core.Row {
	return row.New(45).Add(
		col.New(4).Add(code.NewQr(urlConsultaSRI+f.ClaveAcceso, props.Rect{
			Percent: 90,
			Center:  true,
		})),
		col.New(8).Add(
			text.New("Escanee el código QR para verificar la validez\nde este comprobante en el portal del SRI.",
				props.Text{Size: 8, Top: 4, Left: 3, Color: colorGris}),
			text.New("DOCUMENTO SIN VALIDEZ TRIBUTARIA SIN AUTORIZACIÓN DEL SRI",
				props.Text{Size: 6.5, Top: 20, Left: 3, Color: colorGris}),
			text.New("FACTURA ELECTRÓNICA", props.Text{
				Style: fontstyle.Bold, Size: 10, Top: 28, Left: 3, Color: colorPrimario,
			}),
		),
	)
}

// ── helpers ───────────────────────────────────────────────────────────────────

func noVacio(s, respaldo string) string {
	if s != "" {
		return s
	}
	return respaldo
}

func nombreAmbiente(codigo string) string {
	if codigo == entity.AmbienteProduccion {
		return "PRODUCCIÓN"
	}
	return "PRUEBAS"
}

func nombreEmision(codigo string) string {
	if codigo == "1" {
		return "NORMAL"
	}
	return codigo
}
