package sri

import (
	"fmt"
	"time"

	"github.com/beevik/etree"

	"github.com/kipu-ec/kipu-api/internal/domain"
	"github.com/kipu-ec/kipu-api/internal/domain/entity"
)

// EnvolverAutorizado arma el documento de autorización que se archiva en el
// bucket y se entrega al comprador: la respuesta del SRI con el comprobante
// firmado embebido en CDATA. Es el mismo formato que devuelve la consulta
// pública de comprobantes del SRI, de modo que el archivo descargado valida
// con las mismas herramientas.
func EnvolverAutorizado(res *ResultadoAutorizacion, ambiente string) ([]byte, error) {
	if res == nil || res.Comprobante == "" {
		return nil, fmt.Errorf("%w: autorización sin comprobante embebido", domain.ErrValidacion)
	}

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	aut := doc.CreateElement("autorizacion")
	aut.CreateElement("estado").SetText(res.Estado)
	if res.NumeroAutorizacion != "" {
		aut.CreateElement("numeroAutorizacion").SetText(res.NumeroAutorizacion)
	}
	if res.FechaAutorizacion != nil {
		aut.CreateElement("fechaAutorizacion").SetText(res.FechaAutorizacion.Format(time.RFC3339))
	}
	aut.CreateElement("ambiente").SetText(nombreAmbiente(res.Ambiente, ambiente))
	aut.CreateElement("comprobante").CreateCData(res.Comprobante)

	doc.Indent(2)
	out, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("sri: serializar autorización: %w", err)
	}
	return out, nil
}

// nombreAmbiente prefiere el nombre que envió el SRI; si no vino, lo deriva
// del código de ambiente del emisor.
func nombreAmbiente(delSRI, codigo string) string {
	if delSRI != "" {
		return delSRI
	}
	if codigo == entity.AmbienteProduccion {
		return "PRODUCCION"
	}
	return "PRUEBAS"
}
