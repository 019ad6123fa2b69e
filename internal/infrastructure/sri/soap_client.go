package sri

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kipu-ec/kipu-api/internal/domain"
	"github.com/kipu-ec/kipu-api/internal/domain/entity"
)

// ── Constantes de los WS del SRI ──────────────────────────────────────────────

const (
	urlRecepcionPruebas       = "https://celcer.sri.gob.ec/comprobantes-electronicos-ws/RecepcionComprobantesOffline"
	urlAutorizacionPruebas    = "https://celcer.sri.gob.ec/comprobantes-electronicos-ws/AutorizacionComprobantesOffline"
	urlRecepcionProduccion    = "https://cel.sri.gob.ec/comprobantes-electronicos-ws/RecepcionComprobantesOffline"
	urlAutorizacionProduccion = "https://cel.sri.gob.ec/comprobantes-electronicos-ws/AutorizacionComprobantesOffline"

	nsSoapEnv      = "http://schemas.xmlsoap.org/soap/envelope/"
	nsRecepcion    = "http://ec.gob.sri.ws.recepcion"
	nsAutorizacion = "http://ec.gob.sri.ws.autorizacion"
)

// Estados que devuelven los WS del SRI. Son vocabulario del cable, no de la
// base: el worker los traduce a estados de entity.Factura.
const (
	EstadoRecibida     = "RECIBIDA"
	EstadoDevuelta     = "DEVUELTA"
	EstadoAutorizado   = "AUTORIZADO"
	EstadoNoAutorizado = "NO AUTORIZADO"
	EstadoEnProceso    = "EN PROCESO"
)

// ── Puerto (interfaz) ──────────────────────────────────────────────────────────

// ResultadoRecepcion resultado de la entrega al WS de recepción.
type ResultadoRecepcion struct {
	Estado   string // RECIBIDA o DEVUELTA
	Mensajes string // mensajes de rechazo aplanados (vacío si RECIBIDA)
}

// ResultadoAutorizacion resultado de la consulta al WS de autorización.
type ResultadoAutorizacion struct {
	Estado             string     // AUTORIZADO, NO AUTORIZADO, EN PROCESO u otro estado del SRI
	NumeroAutorizacion string     // en el esquema offline coincide con la clave de acceso
	FechaAutorizacion  *time.Time // nil si el SRI no devolvió una fecha parseable
	Ambiente           string     // "PRUEBAS" o "PRODUCCION", tal como lo nombra el SRI
	Comprobante        string     // XML del comprobante autorizado devuelto por el SRI
	Mensajes           string     // mensajes del SRI aplanados (puede ser vacío)
}

// ClienteSRI define el puerto de salida hacia los WS del SRI.
// La implementación concreta usa SOAP; para tests se puede inyectar un mock.
type ClienteSRI interface {
	// EnviarRecepcion entrega el comprobante firmado al WS de recepción.
	// ambiente debe ser "1" (pruebas) o "2" (producción).
	EnviarRecepcion(ctx context.Context, xmlFirmado []byte, ambiente string) (*ResultadoRecepcion, error)

	// ConsultarAutorizacion consulta el estado de autorización de una clave de acceso.
	ConsultarAutorizacion(ctx context.Context, claveAcceso, ambiente string) (*ResultadoAutorizacion, error)
}

// ── Implementación SOAP ────────────────────────────────────────────────────────

// ClienteSOAP implementa ClienteSRI usando los WS SOAP offline del SRI.
// Usa net/http de la stdlib; el SRI no publica un WSDL estable que justifique
// un generador de código.
type ClienteSOAP struct {
	httpClient *http.Client

	// sobre-escritura de endpoints para tests; vacíos usan los oficiales.
	urlRecepcion    string
	urlAutorizacion string
}

var _ ClienteSRI = (*ClienteSOAP)(nil)

// NewClienteSOAP construye el cliente SOAP. Timeout por defecto 8 s: un WS
// colgado no debe retener el lote, el siguiente tick reintenta.
func NewClienteSOAP(timeout time.Duration) *ClienteSOAP {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &ClienteSOAP{httpClient: &http.Client{Timeout: timeout}}
}

// ── Estructuras SOAP de petición ───────────────────────────────────────────────

type sobreSOAP struct {
	XMLName  xml.Name       `xml:"soapenv:Envelope"`
	XmlnsEnv string         `xml:"xmlns:soapenv,attr"`
	XmlnsEc  string         `xml:"xmlns:ec,attr"`
	Header   encabezadoSOAP `xml:"soapenv:Header"`
	Body     cuerpoSOAP     `xml:"soapenv:Body"`
}

type encabezadoSOAP struct{}

type cuerpoSOAP struct {
	Contenido interface{}
}

func (b cuerpoSOAP) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Name.Local = "soapenv:Body"
	e.EncodeToken(start)
	if err := e.Encode(b.Contenido); err != nil {
		return err
	}
	return e.EncodeToken(start.End())
}

// peticionValidar cuerpo de la operación validarComprobante (recepción).
type peticionValidar struct {
	XMLName xml.Name `xml:"ec:validarComprobante"`
	XML     string   `xml:"xml"` // comprobante firmado en Base64
}

// peticionAutorizar cuerpo de la operación autorizacionComprobante.
type peticionAutorizar struct {
	XMLName     xml.Name `xml:"ec:autorizacionComprobante"`
	ClaveAcceso string   `xml:"claveAccesoComprobante"`
}

// ── Estructuras SOAP de respuesta ──────────────────────────────────────────────

// Los nombres de elemento se comparan sin namespace: el SRI prefija la
// respuesta con ns2/ns3 según el despliegue.

type sobreRespuestaRecepcion struct {
	Body struct {
		Respuesta *respuestaRecepcionSRI `xml:"validarComprobanteResponse>RespuestaRecepcionComprobante"`
		Fault     *fallaSOAP             `xml:"Fault"`
	} `xml:"Body"`
}

type respuestaRecepcionSRI struct {
	Estado       string                `xml:"estado"`
	Comprobantes []comprobanteRecibido `xml:"comprobantes>comprobante"`
}

type comprobanteRecibido struct {
	ClaveAcceso string       `xml:"claveAcceso"`
	Mensajes    []mensajeSRI `xml:"mensajes>mensaje"`
}

type sobreRespuestaAutorizacion struct {
	Body struct {
		Respuesta *respuestaAutorizacionSRI `xml:"autorizacionComprobanteResponse>RespuestaAutorizacionComprobante"`
		Fault     *fallaSOAP                `xml:"Fault"`
	} `xml:"Body"`
}

type respuestaAutorizacionSRI struct {
	ClaveAccesoConsultada string            `xml:"claveAccesoConsultada"`
	NumeroComprobantes    string            `xml:"numeroComprobantes"`
	Autorizaciones        []autorizacionSRI `xml:"autorizaciones>autorizacion"`
}

type autorizacionSRI struct {
	Estado             string       `xml:"estado"`
	NumeroAutorizacion string       `xml:"numeroAutorizacion"`
	FechaAutorizacion  string       `xml:"fechaAutorizacion"`
	Ambiente           string       `xml:"ambiente"`
	Comprobante        string       `xml:"comprobante"`
	Mensajes           []mensajeSRI `xml:"mensajes>mensaje"`
}

type mensajeSRI struct {
	Identificador        string `xml:"identificador"`
	Mensaje              string `xml:"mensaje"`
	InformacionAdicional string `xml:"informacionAdicional"`
	Tipo                 string `xml:"tipo"`
}

// aplanado devuelve el mensaje en una línea: "identificador: mensaje (informacionAdicional)".
func (m mensajeSRI) aplanado() string {
	s := m.Mensaje
	if m.Identificador != "" {
		s = m.Identificador + ": " + s
	}
	if m.InformacionAdicional != "" {
		s += " (" + m.InformacionAdicional + ")"
	}
	return s
}

type fallaSOAP struct {
	Codigo  string `xml:"faultcode"`
	Detalle string `xml:"faultstring"`
}

// ── EnviarRecepcion ────────────────────────────────────────────────────────────

// EnviarRecepcion entrega el comprobante firmado al WS de recepción del SRI.
// Errores de red, faults SOAP y respuestas ilegibles se reportan como
// ErrSRINoDisponible: el llamador no debe cambiar el estado de la factura y
// el worker reintentará en el siguiente tick.
func (c *ClienteSOAP) EnviarRecepcion(ctx context.Context, xmlFirmado []byte, ambiente string) (*ResultadoRecepcion, error) {
	urlWS, _ := c.endpoints(ambiente)
	peticion := peticionValidar{XML: base64.StdEncoding.EncodeToString(xmlFirmado)}

	rawBody, err := c.llamar(ctx, urlWS, peticion, nsRecepcion)
	if err != nil {
		return nil, err
	}

	var sobre sobreRespuestaRecepcion
	if err := xml.Unmarshal(rawBody, &sobre); err != nil {
		return nil, fmt.Errorf("%w: respuesta de recepción ilegible: %v", domain.ErrSRINoDisponible, err)
	}
	if sobre.Body.Fault != nil {
		return nil, fmt.Errorf("%w: fault [%s] %s", domain.ErrSRINoDisponible, sobre.Body.Fault.Codigo, sobre.Body.Fault.Detalle)
	}
	resp := sobre.Body.Respuesta
	if resp == nil || resp.Estado == "" {
		return nil, fmt.Errorf("%w: respuesta de recepción vacía", domain.ErrSRINoDisponible)
	}

	var mensajes []string
	for _, comp := range resp.Comprobantes {
		for _, m := range comp.Mensajes {
			mensajes = append(mensajes, m.aplanado())
		}
	}
	return &ResultadoRecepcion{
		Estado:   resp.Estado,
		Mensajes: strings.Join(mensajes, "; "),
	}, nil
}

// ── ConsultarAutorizacion ──────────────────────────────────────────────────────

// ConsultarAutorizacion consulta el estado de autorización de una clave de acceso.
// Si el SRI aún no tiene registros para la clave devuelve Estado=EN PROCESO,
// sin error: el comprobante sigue en la cola del SRI.
func (c *ClienteSOAP) ConsultarAutorizacion(ctx context.Context, claveAcceso, ambiente string) (*ResultadoAutorizacion, error) {
	_, urlWS := c.endpoints(ambiente)
	peticion := peticionAutorizar{ClaveAcceso: claveAcceso}

	rawBody, err := c.llamar(ctx, urlWS, peticion, nsAutorizacion)
	if err != nil {
		return nil, err
	}

	var sobre sobreRespuestaAutorizacion
	if err := xml.Unmarshal(rawBody, &sobre); err != nil {
		return nil, fmt.Errorf("%w: respuesta de autorización ilegible: %v", domain.ErrSRINoDisponible, err)
	}
	if sobre.Body.Fault != nil {
		return nil, fmt.Errorf("%w: fault [%s] %s", domain.ErrSRINoDisponible, sobre.Body.Fault.Codigo, sobre.Body.Fault.Detalle)
	}
	resp := sobre.Body.Respuesta
	if resp == nil {
		return nil, fmt.Errorf("%w: respuesta de autorización vacía", domain.ErrSRINoDisponible)
	}

	if len(resp.Autorizaciones) == 0 {
		return &ResultadoAutorizacion{Estado: EstadoEnProceso}, nil
	}

	aut := resp.Autorizaciones[0]
	var mensajes []string
	for _, m := range aut.Mensajes {
		mensajes = append(mensajes, m.aplanado())
	}
	resultado := &ResultadoAutorizacion{
		Estado:             aut.Estado,
		NumeroAutorizacion: aut.NumeroAutorizacion,
		Ambiente:           aut.Ambiente,
		Comprobante:        strings.TrimSpace(aut.Comprobante),
		Mensajes:           strings.Join(mensajes, "; "),
	}
	if fecha, err := time.Parse(time.RFC3339, aut.FechaAutorizacion); err == nil {
		resultado.FechaAutorizacion = &fecha
	}
	return resultado, nil
}

// ── Transporte ─────────────────────────────────────────────────────────────────

// endpoints resuelve las URLs de recepción y autorización según el ambiente.
func (c *ClienteSOAP) endpoints(ambiente string) (recepcion, autorizacion string) {
	if c.urlRecepcion != "" || c.urlAutorizacion != "" {
		return c.urlRecepcion, c.urlAutorizacion
	}
	if ambiente == entity.AmbienteProduccion {
		return urlRecepcionProduccion, urlAutorizacionProduccion
	}
	return urlRecepcionPruebas, urlAutorizacionPruebas
}

// llamar serializa el envelope, hace el POST y devuelve el cuerpo crudo.
func (c *ClienteSOAP) llamar(ctx context.Context, urlWS string, contenido interface{}, ns string) ([]byte, error) {
	sobre := sobreSOAP{
		XmlnsEnv: nsSoapEnv,
		XmlnsEc:  ns,
		Body:     cuerpoSOAP{Contenido: contenido},
	}
	payload, err := xml.MarshalIndent(sobre, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("soap: serializar envelope: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, urlWS, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("soap: crear request: %w", err)
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SOAPAction", "")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSRINoDisponible, err)
	}
	defer resp.Body.Close()

	// 8 MB: la respuesta de autorización trae el XML firmado embebido.
	rawBody, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: leer respuesta: %v", domain.ErrSRINoDisponible, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: HTTP %d", domain.ErrSRINoDisponible, resp.StatusCode)
	}
	return rawBody, nil
}
