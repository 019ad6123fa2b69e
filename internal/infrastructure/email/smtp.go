// Package email envía el comprobante autorizado al comprador por SMTP, con el
// XML y el RIDE adjuntos. Igual que el webhook, el envío nunca es fatal: sin
// configuración SMTP o con el servidor caído se registra y se sigue.
package email

import (
	"context"
	"fmt"
	"io"

	gomail "gopkg.in/gomail.v2"

	"github.com/kipu-ec/kipu-api/pkg/config"
	"github.com/kipu-ec/kipu-api/pkg/logger"
)

// Comprobante reúne lo necesario para el correo de una factura autorizada.
type Comprobante struct {
	Destinatario string // email del comprador; vacío → no se envía
	Comprador    string
	Emisor       string // razón social del emisor
	Numero       string // ej. 001-100-000000123
	ClaveAcceso  string
	XML          []byte // comprobante autorizado
	PDF          []byte // RIDE
}

// Remitente es el puerto que consume el worker.
type Remitente interface {
	EnviarComprobante(ctx context.Context, c Comprobante)
}

// EnviadorSMTP implementa Remitente con gomail.
type EnviadorSMTP struct {
	dialer     *gomail.Dialer
	from       string
	habilitado bool
	log        *logger.Logger
}

var _ Remitente = (*EnviadorSMTP)(nil)

// NewEnviadorSMTP construye el remitente. Sin host o sin from queda en modo
// silencioso.
func NewEnviadorSMTP(cfg config.SMTPConfig, log *logger.Logger) *EnviadorSMTP {
	return &EnviadorSMTP{
		dialer:     gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		from:       cfg.From,
		habilitado: cfg.Habilitado(),
		log:        log.Componente("email"),
	}
}

// EnviarComprobante envía el correo. No devuelve error: el correo es cortesía,
// la autorización ya quedó persistida.
func (e *EnviadorSMTP) EnviarComprobante(ctx context.Context, c Comprobante) {
	if !e.habilitado {
		return
	}
	if c.Destinatario == "" {
		e.log.Debug().Str("clave", c.ClaveAcceso).Msg("factura sin email de comprador, correo omitido")
		return
	}
	if ctx.Err() != nil {
		return
	}

	if err := e.dialer.DialAndSend(construirMensaje(e.from, c)); err != nil {
		e.log.Warn().Err(err).
			Str("clave", c.ClaveAcceso).
			Str("destinatario", c.Destinatario).
			Msg("correo de comprobante no enviado")
		return
	}

	e.log.Debug().Str("clave", c.ClaveAcceso).Msg("correo de comprobante enviado")
}

func construirMensaje(from string, c Comprobante) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", c.Destinatario)
	m.SetHeader("Subject", fmt.Sprintf("Factura electrónica %s - %s", c.Numero, c.Emisor))
	m.SetBody("text/plain", cuerpoCorreo(c))

	if len(c.XML) > 0 {
		m.Attach(c.ClaveAcceso+".xml", gomail.SetCopyFunc(copiaDe(c.XML)))
	}
	if len(c.PDF) > 0 {
		m.Attach(c.ClaveAcceso+".pdf", gomail.SetCopyFunc(copiaDe(c.PDF)))
	}
	return m
}

func cuerpoCorreo(c Comprobante) string {
	return fmt.Sprintf(
		"Estimado(a) %s:\n\n"+
			"Su factura %s, emitida por %s, fue autorizada por el SRI.\n"+
			"Clave de acceso: %s\n\n"+
			"Adjuntamos el comprobante electrónico (XML) y su representación impresa (PDF).\n\n"+
			"Este es un mensaje automático, por favor no responda a este correo.\n",
		c.Comprador, c.Numero, c.Emisor, c.ClaveAcceso,
	)
}

func copiaDe(contenido []byte) func(io.Writer) error {
	return func(w io.Writer) error {
		_, err := w.Write(contenido)
		return err
	}
}
