// Package notify entrega eventos de cambio de estado de facturas a un webhook
// configurado. La entrega es at-most-once: un solo POST por transición, sin
// reintentos; los fallos se registran y se descartan para que el worker nunca
// se detenga por un webhook caído.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/kipu-ec/kipu-api/pkg/logger"
)

// EventoFactura es el cuerpo del POST que recibe el webhook en cada
// transición terminal (AUTORIZADO, RECHAZADO) o de rechazo en recepción
// (DEVUELTA).
type EventoFactura struct {
	UserUID     string    `json:"user_uid"`
	InvoiceID   string    `json:"invoice_id"`
	ClaveAcceso string    `json:"clave_acceso"`
	Estado      string    `json:"estado"`
	MensajeSRI  string    `json:"mensaje_sri,omitempty"`
	Fecha       time.Time `json:"fecha"`
}

// Notificador es el puerto que consume el worker; permite sustituirlo en
// tests.
type Notificador interface {
	NotificarEstado(ctx context.Context, evento EventoFactura)
}

// NotificadorWebhook implementa Notificador con un POST JSON.
type NotificadorWebhook struct {
	url        string
	httpClient *http.Client
	log        *logger.Logger
}

var _ Notificador = (*NotificadorWebhook)(nil)

// NewNotificadorWebhook construye el notificador. Con url vacía queda en modo
// silencioso y todos los eventos se descartan.
func NewNotificadorWebhook(url string, timeout time.Duration, log *logger.Logger) *NotificadorWebhook {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &NotificadorWebhook{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		log:        log.Componente("webhook"),
	}
}

// NotificarEstado envía el evento. Nunca devuelve error: un webhook caído no
// debe alterar el ciclo de liquidación.
func (n *NotificadorWebhook) NotificarEstado(ctx context.Context, evento EventoFactura) {
	if n.url == "" {
		return
	}

	cuerpo, err := json.Marshal(evento)
	if err != nil {
		n.log.Error().Err(err).Str("factura", evento.InvoiceID).Msg("serializar evento de webhook")
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(cuerpo))
	if err != nil {
		n.log.Error().Err(err).Msg("crear request de webhook")
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		n.log.Warn().Err(err).
			Str("factura", evento.InvoiceID).
			Str("estado", evento.Estado).
			Msg("webhook no entregado")
		return
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4*1024))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		n.log.Warn().
			Int("status", resp.StatusCode).
			Str("factura", evento.InvoiceID).
			Str("estado", evento.Estado).
			Msg("webhook respondió error")
		return
	}

	n.log.Debug().
		Str("factura", evento.InvoiceID).
		Str("estado", evento.Estado).
		Msg("webhook entregado")
}
