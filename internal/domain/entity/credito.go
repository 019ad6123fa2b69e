package entity

import "time"

// CreditoEmisor es el saldo de emisiones disponibles de un emisor.
// El saldo nunca baja de cero; cada autorización exitosa consume uno.
type CreditoEmisor struct {
	EmisorID      string
	Saldo         int64
	ActualizadoEn time.Time
}

// Tipos de movimiento del libro de créditos.
const (
	MovimientoRecarga = "RECARGA"
	MovimientoConsumo = "CONSUMO"
	MovimientoAjuste  = "AJUSTE"
)

// TransaccionCredito es una entrada inmutable del libro de auditoría de
// créditos (recargas administrativas, consumos, ajustes).
type TransaccionCredito struct {
	ID           string
	EmisorID     string
	Tipo         string
	Cantidad     int64 // positiva en recargas, negativa en consumos
	SaldoDespues int64
	Detalle      string
	CreatedAt    time.Time
}
