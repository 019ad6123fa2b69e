package domain

import "errors"

// Errores de dominio (sin dependencias externas). Los handlers HTTP los
// traducen a códigos de estado; las capas internas los envuelven con
// fmt.Errorf("%w: detalle", ...) para conservar la taxonomía.
var (
	ErrNoEncontrado          = errors.New("recurso no encontrado")
	ErrValidacion            = errors.New("entrada inválida")
	ErrNoAutorizado          = errors.New("no autorizado")
	ErrProhibido             = errors.New("acceso denegado")
	ErrConflicto             = errors.New("conflicto con el estado actual")
	ErrCreditosInsuficientes = errors.New("créditos insuficientes")

	// Credenciales de firma electrónica.
	ErrFirmaFaltante = errors.New("el emisor no tiene certificado de firma")
	ErrFirmaExpirada = errors.New("firma expirada")
	ErrFirmaInvalida = errors.New("certificado de firma inválido")
	ErrRucNoCoincide = errors.New("el RUC del certificado no coincide con el del emisor")

	// Integración con el SRI; nunca se expone al emisor, el worker reintenta.
	ErrSRINoDisponible = errors.New("servicio del SRI no disponible")
)
