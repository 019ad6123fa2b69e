// Package auth sincroniza los perfiles del proveedor de identidad y activa
// el RUC del emisor: la identidad vive afuera, aquí solo se ancla a un perfil
// y se materializa el emisor con su estructura por defecto.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kipu-ec/kipu-api/internal/domain"
	"github.com/kipu-ec/kipu-api/internal/domain/entity"
	"github.com/kipu-ec/kipu-api/internal/domain/repository"
	"github.com/kipu-ec/kipu-api/pkg/logger"
	pkgsri "github.com/kipu-ec/kipu-api/pkg/sri"
)

// Códigos de la estructura que nace con cada emisor.
const (
	EstablecimientoInicial = "001"
	PuntoEmisionInicial    = "100"
)

// Opciones fija el ambiente y el saldo con el que nace un emisor.
type Opciones struct {
	AmbienteDefecto   string // "1" pruebas, "2" producción
	CreditosIniciales int64  // saldo de cortesía al activar el RUC
}

// Service implementa /auth/sync y /auth/activar-ruc.
type Service struct {
	tx       OnboardingTxRunner
	perfiles repository.PerfilRepository
	opciones Opciones
	log      *logger.Logger
}

func NewService(tx OnboardingTxRunner, perfiles repository.PerfilRepository, opciones Opciones, log *logger.Logger) *Service {
	return &Service{
		tx:       tx,
		perfiles: perfiles,
		opciones: opciones,
		log:      log.Componente("auth"),
	}
}

// PerfilSincronizado es la respuesta de /auth/sync.
type PerfilSincronizado struct {
	PerfilID           string `json:"perfil_id"`
	UID                string `json:"uid"`
	Email              string `json:"email"`
	Nombre             string `json:"nombre,omitempty"`
	EmisorID           string `json:"emisor_id,omitempty"`
	NecesitaOnboarding bool   `json:"necesita_onboarding"`
}

// Sincronizar busca o crea el perfil del sujeto autenticado. La primera
// llamada de un usuario nuevo lo registra; las siguientes solo reportan si
// aún le falta activar un RUC.
func (s *Service) Sincronizar(ctx context.Context, uid, email, nombre string) (*PerfilSincronizado, error) {
	if uid == "" {
		return nil, fmt.Errorf("%w: token sin sujeto", domain.ErrNoAutorizado)
	}

	perfil, err := s.perfiles.GetByUID(uid)
	if err != nil {
		return nil, err
	}
	if perfil == nil {
		perfil = &entity.Perfil{UID: uid, Email: email, Nombre: nombre}
		err := s.perfiles.Crear(perfil)
		switch {
		case errors.Is(err, domain.ErrConflicto):
			// Dos sincronizaciones simultáneas del mismo sujeto: la otra
			// ganó la inserción, se relee.
			if perfil, err = s.perfiles.GetByUID(uid); err != nil {
				return nil, err
			}
		case err != nil:
			return nil, err
		default:
			s.log.Info().Str("uid", uid).Msg("perfil creado")
		}
	}

	return &PerfilSincronizado{
		PerfilID:           perfil.ID,
		UID:                perfil.UID,
		Email:              perfil.Email,
		Nombre:             perfil.Nombre,
		EmisorID:           perfil.EmisorID,
		NecesitaOnboarding: perfil.RequiereOnboarding(),
	}, nil
}

// EntradaActivacion es el cuerpo de /auth/activar-ruc.
type EntradaActivacion struct {
	RUC                  string `json:"ruc"`
	RazonSocial          string `json:"razon_social"`
	NombreComercial      string `json:"nombre_comercial,omitempty"`
	DireccionMatriz      string `json:"direccion_matriz"`
	ObligadoContabilidad string `json:"obligado_contabilidad,omitempty"` // SI | NO, NO por defecto
	Email                string `json:"email,omitempty"`
}

// Validar normaliza y aplica las reglas de forma del alta.
func (in *EntradaActivacion) Validar() error {
	in.RUC = strings.TrimSpace(in.RUC)
	if err := pkgsri.ValidarRUC(in.RUC); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidacion, err)
	}
	if strings.TrimSpace(in.RazonSocial) == "" {
		return fmt.Errorf("%w: razon_social es obligatoria", domain.ErrValidacion)
	}
	if strings.TrimSpace(in.DireccionMatriz) == "" {
		return fmt.Errorf("%w: direccion_matriz es obligatoria", domain.ErrValidacion)
	}
	switch in.ObligadoContabilidad {
	case "":
		in.ObligadoContabilidad = "NO"
	case "SI", "NO":
	default:
		return fmt.Errorf("%w: obligado_contabilidad debe ser SI o NO", domain.ErrValidacion)
	}
	return nil
}

// EmisorActivado es la respuesta de /auth/activar-ruc.
type EmisorActivado struct {
	EmisorID          string `json:"emisor_id"`
	RUC               string `json:"ruc"`
	Ambiente          string `json:"ambiente"`
	Establecimiento   string `json:"establecimiento"`
	PuntoEmision      string `json:"punto_emision"`
	CreditosIniciales int64  `json:"creditos_iniciales"`
}

// ActivarRUC crea el emisor del perfil con su establecimiento 001, su punto
// de emisión 100 y el saldo de cortesía, todo en una transacción. Un perfil
// con emisor activo o un RUC ya registrado terminan en conflicto.
func (s *Service) ActivarRUC(ctx context.Context, uid string, in EntradaActivacion) (*EmisorActivado, error) {
	if err := in.Validar(); err != nil {
		return nil, err
	}

	var emisorID string
	err := s.tx.RunOnboarding(ctx, func(
		perfiles repository.PerfilRepository,
		emisores repository.EmisorRepository,
		estructura repository.EstructuraRepository,
		creditos repository.CreditoRepository,
	) error {
		// 1) El perfil debe existir y estar sin emisor.
		perfil, err := perfiles.GetByUID(uid)
		if err != nil {
			return err
		}
		if perfil == nil {
			return fmt.Errorf("%w: perfil del sujeto %s; llamar /auth/sync primero", domain.ErrNoEncontrado, uid)
		}
		if !perfil.RequiereOnboarding() {
			return fmt.Errorf("%w: el perfil ya tiene un RUC activo", domain.ErrConflicto)
		}

		// 2) Emisor: el índice único sobre ruc convierte un RUC repetido en
		// conflicto.
		emisor := &entity.Emisor{
			PerfilID:             perfil.ID,
			RUC:                  in.RUC,
			RazonSocial:          strings.TrimSpace(in.RazonSocial),
			NombreComercial:      strings.TrimSpace(in.NombreComercial),
			DireccionMatriz:      strings.TrimSpace(in.DireccionMatriz),
			Ambiente:             s.opciones.AmbienteDefecto,
			ObligadoContabilidad: in.ObligadoContabilidad,
			Email:                strings.TrimSpace(in.Email),
		}
		if err := emisores.Crear(emisor); err != nil {
			return err
		}

		// 3) Estructura por defecto: matriz 001 con su punto 100.
		estab := &entity.Establecimiento{
			EmisorID:  emisor.ID,
			Codigo:    EstablecimientoInicial,
			Direccion: emisor.DireccionMatriz,
		}
		if err := estructura.CrearEstablecimiento(estab); err != nil {
			return err
		}
		punto := &entity.PuntoEmision{
			EstablecimientoID: estab.ID,
			Codigo:            PuntoEmisionInicial,
		}
		if err := estructura.CrearPuntoEmision(punto); err != nil {
			return err
		}

		// 4) Saldo de cortesía y vínculo perfil → emisor.
		if err := creditos.Crear(emisor.ID, s.opciones.CreditosIniciales); err != nil {
			return err
		}
		if err := perfiles.VincularEmisor(perfil.ID, emisor.ID); err != nil {
			return err
		}

		emisorID = emisor.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("emisor_id", emisorID).Str("ruc", in.RUC).Msg("RUC activado")
	return &EmisorActivado{
		EmisorID:          emisorID,
		RUC:               in.RUC,
		Ambiente:          s.opciones.AmbienteDefecto,
		Establecimiento:   EstablecimientoInicial,
		PuntoEmision:      PuntoEmisionInicial,
		CreditosIniciales: s.opciones.CreditosIniciales,
	}, nil
}
