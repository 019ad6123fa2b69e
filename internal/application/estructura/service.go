// Package estructura administra la jerarquía del emisor: establecimientos
// (locales físicos) y sus puntos de emisión (cajas). Los códigos de ambos son
// de 3 dígitos y forman la serie del comprobante ("001-100").
package estructura

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/kipu-ec/kipu-api/internal/domain"
	"github.com/kipu-ec/kipu-api/internal/domain/entity"
	"github.com/kipu-ec/kipu-api/internal/domain/repository"
	"github.com/kipu-ec/kipu-api/pkg/logger"
)

var reCodigoTresDigitos = regexp.MustCompile(`^\d{3}$`)

// Service implementa /structure/*: altas, listados, árbol y validación de
// pares (establecimiento, punto de emisión).
type Service struct {
	repo repository.EstructuraRepository
	log  *logger.Logger
}

func NewService(repo repository.EstructuraRepository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log.Componente("estructura")}
}

// EntradaEstablecimiento es el cuerpo de POST /structure/establishments.
type EntradaEstablecimiento struct {
	Codigo    string `json:"codigo"`
	Direccion string `json:"direccion"`
}

// EntradaPunto es el cuerpo de POST /structure/issuing-points.
type EntradaPunto struct {
	Establecimiento string `json:"establecimiento"`
	Codigo          string `json:"codigo"`
}

// EstablecimientoDTO es la vista JSON de un establecimiento.
type EstablecimientoDTO struct {
	ID        string    `json:"id"`
	Codigo    string    `json:"codigo"`
	Direccion string    `json:"direccion,omitempty"`
	CreadoEn  time.Time `json:"creado_en"`
}

// PuntoDTO es la vista JSON de un punto de emisión. Incluye el código del
// establecimiento padre para que el listado plano sea autocontenido.
type PuntoDTO struct {
	ID               string    `json:"id"`
	Establecimiento  string    `json:"establecimiento"`
	Codigo           string    `json:"codigo"`
	SecuencialActual int64     `json:"secuencial_actual"`
	CreadoEn         time.Time `json:"creado_en"`
}

// NodoEstablecimiento es un nodo del árbol de GET /structure/tree.
type NodoEstablecimiento struct {
	ID        string      `json:"id"`
	Codigo    string      `json:"codigo"`
	Direccion string      `json:"direccion,omitempty"`
	Puntos    []*NodoVista `json:"puntos_emision"`
}

// NodoVista es un punto de emisión dentro del árbol.
type NodoVista struct {
	ID               string `json:"id"`
	Codigo           string `json:"codigo"`
	SecuencialActual int64  `json:"secuencial_actual"`
}

// ResultadoValidacion es la respuesta de /structure/validate y de
// /integrations/validate. Cuando el par existe incluye la serie lista para
// armar el número del comprobante.
type ResultadoValidacion struct {
	Valido          bool   `json:"valido"`
	Establecimiento string `json:"establecimiento"`
	PuntoEmision    string `json:"punto_emision"`
	Serie           string `json:"serie,omitempty"`
}

// Establecimientos lista los establecimientos del emisor ordenados por código.
func (s *Service) Establecimientos(ctx context.Context, emisorID string) ([]*EstablecimientoDTO, error) {
	lista, err := s.repo.ListarEstablecimientos(emisorID)
	if err != nil {
		return nil, err
	}
	out := make([]*EstablecimientoDTO, 0, len(lista))
	for _, e := range lista {
		out = append(out, vistaEstablecimiento(e))
	}
	return out, nil
}

// CrearEstablecimiento da de alta un establecimiento. El código es de 3
// dígitos y único dentro del emisor; duplicarlo es conflicto.
func (s *Service) CrearEstablecimiento(ctx context.Context, emisorID string, in EntradaEstablecimiento) (*EstablecimientoDTO, error) {
	if !reCodigoTresDigitos.MatchString(in.Codigo) {
		return nil, fmt.Errorf("%w: codigo debe ser un código de 3 dígitos", domain.ErrValidacion)
	}
	est := &entity.Establecimiento{
		EmisorID:  emisorID,
		Codigo:    in.Codigo,
		Direccion: in.Direccion,
	}
	if err := s.repo.CrearEstablecimiento(est); err != nil {
		return nil, err
	}
	s.log.Info().
		Str("emisor_id", emisorID).
		Str("codigo", est.Codigo).
		Msg("establecimiento creado")
	if est.CreatedAt.IsZero() {
		est.CreatedAt = time.Now()
	}
	return vistaEstablecimiento(est), nil
}

// Puntos lista los puntos de emisión del emisor. Con codigoEstab se acota a
// un establecimiento (404 si no existe); vacío recorre todos.
func (s *Service) Puntos(ctx context.Context, emisorID, codigoEstab string) ([]*PuntoDTO, error) {
	var estabs []*entity.Establecimiento
	if codigoEstab != "" {
		est, err := s.repo.BuscarEstablecimiento(emisorID, codigoEstab)
		if err != nil {
			return nil, err
		}
		if est == nil {
			return nil, fmt.Errorf("%w: establecimiento %s", domain.ErrNoEncontrado, codigoEstab)
		}
		estabs = []*entity.Establecimiento{est}
	} else {
		lista, err := s.repo.ListarEstablecimientos(emisorID)
		if err != nil {
			return nil, err
		}
		estabs = lista
	}

	out := make([]*PuntoDTO, 0, len(estabs))
	for _, est := range estabs {
		puntos, err := s.repo.ListarPuntosEmision(est.ID)
		if err != nil {
			return nil, err
		}
		for _, p := range puntos {
			out = append(out, &PuntoDTO{
				ID:               p.ID,
				Establecimiento:  est.Codigo,
				Codigo:           p.Codigo,
				SecuencialActual: p.SecuencialActual,
				CreadoEn:         p.CreatedAt,
			})
		}
	}
	return out, nil
}

// CrearPunto da de alta un punto de emisión colgado de un establecimiento del
// emisor. El secuencial arranca en cero y avanza con cada emisión.
func (s *Service) CrearPunto(ctx context.Context, emisorID string, in EntradaPunto) (*PuntoDTO, error) {
	if !reCodigoTresDigitos.MatchString(in.Establecimiento) {
		return nil, fmt.Errorf("%w: establecimiento debe ser un código de 3 dígitos", domain.ErrValidacion)
	}
	if !reCodigoTresDigitos.MatchString(in.Codigo) {
		return nil, fmt.Errorf("%w: codigo debe ser un código de 3 dígitos", domain.ErrValidacion)
	}
	est, err := s.repo.BuscarEstablecimiento(emisorID, in.Establecimiento)
	if err != nil {
		return nil, err
	}
	if est == nil {
		return nil, fmt.Errorf("%w: establecimiento %s", domain.ErrNoEncontrado, in.Establecimiento)
	}
	punto := &entity.PuntoEmision{
		EstablecimientoID: est.ID,
		Codigo:            in.Codigo,
	}
	if err := s.repo.CrearPuntoEmision(punto); err != nil {
		return nil, err
	}
	s.log.Info().
		Str("emisor_id", emisorID).
		Str("establecimiento", est.Codigo).
		Str("codigo", punto.Codigo).
		Msg("punto de emisión creado")
	if punto.CreatedAt.IsZero() {
		punto.CreatedAt = time.Now()
	}
	return &PuntoDTO{
		ID:               punto.ID,
		Establecimiento:  est.Codigo,
		Codigo:           punto.Codigo,
		SecuencialActual: punto.SecuencialActual,
		CreadoEn:         punto.CreatedAt,
	}, nil
}

// Arbol devuelve la jerarquía completa del emisor: establecimientos con sus
// puntos anidados, ambos ordenados por código.
func (s *Service) Arbol(ctx context.Context, emisorID string) ([]*NodoEstablecimiento, error) {
	estabs, err := s.repo.ListarEstablecimientos(emisorID)
	if err != nil {
		return nil, err
	}
	arbol := make([]*NodoEstablecimiento, 0, len(estabs))
	for _, est := range estabs {
		puntos, err := s.repo.ListarPuntosEmision(est.ID)
		if err != nil {
			return nil, err
		}
		nodo := &NodoEstablecimiento{
			ID:        est.ID,
			Codigo:    est.Codigo,
			Direccion: est.Direccion,
			Puntos:    make([]*NodoVista, 0, len(puntos)),
		}
		for _, p := range puntos {
			nodo.Puntos = append(nodo.Puntos, &NodoVista{
				ID:               p.ID,
				Codigo:           p.Codigo,
				SecuencialActual: p.SecuencialActual,
			})
		}
		arbol = append(arbol, nodo)
	}
	return arbol, nil
}

// Validar comprueba que el par (establecimiento, punto) exista para el
// emisor. Un par inexistente no es error: la respuesta lleva valido=false
// para que el integrador lo corrija antes de emitir.
func (s *Service) Validar(ctx context.Context, emisorID, codigoEstab, codigoPunto string) (*ResultadoValidacion, error) {
	if !reCodigoTresDigitos.MatchString(codigoEstab) {
		return nil, fmt.Errorf("%w: establecimiento debe ser un código de 3 dígitos", domain.ErrValidacion)
	}
	if !reCodigoTresDigitos.MatchString(codigoPunto) {
		return nil, fmt.Errorf("%w: punto_emision debe ser un código de 3 dígitos", domain.ErrValidacion)
	}
	punto, err := s.repo.BuscarPunto(emisorID, codigoEstab, codigoPunto)
	if err != nil {
		return nil, err
	}
	res := &ResultadoValidacion{
		Establecimiento: codigoEstab,
		PuntoEmision:    codigoPunto,
	}
	if punto != nil {
		res.Valido = true
		res.Serie = codigoEstab + "-" + codigoPunto
	}
	return res, nil
}

func vistaEstablecimiento(e *entity.Establecimiento) *EstablecimientoDTO {
	return &EstablecimientoDTO{
		ID:        e.ID,
		Codigo:    e.Codigo,
		Direccion: e.Direccion,
		CreadoEn:  e.CreatedAt,
	}
}
