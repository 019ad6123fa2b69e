// Package emisor cubre la gestión del emisor autenticado: su perfil
// operativo, la carga del certificado de firma y la configuración tributaria.
package emisor

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kipu-ec/kipu-api/internal/domain"
	"github.com/kipu-ec/kipu-api/internal/domain/entity"
	"github.com/kipu-ec/kipu-api/internal/domain/repository"
	"github.com/kipu-ec/kipu-api/internal/infrastructure/firma"
	"github.com/kipu-ec/kipu-api/internal/infrastructure/storage"
	"github.com/kipu-ec/kipu-api/pkg/logger"
)

// Service implementa /emitter/profile, /emitter/upload-p12 y /emitter/config.
type Service struct {
	perfiles repository.PerfilRepository
	emisores repository.EmisorRepository
	creditos repository.CreditoRepository
	cargador firma.Cargador
	cifrador *firma.Cifrador
	almacen  storage.Almacen
	log      *logger.Logger
}

func NewService(
	perfiles repository.PerfilRepository,
	emisores repository.EmisorRepository,
	creditos repository.CreditoRepository,
	cargador firma.Cargador,
	cifrador *firma.Cifrador,
	almacen storage.Almacen,
	log *logger.Logger,
) *Service {
	return &Service{
		perfiles: perfiles,
		emisores: emisores,
		creditos: creditos,
		cargador: cargador,
		cifrador: cifrador,
		almacen:  almacen,
		log:      log.Componente("emisor"),
	}
}

// EmisorDe resuelve el emisor activo del sujeto autenticado. Los handlers
// bearer lo usan para traducir uid → emisor antes de cada operación.
func (s *Service) EmisorDe(ctx context.Context, uid string) (*entity.Emisor, error) {
	perfil, err := s.perfiles.GetByUID(uid)
	if err != nil {
		return nil, err
	}
	if perfil == nil {
		return nil, fmt.Errorf("%w: perfil del sujeto; llamar /auth/sync primero", domain.ErrNoEncontrado)
	}
	if perfil.RequiereOnboarding() {
		return nil, fmt.Errorf("%w: el perfil no tiene un RUC activo", domain.ErrNoEncontrado)
	}
	emisor, err := s.emisores.GetByID(perfil.EmisorID)
	if err != nil {
		return nil, err
	}
	if emisor == nil {
		return nil, fmt.Errorf("%w: emisor %s", domain.ErrNoEncontrado, perfil.EmisorID)
	}
	return emisor, nil
}

// PerfilEmisor es la respuesta de /emitter/profile.
type PerfilEmisor struct {
	EmisorID             string     `json:"emisor_id"`
	RUC                  string     `json:"ruc"`
	RazonSocial          string     `json:"razon_social"`
	NombreComercial      string     `json:"nombre_comercial,omitempty"`
	DireccionMatriz      string     `json:"direccion_matriz"`
	Ambiente             string     `json:"ambiente"`
	ObligadoContabilidad string     `json:"obligado_contabilidad"`
	TieneCertificado     bool       `json:"tiene_certificado"`
	CertificadoExpira    *time.Time `json:"certificado_expira,omitempty"`
	Saldo                int64      `json:"saldo"`
}

// Perfil arma la foto del emisor con su saldo y el estado del certificado.
func (s *Service) Perfil(ctx context.Context, uid string) (*PerfilEmisor, error) {
	emisor, err := s.EmisorDe(ctx, uid)
	if err != nil {
		return nil, err
	}
	saldo, err := s.creditos.GetSaldo(emisor.ID)
	if err != nil {
		return nil, err
	}
	return &PerfilEmisor{
		EmisorID:             emisor.ID,
		RUC:                  emisor.RUC,
		RazonSocial:          emisor.RazonSocial,
		NombreComercial:      emisor.NombreComercial,
		DireccionMatriz:      emisor.DireccionMatriz,
		Ambiente:             emisor.Ambiente,
		ObligadoContabilidad: emisor.ObligadoContabilidad,
		TieneCertificado:     emisor.P12Path != "",
		CertificadoExpira:    emisor.P12Expiration,
		Saldo:                saldo,
	}, nil
}

// CertificadoCargado es la respuesta de /emitter/upload-p12.
type CertificadoCargado struct {
	RUCCertificado string    `json:"ruc_certificado,omitempty"`
	Titular        string    `json:"titular,omitempty"`
	Expira         time.Time `json:"expira"`
}

// SubirP12 valida el contenedor contra el emisor, cifra la contraseña y
// guarda el certificado. El P12 se valida ANTES de tocar el almacén: un
// contenedor ilegible, ajeno o vencido nunca se persiste.
func (s *Service) SubirP12(ctx context.Context, uid string, p12 []byte, password string) (*CertificadoCargado, error) {
	if len(p12) == 0 {
		return nil, fmt.Errorf("%w: el archivo del certificado está vacío", domain.ErrValidacion)
	}
	if password == "" {
		return nil, fmt.Errorf("%w: la contraseña del certificado es obligatoria", domain.ErrValidacion)
	}

	emisor, err := s.EmisorDe(ctx, uid)
	if err != nil {
		return nil, err
	}

	// 1) Abrir y validar el material de firma.
	cred, err := s.cargador.Cargar(p12, password)
	if err != nil {
		return nil, err
	}
	if err := cred.ValidarRUC(emisor.RUC); err != nil {
		return nil, err
	}
	ahora := time.Now()
	if !cred.Vigente(ahora) {
		return nil, domain.ErrFirmaExpirada
	}

	// 2) Contraseña cifrada en reposo; nunca se guarda en claro.
	cifrada, err := s.cifrador.Cifrar(password)
	if err != nil {
		return nil, err
	}

	// 3) Subir el contenedor bajo una ruta versionada por epoch.
	objeto := storage.RutaCertificado(emisor.RUC, ahora.Unix())
	ruta, err := s.almacen.Subir(ctx, storage.BucketCertificados, objeto,
		bytes.NewReader(p12), int64(len(p12)), "application/x-pkcs12")
	if err != nil {
		return nil, fmt.Errorf("subir P12: %w", err)
	}

	// 4) Registrar en el emisor; si falla, retirar el objeto recién subido.
	if err := s.emisores.ActualizarCertificado(emisor.ID, ruta, cifrada, cred.Expira); err != nil {
		if errBorrar := s.almacen.Eliminar(ctx, storage.BucketCertificados, objeto); errBorrar != nil {
			s.log.Warn().Err(errBorrar).Str("objeto", objeto).Msg("no se pudo retirar el P12 huérfano")
		}
		return nil, err
	}

	s.log.Info().Str("emisor_id", emisor.ID).Time("expira", cred.Expira).Msg("certificado actualizado")
	return &CertificadoCargado{
		RUCCertificado: cred.RUC,
		Titular:        cred.Cert.Subject.CommonName,
		Expira:         cred.Expira,
	}, nil
}

// EntradaConfig es el cuerpo de PATCH /emitter/config; los campos vacíos
// conservan el valor actual.
type EntradaConfig struct {
	Ambiente        string `json:"ambiente,omitempty"` // "1" | "2"
	NombreComercial string `json:"nombre_comercial,omitempty"`
	Direccion       string `json:"direccion_matriz,omitempty"`
}

// ActualizarConfig aplica el parche y devuelve el perfil resultante.
func (s *Service) ActualizarConfig(ctx context.Context, uid string, in EntradaConfig) (*PerfilEmisor, error) {
	if in.Ambiente != "" && in.Ambiente != entity.AmbientePruebas && in.Ambiente != entity.AmbienteProduccion {
		return nil, fmt.Errorf("%w: ambiente debe ser 1 (pruebas) o 2 (producción)", domain.ErrValidacion)
	}
	if in.Ambiente == "" && strings.TrimSpace(in.NombreComercial) == "" && strings.TrimSpace(in.Direccion) == "" {
		return nil, fmt.Errorf("%w: el parche no trae ningún campo", domain.ErrValidacion)
	}

	emisor, err := s.EmisorDe(ctx, uid)
	if err != nil {
		return nil, err
	}
	err = s.emisores.ActualizarConfig(emisor.ID, in.Ambiente,
		strings.TrimSpace(in.NombreComercial), strings.TrimSpace(in.Direccion))
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("emisor_id", emisor.ID).Msg("configuración actualizada")
	return s.Perfil(ctx, uid)
}
