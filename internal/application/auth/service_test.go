package auth

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kipu-ec/kipu-api/internal/domain"
	"github.com/kipu-ec/kipu-api/internal/domain/entity"
	"github.com/kipu-ec/kipu-api/internal/domain/repository"
	"github.com/kipu-ec/kipu-api/pkg/logger"
)

const rucValido = "1790011674001"

// ─────────────────────────────────────────────────────────────────────────────
// Dobles de prueba
// ─────────────────────────────────────────────────────────────────────────────

type fakePerfiles struct {
	repository.PerfilRepository
	porUID     map[string]*entity.Perfil
	creados    int
	vinculados map[string]string // perfilID → emisorID
	errCrear   error
	ganador    *entity.Perfil // aparece tras un conflicto de creación
}

func nuevosFakePerfiles() *fakePerfiles {
	return &fakePerfiles{
		porUID:     make(map[string]*entity.Perfil),
		vinculados: make(map[string]string),
	}
}

func (f *fakePerfiles) GetByUID(uid string) (*entity.Perfil, error) {
	return f.porUID[uid], nil
}

func (f *fakePerfiles) Crear(p *entity.Perfil) error {
	if f.errCrear != nil {
		if f.ganador != nil {
			f.porUID[f.ganador.UID] = f.ganador
		}
		return f.errCrear
	}
	f.creados++
	p.ID = fmt.Sprintf("perfil-%d", f.creados)
	f.porUID[p.UID] = p
	return nil
}

func (f *fakePerfiles) VincularEmisor(perfilID, emisorID string) error {
	f.vinculados[perfilID] = emisorID
	for _, p := range f.porUID {
		if p.ID == perfilID {
			p.EmisorID = emisorID
		}
	}
	return nil
}

type fakeEmisores struct {
	repository.EmisorRepository
	creados  []*entity.Emisor
	errCrear error
}

func (f *fakeEmisores) Crear(e *entity.Emisor) error {
	if f.errCrear != nil {
		return f.errCrear
	}
	e.ID = fmt.Sprintf("emisor-%d", len(f.creados)+1)
	f.creados = append(f.creados, e)
	return nil
}

type fakeEstructura struct {
	repository.EstructuraRepository
	establecimientos []*entity.Establecimiento
	puntos           []*entity.PuntoEmision
}

func (f *fakeEstructura) CrearEstablecimiento(e *entity.Establecimiento) error {
	e.ID = fmt.Sprintf("estab-%d", len(f.establecimientos)+1)
	f.establecimientos = append(f.establecimientos, e)
	return nil
}

func (f *fakeEstructura) CrearPuntoEmision(p *entity.PuntoEmision) error {
	p.ID = fmt.Sprintf("punto-%d", len(f.puntos)+1)
	f.puntos = append(f.puntos, p)
	return nil
}

type fakeCreditos struct {
	repository.CreditoRepository
	saldos map[string]int64
}

func (f *fakeCreditos) Crear(emisorID string, saldoInicial int64) error {
	if f.saldos == nil {
		f.saldos = make(map[string]int64)
	}
	f.saldos[emisorID] = saldoInicial
	return nil
}

type fakeOnboardingTx struct {
	perfiles   *fakePerfiles
	emisores   *fakeEmisores
	estructura *fakeEstructura
	creditos   *fakeCreditos
}

func (x *fakeOnboardingTx) RunOnboarding(_ context.Context, fn func(
	repository.PerfilRepository,
	repository.EmisorRepository,
	repository.EstructuraRepository,
	repository.CreditoRepository,
) error) error {
	return fn(x.perfiles, x.emisores, x.estructura, x.creditos)
}

type entornoAuth struct {
	svc        *Service
	perfiles   *fakePerfiles
	emisores   *fakeEmisores
	estructura *fakeEstructura
	creditos   *fakeCreditos
}

func nuevoEntorno(t *testing.T) *entornoAuth {
	t.Helper()
	ent := &entornoAuth{
		perfiles:   nuevosFakePerfiles(),
		emisores:   &fakeEmisores{},
		estructura: &fakeEstructura{},
		creditos:   &fakeCreditos{},
	}
	tx := &fakeOnboardingTx{
		perfiles:   ent.perfiles,
		emisores:   ent.emisores,
		estructura: ent.estructura,
		creditos:   ent.creditos,
	}
	opciones := Opciones{AmbienteDefecto: entity.AmbientePruebas, CreditosIniciales: 10}
	ent.svc = NewService(tx, ent.perfiles, opciones, logger.Nop())
	return ent
}

// ─────────────────────────────────────────────────────────────────────────────
// /auth/sync
// ─────────────────────────────────────────────────────────────────────────────

func TestSincronizarCreaPerfilNuevo(t *testing.T) {
	ent := nuevoEntorno(t)

	res, err := ent.svc.Sincronizar(context.Background(), "uid-abc", "maria@example.com", "María Vera")
	require.NoError(t, err)

	assert.Equal(t, 1, ent.perfiles.creados)
	assert.NotEmpty(t, res.PerfilID)
	assert.Equal(t, "uid-abc", res.UID)
	assert.Equal(t, "maria@example.com", res.Email)
	assert.True(t, res.NecesitaOnboarding)
	assert.Empty(t, res.EmisorID)
}

func TestSincronizarEncuentraPerfilExistente(t *testing.T) {
	ent := nuevoEntorno(t)
	ent.perfiles.porUID["uid-abc"] = &entity.Perfil{
		ID: "perfil-7", UID: "uid-abc", Email: "maria@example.com", EmisorID: "emisor-3",
	}

	res, err := ent.svc.Sincronizar(context.Background(), "uid-abc", "maria@example.com", "")
	require.NoError(t, err)

	assert.Zero(t, ent.perfiles.creados, "no debe crear un perfil que ya existe")
	assert.Equal(t, "perfil-7", res.PerfilID)
	assert.Equal(t, "emisor-3", res.EmisorID)
	assert.False(t, res.NecesitaOnboarding)
}

func TestSincronizarPierdeLaCarreraYRelee(t *testing.T) {
	ent := nuevoEntorno(t)
	ent.perfiles.errCrear = domain.ErrConflicto
	ent.perfiles.ganador = &entity.Perfil{ID: "perfil-ganador", UID: "uid-abc", Email: "maria@example.com"}

	res, err := ent.svc.Sincronizar(context.Background(), "uid-abc", "maria@example.com", "")
	require.NoError(t, err)
	assert.Equal(t, "perfil-ganador", res.PerfilID)
}

func TestSincronizarSinSujeto(t *testing.T) {
	ent := nuevoEntorno(t)

	_, err := ent.svc.Sincronizar(context.Background(), "", "x@example.com", "")
	assert.ErrorIs(t, err, domain.ErrNoAutorizado)
}

// ─────────────────────────────────────────────────────────────────────────────
// /auth/activar-ruc
// ─────────────────────────────────────────────────────────────────────────────

func entradaActivacion() EntradaActivacion {
	return EntradaActivacion{
		RUC:             rucValido,
		RazonSocial:     "PEÑA & ASOCIADOS CÍA. LTDA.",
		NombreComercial: "Peña Hnos.",
		DireccionMatriz: "Av. Amazonas N26-123 y Colón",
		Email:           "facturacion@pena.ec",
	}
}

func TestActivarRUCCreaEmisorConEstructuraYSaldo(t *testing.T) {
	ent := nuevoEntorno(t)
	ent.perfiles.porUID["uid-abc"] = &entity.Perfil{ID: "perfil-1", UID: "uid-abc"}

	res, err := ent.svc.ActivarRUC(context.Background(), "uid-abc", entradaActivacion())
	require.NoError(t, err)

	// Emisor con los datos normalizados y el ambiente por defecto.
	require.Len(t, ent.emisores.creados, 1)
	emisor := ent.emisores.creados[0]
	assert.Equal(t, rucValido, emisor.RUC)
	assert.Equal(t, "perfil-1", emisor.PerfilID)
	assert.Equal(t, entity.AmbientePruebas, emisor.Ambiente)
	assert.Equal(t, "NO", emisor.ObligadoContabilidad, "NO es el valor por defecto")

	// Estructura por defecto: matriz 001 → punto 100.
	require.Len(t, ent.estructura.establecimientos, 1)
	estab := ent.estructura.establecimientos[0]
	assert.Equal(t, EstablecimientoInicial, estab.Codigo)
	assert.Equal(t, emisor.ID, estab.EmisorID)
	assert.Equal(t, emisor.DireccionMatriz, estab.Direccion)
	require.Len(t, ent.estructura.puntos, 1)
	assert.Equal(t, PuntoEmisionInicial, ent.estructura.puntos[0].Codigo)
	assert.Equal(t, estab.ID, ent.estructura.puntos[0].EstablecimientoID)

	// Saldo de cortesía y vínculo con el perfil.
	assert.Equal(t, int64(10), ent.creditos.saldos[emisor.ID])
	assert.Equal(t, emisor.ID, ent.perfiles.vinculados["perfil-1"])

	assert.Equal(t, emisor.ID, res.EmisorID)
	assert.Equal(t, int64(10), res.CreditosIniciales)
	assert.Equal(t, EstablecimientoInicial, res.Establecimiento)
	assert.Equal(t, PuntoEmisionInicial, res.PuntoEmision)
}

func TestActivarRUCValidaciones(t *testing.T) {
	ent := nuevoEntorno(t)
	ent.perfiles.porUID["uid-abc"] = &entity.Perfil{ID: "perfil-1", UID: "uid-abc"}

	casos := map[string]func(*EntradaActivacion){
		"ruc con verificador malo": func(in *EntradaActivacion) { in.RUC = "1790011675001" },
		"ruc corto":                func(in *EntradaActivacion) { in.RUC = "179001167" },
		"sin razon social":         func(in *EntradaActivacion) { in.RazonSocial = "  " },
		"sin direccion":            func(in *EntradaActivacion) { in.DireccionMatriz = "" },
		"obligado fuera de rango":  func(in *EntradaActivacion) { in.ObligadoContabilidad = "TALVEZ" },
	}
	for nombre, mutar := range casos {
		t.Run(nombre, func(t *testing.T) {
			in := entradaActivacion()
			mutar(&in)
			_, err := ent.svc.ActivarRUC(context.Background(), "uid-abc", in)
			assert.ErrorIs(t, err, domain.ErrValidacion)
		})
	}
	assert.Empty(t, ent.emisores.creados)
}

func TestActivarRUCPerfilYaActivado(t *testing.T) {
	ent := nuevoEntorno(t)
	ent.perfiles.porUID["uid-abc"] = &entity.Perfil{ID: "perfil-1", UID: "uid-abc", EmisorID: "emisor-9"}

	_, err := ent.svc.ActivarRUC(context.Background(), "uid-abc", entradaActivacion())
	assert.ErrorIs(t, err, domain.ErrConflicto)
	assert.Empty(t, ent.emisores.creados)
}

func TestActivarRUCPerfilInexistente(t *testing.T) {
	ent := nuevoEntorno(t)

	_, err := ent.svc.ActivarRUC(context.Background(), "uid-sin-sync", entradaActivacion())
	assert.ErrorIs(t, err, domain.ErrNoEncontrado)
}

func TestActivarRUCDuplicado(t *testing.T) {
	ent := nuevoEntorno(t)
	ent.perfiles.porUID["uid-abc"] = &entity.Perfil{ID: "perfil-1", UID: "uid-abc"}
	ent.emisores.errCrear = fmt.Errorf("%w: ruc ya registrado", domain.ErrConflicto)

	_, err := ent.svc.ActivarRUC(context.Background(), "uid-abc", entradaActivacion())
	assert.ErrorIs(t, err, domain.ErrConflicto)

	// El fallo del emisor aborta todo el alta.
	assert.Empty(t, ent.estructura.establecimientos)
	assert.Empty(t, ent.estructura.puntos)
	assert.Empty(t, ent.creditos.saldos)
	assert.Empty(t, ent.perfiles.vinculados)
}
