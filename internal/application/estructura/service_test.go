package estructura

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

const emisorPrueba = "emisor-1"

// ─────────────────────────────────────────────────────────────────────────────
// Doble de prueba: jerarquía en memoria
// ─────────────────────────────────────────────────────────────────────────────

// fakeRepo incrusta el puerto y guarda la jerarquía en slices; el orden de
// inserción hace de orden por código en los listados.
type fakeRepo struct {
	repository.EstructuraRepository
	estabs []*entity.Establecimiento
	puntos []*entity.PuntoEmision
}

func (f *fakeRepo) CrearEstablecimiento(e *entity.Establecimiento) error {
	for _, otro := range f.estabs {
		if otro.EmisorID == e.EmisorID && otro.Codigo == e.Codigo {
			return fmt.Errorf("%w: el establecimiento %s ya existe", domain.ErrConflicto, e.Codigo)
		}
	}
	if e.ID == "" {
		e.ID = fmt.Sprintf("estab-%d", len(f.estabs)+1)
	}
	f.estabs = append(f.estabs, e)
	return nil
}

func (f *fakeRepo) CrearPuntoEmision(p *entity.PuntoEmision) error {
	for _, otro := range f.puntos {
		if otro.EstablecimientoID == p.EstablecimientoID && otro.Codigo == p.Codigo {
			return fmt.Errorf("%w: el punto de emisión %s ya existe", domain.ErrConflicto, p.Codigo)
		}
	}
	if p.ID == "" {
		p.ID = fmt.Sprintf("punto-%d", len(f.puntos)+1)
	}
	f.puntos = append(f.puntos, p)
	return nil
}

func (f *fakeRepo) ListarEstablecimientos(emisorID string) ([]*entity.Establecimiento, error) {
	var out []*entity.Establecimiento
	for _, e := range f.estabs {
		if e.EmisorID == emisorID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListarPuntosEmision(establecimientoID string) ([]*entity.PuntoEmision, error) {
	var out []*entity.PuntoEmision
	for _, p := range f.puntos {
		if p.EstablecimientoID == establecimientoID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeRepo) BuscarEstablecimiento(emisorID, codigo string) (*entity.Establecimiento, error) {
	for _, e := range f.estabs {
		if e.EmisorID == emisorID && e.Codigo == codigo {
			return e, nil
		}
	}
	return nil, nil
}

func (f *fakeRepo) BuscarPunto(emisorID, codigoEstab, codigoPunto string) (*entity.PuntoEmision, error) {
	est, _ := f.BuscarEstablecimiento(emisorID, codigoEstab)
	if est == nil {
		return nil, nil
	}
	for _, p := range f.puntos {
		if p.EstablecimientoID == est.ID && p.Codigo == codigoPunto {
			return p, nil
		}
	}
	return nil, nil
}

func nuevoServicio() (*Service, *fakeRepo) {
	repo := &fakeRepo{}
	return NewService(repo, logger.Nop()), repo
}

// sembrar deja un emisor con la estructura por defecto: 001 con el punto 100.
func sembrar(t *testing.T, repo *fakeRepo, emisorID string) {
	t.Helper()
	est := &entity.Establecimiento{EmisorID: emisorID, Codigo: "001", Direccion: "Av. Amazonas N26-123"}
	require.NoError(t, repo.CrearEstablecimiento(est))
	require.NoError(t, repo.CrearPuntoEmision(&entity.PuntoEmision{EstablecimientoID: est.ID, Codigo: "100"}))
}

// ─────────────────────────────────────────────────────────────────────────────
// Establecimientos
// ─────────────────────────────────────────────────────────────────────────────

func TestCrearEstablecimiento(t *testing.T) {
	svc, repo := nuevoServicio()

	dto, err := svc.CrearEstablecimiento(context.Background(), emisorPrueba, EntradaEstablecimiento{
		Codigo:    "002",
		Direccion: "Sucursal Norte",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, dto.ID)
	assert.Equal(t, "002", dto.Codigo)
	assert.Equal(t, "Sucursal Norte", dto.Direccion)
	assert.False(t, dto.CreadoEn.IsZero())

	guardado, err := repo.BuscarEstablecimiento(emisorPrueba, "002")
	require.NoError(t, err)
	require.NotNil(t, guardado)
}

func TestCrearEstablecimientoCodigoInvalido(t *testing.T) {
	svc, _ := nuevoServicio()

	for _, codigo := range []string{"", "1", "0011", "0a1"} {
		_, err := svc.CrearEstablecimiento(context.Background(), emisorPrueba, EntradaEstablecimiento{Codigo: codigo})
		assert.ErrorIs(t, err, domain.ErrValidacion, "codigo %q", codigo)
	}
}

func TestCrearEstablecimientoDuplicado(t *testing.T) {
	svc, repo := nuevoServicio()
	sembrar(t, repo, emisorPrueba)

	_, err := svc.CrearEstablecimiento(context.Background(), emisorPrueba, EntradaEstablecimiento{Codigo: "001"})
	assert.ErrorIs(t, err, domain.ErrConflicto)
}

func TestEstablecimientosSoloDelEmisor(t *testing.T) {
	svc, repo := nuevoServicio()
	sembrar(t, repo, emisorPrueba)
	sembrar(t, repo, "emisor-2")

	lista, err := svc.Establecimientos(context.Background(), emisorPrueba)
	require.NoError(t, err)
	require.Len(t, lista, 1)
	assert.Equal(t, "001", lista[0].Codigo)
	assert.Equal(t, "Av. Amazonas N26-123", lista[0].Direccion)
}

// ─────────────────────────────────────────────────────────────────────────────
// Puntos de emisión
// ─────────────────────────────────────────────────────────────────────────────

func TestCrearPunto(t *testing.T) {
	svc, repo := nuevoServicio()
	sembrar(t, repo, emisorPrueba)

	dto, err := svc.CrearPunto(context.Background(), emisorPrueba, EntradaPunto{
		Establecimiento: "001",
		Codigo:          "101",
	})
	require.NoError(t, err)
	assert.Equal(t, "001", dto.Establecimiento)
	assert.Equal(t, "101", dto.Codigo)
	assert.Zero(t, dto.SecuencialActual)

	punto, err := repo.BuscarPunto(emisorPrueba, "001", "101")
	require.NoError(t, err)
	require.NotNil(t, punto)
}

func TestCrearPuntoEstablecimientoAjeno(t *testing.T) {
	svc, repo := nuevoServicio()
	sembrar(t, repo, "emisor-2")

	// El establecimiento 001 existe pero pertenece a otro emisor.
	_, err := svc.CrearPunto(context.Background(), emisorPrueba, EntradaPunto{
		Establecimiento: "001",
		Codigo:          "100",
	})
	assert.ErrorIs(t, err, domain.ErrNoEncontrado)
}

func TestCrearPuntoCodigosInvalidos(t *testing.T) {
	svc, repo := nuevoServicio()
	sembrar(t, repo, emisorPrueba)

	_, err := svc.CrearPunto(context.Background(), emisorPrueba, EntradaPunto{Establecimiento: "1", Codigo: "100"})
	assert.ErrorIs(t, err, domain.ErrValidacion)

	_, err = svc.CrearPunto(context.Background(), emisorPrueba, EntradaPunto{Establecimiento: "001", Codigo: "10"})
	assert.ErrorIs(t, err, domain.ErrValidacion)
}

func TestPuntosFiltraPorEstablecimiento(t *testing.T) {
	svc, repo := nuevoServicio()
	sembrar(t, repo, emisorPrueba)
	_, err := svc.CrearEstablecimiento(context.Background(), emisorPrueba, EntradaEstablecimiento{Codigo: "002"})
	require.NoError(t, err)
	_, err = svc.CrearPunto(context.Background(), emisorPrueba, EntradaPunto{Establecimiento: "002", Codigo: "200"})
	require.NoError(t, err)

	// Sin filtro: todos los puntos del emisor con su establecimiento padre.
	todos, err := svc.Puntos(context.Background(), emisorPrueba, "")
	require.NoError(t, err)
	require.Len(t, todos, 2)
	assert.Equal(t, "001", todos[0].Establecimiento)
	assert.Equal(t, "100", todos[0].Codigo)
	assert.Equal(t, "002", todos[1].Establecimiento)
	assert.Equal(t, "200", todos[1].Codigo)

	// Filtrado a un establecimiento.
	soloUno, err := svc.Puntos(context.Background(), emisorPrueba, "002")
	require.NoError(t, err)
	require.Len(t, soloUno, 1)
	assert.Equal(t, "200", soloUno[0].Codigo)

	// Establecimiento inexistente.
	_, err = svc.Puntos(context.Background(), emisorPrueba, "099")
	assert.ErrorIs(t, err, domain.ErrNoEncontrado)
}

// ─────────────────────────────────────────────────────────────────────────────
// Árbol y validación
// ─────────────────────────────────────────────────────────────────────────────

func TestArbol(t *testing.T) {
	svc, repo := nuevoServicio()
	sembrar(t, repo, emisorPrueba)
	_, err := svc.CrearPunto(context.Background(), emisorPrueba, EntradaPunto{Establecimiento: "001", Codigo: "101"})
	require.NoError(t, err)
	_, err = svc.CrearEstablecimiento(context.Background(), emisorPrueba, EntradaEstablecimiento{Codigo: "002"})
	require.NoError(t, err)

	arbol, err := svc.Arbol(context.Background(), emisorPrueba)
	require.NoError(t, err)
	require.Len(t, arbol, 2)

	assert.Equal(t, "001", arbol[0].Codigo)
	require.Len(t, arbol[0].Puntos, 2)
	assert.Equal(t, "100", arbol[0].Puntos[0].Codigo)
	assert.Equal(t, "101", arbol[0].Puntos[1].Codigo)

	// Un establecimiento sin puntos lleva la lista vacía, no nula: el árbol
	// se serializa directo a JSON.
	assert.Equal(t, "002", arbol[1].Codigo)
	assert.NotNil(t, arbol[1].Puntos)
	assert.Empty(t, arbol[1].Puntos)
}

func TestValidar(t *testing.T) {
	svc, repo := nuevoServicio()
	sembrar(t, repo, emisorPrueba)

	res, err := svc.Validar(context.Background(), emisorPrueba, "001", "100")
	require.NoError(t, err)
	assert.True(t, res.Valido)
	assert.Equal(t, "001-100", res.Serie)

	// Par inexistente: respuesta negativa, no error.
	res, err = svc.Validar(context.Background(), emisorPrueba, "001", "999")
	require.NoError(t, err)
	assert.False(t, res.Valido)
	assert.Empty(t, res.Serie)

	// Códigos malformados sí son error de validación.
	_, err = svc.Validar(context.Background(), emisorPrueba, "01", "100")
	assert.ErrorIs(t, err, domain.ErrValidacion)
}
