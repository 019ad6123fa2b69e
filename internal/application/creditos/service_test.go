package creditos

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kipu-ec/kipu-api/internal/domain"
	"github.com/kipu-ec/kipu-api/internal/domain/entity"
	"github.com/kipu-ec/kipu-api/internal/domain/repository"
	"github.com/kipu-ec/kipu-api/pkg/logger"
)

const rucPrueba = "1790011674001"

// ─────────────────────────────────────────────────────────────────────────────
// Dobles de prueba
// ─────────────────────────────────────────────────────────────────────────────

type fakeEmisores struct {
	repository.EmisorRepository
	emisor *entity.Emisor
}

func (f *fakeEmisores) GetByRUC(ruc string) (*entity.Emisor, error) {
	if f.emisor != nil && f.emisor.RUC == ruc {
		return f.emisor, nil
	}
	return nil, nil
}

type fakeCreditos struct {
	repository.CreditoRepository
	saldo         int64
	movimientos   []*entity.TransaccionCredito
	errMovimiento error
}

func (f *fakeCreditos) Acreditar(emisorID string, cantidad int64) (int64, error) {
	f.saldo += cantidad
	return f.saldo, nil
}

func (f *fakeCreditos) GetSaldo(emisorID string) (int64, error) {
	return f.saldo, nil
}

func (f *fakeCreditos) RegistrarMovimiento(t *entity.TransaccionCredito) error {
	if f.errMovimiento != nil {
		return f.errMovimiento
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	f.movimientos = append(f.movimientos, t)
	return nil
}

func (f *fakeCreditos) ListarMovimientos(emisorID string, limit int) ([]*entity.TransaccionCredito, error) {
	list := f.movimientos
	if len(list) > limit {
		list = list[len(list)-limit:]
	}
	// Más recientes primero, como el repo real.
	out := make([]*entity.TransaccionCredito, 0, len(list))
	for i := len(list) - 1; i >= 0; i-- {
		out = append(out, list[i])
	}
	return out, nil
}

// fakeTx ejecuta el callback con los mismos fakes y registra si hubo rollback
// (error del callback) para las aserciones de atomicidad.
type fakeTx struct {
	emisores  *fakeEmisores
	creditos  *fakeCreditos
	rollbacks int
}

func (f *fakeTx) Run(ctx context.Context, fn func(
	emisores repository.EmisorRepository,
	estructura repository.EstructuraRepository,
	creditos repository.CreditoRepository,
	facturas repository.FacturaRepository,
) error) error {
	if err := fn(f.emisores, nil, f.creditos, nil); err != nil {
		f.rollbacks++
		return err
	}
	return nil
}

type entorno struct {
	svc      *Service
	emisores *fakeEmisores
	creditos *fakeCreditos
	tx       *fakeTx
}

func nuevoEntorno(saldoInicial int64) *entorno {
	emisores := &fakeEmisores{emisor: &entity.Emisor{ID: "emisor-1", RUC: rucPrueba, RazonSocial: "ACME CIA LTDA"}}
	creditos := &fakeCreditos{saldo: saldoInicial}
	tx := &fakeTx{emisores: emisores, creditos: creditos}
	return &entorno{
		svc:      NewService(tx, emisores, creditos, logger.Nop()),
		emisores: emisores,
		creditos: creditos,
		tx:       tx,
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Recarga
// ─────────────────────────────────────────────────────────────────────────────

func TestRecargar(t *testing.T) {
	ent := nuevoEntorno(3)

	res, err := ent.svc.Recargar(context.Background(), EntradaRecarga{
		RUC:        rucPrueba,
		Cantidad:   100,
		Referencia: "transferencia #8841",
	})
	require.NoError(t, err)
	assert.Equal(t, "emisor-1", res.EmisorID)
	assert.Equal(t, int64(100), res.Acreditado)
	assert.Equal(t, int64(103), res.Saldo)

	// El libro queda con la entrada RECARGA y el saldo resultante.
	require.Len(t, ent.creditos.movimientos, 1)
	mov := ent.creditos.movimientos[0]
	assert.Equal(t, entity.MovimientoRecarga, mov.Tipo)
	assert.Equal(t, int64(100), mov.Cantidad)
	assert.Equal(t, int64(103), mov.SaldoDespues)
	assert.Equal(t, "transferencia #8841", mov.Detalle)
}

func TestRecargarValidaEntrada(t *testing.T) {
	ent := nuevoEntorno(0)

	casos := []struct {
		nombre string
		in     EntradaRecarga
	}{
		{"ruc corto", EntradaRecarga{RUC: "179001167400", Cantidad: 10, Referencia: "x"}},
		{"ruc con letras", EntradaRecarga{RUC: "17900116740a1", Cantidad: 10, Referencia: "x"}},
		{"cantidad cero", EntradaRecarga{RUC: rucPrueba, Cantidad: 0, Referencia: "x"}},
		{"cantidad negativa", EntradaRecarga{RUC: rucPrueba, Cantidad: -5, Referencia: "x"}},
		{"sin referencia", EntradaRecarga{RUC: rucPrueba, Cantidad: 10, Referencia: "  "}},
	}
	for _, c := range casos {
		_, err := ent.svc.Recargar(context.Background(), c.in)
		assert.ErrorIs(t, err, domain.ErrValidacion, c.nombre)
	}
	assert.Empty(t, ent.creditos.movimientos)
}

func TestRecargarEmisorDesconocido(t *testing.T) {
	ent := nuevoEntorno(0)

	_, err := ent.svc.Recargar(context.Background(), EntradaRecarga{
		RUC:        "0992765437001", // RUC bien formado pero sin emisor
		Cantidad:   10,
		Referencia: "orden 1",
	})
	assert.ErrorIs(t, err, domain.ErrNoEncontrado)
	assert.Equal(t, 1, ent.tx.rollbacks)
}

func TestRecargarSinAuditoriaRevierte(t *testing.T) {
	ent := nuevoEntorno(0)
	ent.creditos.errMovimiento = errors.New("tabla llena")

	_, err := ent.svc.Recargar(context.Background(), EntradaRecarga{
		RUC:        rucPrueba,
		Cantidad:   10,
		Referencia: "orden 2",
	})
	require.Error(t, err)
	// El callback falló: la transacción entera debe revertirse.
	assert.Equal(t, 1, ent.tx.rollbacks)
}

// ─────────────────────────────────────────────────────────────────────────────
// Consulta administrativa
// ─────────────────────────────────────────────────────────────────────────────

func TestEstado(t *testing.T) {
	ent := nuevoEntorno(5)
	_, err := ent.svc.Recargar(context.Background(), EntradaRecarga{RUC: rucPrueba, Cantidad: 20, Referencia: "orden 3"})
	require.NoError(t, err)

	estado, err := ent.svc.Estado(context.Background(), rucPrueba, 0)
	require.NoError(t, err)
	assert.Equal(t, rucPrueba, estado.RUC)
	assert.Equal(t, int64(25), estado.Saldo)
	require.Len(t, estado.Movimientos, 1)
	assert.Equal(t, entity.MovimientoRecarga, estado.Movimientos[0].Tipo)
	assert.Equal(t, "orden 3", estado.Movimientos[0].Referencia)
}

func TestEstadoEmisorDesconocido(t *testing.T) {
	ent := nuevoEntorno(0)

	_, err := ent.svc.Estado(context.Background(), "0992765437001", 10)
	assert.ErrorIs(t, err, domain.ErrNoEncontrado)

	_, err = ent.svc.Estado(context.Background(), "no-es-ruc", 10)
	assert.ErrorIs(t, err, domain.ErrValidacion)
}
