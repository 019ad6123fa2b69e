package liquidacion

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kipu-ec/kipu-api/internal/domain"
	"github.com/kipu-ec/kipu-api/internal/domain/entity"
	"github.com/kipu-ec/kipu-api/internal/domain/repository"
	"github.com/kipu-ec/kipu-api/internal/infrastructure/email"
	"github.com/kipu-ec/kipu-api/internal/infrastructure/notify"
	"github.com/kipu-ec/kipu-api/internal/infrastructure/sri"
	"github.com/kipu-ec/kipu-api/internal/infrastructure/storage"
	"github.com/kipu-ec/kipu-api/pkg/config"
	"github.com/kipu-ec/kipu-api/pkg/logger"
	pkgsri "github.com/kipu-ec/kipu-api/pkg/sri"
)

const rucPrueba = "1790011674001"

// ─────────────────────────────────────────────────────────────────────────────
// Dobles de prueba
// ─────────────────────────────────────────────────────────────────────────────

// Los fakes incrustan la interfaz del puerto: solo se implementa lo que el
// worker usa y cualquier llamada inesperada revienta con nil panic.

type fakeEmisores struct {
	repository.EmisorRepository
	emisor *entity.Emisor
}

func (f *fakeEmisores) GetByID(id string) (*entity.Emisor, error) {
	if f.emisor == nil || f.emisor.ID != id {
		return nil, nil
	}
	return f.emisor, nil
}

type fakePerfiles struct {
	repository.PerfilRepository
	perfil *entity.Perfil
}

func (f *fakePerfiles) GetByID(id string) (*entity.Perfil, error) {
	if f.perfil == nil || f.perfil.ID != id {
		return nil, nil
	}
	return f.perfil, nil
}

type fakeCreditos struct {
	repository.CreditoRepository
	mu          sync.Mutex
	saldo       int64
	movimientos []*entity.TransaccionCredito
}

func (f *fakeCreditos) Debitar(emisorID string, cantidad int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saldo < cantidad {
		return 0, domain.ErrCreditosInsuficientes
	}
	f.saldo -= cantidad
	return f.saldo, nil
}

func (f *fakeCreditos) RegistrarMovimiento(t *entity.TransaccionCredito) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.movimientos = append(f.movimientos, t)
	return nil
}

// fakeFacturas guarda las filas y aplica las transiciones compare-and-swap
// igual que el repo real: solo avanza si la fila sigue en el estado de origen.
type fakeFacturas struct {
	repository.FacturaRepository
	mu    sync.Mutex
	filas []*entity.Factura
}

func (f *fakeFacturas) ListarPorEstado(estado string, limit int) ([]*entity.Factura, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.Factura
	for _, fila := range f.filas {
		if fila.Estado == estado && len(out) < limit {
			copia := *fila
			out = append(out, &copia)
		}
	}
	return out, nil
}

func (f *fakeFacturas) transicion(id, desde string, aplicar func(*entity.Factura)) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, fila := range f.filas {
		if fila.ID == id && fila.Estado == desde {
			aplicar(fila)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeFacturas) MarcarFirmada(id, xmlPath, pdfPath string) (bool, error) {
	return f.transicion(id, entity.EstadoPendiente, func(fila *entity.Factura) {
		fila.Estado = entity.EstadoFirmado
		fila.XMLPath = xmlPath
		fila.PDFPath = pdfPath
	})
}

func (f *fakeFacturas) MarcarRecibida(id string, fechaEnvio time.Time, mensajes string) (bool, error) {
	return f.transicion(id, entity.EstadoFirmado, func(fila *entity.Factura) {
		fila.Estado = entity.EstadoRecibida
		fila.FechaEnvioSRI = &fechaEnvio
		fila.MensajesSRI = mensajes
	})
}

func (f *fakeFacturas) MarcarDevuelta(id, mensajes string) (bool, error) {
	return f.transicion(id, entity.EstadoFirmado, func(fila *entity.Factura) {
		fila.Estado = entity.EstadoDevuelta
		fila.MensajesSRI = mensajes
	})
}

func (f *fakeFacturas) MarcarAutorizada(id, xmlPath string, fechaAutorizacion time.Time, mensajes string) (bool, error) {
	return f.transicion(id, entity.EstadoRecibida, func(fila *entity.Factura) {
		fila.Estado = entity.EstadoAutorizado
		fila.XMLPath = xmlPath
		fila.FechaAutorizacion = &fechaAutorizacion
		fila.MensajesSRI = mensajes
	})
}

func (f *fakeFacturas) MarcarRechazada(id, mensajes string) (bool, error) {
	return f.transicion(id, entity.EstadoRecibida, func(fila *entity.Factura) {
		fila.Estado = entity.EstadoRechazado
		fila.MensajesSRI = mensajes
	})
}

func (f *fakeFacturas) GuardarMensajes(id, mensajes string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, fila := range f.filas {
		if fila.ID == id {
			fila.MensajesSRI = mensajes
		}
	}
	return nil
}

func (f *fakeFacturas) fila(t *testing.T, id string) entity.Factura {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, fila := range f.filas {
		if fila.ID == id {
			return *fila
		}
	}
	t.Fatalf("factura %s no existe", id)
	return entity.Factura{}
}

func (f *fakeFacturas) estadoDe(id string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, fila := range f.filas {
		if fila.ID == id {
			return fila.Estado
		}
	}
	return ""
}

type fakeTx struct {
	mu       sync.Mutex
	emisores *fakeEmisores
	creditos *fakeCreditos
	facturas *fakeFacturas
}

func (x *fakeTx) Run(_ context.Context, fn func(
	repository.EmisorRepository,
	repository.EstructuraRepository,
	repository.CreditoRepository,
	repository.FacturaRepository,
) error) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	return fn(x.emisores, nil, x.creditos, x.facturas)
}

type fakeAlmacen struct {
	mu      sync.Mutex
	objetos map[string][]byte
}

func nuevoFakeAlmacen() *fakeAlmacen {
	return &fakeAlmacen{objetos: make(map[string][]byte)}
}

func (a *fakeAlmacen) Subir(_ context.Context, bucket, objeto string, contenido io.Reader, _ int64, _ string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	data, err := io.ReadAll(contenido)
	if err != nil {
		return "", err
	}
	ruta := bucket + "/" + objeto
	a.objetos[ruta] = data
	return ruta, nil
}

func (a *fakeAlmacen) Descargar(_ context.Context, bucket, objeto string) (io.ReadCloser, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	data, ok := a.objetos[bucket+"/"+objeto]
	if !ok {
		return nil, fmt.Errorf("%w: objeto %s/%s", domain.ErrNoEncontrado, bucket, objeto)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (a *fakeAlmacen) Eliminar(_ context.Context, bucket, objeto string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.objetos, bucket+"/"+objeto)
	return nil
}

func (a *fakeAlmacen) URLFirmada(_ context.Context, bucket, objeto string, _ time.Duration) (string, error) {
	return "http://minio.local/" + bucket + "/" + objeto, nil
}

// fakeMaterializador reemplaza la firma real: sube artefactos sintéticos a
// las mismas rutas canónicas que usaría facturacion.Service.
type fakeMaterializador struct {
	almacen *fakeAlmacen
	mu      sync.Mutex
	err     error
	firmas  int
	rides   int
}

func (m *fakeMaterializador) FirmarComprobante(ctx context.Context, emisor *entity.Emisor, f *entity.Factura) (string, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", "", m.err
	}
	m.firmas++

	xml := []byte(`<factura id="comprobante"><claveAcceso>` + f.ClaveAcceso + `</claveAcceso></factura>`)
	rutaXML, err := m.almacen.Subir(ctx, storage.BucketComprobantes,
		storage.RutaXMLFirmado(emisor.RUC, f.ClaveAcceso), bytes.NewReader(xml), int64(len(xml)), "application/xml")
	if err != nil {
		return "", "", err
	}
	ride := []byte("%PDF-1.7 ride")
	rutaPDF, err := m.almacen.Subir(ctx, storage.BucketComprobantes,
		storage.RutaPDF(emisor.RUC, f.ClaveAcceso), bytes.NewReader(ride), int64(len(ride)), "application/pdf")
	if err != nil {
		return "", "", err
	}
	return rutaXML, rutaPDF, nil
}

func (m *fakeMaterializador) RegenerarRIDE(ctx context.Context, emisor *entity.Emisor, f *entity.Factura) (string, []byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rides++

	ride := []byte("%PDF-1.7 ride autorizado")
	ruta, err := m.almacen.Subir(ctx, storage.BucketComprobantes,
		storage.RutaPDF(emisor.RUC, f.ClaveAcceso), bytes.NewReader(ride), int64(len(ride)), "application/pdf")
	if err != nil {
		return "", nil, err
	}
	return ruta, ride, nil
}

type fakeClienteSRI struct {
	mu              sync.Mutex
	recepcion       *sri.ResultadoRecepcion
	errRecepcion    error
	autorizacion    *sri.ResultadoAutorizacion
	errAutorizacion error
	enviados        [][]byte
	consultadas     []string
	ambientes       []string
}

func (c *fakeClienteSRI) EnviarRecepcion(_ context.Context, xmlFirmado []byte, ambiente string) (*sri.ResultadoRecepcion, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enviados = append(c.enviados, xmlFirmado)
	c.ambientes = append(c.ambientes, ambiente)
	if c.errRecepcion != nil {
		return nil, c.errRecepcion
	}
	return c.recepcion, nil
}

func (c *fakeClienteSRI) ConsultarAutorizacion(_ context.Context, claveAcceso, ambiente string) (*sri.ResultadoAutorizacion, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.consultadas = append(c.consultadas, claveAcceso)
	c.ambientes = append(c.ambientes, ambiente)
	if c.errAutorizacion != nil {
		return nil, c.errAutorizacion
	}
	return c.autorizacion, nil
}

type fakeNotificador struct {
	mu      sync.Mutex
	eventos []notify.EventoFactura
}

func (n *fakeNotificador) NotificarEstado(_ context.Context, evento notify.EventoFactura) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.eventos = append(n.eventos, evento)
}

type fakeRemitente struct {
	mu      sync.Mutex
	correos []email.Comprobante
}

func (r *fakeRemitente) EnviarComprobante(_ context.Context, c email.Comprobante) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.correos = append(r.correos, c)
}

// ─────────────────────────────────────────────────────────────────────────────
// Fixtures
// ─────────────────────────────────────────────────────────────────────────────

func emisorPrueba() *entity.Emisor {
	exp := time.Now().Add(180 * 24 * time.Hour)
	return &entity.Emisor{
		ID:                   "emisor-1",
		PerfilID:             "perfil-1",
		RUC:                  rucPrueba,
		RazonSocial:          "PEÑA & ASOCIADOS CÍA. LTDA.",
		DireccionMatriz:      "Av. Amazonas N26-123 y Colón",
		Ambiente:             entity.AmbientePruebas,
		ObligadoContabilidad: "SI",
		P12Path:              "certificates/" + rucPrueba + "/certificate_1.p12",
		P12PasswordEncrypted: "aa:bb",
		P12Expiration:        &exp,
	}
}

func clavePrueba(t *testing.T, secuencial string) string {
	t.Helper()
	clave, err := pkgsri.GenerarClaveAcceso(pkgsri.ClaveAccesoInput{
		FechaEmision:   time.Date(2025, 7, 15, 10, 30, 0, 0, time.UTC),
		CodDoc:         pkgsri.DocFactura,
		RUC:            rucPrueba,
		Ambiente:       entity.AmbientePruebas,
		Serie:          "001100",
		Secuencial:     secuencial,
		CodigoNumerico: "10300012",
		TipoEmision:    pkgsri.EmisionNormal,
	})
	require.NoError(t, err)
	return clave
}

func facturaPrueba(t *testing.T, id, secuencial string) *entity.Factura {
	t.Helper()
	return &entity.Factura{
		ID:                          id,
		EmisorID:                    "emisor-1",
		PuntoEmisionID:              "punto-1",
		Secuencial:                  secuencial,
		ClaveAcceso:                 clavePrueba(t, secuencial),
		TipoIdentificacionComprador: "05",
		IdentificacionComprador:     "1712345678",
		RazonSocialComprador:        "María José Vera",
		EmailComprador:              "maria@example.com",
		ClientInputData:             []byte(`{"detalles":[]}`),
		CreatedAt:                   time.Now(),
	}
}

type entornoWorker struct {
	svc         *Service
	emisor      *entity.Emisor
	facturas    *fakeFacturas
	creditos    *fakeCreditos
	cliente     *fakeClienteSRI
	almacen     *fakeAlmacen
	artefactos  *fakeMaterializador
	notificador *fakeNotificador
	correo      *fakeRemitente
}

func nuevoEntorno(t *testing.T, politica string) *entornoWorker {
	t.Helper()

	emisor := emisorPrueba()
	almacen := nuevoFakeAlmacen()
	ent := &entornoWorker{
		emisor:      emisor,
		facturas:    &fakeFacturas{},
		creditos:    &fakeCreditos{saldo: 5},
		cliente:     &fakeClienteSRI{},
		almacen:     almacen,
		artefactos:  &fakeMaterializador{almacen: almacen},
		notificador: &fakeNotificador{},
		correo:      &fakeRemitente{},
	}
	tx := &fakeTx{
		emisores: &fakeEmisores{emisor: emisor},
		creditos: ent.creditos,
		facturas: ent.facturas,
	}
	ent.svc = NewService(
		tx,
		ent.artefactos,
		&fakeEmisores{emisor: emisor},
		&fakePerfiles{perfil: &entity.Perfil{ID: "perfil-1", UID: "uid-1", EmisorID: "emisor-1"}},
		ent.cliente,
		almacen,
		ent.notificador,
		ent.correo,
		config.SRIConfig{DebitoCredito: politica},
		config.WorkerConfig{TamanoLote: 15, IntervaloEnvio: 20 * time.Second, IntervaloAutorizacion: time.Minute},
		logger.Nop(),
	)
	return ent
}

func (ent *entornoWorker) agregarPendiente(t *testing.T, id, secuencial string) *entity.Factura {
	t.Helper()
	f := facturaPrueba(t, id, secuencial)
	f.Estado = entity.EstadoPendiente
	ent.facturas.filas = append(ent.facturas.filas, f)
	return f
}

// agregarFirmada deja la fila en FIRMADO con su XML ya subido, como la habría
// dejado la ruta síncrona o un tick de firma anterior.
func (ent *entornoWorker) agregarFirmada(t *testing.T, id, secuencial string) *entity.Factura {
	t.Helper()
	f := facturaPrueba(t, id, secuencial)
	f.Estado = entity.EstadoFirmado

	rutaXML, rutaPDF, err := ent.artefactos.FirmarComprobante(context.Background(), ent.emisor, f)
	require.NoError(t, err)
	ent.artefactos.firmas-- // la siembra no cuenta como trabajo del worker
	f.XMLPath = rutaXML
	f.PDFPath = rutaPDF

	ent.facturas.filas = append(ent.facturas.filas, f)
	return f
}

func (ent *entornoWorker) agregarRecibida(t *testing.T, id, secuencial string) *entity.Factura {
	t.Helper()
	f := ent.agregarFirmada(t, id, secuencial)
	f.Estado = entity.EstadoRecibida
	envio := time.Now().Add(-time.Minute)
	f.FechaEnvioSRI = &envio
	return f
}

// ─────────────────────────────────────────────────────────────────────────────
// Ciclo de envío: firma + recepción
// ─────────────────────────────────────────────────────────────────────────────

func TestCicloEnvioFirmaYEntrega(t *testing.T) {
	ent := nuevoEntorno(t, "eager")
	f := ent.agregarPendiente(t, "fac-1", "000000001")
	ent.cliente.recepcion = &sri.ResultadoRecepcion{Estado: sri.EstadoRecibida}

	ent.svc.CicloEnvio(context.Background())

	// El mismo tick firma la encolada y la entrega a recepción.
	fila := ent.facturas.fila(t, "fac-1")
	assert.Equal(t, entity.EstadoRecibida, fila.Estado)
	assert.Equal(t, "invoices/signed/"+rucPrueba+"/"+f.ClaveAcceso+".xml", fila.XMLPath)
	assert.NotEmpty(t, fila.PDFPath)
	require.NotNil(t, fila.FechaEnvioSRI)

	// Al WS llegó el XML firmado, en el ambiente embebido en la clave.
	require.Len(t, ent.cliente.enviados, 1)
	assert.Contains(t, string(ent.cliente.enviados[0]), f.ClaveAcceso)
	assert.Equal(t, []string{entity.AmbientePruebas}, ent.cliente.ambientes)

	// Recepción exitosa no notifica nada.
	assert.Empty(t, ent.notificador.eventos)
	assert.Empty(t, ent.correo.correos)
}

func TestCicloEnvioSinCertificadoReintenta(t *testing.T) {
	ent := nuevoEntorno(t, "eager")
	ent.agregarPendiente(t, "fac-1", "000000001")
	ent.emisor.P12Path = ""

	ent.svc.CicloEnvio(context.Background())

	// La fila queda en PENDIENTE para el próximo tick; no se intentó firmar.
	assert.Equal(t, entity.EstadoPendiente, ent.facturas.estadoDe("fac-1"))
	assert.Zero(t, ent.artefactos.firmas)
	assert.Empty(t, ent.cliente.enviados)
}

func TestCicloEnvioDevuelta(t *testing.T) {
	ent := nuevoEntorno(t, "eager")
	f := ent.agregarFirmada(t, "fac-1", "000000001")
	ent.cliente.recepcion = &sri.ResultadoRecepcion{
		Estado:   sri.EstadoDevuelta,
		Mensajes: "ERROR 45: secuencial registrado",
	}

	ent.svc.CicloEnvio(context.Background())

	fila := ent.facturas.fila(t, "fac-1")
	assert.Equal(t, entity.EstadoDevuelta, fila.Estado)
	assert.Equal(t, "ERROR 45: secuencial registrado", fila.MensajesSRI)

	// La devolución sí notifica, con el UID del dueño resuelto.
	require.Len(t, ent.notificador.eventos, 1)
	evento := ent.notificador.eventos[0]
	assert.Equal(t, entity.EstadoDevuelta, evento.Estado)
	assert.Equal(t, "uid-1", evento.UserUID)
	assert.Equal(t, "fac-1", evento.InvoiceID)
	assert.Equal(t, f.ClaveAcceso, evento.ClaveAcceso)
	assert.Contains(t, evento.MensajeSRI, "ERROR 45")
	assert.Empty(t, ent.correo.correos)
}

func TestCicloEnvioSRICaidoPosponeLote(t *testing.T) {
	ent := nuevoEntorno(t, "eager")
	ent.agregarFirmada(t, "fac-1", "000000001")
	ent.agregarFirmada(t, "fac-2", "000000002")
	ent.cliente.errRecepcion = domain.ErrSRINoDisponible

	ent.svc.CicloEnvio(context.Background())

	// Tras el primer fallo no se insiste con el resto del lote.
	assert.Len(t, ent.cliente.enviados, 1)
	assert.Equal(t, entity.EstadoFirmado, ent.facturas.estadoDe("fac-1"))
	assert.Equal(t, entity.EstadoFirmado, ent.facturas.estadoDe("fac-2"))
	assert.Empty(t, ent.notificador.eventos)
}

// ─────────────────────────────────────────────────────────────────────────────
// Ciclo de autorización
// ─────────────────────────────────────────────────────────────────────────────

func autorizacionDePrueba(f *entity.Factura, fecha time.Time) *sri.ResultadoAutorizacion {
	return &sri.ResultadoAutorizacion{
		Estado:             sri.EstadoAutorizado,
		NumeroAutorizacion: f.ClaveAcceso,
		FechaAutorizacion:  &fecha,
		Ambiente:           "PRUEBAS",
		Comprobante:        `<factura id="comprobante"><claveAcceso>` + f.ClaveAcceso + `</claveAcceso></factura>`,
	}
}

func TestCicloAutorizacionAutorizada(t *testing.T) {
	ent := nuevoEntorno(t, "lazy")
	f := ent.agregarRecibida(t, "fac-1", "000000001")
	fechaSRI := time.Date(2025, 7, 15, 10, 31, 2, 0, time.UTC)
	ent.cliente.autorizacion = autorizacionDePrueba(f, fechaSRI)

	ent.svc.CicloAutorizacion(context.Background())

	// La fila quedó AUTORIZADO apuntando al XML autorizado, con la fecha del SRI.
	fila := ent.facturas.fila(t, "fac-1")
	assert.Equal(t, entity.EstadoAutorizado, fila.Estado)
	assert.Equal(t, "invoices/authorized/"+rucPrueba+"/"+f.ClaveAcceso+".xml", fila.XMLPath)
	require.NotNil(t, fila.FechaAutorizacion)
	assert.True(t, fila.FechaAutorizacion.Equal(fechaSRI))

	// El XML autorizado existe y envuelve el comprobante.
	autorizado := ent.almacen.objetos[fila.XMLPath]
	require.NotEmpty(t, autorizado)
	assert.Contains(t, string(autorizado), "<autorizacion>")
	assert.Contains(t, string(autorizado), f.ClaveAcceso)

	// Débito lazy: un crédito menos y el consumo asentado.
	assert.Equal(t, int64(4), ent.creditos.saldo)
	require.Len(t, ent.creditos.movimientos, 1)
	assert.Equal(t, entity.MovimientoConsumo, ent.creditos.movimientos[0].Tipo)
	assert.Contains(t, ent.creditos.movimientos[0].Detalle, f.ClaveAcceso)

	// El RIDE se regeneró con el bloque de autorización.
	assert.Equal(t, 1, ent.artefactos.rides)

	// Webhook y correo al comprador, después del commit.
	require.Len(t, ent.notificador.eventos, 1)
	assert.Equal(t, entity.EstadoAutorizado, ent.notificador.eventos[0].Estado)
	assert.Equal(t, "uid-1", ent.notificador.eventos[0].UserUID)

	require.Len(t, ent.correo.correos, 1)
	correo := ent.correo.correos[0]
	assert.Equal(t, "maria@example.com", correo.Destinatario)
	assert.Equal(t, "001-100-000000001", correo.Numero)
	assert.Equal(t, f.ClaveAcceso, correo.ClaveAcceso)
	assert.NotEmpty(t, correo.XML)
	assert.NotEmpty(t, correo.PDF)
}

func TestCicloAutorizacionEagerNoDebitaDosVeces(t *testing.T) {
	ent := nuevoEntorno(t, "eager")
	f := ent.agregarRecibida(t, "fac-1", "000000001")
	ent.cliente.autorizacion = autorizacionDePrueba(f, time.Now())

	ent.svc.CicloAutorizacion(context.Background())

	// Con política eager el crédito ya se descontó al emitir.
	assert.Equal(t, entity.EstadoAutorizado, ent.facturas.estadoDe("fac-1"))
	assert.Equal(t, int64(5), ent.creditos.saldo)
	assert.Empty(t, ent.creditos.movimientos)
}

func TestCicloAutorizacionRechazada(t *testing.T) {
	ent := nuevoEntorno(t, "lazy")
	ent.agregarRecibida(t, "fac-1", "000000001")
	ent.cliente.autorizacion = &sri.ResultadoAutorizacion{
		Estado:   sri.EstadoNoAutorizado,
		Mensajes: "ERROR 58: clave de acceso en estado no válido",
	}

	ent.svc.CicloAutorizacion(context.Background())

	fila := ent.facturas.fila(t, "fac-1")
	assert.Equal(t, entity.EstadoRechazado, fila.Estado)
	assert.Contains(t, fila.MensajesSRI, "ERROR 58")

	// Un comprobante no autorizado no consume crédito.
	assert.Equal(t, int64(5), ent.creditos.saldo)

	require.Len(t, ent.notificador.eventos, 1)
	assert.Equal(t, entity.EstadoRechazado, ent.notificador.eventos[0].Estado)
	assert.Empty(t, ent.correo.correos)
}

func TestCicloAutorizacionEnProcesoReintenta(t *testing.T) {
	ent := nuevoEntorno(t, "lazy")
	ent.agregarRecibida(t, "fac-1", "000000001")
	ent.cliente.autorizacion = &sri.ResultadoAutorizacion{Estado: sri.EstadoEnProceso}

	ent.svc.CicloAutorizacion(context.Background())

	// Sin veredicto la fila sigue RECIBIDA y nada se anuncia.
	assert.Equal(t, entity.EstadoRecibida, ent.facturas.estadoDe("fac-1"))
	assert.Empty(t, ent.notificador.eventos)
	assert.Equal(t, int64(5), ent.creditos.saldo)
}

func TestCicloAutorizacionEstadoDesconocido(t *testing.T) {
	ent := nuevoEntorno(t, "lazy")
	ent.agregarRecibida(t, "fac-1", "000000001")
	ent.cliente.autorizacion = &sri.ResultadoAutorizacion{
		Estado:   "EN ESPERA",
		Mensajes: "comprobante en cola de contingencia",
	}

	ent.svc.CicloAutorizacion(context.Background())

	// El texto del SRI se conserva tal cual y la fila no se mueve.
	fila := ent.facturas.fila(t, "fac-1")
	assert.Equal(t, entity.EstadoRecibida, fila.Estado)
	assert.Equal(t, "EN ESPERA: comprobante en cola de contingencia", fila.MensajesSRI)
	assert.Empty(t, ent.notificador.eventos)
}

func TestCicloAutorizacionSinSaldoNoRevierte(t *testing.T) {
	ent := nuevoEntorno(t, "lazy")
	f := ent.agregarRecibida(t, "fac-1", "000000001")
	ent.cliente.autorizacion = autorizacionDePrueba(f, time.Now())
	ent.creditos.saldo = 0

	ent.svc.CicloAutorizacion(context.Background())

	// La autorización del SRI es un hecho aunque el saldo esté en cero.
	assert.Equal(t, entity.EstadoAutorizado, ent.facturas.estadoDe("fac-1"))
	assert.Equal(t, int64(0), ent.creditos.saldo)
	assert.Empty(t, ent.creditos.movimientos)
	require.Len(t, ent.notificador.eventos, 1)
}

func TestCicloAutorizacionSRICaidoPosponeLote(t *testing.T) {
	ent := nuevoEntorno(t, "lazy")
	ent.agregarRecibida(t, "fac-1", "000000001")
	ent.agregarRecibida(t, "fac-2", "000000002")
	ent.cliente.errAutorizacion = domain.ErrSRINoDisponible

	ent.svc.CicloAutorizacion(context.Background())

	assert.Len(t, ent.cliente.consultadas, 1)
	assert.Equal(t, entity.EstadoRecibida, ent.facturas.estadoDe("fac-1"))
	assert.Equal(t, entity.EstadoRecibida, ent.facturas.estadoDe("fac-2"))
	assert.Empty(t, ent.notificador.eventos)
}

// ─────────────────────────────────────────────────────────────────────────────
// Bucle del worker
// ─────────────────────────────────────────────────────────────────────────────

func TestEjecutarAvanzaConLosTicks(t *testing.T) {
	ent := nuevoEntorno(t, "eager")
	ent.agregarPendiente(t, "fac-1", "000000001")
	ent.cliente.recepcion = &sri.ResultadoRecepcion{Estado: sri.EstadoRecibida}

	// Intervalos cortos para el test; el bucle muere con el contexto.
	ent.svc.intervaloEnvio = 5 * time.Millisecond
	ent.svc.intervaloAutorizacion = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		ent.svc.Ejecutar(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return ent.facturas.estadoDe("fac-1") == entity.EstadoRecibida
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Ejecutar no terminó al cancelar el contexto")
	}
}
