package firma

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/kipu-ec/kipu-api/internal/domain"
	"github.com/kipu-ec/kipu-api/internal/domain/entity"
	"github.com/kipu-ec/kipu-api/internal/infrastructure/storage"
)

// Boveda abre la credencial de firma de un emisor lista para usar. La
// implementación productiva desbloquea el P12 en cada apertura; nunca hay
// llaves en claro en caché.
type Boveda interface {
	Abrir(ctx context.Context, emisor *entity.Emisor) (*Credencial, error)
}

// BovedaAlmacen implementa Boveda sobre el object store: descarga el P12 del
// emisor, descifra su contraseña con la llave maestra y valida el material
// contra el RUC declarado y la fecha actual.
type BovedaAlmacen struct {
	almacen  storage.Almacen
	cifrador *Cifrador
}

var _ Boveda = (*BovedaAlmacen)(nil)

func NewBovedaAlmacen(almacen storage.Almacen, cifrador *Cifrador) *BovedaAlmacen {
	return &BovedaAlmacen{almacen: almacen, cifrador: cifrador}
}

func (b *BovedaAlmacen) Abrir(ctx context.Context, emisor *entity.Emisor) (*Credencial, error) {
	if err := emisor.PuedeEmitir(time.Now()); err != nil {
		return nil, err
	}

	bucket, objeto, err := storage.PartirRuta(emisor.P12Path)
	if err != nil {
		return nil, fmt.Errorf("%w: ruta de certificado corrupta", domain.ErrFirmaInvalida)
	}
	rc, err := b.almacen.Descargar(ctx, bucket, objeto)
	if err != nil {
		return nil, fmt.Errorf("descargar P12: %w", err)
	}
	defer rc.Close()
	p12, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("leer P12: %w", err)
	}

	password, err := b.cifrador.Descifrar(emisor.P12PasswordEncrypted)
	if err != nil {
		return nil, fmt.Errorf("%w: contraseña de certificado indescifrable", domain.ErrFirmaInvalida)
	}

	cred, err := CargarCredencial(p12, password)
	if err != nil {
		return nil, err
	}
	if err := cred.ValidarRUC(emisor.RUC); err != nil {
		return nil, err
	}
	if !cred.Vigente(time.Now()) {
		return nil, domain.ErrFirmaExpirada
	}
	return cred, nil
}
