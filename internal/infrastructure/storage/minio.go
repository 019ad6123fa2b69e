// Package storage implementa el almacén de artefactos (certificados P12,
// comprobantes XML y RIDEs) sobre MinIO o cualquier object store compatible
// con S3.
package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/kipu-ec/kipu-api/internal/domain"
	"github.com/kipu-ec/kipu-api/pkg/config"
)

// Buckets fijos del despliegue.
const (
	BucketCertificados = "certificates"
	BucketComprobantes = "invoices"
)

// Armadores de rutas dentro de los buckets. Centralizados para que emisión,
// worker y endpoints públicos nunca diverjan en la forma de las claves.

func RutaCertificado(ruc string, epoch int64) string {
	return fmt.Sprintf("%s/certificate_%d.p12", ruc, epoch)
}

func RutaXMLFirmado(ruc, claveAcceso string) string {
	return fmt.Sprintf("signed/%s/%s.xml", ruc, claveAcceso)
}

func RutaPDF(ruc, claveAcceso string) string {
	return fmt.Sprintf("signed/%s/%s.pdf", ruc, claveAcceso)
}

func RutaXMLAutorizado(ruc, claveAcceso string) string {
	return fmt.Sprintf("authorized/%s/%s.xml", ruc, claveAcceso)
}

// PartirRuta separa la ruta "<bucket>/<objeto>" tal como se persiste en la
// columna xml_path / pdf_path.
func PartirRuta(ruta string) (bucket, objeto string, err error) {
	bucket, objeto, ok := strings.Cut(ruta, "/")
	if !ok || bucket == "" || objeto == "" {
		return "", "", fmt.Errorf("%w: ruta de artefacto inválida: %q", domain.ErrValidacion, ruta)
	}
	return bucket, objeto, nil
}

// Almacen define el puerto de salida hacia el object store. La implementación
// concreta usa MinIO; para tests se puede inyectar un mock.
type Almacen interface {
	// Subir guarda el objeto y devuelve la ruta "<bucket>/<objeto>".
	Subir(ctx context.Context, bucket, objeto string, contenido io.Reader, tamano int64, contentType string) (string, error)

	// Descargar abre el objeto para lectura en streaming.
	Descargar(ctx context.Context, bucket, objeto string) (io.ReadCloser, error)

	// Eliminar borra el objeto; borrar una clave inexistente no es error.
	Eliminar(ctx context.Context, bucket, objeto string) error

	// URLFirmada genera un enlace GET temporal al objeto.
	URLFirmada(ctx context.Context, bucket, objeto string, vigencia time.Duration) (string, error)
}

// AlmacenMinIO implementa Almacen sobre minio-go.
type AlmacenMinIO struct {
	cliente *minio.Client

	mu     sync.Mutex
	listos map[string]bool // buckets ya verificados o creados
}

// NewAlmacenMinIO conecta con el object store. No verifica conectividad:
// minio-go es perezoso y la primera operación la valida.
func NewAlmacenMinIO(cfg config.MinIOConfig) (*AlmacenMinIO, error) {
	cliente, err := minio.New(cfg.Addr(), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("storage: conectar a MinIO: %w", err)
	}
	return &AlmacenMinIO{cliente: cliente, listos: make(map[string]bool)}, nil
}

// Subir guarda el objeto y devuelve la ruta que se persiste en la base. El
// bucket se crea en el primer uso.
func (a *AlmacenMinIO) Subir(ctx context.Context, bucket, objeto string, contenido io.Reader, tamano int64, contentType string) (string, error) {
	if err := a.asegurarBucket(ctx, bucket); err != nil {
		return "", err
	}
	_, err := a.cliente.PutObject(ctx, bucket, objeto, contenido, tamano,
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("storage: subir %s/%s: %w", bucket, objeto, err)
	}
	return bucket + "/" + objeto, nil
}

// Descargar abre el objeto en streaming. El Stat adelantado convierte una
// clave inexistente en ErrNoEncontrado en lugar de fallar en el primer Read.
func (a *AlmacenMinIO) Descargar(ctx context.Context, bucket, objeto string) (io.ReadCloser, error) {
	obj, err := a.cliente.GetObject(ctx, bucket, objeto, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("storage: abrir %s/%s: %w", bucket, objeto, err)
	}
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		if objetoNoExiste(err) {
			return nil, fmt.Errorf("%w: %s/%s", domain.ErrNoEncontrado, bucket, objeto)
		}
		return nil, fmt.Errorf("storage: stat %s/%s: %w", bucket, objeto, err)
	}
	return obj, nil
}

func (a *AlmacenMinIO) Eliminar(ctx context.Context, bucket, objeto string) error {
	err := a.cliente.RemoveObject(ctx, bucket, objeto, minio.RemoveObjectOptions{})
	if err != nil && !objetoNoExiste(err) {
		return fmt.Errorf("storage: eliminar %s/%s: %w", bucket, objeto, err)
	}
	return nil
}

func (a *AlmacenMinIO) URLFirmada(ctx context.Context, bucket, objeto string, vigencia time.Duration) (string, error) {
	u, err := a.cliente.PresignedGetObject(ctx, bucket, objeto, vigencia, nil)
	if err != nil {
		return "", fmt.Errorf("storage: presignar %s/%s: %w", bucket, objeto, err)
	}
	return u.String(), nil
}

func (a *AlmacenMinIO) asegurarBucket(ctx context.Context, bucket string) error {
	a.mu.Lock()
	listo := a.listos[bucket]
	a.mu.Unlock()
	if listo {
		return nil
	}

	existe, err := a.cliente.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("storage: verificar bucket %s: %w", bucket, err)
	}
	if !existe {
		err = a.cliente.MakeBucket(ctx, bucket, minio.MakeBucketOptions{})
		// Otro proceso pudo ganar la creación; eso no es un fallo.
		if err != nil && !bucketYaExiste(err) {
			return fmt.Errorf("storage: crear bucket %s: %w", bucket, err)
		}
	}

	a.mu.Lock()
	a.listos[bucket] = true
	a.mu.Unlock()
	return nil
}

func objetoNoExiste(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket"
}

func bucketYaExiste(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "BucketAlreadyOwnedByYou" || resp.Code == "BucketAlreadyExists"
}

var _ Almacen = (*AlmacenMinIO)(nil)
