package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kipu-ec/kipu-api/internal/domain"
)

const claveEjemplo = "2508202601179001167400110011000000001231234567813"

// TestRutasDeArtefactos fija el layout de los buckets: las rutas quedan
// persistidas en la base y en enlaces entregados a clientes, así que
// cualquier cambio rompe datos existentes.
func TestRutasDeArtefactos(t *testing.T) {
	assert.Equal(t, "1790011674001/certificate_1756130400.p12",
		RutaCertificado("1790011674001", 1756130400))
	assert.Equal(t, "signed/1790011674001/"+claveEjemplo+".xml",
		RutaXMLFirmado("1790011674001", claveEjemplo))
	assert.Equal(t, "signed/1790011674001/"+claveEjemplo+".pdf",
		RutaPDF("1790011674001", claveEjemplo))
	assert.Equal(t, "authorized/1790011674001/"+claveEjemplo+".xml",
		RutaXMLAutorizado("1790011674001", claveEjemplo))
}

func TestPartirRuta(t *testing.T) {
	bucket, objeto, err := PartirRuta("invoices/signed/1790011674001/" + claveEjemplo + ".xml")
	require.NoError(t, err)
	assert.Equal(t, "invoices", bucket)
	assert.Equal(t, "signed/1790011674001/"+claveEjemplo+".xml", objeto)

	casosInvalidos := []string{"", "sin-separador", "/objeto", "bucket/"}
	for _, ruta := range casosInvalidos {
		_, _, err := PartirRuta(ruta)
		assert.ErrorIs(t, err, domain.ErrValidacion, "ruta %q debe rechazarse", ruta)
	}
}

// TestRutaYPartirSonInversas documenta el contrato entre Subir (que devuelve
// "<bucket>/<objeto>") y los endpoints públicos que parten esa ruta.
func TestRutaYPartirSonInversas(t *testing.T) {
	ruta := BucketComprobantes + "/" + RutaXMLAutorizado("1790011674001", claveEjemplo)

	bucket, objeto, err := PartirRuta(ruta)
	require.NoError(t, err)
	assert.Equal(t, BucketComprobantes, bucket)
	assert.Equal(t, RutaXMLAutorizado("1790011674001", claveEjemplo), objeto)
}
