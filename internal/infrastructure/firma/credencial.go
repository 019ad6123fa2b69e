// Selección de certificado y llave de firma dentro de un contenedor PKCS#12.
//
// Los P12 emitidos por las autoridades certificadoras ecuatorianas no son
// uniformes: el Banco Central entrega dos pares de llaves (cifrado y firma)
// más la cadena de CA, mientras que las CA privadas entregan un solo par.
// pkcs12.Decode exige exactamente dos safe bags y falla con los primeros, así
// que se recorre el contenedor completo con pkcs12.ToPEM y se selecciona.

package firma

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/asn1"
	"encoding/pem"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/pkcs12"

	"github.com/kipu-ec/kipu-api/internal/domain"
)

// OIDs propietarios donde las CA ecuatorianas guardan el RUC del titular.
var (
	oidRUCBancoCentral  = asn1.ObjectIdentifier{1, 3, 6, 1, 4, 1, 37947, 3, 11}
	oidRUCSecurityData  = asn1.ObjectIdentifier{1, 3, 6, 1, 4, 1, 37442, 10, 4}
	oidSubjectSerialNum = asn1.ObjectIdentifier{2, 5, 4, 5}
)

// Credencial es el material de firma ya seleccionado y validado.
type Credencial struct {
	Cert   *x509.Certificate
	Llave  *rsa.PrivateKey
	Cadena []*x509.Certificate // certificado de firma primero, luego CAs
	RUC    string              // RUC extraído del certificado; puede ser vacío
	Expira time.Time
}

// Vigente reporta si el certificado no ha expirado.
func (c *Credencial) Vigente(ahora time.Time) bool {
	return ahora.Before(c.Expira)
}

// ValidarRUC compara el RUC del certificado con el declarado por el emisor.
func (c *Credencial) ValidarRUC(rucEmisor string) error {
	if c.RUC == "" || rucEmisor == "" {
		return nil
	}
	if c.RUC != rucEmisor {
		return fmt.Errorf("%w: certificado %s, emisor %s", domain.ErrRucNoCoincide, c.RUC, rucEmisor)
	}
	return nil
}

// CargarCredencial abre el P12 con la contraseña dada, selecciona el
// certificado de firma y su llave privada y extrae el RUC del titular.
func CargarCredencial(p12 []byte, password string) (*Credencial, error) {
	blocks, err := pkcs12.ToPEM(p12, password)
	if err != nil {
		return nil, fmt.Errorf("%w: no se pudo abrir el P12: %v", domain.ErrFirmaInvalida, err)
	}
	return credencialDesdeBloques(blocks)
}

// Cargador abstrae la apertura de un P12 recibido por la API, para que los
// casos de uso puedan probarse sin un contenedor real.
type Cargador interface {
	Cargar(p12 []byte, password string) (*Credencial, error)
}

// CargadorPKCS12 es el Cargador productivo sobre CargarCredencial.
type CargadorPKCS12 struct{}

var _ Cargador = CargadorPKCS12{}

func (CargadorPKCS12) Cargar(p12 []byte, password string) (*Credencial, error) {
	return CargarCredencial(p12, password)
}

// bolsaCert es un certificado del contenedor junto con el localKeyId de su
// safe bag, usado para emparejarlo con su llave.
type bolsaCert struct {
	cert       *x509.Certificate
	localKeyID string
}

// credencialDesdeBloques hace la selección sobre los bloques PEM del
// contenedor. Separado de la lectura del P12 para poder probarse con bloques
// sintéticos.
func credencialDesdeBloques(blocks []*pem.Block) (*Credencial, error) {
	var certs []bolsaCert
	var keyBlocks []*pem.Block

	for _, b := range blocks {
		switch b.Type {
		case "CERTIFICATE":
			cert, err := x509.ParseCertificate(b.Bytes)
			if err != nil {
				continue
			}
			certs = append(certs, bolsaCert{cert: cert, localKeyID: b.Headers["localKeyId"]})
		case "PRIVATE KEY":
			keyBlocks = append(keyBlocks, b)
		}
	}

	if len(certs) == 0 {
		return nil, fmt.Errorf("%w: el P12 no contiene certificados", domain.ErrFirmaInvalida)
	}

	elegido := seleccionarCertificado(certs)
	if elegido == nil {
		return nil, fmt.Errorf("%w: el P12 no contiene un certificado de firma", domain.ErrFirmaInvalida)
	}

	keyBlock := emparejarLlave(keyBlocks, elegido.localKeyID)
	if keyBlock == nil {
		return nil, fmt.Errorf("%w: el P12 no contiene la llave privada del certificado", domain.ErrFirmaInvalida)
	}
	llave, err := parsearLlaveRSA(keyBlock.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: llave privada ilegible: %v", domain.ErrFirmaInvalida, err)
	}

	cadena := []*x509.Certificate{elegido.cert}
	for i := range certs {
		if certs[i].cert != elegido.cert {
			cadena = append(cadena, certs[i].cert)
		}
	}

	return &Credencial{
		Cert:   elegido.cert,
		Llave:  llave,
		Cadena: cadena,
		RUC:    extraerRUC(elegido.cert),
		Expira: elegido.cert.NotAfter,
	}, nil
}

// seleccionarCertificado aplica la prioridad de selección sobre los
// certificados no-CA:
//  1. digitalSignature y nonRepudiation juntos (perfil de firma del Banco Central),
//  2. digitalSignature,
//  3. el primero no-CA.
func seleccionarCertificado(certs []bolsaCert) *bolsaCert {
	const firmaYNoRepudio = x509.KeyUsageDigitalSignature | x509.KeyUsageContentCommitment

	for i := range certs {
		c := &certs[i]
		if !c.cert.IsCA && c.cert.KeyUsage&firmaYNoRepudio == firmaYNoRepudio {
			return c
		}
	}
	for i := range certs {
		c := &certs[i]
		if !c.cert.IsCA && c.cert.KeyUsage&x509.KeyUsageDigitalSignature != 0 {
			return c
		}
	}
	for i := range certs {
		if !certs[i].cert.IsCA {
			return &certs[i]
		}
	}
	return nil
}

// emparejarLlave resuelve la llave del certificado elegido:
// (a) una sola llave → esa; (b) match por localKeyId; (c) friendlyName que
// contenga "signing key"; (d) la última bolsa (empírico: los P12 del Banco
// Central traen la de cifrado primero y la de firma al final).
func emparejarLlave(keyBlocks []*pem.Block, localKeyID string) *pem.Block {
	switch len(keyBlocks) {
	case 0:
		return nil
	case 1:
		return keyBlocks[0]
	}
	if localKeyID != "" {
		for _, b := range keyBlocks {
			if b.Headers["localKeyId"] == localKeyID {
				return b
			}
		}
	}
	for _, b := range keyBlocks {
		if strings.Contains(strings.ToLower(b.Headers["friendlyName"]), "signing key") {
			return b
		}
	}
	return keyBlocks[len(keyBlocks)-1]
}

func parsearLlaveRSA(der []byte) (*rsa.PrivateKey, error) {
	if k, err := x509.ParsePKCS1PrivateKey(der); err == nil {
		return k, nil
	}
	any, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, err
	}
	k, ok := any.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("la llave no es RSA")
	}
	return k, nil
}

// extraerRUC busca el RUC del titular: primero en las extensiones
// propietarias de las CA, luego en el serialNumber del subject.
func extraerRUC(cert *x509.Certificate) string {
	for _, ext := range cert.Extensions {
		if ext.Id.Equal(oidRUCBancoCentral) || ext.Id.Equal(oidRUCSecurityData) {
			if ruc := buscar13Digitos(string(ext.Value)); ruc != "" {
				return ruc
			}
		}
	}
	for _, atv := range cert.Subject.Names {
		if atv.Type.Equal(oidSubjectSerialNum) {
			if s, ok := atv.Value.(string); ok {
				if ruc := buscar13Digitos(s); ruc != "" {
					return ruc
				}
			}
		}
	}
	return ""
}

// buscar13Digitos devuelve la primera corrida de exactamente 13 dígitos.
func buscar13Digitos(s string) string {
	inicio := -1
	for i := 0; i <= len(s); i++ {
		esDigito := i < len(s) && s[i] >= '0' && s[i] <= '9'
		if esDigito && inicio < 0 {
			inicio = i
		}
		if !esDigito && inicio >= 0 {
			if i-inicio == 13 {
				return s[inicio:i]
			}
			inicio = -1
		}
	}
	return ""
}
