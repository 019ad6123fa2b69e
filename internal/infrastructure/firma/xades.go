// Servicio de firma digital XAdES-BES para comprobantes electrónicos del SRI.
// Inyecta <ds:Signature> como último hijo del elemento raíz <factura>.

package firma

import (
	"bytes"
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ucarion/c14n"

	"github.com/kipu-ec/kipu-api/internal/domain"
)

// declaracionNS son los namespaces que ds:Signature declara. Los fragmentos
// que se digieren por separado (SignedInfo, SignedProperties) deben llevarlos
// porque la canonicalización inclusiva los hereda dentro del documento final.
const declaracionNS = ` xmlns:ds="` + NamespaceDS + `" xmlns:etsi="` + NamespaceEtsi + `"`

// Firmador produce la firma XAdES-BES del comprobante.
type Firmador struct{}

func NewFirmador() *Firmador {
	return &Firmador{}
}

// Firmar firma el XML del comprobante con la credencial dada y devuelve el
// documento con la firma inyectada antes de </factura>.
//
// El digest del documento se calcula sobre la canonicalización del XML previo
// a la inyección: la transformada enveloped-signature del verificador retira
// la firma y reproduce exactamente esos bytes. Por eso la inyección es una
// inserción textual y nunca una reserialización, que podría alterar escapes y
// romper el digest.
func (f *Firmador) Firmar(xmlComprobante []byte, cred *Credencial) ([]byte, error) {
	if len(xmlComprobante) == 0 {
		return nil, fmt.Errorf("%w: XML vacío", domain.ErrValidacion)
	}
	if cred == nil || cred.Cert == nil || cred.Llave == nil {
		return nil, fmt.Errorf("%w: credencial incompleta", domain.ErrFirmaInvalida)
	}

	// 1) Digest del documento (Reference URI="#comprobante").
	canonDoc, err := canonicalizar(xmlComprobante)
	if err != nil {
		return nil, fmt.Errorf("canonicalizar comprobante: %w", err)
	}
	digestDoc := sha256.Sum256(canonDoc)
	digestDocB64 := base64.StdEncoding.EncodeToString(digestDoc[:])

	// 2) SignedProperties y su digest (Reference tipada de XAdES).
	certDigest := sha256.Sum256(cred.Cert.Raw)
	issuerName, err := FormatearIssuer(cred.Cert)
	if err != nil {
		return nil, fmt.Errorf("formatear issuer: %w", err)
	}
	signingTime := time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
	propsConNS := f.construirSignedProperties(declaracionNS, signingTime,
		base64.StdEncoding.EncodeToString(certDigest[:]), issuerName, cred.Cert.SerialNumber.String())
	canonProps, err := canonicalizar([]byte(propsConNS))
	if err != nil {
		return nil, fmt.Errorf("canonicalizar SignedProperties: %w", err)
	}
	digestProps := sha256.Sum256(canonProps)
	digestPropsB64 := base64.StdEncoding.EncodeToString(digestProps[:])

	// 3) SignedInfo canónico y firma RSA sobre su hash.
	infoConNS := f.construirSignedInfo(declaracionNS, digestPropsB64, digestDocB64)
	canonInfo, err := canonicalizar([]byte(infoConNS))
	if err != nil {
		return nil, fmt.Errorf("canonicalizar SignedInfo: %w", err)
	}
	hashInfo := sha256.Sum256(canonInfo)
	valorFirma, err := rsa.SignPKCS1v15(nil, cred.Llave, crypto.SHA256, hashInfo[:])
	if err != nil {
		return nil, fmt.Errorf("firmar SignedInfo: %w", err)
	}

	// 4) Ensamblar ds:Signature e inyectar en el comprobante.
	keyInfo, err := f.construirKeyInfo(cred)
	if err != nil {
		return nil, err
	}
	firmaXML := f.ensamblarFirma(
		f.construirSignedInfo("", digestPropsB64, digestDocB64),
		base64.StdEncoding.EncodeToString(valorFirma),
		keyInfo,
		f.construirSignedProperties("", signingTime,
			base64.StdEncoding.EncodeToString(certDigest[:]), issuerName, cred.Cert.SerialNumber.String()),
	)
	return inyectarFirma(xmlComprobante, firmaXML)
}

func canonicalizar(data []byte) ([]byte, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Entity = map[string]string{}
	return c14n.Canonicalize(dec)
}

// construirSignedInfo arma el nodo con la Reference tipada hacia
// SignedProperties y la Reference del documento con las transformadas
// enveloped-signature y C14N. nsDecl va vacío dentro del documento, donde los
// namespaces se heredan de ds:Signature.
func (f *Firmador) construirSignedInfo(nsDecl, digestPropsB64, digestDocB64 string) string {
	var sb strings.Builder
	sb.WriteString(`<ds:SignedInfo` + nsDecl + ` Id="` + SignedInfoID + `">`)
	sb.WriteString(`<ds:CanonicalizationMethod Algorithm="` + AlgC14N + `"/>`)
	sb.WriteString(`<ds:SignatureMethod Algorithm="` + AlgRSASHA256 + `"/>`)
	sb.WriteString(`<ds:Reference Type="` + TipoSignedProperties + `" URI="#` + SignedPropsID + `">`)
	sb.WriteString(`<ds:DigestMethod Algorithm="` + AlgSHA256 + `"/>`)
	sb.WriteString(`<ds:DigestValue>` + digestPropsB64 + `</ds:DigestValue>`)
	sb.WriteString(`</ds:Reference>`)
	sb.WriteString(`<ds:Reference Id="` + ReferenciaDocID + `" URI="#` + ComprobanteID + `">`)
	sb.WriteString(`<ds:Transforms><ds:Transform Algorithm="` + TransformEnveloped + `"/>`)
	sb.WriteString(`<ds:Transform Algorithm="` + AlgC14N + `"/></ds:Transforms>`)
	sb.WriteString(`<ds:DigestMethod Algorithm="` + AlgSHA256 + `"/>`)
	sb.WriteString(`<ds:DigestValue>` + digestDocB64 + `</ds:DigestValue>`)
	sb.WriteString(`</ds:Reference>`)
	sb.WriteString(`</ds:SignedInfo>`)
	return sb.String()
}

// construirSignedProperties arma el bloque XAdES: SigningTime, certificado de
// firma con su digest e IssuerSerial, y el DataObjectFormat del comprobante.
func (f *Firmador) construirSignedProperties(nsDecl, signingTime, certDigestB64, issuerName, serialDecimal string) string {
	var sb strings.Builder
	sb.WriteString(`<etsi:SignedProperties` + nsDecl + ` Id="` + SignedPropsID + `">`)
	sb.WriteString(`<etsi:SignedSignatureProperties>`)
	sb.WriteString(`<etsi:SigningTime>` + signingTime + `</etsi:SigningTime>`)
	sb.WriteString(`<etsi:SigningCertificate><etsi:Cert>`)
	sb.WriteString(`<etsi:CertDigest><ds:DigestMethod Algorithm="` + AlgSHA256 + `"/>`)
	sb.WriteString(`<ds:DigestValue>` + certDigestB64 + `</ds:DigestValue></etsi:CertDigest>`)
	sb.WriteString(`<etsi:IssuerSerial>`)
	sb.WriteString(`<ds:X509IssuerName>` + escaparXML(issuerName) + `</ds:X509IssuerName>`)
	sb.WriteString(`<ds:X509SerialNumber>` + serialDecimal + `</ds:X509SerialNumber>`)
	sb.WriteString(`</etsi:IssuerSerial></etsi:Cert></etsi:SigningCertificate>`)
	sb.WriteString(`</etsi:SignedSignatureProperties>`)
	sb.WriteString(`<etsi:SignedDataObjectProperties>`)
	sb.WriteString(`<etsi:DataObjectFormat ObjectReference="#` + ReferenciaDocID + `">`)
	sb.WriteString(`<etsi:Description>contenido comprobante</etsi:Description>`)
	sb.WriteString(`<etsi:MimeType>text/xml</etsi:MimeType>`)
	sb.WriteString(`</etsi:DataObjectFormat>`)
	sb.WriteString(`</etsi:SignedDataObjectProperties>`)
	sb.WriteString(`</etsi:SignedProperties>`)
	return sb.String()
}

// construirKeyInfo publica la cadena de certificados y el par módulo/exponente
// de la llave, que el validador del SRI usa para verificar sin resolver la
// cadena por fuera.
func (f *Firmador) construirKeyInfo(cred *Credencial) (string, error) {
	pub, ok := cred.Cert.PublicKey.(*rsa.PublicKey)
	if !ok {
		return "", fmt.Errorf("%w: el certificado no es RSA", domain.ErrFirmaInvalida)
	}
	var sb strings.Builder
	sb.WriteString(`<ds:KeyInfo Id="` + KeyInfoID + `">`)
	sb.WriteString(`<ds:X509Data>`)
	for _, cert := range cred.Cadena {
		sb.WriteString(`<ds:X509Certificate>` + base64.StdEncoding.EncodeToString(cert.Raw) + `</ds:X509Certificate>`)
	}
	sb.WriteString(`</ds:X509Data>`)
	sb.WriteString(`<ds:KeyValue><ds:RSAKeyValue>`)
	sb.WriteString(`<ds:Modulus>` + base64.StdEncoding.EncodeToString(pub.N.Bytes()) + `</ds:Modulus>`)
	sb.WriteString(`<ds:Exponent>` + base64.StdEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()) + `</ds:Exponent>`)
	sb.WriteString(`</ds:RSAKeyValue></ds:KeyValue>`)
	sb.WriteString(`</ds:KeyInfo>`)
	return sb.String(), nil
}

func (f *Firmador) ensamblarFirma(signedInfo, valorFirmaB64, keyInfo, signedProperties string) string {
	var sb strings.Builder
	sb.WriteString(`<ds:Signature` + declaracionNS + ` Id="` + SignatureID + `">`)
	sb.WriteString(signedInfo)
	sb.WriteString(`<ds:SignatureValue Id="` + SignatureValueID + `">` + valorFirmaB64 + `</ds:SignatureValue>`)
	sb.WriteString(keyInfo)
	sb.WriteString(`<ds:Object Id="` + ObjectID + `">`)
	sb.WriteString(`<etsi:QualifyingProperties Target="#` + SignatureID + `">`)
	sb.WriteString(signedProperties)
	sb.WriteString(`</etsi:QualifyingProperties>`)
	sb.WriteString(`</ds:Object>`)
	sb.WriteString(`</ds:Signature>`)
	return sb.String()
}

func escaparXML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, `"`, "&quot;")
	return s
}

// inyectarFirma inserta el nodo de firma justo antes del cierre del elemento
// raíz, sin reserializar el resto del documento.
func inyectarFirma(xmlComprobante []byte, firmaXML string) ([]byte, error) {
	cierre := []byte("</factura>")
	idx := bytes.LastIndex(xmlComprobante, cierre)
	if idx < 0 {
		return nil, fmt.Errorf("%w: el comprobante no tiene cierre </factura>", domain.ErrValidacion)
	}
	out := make([]byte, 0, len(xmlComprobante)+len(firmaXML))
	out = append(out, xmlComprobante[:idx]...)
	out = append(out, firmaXML...)
	out = append(out, xmlComprobante[idx:]...)
	return out, nil
}
