package firma

import (
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"fmt"
	"strings"
)

// nombresAtributo son las abreviaturas que el validador del SRI espera en
// X509IssuerName.
var nombresAtributo = map[string]string{
	"2.5.4.3":                    "CN",
	"2.5.4.5":                    "SERIALNUMBER",
	"2.5.4.6":                    "C",
	"2.5.4.7":                    "L",
	"2.5.4.8":                    "ST",
	"2.5.4.9":                    "STREET",
	"2.5.4.10":                   "O",
	"2.5.4.11":                   "OU",
	"0.9.2342.19200300.100.1.25": "DC",
	"1.2.840.113549.1.9.1":       "EMAILADDRESS",
}

// FormatearIssuer serializa el issuer del certificado respetando el orden en
// que la CA lo escribió en el DER. pkix.Name.String() invierte los RDN según
// RFC 2253 y el SRI compara el texto literal, así que se formatea desde
// RawIssuer.
func FormatearIssuer(cert *x509.Certificate) (string, error) {
	var rdns pkix.RDNSequence
	resto, err := asn1.Unmarshal(cert.RawIssuer, &rdns)
	if err != nil {
		return "", fmt.Errorf("issuer ilegible: %w", err)
	}
	if len(resto) != 0 {
		return "", fmt.Errorf("issuer con bytes sobrantes")
	}

	var partes []string
	for _, rdn := range rdns {
		for _, atv := range rdn {
			nombre, ok := nombresAtributo[atv.Type.String()]
			if !ok {
				nombre = atv.Type.String()
			}
			partes = append(partes, nombre+"="+escaparValorRDN(atv.Value))
		}
	}
	return strings.Join(partes, ","), nil
}

// escaparValorRDN aplica el escape mínimo de RFC 2253 sobre el valor.
func escaparValorRDN(v interface{}) string {
	s, ok := v.(string)
	if !ok {
		s = fmt.Sprintf("%v", v)
	}
	var b strings.Builder
	for i, r := range s {
		switch r {
		case ',', '+', '"', '\\', '<', '>', ';':
			b.WriteByte('\\')
			b.WriteRune(r)
		case '#', ' ':
			if i == 0 {
				b.WriteByte('\\')
			}
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	out := b.String()
	if strings.HasSuffix(out, " ") && !strings.HasSuffix(out, "\\ ") {
		out = out[:len(out)-1] + "\\ "
	}
	return out
}
