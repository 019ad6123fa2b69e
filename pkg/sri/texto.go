package sri

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// quitarDiacriticos descompone a NFD, elimina marcas combinantes y recompone.
var quitarDiacriticos = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizarTexto prepara texto libre (razón social, descripciones) para los
// campos del comprobante: quita diacríticos, colapsa espacios y recorta.
// El SRI rechaza comprobantes con caracteres de control en campos de texto.
func NormalizarTexto(s string) string {
	limpio, _, err := transform.String(quitarDiacriticos, s)
	if err != nil {
		limpio = s
	}
	var sb strings.Builder
	sb.Grow(len(limpio))
	espacio := false
	for _, r := range limpio {
		switch {
		case unicode.IsSpace(r):
			espacio = true
			continue
		case unicode.IsControl(r):
			continue
		default:
			if espacio && sb.Len() > 0 {
				sb.WriteByte(' ')
			}
			espacio = false
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// TruncarTexto corta s a max runas sin partir la última palabra a la mitad
// cuando es posible. Los esquemas XML del SRI fijan longitudes máximas por
// campo (300 para razón social, 25 para descripciones cortas).
func TruncarTexto(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runas := []rune(s)
	if len(runas) <= max {
		return s
	}
	corte := string(runas[:max])
	if i := strings.LastIndexByte(corte, ' '); i > max/2 {
		return corte[:i]
	}
	return corte
}
