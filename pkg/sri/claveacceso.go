// Package sri contiene catálogos, validaciones y utilidades alineados a la
// Ficha Técnica de Comprobantes Electrónicos del SRI (Ecuador), esquema
// factura v1.1.0 y modalidad de emisión offline.
package sri

import (
	"fmt"
	"strings"
	"time"
)

// Longitudes fijas de los campos que componen la clave de acceso (48 dígitos
// base + 1 dígito verificador módulo 11).
const (
	lenFecha      = 8  // ddmmaaaa
	lenCodDoc     = 2  // tabla 3 (01 = factura)
	lenRUC        = 13 // RUC del emisor
	lenAmbiente   = 1  // 1 = pruebas, 2 = producción
	lenSerie      = 6  // estab (3) + ptoEmi (3)
	lenSecuencial = 9
	lenCodigoNum  = 8 // código numérico de seguridad
	lenTipoEmi    = 1 // 1 = emisión normal

	// LongitudClaveAcceso es la longitud total de una clave de acceso válida.
	LongitudClaveAcceso = 49
)

// ClaveAccesoInput agrupa los componentes de la clave de acceso. Todos los
// campos se limpian a dígitos y se rellenan a su ancho fijo; un componente
// que exceda su ancho produce error.
type ClaveAccesoInput struct {
	FechaEmision   time.Time
	CodDoc         string // "01" factura
	RUC            string
	Ambiente       string // "1" | "2"
	Serie          string // estab+ptoEmi, 6 dígitos
	Secuencial     string // 9 dígitos
	CodigoNumerico string // 8 dígitos
	TipoEmision    string // "1"
}

// GenerarClaveAcceso construye la clave de acceso de 49 dígitos: concatena los
// componentes limpios y rellenados (48 dígitos) y añade el dígito verificador
// módulo 11. Cualquier desviación de formato es error duro.
func GenerarClaveAcceso(in ClaveAccesoInput) (string, error) {
	fecha := in.FechaEmision.Format("02012006")

	campos := []struct {
		nombre string
		valor  string
		ancho  int
	}{
		{"fecha", fecha, lenFecha},
		{"codDoc", in.CodDoc, lenCodDoc},
		{"ruc", in.RUC, lenRUC},
		{"ambiente", in.Ambiente, lenAmbiente},
		{"serie", in.Serie, lenSerie},
		{"secuencial", in.Secuencial, lenSecuencial},
		{"codigoNumerico", in.CodigoNumerico, lenCodigoNum},
		{"tipoEmision", in.TipoEmision, lenTipoEmi},
	}

	var sb strings.Builder
	sb.Grow(LongitudClaveAcceso)
	for _, c := range campos {
		limpio := SoloDigitos(c.valor)
		if len(limpio) > c.ancho {
			return "", fmt.Errorf("sri: campo %s excede %d dígitos: %q", c.nombre, c.ancho, c.valor)
		}
		sb.WriteString(strings.Repeat("0", c.ancho-len(limpio)))
		sb.WriteString(limpio)
	}

	base := sb.String()
	if len(base) != LongitudClaveAcceso-1 {
		return "", fmt.Errorf("sri: base de clave de acceso con %d dígitos, se esperaban %d", len(base), LongitudClaveAcceso-1)
	}

	dv := DigitoModulo11(base)
	clave := base + string(rune('0'+dv))
	if len(clave) != LongitudClaveAcceso {
		return "", fmt.Errorf("sri: clave de acceso con %d dígitos", len(clave))
	}
	return clave, nil
}

// DigitoModulo11 calcula el dígito verificador módulo 11 del SRI sobre una
// cadena de dígitos: los pesos 2..7 se aplican en ciclo de derecha a
// izquierda; v = 11 - (suma mod 11); 11 se mapea a 0 y 10 a 1.
func DigitoModulo11(digitos string) int {
	peso := 2
	suma := 0
	for i := len(digitos) - 1; i >= 0; i-- {
		suma += int(digitos[i]-'0') * peso
		peso++
		if peso > 7 {
			peso = 2
		}
	}
	v := 11 - (suma % 11)
	switch v {
	case 11:
		return 0
	case 10:
		return 1
	default:
		return v
	}
}

// ValidarClaveAcceso verifica longitud, que todos los caracteres sean dígitos
// y que el dígito 49 sea el módulo 11 de los primeros 48.
func ValidarClaveAcceso(clave string) error {
	if len(clave) != LongitudClaveAcceso {
		return fmt.Errorf("sri: clave de acceso debe tener %d dígitos, tiene %d", LongitudClaveAcceso, len(clave))
	}
	for i := 0; i < len(clave); i++ {
		if clave[i] < '0' || clave[i] > '9' {
			return fmt.Errorf("sri: clave de acceso contiene un carácter no numérico en la posición %d", i)
		}
	}
	esperado := DigitoModulo11(clave[:LongitudClaveAcceso-1])
	if int(clave[LongitudClaveAcceso-1]-'0') != esperado {
		return fmt.Errorf("sri: dígito verificador inválido: esperado %d, recibido %c", esperado, clave[LongitudClaveAcceso-1])
	}
	return nil
}

// SoloDigitos elimina todo carácter que no sea dígito ASCII.
func SoloDigitos(s string) string {
	var out []byte
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			out = append(out, s[i])
		}
	}
	return string(out)
}
