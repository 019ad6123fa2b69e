package sri

import (
	"fmt"
	"strconv"
)

// Validación de cédulas y RUC ecuatorianos según el algoritmo del Registro
// Civil (módulo 10 para personas naturales) y del SRI (módulo 11 para
// sociedades privadas y públicas).

// ValidarCedula valida una cédula de identidad de 10 dígitos: provincia
// 01-24 o 30, tercer dígito menor a 6 y dígito verificador módulo 10.
func ValidarCedula(cedula string) error {
	if len(cedula) != 10 {
		return fmt.Errorf("sri: cédula debe tener 10 dígitos, tiene %d", len(cedula))
	}
	if SoloDigitos(cedula) != cedula {
		return fmt.Errorf("sri: cédula contiene caracteres no numéricos")
	}
	if err := validarProvincia(cedula[:2]); err != nil {
		return err
	}
	if cedula[2]-'0' > 5 {
		return fmt.Errorf("sri: tercer dígito de cédula inválido: %c", cedula[2])
	}
	if dv := digitoModulo10(cedula[:9]); dv != int(cedula[9]-'0') {
		return fmt.Errorf("sri: dígito verificador de cédula inválido: esperado %d", dv)
	}
	return nil
}

// ValidarRUC valida un RUC de 13 dígitos en sus tres variantes: persona
// natural (tercer dígito 0-5, sufijo 001), sociedad privada (tercer dígito 9,
// módulo 11, sufijo 001) y entidad pública (tercer dígito 6, módulo 11,
// sufijo 0001).
func ValidarRUC(ruc string) error {
	if len(ruc) != 13 {
		return fmt.Errorf("sri: RUC debe tener 13 dígitos, tiene %d", len(ruc))
	}
	if SoloDigitos(ruc) != ruc {
		return fmt.Errorf("sri: RUC contiene caracteres no numéricos")
	}
	if err := validarProvincia(ruc[:2]); err != nil {
		return err
	}

	switch tercero := ruc[2] - '0'; {
	case tercero <= 5: // persona natural
		if ruc[10:] != "001" {
			return fmt.Errorf("sri: RUC de persona natural debe terminar en 001")
		}
		if dv := digitoModulo10(ruc[:9]); dv != int(ruc[9]-'0') {
			return fmt.Errorf("sri: dígito verificador de RUC inválido: esperado %d", dv)
		}
	case tercero == 9: // sociedad privada
		if ruc[10:] != "001" {
			return fmt.Errorf("sri: RUC de sociedad privada debe terminar en 001")
		}
		coef := []int{4, 3, 2, 7, 6, 5, 4, 3, 2}
		if dv := digitoModulo11Coef(ruc[:9], coef); dv != int(ruc[9]-'0') {
			return fmt.Errorf("sri: dígito verificador de RUC inválido: esperado %d", dv)
		}
	case tercero == 6: // entidad pública
		if ruc[9:] != "0001" {
			return fmt.Errorf("sri: RUC de entidad pública debe terminar en 0001")
		}
		coef := []int{3, 2, 7, 6, 5, 4, 3, 2}
		if dv := digitoModulo11Coef(ruc[:8], coef); dv != int(ruc[8]-'0') {
			return fmt.Errorf("sri: dígito verificador de RUC inválido: esperado %d", dv)
		}
	default:
		return fmt.Errorf("sri: tercer dígito de RUC inválido: %c", ruc[2])
	}
	return nil
}

func validarProvincia(cc string) error {
	p, err := strconv.Atoi(cc)
	if err != nil {
		return fmt.Errorf("sri: código de provincia inválido: %q", cc)
	}
	if (p < 1 || p > 24) && p != 30 {
		return fmt.Errorf("sri: código de provincia fuera de rango: %02d", p)
	}
	return nil
}

// digitoModulo10 aplica coeficientes 2,1,2,1,... sobre los 9 primeros
// dígitos; los productos mayores a 9 restan 9.
func digitoModulo10(digitos string) int {
	suma := 0
	for i := 0; i < len(digitos); i++ {
		d := int(digitos[i] - '0')
		if i%2 == 0 {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		suma += d
	}
	resto := suma % 10
	if resto == 0 {
		return 0
	}
	return 10 - resto
}

// digitoModulo11Coef aplica coeficientes fijos posición a posición. 11 se
// mapea a 0; un residuo 10 no tiene dígito verificador posible y devuelve -1.
func digitoModulo11Coef(digitos string, coef []int) int {
	suma := 0
	for i := 0; i < len(digitos); i++ {
		suma += int(digitos[i]-'0') * coef[i]
	}
	switch v := 11 - (suma % 11); v {
	case 11:
		return 0
	case 10:
		return -1
	default:
		return v
	}
}
