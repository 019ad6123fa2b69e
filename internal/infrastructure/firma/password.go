package firma

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Cifrador protege contraseñas de certificados en reposo con AES-256-CBC.
// La llave es el SHA-256 de la clave maestra de configuración.
type Cifrador struct {
	llave [32]byte
}

func NewCifrador(claveMaestra string) *Cifrador {
	return &Cifrador{llave: sha256.Sum256([]byte(claveMaestra))}
}

// Cifrar devuelve el material como "iv_hex:cifrado_hex" con relleno PKCS#7.
func (c *Cifrador) Cifrar(textoPlano string) (string, error) {
	block, err := aes.NewCipher(c.llave[:])
	if err != nil {
		return "", err
	}
	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("no se pudo generar el IV: %w", err)
	}
	plano := rellenarPKCS7([]byte(textoPlano), aes.BlockSize)
	cifrado := make([]byte, len(plano))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(cifrado, plano)
	return hex.EncodeToString(iv) + ":" + hex.EncodeToString(cifrado), nil
}

// Descifrar es estricto: material malformado o un relleno inválido devuelven
// error en vez de degradar a tratar el texto almacenado como contraseña en
// claro.
func (c *Cifrador) Descifrar(material string) (string, error) {
	ivHex, cifradoHex, ok := strings.Cut(material, ":")
	if !ok {
		return "", fmt.Errorf("material cifrado malformado: falta el separador")
	}
	iv, err := hex.DecodeString(ivHex)
	if err != nil || len(iv) != aes.BlockSize {
		return "", fmt.Errorf("material cifrado malformado: IV inválido")
	}
	cifrado, err := hex.DecodeString(cifradoHex)
	if err != nil || len(cifrado) == 0 || len(cifrado)%aes.BlockSize != 0 {
		return "", fmt.Errorf("material cifrado malformado: cuerpo inválido")
	}

	block, err := aes.NewCipher(c.llave[:])
	if err != nil {
		return "", err
	}
	plano := make([]byte, len(cifrado))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plano, cifrado)

	plano, err = quitarPKCS7(plano, aes.BlockSize)
	if err != nil {
		return "", err
	}
	return string(plano), nil
}

func rellenarPKCS7(datos []byte, tamBloque int) []byte {
	n := tamBloque - len(datos)%tamBloque
	return append(datos, bytes.Repeat([]byte{byte(n)}, n)...)
}

func quitarPKCS7(datos []byte, tamBloque int) ([]byte, error) {
	if len(datos) == 0 || len(datos)%tamBloque != 0 {
		return nil, fmt.Errorf("relleno PKCS#7 inválido")
	}
	n := int(datos[len(datos)-1])
	if n == 0 || n > tamBloque || n > len(datos) {
		return nil, fmt.Errorf("relleno PKCS#7 inválido")
	}
	for _, b := range datos[len(datos)-n:] {
		if int(b) != n {
			return nil, fmt.Errorf("relleno PKCS#7 inválido")
		}
	}
	return datos[:len(datos)-n], nil
}
