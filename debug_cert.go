package main

import (
	"fmt"
	"os"
	"time"

	"github.com/kipu-ec/kipu-api/internal/infrastructure/firma"
)

func main() {
	// 1. Datos copiados EXACTAMENTE de tu .env
	// OJO: Asegúrate de que esta ruta sea 100% real. Copia y pega de tu .env
	certPath := "certificado_prueba.p12"
	certPass := "123456"

	if len(os.Args) > 1 {
		certPath = os.Args[1]
	}
	if len(os.Args) > 2 {
		certPass = os.Args[2]
	}

	fmt.Println("🔍 DIAGNÓSTICO DE CERTIFICADO DE FIRMA (SRI)")
	fmt.Println("--------------------------------------------")
	fmt.Printf("📂 Intentando leer: %s\n", certPath)

	// 2. Intentar leer el archivo (File System Check)
	p12Data, err := os.ReadFile(certPath)
	if err != nil {
		fmt.Println("\n❌ ERROR DE ARCHIVO:")
		fmt.Printf("   Go no puede encontrar o abrir el archivo.\n")
		fmt.Printf("   Detalle técnico: %v\n", err)
		return
	}
	fmt.Printf("✅ Archivo encontrado. Tamaño: %d bytes\n", len(p12Data))

	// 3. Abrir el contenedor y seleccionar el certificado de firma.
	// Los P12 del Banco Central traen dos pares de llaves; CargarCredencial
	// recorre el contenedor y elige el de firma, igual que /emitter/upload-p12.
	fmt.Println("\n🔐 Intentando abrir el PKCS#12 con la contraseña...")
	cred, err := firma.CargarCredencial(p12Data, certPass)
	if err != nil {
		fmt.Println("\n❌ ERROR DE CONTRASEÑA O FORMATO:")
		fmt.Printf("   El archivo existe, pero la contraseña '%s' falló o el contenedor no trae un par de firma.\n", certPass)
		fmt.Printf("   Detalle técnico: %v\n", err)
		return
	}

	fmt.Println("\n✨ ¡ÉXITO! El certificado y la contraseña son correctos.")
	fmt.Printf("   Titular : %s\n", cred.Cert.Subject.CommonName)
	fmt.Printf("   RUC     : %s\n", cred.RUC)
	fmt.Printf("   Expira  : %s\n", cred.Expira.Format("2006-01-02"))
	if !cred.Vigente(time.Now()) {
		fmt.Println("\n⚠️  OJO: el certificado YA EXPIRÓ; el SRI rechazará la firma.")
	}
}
