// Package etims contiene helpers de formato y validación para la integración
// eTims (KRA, Kenia): PIN del contribuyente, URLs del servidor y rutas, y los
// formatos de fecha/hora que exige el API (yyyyMMddHHmmss / yyyyMMdd).
package etims

import (
	"regexp"
	"strings"
)

var (
	// kraPINPattern: una letra, nueve dígitos, una letra (ej: "P051234567K").
	// Valida solo la forma del PIN, no su existencia ante la KRA.
	kraPINPattern = regexp.MustCompile(`^[a-zA-Z][0-9]{9}[a-zA-Z]$`)

	// urlPattern: esquema http/https/ftp seguido de host sin espacios.
	urlPattern = regexp.MustCompile(`^(https?|ftp)://[^\s/$.?#].[^\s]*$`)
)

// IsValidKRAPIN indica si pin tiene la forma de un PIN de la KRA.
func IsValidKRAPIN(pin string) bool {
	return kraPINPattern.MatchString(pin)
}

// IsValidURL indica si url está bien formada (http, https o ftp).
func IsValidURL(url string) bool {
	return urlPattern.MatchString(url)
}

// NormalizePath garantiza exactamente un slash inicial en una ruta del API.
// Es idempotente: normalizar una ruta ya normalizada no la cambia.
func NormalizePath(path string) string {
	return "/" + strings.TrimLeft(path, "/")
}
