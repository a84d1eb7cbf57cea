package etims

import (
	"fmt"
	"strings"
	"time"
)

// Formatos de fecha/hora del API eTims.
const (
	// TimestampLayout formato completo yyyyMMddHHmmss (cfmDt, stockRlsDt, resultDt...).
	TimestampLayout = "20060102150405"
	// DateLayout formato de fecha yyyyMMdd (salesDt).
	DateLayout = "20060102"
)

// FormatTimestamp renderiza t como yyyyMMddHHmmss.
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// FormatDate renderiza t como yyyyMMdd.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseTimestamp interpreta un yyyyMMddHHmmss reportado por el API
// (ej: resultDt de la respuesta). Retorna error si el formato no coincide.
func ParseTimestamp(s string) (time.Time, error) {
	t, err := time.ParseInLocation(TimestampLayout, strings.TrimSpace(s), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("etims: timestamp %q no cumple yyyyMMddHHmmss: %w", s, err)
	}
	return t, nil
}

// CombinePostingDateTime une la fecha contable (YYYY-MM-DD) con la hora
// contable y trunca a segundos enteros. La hora puede venir como "HH:MM:SS",
// con fracción ("HH:MM:SS.123456") o como duración serializada; se toman los
// primeros 8 caracteres sin puntos, igual que hacía el sistema origen.
func CombinePostingDateTime(postingDate, postingTime string) (time.Time, error) {
	clock := postingTime
	if len(clock) > 8 {
		clock = clock[:8]
	}
	clock = strings.ReplaceAll(clock, ".", "")
	// duraciones serializadas traen hora de un dígito ("8:30:00")
	if idx := strings.Index(clock, ":"); idx == 1 {
		clock = "0" + clock
	}
	t, err := time.ParseInLocation("2006-01-02 15:04:05", postingDate+" "+clock, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("etims: fecha/hora contable %q %q inválida: %w", postingDate, postingTime, err)
	}
	return t, nil
}
