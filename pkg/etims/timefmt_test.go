package etims

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatTimestampYDate(t *testing.T) {
	at := time.Date(2024, 3, 15, 14, 30, 5, 999_000_000, time.Local)

	// Los nanosegundos se truncan, nunca se redondean hacia arriba.
	assert.Equal(t, "20240315143005", FormatTimestamp(at))
	assert.Equal(t, "20240315", FormatDate(at))
}

func TestParseTimestamp(t *testing.T) {
	at, err := ParseTimestamp("20240315143005")
	require.NoError(t, err)
	assert.Equal(t, 2024, at.Year())
	assert.Equal(t, time.March, at.Month())
	assert.Equal(t, 14, at.Hour())
	assert.Equal(t, 5, at.Second())

	_, err = ParseTimestamp("2024-03-15 14:30:05")
	assert.Error(t, err, "formato con separadores debe rechazarse")

	_, err = ParseTimestamp("")
	assert.Error(t, err)
}

func TestCombinePostingDateTime(t *testing.T) {
	casos := []struct {
		nombre   string
		fecha    string
		hora     string
		esperado string
	}{
		{"hora completa", "2024-03-15", "14:30:05", "20240315143005"},
		{"con fracción de segundos", "2024-03-15", "14:30:05.123456", "20240315143005"},
		{"hora de un dígito", "2024-03-15", "8:30:00", "20240315083000"},
		{"hora de un dígito con fracción", "2024-03-15", "8:30:00.500000", "20240315083000"},
	}
	for _, c := range casos {
		t.Run(c.nombre, func(t *testing.T) {
			at, err := CombinePostingDateTime(c.fecha, c.hora)
			require.NoError(t, err)
			assert.Equal(t, c.esperado, FormatTimestamp(at))
		})
	}
}

func TestCombinePostingDateTime_Invalida(t *testing.T) {
	_, err := CombinePostingDateTime("15/03/2024", "14:30:05")
	assert.Error(t, err)

	_, err = CombinePostingDateTime("2024-03-15", "no-es-hora")
	assert.Error(t, err)
}
