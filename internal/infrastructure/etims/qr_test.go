package etims

import (
	"bytes"
	"encoding/base64"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQRCodeGenerator_DataURIPrefix(t *testing.T) {
	g := NewQRCodeGenerator()

	out, err := g.Generate("https://etims-sbx.kra.go.ke/common/link/etims/receipt/indexEtimsReceiptData?Data=P051234567A00abc123")
	require.NoError(t, err)

	// Prefijo exacto, sin espacio después de la coma.
	assert.True(t, strings.HasPrefix(out, "data:image/png;base64,"))
	assert.NotContains(t, out, "base64, ")
}

func TestQRCodeGenerator_ProducesDecodablePNG(t *testing.T) {
	g := NewQRCodeGenerator()

	out, err := g.Generate("P051234567A00rcptSign")
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(out, "data:image/png;base64,"))
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, 256, img.Bounds().Dx())
	assert.Equal(t, 256, img.Bounds().Dy())
}

func TestQRCodeGenerator_Deterministic(t *testing.T) {
	g := NewQRCodeGenerator()

	a, err := g.Generate("same-content")
	require.NoError(t, err)
	b, err := g.Generate("same-content")
	require.NoError(t, err)

	assert.Equal(t, a, b)
}
