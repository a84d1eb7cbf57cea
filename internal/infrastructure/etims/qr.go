package etims

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/png"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
	app "github.com/tu-usuario/etims-bridge/internal/application/etims"
)

// qrSizePx lado del PNG generado, en píxeles.
const qrSizePx = 256

var _ app.QRGenerator = (*QRCodeGenerator)(nil)

// QRCodeGenerator codifica strings como QR PNG embebido en un data URI.
// Es determinista: el mismo input produce el mismo output.
type QRCodeGenerator struct{}

// NewQRCodeGenerator construye el generador.
func NewQRCodeGenerator() *QRCodeGenerator {
	return &QRCodeGenerator{}
}

// Generate devuelve "data:image/png;base64,<png>" para el contenido dado.
// No valida el contenido; codifica lo que recibe.
func (g *QRCodeGenerator) Generate(data string) (string, error) {
	code, err := qr.Encode(data, qr.M, qr.Auto)
	if err != nil {
		return "", fmt.Errorf("qr: codificar contenido: %w", err)
	}
	code, err = barcode.Scale(code, qrSizePx, qrSizePx)
	if err != nil {
		return "", fmt.Errorf("qr: escalar imagen: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, code); err != nil {
		return "", fmt.Errorf("qr: serializar PNG: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
