// Package etims contiene la lógica de dominio de la integración fiscal:
// resolución de categorías de impuesto, agregación del desglose por línea y
// construcción del payload de envío con el esquema de bandas A–E de la KRA.
package etims

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/etims-bridge/internal/domain"
)

// Bandas de impuesto de la KRA y sus tasas nominales fijas.
// Solo B (16%) y E (8%) llevan tasa distinta de cero en el payload, y
// únicamente cuando la factura trae impuesto en esa banda.
const (
	TaxBandA = "A" // exento
	TaxBandB = "B" // tasa estándar 16%
	TaxBandC = "C" // tasa cero
	TaxBandD = "D" // no VAT
	TaxBandE = "E" // tasa reducida 8%

	TaxRateBandB = 16
	TaxRateBandE = 8
)

// recognizedVATLabels es el conjunto cerrado de etiquetas con las que el
// módulo contable upstream nombra el bucket de VAT en el desglose por línea.
// El upstream no es consistente ("VAT" a secas o con la tasa adjunta), de ahí
// las variantes; cualquier otra etiqueta es un fallo nombrado, no un fallback
// silencioso.
var recognizedVATLabels = []string{
	"VAT",
	"VAT @ 16.0",
	"VAT @ 16",
}

// ResolveVATAmount busca el monto de VAT en el desglose de una línea probando
// las etiquetas reconocidas en orden. Si ninguna está presente retorna
// domain.ErrUnknownTaxCategory indicando las etiquetas encontradas, para que
// el defecto de nomenclatura upstream sea diagnosticable.
func ResolveVATAmount(breakup map[string]decimal.Decimal) (decimal.Decimal, error) {
	for _, label := range recognizedVATLabels {
		if amount, ok := breakup[label]; ok {
			return amount, nil
		}
	}

	found := make([]string, 0, len(breakup))
	for label := range breakup {
		found = append(found, label)
	}
	sort.Strings(found)
	return decimal.Zero, fmt.Errorf("%w: etiquetas presentes %v, reconocidas %v",
		domain.ErrUnknownTaxCategory, found, recognizedVATLabels)
}
