package etims

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/etims-bridge/internal/domain"
	"github.com/tu-usuario/etims-bridge/internal/domain/entity"
)

// LineBreakdown es el desglose fiscal de una línea, ya prorrateado por unidad.
// El índice i del slice resultante corresponde a la línea i de la factura;
// Seq es la posición 1-based que viaja como itemSeq.
type LineBreakdown struct {
	Seq           int
	TaxableAmount decimal.Decimal // gravable por unidad, redondeado a 2 decimales
	TaxAmount     decimal.Decimal // VAT por unidad, redondeado a 2 decimales
}

// AggregateLineTaxes calcula el desglose por unidad de cada línea:
// gravable = total gravable de la línea / cantidad; impuesto = bucket VAT
// resuelto / cantidad; ambos redondeados a 2 decimales. El orden de salida
// es el orden de entrada.
func AggregateLineTaxes(items []*entity.SalesInvoiceItem) ([]LineBreakdown, error) {
	breakdowns := make([]LineBreakdown, 0, len(items))

	for i, item := range items {
		qty := item.Quantity.Abs()
		if qty.IsZero() {
			return nil, fmt.Errorf("%w: línea %d (%s) con cantidad cero", domain.ErrInvalidInput, i+1, item.Name)
		}

		vatAmount, err := ResolveVATAmount(item.TaxBreakup)
		if err != nil {
			return nil, fmt.Errorf("línea %d (%s): %w", i+1, item.Name, err)
		}

		breakdowns = append(breakdowns, LineBreakdown{
			Seq:           i + 1,
			TaxableAmount: item.TaxableTotal.Div(qty).Round(2),
			TaxAmount:     vatAmount.Div(qty).Round(2),
		})
	}

	return breakdowns, nil
}
