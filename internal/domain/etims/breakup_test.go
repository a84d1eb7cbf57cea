package etims

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tu-usuario/etims-bridge/internal/domain"
	"github.com/tu-usuario/etims-bridge/internal/domain/entity"
)

func item(name string, qty, taxableTotal float64, breakup map[string]float64) *entity.SalesInvoiceItem {
	bu := make(map[string]decimal.Decimal, len(breakup))
	for k, v := range breakup {
		bu[k] = decimal.NewFromFloat(v)
	}
	return &entity.SalesInvoiceItem{
		Name:         name,
		Quantity:     decimal.NewFromFloat(qty),
		TaxableTotal: decimal.NewFromFloat(taxableTotal),
		TaxBreakup:   bu,
	}
}

func TestAggregateLineTaxes_ProrrateaPorUnidad(t *testing.T) {
	items := []*entity.SalesInvoiceItem{
		item("Widget", 2, 200, map[string]float64{"VAT": 32}),
	}

	out, err := AggregateLineTaxes(items)
	require.NoError(t, err)
	require.Len(t, out, 1)

	assert.Equal(t, 1, out[0].Seq)
	assert.True(t, out[0].TaxableAmount.Equal(decimal.NewFromInt(100)), "gravable por unidad: %s", out[0].TaxableAmount)
	assert.True(t, out[0].TaxAmount.Equal(decimal.NewFromInt(16)), "VAT por unidad: %s", out[0].TaxAmount)
}

// División que no cae exacta: redondeo a 2 decimales, mitad hacia arriba.
func TestAggregateLineTaxes_Redondeo(t *testing.T) {
	items := []*entity.SalesInvoiceItem{
		item("Widget", 2, 100.004, map[string]float64{"VAT": 0.005}),
	}

	out, err := AggregateLineTaxes(items)
	require.NoError(t, err)

	assert.Equal(t, "50", out[0].TaxableAmount.String())
	assert.Equal(t, "0", out[0].TaxAmount.String())

	items = []*entity.SalesInvoiceItem{
		item("Widget", 3, 100, map[string]float64{"VAT": 16}),
	}
	out, err = AggregateLineTaxes(items)
	require.NoError(t, err)
	assert.Equal(t, "33.33", out[0].TaxableAmount.String())
	assert.Equal(t, "5.33", out[0].TaxAmount.String())
}

// El orden de salida es el orden de entrada, con Seq 1-based.
func TestAggregateLineTaxes_OrdenYSeq(t *testing.T) {
	items := []*entity.SalesInvoiceItem{
		item("B-segundo-en-alfabeto", 1, 10, map[string]float64{"VAT": 1.6}),
		item("A-primero-en-alfabeto", 1, 20, map[string]float64{"VAT": 3.2}),
	}

	out, err := AggregateLineTaxes(items)
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Equal(t, 1, out[0].Seq)
	assert.True(t, out[0].TaxableAmount.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, 2, out[1].Seq)
	assert.True(t, out[1].TaxableAmount.Equal(decimal.NewFromInt(20)))
}

// Cantidades negativas (notas crédito) se prorratean sobre el valor absoluto.
func TestAggregateLineTaxes_CantidadNegativa(t *testing.T) {
	items := []*entity.SalesInvoiceItem{
		item("Devolución", -2, -200, map[string]float64{"VAT": -32}),
	}

	out, err := AggregateLineTaxes(items)
	require.NoError(t, err)
	assert.Equal(t, "-100", out[0].TaxableAmount.String())
	assert.Equal(t, "-16", out[0].TaxAmount.String())
}

func TestAggregateLineTaxes_CantidadCero(t *testing.T) {
	items := []*entity.SalesInvoiceItem{
		item("Sin cantidad", 0, 100, map[string]float64{"VAT": 16}),
	}

	_, err := AggregateLineTaxes(items)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "Sin cantidad")
}

func TestAggregateLineTaxes_EtiquetaDesconocidaPropagaLinea(t *testing.T) {
	items := []*entity.SalesInvoiceItem{
		item("OK", 1, 10, map[string]float64{"VAT": 1.6}),
		item("Rota", 1, 10, map[string]float64{"Sales Tax": 1.6}),
	}

	_, err := AggregateLineTaxes(items)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnknownTaxCategory)
	assert.Contains(t, err.Error(), "línea 2")
}
