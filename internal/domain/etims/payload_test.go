package etims

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tu-usuario/etims-bridge/internal/domain"
	"github.com/tu-usuario/etims-bridge/internal/domain/entity"
)

// Factura de referencia: una línea de 2 unidades a 100 en banda B (16%).
func ventaDeReferencia() (*entity.SalesInvoice, []*entity.SalesInvoiceItem) {
	inv := &entity.SalesInvoice{
		ID:                      "inv-1",
		Company:                 "Acme Distributors Ltd",
		BranchID:                "00",
		Name:                    "ACC-SINV-2024-00042",
		CustomerName:            "Jane Wanjiku",
		CustomerPIN:             "A012345678Z",
		PostingDate:             "2024-03-15",
		PostingTime:             "14:30:05",
		PaymentTypeCode:         "01",
		TransactionProgressCode: "02",
		BaseNetTotal:            decimal.NewFromInt(200),
		TotalTaxesAndCharges:    decimal.NewFromInt(32),
		TaxableAmountB:          decimal.NewFromInt(200),
		TaxAmountB:              decimal.NewFromInt(32),
		Owner:                   "operador@acme.co.ke",
		ModifiedBy:              "operador@acme.co.ke",
	}
	items := []*entity.SalesInvoiceItem{
		{
			ItemCode:        "KE1NTXU0000001",
			Classification:  "99010000",
			Name:            "Widget industrial",
			PackagingUnitCd: "NT",
			QuantityUnitCd:  "U",
			Quantity:        decimal.NewFromInt(2),
			BaseRate:        decimal.NewFromInt(100),
			TaxationTypeCd:  TaxBandB,
			TaxableTotal:    decimal.NewFromInt(200),
			TaxBreakup:      map[string]decimal.Decimal{"VAT": decimal.NewFromInt(32)},
		},
	}
	return inv, items
}

func TestBuildInvoicePayload_Venta(t *testing.T) {
	inv, items := ventaDeReferencia()

	p, err := BuildInvoicePayload(BuildInput{
		Invoice:     inv,
		Items:       items,
		InvoiceType: entity.InvoiceTypeSales,
		InvoiceNo:   7,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(7), p.InvoiceNo)
	assert.Equal(t, int64(0), p.OrgInvoiceNo)
	assert.Equal(t, "ACC-SINV-2024-00042", p.TraderInvoiceNo)
	assert.Equal(t, ReceiptTypeSale, p.ReceiptTypeCd)
	assert.Equal(t, "01", p.PaymentTypeCd)
	assert.Equal(t, "02", p.SalesStatusCd)

	// Timestamps contables: fecha+hora truncada a segundos y fecha sola.
	assert.Equal(t, "20240315143005", p.ConfirmDate)
	assert.Equal(t, "20240315", p.SalesDate)
	assert.Equal(t, p.ConfirmDate, p.StockReleaseDate)
	assert.Equal(t, p.ConfirmDate, p.Receipt.PublishDate)

	// Bandas: solo B lleva tasa porque solo B trae impuesto.
	assert.True(t, p.TaxableAmtB.Equal(decimal.NewFromInt(200)))
	assert.True(t, p.TaxAmtB.Equal(decimal.NewFromInt(32)))
	assert.Equal(t, int64(16), p.TaxRateB)
	assert.Equal(t, int64(0), p.TaxRateA)
	assert.Equal(t, int64(0), p.TaxRateE)

	assert.True(t, p.TotalTaxableAmt.Equal(decimal.NewFromInt(200)))
	assert.True(t, p.TotalTaxAmt.Equal(decimal.NewFromInt(32)))
	assert.True(t, p.TotalAmt.Equal(decimal.NewFromInt(200)))
	assert.Equal(t, 1, p.TotalItemCount)
	assert.Equal(t, "N", p.PurchaseAcceptYN)

	// Bloque receipt.
	assert.Equal(t, 1, p.Receipt.ReceiptNo)
	assert.Equal(t, "etims-bridge", p.Receipt.TopMessage)
	assert.Equal(t, "Welcome", p.Receipt.BottomMessage)
	require.NotNil(t, p.Receipt.CustomerTIN)
	assert.Equal(t, "A012345678Z", *p.Receipt.CustomerTIN)

	// Línea: por unidad, totAmt espejo del gravable.
	require.Len(t, p.ItemList, 1)
	it := p.ItemList[0]
	assert.Equal(t, 1, it.ItemSeq)
	assert.Equal(t, 1, it.Package)
	assert.True(t, it.Quantity.Equal(decimal.NewFromInt(2)))
	assert.True(t, it.Price.Equal(decimal.NewFromInt(100)))
	assert.True(t, it.SupplyAmount.Equal(decimal.NewFromInt(100)))
	assert.True(t, it.TaxableAmount.Equal(decimal.NewFromInt(100)))
	assert.True(t, it.TaxAmount.Equal(decimal.NewFromInt(16)))
	assert.True(t, it.TotalAmount.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, TaxBandB, it.TaxTypeCd)
}

func TestBuildInvoicePayload_NotaCredito(t *testing.T) {
	inv, items := ventaDeReferencia()
	// Internamente la devolución es negativa.
	inv.BaseNetTotal = decimal.NewFromInt(-200)
	inv.TotalTaxesAndCharges = decimal.NewFromInt(-32)
	inv.TaxableAmountB = decimal.NewFromInt(-200)
	inv.TaxAmountB = decimal.NewFromInt(-32)
	inv.ReturnAgainst = "inv-original"
	items[0].Quantity = decimal.NewFromInt(-2)
	items[0].TaxableTotal = decimal.NewFromInt(-200)
	items[0].TaxBreakup = map[string]decimal.Decimal{"VAT": decimal.NewFromInt(-32)}

	p, err := BuildInvoicePayload(BuildInput{
		Invoice:      inv,
		Items:        items,
		InvoiceType:  entity.InvoiceTypeCreditNote,
		InvoiceNo:    8,
		OrgInvoiceNo: 42,
	})
	require.NoError(t, err)

	assert.Equal(t, ReceiptTypeRefund, p.ReceiptTypeCd)
	assert.Equal(t, int64(42), p.OrgInvoiceNo)

	// La KRA espera magnitudes: todos los totales en valor absoluto.
	assert.True(t, p.TotalTaxableAmt.Equal(decimal.NewFromInt(200)))
	assert.True(t, p.TotalTaxAmt.Equal(decimal.NewFromInt(32)))
	assert.True(t, p.TaxableAmtB.Equal(decimal.NewFromInt(200)))
	assert.True(t, p.TaxAmtB.Equal(decimal.NewFromInt(32)))
	assert.Equal(t, int64(16), p.TaxRateB)
	assert.True(t, p.ItemList[0].Quantity.Equal(decimal.NewFromInt(2)))
}

func TestBuildInvoicePayload_SinNumeroAsignado(t *testing.T) {
	inv, items := ventaDeReferencia()

	_, err := BuildInvoicePayload(BuildInput{
		Invoice:     inv,
		Items:       items,
		InvoiceType: entity.InvoiceTypeSales,
		InvoiceNo:   0,
	})
	assert.ErrorIs(t, err, domain.ErrSequenceUnavailable)
}

func TestBuildInvoicePayload_TipoInvalido(t *testing.T) {
	inv, items := ventaDeReferencia()

	_, err := BuildInvoicePayload(BuildInput{
		Invoice:     inv,
		Items:       items,
		InvoiceType: "X",
		InvoiceNo:   1,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// El JSON serializado usa los nombres de campo del API y null para los
// opcionales ausentes.
func TestBuildInvoicePayload_NombresJSON(t *testing.T) {
	inv, items := ventaDeReferencia()
	inv.CustomerPIN = "" // sin PIN: custTin viaja como null

	p, err := BuildInvoicePayload(BuildInput{
		Invoice:     inv,
		Items:       items,
		InvoiceType: entity.InvoiceTypeSales,
		InvoiceNo:   7,
	})
	require.NoError(t, err)

	raw, err := json.Marshal(p)
	require.NoError(t, err)
	body := string(raw)

	assert.Contains(t, body, `"invcNo":7`)
	assert.Contains(t, body, `"orgInvcNo":0`)
	assert.Contains(t, body, `"custTin":null`)
	assert.Contains(t, body, `"rcptTyCd":"S"`)
	assert.Contains(t, body, `"taxRtB":16`)
	assert.Contains(t, body, `"itemSeq":1`)
	assert.Contains(t, body, `"prchrAcptcYn":"N"`)
}
