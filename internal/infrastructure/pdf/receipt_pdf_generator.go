// Package pdf implementa la representación gráfica del recibo fiscal eTims
// (TIS de la KRA, Kenia).
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Company + PIN  │  N° documento + Fecha             │
//	│  ─────────────────────────────────────────────────────────  │
//	│  CLIENTE: Nombre + PIN                                      │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Cant | Descripción | P.Unit | Banda | Total         │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: Neto / Impuestos por banda / TOTAL                │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER SCU: invcNo + sdcId + rcptSign + QR de verificación │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	appetims "github.com/tu-usuario/etims-bridge/internal/application/etims"
	"github.com/tu-usuario/etims-bridge/internal/domain/entity"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 90, Blue: 60}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

// ── Generator ─────────────────────────────────────────────────────────────────

var _ appetims.ReceiptPDFGenerator = (*MarotoReceiptGenerator)(nil)

// MarotoReceiptGenerator implementa etims.ReceiptPDFGenerator usando Maroto v2.
type MarotoReceiptGenerator struct{}

// NewMarotoReceiptGenerator construye el generador.
func NewMarotoReceiptGenerator() *MarotoReceiptGenerator { return &MarotoReceiptGenerator{} }

// Render genera el PDF del recibo fiscal y devuelve sus bytes.
func (g *MarotoReceiptGenerator) Render(
	invoice *entity.SalesInvoice,
	items []*entity.SalesInvoiceItem,
	setting *entity.EnvironmentSetting,
) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Recibo Fiscal eTims", true).
		WithAuthor(invoice.Company, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(invoice, setting))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(customerRow(invoice))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	for _, r := range tableItemRows(items) {
		m.AddRows(r)
	}

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(invoice))

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	for _, r := range scuFooterRows(invoice, setting) {
		m.AddRows(r)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: company + PIN (izq) y número de documento + fecha (der).
func headerRow(invoice *entity.SalesInvoice, setting *entity.EnvironmentSetting) core.Row {
	return row.New(18).Add(
		col.New(7).Add(
			text.New(invoice.Company, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("PIN: "+setting.TIN+"   Sucursal: "+setting.BranchID, props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("RECIBO FISCAL eTims", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right,
				Color: colorPrimary, Top: 1,
			}),
			text.New(invoice.Name, props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7,
			}),
			text.New("Fecha: "+invoice.PostingDate, props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
	)
}

// customerRow: datos del comprador.
func customerRow(invoice *entity.SalesInvoice) core.Row {
	pin := invoice.CustomerPIN
	if pin == "" {
		pin = "—"
	}
	return row.New(12).Add(
		col.New(12).Add(
			text.New("CLIENTE", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(fmt.Sprintf("%s   |   PIN: %s", invoice.CustomerName, pin),
				props.Text{Size: 9, Top: 7, Color: colorGray}),
		),
	)
}

// tableHeaderRow: cabecera de la tabla de líneas.
func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Cant.", 1, align.Center),
		h("Descripción", 5, align.Left),
		h("Precio Unit.", 2, align.Right),
		h("Banda", 1, align.Center),
		h("Total", 3, align.Right),
	)
}

// tableItemRows: una fila por línea de la factura.
func tableItemRows(items []*entity.SalesInvoiceItem) []core.Row {
	result := make([]core.Row, 0, len(items))
	for _, it := range items {
		result = append(result, row.New(7).Add(
			col.New(1).Add(text.New(
				it.Quantity.Abs().StringFixed(0),
				props.Text{Size: 8, Align: align.Center, Top: 1},
			)),
			col.New(5).Add(text.New(
				it.Name,
				props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1},
			)),
			col.New(2).Add(text.New(
				"KSh "+it.BaseRate.Abs().StringFixed(2),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
			col.New(1).Add(text.New(
				it.TaxationTypeCd,
				props.Text{Size: 8, Align: align.Center, Top: 1},
			)),
			col.New(3).Add(text.New(
				"KSh "+it.TaxableTotal.Abs().StringFixed(2),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
		))
	}
	return result
}

// totalsRow: bloque de totales alineado a la derecha.
func totalsRow(invoice *entity.SalesInvoice) core.Row {
	label := func(s string) core.Component {
		return text.New(s, props.Text{
			Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2,
		})
	}
	value := func(s string) core.Component {
		return text.New(s, props.Text{Size: 9, Align: align.Right, Right: 1})
	}
	grandLabel := func(s string) core.Component {
		return text.New(s, props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Right,
			Color: colorPrimary, Right: 2,
		})
	}
	grandValue := func(s string) core.Component {
		return text.New(s, props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Right,
			Color: colorPrimary, Right: 1,
		})
	}

	net := invoice.BaseNetTotal.Abs()
	tax := invoice.TotalTaxesAndCharges.Abs()
	grand := net.Add(tax)

	return row.New(26).Add(
		col.New(3),
		col.New(3).Add(
			label("Neto:"),
			label("Impuestos:"),
			grandLabel("TOTAL:"),
		),
		col.New(3).Add(
			value("KSh "+money(net)),
			value("KSh "+money(tax)),
			grandValue("KSh "+money(grand)),
		),
		col.New(3),
	)
}

// scuFooterRows: datos del SCU + QR de verificación en el portal KRA.
func scuFooterRows(invoice *entity.SalesInvoice, setting *entity.EnvironmentSetting) []core.Row {
	rows := []core.Row{
		row.New(6).Add(col.New(12).Add(
			text.New("INFORMACIÓN FISCAL eTims", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
		)),
		row.New(5).Add(col.New(12).Add(
			text.New(fmt.Sprintf("Secuencia fiscal (invcNo): %d   |   SCU: %s",
				invoice.SubmissionSequence, invoice.SCUID),
				props.Text{Size: 7.5, Top: 1, Color: colorGray}),
		)),
	}

	if invoice.SCUReceiptSignature != "" {
		rows = append(rows, row.New(5).Add(col.New(12).Add(
			text.New("Firma del recibo (rcptSign): "+invoice.SCUReceiptSignature,
				props.Text{Size: 7.5, Top: 1, Color: colorGray}),
		)))
	}
	if invoice.SCUInternalData != "" {
		rows = append(rows, row.New(5).Add(col.New(12).Add(
			text.New("Datos internos (intrlData): "+invoice.SCUInternalData,
				props.Text{Size: 7.5, Top: 1, Color: colorGray}),
		)))
	}

	rows = append(rows, row.New(3))

	if invoice.SCUReceiptSignature != "" {
		verification := appetims.VerificationData(setting, invoice.SCUReceiptSignature)
		rows = append(rows, row.New(50).Add(
			col.New(4).Add(code.NewQr(verification, props.Rect{
				Percent: 95,
				Center:  true,
			})),
			col.New(8).Add(
				text.New("Escanea el código QR para validar\neste recibo en el portal eTims de la KRA.", props.Text{
					Size: 8, Top: 4, Left: 3, Color: colorGray,
				}),
				text.New("RECIBO FISCAL\nTAX INVOICE", props.Text{
					Style: fontstyle.Bold, Size: 10, Top: 22,
					Left: 3, Color: colorPrimary,
				}),
			),
		))
	}

	rows = append(rows, row.New(8).Add(col.New(12).Add(
		text.New(
			"Este recibo fue registrado ante la Kenya Revenue Authority a través del "+
				"sistema eTims. Conserve este documento como soporte fiscal.",
			props.Text{Size: 6.5, Color: colorGray, Top: 2},
		),
	)))

	return rows
}

// ── helpers ───────────────────────────────────────────────────────────────────

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}
