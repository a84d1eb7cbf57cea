package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de documento para el envío eTims.
const (
	InvoiceTypeSales      = "S" // venta
	InvoiceTypeCreditNote = "C" // nota crédito (devolución)
)

// Estados de envío a eTims.
const (
	SubmissionStatusPending   = "PENDING"   // registrada, sin enviar
	SubmissionStatusSubmitted = "SUBMITTED" // aceptada por la KRA
	SubmissionStatusRejected  = "REJECTED"  // rechazada por la KRA (resultCd != 000)
	SubmissionStatusError     = "ERROR"     // fallo de transporte o de construcción
)

// SalesInvoice representa la cabecera de una factura de venta interna,
// junto con el bookkeeping de su envío fiscal.
//
// Los montos pueden venir con signo negativo (notas crédito); el builder del
// payload los normaliza a valor absoluto antes de enviar.
type SalesInvoice struct {
	ID                      string
	Company                 string
	BranchID                string // bhfid de la sucursal emisora
	Name                    string // número interno del documento (trdInvcNo)
	CustomerName            string
	CustomerPIN             string // PIN KRA del cliente; puede estar vacío
	PostingDate             string // YYYY-MM-DD
	PostingTime             string // HH:MM:SS, a veces con fracción o sin cero inicial
	PaymentTypeCode         string // pmtTyCd
	TransactionProgressCode string // salesSttsCd
	BaseNetTotal            decimal.Decimal
	TotalTaxesAndCharges    decimal.Decimal
	TaxableAmountA          decimal.Decimal
	TaxableAmountB          decimal.Decimal
	TaxableAmountC          decimal.Decimal
	TaxableAmountD          decimal.Decimal
	TaxableAmountE          decimal.Decimal
	TaxAmountA              decimal.Decimal
	TaxAmountB              decimal.Decimal
	TaxAmountC              decimal.Decimal
	TaxAmountD              decimal.Decimal
	TaxAmountE              decimal.Decimal
	ReturnAgainst           string // ID de la factura original (solo notas crédito)
	Owner                   string
	ModifiedBy              string

	// Bookkeeping del envío fiscal.
	SubmissionStatus    string
	SubmissionSequence  int64      // invcNo asignado; 0 = nunca enviada
	SCUID               string     // sdcId devuelto por la KRA
	SCUReceiptSignature string     // rcptSign (entra en el QR de verificación)
	SCUInternalData     string     // intrlData
	SubmittedAt         *time.Time // resultDt de la respuesta aceptada
	QRData              string     // data URI del QR de verificación
	SubmissionErrors    string     // resultMsg de rechazo (vacío si OK)

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsCreditNote indica si la factura es una devolución contra otra factura.
func (i *SalesInvoice) IsCreditNote() bool {
	return i.ReturnAgainst != ""
}

// SalesInvoiceItem representa una línea de la factura con su desglose de
// impuestos por categoría (etiqueta -> monto), tal como lo entrega el
// módulo contable upstream.
type SalesInvoiceItem struct {
	ID                string
	InvoiceID         string
	Seq               int    // posición 1-based dentro de la factura
	ItemCode          string // itemCd asignado por eTims
	Classification    string // itemClsCd (catálogo UNSPSC de la KRA)
	Name              string
	Barcode           string
	PackagingUnitCd   string // pkgUnitCd
	QuantityUnitCd    string // qtyUnitCd
	Quantity          decimal.Decimal
	BaseRate          decimal.Decimal
	DiscountPercent   decimal.Decimal
	DiscountAmount    decimal.Decimal
	TaxationTypeCd    string // taxTyCd (banda A–E)
	TaxableTotal      decimal.Decimal            // total gravable de la línea
	TaxBreakup        map[string]decimal.Decimal // etiqueta de categoría -> monto de impuesto de la línea
}
