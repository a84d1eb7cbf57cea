package etims

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/etims-bridge/internal/domain"
	"github.com/tu-usuario/etims-bridge/internal/domain/entity"
	pkgetims "github.com/tu-usuario/etims-bridge/pkg/etims"
)

// Códigos de tipo de recibo eTims.
const (
	ReceiptTypeSale   = "S"
	ReceiptTypeRefund = "R"
)

// Mensajes fijos del bloque receipt.
const (
	receiptTopMessage    = "etims-bridge"
	receiptBottomMessage = "Welcome"
)

// InvoicePayload es el payload JSON que espera el endpoint saveSales de
// eTims. Es efímero: se construye por envío y se descarta tras transmitir;
// no requiere lookups adicionales por parte del transporte.
type InvoicePayload struct {
	InvoiceNo        int64           `json:"invcNo"`
	OrgInvoiceNo     int64           `json:"orgInvcNo"`
	TraderInvoiceNo  string          `json:"trdInvcNo"`
	CustomerTIN      *string         `json:"custTin"`
	CustomerName     *string         `json:"custNm"`
	ReceiptTypeCd    string          `json:"rcptTyCd"`
	PaymentTypeCd    string          `json:"pmtTyCd"`
	SalesStatusCd    string          `json:"salesSttsCd"`
	ConfirmDate      string          `json:"cfmDt"`
	SalesDate        string          `json:"salesDt"`
	StockReleaseDate string          `json:"stockRlsDt"`
	CancelRequestDt  *string         `json:"cnclReqDt"`
	CancelDt         *string         `json:"cnclDt"`
	RefundDt         *string         `json:"rfdDt"`
	RefundReasonCd   *string         `json:"rfdRsnCd"`
	TotalItemCount   int             `json:"totItemCnt"`
	TaxableAmtA      decimal.Decimal `json:"taxblAmtA"`
	TaxableAmtB      decimal.Decimal `json:"taxblAmtB"`
	TaxableAmtC      decimal.Decimal `json:"taxblAmtC"`
	TaxableAmtD      decimal.Decimal `json:"taxblAmtD"`
	TaxableAmtE      decimal.Decimal `json:"taxblAmtE"`
	TaxRateA         int64           `json:"taxRtA"`
	TaxRateB         int64           `json:"taxRtB"`
	TaxRateC         int64           `json:"taxRtC"`
	TaxRateD         int64           `json:"taxRtD"`
	TaxRateE         int64           `json:"taxRtE"`
	TaxAmtA          decimal.Decimal `json:"taxAmtA"`
	TaxAmtB          decimal.Decimal `json:"taxAmtB"`
	TaxAmtC          decimal.Decimal `json:"taxAmtC"`
	TaxAmtD          decimal.Decimal `json:"taxAmtD"`
	TaxAmtE          decimal.Decimal `json:"taxAmtE"`
	TotalTaxableAmt  decimal.Decimal `json:"totTaxblAmt"`
	TotalTaxAmt      decimal.Decimal `json:"totTaxAmt"`
	TotalAmt         decimal.Decimal `json:"totAmt"`
	PurchaseAcceptYN string          `json:"prchrAcptcYn"`
	Remark           *string         `json:"remark"`
	RegistrarID      string          `json:"regrId"`
	RegistrarName    string          `json:"regrNm"`
	ModifierID       string          `json:"modrId"`
	ModifierName     string          `json:"modrNm"`
	Receipt          ReceiptPayload  `json:"receipt"`
	ItemList         []ItemPayload   `json:"itemList"`
}

// ReceiptPayload bloque receipt anidado del payload.
type ReceiptPayload struct {
	CustomerTIN      *string `json:"custTin"`
	CustomerMobileNo *string `json:"custMblNo"`
	ReceiptNo        int     `json:"rptNo"`
	PublishDate      string  `json:"rcptPbctDt"`
	TradeName        string  `json:"trdeNm"`
	Address          string  `json:"adrs"`
	TopMessage       string  `json:"topMsg"`
	BottomMessage    string  `json:"btmMsg"`
	PurchaseAcceptYN string  `json:"prchrAcptcYn"`
}

// ItemPayload entrada de itemList.
type ItemPayload struct {
	ItemSeq         int              `json:"itemSeq"`
	ItemCd          string           `json:"itemCd"`
	ItemClsCd       string           `json:"itemClsCd"`
	ItemName        string           `json:"itemNm"`
	Barcode         *string          `json:"bcd"`
	PackagingUnitCd string           `json:"pkgUnitCd"`
	Package         int              `json:"pkg"`
	QuantityUnitCd  string           `json:"qtyUnitCd"`
	Quantity        decimal.Decimal  `json:"qty"`
	Price           decimal.Decimal  `json:"prc"`
	SupplyAmount    decimal.Decimal  `json:"splyAmt"`
	DiscountRate    decimal.Decimal  `json:"dcRt"`
	DiscountAmount  decimal.Decimal  `json:"dcAmt"`
	InsuranceCoCd   *string          `json:"isrccCd"`
	InsuranceCoName *string          `json:"isrccNm"`
	InsuranceRate   *decimal.Decimal `json:"isrcRt"`
	InsuranceAmount *decimal.Decimal `json:"isrcAmt"`
	TaxTypeCd       string           `json:"taxTyCd"`
	TaxableAmount   decimal.Decimal  `json:"taxblAmt"`
	TaxAmount       decimal.Decimal  `json:"taxAmt"`
	TotalAmount     decimal.Decimal  `json:"totAmt"`
}

// BuildInput reúne todo lo que el builder necesita; no hace lookups propios.
// El número de secuencia lo asigna el caller (AllocateNext) antes de llamar:
// una venta nunca llega aquí sin número.
type BuildInput struct {
	Invoice      *entity.SalesInvoice
	Items        []*entity.SalesInvoiceItem
	InvoiceType  string // entity.InvoiceTypeSales | entity.InvoiceTypeCreditNote
	InvoiceNo    int64  // invcNo asignado por el asignador de secuencia
	OrgInvoiceNo int64  // secuencia registrada de la factura original (0 para ventas)
}

// BuildInvoicePayload construye el payload fiscal completo y auto-contenido
// a partir de la factura, sus líneas y el número asignado.
//
// Reglas (observadas del sistema origen y del anexo eTims):
//   - cfmDt/stockRlsDt/rcptPbctDt: fecha+hora contable truncada a segundos,
//     yyyyMMddHHmmss; salesDt: yyyyMMdd.
//   - rcptTyCd: "S" para ventas, "R" para todo lo demás.
//   - Tasas de banda fijas en 0, salvo B=16 y E=8 cuando esa banda trae
//     impuesto distinto de cero.
//   - Todos los totales viajan en valor absoluto: las notas crédito son
//     internamente negativas pero la KRA espera magnitudes.
func BuildInvoicePayload(in BuildInput) (*InvoicePayload, error) {
	if in.Invoice == nil {
		return nil, fmt.Errorf("%w: factura nula", domain.ErrInvalidInput)
	}
	if in.InvoiceType != entity.InvoiceTypeSales && in.InvoiceType != entity.InvoiceTypeCreditNote {
		return nil, fmt.Errorf("%w: tipo de envío %q (usar S o C)", domain.ErrInvalidInput, in.InvoiceType)
	}
	if in.InvoiceNo <= 0 {
		return nil, fmt.Errorf("%w: factura %s", domain.ErrSequenceUnavailable, in.Invoice.Name)
	}

	inv := in.Invoice

	postedAt, err := pkgetims.CombinePostingDateTime(inv.PostingDate, inv.PostingTime)
	if err != nil {
		return nil, err
	}
	confirmStamp := pkgetims.FormatTimestamp(postedAt)
	salesStamp := pkgetims.FormatDate(postedAt)

	breakdowns, err := AggregateLineTaxes(in.Items)
	if err != nil {
		return nil, err
	}

	items := make([]ItemPayload, len(in.Items))
	for i, item := range in.Items {
		b := breakdowns[i]
		items[i] = ItemPayload{
			ItemSeq:         b.Seq,
			ItemCd:          item.ItemCode,
			ItemClsCd:       item.Classification,
			ItemName:        item.Name,
			Barcode:         optional(item.Barcode),
			PackagingUnitCd: item.PackagingUnitCd,
			Package:         1,
			QuantityUnitCd:  item.QuantityUnitCd,
			Quantity:        item.Quantity.Abs(),
			Price:           item.BaseRate.Round(2),
			SupplyAmount:    item.BaseRate.Round(2),
			DiscountRate:    item.DiscountPercent.Round(2),
			DiscountAmount:  item.DiscountAmount.Round(2),
			TaxTypeCd:       item.TaxationTypeCd,
			TaxableAmount:   b.TaxableAmount,
			TaxAmount:       b.TaxAmount,
			TotalAmount:     b.TaxableAmount,
		}
	}

	receiptType := ReceiptTypeRefund
	if in.InvoiceType == entity.InvoiceTypeSales {
		receiptType = ReceiptTypeSale
	}

	orgInvoiceNo := int64(0)
	if in.InvoiceType == entity.InvoiceTypeCreditNote {
		orgInvoiceNo = in.OrgInvoiceNo
	}

	return &InvoicePayload{
		InvoiceNo:        in.InvoiceNo,
		OrgInvoiceNo:     orgInvoiceNo,
		TraderInvoiceNo:  inv.Name,
		CustomerTIN:      optional(inv.CustomerPIN),
		CustomerName:     nil,
		ReceiptTypeCd:    receiptType,
		PaymentTypeCd:    inv.PaymentTypeCode,
		SalesStatusCd:    inv.TransactionProgressCode,
		ConfirmDate:      confirmStamp,
		SalesDate:        salesStamp,
		StockReleaseDate: confirmStamp,
		TotalItemCount:   len(items),
		TaxableAmtA:      inv.TaxableAmountA.Abs(),
		TaxableAmtB:      inv.TaxableAmountB.Abs(),
		TaxableAmtC:      inv.TaxableAmountC.Abs(),
		TaxableAmtD:      inv.TaxableAmountD.Abs(),
		TaxableAmtE:      inv.TaxableAmountE.Abs(),
		TaxRateA:         0,
		TaxRateB:         bandRate(inv.TaxAmountB, TaxRateBandB),
		TaxRateC:         0,
		TaxRateD:         0,
		TaxRateE:         bandRate(inv.TaxAmountE, TaxRateBandE),
		TaxAmtA:          inv.TaxAmountA.Abs(),
		TaxAmtB:          inv.TaxAmountB.Abs(),
		TaxAmtC:          inv.TaxAmountC.Abs(),
		TaxAmtD:          inv.TaxAmountD.Abs(),
		TaxAmtE:          inv.TaxAmountE.Abs(),
		TotalTaxableAmt:  inv.BaseNetTotal.Abs(),
		TotalTaxAmt:      inv.TotalTaxesAndCharges.Abs(),
		TotalAmt:         inv.BaseNetTotal.Abs(),
		PurchaseAcceptYN: "N",
		RegistrarID:      inv.Owner,
		RegistrarName:    inv.Owner,
		ModifierID:       inv.ModifiedBy,
		ModifierName:     inv.ModifiedBy,
		Receipt: ReceiptPayload{
			CustomerTIN:      optional(inv.CustomerPIN),
			ReceiptNo:        1,
			PublishDate:      confirmStamp,
			TradeName:        "",
			Address:          "",
			TopMessage:       receiptTopMessage,
			BottomMessage:    receiptBottomMessage,
			PurchaseAcceptYN: "N",
		},
		ItemList: items,
	}, nil
}

// bandRate devuelve la tasa nominal fija de la banda solo si la factura
// trae impuesto en ella; de lo contrario 0.
func bandRate(taxAmount decimal.Decimal, rate int64) int64 {
	if taxAmount.IsZero() {
		return 0
	}
	return rate
}

// optional convierte cadena vacía en null JSON.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
