package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateSettingRequest body para POST /api/etims/settings.
type CreateSettingRequest struct {
	Company          string `json:"company" validate:"required"`
	BranchID         string `json:"branch_id"` // vacío => "00"
	Environment      string `json:"environment" validate:"required,oneof=Sandbox Production"`
	ServerURL        string `json:"server_url" validate:"required,url"`
	TIN              string `json:"tin" validate:"required"`
	DeviceSerialNo   string `json:"device_serial_no" validate:"required"`
	CommunicationKey string `json:"communication_key" validate:"required"`
	InitialSalesNo   int64  `json:"initial_sales_number"`
	IsActive         bool   `json:"is_active"`
}

// SettingResponse configuración eTims en respuestas. La communication key no
// sale del servidor.
type SettingResponse struct {
	ID                    string `json:"id"`
	Company               string `json:"company"`
	BranchID              string `json:"branch_id"`
	Environment           string `json:"environment"`
	ServerURL             string `json:"server_url"`
	TIN                   string `json:"tin"`
	DeviceSerialNo        string `json:"device_serial_no"`
	MostRecentSalesNumber int64  `json:"most_recent_sales_number"`
	IsActive              bool   `json:"is_active"`
}

// RouteResponse entrada del registro de rutas en respuestas.
type RouteResponse struct {
	Operation     string     `json:"operation"`
	URLPath       string     `json:"url_path"`
	LastRequestAt *time.Time `json:"last_request_at,omitempty"`
}

// CreateInvoiceRequest body para POST /api/invoices: cabecera + líneas con su
// desglose de impuestos por categoría, tal como lo exporta el módulo contable.
type CreateInvoiceRequest struct {
	Company                 string               `json:"company" validate:"required"`
	BranchID                string               `json:"branch_id"`
	Name                    string               `json:"name" validate:"required"` // número interno (trdInvcNo)
	CustomerName            string               `json:"customer_name"`
	CustomerPIN             string               `json:"customer_pin"` // PIN KRA, opcional
	PostingDate             string               `json:"posting_date" validate:"required"` // YYYY-MM-DD
	PostingTime             string               `json:"posting_time" validate:"required"` // HH:MM:SS
	PaymentTypeCode         string               `json:"payment_type_code"`
	TransactionProgressCode string               `json:"transaction_progress_code"`
	BaseNetTotal            decimal.Decimal      `json:"base_net_total"`
	TotalTaxesAndCharges    decimal.Decimal      `json:"total_taxes_and_charges"`
	TaxableAmounts          BandAmounts          `json:"taxable_amounts"`
	TaxAmounts              BandAmounts          `json:"tax_amounts"`
	ReturnAgainst           string               `json:"return_against,omitempty"` // ID factura original (notas crédito)
	Items                   []InvoiceItemRequest `json:"items" validate:"required,min=1"`
}

// BandAmounts montos por banda A–E.
type BandAmounts struct {
	A decimal.Decimal `json:"a"`
	B decimal.Decimal `json:"b"`
	C decimal.Decimal `json:"c"`
	D decimal.Decimal `json:"d"`
	E decimal.Decimal `json:"e"`
}

// InvoiceItemRequest línea de factura con desglose de impuestos.
type InvoiceItemRequest struct {
	ItemCode        string                     `json:"item_code" validate:"required"`
	Classification  string                     `json:"classification"`
	Name            string                     `json:"name" validate:"required"`
	Barcode         string                     `json:"barcode,omitempty"`
	PackagingUnitCd string                     `json:"packaging_unit_code"`
	QuantityUnitCd  string                     `json:"quantity_unit_code"`
	Quantity        decimal.Decimal            `json:"quantity" validate:"required"`
	BaseRate        decimal.Decimal            `json:"base_rate"`
	DiscountPercent decimal.Decimal            `json:"discount_percent"`
	DiscountAmount  decimal.Decimal            `json:"discount_amount"`
	TaxationTypeCd  string                     `json:"taxation_type_code"` // banda A–E
	TaxableTotal    decimal.Decimal            `json:"taxable_total"`
	TaxBreakup      map[string]decimal.Decimal `json:"tax_breakup"` // etiqueta -> monto
}

// InvoiceResponse factura con bookkeeping fiscal para GET /api/invoices/:id.
type InvoiceResponse struct {
	ID                 string                `json:"id"`
	Company            string                `json:"company"`
	BranchID           string                `json:"branch_id"`
	Name               string                `json:"name"`
	CustomerName       string                `json:"customer_name,omitempty"`
	CustomerPIN        string                `json:"customer_pin,omitempty"`
	PostingDate        string                `json:"posting_date"`
	BaseNetTotal       decimal.Decimal       `json:"base_net_total"`
	TotalTaxes         decimal.Decimal       `json:"total_taxes_and_charges"`
	SubmissionStatus   string                `json:"submission_status"`
	SubmissionSequence int64                 `json:"submission_sequence,omitempty"`
	SCUID              string                `json:"scu_id,omitempty"`
	QRData             string                `json:"qr_data,omitempty"`
	SubmissionErrors   string                `json:"submission_errors,omitempty"`
	SubmittedAt        *time.Time            `json:"submitted_at,omitempty"`
	Items              []InvoiceItemResponse `json:"items,omitempty"`
}

// InvoiceItemResponse línea en la respuesta.
type InvoiceItemResponse struct {
	Seq            int             `json:"seq"`
	ItemCode       string          `json:"item_code"`
	Name           string          `json:"name"`
	Quantity       decimal.Decimal `json:"quantity"`
	BaseRate       decimal.Decimal `json:"base_rate"`
	TaxationTypeCd string          `json:"taxation_type_code"`
	TaxableTotal   decimal.Decimal `json:"taxable_total"`
}

// SubmitInvoiceRequest body para POST /api/invoices/:id/submit.
// Type "S" para ventas, "C" para notas crédito.
type SubmitInvoiceRequest struct {
	Type string `json:"type" validate:"required,oneof=S C"`
}

// SubmissionResponse resultado del envío fiscal.
type SubmissionResponse struct {
	InvoiceID          string     `json:"invoice_id"`
	Status             string     `json:"status"` // SUBMITTED | REJECTED | ERROR
	SubmissionSequence int64      `json:"submission_sequence,omitempty"`
	SCUID              string     `json:"scu_id,omitempty"`
	ReceiptSignature   string     `json:"receipt_signature,omitempty"`
	QRData             string     `json:"qr_data,omitempty"`
	Errors             string     `json:"errors,omitempty"`
	SubmittedAt        *time.Time `json:"submitted_at,omitempty"`
}
