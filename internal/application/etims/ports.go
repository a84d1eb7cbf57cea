package etims

import (
	"context"
	"time"

	"github.com/tu-usuario/etims-bridge/internal/domain/entity"
	domainetims "github.com/tu-usuario/etims-bridge/internal/domain/etims"
	"github.com/tu-usuario/etims-bridge/internal/domain/repository"
)

// Credentials cabeceras de autenticación del API eTims, derivadas del
// setting activo (tin, bhfId, cmcKey).
type Credentials struct {
	TIN              string
	BranchID         string
	CommunicationKey string
}

// SubmitResult respuesta normalizada del API eTims.
type SubmitResult struct {
	ResultCode      string // "000" = aceptado
	ResultMessage   string
	ResultTimestamp string // resultDt, yyyyMMddHHmmss
	Accepted        bool

	// Datos del SCU para el recibo aceptado.
	SCUID            string // sdcId
	ReceiptSignature string // rcptSign
	InternalData     string // intrlData
}

// Submitter define el puerto de salida hacia el API eTims. La implementación
// concreta usa HTTP/JSON; para tests se inyecta un fake. La llamada es
// bloqueante para el caller (awaited); el retry/backoff es responsabilidad
// de quien invoca, no de este puerto.
type Submitter interface {
	SubmitSales(ctx context.Context, serverURL, urlPath string, creds Credentials, payload *domainetims.InvoicePayload) (*SubmitResult, error)
}

// QRGenerator codifica un string de verificación como QR PNG en data URI.
// Es un encoder puro: no valida el contenido.
type QRGenerator interface {
	Generate(data string) (string, error)
}

// ThrottleMirror espejo best-effort del last-request por ruta (ej: redis).
// Los errores del espejo no interrumpen el flujo; la DB manda.
type ThrottleMirror interface {
	RecordRequest(ctx context.Context, urlPath string, at time.Time) error
}

// SalesTxRunner ejecuta una función dentro de una transacción con el repo de
// facturas atado a la tx (cabecera + líneas atómicas).
type SalesTxRunner interface {
	RunSales(ctx context.Context, fn func(invoiceRepo repository.SalesInvoiceRepository) error) error
}

// ReceiptPDFGenerator renderiza la representación gráfica del recibo fiscal
// (incluye el QR de verificación).
type ReceiptPDFGenerator interface {
	Render(invoice *entity.SalesInvoice, items []*entity.SalesInvoiceItem, setting *entity.EnvironmentSetting) ([]byte, error)
}
