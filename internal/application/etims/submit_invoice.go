package etims

import (
	"context"
	"fmt"
	"time"

	"github.com/tu-usuario/etims-bridge/internal/application/dto"
	"github.com/tu-usuario/etims-bridge/internal/domain"
	"github.com/tu-usuario/etims-bridge/internal/domain/entity"
	domainetims "github.com/tu-usuario/etims-bridge/internal/domain/etims"
	"github.com/tu-usuario/etims-bridge/internal/domain/repository"
	pkgetims "github.com/tu-usuario/etims-bridge/pkg/etims"
	"github.com/tu-usuario/etims-bridge/pkg/logger"
)

// Portales de verificación de recibos de la KRA. El string de verificación
// del QR es URL + TIN + bhfId + rcptSign.
const (
	verifyURLSandbox    = "https://etims-sbx.kra.go.ke/common/link/etims/receipt/indexEtimsReceiptData?Data="
	verifyURLProduction = "https://etims.kra.go.ke/common/link/etims/receipt/indexEtimsReceiptData?Data="
)

// SubmitInvoiceUseCase orquesta el envío fiscal completo:
//
//	resolver setting → ruta → asignar secuencia → payload → POST → bookkeeping
//
// El flujo es síncrono: el caller espera la respuesta de la KRA dentro del
// mismo request (con timeout del context). La asignación de secuencia se
// confirma en DB antes de transmitir: si el envío se abandona después, el
// número queda consumido (hueco aceptable, duplicado no).
type SubmitInvoiceUseCase struct {
	invoices  repository.SalesInvoiceRepository
	resolver  *SettingsResolver
	allocator *SequenceAllocator
	routes    *RouteRegistryUseCase
	submitter Submitter
	qr        QRGenerator
	log       *logger.Logger
}

// NewSubmitInvoiceUseCase construye el orquestador.
func NewSubmitInvoiceUseCase(
	invoices repository.SalesInvoiceRepository,
	resolver *SettingsResolver,
	allocator *SequenceAllocator,
	routes *RouteRegistryUseCase,
	submitter Submitter,
	qr QRGenerator,
	log *logger.Logger,
) *SubmitInvoiceUseCase {
	return &SubmitInvoiceUseCase{
		invoices:  invoices,
		resolver:  resolver,
		allocator: allocator,
		routes:    routes,
		submitter: submitter,
		qr:        qr,
		log:       log,
	}
}

// Submit envía la factura como venta ("S") o nota crédito ("C").
func (uc *SubmitInvoiceUseCase) Submit(ctx context.Context, invoiceID, invoiceType string) (*dto.SubmissionResponse, error) {
	if invoiceType != entity.InvoiceTypeSales && invoiceType != entity.InvoiceTypeCreditNote {
		return nil, fmt.Errorf("%w: tipo de envío %q (usar S o C)", domain.ErrInvalidInput, invoiceType)
	}

	inv, err := uc.invoices.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, domain.ErrNotFound
	}
	if inv.SubmissionStatus == entity.SubmissionStatusSubmitted {
		return nil, fmt.Errorf("%w: la factura %s ya fue enviada con secuencia %d",
			domain.ErrDuplicate, inv.Name, inv.SubmissionSequence)
	}

	// Nota crédito: la referencia es la secuencia ya registrada de la factura
	// original; sin ella el envío es inválido.
	var orgInvoiceNo int64
	if invoiceType == entity.InvoiceTypeCreditNote {
		if inv.ReturnAgainst == "" {
			return nil, fmt.Errorf("%w: nota crédito sin factura original (return_against)", domain.ErrInvalidInput)
		}
		original, err := uc.invoices.GetByID(ctx, inv.ReturnAgainst)
		if err != nil {
			return nil, err
		}
		if original == nil {
			return nil, fmt.Errorf("%w: factura original %s", domain.ErrNotFound, inv.ReturnAgainst)
		}
		if original.SubmissionSequence <= 0 {
			return nil, fmt.Errorf("%w: la factura original %s no tiene secuencia registrada",
				domain.ErrInvalidInput, original.Name)
		}
		orgInvoiceNo = original.SubmissionSequence
	}

	setting, err := uc.resolver.Resolve(ctx, inv.Company, inv.BranchID)
	if err != nil {
		return nil, err
	}

	route, err := uc.routes.Lookup(ctx, entity.OpSaveSales)
	if err != nil {
		return nil, err
	}

	items, err := uc.invoices.GetItemsByInvoiceID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	// Asignación durable antes de transmitir: el número queda consumido
	// aunque el envío falle después.
	invoiceNo, err := uc.allocator.AllocateNext(ctx, inv.Company, inv.BranchID)
	if err != nil {
		return nil, err
	}

	payload, err := domainetims.BuildInvoicePayload(domainetims.BuildInput{
		Invoice:      inv,
		Items:        items,
		InvoiceType:  invoiceType,
		InvoiceNo:    invoiceNo,
		OrgInvoiceNo: orgInvoiceNo,
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("invoice", inv.Name).
		Int64("invcNo", invoiceNo).
		Str("path", route.URLPath).
		Str("env", setting.Environment).
		Msg("enviando factura a eTims")

	result, err := uc.submitter.SubmitSales(ctx, setting.ServerURL, route.URLPath, uc.resolver.Credentials(setting), payload)
	if err != nil {
		// Fallo de transporte: se registra y se propaga sin envolver; el
		// retry/backoff es del caller. El número invoiceNo queda consumido.
		inv.SubmissionStatus = entity.SubmissionStatusError
		inv.SubmissionErrors = err.Error()
		inv.UpdatedAt = time.Now()
		if uerr := uc.invoices.UpdateSubmission(ctx, inv); uerr != nil {
			uc.log.Error().Err(uerr).Str("invoice", inv.ID).Msg("no se pudo persistir estado ERROR")
		}
		return nil, err
	}

	now := time.Now()
	if result.Accepted {
		inv.SubmissionStatus = entity.SubmissionStatusSubmitted
		inv.SubmissionSequence = invoiceNo
		inv.SCUID = result.SCUID
		inv.SCUReceiptSignature = result.ReceiptSignature
		inv.SCUInternalData = result.InternalData
		inv.SubmissionErrors = ""

		submittedAt := now
		if at, perr := pkgetims.ParseTimestamp(result.ResultTimestamp); perr == nil {
			submittedAt = at
		}
		inv.SubmittedAt = &submittedAt

		qrData, qerr := uc.qr.Generate(VerificationData(setting, result.ReceiptSignature))
		if qerr != nil {
			uc.log.Error().Err(qerr).Str("invoice", inv.ID).Msg("no se pudo generar QR de verificación")
		} else {
			inv.QRData = qrData
		}

		// Throttle: best-effort, no bloquea el resultado del envío.
		if rerr := uc.routes.RecordResponse(ctx, route.URLPath, result.ResultTimestamp); rerr != nil {
			uc.log.Warn().Err(rerr).Str("path", route.URLPath).Msg("last-request no registrado")
		}
	} else {
		inv.SubmissionStatus = entity.SubmissionStatusRejected
		inv.SubmissionErrors = fmt.Sprintf("resultCd %s: %s", result.ResultCode, result.ResultMessage)
	}
	inv.UpdatedAt = now

	if err := uc.invoices.UpdateSubmission(ctx, inv); err != nil {
		return nil, fmt.Errorf("persistir resultado del envío: %w", err)
	}

	return &dto.SubmissionResponse{
		InvoiceID:          inv.ID,
		Status:             inv.SubmissionStatus,
		SubmissionSequence: inv.SubmissionSequence,
		SCUID:              inv.SCUID,
		ReceiptSignature:   inv.SCUReceiptSignature,
		QRData:             inv.QRData,
		Errors:             inv.SubmissionErrors,
		SubmittedAt:        inv.SubmittedAt,
	}, nil
}

// VerificationData compone el string de verificación del recibo:
// portal del ambiente + TIN + bhfId + rcptSign. Es lo que va dentro del QR,
// tanto en la respuesta del envío como en el PDF del recibo.
func VerificationData(setting *entity.EnvironmentSetting, receiptSignature string) string {
	base := verifyURLSandbox
	if setting.Environment == entity.EnvironmentProduction {
		base = verifyURLProduction
	}
	return base + setting.TIN + setting.BranchID + receiptSignature
}
