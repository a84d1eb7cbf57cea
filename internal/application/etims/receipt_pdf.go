package etims

import (
	"context"
	"fmt"

	"github.com/tu-usuario/etims-bridge/internal/domain"
	"github.com/tu-usuario/etims-bridge/internal/domain/entity"
	"github.com/tu-usuario/etims-bridge/internal/domain/repository"
)

// ReceiptPDFUseCase genera la representación gráfica del recibo fiscal de una
// factura ya aceptada por la KRA (incluye el QR de verificación).
type ReceiptPDFUseCase struct {
	invoices repository.SalesInvoiceRepository
	resolver *SettingsResolver
	pdf      ReceiptPDFGenerator
}

// NewReceiptPDFUseCase construye el caso de uso.
func NewReceiptPDFUseCase(invoices repository.SalesInvoiceRepository, resolver *SettingsResolver, pdf ReceiptPDFGenerator) *ReceiptPDFUseCase {
	return &ReceiptPDFUseCase{invoices: invoices, resolver: resolver, pdf: pdf}
}

// Generate renderiza el PDF del recibo. Solo facturas SUBMITTED tienen recibo.
func (uc *ReceiptPDFUseCase) Generate(ctx context.Context, invoiceID string) ([]byte, error) {
	inv, err := uc.invoices.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, domain.ErrNotFound
	}
	if inv.SubmissionStatus != entity.SubmissionStatusSubmitted {
		return nil, fmt.Errorf("%w: la factura %s no tiene envío aceptado (estado %s)",
			domain.ErrInvalidInput, inv.Name, inv.SubmissionStatus)
	}

	items, err := uc.invoices.GetItemsByInvoiceID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	setting, err := uc.resolver.Resolve(ctx, inv.Company, inv.BranchID)
	if err != nil {
		return nil, err
	}

	return uc.pdf.Render(inv, items, setting)
}
