package repository

import (
	"context"

	"github.com/tu-usuario/etims-bridge/internal/domain/entity"
)

// SalesInvoiceRepository define el puerto de persistencia para facturas de
// venta y sus líneas.
type SalesInvoiceRepository interface {
	Create(ctx context.Context, invoice *entity.SalesInvoice) error
	CreateItem(ctx context.Context, item *entity.SalesInvoiceItem) error
	GetByID(ctx context.Context, id string) (*entity.SalesInvoice, error)
	GetItemsByInvoiceID(ctx context.Context, invoiceID string) ([]*entity.SalesInvoiceItem, error)
	ListByCompany(ctx context.Context, company string, limit, offset int) ([]*entity.SalesInvoice, error)

	// UpdateSubmission actualiza solo el bookkeeping del envío fiscal:
	// submission_status, submission_sequence, scu_*, submitted_at, qr_data,
	// submission_errors.
	UpdateSubmission(ctx context.Context, invoice *entity.SalesInvoice) error
}
