package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/tu-usuario/etims-bridge/internal/domain"
	"github.com/tu-usuario/etims-bridge/internal/domain/entity"
	"github.com/tu-usuario/etims-bridge/internal/domain/repository"
)

var _ repository.SalesInvoiceRepository = (*SalesInvoiceRepo)(nil)

// SalesInvoiceRepo implementación del puerto SalesInvoiceRepository sobre
// PostgreSQL. El desglose de impuestos de cada línea se guarda como JSONB.
type SalesInvoiceRepo struct {
	q Querier
}

// NewSalesInvoiceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSalesInvoiceRepository(q Querier) *SalesInvoiceRepo {
	return &SalesInvoiceRepo{q: q}
}

const invoiceColumns = `id, company, branch_id, name, customer_name, COALESCE(customer_pin, ''),
	posting_date, posting_time, payment_type_code, transaction_progress_code,
	base_net_total, total_taxes_and_charges,
	taxable_amount_a, taxable_amount_b, taxable_amount_c, taxable_amount_d, taxable_amount_e,
	tax_amount_a, tax_amount_b, tax_amount_c, tax_amount_d, tax_amount_e,
	COALESCE(return_against, ''), COALESCE(owner, ''), COALESCE(modified_by, ''),
	submission_status, submission_sequence, COALESCE(scu_id, ''),
	COALESCE(scu_receipt_signature, ''), COALESCE(scu_internal_data, ''),
	submitted_at, COALESCE(qr_data, ''), COALESCE(submission_errors, ''),
	created_at, updated_at`

// Create persiste la cabecera de una factura.
func (r *SalesInvoiceRepo) Create(ctx context.Context, inv *entity.SalesInvoice) error {
	query := `
		INSERT INTO sales_invoices
			(id, company, branch_id, name, customer_name, customer_pin,
			 posting_date, posting_time, payment_type_code, transaction_progress_code,
			 base_net_total, total_taxes_and_charges,
			 taxable_amount_a, taxable_amount_b, taxable_amount_c, taxable_amount_d, taxable_amount_e,
			 tax_amount_a, tax_amount_b, tax_amount_c, tax_amount_d, tax_amount_e,
			 return_against, owner, modified_by,
			 submission_status, submission_sequence, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			 $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22,
			 $23, $24, $25, $26, $27, $28, $29)`
	_, err := r.q.Exec(ctx, query,
		inv.ID, inv.Company, inv.BranchID, inv.Name, inv.CustomerName, nullIfEmpty(inv.CustomerPIN),
		inv.PostingDate, inv.PostingTime, inv.PaymentTypeCode, inv.TransactionProgressCode,
		inv.BaseNetTotal, inv.TotalTaxesAndCharges,
		inv.TaxableAmountA, inv.TaxableAmountB, inv.TaxableAmountC, inv.TaxableAmountD, inv.TaxableAmountE,
		inv.TaxAmountA, inv.TaxAmountB, inv.TaxAmountC, inv.TaxAmountD, inv.TaxAmountE,
		nullIfEmpty(inv.ReturnAgainst), nullIfEmpty(inv.Owner), nullIfEmpty(inv.ModifiedBy),
		inv.SubmissionStatus, inv.SubmissionSequence, inv.CreatedAt, inv.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert sales invoice: %w", err)
	}
	return nil
}

// CreateItem persiste una línea de factura. TaxBreakup va como JSONB.
func (r *SalesInvoiceRepo) CreateItem(ctx context.Context, item *entity.SalesInvoiceItem) error {
	breakup, err := json.Marshal(item.TaxBreakup)
	if err != nil {
		return fmt.Errorf("marshal tax breakup: %w", err)
	}
	query := `
		INSERT INTO sales_invoice_items
			(id, invoice_id, seq, item_code, classification, name, barcode,
			 packaging_unit_cd, quantity_unit_cd, quantity, base_rate,
			 discount_percent, discount_amount, taxation_type_cd, taxable_total, tax_breakup)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	_, err = r.q.Exec(ctx, query,
		item.ID, item.InvoiceID, item.Seq, nullIfEmpty(item.ItemCode), item.Classification,
		item.Name, nullIfEmpty(item.Barcode), item.PackagingUnitCd, item.QuantityUnitCd,
		item.Quantity, item.BaseRate, item.DiscountPercent, item.DiscountAmount,
		item.TaxationTypeCd, item.TaxableTotal, breakup,
	)
	if err != nil {
		return fmt.Errorf("insert sales invoice item: %w", err)
	}
	return nil
}

// GetByID obtiene la cabecera por ID. Nil si no existe.
func (r *SalesInvoiceRepo) GetByID(ctx context.Context, id string) (*entity.SalesInvoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM sales_invoices WHERE id = $1`
	inv, err := scanInvoice(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get sales invoice: %w", err)
	}
	return inv, nil
}

// GetItemsByInvoiceID devuelve las líneas ordenadas por seq.
func (r *SalesInvoiceRepo) GetItemsByInvoiceID(ctx context.Context, invoiceID string) ([]*entity.SalesInvoiceItem, error) {
	query := `
		SELECT id, invoice_id, seq, COALESCE(item_code, ''), classification, name,
		       COALESCE(barcode, ''), packaging_unit_cd, quantity_unit_cd,
		       quantity, base_rate, discount_percent, discount_amount,
		       taxation_type_cd, taxable_total, tax_breakup
		FROM sales_invoice_items WHERE invoice_id = $1 ORDER BY seq`
	rows, err := r.q.Query(ctx, query, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("list invoice items: %w", err)
	}
	defer rows.Close()
	var items []*entity.SalesInvoiceItem
	for rows.Next() {
		var it entity.SalesInvoiceItem
		var breakup []byte
		if err := rows.Scan(
			&it.ID, &it.InvoiceID, &it.Seq, &it.ItemCode, &it.Classification, &it.Name,
			&it.Barcode, &it.PackagingUnitCd, &it.QuantityUnitCd,
			&it.Quantity, &it.BaseRate, &it.DiscountPercent, &it.DiscountAmount,
			&it.TaxationTypeCd, &it.TaxableTotal, &breakup,
		); err != nil {
			return nil, fmt.Errorf("scan invoice item: %w", err)
		}
		if len(breakup) > 0 {
			if err := json.Unmarshal(breakup, &it.TaxBreakup); err != nil {
				return nil, fmt.Errorf("unmarshal tax breakup: %w", err)
			}
		}
		items = append(items, &it)
	}
	return items, rows.Err()
}

// ListByCompany lista facturas de una company con paginación.
func (r *SalesInvoiceRepo) ListByCompany(ctx context.Context, company string, limit, offset int) ([]*entity.SalesInvoice, error) {
	query := `
		SELECT ` + invoiceColumns + `
		FROM sales_invoices WHERE company = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, company, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list sales invoices: %w", err)
	}
	defer rows.Close()
	var list []*entity.SalesInvoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sales invoice: %w", err)
		}
		list = append(list, inv)
	}
	return list, rows.Err()
}

// UpdateSubmission actualiza únicamente el bookkeeping del envío fiscal.
func (r *SalesInvoiceRepo) UpdateSubmission(ctx context.Context, inv *entity.SalesInvoice) error {
	query := `
		UPDATE sales_invoices
		SET submission_status = $2, submission_sequence = $3, scu_id = $4,
		    scu_receipt_signature = $5, scu_internal_data = $6, submitted_at = $7,
		    qr_data = $8, submission_errors = $9, updated_at = NOW()
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		inv.ID, inv.SubmissionStatus, inv.SubmissionSequence, nullIfEmpty(inv.SCUID),
		nullIfEmpty(inv.SCUReceiptSignature), nullIfEmpty(inv.SCUInternalData), inv.SubmittedAt,
		nullIfEmpty(inv.QRData), nullIfEmpty(inv.SubmissionErrors),
	)
	if err != nil {
		return fmt.Errorf("update submission: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanInvoice(row pgx.Row) (*entity.SalesInvoice, error) {
	var inv entity.SalesInvoice
	err := row.Scan(
		&inv.ID, &inv.Company, &inv.BranchID, &inv.Name, &inv.CustomerName, &inv.CustomerPIN,
		&inv.PostingDate, &inv.PostingTime, &inv.PaymentTypeCode, &inv.TransactionProgressCode,
		&inv.BaseNetTotal, &inv.TotalTaxesAndCharges,
		&inv.TaxableAmountA, &inv.TaxableAmountB, &inv.TaxableAmountC, &inv.TaxableAmountD, &inv.TaxableAmountE,
		&inv.TaxAmountA, &inv.TaxAmountB, &inv.TaxAmountC, &inv.TaxAmountD, &inv.TaxAmountE,
		&inv.ReturnAgainst, &inv.Owner, &inv.ModifiedBy,
		&inv.SubmissionStatus, &inv.SubmissionSequence, &inv.SCUID,
		&inv.SCUReceiptSignature, &inv.SCUInternalData,
		&inv.SubmittedAt, &inv.QRData, &inv.SubmissionErrors,
		&inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}
