package etims

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tu-usuario/etims-bridge/internal/application/dto"
	"github.com/tu-usuario/etims-bridge/internal/domain"
	"github.com/tu-usuario/etims-bridge/internal/domain/entity"
	"github.com/tu-usuario/etims-bridge/internal/domain/repository"
	pkgetims "github.com/tu-usuario/etims-bridge/pkg/etims"
)

// CreateInvoiceUseCase registra una factura interna con sus líneas en una
// sola transacción, en estado PENDING (sin enviar).
type CreateInvoiceUseCase struct {
	txRunner SalesTxRunner
	invoices repository.SalesInvoiceRepository
}

// NewCreateInvoiceUseCase construye el caso de uso.
func NewCreateInvoiceUseCase(txRunner SalesTxRunner, invoices repository.SalesInvoiceRepository) *CreateInvoiceUseCase {
	return &CreateInvoiceUseCase{txRunner: txRunner, invoices: invoices}
}

// Create valida y persiste la factura con sus líneas (atómico).
func (uc *CreateInvoiceUseCase) Create(ctx context.Context, in dto.CreateInvoiceRequest) (*dto.InvoiceResponse, error) {
	if in.Company == "" || in.Name == "" || len(in.Items) == 0 {
		return nil, domain.ErrInvalidInput
	}
	if in.CustomerPIN != "" && !pkgetims.IsValidKRAPIN(in.CustomerPIN) {
		return nil, fmt.Errorf("%w: PIN de cliente %q no tiene forma de PIN KRA", domain.ErrInvalidInput, in.CustomerPIN)
	}
	if _, err := pkgetims.CombinePostingDateTime(in.PostingDate, in.PostingTime); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	for i, item := range in.Items {
		if item.Quantity.IsZero() {
			return nil, fmt.Errorf("%w: línea %d con cantidad cero", domain.ErrInvalidInput, i+1)
		}
	}

	branchID := in.BranchID
	if branchID == "" {
		branchID = entity.DefaultBranchID
	}

	now := time.Now()
	inv := &entity.SalesInvoice{
		ID:                      uuid.New().String(),
		Company:                 in.Company,
		BranchID:                branchID,
		Name:                    in.Name,
		CustomerName:            in.CustomerName,
		CustomerPIN:             in.CustomerPIN,
		PostingDate:             in.PostingDate,
		PostingTime:             in.PostingTime,
		PaymentTypeCode:         in.PaymentTypeCode,
		TransactionProgressCode: in.TransactionProgressCode,
		BaseNetTotal:            in.BaseNetTotal,
		TotalTaxesAndCharges:    in.TotalTaxesAndCharges,
		TaxableAmountA:          in.TaxableAmounts.A,
		TaxableAmountB:          in.TaxableAmounts.B,
		TaxableAmountC:          in.TaxableAmounts.C,
		TaxableAmountD:          in.TaxableAmounts.D,
		TaxableAmountE:          in.TaxableAmounts.E,
		TaxAmountA:              in.TaxAmounts.A,
		TaxAmountB:              in.TaxAmounts.B,
		TaxAmountC:              in.TaxAmounts.C,
		TaxAmountD:              in.TaxAmounts.D,
		TaxAmountE:              in.TaxAmounts.E,
		ReturnAgainst:           in.ReturnAgainst,
		SubmissionStatus:        entity.SubmissionStatusPending,
		CreatedAt:               now,
		UpdatedAt:               now,
	}

	items := make([]*entity.SalesInvoiceItem, len(in.Items))
	for i, it := range in.Items {
		items[i] = &entity.SalesInvoiceItem{
			ID:              uuid.New().String(),
			InvoiceID:       inv.ID,
			Seq:             i + 1,
			ItemCode:        it.ItemCode,
			Classification:  it.Classification,
			Name:            it.Name,
			Barcode:         it.Barcode,
			PackagingUnitCd: it.PackagingUnitCd,
			QuantityUnitCd:  it.QuantityUnitCd,
			Quantity:        it.Quantity,
			BaseRate:        it.BaseRate,
			DiscountPercent: it.DiscountPercent,
			DiscountAmount:  it.DiscountAmount,
			TaxationTypeCd:  it.TaxationTypeCd,
			TaxableTotal:    it.TaxableTotal,
			TaxBreakup:      it.TaxBreakup,
		}
	}

	err := uc.txRunner.RunSales(ctx, func(invoiceRepo repository.SalesInvoiceRepository) error {
		if err := invoiceRepo.Create(ctx, inv); err != nil {
			return err
		}
		for _, item := range items {
			if err := invoiceRepo.CreateItem(ctx, item); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return toInvoiceResponse(inv, items), nil
}

// GetInvoice devuelve la factura con sus líneas.
func (uc *CreateInvoiceUseCase) GetInvoice(ctx context.Context, id string) (*dto.InvoiceResponse, error) {
	inv, err := uc.invoices.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, domain.ErrNotFound
	}
	items, err := uc.invoices.GetItemsByInvoiceID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toInvoiceResponse(inv, items), nil
}

func toInvoiceResponse(inv *entity.SalesInvoice, items []*entity.SalesInvoiceItem) *dto.InvoiceResponse {
	resp := &dto.InvoiceResponse{
		ID:                 inv.ID,
		Company:            inv.Company,
		BranchID:           inv.BranchID,
		Name:               inv.Name,
		CustomerName:       inv.CustomerName,
		CustomerPIN:        inv.CustomerPIN,
		PostingDate:        inv.PostingDate,
		BaseNetTotal:       inv.BaseNetTotal,
		TotalTaxes:         inv.TotalTaxesAndCharges,
		SubmissionStatus:   inv.SubmissionStatus,
		SubmissionSequence: inv.SubmissionSequence,
		SCUID:              inv.SCUID,
		QRData:             inv.QRData,
		SubmissionErrors:   inv.SubmissionErrors,
		SubmittedAt:        inv.SubmittedAt,
	}
	for _, it := range items {
		resp.Items = append(resp.Items, dto.InvoiceItemResponse{
			Seq:            it.Seq,
			ItemCode:       it.ItemCode,
			Name:           it.Name,
			Quantity:       it.Quantity,
			BaseRate:       it.BaseRate,
			TaxationTypeCd: it.TaxationTypeCd,
			TaxableTotal:   it.TaxableTotal,
		})
	}
	return resp
}
