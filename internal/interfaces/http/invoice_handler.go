package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/etims-bridge/internal/application/dto"
	appetims "github.com/tu-usuario/etims-bridge/internal/application/etims"
	"github.com/tu-usuario/etims-bridge/internal/domain"
)

// InvoiceHandler maneja facturas de venta y su envío fiscal a eTims.
type InvoiceHandler struct {
	createUC  *appetims.CreateInvoiceUseCase
	submitUC  *appetims.SubmitInvoiceUseCase
	receiptUC *appetims.ReceiptPDFUseCase
}

// NewInvoiceHandler construye el handler.
func NewInvoiceHandler(
	createUC *appetims.CreateInvoiceUseCase,
	submitUC *appetims.SubmitInvoiceUseCase,
	receiptUC *appetims.ReceiptPDFUseCase,
) *InvoiceHandler {
	return &InvoiceHandler{createUC: createUC, submitUC: submitUC, receiptUC: receiptUC}
}

// Create registra una factura (cabecera + líneas, atómico).
// POST /api/invoices
func (h *InvoiceHandler) Create(c *fiber.Ctx) error {
	company := GetCompany(c)
	if company == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.CreateInvoiceRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if in.Company == "" {
		in.Company = company
	}
	invoice, err := h.createUC.Create(c.Context(), in)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
		}
		if errors.Is(err, domain.ErrDuplicate) {
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "DUPLICATE", Message: "ya existe una factura con ese identificador"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(invoice)
}

// GetByID obtiene una factura con su bookkeeping fiscal.
// GET /api/invoices/:id
func (h *InvoiceHandler) GetByID(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "id requerido"})
	}
	invoice, err := h.createUC.GetInvoice(c.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "factura no encontrada"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(invoice)
}

// Submit envía la factura a eTims como venta ("S") o nota crédito ("C").
// El request espera la respuesta de la KRA de forma síncrona.
// POST /api/invoices/:id/submit
func (h *InvoiceHandler) Submit(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "id requerido"})
	}
	var in dto.SubmitInvoiceRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	out, err := h.submitUC.Submit(c.Context(), id, in.Type)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
		case errors.Is(err, domain.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
		case errors.Is(err, domain.ErrDuplicate):
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "ALREADY_SUBMITTED", Message: err.Error()})
		case errors.Is(err, domain.ErrConfigurationMissing):
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFIG_MISSING", Message: err.Error()})
		case errors.Is(err, domain.ErrSequenceUnavailable):
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "SEQUENCE_UNAVAILABLE", Message: err.Error()})
		case errors.Is(err, domain.ErrRouteNotFound):
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "ROUTE_NOT_FOUND", Message: err.Error()})
		case errors.Is(err, domain.ErrUnknownTaxCategory):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{Code: "UNKNOWN_TAX_CATEGORY", Message: err.Error()})
		default:
			// Fallos de transporte contra el API eTims: la factura queda en
			// estado ERROR y el caller puede reintentar.
			return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{Code: "ETIMS_UNREACHABLE", Message: err.Error()})
		}
	}
	return c.JSON(out)
}

// ReceiptPDF descarga la representación gráfica del recibo fiscal.
// GET /api/invoices/:id/receipt.pdf
func (h *InvoiceHandler) ReceiptPDF(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "id requerido"})
	}
	pdfBytes, err := h.receiptUC.Generate(c.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "factura no encontrada"})
		}
		if errors.Is(err, domain.ErrInvalidInput) {
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "NOT_SUBMITTED", Message: err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="receipt-`+id+`.pdf"`)
	return c.Send(pdfBytes)
}
