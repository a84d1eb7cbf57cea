package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/etims-bridge/internal/application/dto"
	appetims "github.com/tu-usuario/etims-bridge/internal/application/etims"
	"github.com/tu-usuario/etims-bridge/internal/domain"
)

// SettingHandler maneja la configuración eTims: settings por ambiente,
// registro de rutas y consulta de secuencia.
type SettingHandler struct {
	settings  *appetims.SettingsUseCase
	routes    *appetims.RouteRegistryUseCase
	allocator *appetims.SequenceAllocator
}

// NewSettingHandler construye el handler.
func NewSettingHandler(
	settings *appetims.SettingsUseCase,
	routes *appetims.RouteRegistryUseCase,
	allocator *appetims.SequenceAllocator,
) *SettingHandler {
	return &SettingHandler{settings: settings, routes: routes, allocator: allocator}
}

// CreateSetting registra un setting eTims.
// POST /api/etims/settings
func (h *SettingHandler) CreateSetting(c *fiber.Ctx) error {
	var in dto.CreateSettingRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	out, err := h.settings.Create(c.Context(), in)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
		}
		if errors.Is(err, domain.ErrDuplicate) {
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "DUPLICATE", Message: "ya existe un setting activo para esa tripleta"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// ListSettings lista los settings de la company del token.
// GET /api/etims/settings
func (h *SettingHandler) ListSettings(c *fiber.Ctx) error {
	company := GetCompany(c)
	if company == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	out, err := h.settings.ListByCompany(c.Context(), company)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(out)
}

// ListRoutes devuelve el registro de rutas eTims completo.
// GET /api/etims/routes
func (h *SettingHandler) ListRoutes(c *fiber.Ctx) error {
	routes, err := h.routes.List(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	out := make([]dto.RouteResponse, 0, len(routes))
	for _, r := range routes {
		out = append(out, dto.RouteResponse{
			Operation:     r.Operation,
			URLPath:       r.URLPath,
			LastRequestAt: r.LastRequestAt,
		})
	}
	return c.JSON(out)
}

// PeekSequence devuelve el próximo invcNo sin consumirlo (informativo).
// GET /api/etims/sequence?branch_id=00
func (h *SettingHandler) PeekSequence(c *fiber.Ctx) error {
	company := GetCompany(c)
	if company == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	branchID := c.Query("branch_id")
	next, err := h.allocator.Peek(c.Context(), company, branchID)
	if err != nil {
		if errors.Is(err, domain.ErrConfigurationMissing) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "CONFIG_MISSING", Message: err.Error()})
		}
		if errors.Is(err, domain.ErrSequenceUnavailable) {
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "SEQUENCE_UNAVAILABLE", Message: err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(fiber.Map{"next_sales_number": next})
}
