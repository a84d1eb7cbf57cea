package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/etims-bridge/internal/application/auth"
	appetims "github.com/tu-usuario/etims-bridge/internal/application/etims"
	"github.com/tu-usuario/etims-bridge/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	SettingsUC    *appetims.SettingsUseCase
	RoutesUC      *appetims.RouteRegistryUseCase
	Allocator     *appetims.SequenceAllocator
	CreateInvoice *appetims.CreateInvoiceUseCase
	SubmitInvoice *appetims.SubmitInvoiceUseCase
	ReceiptPDF    *appetims.ReceiptPDFUseCase
	AuthUC        *auth.AuthUseCase
	JWTSecret     string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (público)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Configuración eTims (protegido; crear settings es solo admin)
	settingHandler := NewSettingHandler(deps.SettingsUC, deps.RoutesUC, deps.Allocator)
	etimsGroup := protected.Group("/etims")
	etimsGroup.Post("/settings", RequireRole(entity.RoleAdmin), settingHandler.CreateSetting)
	etimsGroup.Get("/settings", settingHandler.ListSettings)
	etimsGroup.Get("/routes", settingHandler.ListRoutes)
	etimsGroup.Get("/sequence", settingHandler.PeekSequence)

	// Facturas y envío fiscal (protegido)
	invoices := protected.Group("/invoices")
	invoiceHandler := NewInvoiceHandler(deps.CreateInvoice, deps.SubmitInvoice, deps.ReceiptPDF)
	invoices.Post("/", invoiceHandler.Create)
	invoices.Get("/:id", invoiceHandler.GetByID)
	invoices.Post("/:id/submit", invoiceHandler.Submit)
	invoices.Get("/:id/receipt.pdf", invoiceHandler.ReceiptPDF)
}
