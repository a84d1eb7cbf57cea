package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/shopspring/decimal"
	"github.com/tu-usuario/etims-bridge/internal/application/auth"
	appetims "github.com/tu-usuario/etims-bridge/internal/application/etims"
	"github.com/tu-usuario/etims-bridge/internal/infrastructure/cache"
	infraetims "github.com/tu-usuario/etims-bridge/internal/infrastructure/etims"
	infrapdf "github.com/tu-usuario/etims-bridge/internal/infrastructure/pdf"
	"github.com/tu-usuario/etims-bridge/internal/infrastructure/postgres"
	httpRouter "github.com/tu-usuario/etims-bridge/internal/interfaces/http"
	"github.com/tu-usuario/etims-bridge/pkg/config"
	"github.com/tu-usuario/etims-bridge/pkg/logger"
)

func init() {
	// El API eTims espera montos como números JSON, no como strings.
	decimal.MarshalJSONWithoutQuotes = true
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("etims_env", cfg.ETims.Environment).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	userRepo := postgres.NewUserRepository(pool)
	settingRepo := postgres.NewEnvironmentSettingRepository(pool)
	routeRepo := postgres.NewRouteRepository(pool)
	invoiceRepo := postgres.NewSalesInvoiceRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	// Espejo de throttle en Redis, opcional (REDIS_ADDR vacío lo desactiva).
	var mirror appetims.ThrottleMirror
	if cfg.Redis.Addr != "" {
		redisClient, err := cache.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer redisClient.Close()
		mirror = cache.NewRedisThrottleMirror(redisClient)
	}

	resolver, err := appetims.NewSettingsResolver(settingRepo, cfg.ETims.Environment, cfg.ETims.DefaultBranchID)
	if err != nil {
		log.Fatal().Err(err).Msg("resolver de settings eTims")
	}
	allocator := appetims.NewSequenceAllocator(settingRepo, cfg.ETims.Environment, cfg.ETims.DefaultBranchID)
	routesUC := appetims.NewRouteRegistryUseCase(routeRepo, mirror, log)

	submitter := infraetims.NewClient(time.Duration(cfg.ETims.RequestTimeout) * time.Second)
	qrGen := infraetims.NewQRCodeGenerator()

	settingsUC := appetims.NewSettingsUseCase(settingRepo)
	createInvoiceUC := appetims.NewCreateInvoiceUseCase(txRunner, invoiceRepo)
	submitInvoiceUC := appetims.NewSubmitInvoiceUseCase(
		invoiceRepo, resolver, allocator, routesUC, submitter, qrGen, log,
	)
	receiptPDFUC := appetims.NewReceiptPDFUseCase(invoiceRepo, resolver, infrapdf.NewMarotoReceiptGenerator())

	authUC := auth.NewAuthUseCase(userRepo, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	app := fiber.New(fiber.Config{
		AppName: cfg.App.Name,
		// El envío a eTims es síncrono y puede tardar; el write timeout debe
		// superar el timeout del cliente HTTP hacia la KRA.
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Duration(cfg.ETims.RequestTimeout+10) * time.Second,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "eTims Bridge API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		SettingsUC:    settingsUC,
		RoutesUC:      routesUC,
		Allocator:     allocator,
		CreateInvoice: createInvoiceUC,
		SubmitInvoice: submitInvoiceUC,
		ReceiptPDF:    receiptPDFUC,
		AuthUC:        authUC,
		JWTSecret:     cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
