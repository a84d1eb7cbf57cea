// seed_etims siembra el registro de rutas eTims (operación lógica -> path
// versionado del API) y, opcionalmente, un setting de Sandbox para poder
// probar de punta a punta. La siembra es idempotente: correrla dos veces
// deja el mismo registro.
//
// Uso: go run ./cmd/seed_etims
// Requiere las mismas variables de entorno de DB que cmd/api. El setting de
// Sandbox solo se crea si SEED_COMPANY, SEED_TIN, SEED_CMC_KEY y
// SEED_SERVER_URL están definidas.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tu-usuario/etims-bridge/internal/domain/entity"
	"github.com/tu-usuario/etims-bridge/internal/infrastructure/postgres"
	"github.com/tu-usuario/etims-bridge/pkg/config"
	"github.com/tu-usuario/etims-bridge/pkg/etims"
)

// Paths del API eTims por operación lógica. Los paths llevan exactamente un
// slash inicial; el server URL del setting no lleva slash final.
var routeSeeds = map[string]string{
	entity.OpSaveSales:      "/trnsSales/saveSales",
	entity.OpInsertItem:     "/items/saveItems",
	entity.OpSelectCustomer: "/customers/selectCustomer",
	entity.OpSelectInitInfo: "/initializer/selectInitInfo",
	entity.OpSelectCodes:    "/code/selectCodes",
	entity.OpSaveStockIO:    "/stock/saveStockItems",
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cargar configuración: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "conexión a PostgreSQL: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	repo := postgres.NewRouteRepository(pool)
	now := time.Now()
	for operation, path := range routeSeeds {
		route := &entity.Route{
			ID:        uuid.New().String(),
			Operation: operation,
			URLPath:   etims.NormalizePath(path),
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := repo.Upsert(ctx, route); err != nil {
			fmt.Fprintf(os.Stderr, "sembrar ruta %q: %v\n", operation, err)
			os.Exit(1)
		}
		fmt.Printf("ruta %-18q -> %s\n", operation, route.URLPath)
	}
	fmt.Println("registro de rutas eTims sembrado")

	if err := seedSandboxSetting(ctx, pool); err != nil {
		fmt.Fprintf(os.Stderr, "sembrar setting Sandbox: %v\n", err)
		os.Exit(1)
	}
}

// seedSandboxSetting crea el setting activo de Sandbox para la tripleta
// (SEED_COMPANY, Sandbox, SEED_BRANCH_ID) si no existe ya uno. El contador de
// ventas arranca en 0; el primer envío recibe el número 1.
func seedSandboxSetting(ctx context.Context, pool *pgxpool.Pool) error {
	company := os.Getenv("SEED_COMPANY")
	tin := os.Getenv("SEED_TIN")
	cmcKey := os.Getenv("SEED_CMC_KEY")
	serverURL := os.Getenv("SEED_SERVER_URL")
	if company == "" || tin == "" || cmcKey == "" || serverURL == "" {
		fmt.Println("setting Sandbox omitido (SEED_COMPANY/SEED_TIN/SEED_CMC_KEY/SEED_SERVER_URL sin definir)")
		return nil
	}
	if !etims.IsValidKRAPIN(tin) {
		return fmt.Errorf("SEED_TIN %q no es un PIN KRA válido", tin)
	}
	if !etims.IsValidURL(serverURL) {
		return fmt.Errorf("SEED_SERVER_URL %q no es una URL válida", serverURL)
	}
	branchID := os.Getenv("SEED_BRANCH_ID")
	if branchID == "" {
		branchID = entity.DefaultBranchID
	}

	repo := postgres.NewEnvironmentSettingRepository(pool)
	existing, err := repo.FindActive(ctx, company, entity.EnvironmentSandbox, branchID)
	if err != nil {
		return err
	}
	if existing != nil {
		fmt.Printf("setting Sandbox ya existe para %q sucursal %q\n", company, branchID)
		return nil
	}

	now := time.Now()
	setting := &entity.EnvironmentSetting{
		ID:                    uuid.New().String(),
		Company:               company,
		BranchID:              branchID,
		Environment:           entity.EnvironmentSandbox,
		ServerURL:             strings.TrimRight(serverURL, "/"),
		TIN:                   tin,
		CommunicationKey:      cmcKey,
		MostRecentSalesNumber: 0,
		IsActive:              true,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if err := repo.Create(ctx, setting); err != nil {
		return err
	}
	fmt.Printf("setting Sandbox creado para %q sucursal %q\n", company, branchID)
	return nil
}
