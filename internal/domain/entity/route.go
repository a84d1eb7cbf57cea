package entity

import "time"

// Operaciones lógicas del registro de rutas eTims. Las claves son
// case-sensitive y se siembran una sola vez en el setup (cmd/seed_etims).
const (
	OpSaveSales      = "save sales"
	OpInsertItem     = "insert item"
	OpSelectCustomer = "select customer"
	OpSelectInitInfo = "select init info"
	OpSelectCodes    = "select codes"
	OpSaveStockIO    = "save stock io"
)

// Route asocia una operación lógica con su path versionado en el API eTims y
// lleva el timestamp del último request exitoso a ese path (bookkeeping de
// throttle, best-effort, last-write-wins).
//
// Invariante: URLPath se guarda siempre con exactamente un slash inicial
// (pkg/etims.NormalizePath); ni el builder ni el transporte agregan o quitan
// slashes por su cuenta.
type Route struct {
	ID            string
	Operation     string // clave lógica, ej: "save sales"
	URLPath       string // ej: "/trnsSales/saveSales"
	LastRequestAt *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
