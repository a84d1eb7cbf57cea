package entity

import "time"

// Ambientes eTims válidos.
const (
	EnvironmentSandbox    = "Sandbox"
	EnvironmentProduction = "Production"
)

// DefaultBranchID es el bhfid de la casa matriz; se usa cuando el caller no indica sucursal.
const DefaultBranchID = "00"

// EnvironmentSetting representa la configuración eTims de una
// (company, sucursal, ambiente). A lo sumo un registro activo por tripleta;
// la resolución falla si no hay ninguno.
//
// El contador MostRecentSalesNumber es el único estado mutable compartido del
// sistema: solo lo incrementa el asignador de secuencia, de forma atómica
// sobre la fila (ver postgres.EnvironmentSettingRepo.AllocateNextSalesNumber).
type EnvironmentSetting struct {
	ID                    string
	Company               string
	BranchID              string // bhfid
	Environment           string // Sandbox | Production
	ServerURL             string
	TIN                   string // PIN del contribuyente ante la KRA
	DeviceSerialNo        string // dvcsrlno del dispositivo OSCU/VSCU
	CommunicationKey      string // cmcKey entregado por la KRA al registrar el dispositivo
	MostRecentSalesNumber int64  // último invcNo confirmado; negativo = sin inicializar
	IsActive              bool
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// HasSalesCounter indica si el contador de ventas es utilizable.
// Un valor negativo significa que el setting nunca fue inicializado y la
// asignación de números no está disponible.
func (s *EnvironmentSetting) HasSalesCounter() bool {
	return s.MostRecentSalesNumber >= 0
}
