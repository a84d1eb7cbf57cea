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

// SettingsUseCase administra los registros de configuración eTims.
// El ciclo de vida completo (UI de formularios) es externo; aquí solo el
// alta mínima para operar y la consulta.
type SettingsUseCase struct {
	settings repository.EnvironmentSettingRepository
}

// NewSettingsUseCase construye el caso de uso.
func NewSettingsUseCase(settings repository.EnvironmentSettingRepository) *SettingsUseCase {
	return &SettingsUseCase{settings: settings}
}

// Create da de alta un setting. Si IsActive es true y ya existe un activo
// para la misma tripleta, el repositorio rechaza por unicidad.
func (uc *SettingsUseCase) Create(ctx context.Context, in dto.CreateSettingRequest) (*dto.SettingResponse, error) {
	if in.Company == "" || in.TIN == "" || in.CommunicationKey == "" {
		return nil, domain.ErrInvalidInput
	}
	if in.Environment != entity.EnvironmentSandbox && in.Environment != entity.EnvironmentProduction {
		return nil, fmt.Errorf("%w: ambiente %q", domain.ErrInvalidInput, in.Environment)
	}
	if !pkgetims.IsValidURL(in.ServerURL) {
		return nil, fmt.Errorf("%w: server_url %q mal formada", domain.ErrInvalidInput, in.ServerURL)
	}
	if !pkgetims.IsValidKRAPIN(in.TIN) {
		return nil, fmt.Errorf("%w: TIN %q no tiene forma de PIN KRA", domain.ErrInvalidInput, in.TIN)
	}

	branchID := in.BranchID
	if branchID == "" {
		branchID = entity.DefaultBranchID
	}

	now := time.Now()
	setting := &entity.EnvironmentSetting{
		ID:                    uuid.New().String(),
		Company:               in.Company,
		BranchID:              branchID,
		Environment:           in.Environment,
		ServerURL:             in.ServerURL,
		TIN:                   in.TIN,
		DeviceSerialNo:        in.DeviceSerialNo,
		CommunicationKey:      in.CommunicationKey,
		MostRecentSalesNumber: in.InitialSalesNo,
		IsActive:              in.IsActive,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if err := uc.settings.Create(ctx, setting); err != nil {
		return nil, err
	}
	return toSettingResponse(setting), nil
}

// ListByCompany lista todos los settings de una company (activos o no).
func (uc *SettingsUseCase) ListByCompany(ctx context.Context, company string) ([]*dto.SettingResponse, error) {
	if company == "" {
		return nil, domain.ErrInvalidInput
	}
	settings, err := uc.settings.ListByCompany(ctx, company)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.SettingResponse, len(settings))
	for i, s := range settings {
		out[i] = toSettingResponse(s)
	}
	return out, nil
}

func toSettingResponse(s *entity.EnvironmentSetting) *dto.SettingResponse {
	return &dto.SettingResponse{
		ID:                    s.ID,
		Company:               s.Company,
		BranchID:              s.BranchID,
		Environment:           s.Environment,
		ServerURL:             s.ServerURL,
		TIN:                   s.TIN,
		DeviceSerialNo:        s.DeviceSerialNo,
		MostRecentSalesNumber: s.MostRecentSalesNumber,
		IsActive:              s.IsActive,
	}
}
