package etims

import (
	"context"
	"fmt"

	"github.com/tu-usuario/etims-bridge/internal/domain"
	"github.com/tu-usuario/etims-bridge/internal/domain/entity"
	"github.com/tu-usuario/etims-bridge/internal/domain/repository"
)

// SettingsResolver resuelve el setting eTims activo para una
// (company, sucursal) en el ambiente configurado. El ambiente es un valor
// explícito inyectado al construir el resolver; nunca estado global.
type SettingsResolver struct {
	settings      repository.EnvironmentSettingRepository
	environment   string // "Sandbox" | "Production"
	defaultBranch string
}

// NewSettingsResolver construye el resolver con el toggle de ambiente.
func NewSettingsResolver(settings repository.EnvironmentSettingRepository, environment, defaultBranch string) (*SettingsResolver, error) {
	if environment != entity.EnvironmentSandbox && environment != entity.EnvironmentProduction {
		return nil, fmt.Errorf("%w: ambiente %q (usar Sandbox o Production)", domain.ErrInvalidInput, environment)
	}
	if defaultBranch == "" {
		defaultBranch = entity.DefaultBranchID
	}
	return &SettingsResolver{settings: settings, environment: environment, defaultBranch: defaultBranch}, nil
}

// Environment devuelve el ambiente con el que resuelve este resolver.
func (r *SettingsResolver) Environment() string { return r.environment }

// Resolve devuelve el único setting activo para (company, ambiente
// configurado, branch). branchID vacío usa la sucursal por defecto.
//
// Cero matches es fatal y de cara al operador: retorna
// domain.ErrConfigurationMissing identificando la tripleta ofensora. No se
// reintenta; una configuración ausente requiere corrección manual.
func (r *SettingsResolver) Resolve(ctx context.Context, company, branchID string) (*entity.EnvironmentSetting, error) {
	return r.ResolveIn(ctx, company, r.environment, branchID)
}

// ResolveIn es Resolve con ambiente explícito (para tooling que necesita
// consultar el ambiente contrario al configurado).
func (r *SettingsResolver) ResolveIn(ctx context.Context, company, environment, branchID string) (*entity.EnvironmentSetting, error) {
	if company == "" {
		return nil, fmt.Errorf("%w: company vacía", domain.ErrInvalidInput)
	}
	if environment != entity.EnvironmentSandbox && environment != entity.EnvironmentProduction {
		return nil, fmt.Errorf("%w: ambiente %q (usar Sandbox o Production)", domain.ErrInvalidInput, environment)
	}
	if branchID == "" {
		branchID = r.defaultBranch
	}

	setting, err := r.settings.FindActive(ctx, company, environment, branchID)
	if err != nil {
		return nil, fmt.Errorf("resolver setting eTims: %w", err)
	}
	if setting == nil {
		return nil, fmt.Errorf("%w para company %q, sucursal %q, ambiente %q: verifique el registro de configuración eTims",
			domain.ErrConfigurationMissing, company, branchID, environment)
	}
	return setting, nil
}

// Credentials deriva las cabeceras de autenticación del setting resuelto.
func (r *SettingsResolver) Credentials(setting *entity.EnvironmentSetting) Credentials {
	return Credentials{
		TIN:              setting.TIN,
		BranchID:         setting.BranchID,
		CommunicationKey: setting.CommunicationKey,
	}
}
