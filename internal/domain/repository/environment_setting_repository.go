package repository

import (
	"context"

	"github.com/tu-usuario/etims-bridge/internal/domain/entity"
)

// EnvironmentSettingRepository define el puerto de persistencia para la
// configuración eTims por (company, environment, branch).
type EnvironmentSettingRepository interface {
	Create(ctx context.Context, setting *entity.EnvironmentSetting) error

	// FindActive devuelve el único setting activo para la tripleta, o nil si
	// no existe. Es la consulta crítica del pipeline: sin setting activo no
	// hay servidor, credenciales ni contador de ventas.
	FindActive(ctx context.Context, company, environment, branchID string) (*entity.EnvironmentSetting, error)

	ListByCompany(ctx context.Context, company string) ([]*entity.EnvironmentSetting, error)

	// AllocateNextSalesNumber incrementa atómicamente el contador del setting
	// activo y devuelve el número asignado. La fila serializa asignaciones
	// concurrentes para la misma tripleta; dos callers nunca reciben el mismo
	// número. Retorna domain.ErrSequenceUnavailable si el contador no está
	// inicializado y domain.ErrConfigurationMissing si no hay setting activo.
	AllocateNextSalesNumber(ctx context.Context, company, environment, branchID string) (int64, error)

	Update(ctx context.Context, setting *entity.EnvironmentSetting) error
}
