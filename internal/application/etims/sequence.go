package etims

import (
	"context"
	"fmt"

	"github.com/tu-usuario/etims-bridge/internal/domain"
	"github.com/tu-usuario/etims-bridge/internal/domain/entity"
	"github.com/tu-usuario/etims-bridge/internal/domain/repository"
)

// SequenceAllocator asigna números de factura monotónicos por
// (company, sucursal, ambiente). Expone solo Peek y AllocateNext; el
// read-modify-write vive en una sola sentencia atómica del repositorio, de
// modo que asignaciones concurrentes para la misma tripleta se serializan en
// el lock de fila y nunca producen duplicados.
//
// AllocateNext consume el número de forma durable antes del envío: un envío
// abandonado deja un hueco en la secuencia, nunca un número repetido.
type SequenceAllocator struct {
	settings      repository.EnvironmentSettingRepository
	environment   string
	defaultBranch string
}

// NewSequenceAllocator construye el asignador con el ambiente explícito.
// branchID vacío en Peek/AllocateNext usa la sucursal por defecto, igual que
// el resolver de settings.
func NewSequenceAllocator(settings repository.EnvironmentSettingRepository, environment, defaultBranch string) *SequenceAllocator {
	if defaultBranch == "" {
		defaultBranch = entity.DefaultBranchID
	}
	return &SequenceAllocator{settings: settings, environment: environment, defaultBranch: defaultBranch}
}

func (a *SequenceAllocator) branchOrDefault(branchID string) string {
	if branchID == "" {
		return a.defaultBranch
	}
	return branchID
}

// Peek devuelve el próximo número que asignaría AllocateNext, sin consumirlo.
// Solo informativo: entre Peek y AllocateNext otro caller puede consumir.
func (a *SequenceAllocator) Peek(ctx context.Context, company, branchID string) (int64, error) {
	branchID = a.branchOrDefault(branchID)
	setting, err := a.settings.FindActive(ctx, company, a.environment, branchID)
	if err != nil {
		return 0, fmt.Errorf("peek secuencia: %w", err)
	}
	if setting == nil {
		return 0, fmt.Errorf("%w para company %q, sucursal %q, ambiente %q",
			domain.ErrConfigurationMissing, company, branchID, a.environment)
	}
	if !setting.HasSalesCounter() {
		return 0, fmt.Errorf("%w: contador sin inicializar para company %q", domain.ErrSequenceUnavailable, company)
	}
	return setting.MostRecentSalesNumber + 1, nil
}

// AllocateNext incrementa el contador del setting activo y devuelve el número
// asignado. La asignación queda persistida al retornar.
func (a *SequenceAllocator) AllocateNext(ctx context.Context, company, branchID string) (int64, error) {
	n, err := a.settings.AllocateNextSalesNumber(ctx, company, a.environment, a.branchOrDefault(branchID))
	if err != nil {
		return 0, err
	}
	return n, nil
}
