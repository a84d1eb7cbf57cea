package etims

import (
	"context"
	"fmt"

	"github.com/tu-usuario/etims-bridge/internal/domain"
	"github.com/tu-usuario/etims-bridge/internal/domain/entity"
	"github.com/tu-usuario/etims-bridge/internal/domain/repository"
	"github.com/tu-usuario/etims-bridge/pkg/etims"
	"github.com/tu-usuario/etims-bridge/pkg/logger"
)

// RouteRegistryUseCase resuelve operaciones lógicas a paths del API y lleva
// el bookkeeping de throttle (last-request por ruta).
type RouteRegistryUseCase struct {
	routes repository.RouteRepository
	mirror ThrottleMirror // puede ser nil
	log    *logger.Logger
}

// NewRouteRegistryUseCase construye el caso de uso. mirror puede ser nil.
func NewRouteRegistryUseCase(routes repository.RouteRepository, mirror ThrottleMirror, log *logger.Logger) *RouteRegistryUseCase {
	return &RouteRegistryUseCase{routes: routes, mirror: mirror, log: log}
}

// Lookup resuelve la operación (case-sensitive) a su ruta registrada.
// Un miss es un defecto de setup: retorna domain.ErrRouteNotFound con la
// clave; el caller nunca debe adivinar una URL.
func (uc *RouteRegistryUseCase) Lookup(ctx context.Context, operation string) (*entity.Route, error) {
	route, err := uc.routes.FindByOperation(ctx, operation)
	if err != nil {
		return nil, fmt.Errorf("lookup ruta %q: %w", operation, err)
	}
	if route == nil {
		return nil, fmt.Errorf("%w: operación %q; ejecute la siembra de rutas (cmd/seed_etims)",
			domain.ErrRouteNotFound, operation)
	}
	return route, nil
}

// List devuelve el registro completo de rutas.
func (uc *RouteRegistryUseCase) List(ctx context.Context) ([]*entity.Route, error) {
	return uc.routes.List(ctx)
}

// RecordResponse interpreta el resultDt reportado por el API
// (yyyyMMddHHmmss) y lo persiste como last-request de la ruta, de forma
// durable y last-write-wins. El espejo redis se actualiza best-effort.
func (uc *RouteRegistryUseCase) RecordResponse(ctx context.Context, urlPath, responseStamp string) error {
	at, err := etims.ParseTimestamp(responseStamp)
	if err != nil {
		return err
	}

	path := etims.NormalizePath(urlPath)
	if err := uc.routes.RecordRequest(ctx, path, at); err != nil {
		return fmt.Errorf("persistir last-request de %s: %w", path, err)
	}

	if uc.mirror != nil {
		if err := uc.mirror.RecordRequest(ctx, path, at); err != nil {
			uc.log.Warn().Err(err).Str("path", path).Msg("espejo de throttle no actualizado")
		}
	}
	return nil
}
