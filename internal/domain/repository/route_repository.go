package repository

import (
	"context"
	"time"

	"github.com/tu-usuario/etims-bridge/internal/domain/entity"
)

// RouteRepository define el puerto de persistencia para el registro de rutas
// eTims (operación lógica -> path + last-request).
type RouteRepository interface {
	// Upsert inserta o actualiza la ruta por operación (siembra idempotente).
	Upsert(ctx context.Context, route *entity.Route) error

	// FindByOperation busca por clave lógica, case-sensitive. Devuelve nil si
	// no existe; a lo sumo un match.
	FindByOperation(ctx context.Context, operation string) (*entity.Route, error)

	List(ctx context.Context) ([]*entity.Route, error)

	// RecordRequest persiste el timestamp del último request exitoso sobre la
	// ruta identificada por su path normalizado. Last-write-wins.
	RecordRequest(ctx context.Context, urlPath string, at time.Time) error
}
