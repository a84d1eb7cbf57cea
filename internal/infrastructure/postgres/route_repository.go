package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/tu-usuario/etims-bridge/internal/domain/entity"
	"github.com/tu-usuario/etims-bridge/internal/domain/repository"
)

var _ repository.RouteRepository = (*RouteRepo)(nil)

// RouteRepo implementación del puerto RouteRepository sobre PostgreSQL.
type RouteRepo struct {
	q Querier
}

// NewRouteRepository construye el adaptador. Pasar pool o tx (Querier).
func NewRouteRepository(q Querier) *RouteRepo {
	return &RouteRepo{q: q}
}

// Upsert inserta o actualiza la ruta por su operación lógica. La siembra es
// idempotente: correr el seed dos veces deja el mismo registro.
func (r *RouteRepo) Upsert(ctx context.Context, route *entity.Route) error {
	query := `
		INSERT INTO etims_routes (id, operation, url_path, last_request_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (operation) DO UPDATE
		SET url_path = EXCLUDED.url_path, updated_at = EXCLUDED.updated_at`
	_, err := r.q.Exec(ctx, query,
		route.ID, route.Operation, route.URLPath, route.LastRequestAt,
		route.CreatedAt, route.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert route: %w", err)
	}
	return nil
}

// FindByOperation busca por clave lógica exacta (case-sensitive). Nil si no hay.
func (r *RouteRepo) FindByOperation(ctx context.Context, operation string) (*entity.Route, error) {
	query := `
		SELECT id, operation, url_path, last_request_at, created_at, updated_at
		FROM etims_routes WHERE operation = $1`
	var rt entity.Route
	err := r.q.QueryRow(ctx, query, operation).Scan(
		&rt.ID, &rt.Operation, &rt.URLPath, &rt.LastRequestAt, &rt.CreatedAt, &rt.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find route by operation: %w", err)
	}
	return &rt, nil
}

// List devuelve todas las rutas registradas.
func (r *RouteRepo) List(ctx context.Context) ([]*entity.Route, error) {
	query := `
		SELECT id, operation, url_path, last_request_at, created_at, updated_at
		FROM etims_routes ORDER BY operation`
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list routes: %w", err)
	}
	defer rows.Close()
	var list []*entity.Route
	for rows.Next() {
		var rt entity.Route
		if err := rows.Scan(&rt.ID, &rt.Operation, &rt.URLPath, &rt.LastRequestAt, &rt.CreatedAt, &rt.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan route: %w", err)
		}
		list = append(list, &rt)
	}
	return list, rows.Err()
}

// RecordRequest guarda el timestamp del último request a la ruta identificada
// por su path normalizado. Last-write-wins; si el path no existe no es error.
func (r *RouteRepo) RecordRequest(ctx context.Context, urlPath string, at time.Time) error {
	query := `
		UPDATE etims_routes SET last_request_at = $2, updated_at = NOW()
		WHERE url_path = $1`
	_, err := r.q.Exec(ctx, query, urlPath, at)
	if err != nil {
		return fmt.Errorf("record route request: %w", err)
	}
	return nil
}
