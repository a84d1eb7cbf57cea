package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/tu-usuario/etims-bridge/internal/domain"
	"github.com/tu-usuario/etims-bridge/internal/domain/entity"
	"github.com/tu-usuario/etims-bridge/internal/domain/repository"
)

var _ repository.EnvironmentSettingRepository = (*EnvironmentSettingRepo)(nil)

// EnvironmentSettingRepo implementación del puerto EnvironmentSettingRepository
// sobre PostgreSQL. La fila del setting activo es el punto de serialización
// del contador de ventas.
type EnvironmentSettingRepo struct {
	q Querier
}

// NewEnvironmentSettingRepository construye el adaptador. Pasar pool o tx (Querier).
func NewEnvironmentSettingRepository(q Querier) *EnvironmentSettingRepo {
	return &EnvironmentSettingRepo{q: q}
}

const settingColumns = `id, company, branch_id, environment, server_url, tin,
	device_serial_no, communication_key, COALESCE(most_recent_sales_number, -1),
	is_active, created_at, updated_at`

// Create persiste un nuevo setting.
func (r *EnvironmentSettingRepo) Create(ctx context.Context, s *entity.EnvironmentSetting) error {
	query := `
		INSERT INTO environment_settings
			(id, company, branch_id, environment, server_url, tin, device_serial_no,
			 communication_key, most_recent_sales_number, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.Exec(ctx, query,
		s.ID, s.Company, s.BranchID, s.Environment, s.ServerURL, s.TIN,
		nullIfEmpty(s.DeviceSerialNo), s.CommunicationKey, s.MostRecentSalesNumber,
		s.IsActive, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert environment setting: %w", err)
	}
	return nil
}

// FindActive devuelve el único setting activo de la tripleta, o nil si no hay.
// El índice único parcial sobre (company, environment, branch_id) WHERE
// is_active garantiza a lo sumo una fila.
func (r *EnvironmentSettingRepo) FindActive(ctx context.Context, company, environment, branchID string) (*entity.EnvironmentSetting, error) {
	query := `
		SELECT ` + settingColumns + `
		FROM environment_settings
		WHERE company = $1 AND environment = $2 AND branch_id = $3 AND is_active`
	s, err := r.scanOne(r.q.QueryRow(ctx, query, company, environment, branchID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find active setting: %w", err)
	}
	return s, nil
}

// ListByCompany lista todos los settings de una company (activos o no).
func (r *EnvironmentSettingRepo) ListByCompany(ctx context.Context, company string) ([]*entity.EnvironmentSetting, error) {
	query := `
		SELECT ` + settingColumns + `
		FROM environment_settings
		WHERE company = $1
		ORDER BY environment, branch_id, created_at DESC`
	rows, err := r.q.Query(ctx, query, company)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()
	var list []*entity.EnvironmentSetting
	for rows.Next() {
		s, err := r.scanOne(rows)
		if err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

// AllocateNextSalesNumber incrementa el contador del setting activo en una
// sola sentencia y devuelve el valor asignado. El UPDATE toma row lock sobre
// la fila, de modo que asignaciones concurrentes para la misma tripleta se
// serializan y cada caller recibe un número distinto. El predicado
// most_recent_sales_number >= 0 excluye settings sin contador inicializado.
func (r *EnvironmentSettingRepo) AllocateNextSalesNumber(ctx context.Context, company, environment, branchID string) (int64, error) {
	query := `
		UPDATE environment_settings
		SET most_recent_sales_number = most_recent_sales_number + 1,
		    updated_at = NOW()
		WHERE company = $1 AND environment = $2 AND branch_id = $3
		  AND is_active AND most_recent_sales_number >= 0
		RETURNING most_recent_sales_number`
	var next int64
	err := r.q.QueryRow(ctx, query, company, environment, branchID).Scan(&next)
	if err == nil {
		return next, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("allocate sales number: %w", err)
	}

	// Cero filas: distinguir "no hay setting activo" de "contador sin inicializar".
	existing, ferr := r.FindActive(ctx, company, environment, branchID)
	if ferr != nil {
		return 0, ferr
	}
	if existing == nil {
		return 0, fmt.Errorf("%w: company=%s environment=%s branch=%s",
			domain.ErrConfigurationMissing, company, environment, branchID)
	}
	return 0, fmt.Errorf("%w: setting %s sin contador de ventas inicializado",
		domain.ErrSequenceUnavailable, existing.ID)
}

// Update actualiza los campos mutables del setting.
func (r *EnvironmentSettingRepo) Update(ctx context.Context, s *entity.EnvironmentSetting) error {
	query := `
		UPDATE environment_settings
		SET server_url = $2, tin = $3, device_serial_no = $4, communication_key = $5,
		    most_recent_sales_number = $6, is_active = $7, updated_at = $8
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		s.ID, s.ServerURL, s.TIN, nullIfEmpty(s.DeviceSerialNo), s.CommunicationKey,
		s.MostRecentSalesNumber, s.IsActive, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update environment setting: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *EnvironmentSettingRepo) scanOne(row pgx.Row) (*entity.EnvironmentSetting, error) {
	var s entity.EnvironmentSetting
	var deviceSerial *string
	err := row.Scan(
		&s.ID, &s.Company, &s.BranchID, &s.Environment, &s.ServerURL, &s.TIN,
		&deviceSerial, &s.CommunicationKey, &s.MostRecentSalesNumber,
		&s.IsActive, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if deviceSerial != nil {
		s.DeviceSerialNo = *deviceSerial
	}
	return &s, nil
}
