package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lalith-99/deliverypro/internal/models"
	"github.com/lalith-99/deliverypro/internal/repository"
)

type DriverStore struct {
	pool *pgxpool.Pool
}

func NewDriverStore(pool *pgxpool.Pool) *DriverStore {
	return &DriverStore{pool: pool}
}

const driverColumns = `id, tenant_id, user_id, name, phone, vehicle, plate, status, created_at`

func scanDriver(row pgx.Row) (*models.Driver, error) {
	var d models.Driver
	if err := row.Scan(&d.ID, &d.TenantID, &d.UserID, &d.Name, &d.Phone, &d.Vehicle, &d.Plate, &d.Status, &d.CreatedAt); err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *DriverStore) Create(ctx context.Context, d *models.Driver) (*models.Driver, error) {
	query := `
		INSERT INTO drivers (tenant_id, user_id, name, phone, vehicle, plate, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		RETURNING ` + driverColumns

	created, err := scanDriver(s.pool.QueryRow(ctx, query,
		d.TenantID, d.UserID, d.Name, d.Phone, d.Vehicle, d.Plate, d.Status,
	))
	if err != nil {
		return nil, fmt.Errorf("insert driver: %w", err)
	}
	return created, nil
}

func (s *DriverStore) GetByID(ctx context.Context, tenantID uuid.UUID, driverID uuid.UUID) (*models.Driver, error) {
	query := `SELECT ` + driverColumns + ` FROM drivers WHERE id = $1 AND tenant_id = $2`

	d, err := scanDriver(s.pool.QueryRow(ctx, query, driverID, tenantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get driver: %w", err)
	}
	return d, nil
}

func (s *DriverStore) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Driver, error) {
	d, err := scanDriver(s.pool.QueryRow(ctx, `SELECT `+driverColumns+` FROM drivers WHERE user_id = $1`, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get driver by user: %w", err)
	}
	return d, nil
}

func (s *DriverStore) List(ctx context.Context, f repository.DriverFilter) ([]models.Driver, error) {
	q := psql.Select(driverColumns).
		From("drivers").
		Where("tenant_id = ?", f.TenantID).
		OrderBy("name")
	if f.Status != nil {
		q = q.Where("status = ?", *f.Status)
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build driver query: %w", err)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list drivers: %w", err)
	}
	defer rows.Close()

	drivers := make([]models.Driver, 0)
	for rows.Next() {
		d, err := scanDriver(rows)
		if err != nil {
			return nil, fmt.Errorf("scan driver: %w", err)
		}
		drivers = append(drivers, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate drivers: %w", err)
	}
	return drivers, nil
}

func (s *DriverStore) UpdateStatus(ctx context.Context, tenantID uuid.UUID, driverID uuid.UUID, status models.DriverStatus) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE drivers SET status = $3
		WHERE id = $1 AND tenant_id = $2`,
		driverID, tenantID, status,
	)
	if err != nil {
		return fmt.Errorf("update driver status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update driver status: driver %s not found", driverID)
	}
	return nil
}
