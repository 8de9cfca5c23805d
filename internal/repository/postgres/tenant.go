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

type TenantStore struct {
	pool *pgxpool.Pool
}

func NewTenantStore(pool *pgxpool.Pool) *TenantStore {
	return &TenantStore{pool: pool}
}

const tenantColumns = `id, name, legal_id, email, phone, domain, status, plan, primary_color, secondary_color, created_at`

func scanTenant(row pgx.Row) (*models.Tenant, error) {
	var t models.Tenant
	err := row.Scan(
		&t.ID,
		&t.Name,
		&t.LegalID,
		&t.Email,
		&t.Phone,
		&t.Domain,
		&t.Status,
		&t.Plan,
		&t.PrimaryColor,
		&t.SecondaryColor,
		&t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *TenantStore) Create(ctx context.Context, t *models.Tenant) (*models.Tenant, error) {
	query := `
		INSERT INTO tenants (name, legal_id, email, phone, domain, status, plan, primary_color, secondary_color, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
		RETURNING ` + tenantColumns

	created, err := scanTenant(s.pool.QueryRow(ctx, query,
		t.Name, t.LegalID, t.Email, t.Phone, t.Domain, t.Status, t.Plan, t.PrimaryColor, t.SecondaryColor,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("insert tenant: %w", repository.ErrConflict)
		}
		return nil, fmt.Errorf("insert tenant: %w", err)
	}
	return created, nil
}

func (s *TenantStore) GetByID(ctx context.Context, tenantID uuid.UUID) (*models.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE id = $1`

	t, err := scanTenant(s.pool.QueryRow(ctx, query, tenantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get tenant: %w", err)
	}
	return t, nil
}

func (s *TenantStore) GetByDomain(ctx context.Context, domain string) (*models.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE domain = $1`

	t, err := scanTenant(s.pool.QueryRow(ctx, query, domain))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get tenant by domain: %w", err)
	}
	return t, nil
}

func (s *TenantStore) List(ctx context.Context, onlyActive bool) ([]models.Tenant, error) {
	q := psql.Select(tenantColumns).From("tenants").OrderBy("name")
	if onlyActive {
		q = q.Where("status = ?", models.TenantActive)
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build tenant query: %w", err)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	defer rows.Close()

	tenants := make([]models.Tenant, 0)
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tenant: %w", err)
		}
		tenants = append(tenants, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tenants: %w", err)
	}
	return tenants, nil
}

func (s *TenantStore) UpdateStatus(ctx context.Context, tenantID uuid.UUID, status models.TenantStatus) (*models.Tenant, error) {
	query := `
		UPDATE tenants SET status = $2
		WHERE id = $1
		RETURNING ` + tenantColumns

	t, err := scanTenant(s.pool.QueryRow(ctx, query, tenantID, status))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("update tenant status: %w", err)
	}
	return t, nil
}
