package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lalith-99/deliverypro/internal/models"
)

type BillingStore struct {
	pool *pgxpool.Pool
}

func NewBillingStore(pool *pgxpool.Pool) *BillingStore {
	return &BillingStore{pool: pool}
}

const billingColumns = `id, tenant_id, billing_type, value, active, updated_at`

func scanBilling(row pgx.Row) (*models.BillingConfig, error) {
	var b models.BillingConfig
	if err := row.Scan(&b.ID, &b.TenantID, &b.BillingType, &b.Value, &b.Active, &b.UpdatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *BillingStore) GetActive(ctx context.Context, tenantID uuid.UUID) (*models.BillingConfig, error) {
	query := `
		SELECT ` + billingColumns + `
		FROM billing_configs
		WHERE tenant_id = $1 AND active`

	b, err := scanBilling(s.pool.QueryRow(ctx, query, tenantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get billing config: %w", err)
	}
	return b, nil
}

// Upsert relies on the partial unique index billing_configs_one_active
// (tenant_id WHERE active) so a tenant never ends up with two active rows.
func (s *BillingStore) Upsert(ctx context.Context, cfg *models.BillingConfig) (*models.BillingConfig, error) {
	query := `
		INSERT INTO billing_configs (tenant_id, billing_type, value, active, updated_at)
		VALUES ($1, $2, $3, true, now())
		ON CONFLICT (tenant_id) WHERE active
		DO UPDATE SET billing_type = EXCLUDED.billing_type,
		              value        = EXCLUDED.value,
		              updated_at   = now()
		RETURNING ` + billingColumns

	b, err := scanBilling(s.pool.QueryRow(ctx, query, cfg.TenantID, cfg.BillingType, cfg.Value))
	if err != nil {
		return nil, fmt.Errorf("upsert billing config: %w", err)
	}
	return b, nil
}
