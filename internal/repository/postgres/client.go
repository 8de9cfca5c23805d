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

type ClientStore struct {
	pool *pgxpool.Pool
}

func NewClientStore(pool *pgxpool.Pool) *ClientStore {
	return &ClientStore{pool: pool}
}

const clientColumns = `id, tenant_id, user_id, full_name, phone, address, created_at`

func scanClient(row pgx.Row) (*models.Client, error) {
	var c models.Client
	// address is JSONB; pgx unmarshals it straight into the struct.
	if err := row.Scan(&c.ID, &c.TenantID, &c.UserID, &c.FullName, &c.Phone, &c.Address, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *ClientStore) Create(ctx context.Context, c *models.Client) (*models.Client, error) {
	query := `
		INSERT INTO clients (tenant_id, user_id, full_name, phone, address, created_at)
		VALUES ($1, $2, $3, $4, $5, now())
		RETURNING ` + clientColumns

	created, err := scanClient(s.pool.QueryRow(ctx, query, c.TenantID, c.UserID, c.FullName, c.Phone, c.Address))
	if err != nil {
		return nil, fmt.Errorf("insert client: %w", err)
	}
	return created, nil
}

func (s *ClientStore) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Client, error) {
	c, err := scanClient(s.pool.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE user_id = $1`, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get client by user: %w", err)
	}
	return c, nil
}

func (s *ClientStore) GetByID(ctx context.Context, clientID uuid.UUID) (*models.Client, error) {
	c, err := scanClient(s.pool.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = $1`, clientID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get client: %w", err)
	}
	return c, nil
}

func (s *ClientStore) UpdateProfile(ctx context.Context, c *models.Client) (*models.Client, error) {
	query := `
		UPDATE clients SET full_name = $2, phone = $3, address = $4
		WHERE id = $1
		RETURNING ` + clientColumns

	updated, err := scanClient(s.pool.QueryRow(ctx, query, c.ID, c.FullName, c.Phone, c.Address))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("update client: %w", err)
	}
	return updated, nil
}
