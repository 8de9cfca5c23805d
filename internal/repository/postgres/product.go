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

type ProductStore struct {
	pool *pgxpool.Pool
}

func NewProductStore(pool *pgxpool.Pool) *ProductStore {
	return &ProductStore{pool: pool}
}

const productColumns = `id, tenant_id, name, description, price, stock, type, category, prepare_time_minutes, active, created_at`

func scanProduct(row pgx.Row) (*models.Product, error) {
	var p models.Product
	err := row.Scan(
		&p.ID,
		&p.TenantID,
		&p.Name,
		&p.Description,
		&p.Price,
		&p.Stock,
		&p.Type,
		&p.Category,
		&p.PrepareTimeMinutes,
		&p.Active,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *ProductStore) Create(ctx context.Context, p *models.Product) (*models.Product, error) {
	query := `
		INSERT INTO products (tenant_id, name, description, price, stock, type, category, prepare_time_minutes, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
		RETURNING ` + productColumns

	created, err := scanProduct(s.pool.QueryRow(ctx, query,
		p.TenantID, p.Name, p.Description, p.Price, p.Stock, p.Type, p.Category, p.PrepareTimeMinutes, p.Active,
	))
	if err != nil {
		return nil, fmt.Errorf("insert product: %w", err)
	}
	return created, nil
}

func (s *ProductStore) Update(ctx context.Context, p *models.Product) (*models.Product, error) {
	query := `
		UPDATE products
		SET name = $3, description = $4, price = $5, stock = $6, type = $7,
		    category = $8, prepare_time_minutes = $9, active = $10
		WHERE id = $1 AND tenant_id = $2
		RETURNING ` + productColumns

	updated, err := scanProduct(s.pool.QueryRow(ctx, query,
		p.ID, p.TenantID, p.Name, p.Description, p.Price, p.Stock, p.Type, p.Category, p.PrepareTimeMinutes, p.Active,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("update product: %w", err)
	}
	return updated, nil
}

func (s *ProductStore) GetByID(ctx context.Context, tenantID uuid.UUID, productID uuid.UUID) (*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1 AND tenant_id = $2`

	p, err := scanProduct(s.pool.QueryRow(ctx, query, productID, tenantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

func (s *ProductStore) ListByTenant(ctx context.Context, tenantID uuid.UUID, onlyAvailable bool) ([]models.Product, error) {
	q := psql.Select(productColumns).
		From("products").
		Where("tenant_id = ?", tenantID).
		OrderBy("name")
	if onlyAvailable {
		q = q.Where("active").Where("stock > 0")
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build product query: %w", err)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := make([]models.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return products, nil
}

// Delete hard-deletes the product. Order items keep their own name and
// price but still reference product_id, so a product that was ever ordered
// is switched to inactive instead and disappears from the storefront.
func (s *ProductStore) Delete(ctx context.Context, tenantID uuid.UUID, productID uuid.UUID) (bool, bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM products WHERE id = $1 AND tenant_id = $2`, productID, tenantID)
	if err == nil {
		return tag.RowsAffected() == 1, false, nil
	}
	if !isForeignKeyViolation(err) {
		return false, false, fmt.Errorf("delete product: %w", err)
	}

	tag, err = s.pool.Exec(ctx, `
		UPDATE products SET active = false
		WHERE id = $1 AND tenant_id = $2`,
		productID, tenantID,
	)
	if err != nil {
		return false, false, fmt.Errorf("archive product: %w", err)
	}
	return tag.RowsAffected() == 1, true, nil
}
