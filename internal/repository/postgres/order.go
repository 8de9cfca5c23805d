package postgres

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lalith-99/deliverypro/internal/models"
	"github.com/lalith-99/deliverypro/internal/repository"
)

type OrderStore struct {
	pool *pgxpool.Pool
}

func NewOrderStore(pool *pgxpool.Pool) *OrderStore {
	return &OrderStore{pool: pool}
}

const orderColumns = `id, tenant_id, client_id, assigned_driver, address, payment_method, change_for,
	status, payment_status, total, cancel_reason,
	accepted_at, preparing_at, on_way_at, at_door_at, delivered_at, created_at`

func scanOrder(row pgx.Row) (*models.Order, error) {
	var o models.Order
	err := row.Scan(
		&o.ID,
		&o.TenantID,
		&o.ClientID,
		&o.AssignedDriver,
		&o.Address,
		&o.PaymentMethod,
		&o.ChangeFor,
		&o.Status,
		&o.PaymentStatus,
		&o.Total,
		&o.CancelReason,
		&o.AcceptedAt,
		&o.PreparingAt,
		&o.OnWayAt,
		&o.AtDoorAt,
		&o.DeliveredAt,
		&o.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// CreateWithItems writes the order row and all of its items in a single
// transaction. If any item insert fails nothing is committed, so there is
// never an order without items.
func (s *OrderStore) CreateWithItems(ctx context.Context, o *models.Order, items []models.OrderItem) (*models.Order, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO orders (tenant_id, client_id, address, payment_method, change_for, status, payment_status, total, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		RETURNING ` + orderColumns

	created, err := scanOrder(tx.QueryRow(ctx, query,
		o.TenantID, o.ClientID, o.Address, o.PaymentMethod, o.ChangeFor, o.Status, o.PaymentStatus, o.Total,
	))
	if err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}

	// CopyFrom would be faster but carts are a handful of lines; a batch
	// keeps RETURNING so the response carries item IDs.
	batch := &pgx.Batch{}
	for _, it := range items {
		batch.Queue(`
			INSERT INTO order_items (order_id, product_id, name, quantity, unit_price)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, order_id, product_id, name, quantity, unit_price`,
			created.ID, it.ProductID, it.Name, it.Quantity, it.UnitPrice,
		)
	}
	results := tx.SendBatch(ctx, batch)
	created.Items = make([]models.OrderItem, 0, len(items))
	for range items {
		var it models.OrderItem
		if err := results.QueryRow().Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Name, &it.Quantity, &it.UnitPrice); err != nil {
			results.Close()
			return nil, fmt.Errorf("insert order item: %w", err)
		}
		created.Items = append(created.Items, it)
	}
	if err := results.Close(); err != nil {
		return nil, fmt.Errorf("close item batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit order: %w", err)
	}
	return created, nil
}

func (s *OrderStore) GetByID(ctx context.Context, tenantID uuid.UUID, orderID uuid.UUID) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 AND tenant_id = $2`

	o, err := scanOrder(s.pool.QueryRow(ctx, query, orderID, tenantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	items, err := s.listItems(ctx, []uuid.UUID{o.ID})
	if err != nil {
		return nil, err
	}
	o.Items = items[o.ID]
	return o, nil
}

func (s *OrderStore) List(ctx context.Context, f repository.OrderFilter) ([]models.Order, error) {
	q := psql.Select(orderColumns).From("orders").OrderBy("created_at DESC")

	if f.TenantID != uuid.Nil {
		q = q.Where("tenant_id = ?", f.TenantID)
	}
	if f.ClientID != nil {
		q = q.Where("client_id = ?", *f.ClientID)
	}
	if f.DriverID != nil {
		q = q.Where("assigned_driver = ?", *f.DriverID)
	}
	if f.TenantID == uuid.Nil && f.ClientID == nil && f.DriverID == nil {
		return nil, fmt.Errorf("list orders: filter has no owner scope")
	}
	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, st := range f.Statuses {
			statuses[i] = string(st)
		}
		q = q.Where(sq.Eq{"status": statuses})
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at <= ?", *f.To)
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build order query: %w", err)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]models.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}

	if f.WithItems && len(orders) > 0 {
		ids := make([]uuid.UUID, len(orders))
		for i := range orders {
			ids[i] = orders[i].ID
		}
		items, err := s.listItems(ctx, ids)
		if err != nil {
			return nil, err
		}
		for i := range orders {
			orders[i].Items = items[orders[i].ID]
		}
	}
	return orders, nil
}

func (s *OrderStore) listItems(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID][]models.OrderItem, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, order_id, product_id, name, quantity, unit_price
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY order_id, id`, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	defer rows.Close()

	byOrder := make(map[uuid.UUID][]models.OrderItem, len(orderIDs))
	for rows.Next() {
		var it models.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Name, &it.Quantity, &it.UnitPrice); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		byOrder[it.OrderID] = append(byOrder[it.OrderID], it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order items: %w", err)
	}
	return byOrder, nil
}

// UpdateLifecycle writes the lifecycle fields only if status and
// assigned_driver are still what the caller read. A concurrent writer makes
// it return false instead of silently overwriting.
func (s *OrderStore) UpdateLifecycle(ctx context.Context, o *models.Order, prev repository.OrderSnapshot) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE orders
		SET status = $3,
		    assigned_driver = $4,
		    payment_status = $5,
		    cancel_reason = $6,
		    accepted_at = $7,
		    preparing_at = $8,
		    on_way_at = $9,
		    at_door_at = $10,
		    delivered_at = $11
		WHERE id = $1 AND tenant_id = $2
		  AND status = $12
		  AND assigned_driver IS NOT DISTINCT FROM $13`,
		o.ID, o.TenantID,
		o.Status, o.AssignedDriver, o.PaymentStatus, o.CancelReason,
		o.AcceptedAt, o.PreparingAt, o.OnWayAt, o.AtDoorAt, o.DeliveredAt,
		prev.Status, prev.AssignedDriver,
	)
	if err != nil {
		return false, fmt.Errorf("update order: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
