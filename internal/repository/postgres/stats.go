package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lalith-99/deliverypro/internal/models"
	"github.com/lalith-99/deliverypro/internal/repository"
)

type StatsStore struct {
	pool *pgxpool.Pool
}

func NewStatsStore(pool *pgxpool.Pool) *StatsStore {
	return &StatsStore{pool: pool}
}

func (s *StatsStore) PlatformCounts(ctx context.Context, dayStart time.Time) (repository.PlatformCounts, error) {
	var pc repository.PlatformCounts
	err := s.pool.QueryRow(ctx, `
		SELECT
			(SELECT count(*) FROM tenants),
			(SELECT count(*) FROM tenants WHERE status = 'ACTIVE'),
			(SELECT count(*) FROM clients),
			(SELECT count(*) FROM orders WHERE created_at >= $1)`,
		dayStart,
	).Scan(&pc.Tenants, &pc.ActiveTenants, &pc.Clients, &pc.OrdersToday)
	if err != nil {
		return repository.PlatformCounts{}, fmt.Errorf("count platform: %w", err)
	}
	return pc, nil
}

func (s *StatsStore) PaidOrdersSince(ctx context.Context, since time.Time) ([]models.Order, error) {
	query, args, err := psql.Select(orderColumns).
		From("orders").
		Where("created_at >= ?", since).
		Where("payment_status = ?", models.PaymentPaid).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build paid orders query: %w", err)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list paid orders: %w", err)
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
		return nil, fmt.Errorf("iterate paid orders: %w", err)
	}
	return orders, nil
}
