package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lalith-99/deliverypro/internal/models"
	"github.com/lalith-99/deliverypro/internal/repository"
)

type SessionStore struct {
	pool *pgxpool.Pool
}

func NewSessionStore(pool *pgxpool.Pool) *SessionStore {
	return &SessionStore{pool: pool}
}

const sessionColumns = `id, driver_id, tenant_id, started_at, ended_at`

func scanSession(row pgx.Row) (*models.DriverSession, error) {
	var ds models.DriverSession
	if err := row.Scan(&ds.ID, &ds.DriverID, &ds.TenantID, &ds.StartedAt, &ds.EndedAt); err != nil {
		return nil, err
	}
	return &ds, nil
}

// Open inserts a session with ended_at NULL. The partial unique index
// driver_sessions_one_open turns a second open session for the same driver
// into ErrConflict, even when two instances race.
func (s *SessionStore) Open(ctx context.Context, tenantID uuid.UUID, driverID uuid.UUID, startedAt time.Time) (*models.DriverSession, error) {
	query := `
		INSERT INTO driver_sessions (driver_id, tenant_id, started_at)
		VALUES ($1, $2, $3)
		RETURNING ` + sessionColumns

	ds, err := scanSession(s.pool.QueryRow(ctx, query, driverID, tenantID, startedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("open session: %w", repository.ErrConflict)
		}
		return nil, fmt.Errorf("open session: %w", err)
	}
	return ds, nil
}

func (s *SessionStore) LatestOpen(ctx context.Context, tenantID uuid.UUID, driverID uuid.UUID) (*models.DriverSession, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM driver_sessions
		WHERE driver_id = $1 AND tenant_id = $2 AND ended_at IS NULL
		ORDER BY started_at DESC
		LIMIT 1`

	ds, err := scanSession(s.pool.QueryRow(ctx, query, driverID, tenantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get open session: %w", err)
	}
	return ds, nil
}

func (s *SessionStore) Close(ctx context.Context, sessionID uuid.UUID, endedAt time.Time) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE driver_sessions SET ended_at = $2
		WHERE id = $1 AND ended_at IS NULL`,
		sessionID, endedAt,
	)
	if err != nil {
		return fmt.Errorf("close session: %w", err)
	}
	return nil
}

func (s *SessionStore) List(ctx context.Context, f repository.SessionFilter) ([]models.DriverSession, error) {
	q := psql.Select(sessionColumns).
		From("driver_sessions").
		Where("tenant_id = ?", f.TenantID).
		Where("started_at >= ?", f.From).
		Where("started_at <= ?", f.To).
		OrderBy("started_at DESC")
	if f.DriverID != nil {
		q = q.Where("driver_id = ?", *f.DriverID)
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build session query: %w", err)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]models.DriverSession, 0)
	for rows.Next() {
		ds, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, *ds)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}
