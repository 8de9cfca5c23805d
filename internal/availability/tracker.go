// Package availability tracks whether drivers are taking deliveries.
//
// A driver is either INACTIVE or ACTIVE. Every ACTIVE stretch is recorded
// as a session row:
//
//	toggle on   -> status ACTIVE,   session opened (started_at = now)
//	toggle off  -> status INACTIVE, latest open session closed (ended_at = now)
//
// At most one session per driver is open at a time. Inside one process the
// keyed mutex in locks.go serializes toggles per driver. Across processes
// a partial unique index on open sessions rejects the second insert, and
// goActive adopts the session that won.
//
// Session durations for reports are computed by the report package, which
// measures an open session up to the time of the query.
package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/deliverypro/internal/models"
	"github.com/lalith-99/deliverypro/internal/observ"
	"github.com/lalith-99/deliverypro/internal/realtime"
	"github.com/lalith-99/deliverypro/internal/repository"
	"go.uber.org/zap"
)

var ErrDriverNotFound = errors.New("driver not found")

// Result is the driver's availability after a read or a toggle. Session is
// the open session when ACTIVE, the one just closed after going INACTIVE,
// and nil when there is none.
type Result struct {
	Status  models.DriverStatus   `json:"status"`
	Session *models.DriverSession `json:"session"`
}

// Tracker flips drivers between INACTIVE and ACTIVE and brackets the
// ACTIVE stretches as sessions. Toggles for one driver are serialized in
// process; across instances the open-session unique index is the backstop.
type Tracker struct {
	drivers   repository.DriverRepository
	sessions  repository.SessionRepository
	publisher realtime.Publisher
	metrics   *observ.Metrics
	logger    *zap.Logger
	locks     *keyedMutex
	now       func() time.Time
}

func NewTracker(
	drivers repository.DriverRepository,
	sessions repository.SessionRepository,
	publisher realtime.Publisher,
	metrics *observ.Metrics,
	logger *zap.Logger,
) *Tracker {
	return &Tracker{
		drivers:   drivers,
		sessions:  sessions,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
		locks:     newKeyedMutex(),
		now:       time.Now,
	}
}

func (t *Tracker) Status(ctx context.Context, tenantID, driverID uuid.UUID) (*Result, error) {
	d, err := t.drivers.GetByID(ctx, tenantID, driverID)
	if err != nil {
		return nil, fmt.Errorf("load driver: %w", err)
	}
	if d == nil {
		return nil, ErrDriverNotFound
	}
	open, err := t.sessions.LatestOpen(ctx, tenantID, driverID)
	if err != nil {
		return nil, err
	}
	return &Result{Status: d.Status, Session: open}, nil
}

// Toggle switches the driver to the other availability state. Any status
// other than INACTIVE counts as available and toggles to INACTIVE.
//
// The steps, all under the driver's lock:
//  1. Load the driver scoped to tenantID; ErrDriverNotFound if absent.
//  2. goActive or goInactive updates the status and the session.
//  3. Count the toggle, log it and broadcast a drivers change.
//
// A failure in step 2 returns before anything is broadcast.
func (t *Tracker) Toggle(ctx context.Context, tenantID, driverID uuid.UUID) (*Result, error) {
	unlock := t.locks.Lock(driverID)
	defer unlock()

	d, err := t.drivers.GetByID(ctx, tenantID, driverID)
	if err != nil {
		return nil, fmt.Errorf("load driver: %w", err)
	}
	if d == nil {
		return nil, ErrDriverNotFound
	}

	var res *Result
	if d.Status == models.DriverInactive {
		res, err = t.goActive(ctx, d)
	} else {
		res, err = t.goInactive(ctx, d)
	}
	if err != nil {
		return nil, err
	}

	t.metrics.DriverToggle(string(res.Status))
	t.logger.Info("driver availability toggled",
		zap.String("driver_id", d.ID.String()),
		zap.String("tenant_id", tenantID.String()),
		zap.String("status", string(res.Status)),
	)
	if t.publisher != nil {
		t.publisher.Publish(ctx, realtime.Change{
			Table:    realtime.TableDrivers,
			Event:    realtime.EventUpdate,
			TenantID: tenantID,
			ID:       d.ID,
		})
	}
	return res, nil
}

func (t *Tracker) goActive(ctx context.Context, d *models.Driver) (*Result, error) {
	if err := t.drivers.UpdateStatus(ctx, d.TenantID, d.ID, models.DriverActive); err != nil {
		return nil, err
	}

	session, err := t.sessions.Open(ctx, d.TenantID, d.ID, t.now())
	if errors.Is(err, repository.ErrConflict) {
		// Another instance opened one first. Adopt it instead of failing
		// the toggle; there is still exactly one open session.
		session, err = t.sessions.LatestOpen(ctx, d.TenantID, d.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}
	return &Result{Status: models.DriverActive, Session: session}, nil
}

func (t *Tracker) goInactive(ctx context.Context, d *models.Driver) (*Result, error) {
	if err := t.drivers.UpdateStatus(ctx, d.TenantID, d.ID, models.DriverInactive); err != nil {
		return nil, err
	}

	open, err := t.sessions.LatestOpen(ctx, d.TenantID, d.ID)
	if err != nil {
		return nil, err
	}
	if open == nil {
		return &Result{Status: models.DriverInactive}, nil
	}

	now := t.now()
	if err := t.sessions.Close(ctx, open.ID, now); err != nil {
		return nil, err
	}
	open.EndedAt = &now
	return &Result{Status: models.DriverInactive, Session: open}, nil
}
