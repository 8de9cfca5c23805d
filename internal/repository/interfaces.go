package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/deliverypro/internal/models"
)

// Conventions shared by every store:
//
//   - context.Context first on anything that touches the database.
//   - Single-row lookups return nil, nil when the row does not exist; the
//     handler decides whether that is a 404.
//   - Every tenant-owned table is filtered by tenant_id in the query
//     itself. The caller's tenant comes from the session, never the body.
//   - List methods return an empty slice, never nil, so JSON renders [].

// ErrConflict is returned when a unique constraint rejects a write
// (duplicate domain slug, duplicate email, second open driver session).
var ErrConflict = errors.New("conflict")

type TenantRepository interface {
	Create(ctx context.Context, t *models.Tenant) (*models.Tenant, error)
	GetByID(ctx context.Context, tenantID uuid.UUID) (*models.Tenant, error)
	GetByDomain(ctx context.Context, domain string) (*models.Tenant, error)
	// List returns tenants ordered by name. onlyActive hides SUSPENDED ones.
	List(ctx context.Context, onlyActive bool) ([]models.Tenant, error)
	UpdateStatus(ctx context.Context, tenantID uuid.UUID, status models.TenantStatus) (*models.Tenant, error)
}

type BillingRepository interface {
	// GetActive returns the tenant's active config, or nil, nil.
	GetActive(ctx context.Context, tenantID uuid.UUID) (*models.BillingConfig, error)
	// Upsert replaces the active config for cfg.TenantID.
	Upsert(ctx context.Context, cfg *models.BillingConfig) (*models.BillingConfig, error)
}

type UserRepository interface {
	// CreateWithRole inserts the user and its first role in one transaction.
	CreateWithRole(ctx context.Context, u *models.User, role models.Role, tenantID *uuid.UUID) (*models.User, error)
	GetByID(ctx context.Context, userID uuid.UUID) (*models.User, error)
	// GetByEmail looks across all accounts (not tenant-scoped).
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdatePasswordHash(ctx context.Context, userID uuid.UUID, hash string) error
}

type RoleRepository interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.UserRole, error)
}

type ClientRepository interface {
	Create(ctx context.Context, c *models.Client) (*models.Client, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Client, error)
	GetByID(ctx context.Context, clientID uuid.UUID) (*models.Client, error)
	UpdateProfile(ctx context.Context, c *models.Client) (*models.Client, error)
}

// DriverFilter narrows List. Nil fields are not applied.
type DriverFilter struct {
	TenantID uuid.UUID
	Status   *models.DriverStatus
}

type DriverRepository interface {
	Create(ctx context.Context, d *models.Driver) (*models.Driver, error)
	GetByID(ctx context.Context, tenantID uuid.UUID, driverID uuid.UUID) (*models.Driver, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Driver, error)
	List(ctx context.Context, f DriverFilter) ([]models.Driver, error)
	UpdateStatus(ctx context.Context, tenantID uuid.UUID, driverID uuid.UUID, status models.DriverStatus) error
}

// SessionFilter selects sessions whose started_at falls in [From, To].
type SessionFilter struct {
	TenantID uuid.UUID
	DriverID *uuid.UUID
	From     time.Time
	To       time.Time
}

type SessionRepository interface {
	// Open starts a session. Returns ErrConflict if the driver already has
	// an open one.
	Open(ctx context.Context, tenantID uuid.UUID, driverID uuid.UUID, startedAt time.Time) (*models.DriverSession, error)
	// LatestOpen returns the most recent session with ended_at NULL, or nil, nil.
	LatestOpen(ctx context.Context, tenantID uuid.UUID, driverID uuid.UUID) (*models.DriverSession, error)
	Close(ctx context.Context, sessionID uuid.UUID, endedAt time.Time) error
	// List returns matching sessions, newest first.
	List(ctx context.Context, f SessionFilter) ([]models.DriverSession, error)
}

type ProductRepository interface {
	Create(ctx context.Context, p *models.Product) (*models.Product, error)
	Update(ctx context.Context, p *models.Product) (*models.Product, error)
	GetByID(ctx context.Context, tenantID uuid.UUID, productID uuid.UUID) (*models.Product, error)
	// ListByTenant returns the catalog. onlyAvailable keeps active, in-stock rows.
	ListByTenant(ctx context.Context, tenantID uuid.UUID, onlyAvailable bool) ([]models.Product, error)
	// Delete removes a product. One that order items still reference is
	// deactivated instead and archived is true. found is false when the
	// product does not exist in tenantID.
	Delete(ctx context.Context, tenantID uuid.UUID, productID uuid.UUID) (found bool, archived bool, err error)
}

// OrderFilter narrows List. Zero values are not applied. At least one of
// TenantID, ClientID or DriverID must be set.
type OrderFilter struct {
	TenantID uuid.UUID
	ClientID *uuid.UUID
	DriverID *uuid.UUID
	Statuses []models.OrderStatus
	From     *time.Time
	To       *time.Time
	// WithItems loads order_items for each returned order.
	WithItems bool
}

// OrderSnapshot is the part of an order a lifecycle update is conditioned
// on. The update only applies if the row still matches it.
type OrderSnapshot struct {
	Status         models.OrderStatus
	AssignedDriver *uuid.UUID
}

type OrderRepository interface {
	// CreateWithItems writes the order and its items in one transaction.
	CreateWithItems(ctx context.Context, o *models.Order, items []models.OrderItem) (*models.Order, error)
	GetByID(ctx context.Context, tenantID uuid.UUID, orderID uuid.UUID) (*models.Order, error)
	List(ctx context.Context, f OrderFilter) ([]models.Order, error)
	// UpdateLifecycle persists status, driver, timestamps, cancel reason and
	// payment status. It reports false when the row no longer matches prev.
	UpdateLifecycle(ctx context.Context, o *models.Order, prev OrderSnapshot) (bool, error)
}

type AuditRepository interface {
	Record(ctx context.Context, entry *models.AuditLog) error
}

// PlatformCounts are the admin dashboard's headline numbers.
type PlatformCounts struct {
	Tenants       int `json:"total_companies"`
	ActiveTenants int `json:"active_companies"`
	Clients       int `json:"total_clients"`
	OrdersToday   int `json:"orders_today"`
}

// StatsRepository reads across every tenant. Only admin_master routes may
// reach it.
type StatsRepository interface {
	PlatformCounts(ctx context.Context, dayStart time.Time) (PlatformCounts, error)
	// PaidOrdersSince returns PAID orders created at or after since, without items.
	PaidOrdersSince(ctx context.Context, since time.Time) ([]models.Order, error)
}
