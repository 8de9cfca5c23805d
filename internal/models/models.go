package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Tenant is the isolation boundary: a company selling on the platform.
// Every other row (except users, roles and audit entries) carries a
// tenant_id and must never be read or written across tenants.
type Tenant struct {
	ID             uuid.UUID    `json:"id"`
	Name           string       `json:"name"`
	LegalID        string       `json:"legal_id"`
	Email          string       `json:"email"`
	Phone          string       `json:"phone"`
	Domain         string       `json:"domain"`
	Status         TenantStatus `json:"status"`
	Plan           string       `json:"plan"`
	PrimaryColor   string       `json:"primary_color"`
	SecondaryColor string       `json:"secondary_color"`
	CreatedAt      time.Time    `json:"created_at"`
}

// BillingConfig is what the platform charges a tenant. One active config
// per tenant.
type BillingConfig struct {
	ID          uuid.UUID       `json:"id"`
	TenantID    uuid.UUID       `json:"tenant_id"`
	BillingType BillingType     `json:"billing_type"`
	Value       decimal.Decimal `json:"value"`
	Active      bool            `json:"active"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// User is a login identity. Roles live in UserRole so one account can
// hold more than one.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"display_name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// UserRole assigns a role to a user. TenantID is nil for platform-level
// roles (admin_master) and for clients, who may order from any tenant.
type UserRole struct {
	UserID   uuid.UUID  `json:"user_id"`
	Role     Role       `json:"role"`
	TenantID *uuid.UUID `json:"tenant_id,omitempty"`
}

// Address is the structured delivery address. It is stored as JSONB, and
// orders keep their own copy so later profile edits don't rewrite history.
type Address struct {
	Street       string `json:"street"`
	Number       string `json:"number"`
	Complement   string `json:"complement,omitempty"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
	ZipCode      string `json:"zipCode"`
}

// Complete reports whether every required field is filled in.
// Complement is the only optional part.
func (a Address) Complete() bool {
	for _, f := range []string{a.Street, a.Number, a.Neighborhood, a.City, a.State, a.ZipCode} {
		if strings.TrimSpace(f) == "" {
			return false
		}
	}
	return true
}

// String renders the address as a single line for free-text geocoding.
func (a Address) String() string {
	parts := make([]string, 0, 5)
	street := strings.TrimSpace(strings.TrimSpace(a.Street) + " " + strings.TrimSpace(a.Number))
	for _, p := range []string{street, a.Neighborhood, a.City, a.State, a.ZipCode} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

type Client struct {
	ID        uuid.UUID  `json:"id"`
	TenantID  *uuid.UUID `json:"tenant_id,omitempty"`
	UserID    uuid.UUID  `json:"user_id"`
	FullName  string     `json:"full_name"`
	Phone     string     `json:"phone"`
	Address   Address    `json:"address"`
	CreatedAt time.Time  `json:"created_at"`
}

type Driver struct {
	ID        uuid.UUID    `json:"id"`
	TenantID  uuid.UUID    `json:"tenant_id"`
	UserID    uuid.UUID    `json:"user_id"`
	Name      string       `json:"name"`
	Phone     string       `json:"phone"`
	Vehicle   string       `json:"vehicle"`
	Plate     string       `json:"plate"`
	Status    DriverStatus `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
}

// DriverSession brackets a stretch of time a driver was available.
// EndedAt == nil means the session is still open; a driver has at most one
// open session.
type DriverSession struct {
	ID        uuid.UUID  `json:"id"`
	DriverID  uuid.UUID  `json:"driver_id"`
	TenantID  uuid.UUID  `json:"tenant_id"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at"`
}

// Open reports whether the session has not been closed yet.
func (s DriverSession) Open() bool { return s.EndedAt == nil }

type Product struct {
	ID                 uuid.UUID       `json:"id"`
	TenantID           uuid.UUID       `json:"tenant_id"`
	Name               string          `json:"name"`
	Description        string          `json:"description"`
	Price              decimal.Decimal `json:"price"`
	Stock              int             `json:"stock"`
	Type               ProductType     `json:"type"`
	Category           string          `json:"category"`
	PrepareTimeMinutes int             `json:"prepare_time_minutes"`
	Active             bool            `json:"active"`
	CreatedAt          time.Time       `json:"created_at"`
}

// Available reports whether clients may put the product in a cart.
func (p Product) Available() bool { return p.Active && p.Stock > 0 }

// Order is a client's purchase from one tenant. Status transitions and
// their timestamps are owned by the order package; nothing else should
// assign them directly.
type Order struct {
	ID             uuid.UUID        `json:"id"`
	TenantID       uuid.UUID        `json:"tenant_id"`
	ClientID       uuid.UUID        `json:"client_id"`
	AssignedDriver *uuid.UUID       `json:"assigned_driver"`
	Address        Address          `json:"address"`
	PaymentMethod  PaymentMethod    `json:"payment_method"`
	ChangeFor      *decimal.Decimal `json:"change_for"`
	Status         OrderStatus      `json:"status"`
	PaymentStatus  PaymentStatus    `json:"payment_status"`
	Total          decimal.Decimal  `json:"total"`
	CancelReason   *string          `json:"cancel_reason"`
	AcceptedAt     *time.Time       `json:"accepted_at"`
	PreparingAt    *time.Time       `json:"preparing_at"`
	OnWayAt        *time.Time       `json:"on_way_at"`
	AtDoorAt       *time.Time       `json:"at_door_at"`
	DeliveredAt    *time.Time       `json:"delivered_at"`
	CreatedAt      time.Time        `json:"created_at"`
	Items          []OrderItem      `json:"items,omitempty"`
}

// OrderItem snapshots name and price at order time, decoupled from the
// live Product row.
type OrderItem struct {
	ID        uuid.UUID       `json:"id"`
	OrderID   uuid.UUID       `json:"order_id"`
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// Subtotal is UnitPrice × Quantity.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// AuditLog records privileged actions (tenant admin, billing, resets).
type AuditLog struct {
	ID        uuid.UUID  `json:"id"`
	ActorID   *uuid.UUID `json:"actor_id"`
	TenantID  *uuid.UUID `json:"tenant_id"`
	Action    string     `json:"action"`
	Entity    string     `json:"entity"`
	EntityID  *uuid.UUID `json:"entity_id"`
	CreatedAt time.Time  `json:"created_at"`
}
