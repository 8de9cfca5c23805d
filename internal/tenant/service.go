package tenant

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/deliverypro/internal/models"
	"github.com/lalith-99/deliverypro/internal/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrTenantNotFound          = errors.New("tenant not found")
	ErrDomainTaken             = errors.New("domain already in use")
	ErrInvalidDomain           = errors.New("domain may only contain a-z, 0-9 and '-'")
	ErrInvalidPlan             = errors.New("plan must be basic, pro or enterprise")
	ErrInvalidColor            = errors.New("colors must be #RRGGBB")
	ErrNameRequired            = errors.New("name is required")
	ErrBillingValueNotPositive = errors.New("billing value must be greater than zero")
	ErrInvalidOrigin           = errors.New("origin must be an absolute http(s) URL")
)

var (
	slugPattern  = regexp.MustCompile(`^[a-z0-9-]+$`)
	colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
)

var plans = map[string]bool{"basic": true, "pro": true, "enterprise": true}

const (
	defaultPrimaryColor   = "#0ea5e9"
	defaultSecondaryColor = "#f97316"
)

// ValidSlug reports whether s can be used as a storefront domain.
func ValidSlug(s string) bool { return slugPattern.MatchString(s) }

// ValidColor reports whether s is a #RRGGBB color.
func ValidColor(s string) bool { return colorPattern.MatchString(s) }

type Service struct {
	tenants repository.TenantRepository
	billing repository.BillingRepository
	orders  repository.OrderRepository
	audit   repository.AuditRepository
	logger  *zap.Logger
}

func NewService(
	tenants repository.TenantRepository,
	billing repository.BillingRepository,
	orders repository.OrderRepository,
	audit repository.AuditRepository,
	logger *zap.Logger,
) *Service {
	return &Service{tenants: tenants, billing: billing, orders: orders, audit: audit, logger: logger}
}

type CreateInput struct {
	Name           string
	LegalID        string
	Email          string
	Phone          string
	Domain         string
	Plan           string
	PrimaryColor   string
	SecondaryColor string
}

// Create registers a new company. New tenants start ACTIVE on the basic
// plan unless told otherwise.
func (s *Service) Create(ctx context.Context, actorID uuid.UUID, in CreateInput) (*models.Tenant, error) {
	t := &models.Tenant{
		Name:           strings.TrimSpace(in.Name),
		LegalID:        strings.TrimSpace(in.LegalID),
		Email:          strings.TrimSpace(in.Email),
		Phone:          strings.TrimSpace(in.Phone),
		Domain:         strings.ToLower(strings.TrimSpace(in.Domain)),
		Status:         models.TenantActive,
		Plan:           in.Plan,
		PrimaryColor:   in.PrimaryColor,
		SecondaryColor: in.SecondaryColor,
	}
	if t.Plan == "" {
		t.Plan = "basic"
	}
	if t.PrimaryColor == "" {
		t.PrimaryColor = defaultPrimaryColor
	}
	if t.SecondaryColor == "" {
		t.SecondaryColor = defaultSecondaryColor
	}

	switch {
	case t.Name == "":
		return nil, ErrNameRequired
	case !ValidSlug(t.Domain):
		return nil, ErrInvalidDomain
	case !plans[t.Plan]:
		return nil, ErrInvalidPlan
	case !ValidColor(t.PrimaryColor) || !ValidColor(t.SecondaryColor):
		return nil, ErrInvalidColor
	}

	existing, err := s.tenants.GetByDomain(ctx, t.Domain)
	if err != nil {
		return nil, fmt.Errorf("check domain: %w", err)
	}
	if existing != nil {
		return nil, ErrDomainTaken
	}

	created, err := s.tenants.Create(ctx, t)
	if errors.Is(err, repository.ErrConflict) {
		// Lost a race with another create for the same slug.
		return nil, ErrDomainTaken
	}
	if err != nil {
		return nil, err
	}

	s.record(ctx, actorID, created.ID, "tenant.create")
	s.logger.Info("tenant created",
		zap.String("tenant_id", created.ID.String()),
		zap.String("domain", created.Domain),
	)
	return created, nil
}

func (s *Service) Get(ctx context.Context, tenantID uuid.UUID) (*models.Tenant, error) {
	t, err := s.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrTenantNotFound
	}
	return t, nil
}

// GetByDomain resolves a storefront slug. Suspended tenants are hidden.
func (s *Service) GetByDomain(ctx context.Context, domain string) (*models.Tenant, error) {
	t, err := s.tenants.GetByDomain(ctx, strings.ToLower(domain))
	if err != nil {
		return nil, err
	}
	if t == nil || t.Status != models.TenantActive {
		return nil, ErrTenantNotFound
	}
	return t, nil
}

func (s *Service) List(ctx context.Context, onlyActive bool) ([]models.Tenant, error) {
	return s.tenants.List(ctx, onlyActive)
}

// ToggleStatus flips ACTIVE and SUSPENDED.
func (s *Service) ToggleStatus(ctx context.Context, actorID, tenantID uuid.UUID) (*models.Tenant, error) {
	t, err := s.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	next := models.TenantSuspended
	if t.Status == models.TenantSuspended {
		next = models.TenantActive
	}
	updated, err := s.tenants.UpdateStatus(ctx, tenantID, next)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrTenantNotFound
	}

	action := "tenant.suspend"
	if next == models.TenantActive {
		action = "tenant.reactivate"
	}
	s.record(ctx, actorID, tenantID, action)
	return updated, nil
}

func (s *Service) UpsertBilling(ctx context.Context, actorID, tenantID uuid.UUID, billingType models.BillingType, value decimal.Decimal) (*models.BillingConfig, error) {
	if !value.IsPositive() {
		return nil, ErrBillingValueNotPositive
	}
	if _, err := s.Get(ctx, tenantID); err != nil {
		return nil, err
	}

	cfg, err := s.billing.Upsert(ctx, &models.BillingConfig{
		TenantID:    tenantID,
		BillingType: billingType,
		Value:       value,
		Active:      true,
	})
	if err != nil {
		return nil, err
	}
	s.record(ctx, actorID, tenantID, "billing.upsert")
	return cfg, nil
}

// FeeStatement is the platform fee owed for a period.
type FeeStatement struct {
	Config       *models.BillingConfig `json:"config"`
	Label        string                `json:"label"`
	GrossRevenue decimal.Decimal       `json:"gross_revenue"`
	Fee          decimal.Decimal       `json:"fee"`
}

// Fee computes what tenantID owes for orders delivered in [from, to].
func (s *Service) Fee(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (*FeeStatement, error) {
	if _, err := s.Get(ctx, tenantID); err != nil {
		return nil, err
	}
	cfg, err := s.billing.GetActive(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	delivered, err := s.orders.List(ctx, repository.OrderFilter{
		TenantID: tenantID,
		Statuses: []models.OrderStatus{models.OrderDelivered},
		From:     &from,
		To:       &to,
	})
	if err != nil {
		return nil, err
	}
	gross := decimal.Zero
	for _, o := range delivered {
		gross = gross.Add(o.Total)
	}

	return &FeeStatement{
		Config:       cfg,
		Label:        BillingLabel(cfg),
		GrossRevenue: gross,
		Fee:          ComputeFee(cfg, gross),
	}, nil
}

// ComputeFee applies cfg to the period's gross revenue. A percentage
// config charges value% of revenue; a monthly config charges value flat.
// No config means no fee.
func ComputeFee(cfg *models.BillingConfig, grossRevenue decimal.Decimal) decimal.Decimal {
	if cfg == nil || !cfg.Active {
		return decimal.Zero
	}
	switch cfg.BillingType {
	case models.BillingPercentage:
		return grossRevenue.Mul(cfg.Value).Div(decimal.NewFromInt(100)).Round(2)
	case models.BillingMonthly:
		return cfg.Value.Round(2)
	}
	return decimal.Zero
}

// BillingLabel is the one-line summary shown in the tenant list.
func BillingLabel(cfg *models.BillingConfig) string {
	if cfg == nil {
		return "Not configured"
	}
	if cfg.BillingType == models.BillingPercentage {
		return cfg.Value.String() + "% per sale"
	}
	return "R$ " + cfg.Value.StringFixed(2) + "/month"
}

// StorefrontLink is the shareable "<origin>/<slug>" URL for a tenant.
func (s *Service) StorefrontLink(ctx context.Context, tenantID uuid.UUID, origin string) (string, error) {
	t, err := s.Get(ctx, tenantID)
	if err != nil {
		return "", err
	}
	return BuildLink(origin, t.Domain)
}

func BuildLink(origin, slug string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(origin))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", ErrInvalidOrigin
	}
	return strings.TrimRight(u.Scheme+"://"+u.Host+u.Path, "/") + "/" + slug, nil
}

func (s *Service) record(ctx context.Context, actorID, tenantID uuid.UUID, action string) {
	actor, tid := actorID, tenantID
	err := s.audit.Record(ctx, &models.AuditLog{
		ActorID:  &actor,
		TenantID: &tid,
		Action:   action,
		Entity:   "tenant",
		EntityID: &tid,
	})
	if err != nil {
		s.logger.Error("failed to write audit log", zap.String("action", action), zap.Error(err))
	}
}
