package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/deliverypro/internal/middleware"
	"github.com/lalith-99/deliverypro/internal/models"
	"github.com/lalith-99/deliverypro/internal/tenant"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// TenantHandler serves the platform admin's company management plus the
// client-facing tenant picker and public storefront lookup.
type TenantHandler struct {
	svc           *tenant.Service
	defaultOrigin string
	loc           *time.Location
	logger        *zap.Logger
}

func NewTenantHandler(svc *tenant.Service, defaultOrigin string, loc *time.Location, logger *zap.Logger) *TenantHandler {
	return &TenantHandler{svc: svc, defaultOrigin: defaultOrigin, loc: loc, logger: logger}
}

func (h *TenantHandler) writeError(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, tenant.ErrTenantNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, tenant.ErrDomainTaken):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, tenant.ErrInvalidDomain),
		errors.Is(err, tenant.ErrInvalidPlan),
		errors.Is(err, tenant.ErrInvalidColor),
		errors.Is(err, tenant.ErrNameRequired),
		errors.Is(err, tenant.ErrBillingValueNotPositive),
		errors.Is(err, tenant.ErrInvalidOrigin):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		internalError(c, h.logger, msg, err)
	}
}

type createTenantRequest struct {
	Name           string `json:"name" binding:"required"`
	LegalID        string `json:"legal_id"`
	Email          string `json:"email" binding:"required,email"`
	Phone          string `json:"phone"`
	Domain         string `json:"domain" binding:"required,slug"`
	Plan           string `json:"plan" binding:"omitempty,oneof=basic pro enterprise"`
	PrimaryColor   string `json:"primary_color" binding:"omitempty,rgbhex"`
	SecondaryColor string `json:"secondary_color" binding:"omitempty,rgbhex"`
}

// Create handles POST /v1/admin/tenants
func (h *TenantHandler) Create(c *gin.Context) {
	var req createTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	t, err := h.svc.Create(c.Request.Context(), middleware.GetUserID(c), tenant.CreateInput{
		Name:           req.Name,
		LegalID:        req.LegalID,
		Email:          req.Email,
		Phone:          req.Phone,
		Domain:         req.Domain,
		Plan:           req.Plan,
		PrimaryColor:   req.PrimaryColor,
		SecondaryColor: req.SecondaryColor,
	})
	if err != nil {
		h.writeError(c, err, "failed to create tenant")
		return
	}
	c.JSON(http.StatusCreated, t)
}

// List handles GET /v1/admin/tenants (all tenants, any status).
func (h *TenantHandler) List(c *gin.Context) {
	tenants, err := h.svc.List(c.Request.Context(), false)
	if err != nil {
		internalError(c, h.logger, "failed to list tenants", err)
		return
	}
	c.JSON(http.StatusOK, tenants)
}

// ListActive handles GET /v1/client/tenants.
func (h *TenantHandler) ListActive(c *gin.Context) {
	tenants, err := h.svc.List(c.Request.Context(), true)
	if err != nil {
		internalError(c, h.logger, "failed to list tenants", err)
		return
	}
	c.JSON(http.StatusOK, tenants)
}

// ToggleStatus handles POST /v1/admin/tenants/:id/toggle-status
func (h *TenantHandler) ToggleStatus(c *gin.Context) {
	tenantID, ok := parseID(c, "id", "tenant")
	if !ok {
		return
	}
	t, err := h.svc.ToggleStatus(c.Request.Context(), middleware.GetUserID(c), tenantID)
	if err != nil {
		h.writeError(c, err, "failed to update tenant")
		return
	}
	c.JSON(http.StatusOK, t)
}

type billingRequest struct {
	BillingType models.BillingType `json:"billing_type" binding:"required"`
	Value       decimal.Decimal    `json:"value"`
}

// UpsertBilling handles PUT /v1/admin/tenants/:id/billing
func (h *TenantHandler) UpsertBilling(c *gin.Context) {
	tenantID, ok := parseID(c, "id", "tenant")
	if !ok {
		return
	}
	var req billingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cfg, err := h.svc.UpsertBilling(c.Request.Context(), middleware.GetUserID(c), tenantID, req.BillingType, req.Value)
	if err != nil {
		h.writeError(c, err, "failed to save billing")
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// GetBilling handles GET /v1/admin/tenants/:id/billing?start=&end= and
// returns the active config with the fee for that period.
func (h *TenantHandler) GetBilling(c *gin.Context) {
	tenantID, ok := parseID(c, "id", "tenant")
	if !ok {
		return
	}
	start, end, ok := dateRange(c, h.loc)
	if !ok {
		return
	}
	stmt, err := h.svc.Fee(c.Request.Context(), tenantID, start, end)
	if err != nil {
		h.writeError(c, err, "failed to compute fee")
		return
	}
	c.JSON(http.StatusOK, stmt)
}

// Link handles GET /v1/admin/tenants/:id/link?origin=
func (h *TenantHandler) Link(c *gin.Context) {
	tenantID, ok := parseID(c, "id", "tenant")
	if !ok {
		return
	}
	origin := c.DefaultQuery("origin", h.defaultOrigin)
	link, err := h.svc.StorefrontLink(c.Request.Context(), tenantID, origin)
	if err != nil {
		h.writeError(c, err, "failed to build link")
		return
	}
	c.JSON(http.StatusOK, gin.H{"link": link})
}

// Storefront handles GET /v1/storefront/:slug (public).
func (h *TenantHandler) Storefront(c *gin.Context) {
	t, err := h.svc.GetByDomain(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.writeError(c, err, "failed to load storefront")
		return
	}
	c.JSON(http.StatusOK, t)
}
