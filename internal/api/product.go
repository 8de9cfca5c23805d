package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/deliverypro/internal/middleware"
	"github.com/lalith-99/deliverypro/internal/models"
	"github.com/lalith-99/deliverypro/internal/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type ProductHandler struct {
	products repository.ProductRepository
	tenants  repository.TenantRepository
	logger   *zap.Logger
}

func NewProductHandler(products repository.ProductRepository, tenants repository.TenantRepository, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{products: products, tenants: tenants, logger: logger}
}

type productRequest struct {
	Name               string             `json:"name" binding:"required"`
	Description        string             `json:"description"`
	Price              decimal.Decimal    `json:"price"`
	Stock              int                `json:"stock" binding:"gte=0"`
	Type               models.ProductType `json:"type"`
	Category           string             `json:"category"`
	PrepareTimeMinutes int                `json:"prepare_time_minutes" binding:"gte=0"`
	Active             *bool              `json:"active"`
}

func (r productRequest) apply(p *models.Product) bool {
	if r.Price.IsNegative() {
		return false
	}
	p.Name = r.Name
	p.Description = r.Description
	p.Price = r.Price
	p.Stock = r.Stock
	p.Type = r.Type
	if p.Type == "" {
		p.Type = models.ProductTypeProduct
	}
	p.Category = r.Category
	p.PrepareTimeMinutes = r.PrepareTimeMinutes
	if r.Active != nil {
		p.Active = *r.Active
	}
	return true
}

// List handles GET /v1/company/products (whole catalog, inactive included).
func (h *ProductHandler) List(c *gin.Context) {
	products, err := h.products.ListByTenant(c.Request.Context(), middleware.GetTenantID(c), false)
	if err != nil {
		internalError(c, h.logger, "failed to list products", err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// Create handles POST /v1/company/products
func (h *ProductHandler) Create(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p := &models.Product{TenantID: middleware.GetTenantID(c), Active: true}
	if !req.apply(p) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "price must not be negative"})
		return
	}
	created, err := h.products.Create(c.Request.Context(), p)
	if err != nil {
		internalError(c, h.logger, "failed to create product", err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// Update handles PUT /v1/company/products/:id
func (h *ProductHandler) Update(c *gin.Context) {
	productID, ok := parseID(c, "id", "product")
	if !ok {
		return
	}
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tenantID := middleware.GetTenantID(c)
	p, err := h.products.GetByID(c.Request.Context(), tenantID, productID)
	if err != nil {
		internalError(c, h.logger, "failed to update product", err)
		return
	}
	if p == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}
	if !req.apply(p) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "price must not be negative"})
		return
	}

	updated, err := h.products.Update(c.Request.Context(), p)
	if err != nil {
		internalError(c, h.logger, "failed to update product", err)
		return
	}
	if updated == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}
	c.JSON(http.StatusOK, updated)
}

// Delete handles DELETE /v1/company/products/:id. A product with order
// history is deactivated rather than removed.
func (h *ProductHandler) Delete(c *gin.Context) {
	productID, ok := parseID(c, "id", "product")
	if !ok {
		return
	}
	tenantID := middleware.GetTenantID(c)

	found, archived, err := h.products.Delete(c.Request.Context(), tenantID, productID)
	if err != nil {
		internalError(c, h.logger, "failed to delete product", err)
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}
	if archived {
		h.logger.Info("product archived instead of deleted",
			zap.String("product_id", productID.String()),
			zap.String("tenant_id", tenantID.String()),
		)
		c.JSON(http.StatusOK, gin.H{"archived": true})
		return
	}
	c.Status(http.StatusNoContent)
}

// ListForClient handles GET /v1/client/tenants/:id/products. Only active,
// in-stock products of an ACTIVE tenant are shown.
func (h *ProductHandler) ListForClient(c *gin.Context) {
	tenantID, ok := parseID(c, "id", "tenant")
	if !ok {
		return
	}
	t, err := h.tenants.GetByID(c.Request.Context(), tenantID)
	if err != nil {
		internalError(c, h.logger, "failed to list products", err)
		return
	}
	if t == nil || t.Status != models.TenantActive {
		c.JSON(http.StatusNotFound, gin.H{"error": "tenant not found"})
		return
	}

	products, err := h.products.ListByTenant(c.Request.Context(), tenantID, true)
	if err != nil {
		internalError(c, h.logger, "failed to list products", err)
		return
	}
	c.JSON(http.StatusOK, products)
}
