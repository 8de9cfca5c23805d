package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lalith-99/deliverypro/internal/cart"
	"github.com/lalith-99/deliverypro/internal/geo"
	"github.com/lalith-99/deliverypro/internal/middleware"
	"github.com/lalith-99/deliverypro/internal/models"
	"github.com/lalith-99/deliverypro/internal/order"
	"github.com/lalith-99/deliverypro/internal/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// GeoService is the part of geo.Client the handlers use.
type GeoService interface {
	LookupPostalCode(ctx context.Context, code string) *geo.PostalAddress
	Geocode(ctx context.Context, query string) *geo.Coordinates
	Route(ctx context.Context, from, to geo.Coordinates) *geo.RouteInfo
}

type OrderHandler struct {
	svc     *order.Service
	clients repository.ClientRepository
	drivers repository.DriverRepository
	geo     GeoService
	logger  *zap.Logger
}

func NewOrderHandler(svc *order.Service, clients repository.ClientRepository, drivers repository.DriverRepository, geo GeoService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{svc: svc, clients: clients, drivers: drivers, geo: geo, logger: logger}
}

func (h *OrderHandler) writeError(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, order.ErrOrderNotFound), errors.Is(err, order.ErrDriverNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, order.ErrNotAssignedDriver):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, order.ErrInvalidTransition),
		errors.Is(err, order.ErrDriverAlreadyAssigned),
		errors.Is(err, order.ErrConcurrentUpdate):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, order.ErrTenantUnavailable), errors.Is(err, order.ErrProductUnavailable):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, order.ErrCancelReasonRequired),
		errors.Is(err, order.ErrInvalidQuantity),
		errors.Is(err, cart.ErrNoTenant),
		errors.Is(err, cart.ErrEmptyCart),
		errors.Is(err, cart.ErrAddressIncomplete),
		errors.Is(err, cart.ErrNoPaymentMethod):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		internalError(c, h.logger, msg, err)
	}
}

// currentClient loads the caller's client row, answering itself on failure.
func (h *OrderHandler) currentClient(c *gin.Context) (*models.Client, bool) {
	client, err := h.clients.GetByUserID(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		internalError(c, h.logger, "failed to load client", err)
		return nil, false
	}
	if client == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "client profile not found"})
		return nil, false
	}
	return client, true
}

// currentDriver loads the caller's driver row within the session tenant.
func (h *OrderHandler) currentDriver(c *gin.Context) (*models.Driver, bool) {
	d, err := h.drivers.GetByUserID(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		internalError(c, h.logger, "failed to load driver", err)
		return nil, false
	}
	if d == nil || d.TenantID != middleware.GetTenantID(c) {
		c.JSON(http.StatusNotFound, gin.H{"error": "driver profile not found"})
		return nil, false
	}
	return d, true
}

type orderItemRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,min=1,max=99"`
}

type createOrderRequest struct {
	TenantID      uuid.UUID            `json:"tenant_id" binding:"required"`
	Items         []orderItemRequest   `json:"items" binding:"required,min=1,dive"`
	Address       *models.Address      `json:"address"`
	PaymentMethod models.PaymentMethod `json:"payment_method" binding:"required"`
	ChangeFor     *decimal.Decimal     `json:"change_for"`
}

// Create handles POST /v1/client/orders. Without an address in the body
// the client's saved address is used.
func (h *OrderHandler) Create(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	client, ok := h.currentClient(c)
	if !ok {
		return
	}

	in := order.CreateInput{
		TenantID:      req.TenantID,
		Address:       client.Address,
		PaymentMethod: req.PaymentMethod,
		ChangeFor:     req.ChangeFor,
	}
	if req.Address != nil {
		in.Address = *req.Address
	}
	for _, it := range req.Items {
		in.Items = append(in.Items, order.ItemInput{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	o, err := h.svc.Create(c.Request.Context(), client.ID, in)
	if err != nil {
		h.writeError(c, err, "failed to create order")
		return
	}
	c.JSON(http.StatusCreated, o)
}

// ClientList handles GET /v1/client/orders (the caller's history).
func (h *OrderHandler) ClientList(c *gin.Context) {
	client, ok := h.currentClient(c)
	if !ok {
		return
	}
	orders, err := h.svc.ListForClient(c.Request.Context(), client.ID)
	if err != nil {
		internalError(c, h.logger, "failed to list orders", err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// CompanyList handles GET /v1/company/orders?status=A,B
func (h *OrderHandler) CompanyList(c *gin.Context) {
	var statuses []models.OrderStatus
	if raw := c.Query("status"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			st, err := models.ParseOrderStatus(strings.TrimSpace(part))
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			statuses = append(statuses, st)
		}
	}

	orders, err := h.svc.ListForTenant(c.Request.Context(), middleware.GetTenantID(c), statuses)
	if err != nil {
		internalError(c, h.logger, "failed to list orders", err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// Accept handles POST /v1/company/orders/:id/accept
func (h *OrderHandler) Accept(c *gin.Context) {
	orderID, ok := parseID(c, "id", "order")
	if !ok {
		return
	}
	o, err := h.svc.Accept(c.Request.Context(), middleware.GetTenantID(c), orderID)
	if err != nil {
		h.writeError(c, err, "failed to accept order")
		return
	}
	c.JSON(http.StatusOK, o)
}

type assignRequest struct {
	DriverID uuid.UUID `json:"driver_id" binding:"required"`
}

// Assign handles POST /v1/company/orders/:id/assign
func (h *OrderHandler) Assign(c *gin.Context) {
	orderID, ok := parseID(c, "id", "order")
	if !ok {
		return
	}
	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	o, err := h.svc.AssignDriver(c.Request.Context(), middleware.GetTenantID(c), orderID, req.DriverID)
	if err != nil {
		h.writeError(c, err, "failed to assign driver")
		return
	}
	c.JSON(http.StatusOK, o)
}

type statusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required"`
	Reason string             `json:"reason"`
}

// UpdateStatus handles POST /v1/company/orders/:id/status
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	orderID, ok := parseID(c, "id", "order")
	if !ok {
		return
	}
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	o, err := h.svc.UpdateStatus(c.Request.Context(), middleware.GetTenantID(c), orderID, req.Status, req.Reason)
	if err != nil {
		h.writeError(c, err, "failed to update order")
		return
	}
	c.JSON(http.StatusOK, o)
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

// Cancel handles POST /v1/company/orders/:id/cancel
func (h *OrderHandler) Cancel(c *gin.Context) {
	orderID, ok := parseID(c, "id", "order")
	if !ok {
		return
	}
	var req cancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	o, err := h.svc.Cancel(c.Request.Context(), middleware.GetTenantID(c), orderID, req.Reason)
	if err != nil {
		h.writeError(c, err, "failed to cancel order")
		return
	}
	c.JSON(http.StatusOK, o)
}

// DriverList handles GET /v1/driver/orders (assigned, not yet finished).
func (h *OrderHandler) DriverList(c *gin.Context) {
	d, ok := h.currentDriver(c)
	if !ok {
		return
	}
	orders, err := h.svc.ListForDriver(c.Request.Context(), d.TenantID, d.ID)
	if err != nil {
		internalError(c, h.logger, "failed to list orders", err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// Advance handles POST /v1/driver/orders/:id/advance
func (h *OrderHandler) Advance(c *gin.Context) {
	orderID, ok := parseID(c, "id", "order")
	if !ok {
		return
	}
	d, ok := h.currentDriver(c)
	if !ok {
		return
	}
	o, err := h.svc.Advance(c.Request.Context(), d.TenantID, d.ID, orderID)
	if err != nil {
		h.writeError(c, err, "failed to advance order")
		return
	}
	c.JSON(http.StatusOK, o)
}

// Route handles GET /v1/driver/orders/:id/route?lat=&lng=. It geocodes the
// delivery address and routes from the driver's position. No route is a
// normal outcome and answers 204.
func (h *OrderHandler) Route(c *gin.Context) {
	orderID, ok := parseID(c, "id", "order")
	if !ok {
		return
	}
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lng, errLng := strconv.ParseFloat(c.Query("lng"), 64)
	if errLat != nil || errLng != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat and lng are required"})
		return
	}
	d, ok := h.currentDriver(c)
	if !ok {
		return
	}

	o, err := h.svc.Get(c.Request.Context(), d.TenantID, orderID)
	if err != nil {
		h.writeError(c, err, "failed to load order")
		return
	}
	if o.AssignedDriver == nil || *o.AssignedDriver != d.ID {
		h.writeError(c, order.ErrNotAssignedDriver, "")
		return
	}

	dest := h.geo.Geocode(c.Request.Context(), o.Address.String())
	if dest == nil {
		c.Status(http.StatusNoContent)
		return
	}
	route := h.geo.Route(c.Request.Context(), geo.Coordinates{Lat: lat, Lng: lng}, *dest)
	if route == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, gin.H{"destination": dest, "route": route})
}
