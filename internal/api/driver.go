package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/deliverypro/internal/availability"
	"github.com/lalith-99/deliverypro/internal/middleware"
	"github.com/lalith-99/deliverypro/internal/models"
	"github.com/lalith-99/deliverypro/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type DriverHandler struct {
	drivers repository.DriverRepository
	users   repository.UserRepository
	tracker *availability.Tracker
	logger  *zap.Logger
}

func NewDriverHandler(drivers repository.DriverRepository, users repository.UserRepository, tracker *availability.Tracker, logger *zap.Logger) *DriverHandler {
	return &DriverHandler{drivers: drivers, users: users, tracker: tracker, logger: logger}
}

// CompanyList handles GET /v1/company/drivers?status=ACTIVE
func (h *DriverHandler) CompanyList(c *gin.Context) {
	f := repository.DriverFilter{TenantID: middleware.GetTenantID(c)}
	if raw := c.Query("status"); raw != "" {
		st, err := models.ParseDriverStatus(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		f.Status = &st
	}

	drivers, err := h.drivers.List(c.Request.Context(), f)
	if err != nil {
		internalError(c, h.logger, "failed to list drivers", err)
		return
	}
	c.JSON(http.StatusOK, drivers)
}

type createDriverRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=72"`
	Name     string `json:"name" binding:"required"`
	Phone    string `json:"phone"`
	Vehicle  string `json:"vehicle"`
	Plate    string `json:"plate"`
}

// CompanyCreate handles POST /v1/company/drivers. The login account and its
// driver role are written together; the driver row follows separately.
func (h *DriverHandler) CompanyCreate(c *gin.Context) {
	var req createDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tenantID := middleware.GetTenantID(c)

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		internalError(c, h.logger, "failed to create driver", err)
		return
	}
	user, err := h.users.CreateWithRole(c.Request.Context(), &models.User{
		Email:        strings.TrimSpace(req.Email),
		DisplayName:  req.Name,
		PasswordHash: string(hash),
	}, models.RoleDriver, &tenantID)
	if errors.Is(err, repository.ErrConflict) {
		c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
		return
	}
	if err != nil {
		internalError(c, h.logger, "failed to create driver", err)
		return
	}

	d, err := h.drivers.Create(c.Request.Context(), &models.Driver{
		TenantID: tenantID,
		UserID:   user.ID,
		Name:     req.Name,
		Phone:    req.Phone,
		Vehicle:  req.Vehicle,
		Plate:    req.Plate,
		Status:   models.DriverInactive,
	})
	if err != nil {
		// The account exists without a driver row at this point.
		h.logger.Error("driver row missing for new account", zap.String("user_id", user.ID.String()))
		internalError(c, h.logger, "failed to create driver", err)
		return
	}

	h.logger.Info("driver created",
		zap.String("driver_id", d.ID.String()),
		zap.String("tenant_id", tenantID.String()),
	)
	c.JSON(http.StatusCreated, d)
}

func (h *DriverHandler) currentDriver(c *gin.Context) (*models.Driver, bool) {
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

// Availability handles GET /v1/driver/availability
func (h *DriverHandler) Availability(c *gin.Context) {
	d, ok := h.currentDriver(c)
	if !ok {
		return
	}
	res, err := h.tracker.Status(c.Request.Context(), d.TenantID, d.ID)
	if errors.Is(err, availability.ErrDriverNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		internalError(c, h.logger, "failed to load availability", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Toggle handles POST /v1/driver/availability/toggle
func (h *DriverHandler) Toggle(c *gin.Context) {
	d, ok := h.currentDriver(c)
	if !ok {
		return
	}
	res, err := h.tracker.Toggle(c.Request.Context(), d.TenantID, d.ID)
	if errors.Is(err, availability.ErrDriverNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		internalError(c, h.logger, "failed to toggle availability", err)
		return
	}
	c.JSON(http.StatusOK, res)
}
