package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/deliverypro/internal/auth"
	"github.com/lalith-99/deliverypro/internal/middleware"
	"github.com/lalith-99/deliverypro/internal/models"
	"github.com/lalith-99/deliverypro/internal/repository"
	"go.uber.org/zap"
)

// UserHandler serves the caller's own account and client profile.
type UserHandler struct {
	users   repository.UserRepository
	roles   repository.RoleRepository
	clients repository.ClientRepository
	logger  *zap.Logger
}

func NewUserHandler(users repository.UserRepository, roles repository.RoleRepository, clients repository.ClientRepository, logger *zap.Logger) *UserHandler {
	return &UserHandler{users: users, roles: roles, clients: clients, logger: logger}
}

type meResponse struct {
	User      *models.User      `json:"user"`
	Roles     []models.UserRole `json:"roles"`
	Dashboard auth.Dashboard    `json:"dashboard,omitempty"`
}

// GetMe handles GET /v1/me. Dashboards call it on mount to re-check who
// is signed in.
func (h *UserHandler) GetMe(c *gin.Context) {
	userID := middleware.GetUserID(c)

	user, err := h.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		internalError(c, h.logger, "failed to get user", err)
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	roles, err := h.roles.ListByUser(c.Request.Context(), userID)
	if err != nil {
		internalError(c, h.logger, "failed to get user", err)
		return
	}
	resp := meResponse{User: user, Roles: roles}
	if res, err := auth.ResolveDashboard(roles); err == nil {
		resp.Dashboard = res.Dashboard
	}
	c.JSON(http.StatusOK, resp)
}

type updateProfileRequest struct {
	FullName string         `json:"full_name" binding:"required"`
	Phone    string         `json:"phone"`
	Address  models.Address `json:"address"`
}

// GetClientProfile handles GET /v1/client/profile.
func (h *UserHandler) GetClientProfile(c *gin.Context) {
	client, err := h.clients.GetByUserID(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		internalError(c, h.logger, "failed to get profile", err)
		return
	}
	if client == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "client profile not found"})
		return
	}
	c.JSON(http.StatusOK, client)
}

// UpdateClientProfile handles PUT /v1/client/profile. Orders already
// placed keep the address they were created with.
func (h *UserHandler) UpdateClientProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	client, err := h.clients.GetByUserID(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		internalError(c, h.logger, "failed to update profile", err)
		return
	}
	if client == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "client profile not found"})
		return
	}

	client.FullName = req.FullName
	client.Phone = req.Phone
	client.Address = req.Address
	updated, err := h.clients.UpdateProfile(c.Request.Context(), client)
	if err != nil {
		internalError(c, h.logger, "failed to update profile", err)
		return
	}
	if updated == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "client profile not found"})
		return
	}
	c.JSON(http.StatusOK, updated)
}
