package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lalith-99/deliverypro/internal/auth"
	"github.com/lalith-99/deliverypro/internal/middleware"
	"github.com/lalith-99/deliverypro/internal/models"
	"github.com/lalith-99/deliverypro/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AuthHandler issues and ends sessions. Login and register are public;
// logout runs behind AuthMiddleware.
type AuthHandler struct {
	users     repository.UserRepository
	roles     repository.RoleRepository
	clients   repository.ClientRepository
	revoker   auth.Revoker
	jwtSecret string
	tokenTTL  time.Duration
	logger    *zap.Logger
}

func NewAuthHandler(
	users repository.UserRepository,
	roles repository.RoleRepository,
	clients repository.ClientRepository,
	revoker auth.Revoker,
	jwtSecret string,
	tokenTTL time.Duration,
	logger *zap.Logger,
) *AuthHandler {
	return &AuthHandler{
		users:     users,
		roles:     roles,
		clients:   clients,
		revoker:   revoker,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		logger:    logger,
	}
}

type registerRequest struct {
	Email    string          `json:"email" binding:"required,email"`
	Password string          `json:"password" binding:"required,min=8,max=72"`
	FullName string          `json:"full_name" binding:"required"`
	Phone    string          `json:"phone"`
	Address  *models.Address `json:"address"`
	TenantID *uuid.UUID      `json:"tenant_id"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	Token     string         `json:"token"`
	Dashboard auth.Dashboard `json:"dashboard"`
	Role      models.Role    `json:"role"`
	Redirect  string         `json:"redirect"`
}

// Register handles POST /v1/auth/register. Only clients sign themselves
// up; every other account is created by an admin.
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		internalError(c, h.logger, "registration failed", err)
		return
	}

	user, err := h.users.CreateWithRole(c.Request.Context(), &models.User{
		Email:        strings.TrimSpace(req.Email),
		DisplayName:  req.FullName,
		PasswordHash: string(hash),
	}, models.RoleClient, nil)
	if errors.Is(err, repository.ErrConflict) {
		c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
		return
	}
	if err != nil {
		internalError(c, h.logger, "registration failed", err)
		return
	}

	client := &models.Client{
		TenantID: req.TenantID,
		UserID:   user.ID,
		FullName: req.FullName,
		Phone:    req.Phone,
	}
	if req.Address != nil {
		client.Address = *req.Address
	}
	if _, err := h.clients.Create(c.Request.Context(), client); err != nil {
		internalError(c, h.logger, "registration failed", err)
		return
	}

	h.issue(c, user, auth.Resolution{Dashboard: auth.DashboardClient, Role: models.RoleClient}, http.StatusCreated)
}

// Login handles POST /v1/auth/login and routes the user to exactly one
// dashboard.
func (h *AuthHandler) Login(c *gin.Context) {
	user, res, ok := h.authenticate(c)
	if !ok {
		return
	}
	h.issue(c, user, res, http.StatusOK)
}

// AdminLogin handles POST /v1/admin/login. Valid credentials of any other
// role are refused without issuing a token.
func (h *AuthHandler) AdminLogin(c *gin.Context) {
	user, res, ok := h.authenticate(c)
	if !ok {
		return
	}
	if res.Role != models.RoleAdminMaster {
		h.logger.Warn("non-admin attempted admin login", zap.String("user_id", user.ID.String()))
		c.JSON(http.StatusForbidden, gin.H{"error": "access restricted to platform administrators"})
		return
	}
	h.issue(c, user, res, http.StatusOK)
}

// Logout handles POST /v1/auth/logout by revoking the presented token.
func (h *AuthHandler) Logout(c *gin.Context) {
	s := middleware.GetSession(c)
	if h.revoker != nil && s.TokenID != "" {
		if err := h.revoker.Revoke(c.Request.Context(), s.TokenID, s.ExpiresAt); err != nil {
			internalError(c, h.logger, "logout failed", err)
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// authenticate checks credentials and resolves the dashboard. It writes
// the error response itself when ok is false.
func (h *AuthHandler) authenticate(c *gin.Context) (*models.User, auth.Resolution, bool) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, auth.Resolution{}, false
	}

	user, err := h.users.GetByEmail(c.Request.Context(), strings.TrimSpace(req.Email))
	if err != nil {
		internalError(c, h.logger, "login failed", err)
		return nil, auth.Resolution{}, false
	}
	// Same answer for unknown email and wrong password.
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
		return nil, auth.Resolution{}, false
	}

	roles, err := h.roles.ListByUser(c.Request.Context(), user.ID)
	if err != nil {
		internalError(c, h.logger, "login failed", err)
		return nil, auth.Resolution{}, false
	}
	res, err := auth.ResolveDashboard(roles)
	if errors.Is(err, auth.ErrUnrecognizedUserType) {
		h.logger.Warn("login without a recognized role", zap.String("user_id", user.ID.String()))
		c.JSON(http.StatusForbidden, gin.H{"error": "unrecognized user type"})
		return nil, auth.Resolution{}, false
	}
	return user, res, true
}

func (h *AuthHandler) issue(c *gin.Context, user *models.User, res auth.Resolution, status int) {
	tenantID := uuid.Nil
	if res.TenantID != nil {
		tenantID = *res.TenantID
	}
	token, err := auth.GenerateToken(user.ID, tenantID, user.Email, h.jwtSecret, h.tokenTTL)
	if err != nil {
		internalError(c, h.logger, "login failed", err)
		return
	}
	c.JSON(status, loginResponse{
		Token:     token,
		Dashboard: res.Dashboard,
		Role:      res.Role,
		Redirect:  res.Dashboard.Redirect(),
	})
}
