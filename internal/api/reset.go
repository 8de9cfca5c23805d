package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/deliverypro/internal/auth"
	"github.com/lalith-99/deliverypro/internal/middleware"
	"github.com/lalith-99/deliverypro/internal/reset"
	"go.uber.org/zap"
)

// ResetHandler exposes the two password-reset functions. Their error
// bodies are a fixed contract with the admin console, so the bearer check
// is done here rather than by AuthMiddleware.
type ResetHandler struct {
	svc       *reset.Service
	revoker   auth.Revoker
	jwtSecret string
	logger    *zap.Logger
}

func NewResetHandler(svc *reset.Service, revoker auth.Revoker, jwtSecret string, logger *zap.Logger) *ResetHandler {
	return &ResetHandler{svc: svc, revoker: revoker, jwtSecret: jwtSecret, logger: logger}
}

type resetRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// writeError maps reset failures to their fixed responses. Store failures
// pass their message through with 400. Anything else gets unexpected, which
// is 400 for the authenticated reset and 500 for the emergency reset.
func (h *ResetHandler) writeError(c *gin.Context, err error, unexpected int) {
	switch {
	case errors.Is(err, reset.ErrCallerNotAdmin):
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden - Admin master only"})
	case errors.Is(err, reset.ErrTargetNotAdmin):
		c.JSON(http.StatusForbidden, gin.H{"error": "Only admin_master accounts can use emergency reset"})
	case errors.Is(err, reset.ErrInputRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password required"})
	case errors.Is(err, reset.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
	case errors.Is(err, reset.ErrProfileNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
	case errors.Is(err, reset.ErrPasswordRejected), errors.Is(err, reset.ErrStore):
		h.logger.Warn("password reset failed", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case unexpected == http.StatusBadRequest:
		h.logger.Error("password reset failed", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Error("password reset failed", zap.Error(err))
		c.JSON(unexpected, gin.H{"error": "Internal server error"})
	}
}

// AuthenticatedReset handles POST /functions/reset-user-password.
func (h *ResetHandler) AuthenticatedReset(c *gin.Context) {
	token, present := middleware.BearerToken(c)
	if !present {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "No authorization header"})
		return
	}
	claims, err := auth.ParseToken(token, h.jwtSecret)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	if h.revoker != nil {
		revoked, err := h.revoker.IsRevoked(c.Request.Context(), claims.TokenID())
		if err != nil || revoked {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
	}

	if err := h.svc.RequireAdmin(c.Request.Context(), claims.UserID); err != nil {
		h.writeError(c, err, http.StatusBadRequest)
		return
	}

	var req resetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.svc.AuthenticatedReset(c.Request.Context(), claims.UserID, req.Email, req.Password); err != nil {
		h.writeError(c, err, http.StatusBadRequest)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Password updated for " + req.Email})
}

// EmergencyReset handles POST /functions/emergency-reset-password. No
// session is required; the target itself must be an admin_master.
func (h *ResetHandler) EmergencyReset(c *gin.Context) {
	var req resetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.svc.EmergencyReset(c.Request.Context(), req.Email, req.Password); err != nil {
		h.writeError(c, err, http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Password updated for " + req.Email})
}
