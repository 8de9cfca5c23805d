package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/deliverypro/internal/auth"
	"github.com/lalith-99/deliverypro/internal/models"
	"github.com/lalith-99/deliverypro/internal/repository"
	"go.uber.org/zap"
)

// RequireRole re-reads the caller's roles from the store and lets the
// request through only if one of them is want. Tenant-bound roles
// overwrite the context tenant with the role's tenant. Must run after
// AuthMiddleware.
func RequireRole(roles repository.RoleRepository, want models.Role, logger *zap.Logger) gin.HandlerFunc {
	login := auth.DashboardFor(want).LoginPath()

	return func(c *gin.Context) {
		userID := GetUserID(c)
		held, err := roles.ListByUser(c.Request.Context(), userID)
		if err != nil {
			logger.Error("failed to load roles", zap.String("user_id", userID.String()), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "could not verify role"})
			return
		}

		for _, r := range held {
			if r.Role != want {
				continue
			}
			if r.TenantID != nil {
				c.Set(ContextKeyTenantID, *r.TenantID)
			}
			c.Set(ContextKeyRole, r.Role)
			c.Next()
			return
		}

		logger.Warn("role check failed",
			zap.String("user_id", userID.String()),
			zap.String("required", string(want)),
			zap.String("path", c.FullPath()),
		)
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden", "redirect": login})
	}
}
