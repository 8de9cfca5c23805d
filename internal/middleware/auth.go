package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lalith-99/deliverypro/internal/auth"
	"go.uber.org/zap"
)

const (
	ContextKeyUserID   = "user_id"
	ContextKeyTenantID = "tenant_id"
	ContextKeyEmail    = "email"
	ContextKeySession  = "session"
	ContextKeyRole     = "role"
)

// Session is the caller's identity for the lifetime of one request. It is
// built once from the token; handlers read it instead of re-parsing.
type Session struct {
	UserID    uuid.UUID
	TenantID  uuid.UUID
	Email     string
	TokenID   string
	ExpiresAt time.Time
}

// BearerToken extracts the token from "Authorization: Bearer <token>".
// present is false when the header is missing altogether. Browsers cannot
// set headers on a WebSocket handshake, so upgrades may pass the token as
// ?access_token= instead.
func BearerToken(c *gin.Context) (token string, present bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		if q := c.Query("access_token"); q != "" && strings.EqualFold(c.GetHeader("Upgrade"), "websocket") {
			return q, true
		}
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", true
	}
	return strings.TrimSpace(parts[1]), true
}

// AuthMiddleware validates the JWT, rejects revoked tokens and stores the
// Session on the context. revoker may be nil when logout is not wired.
func AuthMiddleware(secret string, revoker auth.Revoker, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, present := BearerToken(c)
		if !present {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid authorization format, expected: Bearer <token>",
			})
			return
		}

		claims, err := auth.ParseToken(tokenString, secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		if revoker != nil {
			revoked, err := revoker.IsRevoked(c.Request.Context(), claims.TokenID())
			if err != nil {
				logger.Error("revocation check failed", zap.Error(err))
				c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "session check unavailable"})
				return
			}
			if revoked {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session has ended"})
				return
			}
		}

		s := Session{
			UserID:   claims.UserID,
			TenantID: claims.TenantID,
			Email:    claims.Email,
			TokenID:  claims.TokenID(),
		}
		if claims.ExpiresAt != nil {
			s.ExpiresAt = claims.ExpiresAt.Time
		}
		c.Set(ContextKeySession, s)
		c.Set(ContextKeyUserID, s.UserID)
		c.Set(ContextKeyTenantID, s.TenantID)
		c.Set(ContextKeyEmail, s.Email)
		c.Next()
	}
}

// GetSession returns the request's Session, or the zero Session when the
// auth middleware did not run.
func GetSession(c *gin.Context) Session {
	val, exists := c.Get(ContextKeySession)
	if !exists {
		return Session{}
	}
	s, _ := val.(Session)
	return s
}

func GetUserID(c *gin.Context) uuid.UUID {
	val, exists := c.Get(ContextKeyUserID)
	if !exists {
		return uuid.Nil
	}
	id, ok := val.(uuid.UUID)
	if !ok {
		return uuid.Nil
	}
	return id
}

// GetTenantID returns the tenant the caller acts for. After RequireRole it
// is the tenant bound to that role, not whatever the token carried.
func GetTenantID(c *gin.Context) uuid.UUID {
	val, exists := c.Get(ContextKeyTenantID)
	if !exists {
		return uuid.Nil
	}
	id, ok := val.(uuid.UUID)
	if !ok {
		return uuid.Nil
	}
	return id
}

func GetEmail(c *gin.Context) string {
	val, exists := c.Get(ContextKeyEmail)
	if !exists {
		return ""
	}
	email, ok := val.(string)
	if !ok {
		return ""
	}
	return email
}
