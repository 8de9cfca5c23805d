package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lalith-99/deliverypro/internal/auth"
	"github.com/lalith-99/deliverypro/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const secret = "test-secret"

func init() { gin.SetMode(gin.TestMode) }

type staticRoles map[uuid.UUID][]models.UserRole

func (r staticRoles) ListByUser(_ context.Context, userID uuid.UUID) ([]models.UserRole, error) {
	return r[userID], nil
}

type fakeRevoker struct {
	revoked map[string]bool
	err     error
}

func (f *fakeRevoker) Revoke(_ context.Context, tokenID string, _ time.Time) error {
	f.revoked[tokenID] = true
	return nil
}

func (f *fakeRevoker) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	return f.revoked[tokenID], f.err
}

func token(t *testing.T, userID, tenantID uuid.UUID) string {
	t.Helper()
	signed, err := auth.GenerateToken(userID, tenantID, "user@test.dev", secret, time.Hour)
	require.NoError(t, err)
	return signed
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func protectedRouter(revoker auth.Revoker, roles staticRoles, want models.Role) *gin.Engine {
	r := gin.New()
	r.Use(AuthMiddleware(secret, revoker, zap.NewNop()))
	r.Use(RequireRole(roles, want, zap.NewNop()))
	r.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id":   GetUserID(c).String(),
			"tenant_id": GetTenantID(c).String(),
			"email":     GetEmail(c),
		})
	})
	return r
}

func TestAuthMiddleware(t *testing.T) {
	userID := uuid.New()
	roles := staticRoles{userID: {{UserID: userID, Role: models.RoleClient}}}
	valid := token(t, userID, uuid.Nil)

	tests := []struct {
		name   string
		header string
		want   int
		errMsg string
	}{
		{"no header", "", http.StatusUnauthorized, "missing authorization header"},
		{"not bearer", "Basic abc", http.StatusUnauthorized, "invalid authorization format, expected: Bearer <token>"},
		{"bad token", "Bearer nope", http.StatusUnauthorized, "invalid or expired token"},
		{"valid", "Bearer " + valid, http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := protectedRouter(nil, roles, models.RoleClient)
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code)
			if tt.errMsg != "" {
				assert.Equal(t, tt.errMsg, decode(t, w)["error"])
			}
		})
	}
}

func TestAuthMiddlewareRevocation(t *testing.T) {
	userID := uuid.New()
	roles := staticRoles{userID: {{UserID: userID, Role: models.RoleClient}}}
	signed := token(t, userID, uuid.Nil)
	claims, err := auth.ParseToken(signed, secret)
	require.NoError(t, err)

	revoker := &fakeRevoker{revoked: map[string]bool{}}
	require.NoError(t, revoker.Revoke(context.Background(), claims.TokenID(), claims.ExpiresAt.Time))

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	w := httptest.NewRecorder()
	protectedRouter(revoker, roles, models.RoleClient).ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "session has ended", decode(t, w)["error"])

	failing := &fakeRevoker{revoked: map[string]bool{}, err: errors.New("redis down")}
	w = httptest.NewRecorder()
	protectedRouter(failing, roles, models.RoleClient).ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRequireRole(t *testing.T) {
	companyUser, clientUser := uuid.New(), uuid.New()
	roleTenant := uuid.New()
	roles := staticRoles{
		companyUser: {{UserID: companyUser, Role: models.RoleCompanyAdmin, TenantID: &roleTenant}},
		clientUser:  {{UserID: clientUser, Role: models.RoleClient}},
	}
	r := protectedRouter(nil, roles, models.RoleCompanyAdmin)

	// The token claims a different tenant; the role's tenant wins.
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token(t, companyUser, uuid.New()))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, roleTenant.String(), decode(t, w)["tenant_id"])

	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token(t, clientUser, uuid.Nil))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "/auth/login", decode(t, w)["redirect"])

	adminOnly := protectedRouter(nil, roles, models.RoleAdminMaster)
	w = httptest.NewRecorder()
	adminOnly.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "/admin/login", decode(t, w)["redirect"])
}

func TestBearerTokenFromQueryOnlyOnUpgrade(t *testing.T) {
	newContext := func(upgrade bool) *gin.Context {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/v1/realtime?access_token=abc", nil)
		if upgrade {
			c.Request.Header.Set("Upgrade", "websocket")
		}
		return c
	}

	tok, present := BearerToken(newContext(true))
	assert.True(t, present)
	assert.Equal(t, "abc", tok)

	_, present = BearerToken(newContext(false))
	assert.False(t, present)
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"https://app.test/"}))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
	req.Header.Set("Origin", "https://app.test")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.test", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, corsAllowHeaders, w.Header().Get("Access-Control-Allow-Headers"))

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://evil.test")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	wild := gin.New()
	wild.Use(CORS([]string{"*"}))
	wild.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	w = httptest.NewRecorder()
	wild.ServeHTTP(w, req)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
