package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/lalith-99/deliverypro/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func TestTokenRoundTrip(t *testing.T) {
	userID, tenantID := uuid.New(), uuid.New()

	signed, err := GenerateToken(userID, tenantID, "ze@pizza.test", secret, time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(signed, secret)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, tenantID, claims.TenantID)
	assert.Equal(t, "ze@pizza.test", claims.Email)
	assert.NotEmpty(t, claims.TokenID())
}

func TestTokensGetDistinctIDs(t *testing.T) {
	id := uuid.New()
	a, err := GenerateToken(id, uuid.Nil, "a@b.test", secret, time.Hour)
	require.NoError(t, err)
	b, err := GenerateToken(id, uuid.Nil, "a@b.test", secret, time.Hour)
	require.NoError(t, err)

	ca, err := ParseToken(a, secret)
	require.NoError(t, err)
	cb, err := ParseToken(b, secret)
	require.NoError(t, err)
	assert.NotEqual(t, ca.TokenID(), cb.TokenID())
}

func TestParseTokenRejects(t *testing.T) {
	valid, err := GenerateToken(uuid.New(), uuid.Nil, "a@b.test", secret, time.Hour)
	require.NoError(t, err)
	expired, err := GenerateToken(uuid.New(), uuid.Nil, "a@b.test", secret, -time.Minute)
	require.NoError(t, err)

	foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "someone-else",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	wrongIssuer, err := foreign.SignedString([]byte(secret))
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Issuer: issuer},
	}).SignedString([]byte(secret))
	require.NoError(t, err)

	tests := []struct {
		name   string
		token  string
		secret string
	}{
		{"wrong secret", valid, "other-secret"},
		{"expired", expired, secret},
		{"wrong issuer", wrongIssuer, secret},
		{"no expiry", noExpiry, secret},
		{"garbage", "not.a.token", secret},
		{"empty", "", secret},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseToken(tt.token, tt.secret)
			assert.Error(t, err)
		})
	}
}

func TestResolveDashboard(t *testing.T) {
	tenantID := uuid.New()
	role := func(r models.Role) models.UserRole { return models.UserRole{Role: r} }

	tests := []struct {
		name  string
		roles []models.UserRole
		want  Dashboard
	}{
		{"admin wins over everything", []models.UserRole{role(models.RoleClient), role(models.RoleDriver), role(models.RoleAdminMaster)}, DashboardAdmin},
		{"company over driver", []models.UserRole{role(models.RoleDriver), role(models.RoleCompanyAdmin)}, DashboardCompany},
		{"driver over client", []models.UserRole{role(models.RoleClient), role(models.RoleDriver)}, DashboardDriver},
		{"client only", []models.UserRole{role(models.RoleClient)}, DashboardClient},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := ResolveDashboard(tt.roles)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Dashboard)
		})
	}

	res, err := ResolveDashboard([]models.UserRole{{Role: models.RoleCompanyAdmin, TenantID: &tenantID}})
	require.NoError(t, err)
	require.NotNil(t, res.TenantID)
	assert.Equal(t, tenantID, *res.TenantID)
	assert.Equal(t, models.RoleCompanyAdmin, res.Role)

	_, err = ResolveDashboard(nil)
	assert.ErrorIs(t, err, ErrUnrecognizedUserType)
}

func TestDashboardPaths(t *testing.T) {
	assert.Equal(t, "/admin/dashboard", DashboardAdmin.Redirect())
	assert.Equal(t, "/driver/dashboard", DashboardDriver.Redirect())
	assert.Equal(t, "/admin/login", DashboardAdmin.LoginPath())
	assert.Equal(t, "/auth/login", DashboardCompany.LoginPath())
	assert.Equal(t, "/auth/login", DashboardClient.LoginPath())
	assert.Equal(t, DashboardCompany, DashboardFor(models.RoleCompanyAdmin))
}
