package auth

import (
	"errors"

	"github.com/google/uuid"
	"github.com/lalith-99/deliverypro/internal/models"
)

// ErrUnrecognizedUserType means the account holds no role this service
// knows. Such a login must not produce a session.
var ErrUnrecognizedUserType = errors.New("unrecognized user type")

// Dashboard is one of the four role-scoped areas of the app.
type Dashboard string

const (
	DashboardAdmin   Dashboard = "admin"
	DashboardCompany Dashboard = "company"
	DashboardDriver  Dashboard = "driver"
	DashboardClient  Dashboard = "client"
)

// priority decides which dashboard wins when a user holds several roles.
var priority = []struct {
	role      models.Role
	dashboard Dashboard
}{
	{models.RoleAdminMaster, DashboardAdmin},
	{models.RoleCompanyAdmin, DashboardCompany},
	{models.RoleDriver, DashboardDriver},
	{models.RoleClient, DashboardClient},
}

// Redirect is the path the frontend should navigate to after login.
func (d Dashboard) Redirect() string { return "/" + string(d) + "/dashboard" }

// LoginPath is where a failed role check on d sends the user.
func (d Dashboard) LoginPath() string {
	if d == DashboardAdmin {
		return "/admin/login"
	}
	return "/auth/login"
}

// Resolution is the outcome of role dispatch for one user.
type Resolution struct {
	Dashboard Dashboard   `json:"dashboard"`
	Role      models.Role `json:"role"`
	TenantID  *uuid.UUID  `json:"tenant_id,omitempty"`
}

// ResolveDashboard picks the dashboard for a role set: admin_master, then
// company_admin, then driver, then client. First match wins.
func ResolveDashboard(roles []models.UserRole) (Resolution, error) {
	for _, p := range priority {
		for _, r := range roles {
			if r.Role == p.role {
				return Resolution{Dashboard: p.dashboard, Role: r.Role, TenantID: r.TenantID}, nil
			}
		}
	}
	return Resolution{}, ErrUnrecognizedUserType
}

// DashboardFor maps a single role to its dashboard.
func DashboardFor(role models.Role) Dashboard {
	for _, p := range priority {
		if p.role == role {
			return p.dashboard
		}
	}
	return DashboardClient
}
