package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/deliverypro/internal/auth"
	"github.com/lalith-99/deliverypro/internal/middleware"
	"github.com/lalith-99/deliverypro/internal/models"
	"github.com/lalith-99/deliverypro/internal/observ"
	"github.com/lalith-99/deliverypro/internal/repository"
	"go.uber.org/zap"
)

// HealthChecker reports whether a backing dependency is reachable.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Handlers is everything NewRouter mounts.
type Handlers struct {
	Auth     *AuthHandler
	User     *UserHandler
	Tenant   *TenantHandler
	Product  *ProductHandler
	Order    *OrderHandler
	Driver   *DriverHandler
	Report   *ReportHandler
	Geo      *GeoHandler
	Reset    *ResetHandler
	Realtime *RealtimeHandler
	Stats    *StatsHandler
}

type RouterConfig struct {
	JWTSecret   string
	CORSOrigins []string
	Roles       repository.RoleRepository
	Revoker     auth.Revoker
	Health      HealthChecker
	Metrics     *observ.Metrics
	Logger      *zap.Logger
}

func NewRouter(cfg RouterConfig, h Handlers) *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.CORS(cfg.CORSOrigins),
		observ.RequestLogger(cfg.Logger),
		cfg.Metrics.Middleware(),
		gin.Recovery(),
	)

	// Public: load balancers and scrapers must reach these without a token.
	r.GET("/v1/health", healthHandler(cfg.Health))
	r.GET("/metrics", cfg.Metrics.Handler())

	fn := r.Group("/functions")
	fn.POST("/reset-user-password", h.Reset.AuthenticatedReset)
	fn.POST("/emergency-reset-password", h.Reset.EmergencyReset)

	public := r.Group("/v1")
	public.POST("/auth/register", h.Auth.Register)
	public.POST("/auth/login", h.Auth.Login)
	public.POST("/admin/login", h.Auth.AdminLogin)
	public.GET("/storefront/:slug", h.Tenant.Storefront)
	public.GET("/geo/postal/:code", h.Geo.Postal)

	v1 := r.Group("/v1")
	v1.Use(middleware.AuthMiddleware(cfg.JWTSecret, cfg.Revoker, cfg.Logger))
	v1.POST("/auth/logout", h.Auth.Logout)
	v1.GET("/me", h.User.GetMe)
	v1.GET("/realtime", h.Realtime.Subscribe)

	admin := v1.Group("/admin", middleware.RequireRole(cfg.Roles, models.RoleAdminMaster, cfg.Logger))
	admin.POST("/tenants", h.Tenant.Create)
	admin.GET("/tenants", h.Tenant.List)
	admin.POST("/tenants/:id/toggle-status", h.Tenant.ToggleStatus)
	admin.PUT("/tenants/:id/billing", h.Tenant.UpsertBilling)
	admin.GET("/tenants/:id/billing", h.Tenant.GetBilling)
	admin.GET("/tenants/:id/link", h.Tenant.Link)
	admin.GET("/stats", h.Stats.Platform)

	company := v1.Group("/company", middleware.RequireRole(cfg.Roles, models.RoleCompanyAdmin, cfg.Logger))
	company.GET("/products", h.Product.List)
	company.POST("/products", h.Product.Create)
	company.PUT("/products/:id", h.Product.Update)
	company.DELETE("/products/:id", h.Product.Delete)
	company.GET("/orders", h.Order.CompanyList)
	company.POST("/orders/:id/accept", h.Order.Accept)
	company.POST("/orders/:id/assign", h.Order.Assign)
	company.POST("/orders/:id/status", h.Order.UpdateStatus)
	company.POST("/orders/:id/cancel", h.Order.Cancel)
	company.GET("/drivers", h.Driver.CompanyList)
	company.POST("/drivers", h.Driver.CompanyCreate)
	company.GET("/reports/sessions", h.Report.Sessions)
	company.GET("/reports/revenue", h.Report.Revenue)

	driver := v1.Group("/driver", middleware.RequireRole(cfg.Roles, models.RoleDriver, cfg.Logger))
	driver.GET("/availability", h.Driver.Availability)
	driver.POST("/availability/toggle", h.Driver.Toggle)
	driver.GET("/orders", h.Order.DriverList)
	driver.POST("/orders/:id/advance", h.Order.Advance)
	driver.GET("/orders/:id/route", h.Order.Route)

	client := v1.Group("/client", middleware.RequireRole(cfg.Roles, models.RoleClient, cfg.Logger))
	client.GET("/tenants", h.Tenant.ListActive)
	client.GET("/tenants/:id/products", h.Product.ListForClient)
	client.GET("/profile", h.User.GetClientProfile)
	client.PUT("/profile", h.User.UpdateClientProfile)
	client.POST("/orders", h.Order.Create)
	client.GET("/orders", h.Order.ClientList)

	return r
}

func healthHandler(checker HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if checker == nil {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := checker.Health(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
