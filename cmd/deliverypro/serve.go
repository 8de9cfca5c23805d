package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/deliverypro/internal/api"
	"github.com/lalith-99/deliverypro/internal/auth"
	"github.com/lalith-99/deliverypro/internal/availability"
	"github.com/lalith-99/deliverypro/internal/config"
	"github.com/lalith-99/deliverypro/internal/db"
	"github.com/lalith-99/deliverypro/internal/geo"
	"github.com/lalith-99/deliverypro/internal/observ"
	"github.com/lalith-99/deliverypro/internal/order"
	"github.com/lalith-99/deliverypro/internal/realtime"
	"github.com/lalith-99/deliverypro/internal/repository/postgres"
	"github.com/lalith-99/deliverypro/internal/reset"
	"github.com/lalith-99/deliverypro/internal/tenant"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// subscriberBuffer is how many changes a realtime subscriber may lag
// before it is dropped.
const subscriberBuffer = 32

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long:  `Start the HTTP API. Configuration comes from the environment or a .env file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(parent context.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := observ.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.AutoMigrate {
		m, err := db.NewMigrator(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return fmt.Errorf("open migrator: %w", err)
		}
		err = m.Up(ctx)
		m.Close()
		if err != nil {
			return err
		}
	}

	database, err := db.New(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer database.Close()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("parse REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(redisOpts)
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}

	hub := realtime.NewHub(subscriberBuffer, logger)
	broker := realtime.NewRedisBroker(rdb, hub, logger)
	go func() {
		if err := broker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("realtime relay stopped", zap.Error(err))
		}
	}()

	revoker := auth.NewRedisRevoker(rdb)
	metrics := observ.NewMetrics()

	pool := database.Pool()
	tenantRepo := postgres.NewTenantStore(pool)
	billingRepo := postgres.NewBillingStore(pool)
	userRepo := postgres.NewUserStore(pool)
	clientRepo := postgres.NewClientStore(pool)
	driverRepo := postgres.NewDriverStore(pool)
	sessionRepo := postgres.NewSessionStore(pool)
	productRepo := postgres.NewProductStore(pool)
	orderRepo := postgres.NewOrderStore(pool)
	auditRepo := postgres.NewAuditStore(pool)
	statsRepo := postgres.NewStatsStore(pool)

	geoClient := geo.NewClient(geo.Config{
		PostalBaseURL:   cfg.ViaCEPURL,
		GeocoderBaseURL: cfg.NominatimURL,
		RouterBaseURL:   cfg.OSRMURL,
		Timeout:         cfg.GeoTimeout,
	}, logger)

	orders := order.NewService(orderRepo, productRepo, tenantRepo, driverRepo, broker, metrics, logger)
	tracker := availability.NewTracker(driverRepo, sessionRepo, broker, metrics, logger)
	tenants := tenant.NewService(tenantRepo, billingRepo, orderRepo, auditRepo, logger)
	resets := reset.NewService(userRepo, userRepo, auditRepo, logger)

	if err := api.RegisterValidators(); err != nil {
		return err
	}

	router := api.NewRouter(api.RouterConfig{
		JWTSecret:   cfg.JWTSecret,
		CORSOrigins: cfg.CORSOrigins,
		Roles:       userRepo,
		Revoker:     revoker,
		Health:      database,
		Metrics:     metrics,
		Logger:      logger,
	}, api.Handlers{
		Auth:     api.NewAuthHandler(userRepo, userRepo, clientRepo, revoker, cfg.JWTSecret, cfg.TokenTTL, logger),
		User:     api.NewUserHandler(userRepo, userRepo, clientRepo, logger),
		Tenant:   api.NewTenantHandler(tenants, cfg.PublicOrigin, cfg.ReportLocation, logger),
		Product:  api.NewProductHandler(productRepo, tenantRepo, logger),
		Order:    api.NewOrderHandler(orders, clientRepo, driverRepo, geoClient, logger),
		Driver:   api.NewDriverHandler(driverRepo, userRepo, tracker, logger),
		Report:   api.NewReportHandler(sessionRepo, orderRepo, driverRepo, cfg.ReportLocation, logger),
		Geo:      api.NewGeoHandler(geoClient),
		Reset:    api.NewResetHandler(resets, revoker, cfg.JWTSecret, logger),
		Realtime: api.NewRealtimeHandler(hub, userRepo, clientRepo, cfg.CORSOrigins, logger),
		Stats:    api.NewStatsHandler(statsRepo, cfg.ReportLocation, logger),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting DeliveryPro",
			zap.String("port", cfg.Port),
			zap.String("env", cfg.Env),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
