package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/availability-api/api/swagger"
	"github.com/noah-isme/availability-api/internal/availability"
	"github.com/noah-isme/availability-api/internal/handler"
	internalmiddleware "github.com/noah-isme/availability-api/internal/middleware"
	"github.com/noah-isme/availability-api/internal/repository"
	"github.com/noah-isme/availability-api/internal/service"
	"github.com/noah-isme/availability-api/pkg/cache"
	"github.com/noah-isme/availability-api/pkg/config"
	"github.com/noah-isme/availability-api/pkg/database"
	"github.com/noah-isme/availability-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/availability-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/availability-api/pkg/middleware/requestid"
)

// @title Availability API
// @version 1.0.0
// @description Recurring weekly availability editor with booking overlay
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	window, err := availability.NewWindow(cfg.Grid.StartHour, cfg.Grid.EndHour, cfg.Grid.StepMinutes)
	if err != nil {
		return fmt.Errorf("grid window: %w", err)
	}
	loc, err := cfg.Grid.Location()
	if err != nil {
		return err
	}

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck

	var redisClient redis.UniversalClient
	if cfg.Bookings.CacheEnabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer client.Close() //nolint:errcheck
		redisClient = client
	}

	eventTypeRepo := repository.NewEventTypeRepository(db)
	availabilityRepo := repository.NewAvailabilityRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, "availability:")

	validate := validator.New()
	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Bookings.CacheTTL, logr, cfg.Bookings.CacheEnabled)
	bookingSvc := service.NewBookingService(bookingRepo, cacheSvc, cfg.Bookings.CacheTTL, loc, validate, logr, metricsSvc)
	availabilitySvc := service.NewAvailabilityService(eventTypeRepo, availabilityRepo, bookingSvc, service.AvailabilityServiceConfig{
		Window:   window,
		Location: loc,
	}, validate, logr, metricsSvc)
	editorSvc := service.NewEditorService(availabilitySvc, bookingSvc, service.EditorServiceConfig{
		Window:     window,
		Location:   loc,
		SessionTTL: cfg.Editor.SessionTTL,
	}, validate, logr, metricsSvc)
	go editorSvc.RunJanitor(ctx, time.Minute)

	availabilityHandler := handler.NewAvailabilityHandler(availabilitySvc, logr)
	bookingHandler := handler.NewBookingHandler(bookingSvc)
	editorHandler := handler.NewEditorHandler(editorSvc, logr)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, map[string]handler.Pinger{
		"database": db,
		"cache":    handler.PingerFunc(cacheRepo.Ping),
	})

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, "/health", "/ready", "/metrics"))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	if cfg.Metrics.Enabled {
		r.Use(internalmiddleware.Metrics(metricsSvc))
	}

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	if cfg.Metrics.Enabled {
		r.GET("/metrics", metricsHandler.Prometheus)
		r.GET("/metrics/summary", metricsHandler.Snapshot)
	}
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	writers := []gin.HandlerFunc{}
	if cfg.Auth.Enabled {
		api.Use(internalmiddleware.JWT(service.NewAuthService(cfg.Auth.JWTSecret)))
		writers = append(writers, internalmiddleware.RequireRoles(cfg.Auth.WriteRoles...))
	}
	guarded := func(h gin.HandlerFunc) []gin.HandlerFunc {
		return append(append([]gin.HandlerFunc{}, writers...), h)
	}

	eventTypes := api.Group("/event-types/:id/availability")
	eventTypes.GET("", availabilityHandler.List)
	eventTypes.PUT("", guarded(availabilityHandler.Replace)...)
	eventTypes.GET("/grid", availabilityHandler.Grid)
	eventTypes.GET("/export", availabilityHandler.Export)

	api.GET("/bookings", bookingHandler.List)

	sessions := api.Group("/editor/sessions")
	sessions.POST("", editorHandler.Create)
	sessions.GET("/:sessionId", editorHandler.Get)
	sessions.DELETE("/:sessionId", editorHandler.Close)
	sessions.PUT("/:sessionId/event-type", editorHandler.SelectEventType)
	sessions.POST("/:sessionId/toggle", editorHandler.Toggle)
	sessions.POST("/:sessionId/week", editorHandler.Navigate)
	sessions.POST("/:sessionId/bookings/reload", editorHandler.ReloadBookings)
	sessions.POST("/:sessionId/save", guarded(editorHandler.Save)...)
	sessions.POST("/:sessionId/discard", editorHandler.Discard)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "grid_rows", window.RowCount())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logr.Info("server stopped")
	return nil
}
