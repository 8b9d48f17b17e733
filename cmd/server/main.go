package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/officina/distinta/internal/config"
	"github.com/officina/distinta/internal/entity"
	"github.com/officina/distinta/internal/handler"
	"github.com/officina/distinta/internal/middleware"
	"github.com/officina/distinta/internal/repository"
	"github.com/officina/distinta/internal/service"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting distinta service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	db, err := initDatabase(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}

	if err := entity.AutoMigrate(db); err != nil {
		zapLogger.Fatal("Failed to auto-migrate tables", zap.Error(err))
	}
	zapLogger.Info("Database migration completed")

	// Redis backs the rollup cache and is optional.
	var rdb *redis.Client
	if cfg.Redis.Host != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			zapLogger.Warn("Redis unavailable, rollup cache disabled", zap.Error(err))
			rdb = nil
		}
	}

	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, db, rdb, cfg)
	handlers := handler.NewHandlers(services)

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(zapLogger))
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	router.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "distinta"})
	})
	router.GET("/health/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "distinta"})
	})
	router.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service":    "distinta",
			"version":    Version,
			"build_time": BuildTime,
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		boms := v1.Group("/boms")
		{
			boms.GET("", handlers.BOM.List)
			boms.POST("", handlers.BOM.Create)
			boms.GET("/:id", handlers.BOM.Get)
			boms.PUT("/:id", handlers.BOM.Update)
			boms.DELETE("/:id", handlers.BOM.Delete)
			boms.GET("/:id/export", handlers.BOM.Export)
			boms.GET("/:id/rollup", handlers.Costing.Rollup)
			boms.GET("/:id/simulate", handlers.Costing.Simulate)
			boms.POST("/:id/components", handlers.BOM.AddComponent)
			boms.POST("/:id/orders", handlers.Order.Generate)
		}

		components := v1.Group("/components")
		{
			components.PUT("/:id", handlers.BOM.UpdateComponent)
			components.DELETE("/:id", handlers.BOM.DeleteComponent)
			components.POST("/:id/file", handlers.BOM.UploadAttachment)
			components.GET("/:id/file", handlers.BOM.DownloadAttachment)
			components.GET("/:id/prices", handlers.Supplier.ListPrices)
			components.POST("/:id/prices", handlers.Supplier.AddPrice)
		}

		suppliers := v1.Group("/suppliers")
		{
			suppliers.GET("", handlers.Supplier.List)
			suppliers.POST("", handlers.Supplier.Create)
			suppliers.GET("/:id", handlers.Supplier.Get)
			suppliers.PUT("/:id", handlers.Supplier.Update)
			suppliers.DELETE("/:id", handlers.Supplier.Delete)
		}

		orders := v1.Group("/orders")
		{
			orders.GET("", handlers.Order.List)
			orders.POST("/manual", handlers.Order.CreateManual)
			orders.GET("/:id", handlers.Order.Get)
			orders.GET("/:id/status", handlers.Order.Status)
			orders.GET("/:id/summary", handlers.Order.Summary)
			orders.PUT("/:id", handlers.Order.Update)
			orders.DELETE("/:id", handlers.Order.Delete)
			orders.DELETE("/:id/lines/:lineId", handlers.Order.DeleteLine)
		}

		clients := v1.Group("/clients")
		{
			clients.GET("", handlers.Client.List)
			clients.POST("", handlers.Client.Create)
			clients.GET("/:id", handlers.Client.Get)
			clients.PUT("/:id", handlers.Client.Update)
			clients.DELETE("/:id", handlers.Client.Delete)
		}
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		zapLogger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exited")
}

func initLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}
	switch cfg.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}
	return zapCfg.Build()
}

func initDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	return db, nil
}
