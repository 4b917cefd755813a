package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/pedalworks/shop-backend/internal/catalog"
	"github.com/pedalworks/shop-backend/internal/config"
	"github.com/pedalworks/shop-backend/internal/middleware"
	"github.com/pedalworks/shop-backend/internal/shared/mailer"
	"github.com/pedalworks/shop-backend/internal/shop/handler"
	"github.com/pedalworks/shop-backend/internal/shop/repository"
	"github.com/pedalworks/shop-backend/internal/shop/service"
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
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting shop-backend service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	db, err := initDatabase(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}

	rdb := initRedis(cfg.Redis)

	cutoff, err := cfg.Tax.ParsedCutoffDate()
	if err != nil {
		zapLogger.Fatal("Invalid tax cutoff date", zap.Error(err))
	}
	taxRate, err := parseRate(cfg.Tax.Rate)
	if err != nil {
		zapLogger.Fatal("Invalid tax rate", zap.Error(err))
	}
	pricing := service.Pricing{
		Rate:               taxRate,
		CutoffDate:         cutoff,
		ItemName:           cfg.Tax.ItemName,
		EmployeeMultiplier: cfg.Tax.EmployeeMultiplier,
	}

	repos := repository.NewRepositories(db)
	services := service.NewServices(db, repos, pricing, zapLogger)
	services.Transaction.SetNotifier(mailer.New(cfg.Email, zapLogger))
	services.Item.SetCatalog(catalog.New(
		cfg.Catalog.CSVPath,
		cfg.Catalog.ProductAPIURL,
		cfg.Catalog.ProductAPIKey,
		rdb,
		cfg.Catalog.CacheTTL,
		zapLogger,
	))
	handlers := handler.NewHandlers(services, repos)

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(zapLogger))
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())

	registerRoutes(router, handlers, cfg)

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

func parseRate(raw string) (float64, error) {
	var rate float64
	if _, err := fmt.Sscanf(raw, "%f", &rate); err != nil {
		return 0, err
	}
	if rate < 0 || rate >= 1 {
		return 0, fmt.Errorf("tax rate %f out of range", rate)
	}
	return rate, nil
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
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}

	db, err := gorm.Open(postgres.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	return db, nil
}

func initRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func registerRoutes(r *gin.Engine, h *handler.Handlers, cfg *config.Config) {
	r.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/health/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    Version,
			"build_time": BuildTime,
		})
	})

	v1 := r.Group("/api/v1")
	authorized := v1.Group("")
	authorized.Use(middleware.JWTAuth(cfg.JWT.Secret))
	{
		items := authorized.Group("/items")
		{
			items.GET("", h.Item.Search)
			items.GET("/brands", h.Item.Brands)
			items.GET("/categories", h.Item.Categories)
			items.GET("/upc/:upc", h.Item.LookupUPC)
			items.GET("/:id", h.Item.Get)
			items.POST("", h.Item.Create)
			items.PUT("/:id", middleware.RequireRole("admin"), h.Item.Update)
			items.PUT("/:id/stock", h.Item.AdjustStock)
		}

		requests := authorized.Group("/order-requests")
		{
			requests.GET("", h.Request.List)
			requests.GET("/latest/:n", h.Request.Latest)
			requests.GET("/:id", h.Request.Get)
			requests.GET("/:id/actions", h.Request.Actions)
			requests.POST("", h.Request.Create)
			requests.PUT("/:id", h.Request.Update)
			requests.PUT("/:id/status", h.Request.SetStatus)
			requests.PUT("/:id/quantity", h.Request.SetQuantity)
			requests.PUT("/:id/item", middleware.RequireRole("admin"), h.Request.SetItem)
			requests.POST("/:id/transactions", h.Request.AttachTicket)
			requests.DELETE("/:id/transactions/:ticketID", h.Request.DetachTicket)
			requests.DELETE("/:id", h.Request.Delete)
		}

		orders := authorized.Group("/orders")
		orders.Use(middleware.RequireRole("admin"))
		{
			orders.GET("", h.Order.List)
			orders.GET("/:id", h.Order.Get)
			orders.GET("/:id/requests", h.Order.Requests)
			orders.GET("/:id/actions", h.Order.Actions)
			orders.GET("/:id/export", h.Order.Export)
			orders.POST("", h.Order.Create)
			orders.POST("/:id/requests", h.Order.AddRequest)
			orders.DELETE("/:id/requests/:requestID", h.Order.RemoveRequest)
			orders.PUT("/:id", h.Order.Update)
			orders.PUT("/:id/status", h.Order.SetStatus)
			orders.PUT("/:id/freight-charge", h.Order.SetFreightCharge)
			orders.DELETE("/:id", h.Order.Delete)
		}

		transactions := authorized.Group("/transactions")
		{
			transactions.GET("", h.Transaction.List)
			transactions.GET("/:id", h.Transaction.Get)
			transactions.GET("/:id/actions", h.Transaction.Actions)
			transactions.POST("", h.Transaction.Create)
			transactions.PUT("/:id", h.Transaction.Update)
			transactions.POST("/:id/items", h.Transaction.AddItem)
			transactions.DELETE("/:id/items/:index", h.Transaction.RemoveItem)
			transactions.POST("/:id/repairs", h.Transaction.AddRepair)
			transactions.PUT("/:id/repairs/:entryID", h.Transaction.SetRepairCompleted)
			transactions.DELETE("/:id/repairs/:entryID", h.Transaction.RemoveRepair)
			transactions.PUT("/:id/complete", h.Transaction.MarkComplete)
			transactions.PUT("/:id/paid", h.Transaction.MarkPaid)
			transactions.PUT("/:id/customer", h.Transaction.SetCustomer)
			transactions.PUT("/:id/bike", h.Transaction.AttachBike)
			transactions.DELETE("/:id/bike", h.Transaction.DetachBike)
			transactions.DELETE("/:id", h.Transaction.Delete)
		}

		customers := authorized.Group("/customers")
		{
			customers.GET("", h.Customer.Search)
			customers.GET("/:id", h.Customer.Get)
			customers.POST("", h.Customer.Create)
			customers.PUT("/:id", h.Customer.Update)
		}

		authorized.POST("/bikes", h.Customer.CreateBike)

		repairs := authorized.Group("/repairs")
		{
			repairs.GET("", h.Customer.ListRepairs)
			repairs.POST("", middleware.RequireRole("admin"), h.Customer.CreateRepair)
			repairs.PUT("/:id", middleware.RequireRole("admin"), h.Customer.UpdateRepair)
		}

		authorized.GET("/users", h.Customer.ListUsers)
	}
}
