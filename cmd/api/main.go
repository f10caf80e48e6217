package main

import (
	"fmt"
	"net/http"
	"os"

	"kharcha/internal/config"
	"kharcha/internal/database"
	"kharcha/internal/handlers"
	"kharcha/internal/logger"
	"kharcha/internal/middleware"
	"kharcha/internal/services"
	"kharcha/internal/validator"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize database configuration
	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	// Run migrations
	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Register custom validators
	validator.Register()

	// Initialize services
	db := dbManager.DB()
	userService := services.NewUserService(db)
	auditService := services.NewAuditService(db)
	catalogService := services.NewCatalogService(db)
	expenseService := services.NewExpenseService(db, catalogService)
	reportService := services.NewReportService(db)
	priceService := services.NewPriceService(db, userService)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService, auditService)
	expenseHandler := handlers.NewExpenseHandler(expenseService, auditService)
	reportHandler := handlers.NewReportHandler(reportService)
	priceHandler := handlers.NewPriceHandler(priceService)
	catalogHandler := handlers.NewCatalogHandler(catalogService)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.Metrics())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Prometheus metrics endpoint
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 group
	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/signup", authHandler.Signup)
	auth.POST("/login", authHandler.Login)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	// User profile
	protected.GET("/profile", authHandler.GetProfile)

	// Expense routes
	expenses := protected.Group("/expenses")
	expenses.POST("", expenseHandler.IngestSingle)
	expenses.POST("/batch", expenseHandler.IngestBatch)
	expenses.GET("", expenseHandler.GetRecentExpenses)

	// Report routes
	reports := protected.Group("/reports")
	reports.GET("/summary", reportHandler.GetMonthlySummary)
	reports.GET("/calendar", reportHandler.GetCalendarRollup)
	reports.GET("/category-details", reportHandler.GetCategoryDetails)
	reports.GET("/monthly-category-comparison", reportHandler.GetCategoryComparison)

	// Price intelligence
	protected.GET("/price-comparison", priceHandler.GetPriceComparison)

	// Catalog routes
	protected.GET("/categories", catalogHandler.ListCategories)
	protected.GET("/vendors", catalogHandler.ListVendors)
	protected.GET("/brands", catalogHandler.ListBrands)
	protected.GET("/products/search", catalogHandler.SearchProducts)

	log.Infof("Starting Kharcha backend server on port %s", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
