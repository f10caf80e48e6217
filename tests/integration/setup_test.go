package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"kharcha/internal/handlers"
	"kharcha/internal/logger"
	"kharcha/internal/middleware"
	"kharcha/internal/models"
	"kharcha/internal/services"
	"kharcha/internal/validator"
)

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB     *gorm.DB
	Router *gin.Engine
}

// dbCounter ensures each test gets a unique in-memory database.
var dbCounter atomic.Int64

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// setupIsolatedDB creates an isolated in-memory SQLite database for a single test.
func setupIsolatedDB(t *testing.T) *gorm.DB {
	t.Helper()

	n := dbCounter.Add(1)
	dsn := fmt.Sprintf("file:integdb%d?mode=memory&cache=shared", n)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	allModels := []interface{}{
		&models.User{},
		&models.Category{},
		&models.Vendor{},
		&models.Product{},
		&models.Expense{},
		&models.AuditLog{},
	}
	if err := db.AutoMigrate(allModels...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// setupApp creates a full application stack backed by an isolated in-memory SQLite.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := setupIsolatedDB(t)

	// Services
	userService := services.NewUserService(db)
	auditService := services.NewAuditService(db)
	catalogService := services.NewCatalogService(db)
	expenseService := services.NewExpenseService(db, catalogService)
	reportService := services.NewReportService(db)
	priceService := services.NewPriceService(db, userService)

	// Handlers
	authHandler := handlers.NewAuthHandler(userService, auditService)
	expenseHandler := handlers.NewExpenseHandler(expenseService, auditService)
	reportHandler := handlers.NewReportHandler(reportService)
	priceHandler := handlers.NewPriceHandler(priceService)
	catalogHandler := handlers.NewCatalogHandler(catalogService)

	// Router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())

	v1 := router.Group("/api/v1")

	// Public auth routes
	auth := v1.Group("/auth")
	auth.POST("/signup", authHandler.Signup)
	auth.POST("/login", authHandler.Login)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.GET("/profile", authHandler.GetProfile)

	expenses := protected.Group("/expenses")
	expenses.POST("", expenseHandler.IngestSingle)
	expenses.POST("/batch", expenseHandler.IngestBatch)
	expenses.GET("", expenseHandler.GetRecentExpenses)

	reports := protected.Group("/reports")
	reports.GET("/summary", reportHandler.GetMonthlySummary)
	reports.GET("/calendar", reportHandler.GetCalendarRollup)
	reports.GET("/category-details", reportHandler.GetCategoryDetails)
	reports.GET("/monthly-category-comparison", reportHandler.GetCategoryComparison)

	protected.GET("/price-comparison", priceHandler.GetPriceComparison)

	protected.GET("/categories", catalogHandler.ListCategories)
	protected.GET("/vendors", catalogHandler.ListVendors)
	protected.GET("/brands", catalogHandler.ListBrands)
	protected.GET("/products/search", catalogHandler.SearchProducts)

	return &testApp{DB: db, Router: router}
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// signupUser registers a customer at the given pincode and returns the
// token and user ID.
func (app *testApp) signupUser(t *testing.T, contact, pincode string) (token, userID string) {
	t.Helper()
	body := fmt.Sprintf(`{"name":"Test User","contact":%q,"password":"password123","role":"customer"`, contact)
	if pincode != "" {
		body += fmt.Sprintf(`,"pincode":%q`, pincode)
	}
	body += "}"
	rec := app.request("POST", "/api/v1/auth/signup", body, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	user := result["user"].(map[string]interface{})
	return result["token"].(string), user["id"].(string)
}

// ingestBatch posts a batch of expense items and fails the test on a
// non-201 response.
func (app *testApp) ingestBatch(t *testing.T, token, body string) map[string]interface{} {
	t.Helper()
	rec := app.request("POST", "/api/v1/expenses/batch", body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("batch ingest failed: %d %s", rec.Code, rec.Body.String())
	}
	return parseJSON(t, rec)
}
