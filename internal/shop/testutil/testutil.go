// Package testutil provides database and HTTP helpers for shop tests. Each
// test runs against its own postgres schema, created on setup and dropped on
// cleanup, so tests can run in parallel.
package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/pedalworks/shop-backend/internal/middleware"
	"github.com/pedalworks/shop-backend/internal/shop/entity"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	TestSchema = "test_shop"
	JWTSecret  = "shop-backend-test-secret"
)

// projectRoot returns the project root directory by looking for go.mod.
func projectRoot() string {
	_, filename, _, _ := runtime.Caller(0)
	dir := filepath.Dir(filename)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

func loadEnv() {
	root := projectRoot()
	if root != "" {
		godotenv.Load(filepath.Join(root, ".env"))
	}
}

// SetupTestDB opens a connection scoped to a fresh schema and migrates the
// shop tables into it. The schema is dropped when the test finishes.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	loadEnv()

	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "shop")
	password := getEnv("DB_PASSWORD", "shop123")
	dbname := getEnv("DB_NAME", "shop_backend")

	baseDSN := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	schemaName := fmt.Sprintf("%s_%d", TestSchema, time.Now().UnixNano()%1000000)

	setupDB, err := gorm.Open(postgres.Open(baseDSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to connect to database for schema setup: %v", err)
	}
	setupDB.Exec(fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schemaName))
	sqlSetup, _ := setupDB.DB()
	sqlSetup.Close()

	// search_path in the DSN so every pooled connection lands in the schema.
	testDSN := fmt.Sprintf("%s search_path=%s", baseDSN, schemaName)
	db, err := gorm.Open(postgres.Open(testDSN), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	err = db.AutoMigrate(
		&entity.Item{},
		&entity.OrderRequest{},
		&entity.Order{},
		&entity.Transaction{},
		&entity.TransactionItem{},
		&entity.TransactionRepair{},
		&entity.Customer{},
		&entity.Bike{},
		&entity.Repair{},
		&entity.User{},
		&entity.ActionLog{},
	)
	if err != nil {
		t.Fatalf("Failed to migrate test tables: %v", err)
	}

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
		cleanDB, cleanErr := gorm.Open(postgres.Open(baseDSN), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if cleanErr == nil {
			cleanDB.Exec(fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", schemaName))
			sqlClean, _ := cleanDB.DB()
			if sqlClean != nil {
				sqlClean.Close()
			}
		}
	})

	return db
}

// SetupRouter creates a gin test router.
func SetupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(gin.Recovery())
	return r
}

// AuthGroup creates an API group with JWT auth middleware for testing.
func AuthGroup(r *gin.Engine, path string) *gin.RouterGroup {
	return r.Group(path, middleware.JWTAuth(JWTSecret))
}

// GenerateTestToken creates a valid JWT token for testing.
func GenerateTestToken(userID, name, email string, roles []string) string {
	if roles == nil {
		roles = []string{}
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   userID,
		"uid":   userID,
		"name":  name,
		"email": email,
		"roles": roles,
		"iss":   "shop-backend",
		"iat":   now.Unix(),
		"exp":   now.Add(24 * time.Hour).Unix(),
		"jti":   fmt.Sprintf("test-jti-%d", now.UnixNano()),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, _ := token.SignedString([]byte(JWTSecret))
	return tokenString
}

// DefaultTestToken returns a token for a default admin test user.
func DefaultTestToken() string {
	return GenerateTestToken(
		"test-user-001",
		"Test Admin",
		"admin@test.com",
		[]string{"admin"},
	)
}

// DoRequest executes an HTTP request against the test router.
func DoRequest(r *gin.Engine, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ParseResponse parses the JSON response body.
func ParseResponse(w *httptest.ResponseRecorder) map[string]interface{} {
	var result map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &result)
	return result
}

// SeedItem creates an inventory item.
func SeedItem(t *testing.T, db *gorm.DB, name string, standardPrice, wholesaleCost float64, inStock int) *entity.Item {
	t.Helper()
	item := &entity.Item{
		ID:            uuid.New().String()[:32],
		Name:          name,
		StandardPrice: standardPrice,
		WholesaleCost: wholesaleCost,
		InStock:       inStock,
	}
	if err := db.Create(item).Error; err != nil {
		t.Fatalf("Failed to seed item: %v", err)
	}
	return item
}

// SeedCustomer creates a customer.
func SeedCustomer(t *testing.T, db *gorm.DB, firstName, lastName, email string) *entity.Customer {
	t.Helper()
	customer := &entity.Customer{
		ID:        uuid.New().String()[:32],
		FirstName: firstName,
		LastName:  lastName,
		Email:     email,
	}
	if err := db.Create(customer).Error; err != nil {
		t.Fatalf("Failed to seed customer: %v", err)
	}
	return customer
}

// SeedTicket creates a ticket for the customer, dated now.
func SeedTicket(t *testing.T, db *gorm.DB, customerID string) *entity.Transaction {
	t.Helper()
	trx := &entity.Transaction{
		CustomerID:  customerID,
		DateCreated: time.Now(),
	}
	if err := db.Omit("Customer", "Bike", "Items", "Repairs").Create(trx).Error; err != nil {
		t.Fatalf("Failed to seed ticket: %v", err)
	}
	return trx
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
