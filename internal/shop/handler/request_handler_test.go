package handler

import (
	"fmt"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pedalworks/shop-backend/internal/middleware"
	"github.com/pedalworks/shop-backend/internal/shop/repository"
	"github.com/pedalworks/shop-backend/internal/shop/service"
	"github.com/pedalworks/shop-backend/internal/shop/testutil"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupShopRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	pricing := service.Pricing{
		Rate:               0.0825,
		CutoffDate:         time.Date(2017, 11, 28, 0, 0, 0, 0, time.UTC),
		ItemName:           "Sales Tax",
		EmployeeMultiplier: 1.05,
	}
	services := service.NewServices(db, repos, pricing, zap.NewNop())
	handlers := NewHandlers(services, repos)

	r := testutil.SetupRouter()
	api := testutil.AuthGroup(r, "/api/v1")

	requests := api.Group("/order-requests")
	requests.GET("/:id", handlers.Request.Get)
	requests.POST("", handlers.Request.Create)
	requests.PUT("/:id/status", handlers.Request.SetStatus)
	requests.PUT("/:id/item", middleware.RequireRole("admin"), handlers.Request.SetItem)
	requests.POST("/:id/transactions", handlers.Request.AttachTicket)

	transactions := api.Group("/transactions")
	transactions.PUT("/:id/complete", handlers.Transaction.MarkComplete)

	return r, db
}

func TestRequestEndpointsRequireAuth(t *testing.T) {
	r, _ := setupShopRouter(t)

	w := testutil.DoRequest(r, "POST", "/api/v1/order-requests",
		map[string]interface{}{"request": "chain"}, "")
	if w.Code != 401 {
		t.Errorf("Expected 401 without token, got %d", w.Code)
	}
}

func TestSetItemRequiresAdminRole(t *testing.T) {
	r, _ := setupShopRouter(t)
	token := testutil.GenerateTestToken("user-002", "Plain User", "user@test.com", []string{"mechanic"})

	w := testutil.DoRequest(r, "PUT", "/api/v1/order-requests/1/item",
		map[string]interface{}{"item_id": "whatever"}, token)
	if w.Code != 403 {
		t.Errorf("Expected 403 for non-admin, got %d", w.Code)
	}
}

func TestRequestLifecycleOverHTTP(t *testing.T) {
	r, db := setupShopRouter(t)
	token := testutil.DefaultTestToken()

	item := testutil.SeedItem(t, db, "Chain", 25.00, 10.00, 0)
	customer := testutil.SeedCustomer(t, db, "Ada", "Rider", "ada@test.com")
	ticket := testutil.SeedTicket(t, db, customer.ID)

	// Create a free-text request.
	w := testutil.DoRequest(r, "POST", "/api/v1/order-requests",
		map[string]interface{}{"request": "a chain"}, token)
	if w.Code != 201 {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	data := resp["data"].(map[string]interface{})
	reqID := int64(data["id"].(float64))

	// Completing without an item is rejected.
	w = testutil.DoRequest(r, "PUT", fmt.Sprintf("/api/v1/order-requests/%d/status", reqID),
		map[string]interface{}{"status": "Completed"}, token)
	if w.Code != 400 {
		t.Fatalf("Expected 400 completing an itemless request, got %d", w.Code)
	}

	// Assign the item, attach the ticket, complete.
	w = testutil.DoRequest(r, "PUT", fmt.Sprintf("/api/v1/order-requests/%d/item", reqID),
		map[string]interface{}{"item_id": item.ID}, token)
	if w.Code != 200 {
		t.Fatalf("Expected 200 setting item, got %d: %s", w.Code, w.Body.String())
	}
	w = testutil.DoRequest(r, "POST", fmt.Sprintf("/api/v1/order-requests/%d/transactions", reqID),
		map[string]interface{}{"transaction_id": ticket.ID}, token)
	if w.Code != 200 {
		t.Fatalf("Expected 200 attaching ticket, got %d: %s", w.Code, w.Body.String())
	}
	w = testutil.DoRequest(r, "PUT", fmt.Sprintf("/api/v1/order-requests/%d/status", reqID),
		map[string]interface{}{"status": "Completed"}, token)
	if w.Code != 200 {
		t.Fatalf("Expected 200 completing, got %d: %s", w.Code, w.Body.String())
	}

	// Close the ticket, then try to reopen the request: 409 naming the ticket.
	w = testutil.DoRequest(r, "PUT", fmt.Sprintf("/api/v1/transactions/%d/complete", ticket.ID),
		map[string]interface{}{"complete": true}, token)
	if w.Code != 200 {
		t.Fatalf("Expected 200 completing ticket, got %d: %s", w.Code, w.Body.String())
	}
	w = testutil.DoRequest(r, "PUT", fmt.Sprintf("/api/v1/order-requests/%d/status", reqID),
		map[string]interface{}{"status": "Not Ordered"}, token)
	if w.Code != 409 {
		t.Fatalf("Expected 409 reopening, got %d: %s", w.Code, w.Body.String())
	}
	resp = testutil.ParseResponse(w)
	conflict, ok := resp["data"].(map[string]interface{})
	if !ok {
		t.Fatalf("Expected conflict data, got %v", resp["data"])
	}
	problems, ok := conflict["problem_transactions"].([]interface{})
	if !ok || len(problems) != 1 || int64(problems[0].(float64)) != ticket.ID {
		t.Errorf("Expected problem_transactions [%d], got %v", ticket.ID, conflict["problem_transactions"])
	}

	// The request is untouched.
	w = testutil.DoRequest(r, "GET", fmt.Sprintf("/api/v1/order-requests/%d", reqID), nil, token)
	if w.Code != 200 {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	resp = testutil.ParseResponse(w)
	data = resp["data"].(map[string]interface{})
	if data["status"] != "Completed" {
		t.Errorf("Expected request still Completed, got %v", data["status"])
	}
}
