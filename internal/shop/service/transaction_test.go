package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pedalworks/shop-backend/internal/shop/entity"
	"github.com/pedalworks/shop-backend/internal/shop/repository"
	"github.com/pedalworks/shop-backend/internal/shop/testutil"
	"go.uber.org/zap"
)

func TestAddItemAppliesTax(t *testing.T) {
	svc, db := newTestServices(t)
	ctx := context.Background()

	item := testutil.SeedItem(t, db, "Wheel", 100.00, 45.00, 3)
	customer := testutil.SeedCustomer(t, db, "Ada", "Rider", "ada@test.com")
	ticket := testutil.SeedTicket(t, db, customer.ID)

	trx, err := svc.Transaction.AddItem(ctx, testActor, ticket.ID, item.ID, nil)
	if err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}
	if trx.TotalCost != 108.25 {
		t.Errorf("Expected total 108.25, got %v", trx.TotalCost)
	}
	tax := taxLine(trx, "Sales Tax")
	if tax == nil {
		t.Fatal("Expected a tax line on the ticket")
	}
	if tax.Price != 8.25 {
		t.Errorf("Expected tax 8.25 on 100.00, got %v", tax.Price)
	}
	if tax.Item == nil || !tax.Item.Managed {
		t.Error("Expected the tax line to hold a managed item")
	}
	if len(trx.Items) != 2 {
		t.Errorf("Expected 2 lines (item and tax), got %d", len(trx.Items))
	}
}

func TestRemoveItemRecomputesTax(t *testing.T) {
	svc, db := newTestServices(t)
	ctx := context.Background()

	item := testutil.SeedItem(t, db, "Wheel", 100.00, 45.00, 3)
	customer := testutil.SeedCustomer(t, db, "Ada", "Rider", "ada@test.com")
	ticket := testutil.SeedTicket(t, db, customer.ID)

	if _, err := svc.Transaction.AddItem(ctx, testActor, ticket.ID, item.ID, nil); err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}

	// Lines are ordered by insertion, so the wheel sits at index 0 and the
	// tax line after it.
	trx, err := svc.Transaction.RemoveItem(ctx, testActor, ticket.ID, 0)
	if err != nil {
		t.Fatalf("RemoveItem failed: %v", err)
	}
	if trx.TotalCost != 0 {
		t.Errorf("Expected total back at 0, got %v", trx.TotalCost)
	}
	if len(trx.Items) != 0 {
		t.Errorf("Expected the tax line gone with the item, got %d lines", len(trx.Items))
	}
}

func TestRemoveManagedLineForbidden(t *testing.T) {
	svc, db := newTestServices(t)
	ctx := context.Background()

	item := testutil.SeedItem(t, db, "Wheel", 100.00, 45.00, 3)
	customer := testutil.SeedCustomer(t, db, "Ada", "Rider", "ada@test.com")
	ticket := testutil.SeedTicket(t, db, customer.ID)

	if _, err := svc.Transaction.AddItem(ctx, testActor, ticket.ID, item.ID, nil); err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}

	_, err := svc.Transaction.RemoveItem(ctx, testActor, ticket.ID, 1)
	requireDomainKind(t, err, KindForbidden)

	trx, err := svc.Transaction.Get(ctx, ticket.ID)
	if err != nil {
		t.Fatalf("Get ticket failed: %v", err)
	}
	if trx.TotalCost != 108.25 {
		t.Errorf("Expected total unchanged at 108.25, got %v", trx.TotalCost)
	}
}

func TestAddManagedItemForbidden(t *testing.T) {
	svc, db := newTestServices(t)
	ctx := context.Background()

	managed := &entity.Item{ID: uuid.New().String()[:32], Name: "Shop Credit", Managed: true}
	if err := db.Create(managed).Error; err != nil {
		t.Fatalf("Failed to seed managed item: %v", err)
	}
	customer := testutil.SeedCustomer(t, db, "Ada", "Rider", "ada@test.com")
	ticket := testutil.SeedTicket(t, db, customer.ID)

	_, err := svc.Transaction.AddItem(ctx, testActor, ticket.ID, managed.ID, nil)
	requireDomainKind(t, err, KindForbidden)
}

func TestEmployeePricing(t *testing.T) {
	svc, db := newTestServices(t)
	ctx := context.Background()

	item := testutil.SeedItem(t, db, "Chain", 25.00, 10.00, 3)
	customer := testutil.SeedCustomer(t, db, "Eli", "Mechanic", "eli@test.com")

	trx, err := svc.Transaction.Create(ctx, testActor, CreateTransactionInput{
		CustomerID: customer.ID,
		Employee:   true,
	})
	if err != nil {
		t.Fatalf("Create ticket failed: %v", err)
	}

	trx, err = svc.Transaction.AddItem(ctx, testActor, trx.ID, item.ID, nil)
	if err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}
	if n := itemLineCount(trx, item.ID); n != 1 {
		t.Fatalf("Expected 1 chain line, got %d", n)
	}
	for _, line := range trx.Items {
		if line.ItemID != nil && *line.ItemID == item.ID && line.Price != 10.50 {
			t.Errorf("Expected employee price 10.50 (wholesale times 1.05), got %v", line.Price)
		}
	}
	// 10.50 base, 0.86 tax.
	if trx.TotalCost != 11.36 {
		t.Errorf("Expected total 11.36, got %v", trx.TotalCost)
	}
}

func TestCustomPriceOnlyForUncatalogedItems(t *testing.T) {
	svc, db := newTestServices(t)
	ctx := context.Background()

	priced := testutil.SeedItem(t, db, "Tire", 30.00, 14.00, 3)
	used := testutil.SeedItem(t, db, "Used Derailleur", 0, 0, 1)
	customer := testutil.SeedCustomer(t, db, "Ada", "Rider", "ada@test.com")
	ticket := testutil.SeedTicket(t, db, customer.ID)

	custom := 5.00
	trx, err := svc.Transaction.AddItem(ctx, testActor, ticket.ID, priced.ID, &custom)
	if err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}
	for _, line := range trx.Items {
		if line.ItemID != nil && *line.ItemID == priced.ID && line.Price != 30.00 {
			t.Errorf("Expected catalog price 30.00 to win over custom, got %v", line.Price)
		}
	}

	custom = 12.50
	trx, err = svc.Transaction.AddItem(ctx, testActor, ticket.ID, used.ID, &custom)
	if err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}
	for _, line := range trx.Items {
		if line.ItemID != nil && *line.ItemID == used.ID && line.Price != 12.50 {
			t.Errorf("Expected custom price 12.50 on uncataloged item, got %v", line.Price)
		}
	}
}

func TestPreCutoffTicketNotTaxed(t *testing.T) {
	db := testutil.SetupTestDB(t)
	pricing := testPricing()
	pricing.CutoffDate = time.Now().Add(24 * time.Hour)
	svc := NewServices(db, repository.NewRepositories(db), pricing, zap.NewNop())
	ctx := context.Background()

	item := testutil.SeedItem(t, db, "Wheel", 100.00, 45.00, 3)
	customer := testutil.SeedCustomer(t, db, "Ada", "Rider", "ada@test.com")
	ticket := testutil.SeedTicket(t, db, customer.ID)

	trx, err := svc.Transaction.AddItem(ctx, testActor, ticket.ID, item.ID, nil)
	if err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}
	if trx.TotalCost != 100.00 {
		t.Errorf("Expected untaxed total 100.00, got %v", trx.TotalCost)
	}
	if len(trx.Items) != 1 {
		t.Errorf("Expected no tax line, got %d lines", len(trx.Items))
	}
}

func TestMarkCompleteBlockedWhileWaiting(t *testing.T) {
	svc, db := newTestServices(t)
	ctx := context.Background()

	item := testutil.SeedItem(t, db, "Fork", 150.00, 70.00, 0)
	customer := testutil.SeedCustomer(t, db, "Ada", "Rider", "ada@test.com")
	ticket := testutil.SeedTicket(t, db, customer.ID)

	req, err := svc.Request.Create(ctx, testActor, CreateRequestInput{Request: "Fork", ItemID: &item.ID})
	if err != nil {
		t.Fatalf("Create request failed: %v", err)
	}
	if _, err := svc.Request.AttachTicket(ctx, testActor, req.ID, ticket.ID); err != nil {
		t.Fatalf("AttachTicket failed: %v", err)
	}

	_, err = svc.Transaction.MarkComplete(ctx, testActor, ticket.ID, true)
	requireDomainKind(t, err, KindConflict)

	if _, err := svc.Request.DetachTicket(ctx, testActor, req.ID, ticket.ID); err != nil {
		t.Fatalf("DetachTicket failed: %v", err)
	}

	trx, err := svc.Transaction.MarkComplete(ctx, testActor, ticket.ID, true)
	if err != nil {
		t.Fatalf("MarkComplete failed: %v", err)
	}
	if !trx.Complete || trx.DateCompleted == nil {
		t.Errorf("Expected completed ticket with timestamp, got %v / %v", trx.Complete, trx.DateCompleted)
	}
	if trx.Urgent {
		t.Error("Expected urgent flag cleared on completion")
	}

	trx, err = svc.Transaction.MarkComplete(ctx, testActor, ticket.ID, false)
	if err != nil {
		t.Fatalf("MarkComplete false failed: %v", err)
	}
	if trx.Complete || trx.DateCompleted != nil {
		t.Errorf("Expected reopened ticket with timestamp cleared, got %v / %v", trx.Complete, trx.DateCompleted)
	}
}

func TestSetCustomerBlockedWhenReserved(t *testing.T) {
	svc, db := newTestServices(t)
	ctx := context.Background()

	customer := testutil.SeedCustomer(t, db, "Ada", "Rider", "ada@test.com")
	other := testutil.SeedCustomer(t, db, "Ben", "Walker", "ben@test.com")
	ticket := testutil.SeedTicket(t, db, customer.ID)

	reserved := true
	if _, err := svc.Transaction.Update(ctx, testActor, ticket.ID, UpdateTransactionInput{Reserved: &reserved}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	_, err := svc.Transaction.SetCustomer(ctx, testActor, ticket.ID, other.ID)
	requireDomainKind(t, err, KindConflict)
}

func TestDeleteTicketPrunesRequestLinks(t *testing.T) {
	svc, db := newTestServices(t)
	ctx := context.Background()

	item := testutil.SeedItem(t, db, "Hub", 50.00, 22.00, 0)
	customer := testutil.SeedCustomer(t, db, "Ada", "Rider", "ada@test.com")
	ticket := testutil.SeedTicket(t, db, customer.ID)

	req, err := svc.Request.Create(ctx, testActor, CreateRequestInput{Request: "Hub", ItemID: &item.ID})
	if err != nil {
		t.Fatalf("Create request failed: %v", err)
	}
	if _, err := svc.Request.AttachTicket(ctx, testActor, req.ID, ticket.ID); err != nil {
		t.Fatalf("AttachTicket failed: %v", err)
	}
	if _, err := svc.Request.AttachTicket(ctx, testActor, req.ID, ticket.ID); err != nil {
		t.Fatalf("AttachTicket failed: %v", err)
	}

	if err := svc.Transaction.Delete(ctx, testActor, ticket.ID); err != nil {
		t.Fatalf("Delete ticket failed: %v", err)
	}
	_, err = svc.Transaction.Get(ctx, ticket.ID)
	requireDomainKind(t, err, KindNotFound)

	req, err = svc.Request.Get(ctx, req.ID)
	if err != nil {
		t.Fatalf("Get request failed: %v", err)
	}
	if len(req.TransactionIDs) != 0 {
		t.Errorf("Expected all ticket links pruned, got %v", req.TransactionIDs)
	}
	if req.Quantity != 2 {
		t.Errorf("Expected quantity untouched at 2, got %d", req.Quantity)
	}
}

func TestAddAndRemoveRepair(t *testing.T) {
	svc, db := newTestServices(t)
	ctx := context.Background()

	repair := &entity.Repair{ID: uuid.New().String()[:32], Name: "Tune Up", Price: 40.00}
	if err := db.Create(repair).Error; err != nil {
		t.Fatalf("Failed to seed repair: %v", err)
	}
	customer := testutil.SeedCustomer(t, db, "Ada", "Rider", "ada@test.com")
	ticket := testutil.SeedTicket(t, db, customer.ID)

	trx, err := svc.Transaction.AddRepair(ctx, testActor, ticket.ID, repair.ID)
	if err != nil {
		t.Fatalf("AddRepair failed: %v", err)
	}
	if len(trx.Repairs) != 1 {
		t.Fatalf("Expected 1 repair entry, got %d", len(trx.Repairs))
	}
	// 40.00 base, 3.30 tax.
	if trx.TotalCost != 43.30 {
		t.Errorf("Expected total 43.30, got %v", trx.TotalCost)
	}

	trx, err = svc.Transaction.SetRepairCompleted(ctx, testActor, ticket.ID, trx.Repairs[0].ID, true)
	if err != nil {
		t.Fatalf("SetRepairCompleted failed: %v", err)
	}
	if !trx.Repairs[0].Completed {
		t.Error("Expected repair entry marked completed")
	}

	trx, err = svc.Transaction.RemoveRepair(ctx, testActor, ticket.ID, trx.Repairs[0].ID)
	if err != nil {
		t.Fatalf("RemoveRepair failed: %v", err)
	}
	if len(trx.Repairs) != 0 {
		t.Errorf("Expected no repair entries, got %d", len(trx.Repairs))
	}
	if trx.TotalCost != 0 {
		t.Errorf("Expected total back at 0, got %v", trx.TotalCost)
	}
}
