package service

import (
	"context"
	"testing"

	"github.com/pedalworks/shop-backend/internal/shop/entity"
	"github.com/pedalworks/shop-backend/internal/shop/testutil"
)

func TestCompleteRequestRestocksAndFulfillsTickets(t *testing.T) {
	svc, db := newTestServices(t)
	ctx := context.Background()

	item := testutil.SeedItem(t, db, "KMC Chain", 25.00, 10.00, 2)
	customer := testutil.SeedCustomer(t, db, "Ada", "Rider", "ada@test.com")
	ticketA := testutil.SeedTicket(t, db, customer.ID)
	ticketB := testutil.SeedTicket(t, db, customer.ID)

	req, err := svc.Request.Create(ctx, testActor, CreateRequestInput{Request: "KMC Chain", ItemID: &item.ID})
	if err != nil {
		t.Fatalf("Create request failed: %v", err)
	}

	// One unit for ticket A, two for ticket B. Quantity grows with each
	// attachment.
	if _, err := svc.Request.AttachTicket(ctx, testActor, req.ID, ticketA.ID); err != nil {
		t.Fatalf("AttachTicket A failed: %v", err)
	}
	if _, err := svc.Request.AttachTicket(ctx, testActor, req.ID, ticketB.ID); err != nil {
		t.Fatalf("AttachTicket B failed: %v", err)
	}
	req, err = svc.Request.AttachTicket(ctx, testActor, req.ID, ticketB.ID)
	if err != nil {
		t.Fatalf("AttachTicket B again failed: %v", err)
	}
	if req.Quantity != 3 {
		t.Fatalf("Expected quantity 3 after attachments, got %d", req.Quantity)
	}

	req, err = svc.Request.SetStatus(ctx, testActor, req.ID, entity.RequestStatusCompleted)
	if err != nil {
		t.Fatalf("SetStatus Completed failed: %v", err)
	}

	got, err := svc.Item.Get(ctx, item.ID)
	if err != nil {
		t.Fatalf("Get item failed: %v", err)
	}
	if got.InStock != 5 {
		t.Errorf("Expected stock 5 after completion, got %d", got.InStock)
	}

	trxA, err := svc.Transaction.Get(ctx, ticketA.ID)
	if err != nil {
		t.Fatalf("Get ticket A failed: %v", err)
	}
	if n := itemLineCount(trxA, item.ID); n != 1 {
		t.Errorf("Expected 1 chain line on ticket A, got %d", n)
	}
	if len(trxA.OrderRequestIDs) != 0 {
		t.Errorf("Expected empty waiting list on ticket A, got %v", trxA.OrderRequestIDs)
	}
	if trxA.TotalCost != 27.06 {
		t.Errorf("Expected ticket A total 27.06 (25.00 plus tax), got %v", trxA.TotalCost)
	}

	trxB, err := svc.Transaction.Get(ctx, ticketB.ID)
	if err != nil {
		t.Fatalf("Get ticket B failed: %v", err)
	}
	if n := itemLineCount(trxB, item.ID); n != 2 {
		t.Errorf("Expected 2 chain lines on ticket B, got %d", n)
	}
	if len(trxB.OrderRequestIDs) != 0 {
		t.Errorf("Expected empty waiting list on ticket B, got %v", trxB.OrderRequestIDs)
	}
	if trxB.TotalCost != 54.12 {
		t.Errorf("Expected ticket B total 54.12 (50.00 plus tax), got %v", trxB.TotalCost)
	}

	// The request keeps its own ticket list for history after completion.
	if len(req.TransactionIDs) != 3 {
		t.Errorf("Expected request to retain its 3 ticket links, got %v", req.TransactionIDs)
	}
}

func TestReopenRequestRestoresStockAndTickets(t *testing.T) {
	svc, db := newTestServices(t)
	ctx := context.Background()

	item := testutil.SeedItem(t, db, "Brake Cable", 8.00, 3.00, 1)
	customer := testutil.SeedCustomer(t, db, "Ada", "Rider", "ada@test.com")
	ticket := testutil.SeedTicket(t, db, customer.ID)

	req, err := svc.Request.Create(ctx, testActor, CreateRequestInput{Request: "Brake Cable", ItemID: &item.ID})
	if err != nil {
		t.Fatalf("Create request failed: %v", err)
	}
	if _, err := svc.Request.AttachTicket(ctx, testActor, req.ID, ticket.ID); err != nil {
		t.Fatalf("AttachTicket failed: %v", err)
	}
	if _, err := svc.Request.SetStatus(ctx, testActor, req.ID, entity.RequestStatusCompleted); err != nil {
		t.Fatalf("SetStatus Completed failed: %v", err)
	}

	req, err = svc.Request.SetStatus(ctx, testActor, req.ID, entity.RequestStatusNotOrdered)
	if err != nil {
		t.Fatalf("SetStatus Not Ordered failed: %v", err)
	}
	if req.Status != entity.RequestStatusNotOrdered {
		t.Errorf("Expected status Not Ordered, got %s", req.Status)
	}

	got, err := svc.Item.Get(ctx, item.ID)
	if err != nil {
		t.Fatalf("Get item failed: %v", err)
	}
	if got.InStock != 1 {
		t.Errorf("Expected stock back at 1 after reopen, got %d", got.InStock)
	}

	trx, err := svc.Transaction.Get(ctx, ticket.ID)
	if err != nil {
		t.Fatalf("Get ticket failed: %v", err)
	}
	if n := itemLineCount(trx, item.ID); n != 0 {
		t.Errorf("Expected cable line pulled back off the ticket, got %d lines", n)
	}
	if trx.OrderRequestIDs.IndexOf(req.ID) == -1 {
		t.Errorf("Expected ticket to be waiting on the request again, got %v", trx.OrderRequestIDs)
	}
	if trx.TotalCost != 0 {
		t.Errorf("Expected ticket total back at 0, got %v", trx.TotalCost)
	}
}

func TestReopenBlockedByCompletedTicket(t *testing.T) {
	svc, db := newTestServices(t)
	ctx := context.Background()

	item := testutil.SeedItem(t, db, "Derailleur", 45.00, 20.00, 0)
	customer := testutil.SeedCustomer(t, db, "Ada", "Rider", "ada@test.com")
	ticket := testutil.SeedTicket(t, db, customer.ID)

	req, err := svc.Request.Create(ctx, testActor, CreateRequestInput{Request: "Derailleur", ItemID: &item.ID})
	if err != nil {
		t.Fatalf("Create request failed: %v", err)
	}
	if _, err := svc.Request.AttachTicket(ctx, testActor, req.ID, ticket.ID); err != nil {
		t.Fatalf("AttachTicket failed: %v", err)
	}
	if _, err := svc.Request.SetStatus(ctx, testActor, req.ID, entity.RequestStatusCompleted); err != nil {
		t.Fatalf("SetStatus Completed failed: %v", err)
	}
	if _, err := svc.Transaction.MarkComplete(ctx, testActor, ticket.ID, true); err != nil {
		t.Fatalf("MarkComplete failed: %v", err)
	}

	_, err = svc.Request.SetStatus(ctx, testActor, req.ID, entity.RequestStatusNotOrdered)
	de := requireDomainKind(t, err, KindConflict)
	if len(de.TicketIDs) != 1 || de.TicketIDs[0] != ticket.ID {
		t.Errorf("Expected conflict to name ticket %d, got %v", ticket.ID, de.TicketIDs)
	}

	// Nothing may have moved.
	got, err := svc.Item.Get(ctx, item.ID)
	if err != nil {
		t.Fatalf("Get item failed: %v", err)
	}
	if got.InStock != 1 {
		t.Errorf("Expected stock unchanged at 1, got %d", got.InStock)
	}
	req, err = svc.Request.Get(ctx, req.ID)
	if err != nil {
		t.Fatalf("Get request failed: %v", err)
	}
	if req.Status != entity.RequestStatusCompleted {
		t.Errorf("Expected request still Completed, got %s", req.Status)
	}
	trx, err := svc.Transaction.Get(ctx, ticket.ID)
	if err != nil {
		t.Fatalf("Get ticket failed: %v", err)
	}
	if n := itemLineCount(trx, item.ID); n != 1 {
		t.Errorf("Expected ticket to keep its line, got %d lines", n)
	}
}

func TestCompleteRequestWithoutItem(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()

	req, err := svc.Request.Create(ctx, testActor, CreateRequestInput{Request: "mystery part", Quantity: 2})
	if err != nil {
		t.Fatalf("Create request failed: %v", err)
	}
	_, err = svc.Request.SetStatus(ctx, testActor, req.ID, entity.RequestStatusCompleted)
	requireDomainKind(t, err, KindValidation)
}

func TestSetQuantityGuards(t *testing.T) {
	svc, db := newTestServices(t)
	ctx := context.Background()

	item := testutil.SeedItem(t, db, "Tube", 9.00, 4.00, 0)
	customer := testutil.SeedCustomer(t, db, "Ada", "Rider", "ada@test.com")
	ticket := testutil.SeedTicket(t, db, customer.ID)

	req, err := svc.Request.Create(ctx, testActor, CreateRequestInput{Request: "Tube", ItemID: &item.ID})
	if err != nil {
		t.Fatalf("Create request failed: %v", err)
	}
	if _, err := svc.Request.AttachTicket(ctx, testActor, req.ID, ticket.ID); err != nil {
		t.Fatalf("AttachTicket failed: %v", err)
	}
	if _, err := svc.Request.AttachTicket(ctx, testActor, req.ID, ticket.ID); err != nil {
		t.Fatalf("AttachTicket failed: %v", err)
	}

	_, err = svc.Request.SetQuantity(ctx, testActor, req.ID, 1)
	requireDomainKind(t, err, KindConflict)

	req, err = svc.Request.SetQuantity(ctx, testActor, req.ID, 5)
	if err != nil {
		t.Fatalf("SetQuantity 5 failed: %v", err)
	}
	if req.Quantity != 5 {
		t.Errorf("Expected quantity 5, got %d", req.Quantity)
	}

	if _, err := svc.Request.SetStatus(ctx, testActor, req.ID, entity.RequestStatusCompleted); err != nil {
		t.Fatalf("SetStatus Completed failed: %v", err)
	}
	_, err = svc.Request.SetQuantity(ctx, testActor, req.ID, 6)
	requireDomainKind(t, err, KindForbidden)
}

func TestAttachTicketToCompletedRequest(t *testing.T) {
	svc, db := newTestServices(t)
	ctx := context.Background()

	item := testutil.SeedItem(t, db, "Saddle", 30.00, 12.00, 0)
	customer := testutil.SeedCustomer(t, db, "Ada", "Rider", "ada@test.com")
	ticket := testutil.SeedTicket(t, db, customer.ID)

	req, err := svc.Request.Create(ctx, testActor, CreateRequestInput{Request: "Saddle", Quantity: 1, ItemID: &item.ID})
	if err != nil {
		t.Fatalf("Create request failed: %v", err)
	}
	if _, err := svc.Request.SetStatus(ctx, testActor, req.ID, entity.RequestStatusCompleted); err != nil {
		t.Fatalf("SetStatus Completed failed: %v", err)
	}

	_, err = svc.Request.AttachTicket(ctx, testActor, req.ID, ticket.ID)
	requireDomainKind(t, err, KindConflict)
}

func TestDetachTicketDeletesRequestAtZeroQuantity(t *testing.T) {
	svc, db := newTestServices(t)
	ctx := context.Background()

	item := testutil.SeedItem(t, db, "Grips", 12.00, 5.00, 0)
	customer := testutil.SeedCustomer(t, db, "Ada", "Rider", "ada@test.com")
	ticket := testutil.SeedTicket(t, db, customer.ID)

	req, err := svc.Request.Create(ctx, testActor, CreateRequestInput{Request: "Grips", ItemID: &item.ID})
	if err != nil {
		t.Fatalf("Create request failed: %v", err)
	}
	if _, err := svc.Request.AttachTicket(ctx, testActor, req.ID, ticket.ID); err != nil {
		t.Fatalf("AttachTicket failed: %v", err)
	}

	got, err := svc.Request.DetachTicket(ctx, testActor, req.ID, ticket.ID)
	if err != nil {
		t.Fatalf("DetachTicket failed: %v", err)
	}
	if got != nil {
		t.Fatalf("Expected request deleted at zero quantity, got %+v", got)
	}
	_, err = svc.Request.Get(ctx, req.ID)
	requireDomainKind(t, err, KindNotFound)

	trx, err := svc.Transaction.Get(ctx, ticket.ID)
	if err != nil {
		t.Fatalf("Get ticket failed: %v", err)
	}
	if len(trx.OrderRequestIDs) != 0 {
		t.Errorf("Expected empty waiting list, got %v", trx.OrderRequestIDs)
	}
}

func TestDetachOrderWithoutOrderIsNoop(t *testing.T) {
	svc, db := newTestServices(t)
	ctx := context.Background()

	req, err := svc.Request.Create(ctx, testActor, CreateRequestInput{Request: "free request", Quantity: 1})
	if err != nil {
		t.Fatalf("Create request failed: %v", err)
	}
	if err := svc.Request.detachOrderTx(ctx, db, req); err != nil {
		t.Fatalf("Expected no-op, got %v", err)
	}
	if req.Status != entity.RequestStatusNotOrdered || req.OrderID != nil {
		t.Errorf("Expected request untouched, got status %s order %v", req.Status, req.OrderID)
	}
}

func TestDeleteRequestCleansTicketAndOrder(t *testing.T) {
	svc, db := newTestServices(t)
	ctx := context.Background()

	item := testutil.SeedItem(t, db, "Rim", 60.00, 10.00, 0)
	customer := testutil.SeedCustomer(t, db, "Ada", "Rider", "ada@test.com")
	ticket := testutil.SeedTicket(t, db, customer.ID)

	req, err := svc.Request.Create(ctx, testActor, CreateRequestInput{Request: "Rim", Quantity: 2, ItemID: &item.ID})
	if err != nil {
		t.Fatalf("Create request failed: %v", err)
	}
	if _, err := svc.Request.AttachTicket(ctx, testActor, req.ID, ticket.ID); err != nil {
		t.Fatalf("AttachTicket failed: %v", err)
	}
	order, err := svc.Order.Create(ctx, testActor, "QBP")
	if err != nil {
		t.Fatalf("Create order failed: %v", err)
	}
	order, err = svc.Order.AddRequest(ctx, testActor, order.ID, req.ID)
	if err != nil {
		t.Fatalf("AddRequest failed: %v", err)
	}
	if order.TotalPrice != 30.00 {
		t.Fatalf("Expected order total 30.00 for 3 units at 10.00, got %v", order.TotalPrice)
	}

	if err := svc.Request.Delete(ctx, testActor, req.ID); err != nil {
		t.Fatalf("Delete request failed: %v", err)
	}

	order, err = svc.Order.Get(ctx, order.ID)
	if err != nil {
		t.Fatalf("Get order failed: %v", err)
	}
	if order.TotalPrice != 0 {
		t.Errorf("Expected order total back at 0, got %v", order.TotalPrice)
	}
	if len(order.RequestIDs) != 0 {
		t.Errorf("Expected order membership empty, got %v", order.RequestIDs)
	}

	trx, err := svc.Transaction.Get(ctx, ticket.ID)
	if err != nil {
		t.Fatalf("Get ticket failed: %v", err)
	}
	if len(trx.OrderRequestIDs) != 0 {
		t.Errorf("Expected empty waiting list, got %v", trx.OrderRequestIDs)
	}
}
