package service

import (
	"context"
	"testing"

	"github.com/pedalworks/shop-backend/internal/shop/entity"
	"github.com/pedalworks/shop-backend/internal/shop/repository"
	"github.com/pedalworks/shop-backend/internal/shop/testutil"
)

func activeRequestsForItem(t *testing.T, svc *Services, itemID string) []entity.OrderRequest {
	t.Helper()
	all, err := svc.Request.List(context.Background(), repository.RequestFilters{Active: true})
	if err != nil {
		t.Fatalf("List requests failed: %v", err)
	}
	var out []entity.OrderRequest
	for _, req := range all {
		if req.ItemID != nil && *req.ItemID == itemID {
			out = append(out, req)
		}
	}
	return out
}

func TestAdjustStockOpensRestockRequest(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()

	item, err := svc.Item.Create(ctx, testActor, CreateItemInput{
		Name:           "Brake Pads",
		StandardPrice:  15.00,
		WholesaleCost:  6.00,
		InStock:        6,
		ThresholdStock: 5,
	})
	if err != nil {
		t.Fatalf("Create item failed: %v", err)
	}

	item, err = svc.Item.AdjustStock(ctx, testActor, item.ID, -2)
	if err != nil {
		t.Fatalf("AdjustStock failed: %v", err)
	}
	if item.InStock != 4 {
		t.Errorf("Expected stock 4, got %d", item.InStock)
	}

	requests := activeRequestsForItem(t, svc, item.ID)
	if len(requests) != 1 {
		t.Fatalf("Expected 1 restock request, got %d", len(requests))
	}
	if requests[0].Quantity != 5 {
		t.Errorf("Expected restock quantity 5 (the threshold), got %d", requests[0].Quantity)
	}
	if requests[0].Notes != "automatically created, please specify quantity" {
		t.Errorf("Unexpected restock notes: %q", requests[0].Notes)
	}

	// A second drop must not open a duplicate while one is being sourced.
	if _, err := svc.Item.AdjustStock(ctx, testActor, item.ID, -1); err != nil {
		t.Fatalf("AdjustStock failed: %v", err)
	}
	if requests := activeRequestsForItem(t, svc, item.ID); len(requests) != 1 {
		t.Errorf("Expected still 1 restock request, got %d", len(requests))
	}

	// Positive deltas never open requests.
	item, err = svc.Item.AdjustStock(ctx, testActor, item.ID, 10)
	if err != nil {
		t.Fatalf("AdjustStock failed: %v", err)
	}
	if item.InStock != 13 {
		t.Errorf("Expected stock 13, got %d", item.InStock)
	}
}

func TestAdjustStockUnknownItem(t *testing.T) {
	svc, _ := newTestServices(t)
	_, err := svc.Item.AdjustStock(context.Background(), testActor, "no-such-item", -1)
	requireDomainKind(t, err, KindValidation)
}

func TestThresholdUpdateOpensRestockRequest(t *testing.T) {
	svc, db := newTestServices(t)
	ctx := context.Background()

	item := testutil.SeedItem(t, db, "Cables", 4.00, 1.50, 2)

	threshold := 5
	item2, err := svc.Item.Update(ctx, testActor, item.ID, UpdateItemInput{ThresholdStock: &threshold})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if item2.ThresholdStock != 5 {
		t.Errorf("Expected threshold 5, got %d", item2.ThresholdStock)
	}
	if requests := activeRequestsForItem(t, svc, item.ID); len(requests) != 1 {
		t.Errorf("Expected 1 restock request after threshold raise, got %d", len(requests))
	}
}

func TestCreateItemValidation(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()

	_, err := svc.Item.Create(ctx, testActor, CreateItemInput{Name: ""})
	requireDomainKind(t, err, KindValidation)

	_, err = svc.Item.Create(ctx, testActor, CreateItemInput{Name: "Bell", InStock: -1})
	requireDomainKind(t, err, KindValidation)

	item, err := svc.Item.Create(ctx, testActor, CreateItemInput{
		Name:          "Bell",
		StandardPrice: 9.999,
		WholesaleCost: 4.005,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if item.StandardPrice != 9.99 || item.WholesaleCost != 4.00 {
		t.Errorf("Expected prices truncated to 9.99 / 4.00, got %v / %v", item.StandardPrice, item.WholesaleCost)
	}
}

func TestLookupUPCPrefersShopItems(t *testing.T) {
	svc, db := newTestServices(t)
	ctx := context.Background()

	item := &entity.Item{ID: "item-upc-test-0000000000000000", Name: "Tube 700c", UPC: "036121710733", StandardPrice: 9.00}
	if err := db.Create(item).Error; err != nil {
		t.Fatalf("Failed to seed item: %v", err)
	}

	got, err := svc.Item.LookupUPC(ctx, "036121710733")
	if err != nil {
		t.Fatalf("LookupUPC failed: %v", err)
	}
	if got == nil || got.ID != item.ID {
		t.Fatalf("Expected the shop's own item, got %+v", got)
	}

	// Unknown UPC with no catalog wired answers nil, nil.
	got, err = svc.Item.LookupUPC(ctx, "000000000000")
	if err != nil {
		t.Fatalf("LookupUPC failed: %v", err)
	}
	if got != nil {
		t.Errorf("Expected nil for unknown upc, got %+v", got)
	}
}

type staticCatalog struct {
	product *CatalogProduct
}

func (c *staticCatalog) LookupUPC(ctx context.Context, upc string) (*CatalogProduct, error) {
	return c.product, nil
}

func TestLookupUPCFallsBackToCatalog(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()

	svc.Item.SetCatalog(&staticCatalog{product: &CatalogProduct{
		Name:          "SRAM PC-1130 Chain",
		Brand:         "SRAM",
		WholesaleCost: 18.50,
		StandardPrice: 32.00,
	}})

	got, err := svc.Item.LookupUPC(ctx, "710845761234")
	if err != nil {
		t.Fatalf("LookupUPC failed: %v", err)
	}
	if got == nil {
		t.Fatal("Expected a catalog hit")
	}
	if got.ID != "" {
		t.Errorf("Expected an unsaved item from the catalog, got id %q", got.ID)
	}
	if got.Name != "SRAM PC-1130 Chain" || got.WholesaleCost != 18.50 || got.UPC != "710845761234" {
		t.Errorf("Unexpected catalog item: %+v", got)
	}
}
