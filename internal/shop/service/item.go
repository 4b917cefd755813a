package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/pedalworks/shop-backend/internal/shop/entity"
	"github.com/pedalworks/shop-backend/internal/shop/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CatalogProduct is what a UPC lookup returns.
type CatalogProduct struct {
	Name          string
	Brand         string
	WholesaleCost float64
	StandardPrice float64
}

// Catalog resolves a UPC against the wholesale catalog. Returns nil, nil
// when the UPC is unknown.
type Catalog interface {
	LookupUPC(ctx context.Context, upc string) (*CatalogProduct, error)
}

// ItemService owns the inventory item catalog. Stock moves only through the
// stock ledger, never by writing the counter directly.
type ItemService struct {
	db      *gorm.DB
	repos   *repository.Repositories
	catalog Catalog
	logger  *zap.Logger
}

// SetCatalog wires the wholesale catalog lookup. Optional.
func (s *ItemService) SetCatalog(c Catalog) {
	s.catalog = c
}

// Search returns items matching the filters, paginated.
func (s *ItemService) Search(ctx context.Context, page, pageSize int, f repository.ItemFilters) ([]entity.Item, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}
	return s.repos.Item.Search(ctx, page, pageSize, f)
}

// Get returns one item.
func (s *ItemService) Get(ctx context.Context, id string) (*entity.Item, error) {
	item, err := s.repos.Item.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NotFoundError("item not found")
		}
		return nil, err
	}
	return item, nil
}

// LookupUPC checks the shop's own items first, then the wholesale catalog.
// Returns nil when the UPC is unknown everywhere.
func (s *ItemService) LookupUPC(ctx context.Context, upc string) (*entity.Item, error) {
	if upc == "" {
		return nil, ValidationError("upc is required")
	}
	item, err := s.repos.Item.FindByUPC(ctx, upc)
	if err != nil {
		return nil, err
	}
	if item != nil {
		return item, nil
	}
	if s.catalog == nil {
		return nil, nil
	}
	product, err := s.catalog.LookupUPC(ctx, upc)
	if err != nil {
		s.logger.Warn("catalog lookup failed", zap.String("upc", upc), zap.Error(err))
		return nil, nil
	}
	if product == nil {
		return nil, nil
	}
	return &entity.Item{
		Name:          product.Name,
		UPC:           upc,
		Brand:         product.Brand,
		WholesaleCost: product.WholesaleCost,
		StandardPrice: product.StandardPrice,
	}, nil
}

// Brands returns the distinct brands.
func (s *ItemService) Brands(ctx context.Context) ([]string, error) {
	return s.repos.Item.Brands(ctx)
}

// Categories returns the distinct top-level categories.
func (s *ItemService) Categories(ctx context.Context) ([]string, error) {
	return s.repos.Item.Categories(ctx)
}

// CreateItemInput carries the fields accepted on item creation.
type CreateItemInput struct {
	Name           string  `json:"name"`
	UPC            string  `json:"upc"`
	Brand          string  `json:"brand"`
	Category1      string  `json:"category_1"`
	Category2      string  `json:"category_2"`
	Category3      string  `json:"category_3"`
	StandardPrice  float64 `json:"standard_price"`
	WholesaleCost  float64 `json:"wholesale_cost"`
	InStock        int     `json:"in_stock"`
	ThresholdStock int     `json:"threshold_stock"`
}

// Create adds a new item to the shop's catalog.
func (s *ItemService) Create(ctx context.Context, actor Actor, input CreateItemInput) (*entity.Item, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if input.Name == "" {
		return nil, ValidationError("item name is required")
	}
	if input.InStock < 0 || input.ThresholdStock < 0 {
		return nil, ValidationError("stock counts cannot be negative")
	}
	item := &entity.Item{
		ID:             uuid.New().String()[:32],
		Name:           input.Name,
		UPC:            input.UPC,
		Brand:          input.Brand,
		Category1:      input.Category1,
		Category2:      input.Category2,
		Category3:      input.Category3,
		StandardPrice:  truncate2(input.StandardPrice),
		WholesaleCost:  truncate2(input.WholesaleCost),
		InStock:        input.InStock,
		ThresholdStock: input.ThresholdStock,
	}
	if err := s.repos.Item.Create(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// UpdateItemInput carries the optional item field updates.
type UpdateItemInput struct {
	Name           *string  `json:"name"`
	Brand          *string  `json:"brand"`
	Category1      *string  `json:"category_1"`
	Category2      *string  `json:"category_2"`
	Category3      *string  `json:"category_3"`
	StandardPrice  *float64 `json:"standard_price"`
	WholesaleCost  *float64 `json:"wholesale_cost"`
	ThresholdStock *int     `json:"threshold_stock"`
	Disabled       *bool    `json:"disabled"`
}

// Update applies the field changes present in input. If the item's stock now
// sits below its threshold a restock request is opened for it.
func (s *ItemService) Update(ctx context.Context, actor Actor, id string, input UpdateItemInput) (*entity.Item, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	var item *entity.Item
	err := s.db.Transaction(func(tx *gorm.DB) error {
		repos := repository.NewRepositories(tx)
		var err error
		item, err = repos.Item.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return NotFoundError("item not found")
			}
			return err
		}
		if input.Name != nil {
			item.Name = *input.Name
		}
		if input.Brand != nil {
			item.Brand = *input.Brand
		}
		if input.Category1 != nil {
			item.Category1 = *input.Category1
		}
		if input.Category2 != nil {
			item.Category2 = *input.Category2
		}
		if input.Category3 != nil {
			item.Category3 = *input.Category3
		}
		if input.StandardPrice != nil {
			item.StandardPrice = truncate2(*input.StandardPrice)
		}
		if input.WholesaleCost != nil {
			item.WholesaleCost = truncate2(*input.WholesaleCost)
		}
		if input.ThresholdStock != nil {
			if *input.ThresholdStock < 0 {
				return ValidationError("threshold cannot be negative")
			}
			item.ThresholdStock = *input.ThresholdStock
		}
		if input.Disabled != nil {
			item.Disabled = *input.Disabled
		}
		if err := repos.Item.Update(ctx, item); err != nil {
			return err
		}
		return s.restockCheckTx(ctx, tx, item, actor)
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// AdjustStock moves the item's on-hand count by delta through the stock
// ledger and opens a restock request when the count drops below threshold.
func (s *ItemService) AdjustStock(ctx context.Context, actor Actor, id string, delta int) (*entity.Item, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	var item *entity.Item
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := adjustItemStock(ctx, tx, id, delta); err != nil {
			return err
		}
		repos := repository.NewRepositories(tx)
		var err error
		item, err = repos.Item.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if delta < 0 {
			return s.restockCheckTx(ctx, tx, item, actor)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// restockCheckTx opens an automatic order request when the item has fallen
// below its threshold and no active request for it exists yet.
func (s *ItemService) restockCheckTx(ctx context.Context, tx *gorm.DB, item *entity.Item, actor Actor) error {
	if item.ThresholdStock <= 0 || item.InStock >= item.ThresholdStock {
		return nil
	}
	repos := repository.NewRepositories(tx)
	existing, err := repos.OrderRequest.FindActiveByItem(ctx, item.ID)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	req := &entity.OrderRequest{
		Request:    item.Name,
		Categories: item.Categories(),
		Quantity:   item.ThresholdStock,
		Status:     entity.RequestStatusNotOrdered,
		ItemID:     &item.ID,
		Notes:      "automatically created, please specify quantity",
	}
	if err := tx.WithContext(ctx).Omit("Item").Create(req).Error; err != nil {
		return err
	}
	s.logger.Info("opened restock request",
		zap.String("item", item.Name), zap.Int64("request_id", req.ID))
	return logAction(ctx, tx, actor, entity.EntityOrderRequest, requestEntityID(req.ID),
		"Automatically created because stock dropped below threshold")
}
