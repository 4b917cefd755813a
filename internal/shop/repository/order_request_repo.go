package repository

import (
	"context"
	"errors"

	"github.com/pedalworks/shop-backend/internal/shop/entity"
	"gorm.io/gorm"
)

// OrderRequestRepository is the procurement request store.
type OrderRequestRepository struct {
	db *gorm.DB
}

func NewOrderRequestRepository(db *gorm.DB) *OrderRequestRepository {
	return &OrderRequestRepository{db: db}
}

// RequestFilters are the list filters accepted by FindAll.
type RequestFilters struct {
	Status   string
	Supplier string
	// Active restricts to requests still being sourced (Not Ordered, In Cart).
	Active bool
}

// FindAll lists order requests, newest first.
func (r *OrderRequestRepository) FindAll(ctx context.Context, f RequestFilters) ([]entity.OrderRequest, error) {
	var requests []entity.OrderRequest

	query := r.db.WithContext(ctx).Model(&entity.OrderRequest{}).Preload("Item")

	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}
	if f.Supplier != "" {
		query = query.Where("supplier = ?", f.Supplier)
	}
	if f.Active {
		query = query.Where("status IN ?", []string{entity.RequestStatusNotOrdered, entity.RequestStatusInCart})
	}

	err := query.Order("id DESC").Find(&requests).Error
	return requests, err
}

// Latest returns the newest n order requests.
func (r *OrderRequestRepository) Latest(ctx context.Context, n int) ([]entity.OrderRequest, error) {
	var requests []entity.OrderRequest
	err := r.db.WithContext(ctx).Preload("Item").
		Order("id DESC").
		Limit(n).
		Find(&requests).Error
	return requests, err
}

// FindByID looks up one order request with its item.
func (r *OrderRequestRepository) FindByID(ctx context.Context, id int64) (*entity.OrderRequest, error) {
	var req entity.OrderRequest
	err := r.db.WithContext(ctx).Preload("Item").Where("id = ?", id).First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}

// FindActiveByItem returns an order request for the item that is still being
// sourced, or nil if none exists. Used to avoid duplicate restock requests.
func (r *OrderRequestRepository) FindActiveByItem(ctx context.Context, itemID string) (*entity.OrderRequest, error) {
	var req entity.OrderRequest
	err := r.db.WithContext(ctx).
		Where("item_id = ? AND status IN ?", itemID,
			[]string{entity.RequestStatusNotOrdered, entity.RequestStatusInCart}).
		First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &req, nil
}

// Create inserts a new order request.
func (r *OrderRequestRepository) Create(ctx context.Context, req *entity.OrderRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

// Update overwrites the request's mutable fields. The item association is
// read-only here.
func (r *OrderRequestRepository) Update(ctx context.Context, req *entity.OrderRequest) error {
	return r.db.WithContext(ctx).Omit("Item").Save(req).Error
}

// Delete removes an order request.
func (r *OrderRequestRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&entity.OrderRequest{}, id).Error
}
