package repository

import (
	"context"
	"errors"
	"time"

	"github.com/pedalworks/shop-backend/internal/shop/entity"
	"gorm.io/gorm"
)

// OrderRepository is the supplier order store.
type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// FindAll lists orders created inside the window, newest first. When active
// is set only orders still in the cart are returned.
func (r *OrderRepository) FindAll(ctx context.Context, start, end time.Time, active bool) ([]entity.Order, error) {
	var orders []entity.Order

	query := r.db.WithContext(ctx).Model(&entity.Order{}).
		Where("date_created > ? AND date_created < ?", start, end)
	if active {
		query = query.Where("status = ?", entity.OrderStatusInCart)
	}

	err := query.Order("date_created DESC").Find(&orders).Error
	return orders, err
}

// FindByID looks up one order.
func (r *OrderRepository) FindByID(ctx context.Context, id string) (*entity.Order, error) {
	var order entity.Order
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// Create inserts a new order.
func (r *OrderRepository) Create(ctx context.Context, order *entity.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

// Update overwrites the order's mutable fields.
func (r *OrderRepository) Update(ctx context.Context, order *entity.Order) error {
	return r.db.WithContext(ctx).Save(order).Error
}

// Delete removes an order.
func (r *OrderRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.Order{}).Error
}
