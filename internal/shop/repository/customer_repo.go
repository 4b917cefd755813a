package repository

import (
	"context"
	"errors"

	"github.com/pedalworks/shop-backend/internal/shop/entity"
	"gorm.io/gorm"
)

// CustomerRepository is the customer store.
type CustomerRepository struct {
	db *gorm.DB
}

func NewCustomerRepository(db *gorm.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

// Search finds customers by name or email fragment.
func (r *CustomerRepository) Search(ctx context.Context, term string, limit int) ([]entity.Customer, error) {
	var customers []entity.Customer
	query := r.db.WithContext(ctx).Model(&entity.Customer{})
	if term != "" {
		like := "%" + term + "%"
		query = query.Where("first_name ILIKE ? OR last_name ILIKE ? OR email ILIKE ?", like, like, like)
	}
	err := query.Order("last_name ASC").Limit(limit).Find(&customers).Error
	return customers, err
}

// FindByID looks up one customer.
func (r *CustomerRepository) FindByID(ctx context.Context, id string) (*entity.Customer, error) {
	var c entity.Customer
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// Create inserts a new customer.
func (r *CustomerRepository) Create(ctx context.Context, c *entity.Customer) error {
	return r.db.WithContext(ctx).Create(c).Error
}

// Update overwrites the customer's mutable fields.
func (r *CustomerRepository) Update(ctx context.Context, c *entity.Customer) error {
	return r.db.WithContext(ctx).Save(c).Error
}

// BikeRepository is the bike store.
type BikeRepository struct {
	db *gorm.DB
}

func NewBikeRepository(db *gorm.DB) *BikeRepository {
	return &BikeRepository{db: db}
}

// FindByID looks up one bike.
func (r *BikeRepository) FindByID(ctx context.Context, id string) (*entity.Bike, error) {
	var b entity.Bike
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&b).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

// Create inserts a new bike.
func (r *BikeRepository) Create(ctx context.Context, b *entity.Bike) error {
	return r.db.WithContext(ctx).Create(b).Error
}
