package repository

import (
	"context"
	"errors"

	"github.com/pedalworks/shop-backend/internal/shop/entity"
	"gorm.io/gorm"
)

// ItemRepository is the inventory item store.
type ItemRepository struct {
	db *gorm.DB
}

func NewItemRepository(db *gorm.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

// ItemFilters are the search filters accepted by Search.
type ItemFilters struct {
	Name           string
	Brand          string
	Category1      string
	Category2      string
	Category3      string
	UPC            string
	FilterDisabled bool
}

// Search finds items matching the filters, paginated.
func (r *ItemRepository) Search(ctx context.Context, page, pageSize int, f ItemFilters) ([]entity.Item, int64, error) {
	var items []entity.Item
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Item{})

	if f.Name != "" {
		query = query.Where("name ILIKE ?", "%"+f.Name+"%")
	}
	if f.Brand != "" {
		query = query.Where("brand = ?", f.Brand)
	}
	if f.Category1 != "" {
		query = query.Where("category_1 = ?", f.Category1)
	}
	if f.Category2 != "" {
		query = query.Where("category_2 = ?", f.Category2)
	}
	if f.Category3 != "" {
		query = query.Where("category_3 = ?", f.Category3)
	}
	if f.UPC != "" {
		query = query.Where("upc = ?", f.UPC)
	}
	if f.FilterDisabled {
		query = query.Where("disabled = false")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Order("name ASC").Offset(offset).Limit(pageSize).Find(&items).Error
	return items, total, err
}

// FindByID looks up one item.
func (r *ItemRepository) FindByID(ctx context.Context, id string) (*entity.Item, error) {
	var item entity.Item
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

// FindByUPC looks up one item by UPC. Returns nil, nil when no item matches.
func (r *ItemRepository) FindByUPC(ctx context.Context, upc string) (*entity.Item, error) {
	var item entity.Item
	err := r.db.WithContext(ctx).Where("upc = ?", upc).First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// FindByName looks up one item by exact name. Returns nil, nil when absent.
func (r *ItemRepository) FindByName(ctx context.Context, name string) (*entity.Item, error) {
	var item entity.Item
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// Brands returns the distinct brands known to the shop.
func (r *ItemRepository) Brands(ctx context.Context) ([]string, error) {
	var brands []string
	err := r.db.WithContext(ctx).Model(&entity.Item{}).
		Distinct("brand").
		Where("brand <> ''").
		Order("brand ASC").
		Pluck("brand", &brands).Error
	return brands, err
}

// Categories returns the distinct top-level category labels.
func (r *ItemRepository) Categories(ctx context.Context) ([]string, error) {
	var cats []string
	err := r.db.WithContext(ctx).Model(&entity.Item{}).
		Distinct("category_1").
		Where("category_1 <> ''").
		Order("category_1 ASC").
		Pluck("category_1", &cats).Error
	return cats, err
}

// Create inserts a new item.
func (r *ItemRepository) Create(ctx context.Context, item *entity.Item) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// Update overwrites the item's mutable fields.
func (r *ItemRepository) Update(ctx context.Context, item *entity.Item) error {
	return r.db.WithContext(ctx).Save(item).Error
}
