package repository

import (
	"context"
	"errors"

	"github.com/pedalworks/shop-backend/internal/shop/entity"
	"gorm.io/gorm"
)

// RepairRepository is the repair catalog store.
type RepairRepository struct {
	db *gorm.DB
}

func NewRepairRepository(db *gorm.DB) *RepairRepository {
	return &RepairRepository{db: db}
}

// FindAll lists repairs, optionally hiding disabled ones.
func (r *RepairRepository) FindAll(ctx context.Context, includeDisabled bool) ([]entity.Repair, error) {
	var repairs []entity.Repair
	query := r.db.WithContext(ctx).Model(&entity.Repair{})
	if !includeDisabled {
		query = query.Where("disabled = false")
	}
	err := query.Order("name ASC").Find(&repairs).Error
	return repairs, err
}

// FindByID looks up one repair.
func (r *RepairRepository) FindByID(ctx context.Context, id string) (*entity.Repair, error) {
	var rep entity.Repair
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&rep).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rep, nil
}

// Create inserts a new repair.
func (r *RepairRepository) Create(ctx context.Context, rep *entity.Repair) error {
	return r.db.WithContext(ctx).Create(rep).Error
}

// Update overwrites the repair's mutable fields.
func (r *RepairRepository) Update(ctx context.Context, rep *entity.Repair) error {
	return r.db.WithContext(ctx).Save(rep).Error
}
