package repository

import (
	"context"
	"errors"

	"github.com/pedalworks/shop-backend/internal/shop/entity"
	"gorm.io/gorm"
)

// UserRepository is the shop user store.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByID looks up one user.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	var u entity.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// FindByUsername looks up one user by login name.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	var u entity.User
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// FindActive lists active users, for the mechanic picker.
func (r *UserRepository) FindActive(ctx context.Context) ([]entity.User, error) {
	var users []entity.User
	err := r.db.WithContext(ctx).
		Where("active = true").
		Order("username ASC").
		Find(&users).Error
	return users, err
}

// Create inserts a new user.
func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	return r.db.WithContext(ctx).Create(u).Error
}

// Update overwrites the user's mutable fields.
func (r *UserRepository) Update(ctx context.Context, u *entity.User) error {
	return r.db.WithContext(ctx).Save(u).Error
}
