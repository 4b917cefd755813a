package repository

import (
	"context"
	"errors"

	"github.com/pedalworks/shop-backend/internal/shop/entity"
	"gorm.io/gorm"
)

// TransactionRepository is the service ticket store.
type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// TransactionFilters are the list filters accepted by FindAll.
type TransactionFilters struct {
	Complete *bool
	IsPaid   *bool
	Refurb   *bool
	BeerBike *bool
	// WaitingPart restricts to tickets with at least one waiting request.
	WaitingPart bool
	CustomerID  string
}

// FindAll lists tickets matching the filters. Line items and actions are
// deliberately not loaded here to keep list payloads small.
func (r *TransactionRepository) FindAll(ctx context.Context, f TransactionFilters) ([]entity.Transaction, error) {
	var txs []entity.Transaction

	query := r.db.WithContext(ctx).Model(&entity.Transaction{}).Preload("Customer")

	if f.Complete != nil {
		query = query.Where("complete = ?", *f.Complete)
	}
	if f.IsPaid != nil {
		query = query.Where("is_paid = ?", *f.IsPaid)
	}
	if f.Refurb != nil {
		query = query.Where("refurb = ?", *f.Refurb)
	}
	if f.BeerBike != nil {
		query = query.Where("beerbike = ?", *f.BeerBike)
	}
	if f.WaitingPart {
		query = query.Where("jsonb_array_length(order_request_ids) > 0")
	}
	if f.CustomerID != "" {
		query = query.Where("customer_id = ?", f.CustomerID)
	}

	// Urgent tickets first, then oldest first so the queue drains in order.
	err := query.Order("urgent DESC, date_created ASC").Find(&txs).Error
	return txs, err
}

// FindByID looks up one ticket with its customer, bike, line items and
// repairs fully loaded.
func (r *TransactionRepository) FindByID(ctx context.Context, id int64) (*entity.Transaction, error) {
	var trx entity.Transaction
	err := r.db.WithContext(ctx).
		Preload("Customer").
		Preload("Bike").
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		}).
		Preload("Items.Item").
		Preload("Repairs", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		}).
		Preload("Repairs.Repair").
		Where("id = ?", id).
		First(&trx).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &trx, nil
}

// Create inserts a new ticket.
func (r *TransactionRepository) Create(ctx context.Context, trx *entity.Transaction) error {
	return r.db.WithContext(ctx).Create(trx).Error
}

// Update overwrites the ticket's mutable fields. Child line item and repair
// rows are managed separately.
func (r *TransactionRepository) Update(ctx context.Context, trx *entity.Transaction) error {
	return r.db.WithContext(ctx).Omit("Items", "Repairs", "Customer", "Bike").Save(trx).Error
}

// Delete removes a ticket and its owned line item and repair rows.
func (r *TransactionRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("transaction_id = ?", id).Delete(&entity.TransactionItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("transaction_id = ?", id).Delete(&entity.TransactionRepair{}).Error; err != nil {
			return err
		}
		return tx.Delete(&entity.Transaction{}, id).Error
	})
}
