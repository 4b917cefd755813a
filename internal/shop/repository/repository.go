package repository

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrNotFound = errors.New("record not found")
)

// Repositories is the shop repository collection.
type Repositories struct {
	Item         *ItemRepository
	OrderRequest *OrderRequestRepository
	Order        *OrderRepository
	Transaction  *TransactionRepository
	Customer     *CustomerRepository
	Bike         *BikeRepository
	Repair       *RepairRepository
	User         *UserRepository
	ActionLog    *ActionLogRepository
}

// NewRepositories creates the shop repository collection.
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Item:         NewItemRepository(db),
		OrderRequest: NewOrderRequestRepository(db),
		Order:        NewOrderRepository(db),
		Transaction:  NewTransactionRepository(db),
		Customer:     NewCustomerRepository(db),
		Bike:         NewBikeRepository(db),
		Repair:       NewRepairRepository(db),
		User:         NewUserRepository(db),
		ActionLog:    NewActionLogRepository(db),
	}
}
