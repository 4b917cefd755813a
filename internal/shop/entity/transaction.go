package entity

import "time"

// Transaction is a customer-facing unit of work (a service ticket). It owns
// its line items and repairs outright; order requests it waits on are weak
// references by id.
type Transaction struct {
	ID          int64  `json:"id" gorm:"primaryKey;autoIncrement"`
	Description string `json:"description" gorm:"type:text"`
	Type        string `json:"transaction_type" gorm:"size:30"`
	Status      string `json:"status" gorm:"size:30"`

	DateCreated   time.Time  `json:"date_created" gorm:"not null"`
	DateCompleted *time.Time `json:"date_completed"`

	TotalCost float64 `json:"total_cost" gorm:"type:decimal(12,2);default:0"`

	// Employee tickets get wholesale-based pricing on line items.
	Employee     bool `json:"employee" gorm:"default:false"`
	Complete     bool `json:"complete" gorm:"default:false"`
	IsPaid       bool `json:"is_paid" gorm:"default:false"`
	Refurb       bool `json:"refurb" gorm:"default:false"`
	BeerBike     bool `json:"beerbike" gorm:"default:false"`
	Urgent       bool `json:"urgent" gorm:"default:false"`
	Reserved     bool `json:"reserved" gorm:"default:false"`
	WaitingEmail bool `json:"waiting_email" gorm:"default:false"`

	CustomerID string  `json:"customer_id" gorm:"size:32;not null;index"`
	BikeID     *string `json:"bike_id" gorm:"size:32"`

	// Requests this ticket is waiting on. Must be empty before the ticket can
	// be completed.
	OrderRequestIDs Int64List `json:"order_request_ids" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Customer *Customer           `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
	Bike     *Bike               `json:"bike,omitempty" gorm:"foreignKey:BikeID"`
	Items    []TransactionItem   `json:"items,omitempty" gorm:"foreignKey:TransactionID"`
	Repairs  []TransactionRepair `json:"repairs,omitempty" gorm:"foreignKey:TransactionID"`
}

func (Transaction) TableName() string {
	return "shop_transactions"
}

// TransactionItem is one priced line on a ticket. ItemID is nil for legacy
// inline lines that predate the item catalog; LegacyName keeps their display
// name. Price can be negative (discount lines).
type TransactionItem struct {
	ID            int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	TransactionID int64     `json:"transaction_id" gorm:"not null;index"`
	ItemID        *string   `json:"item_id" gorm:"size:32"`
	LegacyName    string    `json:"legacy_name" gorm:"size:200"`
	Price         float64   `json:"price" gorm:"type:decimal(12,2);not null"`
	CreatedAt     time.Time `json:"created_at"`

	Item *Item `json:"item,omitempty" gorm:"foreignKey:ItemID"`
}

func (TransactionItem) TableName() string {
	return "shop_transaction_items"
}

// TransactionRepair is one repair entry on a ticket.
type TransactionRepair struct {
	ID            int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	TransactionID int64     `json:"transaction_id" gorm:"not null;index"`
	RepairID      string    `json:"repair_id" gorm:"size:32;not null"`
	Completed     bool      `json:"completed" gorm:"default:false"`
	Price         float64   `json:"price" gorm:"type:decimal(12,2);not null"`
	CreatedAt     time.Time `json:"created_at"`

	Repair *Repair `json:"repair,omitempty" gorm:"foreignKey:RepairID"`
}

func (TransactionRepair) TableName() string {
	return "shop_transaction_repairs"
}
