package entity

import "time"

// Order is a batch of order requests sent to one supplier. TotalPrice is
// derived: freight charge plus the wholesale cost contribution of every
// member request. It is recomputed on every membership, quantity or item
// change and never read stale.
type Order struct {
	ID       string `json:"id" gorm:"primaryKey;size:32"`
	Supplier string `json:"supplier" gorm:"size:100;not null"`
	Status   string `json:"status" gorm:"size:20;not null;default:'In Cart';index"`

	DateCreated   time.Time  `json:"date_created" gorm:"not null"`
	DateSubmitted *time.Time `json:"date_submitted"`
	DateCompleted *time.Time `json:"date_completed"`

	TrackingNumber string  `json:"tracking_number" gorm:"size:100"`
	FreightCharge  float64 `json:"freight_charge" gorm:"type:decimal(12,2);default:0"`
	TotalPrice     float64 `json:"total_price" gorm:"type:decimal(12,2);default:0"`
	Notes          string  `json:"notes" gorm:"type:text"`

	// Member request ids, most recent first.
	RequestIDs Int64List `json:"request_ids" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Order) TableName() string {
	return "shop_orders"
}

// Order statuses mirror and drive member request statuses.
const (
	OrderStatusInCart    = "In Cart"
	OrderStatusOrdered   = "Ordered"
	OrderStatusCompleted = "Completed"
)

// ValidOrderStatus reports whether s is a known order status.
func ValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusInCart, OrderStatusOrdered, OrderStatusCompleted:
		return true
	}
	return false
}
