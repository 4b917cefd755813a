package entity

import "time"

// OrderRequest is a request to acquire a quantity of one part. It starts as a
// free-text request, is assigned a concrete item, and is then attached to a
// supplier order. Status mirrors the order it belongs to.
//
// TransactionIDs is the ordered list of tickets waiting on this request; a
// ticket appearing twice needs two units. Once the request completes, the
// ticket side of the link is dropped but this list is kept for history, so
// the two sides are allowed to diverge from that point on.
type OrderRequest struct {
	ID         int64      `json:"id" gorm:"primaryKey;autoIncrement"`
	Request    string     `json:"request" gorm:"size:500;not null"`
	Categories StringList `json:"categories" gorm:"type:jsonb"`
	Quantity   int        `json:"quantity" gorm:"not null;default:0"`
	Status     string     `json:"status" gorm:"size:20;not null;default:'Not Ordered';index"`

	ItemID     *string `json:"item_id" gorm:"size:32;index"`
	OrderID    *string `json:"order_id" gorm:"size:32;index"`
	Supplier   *string `json:"supplier" gorm:"size:100"`
	PartNumber string  `json:"part_number" gorm:"size:100"`
	Notes      string  `json:"notes" gorm:"type:text"`

	TransactionIDs Int64List `json:"transaction_ids" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Item *Item `json:"item,omitempty" gorm:"foreignKey:ItemID"`
}

func (OrderRequest) TableName() string {
	return "shop_order_requests"
}

// Order request statuses. Transitions run forward through the chain; the only
// reverse transition exposed is Completed back to Not Ordered (re-open).
const (
	RequestStatusNotOrdered = "Not Ordered"
	RequestStatusInCart     = "In Cart"
	RequestStatusOrdered    = "Ordered"
	RequestStatusCompleted  = "Completed"
)

// ValidRequestStatus reports whether s is a known request status.
func ValidRequestStatus(s string) bool {
	switch s {
	case RequestStatusNotOrdered, RequestStatusInCart, RequestStatusOrdered, RequestStatusCompleted:
		return true
	}
	return false
}
