package entity

import "time"

// Item is a part in the shop inventory. Stock is only ever mutated through
// the stock ledger (atomic increment), never by direct assignment.
type Item struct {
	ID        string `json:"id" gorm:"primaryKey;size:32"`
	Name      string `json:"name" gorm:"size:200;not null;index"`
	UPC       string `json:"upc" gorm:"size:20;index"` // empty for used/non-catalog items
	Brand     string `json:"brand" gorm:"size:100"`
	Category1 string `json:"category_1" gorm:"size:100"`
	Category2 string `json:"category_2" gorm:"size:100"`
	Category3 string `json:"category_3" gorm:"size:100"`

	StandardPrice  float64 `json:"standard_price" gorm:"type:decimal(12,2);default:0"`
	WholesaleCost  float64 `json:"wholesale_cost" gorm:"type:decimal(12,2);default:0"`
	InStock        int     `json:"in_stock" gorm:"default:0"`
	ThresholdStock int     `json:"threshold_stock" gorm:"default:0"`

	Disabled bool `json:"disabled" gorm:"default:false"`
	// Managed items (e.g. the sales tax line) are maintained by the backend
	// and cannot be removed from a ticket by hand.
	Managed bool `json:"managed" gorm:"default:false"`

	LastUpdated *time.Time `json:"last_updated"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (Item) TableName() string {
	return "shop_items"
}

// Categories returns the non-empty category labels in order.
func (i *Item) Categories() StringList {
	out := StringList{}
	for _, c := range []string{i.Category1, i.Category2, i.Category3} {
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}
