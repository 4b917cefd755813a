package entity

import "time"

// Repair is a catalog entry for a repair the shop offers.
type Repair struct {
	ID          string    `json:"id" gorm:"primaryKey;size:32"`
	Name        string    `json:"name" gorm:"size:200;not null"`
	Description string    `json:"description" gorm:"type:text"`
	Price       float64   `json:"price" gorm:"type:decimal(12,2);default:0"`
	Disabled    bool      `json:"disabled" gorm:"default:false"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Repair) TableName() string {
	return "shop_repairs"
}
