package entity

import "time"

// Customer owns service tickets.
type Customer struct {
	ID        string    `json:"id" gorm:"primaryKey;size:32"`
	FirstName string    `json:"first_name" gorm:"size:100"`
	LastName  string    `json:"last_name" gorm:"size:100"`
	Email     string    `json:"email" gorm:"size:200;index"`
	Phone     string    `json:"phone" gorm:"size:30"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Customer) TableName() string {
	return "shop_customers"
}

// Bike is an optional per-ticket record of the bike being worked on.
type Bike struct {
	ID          string    `json:"id" gorm:"primaryKey;size:32"`
	Make        string    `json:"make" gorm:"size:100"`
	Model       string    `json:"model" gorm:"size:100"`
	Description string    `json:"description" gorm:"type:text"`
	CreatedAt   time.Time `json:"created_at"`
}

func (Bike) TableName() string {
	return "shop_bikes"
}
