package entity

import "time"

// Entity types for action log entries.
const (
	EntityOrderRequest = "order_request"
	EntityTransaction  = "transaction"
	EntityOrder        = "order"
)

// ActionLog is an append-only record of who did what to a request, ticket or
// order. Entries are never updated or deleted.
type ActionLog struct {
	ID         string `json:"id" gorm:"primaryKey;size:32"`
	EntityType string `json:"entity_type" gorm:"size:30;not null;index:idx_action_entity"`
	EntityID   string `json:"entity_id" gorm:"size:32;not null;index:idx_action_entity"`

	Description  string    `json:"description" gorm:"type:text;not null"`
	OperatorID   string    `json:"operator_id" gorm:"size:32;not null"`
	OperatorName string    `json:"operator_name" gorm:"size:200"`
	CreatedAt    time.Time `json:"created_at"`
}

func (ActionLog) TableName() string {
	return "shop_action_logs"
}
