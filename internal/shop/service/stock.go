package service

import (
	"context"
	"time"

	"github.com/pedalworks/shop-backend/internal/shop/entity"
	"gorm.io/gorm"
)

// Stock ledger. The on-hand counter is the one field contended by concurrent
// writers (restocking vs consumption), so it is only ever mutated with an
// atomic in-database increment, never by writing back a previously read
// value.

// adjustItemStock moves an item's on-hand quantity by delta inside the
// caller's transaction.
func adjustItemStock(ctx context.Context, tx *gorm.DB, itemID string, delta int) error {
	result := tx.WithContext(ctx).Model(&entity.Item{}).
		Where("id = ?", itemID).
		Updates(map[string]interface{}{
			"in_stock":     gorm.Expr("in_stock + ?", delta),
			"last_updated": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ValidationError("stock update requested for invalid item")
	}
	return nil
}
