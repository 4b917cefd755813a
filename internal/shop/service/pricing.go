package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pedalworks/shop-backend/internal/shop/entity"
	"github.com/pedalworks/shop-backend/internal/shop/repository"
	"gorm.io/gorm"
)

// taxEpsilon is the smallest tax amount worth a line item.
const taxEpsilon = 0.001

// Pricing drives line item pricing and tax recomputation.
type Pricing struct {
	// Rate is the sales tax rate, e.g. 0.0825.
	Rate float64
	// CutoffDate is when tax collection started. Tickets created before it
	// are never taxed.
	CutoffDate time.Time
	// ItemName is the name of the managed tax item in the catalog.
	ItemName string
	// EmployeeMultiplier is applied to wholesale cost on employee tickets.
	EmployeeMultiplier float64
}

// linePrice computes the price of one unit of item on the ticket. Employee
// tickets pay wholesale times the multiplier. A custom price only applies to
// items with no catalog price (used items priced at the counter).
func (p Pricing) linePrice(trx *entity.Transaction, item *entity.Item, customPrice *float64) float64 {
	if trx.Employee && item.WholesaleCost > 0 {
		return truncate2(item.WholesaleCost * p.EmployeeMultiplier)
	}
	if customPrice != nil && item.StandardPrice == 0 {
		return truncate2(*customPrice)
	}
	return item.StandardPrice
}

// recomputeTax replaces the ticket's tax line. Discount lines (negative
// prices) stay in the tax base; that is a deliberate rule change from the
// shop's early days and must not be "fixed". The ticket's line items must be
// loaded with their catalog items. Saves the ticket.
func (p Pricing) recomputeTax(ctx context.Context, tx *gorm.DB, trx *entity.Transaction) error {
	if !trx.DateCreated.After(p.CutoffDate) {
		return nil
	}

	// Drop any existing tax line and back its price out of the total.
	kept := trx.Items[:0]
	for _, line := range trx.Items {
		if line.Item != nil && line.Item.Name == p.ItemName {
			trx.TotalCost = subMoney(trx.TotalCost, line.Price)
			if line.ID != 0 {
				if err := tx.WithContext(ctx).Delete(&entity.TransactionItem{}, line.ID).Error; err != nil {
					return err
				}
			}
			continue
		}
		kept = append(kept, line)
	}
	trx.Items = kept

	taxItem, err := p.taxItem(ctx, tx)
	if err != nil {
		return err
	}

	tax := truncate2(trx.TotalCost * p.Rate)
	if tax > taxEpsilon {
		line := entity.TransactionItem{
			TransactionID: trx.ID,
			ItemID:        &taxItem.ID,
			Price:         tax,
			Item:          taxItem,
		}
		if err := tx.WithContext(ctx).Omit("Item").Create(&line).Error; err != nil {
			return err
		}
		trx.Items = append(trx.Items, line)
		trx.TotalCost = addMoney(trx.TotalCost, tax)
	}

	return tx.WithContext(ctx).Omit("Items", "Repairs", "Customer", "Bike").Save(trx).Error
}

// taxItem fetches the managed tax item, creating it on first use.
func (p Pricing) taxItem(ctx context.Context, tx *gorm.DB) (*entity.Item, error) {
	repos := repository.NewRepositories(tx)
	item, err := repos.Item.FindByName(ctx, p.ItemName)
	if err != nil {
		return nil, err
	}
	if item != nil {
		return item, nil
	}
	item = &entity.Item{
		ID:      uuid.New().String()[:32],
		Name:    p.ItemName,
		Managed: true,
	}
	if err := repos.Item.Create(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}
