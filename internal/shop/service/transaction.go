package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/pedalworks/shop-backend/internal/shop/entity"
	"github.com/pedalworks/shop-backend/internal/shop/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Notifier dispatches a templated email for a ticket. Implementations must be
// fire and forget; a delivery failure is logged, never surfaced to the
// mutation that triggered it.
type Notifier interface {
	SendTicketEmail(trx *entity.Transaction, customer *entity.Customer, template string)
}

// TransactionService owns service tickets, their line items and repairs.
type TransactionService struct {
	db       *gorm.DB
	repos    *repository.Repositories
	pricing  Pricing
	notifier Notifier
	logger   *zap.Logger
}

// SetNotifier wires the outbound mail sender. Optional; without it receipt
// mail is skipped.
func (s *TransactionService) SetNotifier(n Notifier) {
	s.notifier = n
}

func ticketEntityID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// saveTicket persists the ticket without touching its associations.
func saveTicket(ctx context.Context, tx *gorm.DB, trx *entity.Transaction) error {
	return tx.WithContext(ctx).Omit("Items", "Repairs", "Customer", "Bike").Save(trx).Error
}

// addItemLine puts one priced unit of item on the ticket and recomputes tax.
// Shared by the user-facing add and by request fulfillment.
func addItemLine(ctx context.Context, tx *gorm.DB, pricing Pricing, trx *entity.Transaction, item *entity.Item, customPrice *float64) error {
	price := pricing.linePrice(trx, item, customPrice)
	line := entity.TransactionItem{
		TransactionID: trx.ID,
		ItemID:        &item.ID,
		Price:         price,
		Item:          item,
	}
	if err := tx.WithContext(ctx).Omit("Item").Create(&line).Error; err != nil {
		return err
	}
	trx.Items = append(trx.Items, line)
	trx.TotalCost = addMoney(trx.TotalCost, price)
	if err := saveTicket(ctx, tx, trx); err != nil {
		return err
	}
	return pricing.recomputeTax(ctx, tx, trx)
}

// removeItemLineAt drops the line item at index and recomputes tax. Managed
// lines (the tax line) cannot be removed by hand.
func removeItemLineAt(ctx context.Context, tx *gorm.DB, pricing Pricing, trx *entity.Transaction, index int) error {
	if index < 0 || index >= len(trx.Items) {
		return ValidationError("no line item at index %d", index)
	}
	line := trx.Items[index]
	if line.Item != nil && line.Item.Managed {
		return ForbiddenError("cannot remove managed item")
	}
	trx.TotalCost = subMoney(trx.TotalCost, line.Price)
	if err := tx.WithContext(ctx).Delete(&entity.TransactionItem{}, line.ID).Error; err != nil {
		return err
	}
	trx.Items = append(trx.Items[:index], trx.Items[index+1:]...)
	if err := saveTicket(ctx, tx, trx); err != nil {
		return err
	}
	return pricing.recomputeTax(ctx, tx, trx)
}

// removeItemLineByItem drops the first line holding the given catalog item.
// Used when a completed request is reopened and its units come back off the
// ticket, so the managed guard does not apply.
func removeItemLineByItem(ctx context.Context, tx *gorm.DB, pricing Pricing, trx *entity.Transaction, itemID string) error {
	index := -1
	for i, line := range trx.Items {
		if line.ItemID != nil && *line.ItemID == itemID {
			index = i
			break
		}
	}
	if index == -1 {
		return NotFoundError("item not found on ticket %d", trx.ID)
	}
	line := trx.Items[index]
	trx.TotalCost = subMoney(trx.TotalCost, line.Price)
	if err := tx.WithContext(ctx).Delete(&entity.TransactionItem{}, line.ID).Error; err != nil {
		return err
	}
	trx.Items = append(trx.Items[:index], trx.Items[index+1:]...)
	if err := saveTicket(ctx, tx, trx); err != nil {
		return err
	}
	return pricing.recomputeTax(ctx, tx, trx)
}

// addWaitingRequest records that the ticket is waiting on the request.
func addWaitingRequest(ctx context.Context, tx *gorm.DB, trx *entity.Transaction, requestID int64) error {
	if trx.Complete {
		return ConflictError("cannot add order requests to a complete ticket")
	}
	trx.OrderRequestIDs = append(trx.OrderRequestIDs, requestID)
	return saveTicket(ctx, tx, trx)
}

// removeWaitingRequest drops one occurrence of the request from the ticket's
// waiting list.
func removeWaitingRequest(ctx context.Context, tx *gorm.DB, trx *entity.Transaction, requestID int64) error {
	if trx.OrderRequestIDs.IndexOf(requestID) == -1 {
		return NotFoundError("no matching order request found to remove from ticket")
	}
	trx.OrderRequestIDs = trx.OrderRequestIDs.Remove(requestID)
	return saveTicket(ctx, tx, trx)
}

// CreateTransactionInput carries the fields accepted on ticket creation.
type CreateTransactionInput struct {
	Type        string `json:"transaction_type"`
	Description string `json:"description"`
	CustomerID  string `json:"customer_id"`
	Employee    bool   `json:"employee"`
}

// Create opens a new ticket for a customer.
func (s *TransactionService) Create(ctx context.Context, actor Actor, input CreateTransactionInput) (*entity.Transaction, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if input.CustomerID == "" {
		return nil, ValidationError("customer is required")
	}
	if _, err := s.repos.Customer.FindByID(ctx, input.CustomerID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NotFoundError("customer not found")
		}
		return nil, err
	}

	trx := &entity.Transaction{
		Type:        input.Type,
		Description: input.Description,
		CustomerID:  input.CustomerID,
		Employee:    input.Employee,
		DateCreated: time.Now(),
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.WithContext(ctx).Omit("Customer", "Bike", "Items", "Repairs").Create(trx).Error; err != nil {
			return err
		}
		return logAction(ctx, tx, actor, entity.EntityTransaction, ticketEntityID(trx.ID), "Created ticket")
	})
	if err != nil {
		return nil, err
	}
	return s.repos.Transaction.FindByID(ctx, trx.ID)
}

// List returns tickets matching the filters.
func (s *TransactionService) List(ctx context.Context, f repository.TransactionFilters) ([]entity.Transaction, error) {
	return s.repos.Transaction.FindAll(ctx, f)
}

// Get returns one ticket fully loaded.
func (s *TransactionService) Get(ctx context.Context, id int64) (*entity.Transaction, error) {
	trx, err := s.repos.Transaction.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NotFoundError("ticket not found")
		}
		return nil, err
	}
	return trx, nil
}

// AddItem puts one unit of a catalog item on the ticket. Custom prices only
// apply to items without a catalog price.
func (s *TransactionService) AddItem(ctx context.Context, actor Actor, ticketID int64, itemID string, customPrice *float64) (*entity.Transaction, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		repos := repository.NewRepositories(tx)
		trx, err := repos.Transaction.FindByID(ctx, ticketID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return NotFoundError("ticket not found")
			}
			return err
		}
		item, err := repos.Item.FindByID(ctx, itemID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return NotFoundError("item not found")
			}
			return err
		}
		if item.Managed {
			return ForbiddenError("cannot add managed item")
		}
		if err := addItemLine(ctx, tx, s.pricing, trx, item, customPrice); err != nil {
			return err
		}
		return logAction(ctx, tx, actor, entity.EntityTransaction, ticketEntityID(ticketID),
			fmt.Sprintf("Added item %s", item.Name))
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, ticketID)
}

// RemoveItem drops the line item at the given position.
func (s *TransactionService) RemoveItem(ctx context.Context, actor Actor, ticketID int64, index int) (*entity.Transaction, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		repos := repository.NewRepositories(tx)
		trx, err := repos.Transaction.FindByID(ctx, ticketID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return NotFoundError("ticket not found")
			}
			return err
		}
		name := ""
		if index >= 0 && index < len(trx.Items) {
			if trx.Items[index].Item != nil {
				name = trx.Items[index].Item.Name
			} else {
				name = trx.Items[index].LegacyName
			}
		}
		if err := removeItemLineAt(ctx, tx, s.pricing, trx, index); err != nil {
			return err
		}
		return logAction(ctx, tx, actor, entity.EntityTransaction, ticketEntityID(ticketID),
			fmt.Sprintf("Deleted item %s", name))
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, ticketID)
}

// AddRepair puts a repair on the ticket at its catalog price.
func (s *TransactionService) AddRepair(ctx context.Context, actor Actor, ticketID int64, repairID string) (*entity.Transaction, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		repos := repository.NewRepositories(tx)
		trx, err := repos.Transaction.FindByID(ctx, ticketID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return NotFoundError("ticket not found")
			}
			return err
		}
		repair, err := repos.Repair.FindByID(ctx, repairID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return NotFoundError("repair not found")
			}
			return err
		}
		entry := entity.TransactionRepair{
			TransactionID: ticketID,
			RepairID:      repair.ID,
			Price:         repair.Price,
		}
		if err := tx.WithContext(ctx).Omit("Repair").Create(&entry).Error; err != nil {
			return err
		}
		trx.Repairs = append(trx.Repairs, entry)
		trx.TotalCost = addMoney(trx.TotalCost, repair.Price)
		if err := saveTicket(ctx, tx, trx); err != nil {
			return err
		}
		if err := s.pricing.recomputeTax(ctx, tx, trx); err != nil {
			return err
		}
		return logAction(ctx, tx, actor, entity.EntityTransaction, ticketEntityID(ticketID),
			fmt.Sprintf("Added repair %s", repair.Name))
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, ticketID)
}

// RemoveRepair drops a repair entry from the ticket.
func (s *TransactionService) RemoveRepair(ctx context.Context, actor Actor, ticketID, entryID int64) (*entity.Transaction, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		repos := repository.NewRepositories(tx)
		trx, err := repos.Transaction.FindByID(ctx, ticketID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return NotFoundError("ticket not found")
			}
			return err
		}
		index := -1
		for i, entry := range trx.Repairs {
			if entry.ID == entryID {
				index = i
				break
			}
		}
		if index == -1 {
			return NotFoundError("repair not found on ticket")
		}
		entry := trx.Repairs[index]
		trx.TotalCost = subMoney(trx.TotalCost, entry.Price)
		if err := tx.WithContext(ctx).Delete(&entity.TransactionRepair{}, entry.ID).Error; err != nil {
			return err
		}
		trx.Repairs = append(trx.Repairs[:index], trx.Repairs[index+1:]...)
		if err := saveTicket(ctx, tx, trx); err != nil {
			return err
		}
		if err := s.pricing.recomputeTax(ctx, tx, trx); err != nil {
			return err
		}
		name := ""
		if entry.Repair != nil {
			name = entry.Repair.Name
		}
		return logAction(ctx, tx, actor, entity.EntityTransaction, ticketEntityID(ticketID),
			fmt.Sprintf("Deleted repair %s", name))
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, ticketID)
}

// SetRepairCompleted toggles one repair entry's done flag.
func (s *TransactionService) SetRepairCompleted(ctx context.Context, actor Actor, ticketID, entryID int64, completed bool) (*entity.Transaction, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var entry entity.TransactionRepair
		err := tx.WithContext(ctx).Where("id = ? AND transaction_id = ?", entryID, ticketID).First(&entry).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NotFoundError("repair not found on ticket")
			}
			return err
		}
		entry.Completed = completed
		if err := tx.WithContext(ctx).Save(&entry).Error; err != nil {
			return err
		}
		state := "incomplete"
		if completed {
			state = "complete"
		}
		return logAction(ctx, tx, actor, entity.EntityTransaction, ticketEntityID(ticketID),
			fmt.Sprintf("Marked repair %s", state))
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, ticketID)
}

// MarkComplete sets or clears the ticket's completion flag. A ticket still
// waiting on order requests cannot be completed.
func (s *TransactionService) MarkComplete(ctx context.Context, actor Actor, ticketID int64, complete bool) (*entity.Transaction, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		repos := repository.NewRepositories(tx)
		trx, err := repos.Transaction.FindByID(ctx, ticketID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return NotFoundError("ticket not found")
			}
			return err
		}
		if complete && len(trx.OrderRequestIDs) > 0 {
			return ConflictError("ticket is still waiting on order requests")
		}
		trx.Complete = complete
		trx.Urgent = false
		if complete {
			now := time.Now()
			trx.DateCompleted = &now
		} else {
			trx.DateCompleted = nil
		}
		if err := saveTicket(ctx, tx, trx); err != nil {
			return err
		}
		state := "incomplete"
		if complete {
			state = "complete"
		}
		return logAction(ctx, tx, actor, entity.EntityTransaction, ticketEntityID(ticketID),
			fmt.Sprintf("Marked ticket %s", state))
	})
	if err != nil {
		return nil, err
	}
	trx, err := s.Get(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if complete && s.notifier != nil && trx.Customer != nil {
		s.notifier.SendTicketEmail(trx, trx.Customer, "ticket_ready")
	}
	return trx, nil
}

// MarkPaid sets or clears the paid flag and mails a receipt on payment.
func (s *TransactionService) MarkPaid(ctx context.Context, actor Actor, ticketID int64, paid bool) (*entity.Transaction, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		repos := repository.NewRepositories(tx)
		trx, err := repos.Transaction.FindByID(ctx, ticketID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return NotFoundError("ticket not found")
			}
			return err
		}
		trx.IsPaid = paid
		if err := saveTicket(ctx, tx, trx); err != nil {
			return err
		}
		state := "unpaid"
		if paid {
			state = "paid"
		}
		return logAction(ctx, tx, actor, entity.EntityTransaction, ticketEntityID(ticketID),
			fmt.Sprintf("Marked ticket %s", state))
	})
	if err != nil {
		return nil, err
	}
	trx, err := s.Get(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if paid && s.notifier != nil && trx.Customer != nil {
		s.notifier.SendTicketEmail(trx, trx.Customer, "receipt")
	}
	return trx, nil
}

// UpdateTransactionInput carries the optional ticket field updates.
type UpdateTransactionInput struct {
	Description  *string `json:"description"`
	Urgent       *bool   `json:"urgent"`
	Refurb       *bool   `json:"refurb"`
	BeerBike     *bool   `json:"beerbike"`
	Reserved     *bool   `json:"reserved"`
	WaitingEmail *bool   `json:"waiting_email"`
}

// Update applies the flag and description changes present in input.
func (s *TransactionService) Update(ctx context.Context, actor Actor, ticketID int64, input UpdateTransactionInput) (*entity.Transaction, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		repos := repository.NewRepositories(tx)
		trx, err := repos.Transaction.FindByID(ctx, ticketID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return NotFoundError("ticket not found")
			}
			return err
		}
		if input.Description != nil {
			trx.Description = *input.Description
		}
		if input.Urgent != nil {
			trx.Urgent = *input.Urgent
		}
		if input.Refurb != nil {
			trx.Refurb = *input.Refurb
		}
		if input.BeerBike != nil {
			trx.BeerBike = *input.BeerBike
		}
		if input.Reserved != nil {
			trx.Reserved = *input.Reserved
		}
		if input.WaitingEmail != nil {
			trx.WaitingEmail = *input.WaitingEmail
		}
		if err := saveTicket(ctx, tx, trx); err != nil {
			return err
		}
		return logAction(ctx, tx, actor, entity.EntityTransaction, ticketEntityID(ticketID), "Updated ticket")
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, ticketID)
}

// SetCustomer moves the ticket to another customer. Reserved tickets are
// pinned to the customer who reserved them.
func (s *TransactionService) SetCustomer(ctx context.Context, actor Actor, ticketID int64, customerID string) (*entity.Transaction, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		repos := repository.NewRepositories(tx)
		trx, err := repos.Transaction.FindByID(ctx, ticketID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return NotFoundError("ticket not found")
			}
			return err
		}
		if trx.Reserved {
			return ConflictError("cannot reassign a reserved ticket")
		}
		customer, err := repos.Customer.FindByID(ctx, customerID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return NotFoundError("customer not found")
			}
			return err
		}
		trx.CustomerID = customer.ID
		if err := saveTicket(ctx, tx, trx); err != nil {
			return err
		}
		return logAction(ctx, tx, actor, entity.EntityTransaction, ticketEntityID(ticketID),
			fmt.Sprintf("Reassigned ticket to %s %s", customer.FirstName, customer.LastName))
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, ticketID)
}

// AttachBike links a bike to the ticket; DetachBike clears it.
func (s *TransactionService) AttachBike(ctx context.Context, actor Actor, ticketID int64, bikeID string) (*entity.Transaction, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		repos := repository.NewRepositories(tx)
		trx, err := repos.Transaction.FindByID(ctx, ticketID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return NotFoundError("ticket not found")
			}
			return err
		}
		bike, err := repos.Bike.FindByID(ctx, bikeID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return NotFoundError("bike not found")
			}
			return err
		}
		trx.BikeID = &bike.ID
		if err := saveTicket(ctx, tx, trx); err != nil {
			return err
		}
		return logAction(ctx, tx, actor, entity.EntityTransaction, ticketEntityID(ticketID), "Attached bike")
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, ticketID)
}

func (s *TransactionService) DetachBike(ctx context.Context, actor Actor, ticketID int64) (*entity.Transaction, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		repos := repository.NewRepositories(tx)
		trx, err := repos.Transaction.FindByID(ctx, ticketID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return NotFoundError("ticket not found")
			}
			return err
		}
		trx.BikeID = nil
		if err := saveTicket(ctx, tx, trx); err != nil {
			return err
		}
		return logAction(ctx, tx, actor, entity.EntityTransaction, ticketEntityID(ticketID), "Detached bike")
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, ticketID)
}

// Delete removes the ticket and clears its id out of any order request still
// carrying it.
func (s *TransactionService) Delete(ctx context.Context, actor Actor, ticketID int64) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		repos := repository.NewRepositories(tx)
		trx, err := repos.Transaction.FindByID(ctx, ticketID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return NotFoundError("ticket not found")
			}
			return err
		}
		seen := map[int64]bool{}
		for _, reqID := range trx.OrderRequestIDs {
			if seen[reqID] {
				continue
			}
			seen[reqID] = true
			req, err := repos.OrderRequest.FindByID(ctx, reqID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					continue
				}
				return err
			}
			for req.TransactionIDs.IndexOf(ticketID) != -1 {
				req.TransactionIDs = req.TransactionIDs.Remove(ticketID)
			}
			if err := repos.OrderRequest.Update(ctx, req); err != nil {
				return err
			}
		}
		return repos.Transaction.Delete(ctx, ticketID)
	})
}

// Actions returns the ticket's action log, newest first.
func (s *TransactionService) Actions(ctx context.Context, ticketID int64) ([]entity.ActionLog, error) {
	return s.repos.ActionLog.FindByEntity(ctx, entity.EntityTransaction, ticketEntityID(ticketID))
}
