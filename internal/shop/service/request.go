package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/pedalworks/shop-backend/internal/shop/entity"
	"github.com/pedalworks/shop-backend/internal/shop/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RequestService owns the order request lifecycle. Status changes cascade
// into stock and ticket fulfillment, so every transition runs inside one
// database transaction and either lands whole or not at all.
type RequestService struct {
	db      *gorm.DB
	repos   *repository.Repositories
	pricing Pricing
	logger  *zap.Logger
}

func requestEntityID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func saveRequest(ctx context.Context, tx *gorm.DB, req *entity.OrderRequest) error {
	return tx.WithContext(ctx).Omit("Item").Save(req).Error
}

// CreateRequestInput carries the fields accepted on request creation.
type CreateRequestInput struct {
	Request    string   `json:"request"`
	Categories []string `json:"categories"`
	Quantity   int      `json:"quantity"`
	ItemID     *string  `json:"item_id"`
	Notes      string   `json:"notes"`
}

// Create opens a new request in Not Ordered.
func (s *RequestService) Create(ctx context.Context, actor Actor, input CreateRequestInput) (*entity.OrderRequest, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if input.Request == "" {
		return nil, ValidationError("request text is required")
	}
	if input.Quantity < 0 {
		return nil, ValidationError("quantity cannot be negative")
	}
	if len(input.Categories) > 3 {
		return nil, ValidationError("at most 3 category labels")
	}

	req := &entity.OrderRequest{
		Request:    input.Request,
		Categories: entity.StringList(input.Categories),
		Quantity:   input.Quantity,
		Status:     entity.RequestStatusNotOrdered,
		Notes:      input.Notes,
	}
	if input.ItemID != nil {
		item, err := s.repos.Item.FindByID(ctx, *input.ItemID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, NotFoundError("item not found")
			}
			return nil, err
		}
		req.ItemID = &item.ID
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.WithContext(ctx).Omit("Item").Create(req).Error; err != nil {
			return err
		}
		return logAction(ctx, tx, actor, entity.EntityOrderRequest, requestEntityID(req.ID), "Created request")
	})
	if err != nil {
		return nil, err
	}
	return s.repos.OrderRequest.FindByID(ctx, req.ID)
}

// List returns requests matching the filters.
func (s *RequestService) List(ctx context.Context, f repository.RequestFilters) ([]entity.OrderRequest, error) {
	return s.repos.OrderRequest.FindAll(ctx, f)
}

// Latest returns the newest n requests.
func (s *RequestService) Latest(ctx context.Context, n int) ([]entity.OrderRequest, error) {
	return s.repos.OrderRequest.Latest(ctx, n)
}

// Get returns one request.
func (s *RequestService) Get(ctx context.Context, id int64) (*entity.OrderRequest, error) {
	req, err := s.repos.OrderRequest.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NotFoundError("order request not found")
		}
		return nil, err
	}
	return req, nil
}

// SetStatus moves a request through its lifecycle. Completing a request
// restocks its item and pushes units onto every waiting ticket; reopening a
// completed request pulls those units back, which fails if any of the tickets
// has since been completed.
func (s *RequestService) SetStatus(ctx context.Context, actor Actor, id int64, status string) (*entity.OrderRequest, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if !entity.ValidRequestStatus(status) {
		return nil, ValidationError("unknown status %q", status)
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		repos := repository.NewRepositories(tx)
		req, err := repos.OrderRequest.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return NotFoundError("order request not found")
			}
			return err
		}
		if err := s.setStatusTx(ctx, tx, req, status); err != nil {
			return err
		}
		if err := saveRequest(ctx, tx, req); err != nil {
			return err
		}
		return logAction(ctx, tx, actor, entity.EntityOrderRequest, requestEntityID(id),
			fmt.Sprintf("Set status to %s", status))
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// setStatusTx is the transition itself, run inside the caller's transaction.
// Order of side effects matters: into Completed the status is persisted
// before stock and fulfillment; out of Completed the unfulfill dry run comes
// before anything is written.
func (s *RequestService) setStatusTx(ctx context.Context, tx *gorm.DB, req *entity.OrderRequest, status string) error {
	switch {
	case req.Status != entity.RequestStatusCompleted && status == entity.RequestStatusCompleted:
		if req.ItemID == nil {
			return ValidationError("cannot complete a request with no item")
		}
		req.Status = status
		if err := saveRequest(ctx, tx, req); err != nil {
			return err
		}
		if err := adjustItemStock(ctx, tx, *req.ItemID, req.Quantity); err != nil {
			return err
		}
		return s.fulfill(ctx, tx, req)

	case req.Status == entity.RequestStatusCompleted && status != entity.RequestStatusCompleted:
		if req.ItemID == nil {
			return ValidationError("completed request has no item")
		}
		// Unfulfill first, it is the step that can fail.
		if err := s.unfulfill(ctx, tx, req); err != nil {
			return err
		}
		req.Status = status
		// Persist before dropping stock so the low stock check cannot spawn
		// a duplicate request.
		if err := saveRequest(ctx, tx, req); err != nil {
			return err
		}
		return adjustItemStock(ctx, tx, *req.ItemID, -req.Quantity)

	default:
		req.Status = status
		return nil
	}
}

// fulfill pushes one unit of the request's item onto each waiting ticket and
// removes the request from that ticket's waiting list. The request keeps its
// own ticket list for history; once completed the two sides of the link are
// allowed to diverge.
func (s *RequestService) fulfill(ctx context.Context, tx *gorm.DB, req *entity.OrderRequest) error {
	repos := repository.NewRepositories(tx)
	item, err := repos.Item.FindByID(ctx, *req.ItemID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return NotFoundError("could not locate item to add to ticket")
		}
		return err
	}
	for _, ticketID := range req.TransactionIDs {
		trx, err := repos.Transaction.FindByID(ctx, ticketID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return NotFoundError("could not find ticket %d to add item to", ticketID)
			}
			return err
		}
		if err := logAction(ctx, tx, Actor{ID: "system", Name: "system"}, entity.EntityTransaction,
			ticketEntityID(ticketID), fmt.Sprintf("Added %s from completed order request", req.Request)); err != nil {
			return err
		}
		if err := addItemLine(ctx, tx, s.pricing, trx, item, nil); err != nil {
			return err
		}
		if err := removeWaitingRequest(ctx, tx, trx, req.ID); err != nil {
			return err
		}
	}
	return nil
}

// unfulfill takes one unit of the item back off each ticket in the request's
// list and re-adds the request to the ticket's waiting list. A dry run over
// all tickets happens first: any completed ticket aborts the whole reversal,
// and a ticket that no longer exists is pruned silently (it was deleted after
// the link lapsed) when the request is Completed.
func (s *RequestService) unfulfill(ctx context.Context, tx *gorm.DB, req *entity.OrderRequest) error {
	repos := repository.NewRepositories(tx)
	item, err := repos.Item.FindByID(ctx, *req.ItemID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return NotFoundError("could not locate item to remove from ticket")
		}
		return err
	}

	var live entity.Int64List
	var completed []int64
	for _, ticketID := range req.TransactionIDs {
		trx, err := repos.Transaction.FindByID(ctx, ticketID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				if req.Status == entity.RequestStatusCompleted {
					continue
				}
				return NotFoundError("could not find ticket %d to add item to", ticketID)
			}
			return err
		}
		if trx.Complete {
			completed = append(completed, ticketID)
		}
		live = append(live, ticketID)
	}
	if len(completed) > 0 {
		return ConflictTickets(completed, "cannot reopen request, some attached tickets are complete")
	}
	req.TransactionIDs = live

	for _, ticketID := range live {
		trx, err := repos.Transaction.FindByID(ctx, ticketID)
		if err != nil {
			return err
		}
		if err := removeItemLineByItem(ctx, tx, s.pricing, trx, item.ID); err != nil {
			return err
		}
		if err := addWaitingRequest(ctx, tx, trx, req.ID); err != nil {
			return err
		}
	}
	return nil
}

// attachOrderTx puts the request into the order: the order reference and
// supplier are copied over and the status is forced to mirror the order's.
func (s *RequestService) attachOrderTx(ctx context.Context, tx *gorm.DB, req *entity.OrderRequest, order *entity.Order) error {
	req.OrderID = &order.ID
	if err := s.setStatusTx(ctx, tx, req, order.Status); err != nil {
		return err
	}
	req.Supplier = &order.Supplier
	return saveRequest(ctx, tx, req)
}

// detachOrderTx takes the request back out of its order and returns it to
// Not Ordered. Detaching a request with no order is a no-op.
func (s *RequestService) detachOrderTx(ctx context.Context, tx *gorm.DB, req *entity.OrderRequest) error {
	if req.OrderID == nil {
		return nil
	}
	req.OrderID = nil
	if err := s.setStatusTx(ctx, tx, req, entity.RequestStatusNotOrdered); err != nil {
		return err
	}
	req.Supplier = nil
	return saveRequest(ctx, tx, req)
}

// SetQuantity changes how many units the request asks for, keeping the
// owning order's total in step.
func (s *RequestService) SetQuantity(ctx context.Context, actor Actor, id int64, quantity int) (*entity.OrderRequest, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if quantity < 0 {
		return nil, ValidationError("quantity cannot be negative")
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		repos := repository.NewRepositories(tx)
		req, err := repos.OrderRequest.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return NotFoundError("order request not found")
			}
			return err
		}
		if req.Status == entity.RequestStatusCompleted {
			return ForbiddenError("cannot change quantity of a completed request")
		}
		if quantity < len(req.TransactionIDs) {
			return ConflictError("quantity cannot drop below the %d tickets waiting on this request", len(req.TransactionIDs))
		}
		if req.OrderID != nil && req.ItemID != nil {
			order, err := repos.Order.FindByID(ctx, *req.OrderID)
			if err != nil {
				return err
			}
			item, err := repos.Item.FindByID(ctx, *req.ItemID)
			if err != nil {
				return err
			}
			order.TotalPrice = addMoney(order.TotalPrice, float64(quantity-req.Quantity)*item.WholesaleCost)
			if err := repos.Order.Update(ctx, order); err != nil {
				return err
			}
		}
		oldQuantity := req.Quantity
		req.Quantity = quantity
		if err := saveRequest(ctx, tx, req); err != nil {
			return err
		}
		return logAction(ctx, tx, actor, entity.EntityOrderRequest, requestEntityID(id),
			fmt.Sprintf("Changed quantity from %d to %d", oldQuantity, quantity))
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// SetItem assigns or swaps the catalog item behind the request, copying the
// item's name and categories onto it and repricing the owning order.
func (s *RequestService) SetItem(ctx context.Context, actor Actor, id int64, itemID string) (*entity.OrderRequest, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		repos := repository.NewRepositories(tx)
		req, err := repos.OrderRequest.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return NotFoundError("order request not found")
			}
			return err
		}
		if req.Status == entity.RequestStatusCompleted {
			return ForbiddenError("cannot change item on completed request")
		}
		item, err := repos.Item.FindByID(ctx, itemID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return NotFoundError("item not found")
			}
			return err
		}
		if req.OrderID != nil {
			oldCost := 0.0
			if req.Item != nil {
				oldCost = req.Item.WholesaleCost
			}
			order, err := repos.Order.FindByID(ctx, *req.OrderID)
			if err != nil {
				return err
			}
			order.TotalPrice = addMoney(order.TotalPrice, float64(req.Quantity)*(item.WholesaleCost-oldCost))
			if err := repos.Order.Update(ctx, order); err != nil {
				return err
			}
		}
		req.ItemID = &item.ID
		req.Item = item
		req.Request = item.Name
		req.Categories = item.Categories()
		if err := saveRequest(ctx, tx, req); err != nil {
			return err
		}
		return logAction(ctx, tx, actor, entity.EntityOrderRequest, requestEntityID(id),
			fmt.Sprintf("Assigned item %s", item.Name))
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// UpdateRequestInput carries the free-text field updates.
type UpdateRequestInput struct {
	Request    *string `json:"request"`
	Supplier   *string `json:"supplier"`
	PartNumber *string `json:"part_number"`
	Notes      *string `json:"notes"`
}

// Update applies the text field changes present in input.
func (s *RequestService) Update(ctx context.Context, actor Actor, id int64, input UpdateRequestInput) (*entity.OrderRequest, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		repos := repository.NewRepositories(tx)
		req, err := repos.OrderRequest.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return NotFoundError("order request not found")
			}
			return err
		}
		if input.Request != nil {
			req.Request = *input.Request
		}
		if input.Supplier != nil {
			req.Supplier = input.Supplier
		}
		if input.PartNumber != nil {
			req.PartNumber = *input.PartNumber
		}
		if input.Notes != nil {
			req.Notes = *input.Notes
		}
		if err := saveRequest(ctx, tx, req); err != nil {
			return err
		}
		return logAction(ctx, tx, actor, entity.EntityOrderRequest, requestEntityID(id), "Updated request")
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// AttachTicket records that one more unit of this request is for the given
// ticket. The same ticket can be attached more than once, one per unit, and
// the request's quantity grows with each attachment.
func (s *RequestService) AttachTicket(ctx context.Context, actor Actor, id, ticketID int64) (*entity.OrderRequest, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		repos := repository.NewRepositories(tx)
		req, err := repos.OrderRequest.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return NotFoundError("order request not found")
			}
			return err
		}
		if req.Status == entity.RequestStatusCompleted {
			return ConflictError("cannot add a completed order request to a ticket")
		}
		trx, err := repos.Transaction.FindByID(ctx, ticketID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return NotFoundError("ticket not found")
			}
			return err
		}
		if err := addWaitingRequest(ctx, tx, trx, req.ID); err != nil {
			return err
		}
		req.TransactionIDs = append(req.TransactionIDs, ticketID)
		req.Quantity++
		if req.OrderID != nil && req.ItemID != nil {
			order, err := repos.Order.FindByID(ctx, *req.OrderID)
			if err != nil {
				return err
			}
			item, err := repos.Item.FindByID(ctx, *req.ItemID)
			if err != nil {
				return err
			}
			order.TotalPrice = addMoney(order.TotalPrice, item.WholesaleCost)
			if err := repos.Order.Update(ctx, order); err != nil {
				return err
			}
		}
		if err := saveRequest(ctx, tx, req); err != nil {
			return err
		}
		if err := logAction(ctx, tx, actor, entity.EntityTransaction, ticketEntityID(ticketID),
			fmt.Sprintf("Waiting on request %s", req.Request)); err != nil {
			return err
		}
		return logAction(ctx, tx, actor, entity.EntityOrderRequest, requestEntityID(id),
			fmt.Sprintf("Added ticket %d", ticketID))
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// DetachTicket removes one occurrence of the ticket from the request,
// dropping the quantity with it. A request whose quantity reaches zero this
// way is deleted outright; callers get a nil request back in that case.
func (s *RequestService) DetachTicket(ctx context.Context, actor Actor, id, ticketID int64) (*entity.OrderRequest, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	deleted := false
	err := s.db.Transaction(func(tx *gorm.DB) error {
		repos := repository.NewRepositories(tx)
		req, err := repos.OrderRequest.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return NotFoundError("order request not found")
			}
			return err
		}
		if req.TransactionIDs.IndexOf(ticketID) == -1 {
			return NotFoundError("ticket not attached to this request")
		}
		trx, err := repos.Transaction.FindByID(ctx, ticketID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return NotFoundError("ticket not found")
			}
			return err
		}
		if err := removeWaitingRequest(ctx, tx, trx, req.ID); err != nil {
			return err
		}
		req.TransactionIDs = req.TransactionIDs.Remove(ticketID)
		req.Quantity--
		if req.OrderID != nil && req.ItemID != nil {
			order, err := repos.Order.FindByID(ctx, *req.OrderID)
			if err != nil {
				return err
			}
			item, err := repos.Item.FindByID(ctx, *req.ItemID)
			if err != nil {
				return err
			}
			order.TotalPrice = subMoney(order.TotalPrice, item.WholesaleCost)
			if err := repos.Order.Update(ctx, order); err != nil {
				return err
			}
		}
		if req.Quantity <= 0 {
			deleted = true
			return s.deleteTx(ctx, tx, req)
		}
		if err := saveRequest(ctx, tx, req); err != nil {
			return err
		}
		return logAction(ctx, tx, actor, entity.EntityOrderRequest, requestEntityID(id),
			fmt.Sprintf("Removed ticket %d", ticketID))
	})
	if err != nil {
		return nil, err
	}
	if deleted {
		return nil, nil
	}
	return s.Get(ctx, id)
}

// Delete removes the request, detaching it from its order and, unless it
// already completed, from every ticket waiting on it.
func (s *RequestService) Delete(ctx context.Context, actor Actor, id int64) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		repos := repository.NewRepositories(tx)
		req, err := repos.OrderRequest.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return NotFoundError("order request not found")
			}
			return err
		}
		return s.deleteTx(ctx, tx, req)
	})
}

// deleteTx is the delete cascade, run inside the caller's transaction. The
// order side is always cleaned up; the ticket side only while the request
// never completed, since after completion that link has lapsed by design.
func (s *RequestService) deleteTx(ctx context.Context, tx *gorm.DB, req *entity.OrderRequest) error {
	repos := repository.NewRepositories(tx)
	if req.OrderID != nil {
		order, err := repos.Order.FindByID(ctx, *req.OrderID)
		if err != nil {
			return err
		}
		if req.Item != nil {
			order.TotalPrice = subMoney(order.TotalPrice, req.Item.WholesaleCost*float64(req.Quantity))
		}
		order.RequestIDs = order.RequestIDs.Remove(req.ID)
		if err := repos.Order.Update(ctx, order); err != nil {
			return err
		}
	}
	if req.Status != entity.RequestStatusCompleted {
		for _, ticketID := range req.TransactionIDs {
			trx, err := repos.Transaction.FindByID(ctx, ticketID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					continue
				}
				return err
			}
			if err := removeWaitingRequest(ctx, tx, trx, req.ID); err != nil {
				return err
			}
		}
	}
	return repos.OrderRequest.Delete(ctx, req.ID)
}

// Actions returns the request's action log, newest first.
func (s *RequestService) Actions(ctx context.Context, id int64) ([]entity.ActionLog, error) {
	return s.repos.ActionLog.FindByEntity(ctx, entity.EntityOrderRequest, requestEntityID(id))
}
