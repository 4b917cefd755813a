package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pedalworks/shop-backend/internal/shop/entity"
	"github.com/pedalworks/shop-backend/internal/shop/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OrderService owns supplier orders and their membership of order requests.
// The order total is derived, freight plus the wholesale contribution of
// every member, and is adjusted in the same transaction as any change that
// moves it.
type OrderService struct {
	db      *gorm.DB
	repos   *repository.Repositories
	pricing Pricing
	logger  *zap.Logger

	requests *RequestService
}

// SetRequestService wires the request lifecycle in. Set once at startup.
func (s *OrderService) SetRequestService(r *RequestService) {
	s.requests = r
}

// Create opens an empty order for a supplier.
func (s *OrderService) Create(ctx context.Context, actor Actor, supplier string) (*entity.Order, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if supplier == "" {
		return nil, ValidationError("supplier is required")
	}
	order := &entity.Order{
		ID:          uuid.New().String()[:32],
		Supplier:    supplier,
		Status:      entity.OrderStatusInCart,
		DateCreated: time.Now(),
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.WithContext(ctx).Create(order).Error; err != nil {
			return err
		}
		return logAction(ctx, tx, actor, entity.EntityOrder, order.ID, "Created order")
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// List returns orders created inside the window.
func (s *OrderService) List(ctx context.Context, start, end time.Time, active bool) ([]entity.Order, error) {
	return s.repos.Order.FindAll(ctx, start, end, active)
}

// Get returns one order.
func (s *OrderService) Get(ctx context.Context, id string) (*entity.Order, error) {
	order, err := s.repos.Order.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NotFoundError("order not found")
		}
		return nil, err
	}
	return order, nil
}

// Requests returns the order's member requests, most recent first.
func (s *OrderService) Requests(ctx context.Context, id string) ([]entity.OrderRequest, error) {
	order, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	requests := make([]entity.OrderRequest, 0, len(order.RequestIDs))
	for _, reqID := range order.RequestIDs {
		req, err := s.repos.OrderRequest.FindByID(ctx, reqID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			return nil, err
		}
		requests = append(requests, *req)
	}
	return requests, nil
}

// AddRequest attaches a request to the order. The request must be free, have
// an item and a positive quantity, and the order must not be completed.
func (s *OrderService) AddRequest(ctx context.Context, actor Actor, orderID string, requestID int64) (*entity.Order, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		repos := repository.NewRepositories(tx)
		order, err := repos.Order.FindByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return NotFoundError("order not found")
			}
			return err
		}
		req, err := repos.OrderRequest.FindByID(ctx, requestID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return NotFoundError("order request not found")
			}
			return err
		}
		if order.Status == entity.OrderStatusCompleted {
			return ConflictError("cannot add requests to a completed order")
		}
		if req.OrderID != nil {
			return ConflictError("request is already attached to an order")
		}
		if req.ItemID == nil {
			return ValidationError("request has no item assigned")
		}
		if req.Quantity < 1 {
			return ValidationError("request quantity must be at least 1")
		}

		if err := s.requests.attachOrderTx(ctx, tx, req, order); err != nil {
			return err
		}

		order.TotalPrice = addMoney(order.TotalPrice, req.Item.WholesaleCost*float64(req.Quantity))
		order.RequestIDs = append(entity.Int64List{req.ID}, order.RequestIDs...)
		if err := repos.Order.Update(ctx, order); err != nil {
			return err
		}
		return logAction(ctx, tx, actor, entity.EntityOrder, orderID,
			fmt.Sprintf("Added request %s", req.Request))
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, orderID)
}

// RemoveRequest detaches a request from the order, backing its cost
// contribution out of the total.
func (s *OrderService) RemoveRequest(ctx context.Context, actor Actor, orderID string, requestID int64) (*entity.Order, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		repos := repository.NewRepositories(tx)
		order, err := repos.Order.FindByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return NotFoundError("order not found")
			}
			return err
		}
		req, err := repos.OrderRequest.FindByID(ctx, requestID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return NotFoundError("order request not found in this order")
			}
			return err
		}
		return s.removeRequestTx(ctx, tx, actor, order, req)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, orderID)
}

func (s *OrderService) removeRequestTx(ctx context.Context, tx *gorm.DB, actor Actor, order *entity.Order, req *entity.OrderRequest) error {
	repos := repository.NewRepositories(tx)
	if req.Item != nil {
		order.TotalPrice = subMoney(order.TotalPrice, req.Item.WholesaleCost*float64(req.Quantity))
	}
	order.RequestIDs = order.RequestIDs.Remove(req.ID)
	if err := repos.Order.Update(ctx, order); err != nil {
		return err
	}
	if err := s.requests.detachOrderTx(ctx, tx, req); err != nil {
		return err
	}
	return logAction(ctx, tx, actor, entity.EntityOrder, order.ID,
		fmt.Sprintf("Removed request %s", req.Request))
}

// SetStatus moves the order and every member request to the new status in
// one transaction. If any member cannot make the transition, typically a
// completed request whose tickets have since closed, nothing changes.
func (s *OrderService) SetStatus(ctx context.Context, actor Actor, orderID, status string) (*entity.Order, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if !entity.ValidOrderStatus(status) {
		return nil, ValidationError("unknown status %q", status)
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		repos := repository.NewRepositories(tx)
		order, err := repos.Order.FindByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return NotFoundError("order not found")
			}
			return err
		}

		for _, reqID := range order.RequestIDs {
			req, err := repos.OrderRequest.FindByID(ctx, reqID)
			if err != nil {
				return err
			}
			if err := s.requests.setStatusTx(ctx, tx, req, status); err != nil {
				return err
			}
			if err := saveRequest(ctx, tx, req); err != nil {
				return err
			}
		}

		now := time.Now()
		switch status {
		case entity.OrderStatusInCart:
			order.DateSubmitted = nil
			order.DateCompleted = nil
		case entity.OrderStatusOrdered:
			order.DateSubmitted = &now
			order.DateCompleted = nil
		case entity.OrderStatusCompleted:
			if order.Status != entity.OrderStatusCompleted {
				order.DateCompleted = &now
				if order.DateSubmitted == nil {
					order.DateSubmitted = &now
				}
			}
		}
		if status != entity.OrderStatusCompleted && order.Status == entity.OrderStatusCompleted {
			order.DateCompleted = nil
		}
		order.Status = status

		if err := repos.Order.Update(ctx, order); err != nil {
			return err
		}
		return logAction(ctx, tx, actor, entity.EntityOrder, orderID,
			fmt.Sprintf("Set status to %s", status))
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, orderID)
}

// SetFreightCharge replaces the freight charge, moving the total by the
// difference.
func (s *OrderService) SetFreightCharge(ctx context.Context, actor Actor, orderID string, charge float64) (*entity.Order, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		repos := repository.NewRepositories(tx)
		order, err := repos.Order.FindByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return NotFoundError("order not found")
			}
			return err
		}
		order.TotalPrice = addMoney(order.TotalPrice, charge-order.FreightCharge)
		order.FreightCharge = charge
		if err := repos.Order.Update(ctx, order); err != nil {
			return err
		}
		return logAction(ctx, tx, actor, entity.EntityOrder, orderID,
			fmt.Sprintf("Set freight charge to %.2f", charge))
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, orderID)
}

// UpdateOrderInput carries the plain field updates. A supplier rename is
// copied onto every member request.
type UpdateOrderInput struct {
	Supplier       *string `json:"supplier"`
	TrackingNumber *string `json:"tracking_number"`
	Notes          *string `json:"notes"`
}

// Update applies the supplier, tracking number and notes changes present in
// input.
func (s *OrderService) Update(ctx context.Context, actor Actor, orderID string, input UpdateOrderInput) (*entity.Order, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		repos := repository.NewRepositories(tx)
		order, err := repos.Order.FindByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return NotFoundError("order not found")
			}
			return err
		}
		if input.Supplier != nil && *input.Supplier != order.Supplier {
			if *input.Supplier == "" {
				return ValidationError("supplier cannot be empty")
			}
			order.Supplier = *input.Supplier
			for _, reqID := range order.RequestIDs {
				req, err := repos.OrderRequest.FindByID(ctx, reqID)
				if err != nil {
					if errors.Is(err, repository.ErrNotFound) {
						continue
					}
					return err
				}
				supplier := order.Supplier
				req.Supplier = &supplier
				if err := saveRequest(ctx, tx, req); err != nil {
					return err
				}
			}
		}
		if input.TrackingNumber != nil {
			order.TrackingNumber = *input.TrackingNumber
		}
		if input.Notes != nil {
			order.Notes = *input.Notes
		}
		if err := repos.Order.Update(ctx, order); err != nil {
			return err
		}
		return logAction(ctx, tx, actor, entity.EntityOrder, orderID, "Updated order")
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, orderID)
}

// Delete removes the order after detaching every member request.
func (s *OrderService) Delete(ctx context.Context, actor Actor, orderID string) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		repos := repository.NewRepositories(tx)
		order, err := repos.Order.FindByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return NotFoundError("order not found")
			}
			return err
		}
		for _, reqID := range append(entity.Int64List{}, order.RequestIDs...) {
			req, err := repos.OrderRequest.FindByID(ctx, reqID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					continue
				}
				return err
			}
			if err := s.removeRequestTx(ctx, tx, actor, order, req); err != nil {
				return err
			}
		}
		return repos.Order.Delete(ctx, orderID)
	})
}

// Actions returns the order's action log, newest first.
func (s *OrderService) Actions(ctx context.Context, orderID string) ([]entity.ActionLog, error) {
	return s.repos.ActionLog.FindByEntity(ctx, entity.EntityOrder, orderID)
}
