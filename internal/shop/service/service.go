package service

import (
	"context"

	"github.com/pedalworks/shop-backend/internal/shop/entity"
	"github.com/pedalworks/shop-backend/internal/shop/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Actor identifies the user performing a mutation, for the action log.
type Actor struct {
	ID   string
	Name string
}

// Services is the shop service collection.
type Services struct {
	Item        *ItemService
	Request     *RequestService
	Order       *OrderService
	Transaction *TransactionService
}

// NewServices wires the shop services. The same Pricing config drives tax
// recomputation everywhere.
func NewServices(db *gorm.DB, repos *repository.Repositories, pricing Pricing, logger *zap.Logger) *Services {
	services := &Services{
		Item:        &ItemService{db: db, repos: repos, logger: logger},
		Request:     &RequestService{db: db, repos: repos, pricing: pricing, logger: logger},
		Order:       &OrderService{db: db, repos: repos, pricing: pricing, logger: logger},
		Transaction: &TransactionService{db: db, repos: repos, pricing: pricing, logger: logger},
	}
	services.Order.SetRequestService(services.Request)
	return services
}

// requireActor rejects mutations that arrive without an acting user.
func requireActor(actor Actor) error {
	if actor.ID == "" {
		return ValidationError("missing actor")
	}
	return nil
}

// logAction appends an action log entry inside the caller's transaction.
func logAction(ctx context.Context, tx *gorm.DB, actor Actor, entityType, entityID, description string) error {
	repos := repository.NewRepositories(tx)
	return repos.ActionLog.Create(ctx, &entity.ActionLog{
		EntityType:   entityType,
		EntityID:     entityID,
		Description:  description,
		OperatorID:   actor.ID,
		OperatorName: actor.Name,
	})
}
