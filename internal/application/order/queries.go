package order

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/minicart/fulfillment/internal/domain/order"
	"github.com/minicart/fulfillment/internal/observability"
	"github.com/minicart/fulfillment/internal/observability/logctx"
)

// Queries exposes the owner-scoped read side of the order service.
type Queries struct {
	repo domain.Repository
	log  observability.Logger
}

func NewQueries(repo domain.Repository, tel observability.Observability) *Queries {
	if tel == nil {
		tel = observability.Nop()
	}
	return &Queries{
		repo: repo,
		log:  tel.Logger().With(observability.F("service", orderService)),
	}
}

// GetOrder returns the order only when it belongs to ownerID. A foreign-owned
// order reads as ErrNotFound so callers cannot probe for existence.
func (q *Queries) GetOrder(ctx context.Context, ownerID, orderID string) (*domain.Order, error) {
	if ownerID == "" || orderID == "" {
		return nil, domain.ErrNotFound
	}
	entity, err := q.repo.FindByOwner(ctx, ownerID, orderID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %w", ErrRepository, err)
	}
	return entity, nil
}

func (q *Queries) ListOrders(ctx context.Context, ownerID string) ([]*domain.Order, error) {
	if ownerID == "" {
		return nil, domain.ErrNotFound
	}
	orders, err := q.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		logctx.FromOr(ctx, q.log).Error("list_orders_failed",
			observability.F("error", err.Error()),
		)
		return nil, fmt.Errorf("%w: %w", ErrRepository, err)
	}
	return orders, nil
}
