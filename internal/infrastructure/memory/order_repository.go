package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	domain "github.com/minicart/fulfillment/internal/domain/order"
)

type OrderRepository struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order
}

func NewOrderRepository() *OrderRepository {
	return &OrderRepository{
		orders: make(map[string]*domain.Order),
	}
}

func (r *OrderRepository) Insert(ctx context.Context, order *domain.Order) error {
	if order == nil || order.ID == "" {
		return fmt.Errorf("order repository: id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.orders[order.ID]; exists {
		return domain.ErrConflict
	}
	r.orders[order.ID] = cloneOrder(order)

	if journal := journalFrom(ctx); journal != nil {
		id := order.ID
		journal.record(func() {
			r.mu.Lock()
			delete(r.orders, id)
			r.mu.Unlock()
		})
	}
	return nil
}

func (r *OrderRepository) FindByOwner(ctx context.Context, ownerID, orderID string) (*domain.Order, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[orderID]
	if !ok || order.OwnerID != ownerID {
		// Foreign-owned orders read as absent.
		return nil, domain.ErrNotFound
	}
	return cloneOrder(order), nil
}

func (r *OrderRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Order, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	var orders []*domain.Order
	for _, o := range r.orders {
		if o.OwnerID == ownerID {
			orders = append(orders, cloneOrder(o))
		}
	}
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.Before(orders[j].CreatedAt)
	})
	return orders, nil
}

func cloneOrder(order *domain.Order) *domain.Order {
	if order == nil {
		return nil
	}
	return order.Clone()
}
