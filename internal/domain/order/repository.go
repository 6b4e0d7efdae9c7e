package order

import "context"

// Repository persists committed orders. Reads are owner-scoped: an order
// owned by a different identity is reported as ErrNotFound, not as a
// distinct authorization failure.
type Repository interface {
	Insert(ctx context.Context, order *Order) error
	FindByOwner(ctx context.Context, ownerID, orderID string) (*Order, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*Order, error)
}
