package catalog

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("catalog: product not found")
	ErrInvalidQuantity   = errors.New("catalog: quantity must be greater than zero")
	ErrInsufficientStock = errors.New("catalog: insufficient stock")
)

// NotFoundError reports the concrete product id a lookup failed on.
type NotFoundError struct {
	ProductID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("catalog: product %q not found", e.ProductID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// InsufficientStockError reports a decrement that would drive stock negative.
// Remaining is the quantity observed at the moment the decrement was refused.
type InsufficientStockError struct {
	ProductID string
	Remaining int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("catalog: product %q: only %d left", e.ProductID, e.Remaining)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// View is one product entry of a point-in-time catalog snapshot.
type View struct {
	Title     string
	UnitPrice Price
	Available int
}

// Snapshot maps product id to the price and availability observed at read time.
// It is advisory: validation runs against it, but the authoritative stock check
// happens again inside DecrementAll at commit time.
type Snapshot map[string]View

// DecrementRequest asks for quantity units of one product.
type DecrementRequest struct {
	ProductID string
	Quantity  int
}

// Catalog is the source of truth for product price and available stock.
type Catalog interface {
	// Snapshot returns a read-only view of the requested products.
	// It fails with a *NotFoundError when any id is unknown.
	Snapshot(ctx context.Context, productIDs []string) (Snapshot, error)

	// DecrementAll subtracts each requested quantity from the corresponding
	// product. The batch is all-or-nothing: a single shortfall leaves every
	// product untouched and yields an *InsufficientStockError. The per-product
	// check-and-subtract is indivisible with respect to concurrent calls.
	DecrementAll(ctx context.Context, reqs []DecrementRequest) error
}
